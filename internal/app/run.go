package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/brickrun/internal/clock"
	"github.com/vk/brickrun/internal/ctxlog"
	"github.com/vk/brickrun/internal/events"
	"github.com/vk/brickrun/internal/publish"
	"golang.org/x/time/rate"
)

// runStats accumulates counters over one run. ticks is read by the health
// check; the rest only by the run loop.
type runStats struct {
	ticks  atomic.Uint64
	faults int
	events map[string]int
}

func newRunStats() *runStats {
	return &runStats{events: make(map[string]int)}
}

func (s *runStats) count(e events.Event) {
	s.events[e.Type()]++
}

// Run executes the main application logic: it starts the optional health
// check and publisher, then ticks the engine until the program is idle, the
// configured duration has elapsed, or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	logger := ctxlog.FromContext(ctx)
	logger.Info("Starting application run.", "program", a.program.Name, "fps", a.config.FPS, "virtual", a.config.Virtual)

	a.healthCheckServer()
	defer func() {
		if err := a.closeHealthCheckServer(); err != nil {
			logger.Error("Failed to close health check server.", "error", err)
		}
	}()

	stopPublisher, err := a.startPublisher(ctx)
	if err != nil {
		return err
	}
	defer stopPublisher()

	if err := a.engine.Start(); err != nil {
		return fmt.Errorf("failed to start program: %w", err)
	}

	reason := a.loop(ctx)
	logger.Info("Application run finished.",
		"reason", reason,
		"ticks", a.stats.ticks.Load(),
		"faults", a.stats.faults,
		"events", a.stats.events,
	)
	return nil
}

func (a *App) loop(ctx context.Context) string {
	frame := a.config.frame()
	start := a.clock.Now()
	limiter := rate.NewLimiter(rate.Every(frame), 1)

	for {
		if a.config.Virtual {
			if err := ctx.Err(); err != nil {
				a.engine.Stop()
				return "cancelled"
			}
			a.clock.(*clock.Virtual).Advance(frame)
		} else if err := limiter.Wait(ctx); err != nil {
			// With a burst of one, Wait only fails when ctx is done or its
			// deadline falls before the next frame.
			a.engine.Stop()
			return "cancelled"
		}

		rep := a.engine.Tick()
		a.stats.ticks.Add(1)
		a.stats.faults += rep.Faults

		if a.engine.Idle() {
			return "idle"
		}
		if d := a.config.Duration; d > 0 && a.clock.Now().Sub(start) >= d {
			a.engine.Stop()
			return "duration"
		}
	}
}

// startPublisher connects to the configured socket.io endpoint, if any. The
// returned function drains the queue and closes the connection.
func (a *App) startPublisher(ctx context.Context) (func(), error) {
	logger := ctxlog.FromContext(ctx)
	if a.config.PublishURL == "" {
		logger.Debug("Event publishing disabled.")
		return func() {}, nil
	}

	p, err := publish.Connect(ctx, publish.Config{
		URL:       a.config.PublishURL,
		Namespace: a.config.PublishNamespace,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect publisher: %w", err)
	}
	a.publisher = p

	pubCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Run(pubCtx)
	}()
	logger.Info("Publishing events.", "url", a.config.PublishURL, "run_id", p.RunID())

	return func() {
		cancel()
		wg.Wait()
		logger.Info("Publisher closed.", "sent", p.Sent(), "dropped", p.Dropped())
		a.publisher = nil
	}, nil
}
