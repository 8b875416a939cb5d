package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/brickrun/internal/clock"
	"github.com/vk/brickrun/internal/config"
	"github.com/vk/brickrun/internal/ctxlog"
	"github.com/vk/brickrun/internal/engine"
	"github.com/vk/brickrun/internal/events"
	"github.com/vk/brickrun/internal/publish"
	"github.com/vk/brickrun/internal/report"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	program    *config.Program
	clock      clock.Clock
	engine     *engine.Engine
	httpServer *http.Server
	publisher  *publish.Publisher
	stats      *runStats
}

// NewApp is the constructor for the main application. It loads the program
// and builds the engine; a program that cannot be loaded is a fatal startup
// error and panics.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	program, err := loader.Load(ctx, cfg.ProgramPath)
	if err != nil {
		panic(fmt.Errorf("failed to load program: %w", err))
	}
	logger.Debug("Program loaded into unified model.", "actors", len(program.Actors))

	a := &App{
		ctx:     ctx,
		outW:    outW,
		logger:  logger,
		config:  cfg,
		program: program,
		stats:   newRunStats(),
	}
	a.clock = clock.Real{}
	if cfg.Virtual {
		a.clock = clock.NewVirtual(clock.Real{}.Now())
	}

	a.engine = engine.New(engine.Options{
		Clock:    a.clock,
		Reporter: report.NewSlog(logger),
		Sink: events.Fanout{
			events.LogSink{Logger: logger},
			events.SinkFunc(a.stats.count),
			events.SinkFunc(a.publish),
		},
		Seed:   cfg.Seed,
		Logger: logger,
	})
	if err := a.engine.LoadProgram(program); err != nil {
		panic(fmt.Errorf("failed to build program: %w", err))
	}
	logger.Debug("Engine ready.")
	return a
}

// Engine returns the application's engine. This is primarily for testing.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Program returns the loaded program model.
func (a *App) Program() *config.Program {
	return a.program
}

func (a *App) publish(e events.Event) {
	if a.publisher != nil {
		a.publisher.Emit(e)
	}
}
