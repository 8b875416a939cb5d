// Package publish forwards engine events to an external renderer or audio
// service over socket.io. Every event is sent as a socket.io event named
// after events.Event.Type, with the flattened payload plus the run ID and a
// sequence number.
package publish

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vk/brickrun/internal/events"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultBuffer is how many events may wait for the network before new ones
// are dropped.
const DefaultBuffer = 1024

// Config describes the socket.io endpoint.
type Config struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
	Buffer             int
}

// Emitter is the part of a socket.io client the publisher needs.
type Emitter interface {
	Emit(event string, args ...any) error
	Close()
}

// Publisher is an events.Sink that never blocks the engine: events are
// queued and sent by Run.
type Publisher struct {
	runID  string
	conn   Emitter
	queue  *events.Chan
	logger *slog.Logger
	seq    atomic.Uint64
	sent   atomic.Uint64
}

var _ events.Sink = (*Publisher)(nil)

// New returns a publisher sending through conn. An empty runID gets a fresh
// random one.
func New(conn Emitter, runID string, buffer int, logger *slog.Logger) *Publisher {
	if runID == "" {
		runID = uuid.NewString()
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{
		runID:  runID,
		conn:   conn,
		queue:  events.NewChan(buffer),
		logger: logger.With("run_id", runID),
	}
}

// Connect dials the socket.io server described by cfg and returns a
// publisher using the connection.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("component", "publisher", "url", cfg.URL)

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse publish URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("publish URL %q must be absolute", cfg.URL)
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification.")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connected <- err
	})

	logger.Debug("Connecting to publish endpoint.")
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
	logger.Info("Connected to publish endpoint.", "sid", io.Id())
	return New(&socketEmitter{io: io}, "", cfg.Buffer, logger), nil
}

// RunID identifies this run in every published payload.
func (p *Publisher) RunID() string { return p.runID }

// Emit implements events.Sink. It only queues the event.
func (p *Publisher) Emit(e events.Event) { p.queue.Emit(e) }

// Dropped returns how many events were dropped because the queue was full.
func (p *Publisher) Dropped() uint64 { return p.queue.Dropped() }

// Sent returns how many events were handed to the connection.
func (p *Publisher) Sent() uint64 { return p.sent.Load() }

// Run sends queued events until ctx is done, then sends whatever is still
// queued and closes the connection.
func (p *Publisher) Run(ctx context.Context) {
	defer p.conn.Close()
	for {
		select {
		case e := <-p.queue.C:
			p.send(e)
		case <-ctx.Done():
			p.drain()
			p.logger.Debug("Publisher stopped.", "sent", p.sent.Load(), "dropped", p.queue.Dropped())
			return
		}
	}
}

func (p *Publisher) drain() {
	for {
		select {
		case e := <-p.queue.C:
			p.send(e)
		default:
			return
		}
	}
}

func (p *Publisher) send(e events.Event) {
	payload := events.Payload(e)
	payload["run_id"] = p.runID
	payload["seq"] = p.seq.Add(1)
	if err := p.conn.Emit(e.Type(), payload); err != nil {
		p.logger.Warn("Failed to publish event.", "type", e.Type(), "error", err)
		return
	}
	p.sent.Add(1)
}

type socketEmitter struct {
	io *socket.Socket
}

func (s *socketEmitter) Emit(event string, args ...any) error {
	return s.io.Emit(event, args...)
}

func (s *socketEmitter) Close() { s.io.Disconnect() }
