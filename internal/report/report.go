// Package report carries the engine's non-fatal error taxonomy. None of these
// records ever halt the scheduler: formulas degrade to defaults, a failed
// clone fails only itself and a faulting script stops on its own.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Kind classifies a Record.
type Kind int

const (
	// EvaluationWarning is a missing variable, list or sensor. A default was
	// substituted and execution continued.
	EvaluationWarning Kind = iota
	// EvaluationError is an unknown function or malformed formula. A default
	// was substituted.
	EvaluationError
	// CloneFailure means a structural clone could not be completed.
	CloneFailure
	// SchedulerFault means a script failed mid-brick and was stopped.
	SchedulerFault
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case EvaluationWarning:
		return "evaluation_warning"
	case EvaluationError:
		return "evaluation_error"
	case CloneFailure:
		return "clone_failure"
	case SchedulerFault:
		return "scheduler_fault"
	default:
		return "unknown"
	}
}

// Record is one reported condition.
type Record struct {
	Kind Kind
	// Owner names the actor (and script, if any) the record originated from.
	Owner   string
	Message string
	Err     error
}

// Error implements the error interface.
func (r Record) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", r.Kind, r.Owner, r.Message, r.Err)
	}
	return fmt.Sprintf("%s: %s: %s", r.Kind, r.Owner, r.Message)
}

// Unwrap exposes the underlying cause.
func (r Record) Unwrap() error { return r.Err }

// Reporter receives records. Implementations must tolerate being called
// from the engine goroutine at any point during a tick.
type Reporter interface {
	Report(r Record)
}

// Nop discards every record.
type Nop struct{}

// Report implements Reporter.
func (Nop) Report(Record) {}

// Slog logs records through a structured logger. Warnings are logged at
// warn level, everything else at error level.
type Slog struct {
	Logger *slog.Logger
}

// NewSlog returns a Reporter writing to logger.
func NewSlog(logger *slog.Logger) *Slog {
	return &Slog{Logger: logger}
}

// Report implements Reporter.
func (s *Slog) Report(r Record) {
	level := slog.LevelError
	if r.Kind == EvaluationWarning {
		level = slog.LevelWarn
	}
	attrs := []any{"kind", r.Kind.String(), "owner", r.Owner}
	if r.Err != nil {
		attrs = append(attrs, "error", r.Err)
	}
	s.Logger.Log(context.Background(), level, r.Message, attrs...)
}

// Collector keeps every record in memory. It is mostly useful in tests.
type Collector struct {
	mu      sync.Mutex
	records []Record
}

// Report implements Reporter.
func (c *Collector) Report(r Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
}

// Records returns a copy of everything reported so far.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Count returns how many records of kind k were reported.
func (c *Collector) Count(k Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.records {
		if r.Kind == k {
			n++
		}
	}
	return n
}

// Reset drops all collected records.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
}
