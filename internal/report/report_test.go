package report_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/brickrun/internal/report"
)

func TestRecord_Error(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	r := report.Record{Kind: report.SchedulerFault, Owner: "cat", Message: "script stopped", Err: cause}

	require.Equal(t, "scheduler_fault: cat: script stopped: boom", r.Error())
	require.ErrorIs(t, r, cause)
}

func TestCollector(t *testing.T) {
	t.Parallel()

	c := &report.Collector{}
	c.Report(report.Record{Kind: report.EvaluationWarning})
	c.Report(report.Record{Kind: report.EvaluationError})
	c.Report(report.Record{Kind: report.EvaluationWarning})

	require.Len(t, c.Records(), 3)
	require.Equal(t, 2, c.Count(report.EvaluationWarning))
	require.Equal(t, 0, c.Count(report.CloneFailure))

	c.Reset()
	require.Empty(t, c.Records())
}

func TestSlog_LevelsByKind(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := report.NewSlog(logger)

	r.Report(report.Record{Kind: report.EvaluationWarning, Owner: "cat", Message: "unknown variable"})
	r.Report(report.Record{Kind: report.EvaluationError, Owner: "dog", Message: "unknown function"})

	out := buf.String()
	require.Contains(t, out, "level=WARN")
	require.Contains(t, out, "level=ERROR")
	require.Contains(t, out, "kind=evaluation_warning")
	require.Contains(t, out, "owner=dog")
}
