package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosem-conformance/conformance-go/internal/testharness/engine"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func result(device string, start time.Time, findings ...engine.Finding) *engine.RunResult {
	return &engine.RunResult{
		Device:    device,
		StartTime: start,
		Duration:  2500 * time.Millisecond,
		Findings:  findings,
	}
}

func TestRecordAndList(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, "run-1", "results/a", result("meter-a", base,
		engine.Info("ok"), engine.Warning("frame size"))))
	require.NoError(t, s.Record(ctx, "run-2", "results/b", result("meter-b", base.Add(time.Minute),
		engine.Error("bad"))))
	require.NoError(t, s.Record(ctx, "run-3", "", result("meter-a", base.Add(2*time.Minute))))

	runs, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-3", runs[0].ID)
	assert.Equal(t, engine.SeverityNone, runs[0].Severity)
	assert.Equal(t, "", runs[0].ResultDir)

	assert.Equal(t, "run-2", runs[1].ID)
	assert.Equal(t, engine.SeverityError, runs[1].Severity)
	assert.Equal(t, 1, runs[1].Errors)
	assert.Equal(t, 2500*time.Millisecond, runs[1].Duration)
	assert.True(t, base.Add(time.Minute).Equal(runs[1].StartedAt))

	runs, err = s.List(ctx, "meter-a", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-3", runs[0].ID)
}

func TestFindings(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "run-1", "", result("meter", time.Now(),
		engine.Info("skipped"), engine.Error("first"), engine.Warning("second"))))

	got, err := s.Findings(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []Finding{
		{Severity: engine.SeverityError, Message: "first"},
		{Severity: engine.SeverityWarning, Message: "second"},
	}, got)

	_, err = s.Findings(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRecordDuplicateID(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "run-1", "", result("meter", time.Now(), engine.Error("x"))))
	require.Error(t, s.Record(ctx, "run-1", "", result("meter", time.Now(), engine.Error("y"))))

	got, err := s.Findings(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].Message)
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, "run-1", "", result("meter", time.Now(), engine.Warning("w"))))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, len(migrations), version)

	runs, err := s.List(ctx, "meter", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Warnings)
}
