package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosem-conformance/conformance-go/internal/history"
	"github.com/cosem-conformance/conformance-go/internal/testharness/engine"
	"github.com/cosem-conformance/conformance-go/pkg/log"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

const simProfile = `
name: sim-meter
driver: serial
authentication: low
password: secret
options:
  firmware: FW-2.0
  logical_device_name: SIM0000042
objects:
  - class: Data
    logical_name: 0.0.96.1.0.255
    access: {1: r, 2: rw}
    values:
      2: {type: octet-string, value: "3132333435363738"}
  - class: 15
    version: 2
    logical_name: 0.0.40.0.0.255
`

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "cosem-test dev (unknown)\n", out)
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "builtin: ")
}

func TestValidateExternalFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.xml"), []byte("<Messages>"), 0o644))

	out, err := execute(t, "validate", "--external", dir)
	require.Error(t, err)
	assert.Contains(t, out, "external: 0 scripts loaded")
}

func TestRunSimulated(t *testing.T) {
	dir := t.TempDir()
	profile := filepath.Join(dir, "meter.yaml")
	require.NoError(t, os.WriteFile(profile, []byte(simProfile), 0o644))
	results := filepath.Join(dir, "results")
	db := filepath.Join(dir, "history.db")

	out, err := execute(t, "run",
		"--profile", profile,
		"--simulate",
		"--results", results,
		"--format", "json,text",
		"--history-db", db)
	if err != nil {
		require.ErrorIs(t, err, errTestsFailed)
	}

	assert.Contains(t, out, "START sim-meter")
	assert.FileExists(t, filepath.Join(results, "sim-meter", "results.json"))
	assert.FileExists(t, filepath.Join(results, "sim-meter", "results.txt"))

	store, err := history.Open(db)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.List(context.Background(), "sim-meter", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRunRequiresProfile(t *testing.T) {
	_, err := execute(t, "run")
	assert.Error(t, err)
}

func TestRunInvalidFormat(t *testing.T) {
	dir := t.TempDir()
	profile := filepath.Join(dir, "meter.yaml")
	require.NoError(t, os.WriteFile(profile, []byte(simProfile), 0o644))

	_, err := execute(t, "run", "--profile", profile, "--format", "pdf", "--simulate")
	assert.ErrorContains(t, err, "unknown format")
}

func TestInvalidLogLevel(t *testing.T) {
	dir := t.TempDir()
	profile := filepath.Join(dir, "meter.yaml")
	require.NoError(t, os.WriteFile(profile, []byte(simProfile), 0o644))

	_, err := execute(t, "run", "--profile", profile, "--log-level", "loud")
	assert.ErrorContains(t, err, "invalid log level")
}

func writeTrace(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.clog")
	logger, err := log.NewFileLogger(path)
	require.NoError(t, err)

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	class := uint16(1)
	logger.Log(log.Event{
		Timestamp: ts, Direction: log.DirectionOut, Layer: log.LayerAPDU, Category: log.CategoryMessage,
		Device:  "meter-a",
		Message: &log.MessageEvent{Command: "GetRequest", ClassID: &class, LogicalName: "0.0.96.1.0.255"},
	})
	logger.Log(log.Event{
		Timestamp: ts.Add(time.Second), Direction: log.DirectionIn, Layer: log.LayerAPDU, Category: log.CategoryMessage,
		Device:  "meter-a",
		Message: &log.MessageEvent{Command: "GetResponse", Result: "Ok"},
	})
	logger.Log(log.Event{
		Timestamp: ts.Add(2 * time.Second), Direction: log.DirectionIn, Layer: log.LayerFrame, Category: log.CategoryError,
		Device: "meter-a",
		Error:  &log.ErrorEventData{Layer: log.LayerFrame, Message: "timeout"},
	})
	require.NoError(t, logger.Close())
	return path
}

func TestTraceView(t *testing.T) {
	path := writeTrace(t)

	out, err := execute(t, "trace", path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)

	out, err = execute(t, "trace", "--direction", "out", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "GetRequest")
	assert.Contains(t, lines[0], "ln=0.0.96.1.0.255")
}

func TestTraceStats(t *testing.T) {
	out, err := execute(t, "trace", "--stats", writeTrace(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Events: 3")
	assert.Contains(t, out, "Errors: 1")
	assert.Contains(t, out, "GetRequest")
	assert.Contains(t, out, "meter-a")
}

func TestTraceInvalidFilter(t *testing.T) {
	_, err := execute(t, "trace", "--layer", "wire", writeTrace(t))
	assert.ErrorContains(t, err, "invalid layer")
}

func TestHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(db)
	require.NoError(t, err)
	result := &engine.RunResult{Device: "meter-a", StartTime: time.Now(), Duration: time.Second}
	result.Add(engine.Error("Invalid DLMS version: 5"))
	require.NoError(t, store.Record(context.Background(), "run-1", "", result))
	require.NoError(t, store.Close())

	out, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "meter-a")

	out, err = execute(t, "history", "--db", db, "--run", "run-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Invalid DLMS version: 5")
}
