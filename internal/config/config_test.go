package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())
	assert.Equal(t, time.Second, s.DelayConnection)
	assert.GreaterOrEqual(t, s.Workers, 1)
	assert.True(t, s.Trace)
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte(`
delay: 250ms
delay_connection: 3s
external_tests: ./scripts
show_values: true
invalid_password: wrong
write: true
workers: 2
formats: [json, junit]
history_db: runs.db
`))
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, s.Delay)
	assert.Equal(t, 3*time.Second, s.DelayConnection)
	assert.Equal(t, "./scripts", s.ExternalTests)
	assert.True(t, s.ShowValues)
	assert.Equal(t, "wrong", s.InvalidPassword)
	assert.True(t, s.Write)
	assert.Equal(t, 2, s.Workers)
	assert.Equal(t, []string{"json", "junit"}, s.Formats)
	assert.Equal(t, "runs.db", s.HistoryDB)
	// Unset keys keep their defaults.
	assert.Equal(t, "results", s.ResultDir)
	assert.True(t, s.Trace)
}

func TestParseInvalid(t *testing.T) {
	tests := map[string]string{
		"negative delay": "delay: -1s",
		"no workers":     "workers: 0",
		"unknown format": "formats: [pdf]",
		"no result dir":  "result_dir: \"\"",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSettings), "got %v", err)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("delay: [1"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidSettings))
}

func TestValidateReportsEveryProblem(t *testing.T) {
	s := Default()
	s.Workers = 0
	s.Delay = -time.Second
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers must be >= 1")
	assert.Contains(t, err.Error(), "delay must be >= 0")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 3\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Workers)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
