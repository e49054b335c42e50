// Package config holds the settings of a conformance run.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSettings is returned by Validate for unusable settings.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings configure a conformance run. Durations are Go duration
// strings ("500ms", "2s").
type Settings struct {
	// Delay is waited before every request.
	Delay time.Duration `yaml:"delay"`

	// DelayConnection is waited before reconnecting in the invalid
	// credential check.
	DelayConnection time.Duration `yaml:"delay_connection"`

	// ExternalTests is a directory of additional scripts.
	ExternalTests string `yaml:"external_tests,omitempty"`

	// ExcludeBasicTests skips the builtin scripts, the OBIS code check and
	// the "not tested" warnings.
	ExcludeBasicTests bool `yaml:"exclude_basic_tests"`

	// ShowValues adds decoded values to the success notes.
	ShowValues bool `yaml:"show_values"`

	// InvalidPassword enables the invalid credential check.
	InvalidPassword string `yaml:"invalid_password,omitempty"`

	// Write enables the write-back tests.
	Write bool `yaml:"write"`

	// ReReadAssociationView replaces the profile objects with the
	// association view read from the meter.
	ReReadAssociationView bool `yaml:"reread_association_view"`

	// Workers is the number of meters tested in parallel.
	Workers int `yaml:"workers"`

	// ResultDir receives one directory of reports per meter.
	ResultDir string `yaml:"result_dir"`

	// Formats are the report formats written to ResultDir.
	Formats []string `yaml:"formats"`

	// Trace writes a protocol trace next to the reports.
	Trace bool `yaml:"trace"`

	// HistoryDB is the run history database. Empty disables history.
	HistoryDB string `yaml:"history_db,omitempty"`
}

// Default returns the default settings.
func Default() *Settings {
	return &Settings{
		DelayConnection: time.Second,
		Workers:         min(runtime.NumCPU(), 4),
		ResultDir:       "results",
		Formats:         []string{"text", "html"},
		Trace:           true,
	}
}

// Parse decodes YAML settings on top of the defaults and validates them.
func Parse(data []byte) (*Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads settings from a YAML file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

var knownFormats = map[string]bool{"text": true, "json": true, "junit": true, "html": true}

// Validate checks the settings. Every problem is reported, wrapped in
// ErrInvalidSettings.
func (s *Settings) Validate() error {
	var problems []string
	if s.Delay < 0 {
		problems = append(problems, "delay must be >= 0")
	}
	if s.DelayConnection < 0 {
		problems = append(problems, "delay_connection must be >= 0")
	}
	if s.Workers < 1 {
		problems = append(problems, fmt.Sprintf("workers must be >= 1, got %d", s.Workers))
	}
	for _, f := range s.Formats {
		if !knownFormats[strings.ToLower(f)] {
			problems = append(problems, fmt.Sprintf("unknown format %q", f))
		}
	}
	if len(s.Formats) > 0 && s.ResultDir == "" {
		problems = append(problems, "result_dir is required when formats are set")
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
}
