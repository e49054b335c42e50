package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cosem-conformance/conformance-go/internal/config"
	"github.com/cosem-conformance/conformance-go/internal/device"
	"github.com/cosem-conformance/conformance-go/internal/history"
	"github.com/cosem-conformance/conformance-go/internal/testharness/engine"
	"github.com/cosem-conformance/conformance-go/internal/testharness/mock"
	"github.com/cosem-conformance/conformance-go/internal/testharness/reporter"
	"github.com/cosem-conformance/conformance-go/internal/testharness/runner"
)

type runFlags struct {
	profiles  []string
	settings  string
	workers   int
	external  string
	results   string
	formats   []string
	historyDB string
	simulate  bool
	noBasic   bool
	write     bool
	password  string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run --profile FILE...",
		Short: "Run the conformance tests against meters",
		Long: `Run the builtin and external conformance scripts against every meter
profile. Reports are written below the result directory, one directory
per meter. The exit status is 1 when any meter has an error finding.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, root, f)
		},
	}

	fl := cmd.Flags()
	fl.StringArrayVarP(&f.profiles, "profile", "p", nil, "Meter profile (YAML), repeatable")
	fl.StringVar(&f.settings, "settings", "", "Settings file (YAML)")
	fl.IntVarP(&f.workers, "workers", "w", 0, "Number of meters tested in parallel")
	fl.StringVar(&f.external, "external", "", "Directory of external test scripts")
	fl.StringVar(&f.results, "results", "", "Result directory")
	fl.StringSliceVar(&f.formats, "format", nil, "Report formats (text, json, junit, html)")
	fl.StringVar(&f.historyDB, "history-db", "", "Record the runs in this SQLite database")
	fl.BoolVar(&f.simulate, "simulate", false, "Test simulated meters built from the profiles")
	fl.BoolVar(&f.noBasic, "no-basic", false, "Skip the builtin tests")
	fl.BoolVar(&f.write, "write", false, "Run the write tests")
	fl.StringVar(&f.password, "invalid-password", "", "Password used by the invalid password check")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

// load reads the settings file and applies the flags that were set.
func (f *runFlags) load(cmd *cobra.Command) (*config.Settings, error) {
	s := config.Default()
	if f.settings != "" {
		var err error
		if s, err = config.Load(f.settings); err != nil {
			return nil, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("workers") {
		s.Workers = f.workers
	}
	if changed("external") {
		s.ExternalTests = f.external
	}
	if changed("results") {
		s.ResultDir = f.results
	}
	if changed("format") {
		s.Formats = f.formats
	}
	if changed("history-db") {
		s.HistoryDB = f.historyDB
	}
	if changed("no-basic") {
		s.ExcludeBasicTests = f.noBasic
	}
	if changed("write") {
		s.Write = f.write
	}
	if changed("invalid-password") {
		s.InvalidPassword = f.password
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func runTests(cmd *cobra.Command, root *rootOptions, f *runFlags) error {
	logger, err := root.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	settings, err := f.load(cmd)
	if err != nil {
		return err
	}
	formats, err := reporter.ParseFormats(settings.Formats)
	if err != nil {
		return err
	}

	var jobs []*runner.Job
	for _, path := range f.profiles {
		p, err := device.LoadProfile(path)
		if err != nil {
			return err
		}
		if f.simulate {
			p.Driver = mock.DriverName
		}
		jobs = append(jobs, runner.NewJob(p, settings.ResultDir, formats))
	}

	var store *history.Store
	if settings.HistoryDB != "" {
		if store, err = history.Open(settings.HistoryDB); err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := reporter.NewConsoleReporter(cmd.OutOrStdout())
	sched := runner.New(runner.Config{
		Settings: settings,
		Console:  console,
		History:  store,
		Logger:   logger,
	})
	runErr := sched.Run(ctx, runner.NewJobQueue(jobs...))

	results := make([]*engine.RunResult, 0, len(jobs))
	failed := false
	for _, job := range jobs {
		<-job.Done()
		r := job.Result()
		results = append(results, r)
		if r.Severity() == engine.SeverityError {
			failed = true
		}
	}
	console.Summary(results)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if failed {
		return errTestsFailed
	}
	return runErr
}
