// Package runner schedules conformance jobs over a pool of workers and
// runs every test of a job against its meter.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cosem-conformance/conformance-go/internal/config"
	"github.com/cosem-conformance/conformance-go/internal/device"
	"github.com/cosem-conformance/conformance-go/internal/history"
	"github.com/cosem-conformance/conformance-go/internal/testharness/engine"
	"github.com/cosem-conformance/conformance-go/internal/testharness/loader"
	"github.com/cosem-conformance/conformance-go/internal/testharness/reporter"
)

// Config configures the scheduler.
type Config struct {
	// Settings are the run settings. Nil uses config.Default().
	Settings *config.Settings

	// Catalog is the builtin catalog. Nil loads the embedded scripts.
	Catalog *loader.Catalog

	// Dial creates sessions. Nil uses device.Dial.
	Dial device.Dialer

	// Console receives progress lines. Optional.
	Console *reporter.ConsoleReporter

	// History records finished jobs. Optional.
	History *history.Store

	// Logger receives debug output. Nil uses slog.Default().
	Logger *slog.Logger
}

// Scheduler runs queued jobs on a pool of workers.
type Scheduler struct {
	config   Config
	settings *config.Settings
	logger   *slog.Logger
	dial     device.Dialer

	catalog   *loader.Catalog
	externals []*loader.ExternalScript
	loadErrs  []error
	engine    *engine.Engine
}

// New creates a scheduler.
func New(cfg Config) *Scheduler {
	s := &Scheduler{
		config:   cfg,
		settings: cfg.Settings,
		logger:   cfg.Logger,
		dial:     cfg.Dial,
	}
	if s.settings == nil {
		s.settings = config.Default()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.dial == nil {
		s.dial = device.Dial
	}
	s.engine = engine.NewWithConfig(&engine.Config{
		Delay:      s.settings.Delay,
		ShowValues: s.settings.ShowValues,
		Logger:     s.logger,
	})
	return s
}

// prepare loads the catalogs every job shares. A broken builtin catalog
// fails the run before any meter is contacted.
func (s *Scheduler) prepare() error {
	s.catalog = s.config.Catalog
	if s.catalog == nil {
		c, err := loader.Builtin()
		if err != nil {
			return fmt.Errorf("loading builtin tests: %w", err)
		}
		s.catalog = c
	}
	s.externals, s.loadErrs = loader.LoadExternal(s.settings.ExternalTests)
	s.logger.Debug("catalog loaded",
		"builtin", len(s.catalog.Definitions),
		"external", len(s.externals),
		"external_errors", len(s.loadErrs))
	return nil
}

// Run tests every job of the queue. It returns once the queue is empty
// or ctx is cancelled; jobs still waiting after a cancellation are
// finalized untested. Every claimed job is finalized exactly once.
func (s *Scheduler) Run(ctx context.Context, queue *JobQueue) error {
	if err := s.prepare(); err != nil {
		return err
	}

	workers := max(s.settings.Workers, 1)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			return s.worker(gctx, queue)
		})
	}
	err := g.Wait()

	for _, job := range queue.Drain() {
		job.Output.AddHeader("Not tested: the run was cancelled.")
		if ferr := job.Output.Finalize(context.WithoutCancel(ctx)); ferr != nil {
			s.logger.Error("finalizing job", "device", job.Profile.Name, "error", ferr)
		}
	}
	return err
}

func (s *Scheduler) worker(ctx context.Context, queue *JobQueue) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		job, ok := queue.Claim()
		if !ok {
			return nil
		}
		s.execute(ctx, job)
	}
}

// execute runs one claimed job and finalizes it whatever happens.
func (s *Scheduler) execute(ctx context.Context, job *Job) {
	logger := s.logger.With("device", job.Profile.Name, "job_id", job.ID)
	if s.config.Console != nil {
		s.config.Console.JobStarted(job.Profile.Name)
	}

	start := time.Now()
	func() {
		defer func() {
			if p := recover(); p != nil {
				logger.Error("job panicked", "panic", p)
				job.Output.Add(engine.Error("Test failed: %v", p))
			}
		}()
		r := newJobRun(s, job, logger)
		if err := r.run(ctx); err != nil {
			logger.Warn("job failed", "error", err)
			job.Output.Add(engine.Error("Test failed: %v", err))
		}
	}()
	job.Output.SetTiming(start, time.Since(start))

	fctx := context.WithoutCancel(ctx)
	if err := job.Output.Finalize(fctx); err != nil {
		logger.Error("writing reports", "error", err)
	}

	result := job.Output.Result()
	if s.config.History != nil {
		if err := s.config.History.Record(fctx, job.ID, job.Output.Dir(), result); err != nil {
			logger.Error("recording history", "error", err)
		}
	}
	if s.config.Console != nil {
		s.config.Console.JobFinished(result)
	}
}
