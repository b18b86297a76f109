package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/deskflow/conversation"
	"github.com/hupe1980/deskflow/logging"
	"github.com/hupe1980/deskflow/store"
)

// SessionFactory builds a fresh session for one customer record. The
// trajectory path names where the session's recorder must flush.
type SessionFactory func(ctx context.Context, rec store.CustomerRecord, intent, trajectoryPath string) (*conversation.Session, error)

// Summary reports what a batch run did.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
}

// Options holds configuration overrides passed to New().
type Options struct {
	// Concurrency caps how many sessions run at once.
	Concurrency int
	// IntentFilter, when set, restricts the batch to records scripted for
	// that intent.
	IntentFilter string
	Logger       logging.Logger
}

// Runner walks a domain's customer records and executes one session per
// customer. Records whose trajectory file already exists are skipped, so an
// interrupted batch can be resumed by rerunning it.
type Runner struct {
	dataDir    string
	outputDir  string
	modelLabel string
	experiment string
	factory    SessionFactory

	concurrency  int
	intentFilter string
	logger       logging.Logger
}

// New constructs a Runner with optional overrides.
func New(dataDir, outputDir, modelLabel, experiment string, factory SessionFactory, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Concurrency: 1,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	return &Runner{
		dataDir:      dataDir,
		outputDir:    outputDir,
		modelLabel:   modelLabel,
		experiment:   experiment,
		factory:      factory,
		concurrency:  opts.Concurrency,
		intentFilter: opts.IntentFilter,
		logger:       opts.Logger,
	}
}

// TrajectoryPath returns where the trajectory for one customer lands.
func (r *Runner) TrajectoryPath(intent, customerID string) string {
	return filepath.Join(r.outputDir, "trajectory", r.modelLabel, r.experiment, intent, customerID+".jsonl")
}

// RunDomain executes sessions for every eligible record of a domain. One
// failing customer never aborts the rest of the batch; failures are counted
// and logged.
func (r *Runner) RunDomain(ctx context.Context, domain string) (*Summary, error) {
	records, err := store.LoadRecords(filepath.Join(r.dataDir, "customer_data"), domain)
	if err != nil {
		return nil, fmt.Errorf("load records for %s: %w", domain, err)
	}

	r.logger.Info("runner.domain_start", "domain", domain, "records", len(records))

	var (
		mu      sync.Mutex
		summary Summary
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, rec := range records {
		rec := rec
		customerID := rec.ID()
		intent := rec.Intent()

		if customerID == "" || intent == "" {
			r.logger.Warn("runner.record_invalid", "domain", domain, "customer_id", customerID)
			mu.Lock()
			summary.Skipped++
			mu.Unlock()
			continue
		}

		if r.intentFilter != "" && intent != r.intentFilter {
			mu.Lock()
			summary.Skipped++
			mu.Unlock()
			continue
		}

		path := r.TrajectoryPath(intent, customerID)
		if _, err := os.Stat(path); err == nil {
			r.logger.Info("runner.trajectory_exists", "customer_id", customerID, "path", path)
			mu.Lock()
			summary.Skipped++
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			if err := r.runOne(ctx, rec, intent, path); err != nil {
				r.logger.Error("runner.session_failed", "customer_id", customerID, "error", err.Error())
				mu.Lock()
				summary.Failed++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			summary.Processed++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return &summary, err
	}

	r.logger.Info("runner.domain_done", "domain", domain,
		"processed", summary.Processed, "skipped", summary.Skipped, "failed", summary.Failed)

	return &summary, nil
}

func (r *Runner) runOne(ctx context.Context, rec store.CustomerRecord, intent, trajectoryPath string) error {
	session, err := r.factory(ctx, rec, intent, trajectoryPath)
	if err != nil {
		return fmt.Errorf("build session: %w", err)
	}

	outcome, err := session.Run(ctx)
	if err != nil {
		return fmt.Errorf("run session: %w", err)
	}

	r.logger.Info("runner.session_done", "customer_id", rec.ID(),
		"turns", outcome.Turns, "reason", outcome.Reason.String())

	return nil
}
