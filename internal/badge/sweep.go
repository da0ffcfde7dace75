package badge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"memoria/internal/observability"

	"github.com/robfig/cron/v3"
)

// DefaultSweepBatch bounds how many group ids one sweep page loads.
const DefaultSweepBatch = 500

// SweepConfig configures the periodic sweep.
type SweepConfig struct {
	Schedule  string
	BatchSize int
	Location  *time.Location
	Logger    *slog.Logger
}

// SweepResult summarizes one pass.
type SweepResult struct {
	Scanned int
	Awarded int
	Failed  int
}

// Sweeper awards time-based badges that no request triggers.
type Sweeper struct {
	engine    *Engine
	schedule  string
	batchSize int
	logger    *slog.Logger
	cron      *cron.Cron

	mu      sync.Mutex
	started bool
}

// NewSweeper validates the schedule and prepares a stopped scheduler.
func NewSweeper(engine *Engine, cfg SweepConfig) (*Sweeper, error) {
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", cfg.Schedule, err)
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.GlobalLogger.Logger
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultSweepBatch
	}

	cl := cronLogger{logger: logger}
	s := &Sweeper{
		engine:    engine,
		schedule:  cfg.Schedule,
		batchSize: batch,
		logger:    logger,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
	return s, nil
}

// Start schedules the sweep. Calling it twice is a no-op.
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	// Scheduled passes are never cancelled; each one runs to completion.
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	s.cron.Start()
	s.started = true
	s.logger.Info("badge sweep scheduled", slog.String("schedule", s.schedule))
	return nil
}

// Stop halts scheduling and waits for a running pass. If ctx expires first,
// Stop returns ctx's error and the pass is left to finish on its own.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()
	if !started {
		return nil
	}

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce walks every group in id order and awards the group-age badge where due.
// A failure on one group is counted and the pass continues. A cancelled ctx
// ends the pass early; only manual callers pass one.
func (s *Sweeper) RunOnce(ctx context.Context) SweepResult {
	span, ctx := observability.NewSpan(ctx, "badge.Sweep")
	defer span.End()
	job := observability.StartJob(ctx, "badge_sweep", slog.Int("batch_size", s.batchSize))

	var res SweepResult
	var after uint
	for ctx.Err() == nil {
		ids, err := s.engine.stats.ListGroupIDs(ctx, after, s.batchSize)
		if err != nil {
			span.SetError(err)
			job.Fail(err, slog.Uint64("after_id", uint64(after)))
			break
		}
		for _, id := range ids {
			if ctx.Err() != nil {
				break
			}
			res.Scanned++
			created, err := s.engine.EvaluateAndAward(ctx, id, GroupAge)
			switch {
			case err != nil:
				res.Failed++
				observability.BadgeSweepGroups.WithLabelValues("failed").Inc()
				s.engine.fail(ctx, id, GroupAge, "sweep", err)
			case created:
				res.Awarded++
				observability.BadgeSweepGroups.WithLabelValues("awarded").Inc()
			default:
				observability.BadgeSweepGroups.WithLabelValues("skipped").Inc()
			}
		}
		if len(ids) < s.batchSize {
			break
		}
		after = ids[len(ids)-1]
	}

	observability.BadgeSweepDuration.Observe(job.Elapsed().Seconds())
	job.Done(
		slog.Int("scanned", res.Scanned),
		slog.Int("awarded", res.Awarded),
		slog.Int("failed", res.Failed),
	)
	return res
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
