package shortener

import (
	"context"
	"log/slog"
	"time"

	"github.com/sundayezeilo/shortlinks/internal/metrics"
)

const (
	DefaultSweepInterval = time.Hour
	DefaultSweepTimeout  = 30 * time.Second
)

// Janitor periodically deletes expired links from the store. Run it with
// the process context, never a request's.
type Janitor struct {
	repo     Repository
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// JanitorConfig holds configuration for the janitor.
type JanitorConfig struct {
	Interval time.Duration // default: 1h
	Timeout  time.Duration // bound on a single sweep, default: 30s
	Clock    func() time.Time
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// NewJanitor creates a Janitor sweeping repo.
func NewJanitor(repo Repository, config *JanitorConfig) *Janitor {
	if config == nil {
		config = &JanitorConfig{}
	}

	interval := config.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultSweepTimeout
	}
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Janitor{
		repo:     repo,
		interval: interval,
		timeout:  timeout,
		now:      func() time.Time { return clock().UTC() },
		logger:   logger,
		metrics:  config.Metrics,
	}
}

// Run sweeps once per interval until ctx is cancelled, then returns nil.
// The app runs it next to the HTTP server under one errgroup.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.InfoContext(ctx, "janitor started", "interval", j.interval.String())

	for {
		select {
		case <-ctx.Done():
			j.logger.InfoContext(ctx, "janitor stopped")
			return nil
		case <-ticker.C:
			// errors are logged and counted; the next tick retries
			_, _ = j.Sweep(ctx)
		}
	}
}

// Sweep deletes every link that expired before now.
func (j *Janitor) Sweep(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	started := time.Now()
	removed, err := j.repo.SweepExpired(ctx, j.now())
	j.metrics.Sweep(removed, err)

	if err != nil {
		j.logger.ErrorContext(ctx, "expired link sweep failed",
			"error", err.Error(),
			"duration", time.Since(started).String(),
		)
		return 0, err
	}

	j.logger.InfoContext(ctx, "expired links swept",
		"removed", removed,
		"duration", time.Since(started).String(),
	)
	return removed, nil
}
