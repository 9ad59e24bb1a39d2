package shortener

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sundayezeilo/shortlinks/internal/errx"
)

func TestJanitor_Sweep(t *testing.T) {
	t.Run("passes clock and reports removed", func(t *testing.T) {
		var gotNow time.Time
		var hasDeadline bool
		repo := &mockRepository{
			sweepExpiredFunc: func(ctx context.Context, now time.Time) (int64, error) {
				gotNow = now
				_, hasDeadline = ctx.Deadline()
				return 3, nil
			},
		}
		j := NewJanitor(repo, &JanitorConfig{Clock: fixedClock})

		n, err := j.Sweep(context.Background())
		if err != nil {
			t.Fatalf("Sweep() unexpected error: %v", err)
		}
		if n != 3 {
			t.Errorf("Sweep() = %d, want 3", n)
		}
		if !gotNow.Equal(testNow) {
			t.Errorf("now = %v, want %v", gotNow, testNow)
		}
		if !hasDeadline {
			t.Error("sweep must run under a deadline")
		}
	})

	t.Run("returns store error", func(t *testing.T) {
		repo := &mockRepository{
			sweepExpiredFunc: func(context.Context, time.Time) (int64, error) {
				return 0, errx.E("repo.SweepExpired", errx.Internal, errors.New("boom"))
			},
		}
		j := NewJanitor(repo, nil)

		if _, err := j.Sweep(context.Background()); errx.KindOf(err) != errx.Internal {
			t.Errorf("kind = %v, want Internal", errx.KindOf(err))
		}
	})
}

func TestJanitor_Defaults(t *testing.T) {
	j := NewJanitor(&mockRepository{}, &JanitorConfig{Interval: -1, Timeout: 0})
	if j.interval != DefaultSweepInterval || j.timeout != DefaultSweepTimeout {
		t.Errorf("interval = %v, timeout = %v, want defaults", j.interval, j.timeout)
	}
}

func TestJanitor_Run(t *testing.T) {
	var sweeps atomic.Int64
	repo := &mockRepository{
		sweepExpiredFunc: func(context.Context, time.Time) (int64, error) {
			sweeps.Add(1)
			return 0, nil
		},
	}
	j := NewJanitor(repo, &JanitorConfig{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for sweeps.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("only %d sweeps before deadline", sweeps.Load())
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil on cancellation", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}
