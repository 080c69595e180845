package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/ledger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
)

// Checker runs the recurring catch-up for a given day. *ledger.Ledger implements it.
type Checker interface {
	CheckDue(ctx context.Context, today models.Date) (ledger.CatchUpReport, error)
}

// Scheduler runs "check due" once on Start and then on every tick of the interval.
// Runs never overlap: a slow run delays the next tick instead of stacking.
type Scheduler struct {
	checker  Checker
	interval time.Duration
	log      zerolog.Logger
	today    func() models.Date

	mu      sync.Mutex
	stop    chan struct{}
	wg      sync.WaitGroup
	running bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the source of "today".
func WithClock(today func() models.Date) Option {
	return func(s *Scheduler) { s.today = today }
}

func New(checker Checker, interval time.Duration, log zerolog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		checker:  checker,
		interval: interval,
		log:      log,
		today:    models.Today,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the loop. It stops when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", s.interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stop = make(chan struct{})

	s.wg.Add(1)
	go s.loop(ctx, s.stop)
	return nil
}

func (s *Scheduler) loop(ctx context.Context, stop <-chan struct{}) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		if s.stop == stop {
			s.running = false
		}
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single check for today. Failures are logged; the ledger already
// reports each failing rule, so only the aggregate is logged here.
func (s *Scheduler) RunOnce(ctx context.Context) ledger.CatchUpReport {
	report, err := s.checker.CheckDue(ctx, s.today())
	if err != nil {
		s.log.Warn().Err(err).Int("failed", len(report.Failures)).Msg("check due finished with failures")
	}
	return report
}

// Stop ends the loop and waits for an in-flight run, or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
