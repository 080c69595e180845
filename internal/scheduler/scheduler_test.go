package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/ledger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
)

type countingChecker struct {
	mu    sync.Mutex
	days  []models.Date
	calls chan struct{}
	err   error
}

func newCountingChecker() *countingChecker {
	return &countingChecker{calls: make(chan struct{}, 100)}
}

func (c *countingChecker) CheckDue(ctx context.Context, today models.Date) (ledger.CatchUpReport, error) {
	c.mu.Lock()
	c.days = append(c.days, today)
	c.mu.Unlock()
	c.calls <- struct{}{}
	return ledger.CatchUpReport{}, c.err
}

func waitCalls(t *testing.T, c *countingChecker, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for call %d", i+1)
		}
	}
}

func TestSchedulerRunsImmediatelyAndOnTicks(t *testing.T) {
	checker := newCountingChecker()
	today := models.NewDate(2024, time.March, 15)
	s := New(checker, 10*time.Millisecond, zerolog.Nop(), WithClock(func() models.Date { return today }))

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitCalls(t, checker, 3)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	checker.mu.Lock()
	defer checker.mu.Unlock()
	for _, d := range checker.days {
		if d != today {
			t.Errorf("CheckDue called with %s, want %s", d, today)
		}
	}
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	checker := newCountingChecker()
	checker.err = errors.New("rule failed")
	s := New(checker, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitCalls(t, checker, 1)
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Errorf("Stop after cancel: %v", err)
	}
}

func TestSchedulerLifecycleErrors(t *testing.T) {
	if err := New(newCountingChecker(), 0, zerolog.Nop()).Start(context.Background()); err == nil {
		t.Error("expected an error for a zero interval")
	}

	s := New(newCountingChecker(), time.Hour, zerolog.Nop())
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop before Start: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("expected an error for a second Start")
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func TestSchedulerRestartsAfterContextCancel(t *testing.T) {
	checker := newCountingChecker()
	s := New(checker, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitCalls(t, checker, 1)
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for {
		err := s.Start(context.Background())
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Start after cancel: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	waitCalls(t, checker, 1)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}
