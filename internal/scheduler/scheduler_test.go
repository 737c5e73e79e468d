package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"retail_bank/internal/domain"
	"sync/atomic"
	"testing"
	"time"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) Statements(ctx context.Context) ([]domain.Statement, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return []domain.Statement{{Number: "100011000"}}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunStatements(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, "@monthly", quietLogger())

	s.RunStatements()
	if got := runner.calls.Load(); got != 1 {
		t.Fatalf("expected 1 call, got %d", got)
	}

	runner.err = errors.New("boom")
	s.RunStatements()
	if got := runner.calls.Load(); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler(&countingRunner{}, "not a schedule", quietLogger())
	if err := s.Start(); err == nil {
		t.Fatal("expected an error for an invalid schedule")
	}
}

func TestScheduler_Disabled(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, "", quietLogger())
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	<-s.Stop().Done()
	if runner.calls.Load() != 0 {
		t.Error("disabled scheduler should not run the job")
	}
}

func TestScheduler_FiresOnSchedule(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, "@every 1s", quietLogger())
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for runner.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	if runner.calls.Load() == 0 {
		t.Fatal("expected the job to run at least once")
	}
}
