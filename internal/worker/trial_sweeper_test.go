package worker

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/pratik-mahalle/creatorhub/internal/pkg/logger"
	"github.com/pratik-mahalle/creatorhub/internal/testutil"
)

func TestTrialSweeper_StartStopsWithContext(t *testing.T) {
	ctrl := &testutil.MockController{Expired: 2}
	s := NewTrialSweeper(ctrl, "@every 1h", logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
	if ctrl.Sweeps < 1 {
		t.Error("Start() should sweep once before waiting on the schedule")
	}
}

func TestTrialSweeper_InvalidSchedule(t *testing.T) {
	s := NewTrialSweeper(&testutil.MockController{}, "every now and then", logger.Nop())
	if err := s.Start(context.Background()); err == nil {
		t.Error("Start() expected error for invalid schedule")
	}
}

func TestTrialSweeper_SweepSurvivesErrors(t *testing.T) {
	ctrl := &testutil.MockController{Err: stderrors.New("db down")}
	s := NewTrialSweeper(ctrl, "@every 1h", logger.Nop())
	s.Sweep(context.Background())
	s.Sweep(context.Background())
	if ctrl.Sweeps != 2 {
		t.Errorf("Sweeps = %d, want 2", ctrl.Sweeps)
	}
}
