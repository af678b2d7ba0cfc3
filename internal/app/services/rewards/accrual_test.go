package rewards

import (
	"context"
	"testing"
	"time"

	"github.com/StakePool-Labs/staking_layer/internal/app/storage/memory"
)

func TestAccrualRunner_StartStop(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	seedUser(t, store, "0xaaa", 10000)

	runner := NewAccrualRunner(svc, "@every 10ms", nil)
	if runner.Name() != "rewards-accrual" {
		t.Fatalf("unexpected name: %s", runner.Name())
	}

	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Idempotent start.
	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("second start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		u, err := store.GetUserByWallet(context.Background(), "0xaaa")
		if err != nil {
			t.Fatalf("get user: %v", err)
		}
		if u.ClaimableRewards > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("accrual never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := runner.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	// Idempotent stop.
	if err := runner.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestNewAccrualRunner_InvalidScheduleFallsBack(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)

	runner := NewAccrualRunner(svc, "not a schedule", nil)
	if runner.schedule == nil {
		t.Fatalf("schedule should fall back to the default")
	}

	next := runner.schedule.Next(time.Now())
	until := time.Until(next)
	if until <= 0 || until > time.Hour+time.Minute {
		t.Fatalf("fallback should be hourly, next in %s", until)
	}
}
