package app

import (
	"context"
	"testing"
	"time"

	"github.com/StakePool-Labs/staking_layer/internal/app/domain/user"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage/memory"
)

func TestNew_AccrualScheduleOption(t *testing.T) {
	store := memory.New()
	if _, err := store.CreateUser(context.Background(), user.User{
		WalletAddress: "0xaaa",
		StakedAmount:  10000,
		VIPLevel:      user.VIPLevelFor(10000),
		Status:        user.StatusActive,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	application, err := New(Stores{
		Users:    store,
		Ledger:   store,
		Wallets:  store,
		Settings: store,
	}, Options{AccrualSchedule: "@every 10ms"}, nil)
	if err != nil {
		t.Fatalf("build application: %v", err)
	}

	if err := application.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		if err := application.Stop(context.Background()); err != nil {
			t.Fatalf("stop: %v", err)
		}
	}()

	// The configured schedule must reach the runner: at 10ms ticks the
	// seeded stake accrues well before the deadline.
	deadline := time.Now().Add(2 * time.Second)
	for {
		u, err := store.GetUserByWallet(context.Background(), "0xaaa")
		if err != nil {
			t.Fatalf("get user: %v", err)
		}
		if u.ClaimableRewards > 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("accrual never ran on the configured schedule")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
