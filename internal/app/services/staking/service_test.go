package staking

import (
	"context"
	"errors"
	"testing"

	"github.com/StakePool-Labs/staking_layer/internal/app/domain/ledger"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/settings"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/user"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage/memory"
)

func TestService_StakeCreatesAccount(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)

	u, tx, err := svc.Stake(context.Background(), "0xabc", 500)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	if u.StakedAmount != 500 {
		t.Fatalf("unexpected staked amount: %v", u.StakedAmount)
	}
	if u.Status != user.StatusActive {
		t.Fatalf("new account should be active: %s", u.Status)
	}
	if tx.Type != ledger.TypeStake || tx.Status != ledger.TxCompleted {
		t.Fatalf("unexpected transaction: %+v", tx)
	}

	// A second stake tops up the same account, case-insensitively.
	u2, _, err := svc.Stake(context.Background(), "0xABC", 9500)
	if err != nil {
		t.Fatalf("second stake: %v", err)
	}
	if u2.ID != u.ID {
		t.Fatalf("stake created a duplicate account")
	}
	if u2.StakedAmount != 10000 {
		t.Fatalf("stake not accumulated: %v", u2.StakedAmount)
	}
	if u2.VIPLevel != 1 {
		t.Fatalf("vip level not recalculated: %d", u2.VIPLevel)
	}
}

func TestService_StakeLimits(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)

	if _, _, err := svc.Stake(context.Background(), " ", 100); !errors.Is(err, user.ErrInvalidWallet) {
		t.Fatalf("expected ErrInvalidWallet, got %v", err)
	}
	if _, _, err := svc.Stake(context.Background(), "0xabc", 50); !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}
	if _, _, err := svc.Stake(context.Background(), "0xabc", -5); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	if _, _, err := svc.Stake(context.Background(), "0xabc", 900000); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if _, _, err := svc.Stake(context.Background(), "0xabc", 200000); !errors.Is(err, ErrAboveMaximum) {
		t.Fatalf("expected ErrAboveMaximum, got %v", err)
	}
}

func TestService_Unstake(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)

	if _, _, err := svc.Stake(context.Background(), "0xabc", 1000); err != nil {
		t.Fatalf("stake: %v", err)
	}

	u, tx, err := svc.Unstake(context.Background(), "0xabc", 400)
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if u.StakedAmount != 600 {
		t.Fatalf("unexpected staked amount: %v", u.StakedAmount)
	}
	if tx.Type != ledger.TypeUnstake {
		t.Fatalf("unexpected transaction type: %s", tx.Type)
	}

	if _, _, err := svc.Unstake(context.Background(), "0xabc", 601); !errors.Is(err, ErrInsufficientStake) {
		t.Fatalf("expected ErrInsufficientStake, got %v", err)
	}
}

func TestService_MaintenanceBlocksStaking(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)

	cfg, err := store.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	cfg.MaintenanceMode = true
	if _, err := store.SaveSettings(context.Background(), cfg); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	if _, _, err := svc.Stake(context.Background(), "0xabc", 500); !errors.Is(err, settings.ErrMaintenance) {
		t.Fatalf("expected ErrMaintenance, got %v", err)
	}
	if _, _, err := svc.Unstake(context.Background(), "0xabc", 100); !errors.Is(err, settings.ErrMaintenance) {
		t.Fatalf("expected ErrMaintenance, got %v", err)
	}
}
