package rewards

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/StakePool-Labs/staking_layer/internal/app/domain/ledger"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/settings"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/user"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage/memory"
)

func seedUser(t *testing.T, store *memory.Store, wallet string, staked float64) user.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), user.User{
		WalletAddress: wallet,
		StakedAmount:  staked,
		VIPLevel:      user.VIPLevelFor(staked),
		Status:        user.StatusActive,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestService_RunAccrual(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)

	seedUser(t, store, "0xaaa", 10000) // VIP1, 1.5%/day
	seedUser(t, store, "0xbbb", 0)     // nothing staked

	banned := seedUser(t, store, "0xccc", 5000)
	banned.Status = user.StatusBanned
	if _, err := store.UpdateUser(context.Background(), banned); err != nil {
		t.Fatalf("ban user: %v", err)
	}

	credited, count, err := svc.RunAccrual(context.Background())
	if err != nil {
		t.Fatalf("accrual: %v", err)
	}
	if count != 1 {
		t.Fatalf("only the active staker should accrue, got %d", count)
	}
	want := user.HourlyInterest(10000, 1)
	if math.Abs(credited-want) > 1e-9 {
		t.Fatalf("credited %v, want %v", credited, want)
	}

	u, err := store.GetUserByWallet(context.Background(), "0xaaa")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if math.Abs(u.ClaimableRewards-want) > 1e-9 {
		t.Fatalf("claimable %v, want %v", u.ClaimableRewards, want)
	}
	if math.Abs(u.TotalEarned-want) > 1e-9 {
		t.Fatalf("total earned %v, want %v", u.TotalEarned, want)
	}

	// Accrual never writes ledger entries.
	txs, err := store.ListTransactions(context.Background(), "")
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("accrual should not create transactions, got %d", len(txs))
	}
}

func TestService_Claim(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)

	u := seedUser(t, store, "0xaaa", 10000)
	u.ClaimableRewards = 42.5
	u.TotalEarned = 100
	if _, err := store.UpdateUser(context.Background(), u); err != nil {
		t.Fatalf("update user: %v", err)
	}

	claimed, tx, err := svc.Claim(context.Background(), "0xaaa")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed != 42.5 {
		t.Fatalf("claimed %v, want 42.5", claimed)
	}
	if tx.Type != ledger.TypeClaim || tx.Amount != 42.5 {
		t.Fatalf("unexpected transaction: %+v", tx)
	}

	after, err := store.GetUserByWallet(context.Background(), "0xaaa")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if after.ClaimableRewards != 0 {
		t.Fatalf("claimable not zeroed: %v", after.ClaimableRewards)
	}
	if after.TotalEarned != 142.5 {
		t.Fatalf("total earned %v, want 142.5", after.TotalEarned)
	}

	if _, _, err := svc.Claim(context.Background(), "0xaaa"); !errors.Is(err, ErrNoRewards) {
		t.Fatalf("expected ErrNoRewards, got %v", err)
	}
	if _, _, err := svc.Claim(context.Background(), "0xnobody"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ClaimBlockedDuringMaintenance(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)

	u := seedUser(t, store, "0xaaa", 1000)
	u.ClaimableRewards = 5
	if _, err := store.UpdateUser(context.Background(), u); err != nil {
		t.Fatalf("update user: %v", err)
	}

	cfg, _ := store.GetSettings(context.Background())
	cfg.MaintenanceMode = true
	if _, err := store.SaveSettings(context.Background(), cfg); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	if _, _, err := svc.Claim(context.Background(), "0xaaa"); !errors.Is(err, settings.ErrMaintenance) {
		t.Fatalf("expected ErrMaintenance, got %v", err)
	}
}

func TestService_AddRewards(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)

	u := seedUser(t, store, "0xaaa", 1000)

	updated, err := svc.AddRewards(context.Background(), u.ID, 25)
	if err != nil {
		t.Fatalf("add rewards: %v", err)
	}
	if updated.ClaimableRewards != 25 {
		t.Fatalf("claimable %v, want 25", updated.ClaimableRewards)
	}

	if _, err := svc.AddRewards(context.Background(), u.ID, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
