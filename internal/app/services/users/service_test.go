package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/StakePool-Labs/staking_layer/internal/app/domain/ledger"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/user"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/wallet"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage/memory"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return New(store, store, store, store, nil), store
}

func ptrF(v float64) *float64 { return &v }
func ptrS(v string) *string   { return &v }

func TestService_Update(t *testing.T) {
	svc, store := newService(t)

	u, err := store.CreateUser(context.Background(), user.User{
		WalletAddress: "0xaaa",
		Status:        user.StatusActive,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	updated, err := svc.Update(context.Background(), u.ID, Patch{
		Email:        ptrS(" user@example.com "),
		StakedAmount: ptrF(60000),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Email != "user@example.com" {
		t.Fatalf("email not trimmed: %q", updated.Email)
	}
	if updated.StakedAmount != 60000 {
		t.Fatalf("staked amount: %v", updated.StakedAmount)
	}
	if updated.VIPLevel != 2 {
		t.Fatalf("vip level should follow stake: %d", updated.VIPLevel)
	}

	if _, err := svc.Update(context.Background(), u.ID, Patch{StakedAmount: ptrF(-1)}); !errors.Is(err, ErrNegativeBalance) {
		t.Fatalf("expected ErrNegativeBalance, got %v", err)
	}
	if _, err := svc.Update(context.Background(), u.ID, Patch{Status: ptrS("frozen")}); err == nil {
		t.Fatalf("unknown status should be rejected")
	}
	if _, err := svc.Update(context.Background(), 9999, Patch{}); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_SetStatus(t *testing.T) {
	svc, store := newService(t)

	u, _ := store.CreateUser(context.Background(), user.User{WalletAddress: "0xaaa", Status: user.StatusActive})

	banned, err := svc.SetStatus(context.Background(), u.ID, "BANNED")
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if banned.Status != user.StatusBanned {
		t.Fatalf("unexpected status: %s", banned.Status)
	}
}

func TestService_TransactionsNewestFirst(t *testing.T) {
	svc, store := newService(t)

	base := time.Now().UTC()
	for i, amount := range []float64{1, 2, 3} {
		if _, err := store.CreateTransaction(context.Background(), ledger.Transaction{
			WalletAddress: "0xaaa",
			Type:          ledger.TypeStake,
			Amount:        amount,
			Status:        ledger.TxCompleted,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	txs, err := svc.Transactions(context.Background(), "0xAAA")
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	if txs[0].Amount != 3 || txs[2].Amount != 1 {
		t.Fatalf("not sorted newest first: %+v", txs)
	}
}

func TestService_Stats(t *testing.T) {
	svc, store := newService(t)

	for _, seed := range []user.User{
		{WalletAddress: "0xaaa", StakedAmount: 1000, TotalEarned: 10, Status: user.StatusActive},
		{WalletAddress: "0xbbb", StakedAmount: 2000, TotalEarned: 20, Status: user.StatusBanned},
	} {
		if _, err := store.CreateUser(context.Background(), seed); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	if _, err := store.CreateApprovalRequest(context.Background(), wallet.ApprovalRequest{
		ID:            "req-1",
		WalletAddress: "0xccc",
		Status:        wallet.ApprovalPending,
		RequestedAt:   time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed approval: %v", err)
	}
	if _, err := store.CreateTransaction(context.Background(), ledger.Transaction{
		WalletAddress: "0xaaa",
		Type:          ledger.TypeStake,
		Amount:        1000,
		Status:        ledger.TxCompleted,
	}); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalUsers != 2 || stats.ActiveUsers != 1 {
		t.Fatalf("user counts wrong: %+v", stats)
	}
	if stats.TotalStaked != 3000 || stats.TotalEarnings != 30 {
		t.Fatalf("totals wrong: %+v", stats)
	}
	if stats.PendingApprovals != 1 {
		t.Fatalf("pending approvals: %d", stats.PendingApprovals)
	}
	if stats.TodayTransactions != 1 {
		t.Fatalf("today transactions: %d", stats.TodayTransactions)
	}
	if stats.PlatformAPY != 12.5 {
		t.Fatalf("platform apy: %v", stats.PlatformAPY)
	}
}

func TestService_InsertTransaction(t *testing.T) {
	svc, _ := newService(t)

	tx, err := svc.InsertTransaction(context.Background(), "0xaaa", "stake", 100, "")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if tx.Status != ledger.TxCompleted {
		t.Fatalf("status should default to completed: %s", tx.Status)
	}

	if _, err := svc.InsertTransaction(context.Background(), "", "stake", 1, ""); err == nil {
		t.Fatalf("empty wallet should be rejected")
	}
	if _, err := svc.InsertTransaction(context.Background(), "0xaaa", "", 1, ""); err == nil {
		t.Fatalf("empty type should be rejected")
	}
}
