package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/StakePool-Labs/staking_layer/internal/app/domain/ledger"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/user"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/wallet"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage"
)

func TestStore_UserLifecycle(t *testing.T) {
	store := New()

	created, err := store.CreateUser(context.Background(), user.User{WalletAddress: " 0xAbC "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("id not assigned")
	}
	if created.WalletAddress != "0xAbC" {
		t.Fatalf("wallet not trimmed: %q", created.WalletAddress)
	}
	if created.JoinedAt.IsZero() || created.CreatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", created)
	}

	// Wallet lookups are case-insensitive.
	byWallet, err := store.GetUserByWallet(context.Background(), "0xABC")
	if err != nil {
		t.Fatalf("get by wallet: %v", err)
	}
	if byWallet.ID != created.ID {
		t.Fatalf("wrong user: %+v", byWallet)
	}

	if _, err := store.CreateUser(context.Background(), user.User{WalletAddress: "0xabc"}); err == nil {
		t.Fatalf("duplicate wallet should be rejected")
	}
	if _, err := store.GetUser(context.Background(), 999); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.UpdateUser(context.Background(), user.User{ID: 999, WalletAddress: "0xother"}); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	created.StakedAmount = 500
	updated, err := store.UpdateUser(context.Background(), created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.StakedAmount != 500 {
		t.Fatalf("update lost: %+v", updated)
	}
	if updated.CreatedAt != created.CreatedAt {
		t.Fatalf("created time should be preserved")
	}
}

func TestStore_TransactionWithdrawalLink(t *testing.T) {
	store := New()

	wd, err := store.CreateWithdrawal(context.Background(), ledger.Withdrawal{
		ID:     "wd-1",
		Amount: 50,
		Status: ledger.WithdrawalPending,
	})
	if err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}

	tx, err := store.CreateTransaction(context.Background(), ledger.Transaction{
		WalletAddress: "0xaaa",
		Type:          ledger.TypeWithdraw,
		Amount:        50,
		Status:        ledger.TxPending,
		WithdrawalID:  wd.ID,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	linked, err := store.GetTransactionByWithdrawal(context.Background(), "wd-1")
	if err != nil {
		t.Fatalf("get by withdrawal: %v", err)
	}
	if linked.ID != tx.ID {
		t.Fatalf("wrong transaction: %+v", linked)
	}

	if _, err := store.GetTransactionByWithdrawal(context.Background(), "missing"); !errors.Is(err, ledger.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
	if _, err := store.GetWithdrawal(context.Background(), "missing"); !errors.Is(err, ledger.ErrWithdrawalNotFound) {
		t.Fatalf("expected ErrWithdrawalNotFound, got %v", err)
	}
}

func TestStore_SnapshotRestore(t *testing.T) {
	store := New()

	u, err := store.CreateUser(context.Background(), user.User{WalletAddress: "0xaaa", StakedAmount: 1000})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := store.CreateTransaction(context.Background(), ledger.Transaction{
		WalletAddress: "0xaaa",
		Type:          ledger.TypeStake,
		Amount:        1000,
		Status:        ledger.TxCompleted,
	}); err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if _, err := store.CreateWithdrawal(context.Background(), ledger.Withdrawal{
		ID:     "wd-1",
		UserID: u.ID,
		Status: ledger.WithdrawalPending,
	}); err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}
	if _, err := store.CreateApprovalRequest(context.Background(), wallet.ApprovalRequest{
		ID:            "req-1",
		WalletAddress: "0xaaa",
		Status:        wallet.ApprovalApproved,
	}); err != nil {
		t.Fatalf("create request: %v", err)
	}
	if _, err := store.SaveReportedBalance(context.Background(), wallet.Balance{
		WalletAddress: "0xaaa",
		ETH:           "1.0000",
		USDT:          "10.00",
	}); err != nil {
		t.Fatalf("save balance: %v", err)
	}

	snap, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	restored := New()
	if err := restored.Restore(context.Background(), snap); err != nil {
		t.Fatalf("restore: %v", err)
	}

	got, err := restored.GetUserByWallet(context.Background(), "0xAAA")
	if err != nil {
		t.Fatalf("user lost in restore: %v", err)
	}
	if got.StakedAmount != 1000 {
		t.Fatalf("user state lost: %+v", got)
	}
	if _, err := restored.GetWithdrawal(context.Background(), "wd-1"); err != nil {
		t.Fatalf("withdrawal lost: %v", err)
	}
	if _, err := restored.GetApprovalRequestByWallet(context.Background(), "0xaaa"); err != nil {
		t.Fatalf("approval lost: %v", err)
	}
	if _, ok, _ := restored.GetReportedBalance(context.Background(), "0xaaa"); !ok {
		t.Fatalf("balance lost")
	}

	// ID allocation continues past restored records.
	next, err := restored.CreateUser(context.Background(), user.User{WalletAddress: "0xbbb"})
	if err != nil {
		t.Fatalf("create after restore: %v", err)
	}
	if next.ID <= u.ID {
		t.Fatalf("id sequence regressed: %d", next.ID)
	}
}

func TestStore_RestoreEmptySnapshotKeepsDefaults(t *testing.T) {
	store := New()
	if err := store.Restore(context.Background(), storage.Snapshot{}); err != nil {
		t.Fatalf("restore: %v", err)
	}

	cfg, err := store.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if cfg.BaseAPY != 12.5 || cfg.MinStake != 100 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}
