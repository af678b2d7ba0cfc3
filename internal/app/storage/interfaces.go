package storage

import (
	"context"

	"github.com/StakePool-Labs/staking_layer/internal/app/domain/ledger"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/settings"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/user"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/wallet"
)

// UserStore persists staking accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id int64) (user.User, error)
	GetUserByWallet(ctx context.Context, walletAddress string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
}

// LedgerStore persists transactions and withdrawal requests.
type LedgerStore interface {
	CreateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error)
	UpdateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error)
	GetTransactionByWithdrawal(ctx context.Context, withdrawalID string) (ledger.Transaction, error)
	ListTransactions(ctx context.Context, walletAddress string) ([]ledger.Transaction, error)

	CreateWithdrawal(ctx context.Context, wd ledger.Withdrawal) (ledger.Withdrawal, error)
	UpdateWithdrawal(ctx context.Context, wd ledger.Withdrawal) (ledger.Withdrawal, error)
	GetWithdrawal(ctx context.Context, id string) (ledger.Withdrawal, error)
	ListWithdrawals(ctx context.Context, status ledger.WithdrawalStatus) ([]ledger.Withdrawal, error)
}

// WalletStore persists approval requests and user-reported balances.
type WalletStore interface {
	CreateApprovalRequest(ctx context.Context, req wallet.ApprovalRequest) (wallet.ApprovalRequest, error)
	UpdateApprovalRequest(ctx context.Context, req wallet.ApprovalRequest) (wallet.ApprovalRequest, error)
	GetApprovalRequestByWallet(ctx context.Context, walletAddress string) (wallet.ApprovalRequest, error)
	ListApprovalRequests(ctx context.Context, status wallet.ApprovalStatus) ([]wallet.ApprovalRequest, error)

	SaveReportedBalance(ctx context.Context, bal wallet.Balance) (wallet.Balance, error)
	GetReportedBalance(ctx context.Context, walletAddress string) (wallet.Balance, bool, error)
}

// SettingsStore persists the platform configuration.
type SettingsStore interface {
	GetSettings(ctx context.Context) (settings.Platform, error)
	SaveSettings(ctx context.Context, cfg settings.Platform) (settings.Platform, error)
}

// Persister flushes current state to durable storage. Engine operations call
// it after each mutation; failures are logged by the caller, never rolled
// back.
type Persister interface {
	Persist(ctx context.Context) error
}

// Snapshot is the serializable image of the whole ledger. Field names match
// the on-disk data file.
type Snapshot struct {
	Users            []user.User              `json:"users"`
	Transactions     []ledger.Transaction     `json:"transactions"`
	Withdrawals      []ledger.Withdrawal      `json:"pendingWithdrawals"`
	ApprovalRequests []wallet.ApprovalRequest `json:"pendingWallets"`
	ReportedBalances []wallet.Balance         `json:"walletBalances"`
	Settings         settings.Platform        `json:"platformSettings"`
	NextID           int64                    `json:"nextId"`
}

// Snapshotter is implemented by stores that can export and re-import their
// full state.
type Snapshotter interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	Restore(ctx context.Context, snap Snapshot) error
}
