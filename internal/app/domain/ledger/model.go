// Package ledger defines the transaction log and withdrawal records.
package ledger

import (
	"errors"
	"time"
)

// TransactionType labels ledger entries.
type TransactionType string

const (
	TypeStake    TransactionType = "stake"
	TypeUnstake  TransactionType = "unstake"
	TypeClaim    TransactionType = "claim"
	TypeWithdraw TransactionType = "withdraw"
)

// TransactionStatus tracks settlement of a ledger entry.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxRejected  TransactionStatus = "rejected"
)

// WithdrawalStatus tracks the admin decision on a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalRejected WithdrawalStatus = "rejected"
)

// FeeRate is the flat platform fee applied to withdrawals.
const FeeRate = 0.02

var (
	// ErrWithdrawalNotFound is returned when no withdrawal matches the id.
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	// ErrTransactionNotFound is returned when no ledger entry matches.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Transaction is a single ledger entry. Entries created for withdrawal
// requests carry the withdrawal id so a later decision flips exactly the
// entry it belongs to.
type Transaction struct {
	ID            int64             `json:"id"`
	WalletAddress string            `json:"walletAddress"`
	Type          TransactionType   `json:"type"`
	Amount        float64           `json:"amount"`
	Status        TransactionStatus `json:"status"`
	WithdrawalID  string            `json:"withdrawalId,omitempty"`
	CreatedAt     time.Time         `json:"date"`
}

// Withdrawal is a user request to move claimable rewards off-platform.
// Amounts are locked in at request time; the fee is 2% of the gross amount.
type Withdrawal struct {
	ID            string           `json:"id"`
	UserID        int64            `json:"userId"`
	WalletAddress string           `json:"walletAddress"`
	Amount        float64          `json:"amount"`
	Fee           float64          `json:"fee"`
	NetAmount     float64          `json:"netAmount"`
	Status        WithdrawalStatus `json:"status"`
	Reason        string           `json:"rejectionReason,omitempty"`

	RequestedAt time.Time `json:"requestedAt"`
	DecidedAt   time.Time `json:"decidedAt,omitempty"`
}
