// Package wallet defines wallet approval requests and reported balances.
package wallet

import (
	"errors"
	"time"
)

// ApprovalStatus is the lifecycle state of an approval request.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ErrRequestNotFound is returned when no approval request matches the wallet.
var ErrRequestNotFound = errors.New("approval request not found")

// ApprovalRequest records a wallet asking for platform access.
type ApprovalRequest struct {
	ID            string         `json:"id"`
	WalletAddress string         `json:"walletAddress"`
	IPAddress     string         `json:"ipAddress"`
	UserAgent     string         `json:"userAgent"`
	Status        ApprovalStatus `json:"status"`
	RequestedAt   time.Time      `json:"timestamp"`
	DecidedAt     time.Time      `json:"decidedAt,omitempty"`
}

// Balance is a wallet balance reported by the user's own wallet client.
// Values are kept as display strings exactly as reported.
type Balance struct {
	WalletAddress string    `json:"walletAddress"`
	ETH           string    `json:"eth"`
	USDT          string    `json:"usdt"`
	ReportedAt    time.Time `json:"timestamp"`
}
