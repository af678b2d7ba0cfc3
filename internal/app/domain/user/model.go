// Package user defines platform account records and the VIP tier policy.
package user

import (
	"errors"
	"time"
)

// Status describes whether an account may transact.
type Status string

const (
	StatusActive Status = "active"
	StatusBanned Status = "banned"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidWallet is returned for requests without a wallet address.
	ErrInvalidWallet = errors.New("wallet address is required")
)

// User is a staking account keyed by wallet address.
type User struct {
	ID               int64   `json:"id"`
	WalletAddress    string  `json:"walletAddress"`
	Email            string  `json:"email"`
	StakedAmount     float64 `json:"stakedAmount"`
	TotalEarned      float64 `json:"totalEarned"`
	ClaimableRewards float64 `json:"claimableRewards"`
	VIPLevel         int     `json:"vipLevel"`
	Status           Status  `json:"status"`

	JoinedAt     time.Time `json:"joinDate"`
	LastActiveAt time.Time `json:"lastActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Tier thresholds in staked USDT.
const (
	vip1Threshold = 10000
	vip2Threshold = 50000
	vip3Threshold = 100000
)

var dailyRates = map[int]float64{
	0: 1,
	1: 1.5,
	2: 2,
	3: 2.5,
}

// VIPLevelFor returns the tier implied by a staked amount.
func VIPLevelFor(stakedAmount float64) int {
	switch {
	case stakedAmount >= vip3Threshold:
		return 3
	case stakedAmount >= vip2Threshold:
		return 2
	case stakedAmount >= vip1Threshold:
		return 1
	default:
		return 0
	}
}

// DailyRate returns the daily interest rate in percent for a tier. Unknown
// tiers earn the standard rate.
func DailyRate(vipLevel int) float64 {
	if rate, ok := dailyRates[vipLevel]; ok {
		return rate
	}
	return 1
}

// HourlyInterest is one hour's share of the daily interest on a stake.
func HourlyInterest(stakedAmount float64, vipLevel int) float64 {
	return stakedAmount * DailyRate(vipLevel) / 100 / 24
}
