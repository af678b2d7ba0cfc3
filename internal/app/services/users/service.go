// Package users provides account reads, admin overrides, and platform stats.
package users

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/StakePool-Labs/staking_layer/internal/app/domain/ledger"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/user"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/wallet"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage"
	"github.com/StakePool-Labs/staking_layer/pkg/logger"
)

var (
	// ErrNegativeBalance is returned for admin balance overrides below zero.
	ErrNegativeBalance = errors.New("balance cannot be negative")
	// ErrInvalidInput is returned for admin payloads that fail validation.
	ErrInvalidInput = errors.New("invalid input")
)

// Stats is the admin dashboard summary.
type Stats struct {
	TotalUsers        int     `json:"totalUsers"`
	ActiveUsers       int     `json:"activeUsers"`
	TotalStaked       float64 `json:"totalStaked"`
	TotalEarnings     float64 `json:"totalEarnings"`
	PendingApprovals  int     `json:"pendingApprovals"`
	TodayTransactions int     `json:"todayTransactions"`
	PlatformAPY       float64 `json:"platformAPY"`
}

// Patch is a partial admin update to an account. Nil fields are untouched.
type Patch struct {
	Email            *string  `json:"email"`
	Status           *string  `json:"status"`
	StakedAmount     *float64 `json:"stakedAmount"`
	TotalEarned      *float64 `json:"totalEarned"`
	ClaimableRewards *float64 `json:"claimableRewards"`
}

// Service serves account queries and admin mutations.
type Service struct {
	users    storage.UserStore
	ledger   storage.LedgerStore
	wallets  storage.WalletStore
	settings storage.SettingsStore
	log      *logger.Logger

	guard     *sync.Mutex
	persister storage.Persister
}

// New constructs a users service.
func New(users storage.UserStore, ledgerStore storage.LedgerStore, wallets storage.WalletStore, settingsStore storage.SettingsStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{
		users:    users,
		ledger:   ledgerStore,
		wallets:  wallets,
		settings: settingsStore,
		log:      log,
		guard:    &sync.Mutex{},
	}
}

// AttachGuard shares the engine mutex. Call before serving traffic.
func (s *Service) AttachGuard(mu *sync.Mutex) {
	if mu != nil {
		s.guard = mu
	}
}

// AttachPersister enables post-mutation snapshots.
func (s *Service) AttachPersister(p storage.Persister) {
	s.persister = p
}

// Get returns the account by id.
func (s *Service) Get(ctx context.Context, id int64) (user.User, error) {
	return s.users.GetUser(ctx, id)
}

// GetByWallet returns the account owning the wallet address.
func (s *Service) GetByWallet(ctx context.Context, walletAddress string) (user.User, error) {
	return s.users.GetUserByWallet(ctx, walletAddress)
}

// List returns all accounts ordered by id.
func (s *Service) List(ctx context.Context) ([]user.User, error) {
	return s.users.ListUsers(ctx)
}

// Update applies a partial admin edit. Changing the staked amount
// recalculates the VIP tier.
func (s *Service) Update(ctx context.Context, id int64, patch Patch) (user.User, error) {
	s.guard.Lock()
	defer s.guard.Unlock()

	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	if patch.Email != nil {
		u.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Status != nil {
		status, err := parseStatus(*patch.Status)
		if err != nil {
			return user.User{}, err
		}
		u.Status = status
	}
	if patch.StakedAmount != nil {
		if *patch.StakedAmount < 0 {
			return user.User{}, ErrNegativeBalance
		}
		u.StakedAmount = *patch.StakedAmount
		u.VIPLevel = user.VIPLevelFor(u.StakedAmount)
	}
	if patch.TotalEarned != nil {
		if *patch.TotalEarned < 0 {
			return user.User{}, ErrNegativeBalance
		}
		u.TotalEarned = *patch.TotalEarned
	}
	if patch.ClaimableRewards != nil {
		if *patch.ClaimableRewards < 0 {
			return user.User{}, ErrNegativeBalance
		}
		u.ClaimableRewards = *patch.ClaimableRewards
	}

	u, err = s.users.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, err
	}

	s.persist(ctx)
	s.log.WithField("user_id", id).Info("user updated")
	return u, nil
}

// SetBalance overrides staked and earned balances. The VIP tier always
// follows the staked amount.
func (s *Service) SetBalance(ctx context.Context, id int64, stakedAmount, totalEarned *float64) (user.User, error) {
	return s.Update(ctx, id, Patch{StakedAmount: stakedAmount, TotalEarned: totalEarned})
}

// SetStatus bans or reinstates an account.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (user.User, error) {
	parsed, err := parseStatus(status)
	if err != nil {
		return user.User{}, err
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	u.Status = parsed
	u, err = s.users.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, err
	}

	s.persist(ctx)
	s.log.WithField("user_id", id).
		WithField("status", parsed).
		Info("user status changed")
	return u, nil
}

// Transactions returns the wallet's ledger entries, newest first. An empty
// wallet address returns the full ledger.
func (s *Service) Transactions(ctx context.Context, walletAddress string) ([]ledger.Transaction, error) {
	txs, err := s.ledger.ListTransactions(ctx, walletAddress)
	if err != nil {
		return nil, err
	}
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].ID > txs[j].ID
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
	return txs, nil
}

// InsertTransaction writes a manual ledger entry. Admin-only path; balances
// are not touched.
func (s *Service) InsertTransaction(ctx context.Context, walletAddress, txType string, amount float64, status string) (ledger.Transaction, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return ledger.Transaction{}, user.ErrInvalidWallet
	}
	if strings.TrimSpace(txType) == "" {
		return ledger.Transaction{}, fmt.Errorf("type is required: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(status) == "" {
		status = string(ledger.TxCompleted)
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	tx, err := s.ledger.CreateTransaction(ctx, ledger.Transaction{
		WalletAddress: walletAddress,
		Type:          ledger.TransactionType(txType),
		Amount:        amount,
		Status:        ledger.TransactionStatus(status),
	})
	if err != nil {
		return ledger.Transaction{}, err
	}

	s.persist(ctx)
	s.log.WithField("wallet", walletAddress).
		WithField("type", txType).
		Info("manual transaction recorded")
	return tx, nil
}

// Stats aggregates the dashboard summary.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.users.ListUsers(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{TotalUsers: len(all)}
	for _, u := range all {
		if u.Status == user.StatusActive {
			stats.ActiveUsers++
		}
		stats.TotalStaked += u.StakedAmount
		stats.TotalEarnings += u.TotalEarned
	}

	pending, err := s.wallets.ListApprovalRequests(ctx, wallet.ApprovalPending)
	if err != nil {
		return Stats{}, err
	}
	stats.PendingApprovals = len(pending)

	txs, err := s.ledger.ListTransactions(ctx, "")
	if err != nil {
		return Stats{}, err
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, tx := range txs {
		if !tx.CreatedAt.UTC().Truncate(24 * time.Hour).Equal(today) {
			continue
		}
		stats.TodayTransactions++
	}

	cfg, err := s.settings.GetSettings(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.PlatformAPY = cfg.BaseAPY
	return stats, nil
}

func parseStatus(raw string) (user.Status, error) {
	switch user.Status(strings.ToLower(strings.TrimSpace(raw))) {
	case user.StatusActive:
		return user.StatusActive, nil
	case user.StatusBanned:
		return user.StatusBanned, nil
	default:
		return "", fmt.Errorf("unsupported status %q: %w", raw, ErrInvalidInput)
	}
}

func (s *Service) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Persist(ctx); err != nil {
		s.log.WithError(err).Warn("persist snapshot failed")
	}
}
