// Package rewards implements reward claims and the periodic accrual pass.
package rewards

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/StakePool-Labs/staking_layer/internal/app/domain/ledger"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/settings"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/user"
	"github.com/StakePool-Labs/staking_layer/internal/app/metrics"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage"
	"github.com/StakePool-Labs/staking_layer/pkg/logger"
)

var (
	ErrNoRewards     = errors.New("no rewards to claim")
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Service moves accrued rewards between claimable and earned balances.
type Service struct {
	users    storage.UserStore
	ledger   storage.LedgerStore
	settings storage.SettingsStore
	log      *logger.Logger

	guard     *sync.Mutex
	persister storage.Persister
}

// New constructs a rewards service.
func New(users storage.UserStore, ledgerStore storage.LedgerStore, settingsStore storage.SettingsStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("rewards")
	}
	return &Service{
		users:    users,
		ledger:   ledgerStore,
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

// Claim converts the wallet's entire claimable balance into a claim
// transaction. Claiming is blocked during maintenance.
func (s *Service) Claim(ctx context.Context, walletAddress string) (float64, ledger.Transaction, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return 0, ledger.Transaction{}, user.ErrInvalidWallet
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	cfg, err := s.settings.GetSettings(ctx)
	if err != nil {
		return 0, ledger.Transaction{}, err
	}
	if cfg.MaintenanceMode {
		return 0, ledger.Transaction{}, settings.ErrMaintenance
	}

	u, err := s.users.GetUserByWallet(ctx, walletAddress)
	if err != nil {
		return 0, ledger.Transaction{}, err
	}
	if u.ClaimableRewards <= 0 {
		return 0, ledger.Transaction{}, ErrNoRewards
	}

	claimed := u.ClaimableRewards
	u.TotalEarned += claimed
	u.ClaimableRewards = 0
	u.LastActiveAt = time.Now().UTC()

	if _, err := s.users.UpdateUser(ctx, u); err != nil {
		return 0, ledger.Transaction{}, err
	}

	tx, err := s.ledger.CreateTransaction(ctx, ledger.Transaction{
		WalletAddress: u.WalletAddress,
		Type:          ledger.TypeClaim,
		Amount:        claimed,
		Status:        ledger.TxCompleted,
	})
	if err != nil {
		return 0, ledger.Transaction{}, err
	}

	s.persist(ctx)
	s.log.WithField("wallet", u.WalletAddress).
		WithField("amount", claimed).
		Info("rewards claimed")
	return claimed, tx, nil
}

// AddRewards credits extra claimable rewards to a user. Admin-only path; no
// ledger entry is written.
func (s *Service) AddRewards(ctx context.Context, userID int64, amount float64) (user.User, error) {
	if amount <= 0 {
		return user.User{}, ErrInvalidAmount
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return user.User{}, err
	}

	u.ClaimableRewards += amount
	u, err = s.users.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, err
	}

	s.persist(ctx)
	s.log.WithField("user_id", userID).
		WithField("amount", amount).
		Info("rewards granted")
	return u, nil
}

// RunAccrual credits one period's interest to every active staker. Banned
// users and zero stakes are skipped. No ledger entries are written; rewards
// surface when claimed.
func (s *Service) RunAccrual(ctx context.Context) (float64, int, error) {
	start := time.Now()

	s.guard.Lock()
	defer s.guard.Unlock()

	all, err := s.users.ListUsers(ctx)
	if err != nil {
		return 0, 0, err
	}

	var credited float64
	var count int
	for _, u := range all {
		if u.Status != user.StatusActive || u.StakedAmount <= 0 {
			continue
		}
		interest := user.HourlyInterest(u.StakedAmount, u.VIPLevel)
		u.ClaimableRewards += interest
		u.TotalEarned += interest
		if _, err := s.users.UpdateUser(ctx, u); err != nil {
			s.log.WithError(err).Warnf("accrual update failed for user %d", u.ID)
			continue
		}
		credited += interest
		count++
	}

	s.persist(ctx)
	metrics.RecordAccrualRun(credited, time.Since(start))
	s.log.WithField("users", count).
		WithField("credited", credited).
		Info("interest accrued")
	return credited, count, nil
}

func (s *Service) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Persist(ctx); err != nil {
		s.log.WithError(err).Warn("persist snapshot failed")
	}
}
