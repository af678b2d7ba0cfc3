// Package staking implements the stake and unstake engine.
package staking

import (
	"context"
	"errors"
	"fmt"
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
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrBelowMinimum      = errors.New("amount below minimum stake")
	ErrAboveMaximum      = errors.New("amount above maximum stake")
	ErrInsufficientStake = errors.New("insufficient staked balance")
)

// Service applies stake and unstake operations to user accounts.
type Service struct {
	users    storage.UserStore
	ledger   storage.LedgerStore
	settings storage.SettingsStore
	log      *logger.Logger

	guard     *sync.Mutex
	persister storage.Persister
}

// New constructs a staking service.
func New(users storage.UserStore, ledgerStore storage.LedgerStore, settingsStore storage.SettingsStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("staking")
	}
	return &Service{
		users:    users,
		ledger:   ledgerStore,
		settings: settingsStore,
		log:      log,
		guard:    &sync.Mutex{},
	}
}

// AttachGuard shares a mutex with the other engine services so multi-step
// mutations across stores are serialized. Call before serving traffic.
func (s *Service) AttachGuard(mu *sync.Mutex) {
	if mu != nil {
		s.guard = mu
	}
}

// AttachPersister enables post-mutation snapshots.
func (s *Service) AttachPersister(p storage.Persister) {
	s.persister = p
}

// Stake credits a deposit to the wallet's stake. Unknown wallets get an
// account created on first stake.
func (s *Service) Stake(ctx context.Context, walletAddress string, amount float64) (user.User, ledger.Transaction, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return user.User{}, ledger.Transaction{}, user.ErrInvalidWallet
	}
	if amount <= 0 {
		return user.User{}, ledger.Transaction{}, ErrInvalidAmount
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	cfg, err := s.settings.GetSettings(ctx)
	if err != nil {
		return user.User{}, ledger.Transaction{}, err
	}
	if cfg.MaintenanceMode {
		return user.User{}, ledger.Transaction{}, settings.ErrMaintenance
	}

	u, err := s.getOrCreateUser(ctx, walletAddress)
	if err != nil {
		return user.User{}, ledger.Transaction{}, err
	}

	if amount < cfg.MinStake {
		metrics.RecordStakeOperation("stake", amount, false)
		return user.User{}, ledger.Transaction{}, fmt.Errorf("minimum stake is %v USDT: %w", cfg.MinStake, ErrBelowMinimum)
	}
	if u.StakedAmount+amount > cfg.MaxStake {
		metrics.RecordStakeOperation("stake", amount, false)
		return user.User{}, ledger.Transaction{}, fmt.Errorf("maximum stake is %v USDT: %w", cfg.MaxStake, ErrAboveMaximum)
	}

	u.StakedAmount += amount
	u.VIPLevel = user.VIPLevelFor(u.StakedAmount)
	u.LastActiveAt = time.Now().UTC()

	u, err = s.users.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, ledger.Transaction{}, err
	}

	tx, err := s.ledger.CreateTransaction(ctx, ledger.Transaction{
		WalletAddress: u.WalletAddress,
		Type:          ledger.TypeStake,
		Amount:        amount,
		Status:        ledger.TxCompleted,
	})
	if err != nil {
		return user.User{}, ledger.Transaction{}, err
	}

	s.persist(ctx)
	metrics.RecordStakeOperation("stake", amount, true)
	s.log.WithField("wallet", u.WalletAddress).
		WithField("amount", amount).
		WithField("staked", u.StakedAmount).
		Info("stake accepted")
	return u, tx, nil
}

// Unstake releases part of the wallet's stake. The wallet must already hold
// at least the requested amount.
func (s *Service) Unstake(ctx context.Context, walletAddress string, amount float64) (user.User, ledger.Transaction, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return user.User{}, ledger.Transaction{}, user.ErrInvalidWallet
	}
	if amount <= 0 {
		return user.User{}, ledger.Transaction{}, ErrInvalidAmount
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	cfg, err := s.settings.GetSettings(ctx)
	if err != nil {
		return user.User{}, ledger.Transaction{}, err
	}
	if cfg.MaintenanceMode {
		return user.User{}, ledger.Transaction{}, settings.ErrMaintenance
	}

	u, err := s.getOrCreateUser(ctx, walletAddress)
	if err != nil {
		return user.User{}, ledger.Transaction{}, err
	}

	if amount > u.StakedAmount {
		metrics.RecordStakeOperation("unstake", amount, false)
		return user.User{}, ledger.Transaction{}, ErrInsufficientStake
	}

	u.StakedAmount -= amount
	u.VIPLevel = user.VIPLevelFor(u.StakedAmount)
	u.LastActiveAt = time.Now().UTC()

	u, err = s.users.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, ledger.Transaction{}, err
	}

	tx, err := s.ledger.CreateTransaction(ctx, ledger.Transaction{
		WalletAddress: u.WalletAddress,
		Type:          ledger.TypeUnstake,
		Amount:        amount,
		Status:        ledger.TxCompleted,
	})
	if err != nil {
		return user.User{}, ledger.Transaction{}, err
	}

	s.persist(ctx)
	metrics.RecordStakeOperation("unstake", amount, true)
	s.log.WithField("wallet", u.WalletAddress).
		WithField("amount", amount).
		WithField("staked", u.StakedAmount).
		Info("unstake accepted")
	return u, tx, nil
}

func (s *Service) getOrCreateUser(ctx context.Context, walletAddress string) (user.User, error) {
	u, err := s.users.GetUserByWallet(ctx, walletAddress)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, err
	}
	return s.users.CreateUser(ctx, user.User{
		WalletAddress: walletAddress,
		Status:        user.StatusActive,
	})
}

func (s *Service) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Persist(ctx); err != nil {
		s.log.WithError(err).Warn("persist snapshot failed")
	}
}
