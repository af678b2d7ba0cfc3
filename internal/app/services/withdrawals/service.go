// Package withdrawals implements the admin-mediated withdrawal workflow.
package withdrawals

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/StakePool-Labs/staking_layer/internal/app/domain/ledger"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/user"
	"github.com/StakePool-Labs/staking_layer/internal/app/metrics"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage"
	"github.com/StakePool-Labs/staking_layer/pkg/logger"
)

var (
	ErrInvalidAmount            = errors.New("amount must be positive")
	ErrInsufficientWithdrawable = errors.New("insufficient withdrawable balance")
	ErrWithdrawalAlreadyDecided = errors.New("withdrawal already decided")
)

// Service handles withdrawal requests and admin decisions. Requesting does
// not reserve the balance; approval re-checks it before deducting.
type Service struct {
	users  storage.UserStore
	ledger storage.LedgerStore
	log    *logger.Logger

	guard     *sync.Mutex
	persister storage.Persister
}

// New constructs a withdrawals service.
func New(users storage.UserStore, ledgerStore storage.LedgerStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("withdrawals")
	}
	return &Service{
		users:  users,
		ledger: ledgerStore,
		log:    log,
		guard:  &sync.Mutex{},
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

// Request creates a pending withdrawal and its linked ledger entry. Fee and
// net amount are locked in at request time.
func (s *Service) Request(ctx context.Context, walletAddress string, amount float64) (ledger.Withdrawal, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return ledger.Withdrawal{}, user.ErrInvalidWallet
	}
	if amount <= 0 {
		return ledger.Withdrawal{}, ErrInvalidAmount
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	u, err := s.users.GetUserByWallet(ctx, walletAddress)
	if err != nil {
		return ledger.Withdrawal{}, err
	}
	if amount > u.ClaimableRewards {
		return ledger.Withdrawal{}, ErrInsufficientWithdrawable
	}

	wd := ledger.Withdrawal{
		ID:            uuid.NewString(),
		UserID:        u.ID,
		WalletAddress: u.WalletAddress,
		Amount:        amount,
		Fee:           amount * ledger.FeeRate,
		NetAmount:     amount * (1 - ledger.FeeRate),
		Status:        ledger.WithdrawalPending,
		RequestedAt:   time.Now().UTC(),
	}
	wd, err = s.ledger.CreateWithdrawal(ctx, wd)
	if err != nil {
		return ledger.Withdrawal{}, err
	}

	if _, err := s.ledger.CreateTransaction(ctx, ledger.Transaction{
		WalletAddress: u.WalletAddress,
		Type:          ledger.TypeWithdraw,
		Amount:        amount,
		Status:        ledger.TxPending,
		WithdrawalID:  wd.ID,
	}); err != nil {
		return ledger.Withdrawal{}, err
	}

	s.persist(ctx)
	s.log.WithField("wallet", u.WalletAddress).
		WithField("withdrawal_id", wd.ID).
		WithField("amount", amount).
		Info("withdrawal requested")
	return wd, nil
}

// Approve deducts the amount from the user's claimable rewards and settles
// the linked transaction. The balance is re-validated here: claims or other
// withdrawals since the request may have drained it.
func (s *Service) Approve(ctx context.Context, withdrawalID string) (ledger.Withdrawal, error) {
	s.guard.Lock()
	defer s.guard.Unlock()

	wd, err := s.ledger.GetWithdrawal(ctx, withdrawalID)
	if err != nil {
		return ledger.Withdrawal{}, err
	}
	if wd.Status != ledger.WithdrawalPending {
		return ledger.Withdrawal{}, ErrWithdrawalAlreadyDecided
	}

	u, err := s.users.GetUserByWallet(ctx, wd.WalletAddress)
	if err != nil {
		return ledger.Withdrawal{}, err
	}
	if wd.Amount > u.ClaimableRewards {
		return ledger.Withdrawal{}, ErrInsufficientWithdrawable
	}

	u.ClaimableRewards -= wd.Amount
	if _, err := s.users.UpdateUser(ctx, u); err != nil {
		return ledger.Withdrawal{}, err
	}

	wd.Status = ledger.WithdrawalApproved
	wd.DecidedAt = time.Now().UTC()
	wd, err = s.ledger.UpdateWithdrawal(ctx, wd)
	if err != nil {
		return ledger.Withdrawal{}, err
	}

	if err := s.settleTransaction(ctx, wd.ID, ledger.TxCompleted); err != nil {
		s.log.WithError(err).Warnf("settle transaction for withdrawal %s failed", wd.ID)
	}

	s.persist(ctx)
	metrics.RecordWithdrawalDecision("approved")
	s.log.WithField("wallet", wd.WalletAddress).
		WithField("withdrawal_id", wd.ID).
		WithField("amount", wd.Amount).
		Info("withdrawal approved")
	return wd, nil
}

// Reject marks the withdrawal rejected without touching balances.
func (s *Service) Reject(ctx context.Context, withdrawalID, reason string) (ledger.Withdrawal, error) {
	s.guard.Lock()
	defer s.guard.Unlock()

	wd, err := s.ledger.GetWithdrawal(ctx, withdrawalID)
	if err != nil {
		return ledger.Withdrawal{}, err
	}
	if wd.Status != ledger.WithdrawalPending {
		return ledger.Withdrawal{}, ErrWithdrawalAlreadyDecided
	}

	wd.Status = ledger.WithdrawalRejected
	wd.DecidedAt = time.Now().UTC()
	wd.Reason = strings.TrimSpace(reason)
	if wd.Reason == "" {
		wd.Reason = "Rejected by admin"
	}
	wd, err = s.ledger.UpdateWithdrawal(ctx, wd)
	if err != nil {
		return ledger.Withdrawal{}, err
	}

	if err := s.settleTransaction(ctx, wd.ID, ledger.TxRejected); err != nil {
		s.log.WithError(err).Warnf("settle transaction for withdrawal %s failed", wd.ID)
	}

	s.persist(ctx)
	metrics.RecordWithdrawalDecision("rejected")
	s.log.WithField("wallet", wd.WalletAddress).
		WithField("withdrawal_id", wd.ID).
		Info("withdrawal rejected")
	return wd, nil
}

// ListPending returns withdrawals awaiting a decision.
func (s *Service) ListPending(ctx context.Context) ([]ledger.Withdrawal, error) {
	return s.ledger.ListWithdrawals(ctx, ledger.WithdrawalPending)
}

func (s *Service) settleTransaction(ctx context.Context, withdrawalID string, status ledger.TransactionStatus) error {
	tx, err := s.ledger.GetTransactionByWithdrawal(ctx, withdrawalID)
	if err != nil {
		return err
	}
	tx.Status = status
	_, err = s.ledger.UpdateTransaction(ctx, tx)
	return err
}

func (s *Service) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Persist(ctx); err != nil {
		s.log.WithError(err).Warn("persist snapshot failed")
	}
}
