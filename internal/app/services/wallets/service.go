// Package wallets implements the wallet approval workflow and balance reports.
package wallets

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/StakePool-Labs/staking_layer/internal/app/domain/user"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/wallet"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage"
	"github.com/StakePool-Labs/staking_layer/pkg/logger"
)

// Overview groups approval requests by state for the admin console.
type Overview struct {
	Pending  []wallet.ApprovalRequest `json:"pending"`
	Approved []string                 `json:"approved"`
	Rejected []string                 `json:"rejected"`
}

// Service manages wallet access to the platform.
type Service struct {
	wallets storage.WalletStore
	users   storage.UserStore
	log     *logger.Logger

	guard     *sync.Mutex
	persister storage.Persister
}

// New constructs a wallets service.
func New(wallets storage.WalletStore, users storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("wallets")
	}
	return &Service{
		wallets: wallets,
		users:   users,
		log:     log,
		guard:   &sync.Mutex{},
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

// RequestApproval records a wallet asking for access. Repeat requests return
// the existing record unchanged: approved wallets stay approved, rejected
// wallets stay rejected, and pending requests are not duplicated.
func (s *Service) RequestApproval(ctx context.Context, walletAddress, ipAddress, userAgent string) (wallet.ApprovalRequest, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return wallet.ApprovalRequest{}, user.ErrInvalidWallet
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	existing, err := s.wallets.GetApprovalRequestByWallet(ctx, walletAddress)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, wallet.ErrRequestNotFound) {
		return wallet.ApprovalRequest{}, err
	}

	if ipAddress == "" {
		ipAddress = "Unknown"
	}
	if userAgent == "" {
		userAgent = "Unknown"
	}

	req, err := s.wallets.CreateApprovalRequest(ctx, wallet.ApprovalRequest{
		ID:            uuid.NewString(),
		WalletAddress: walletAddress,
		IPAddress:     ipAddress,
		UserAgent:     userAgent,
		Status:        wallet.ApprovalPending,
		RequestedAt:   time.Now().UTC(),
	})
	if err != nil {
		return wallet.ApprovalRequest{}, err
	}

	s.persist(ctx)
	s.log.WithField("wallet", walletAddress).Info("wallet approval requested")
	return req, nil
}

// Approve grants access and creates the staking account if the wallet does
// not have one yet.
func (s *Service) Approve(ctx context.Context, walletAddress string) (wallet.ApprovalRequest, error) {
	s.guard.Lock()
	defer s.guard.Unlock()

	req, err := s.wallets.GetApprovalRequestByWallet(ctx, walletAddress)
	if err != nil {
		return wallet.ApprovalRequest{}, err
	}

	req.Status = wallet.ApprovalApproved
	req.DecidedAt = time.Now().UTC()
	req, err = s.wallets.UpdateApprovalRequest(ctx, req)
	if err != nil {
		return wallet.ApprovalRequest{}, err
	}

	if _, err := s.users.GetUserByWallet(ctx, req.WalletAddress); errors.Is(err, user.ErrNotFound) {
		if _, err := s.users.CreateUser(ctx, user.User{
			WalletAddress: req.WalletAddress,
			Status:        user.StatusActive,
		}); err != nil {
			return wallet.ApprovalRequest{}, err
		}
	} else if err != nil {
		return wallet.ApprovalRequest{}, err
	}

	s.persist(ctx)
	s.log.WithField("wallet", req.WalletAddress).Info("wallet approved")
	return req, nil
}

// Reject denies access. Rejected wallets cannot re-request approval.
func (s *Service) Reject(ctx context.Context, walletAddress string) (wallet.ApprovalRequest, error) {
	s.guard.Lock()
	defer s.guard.Unlock()

	req, err := s.wallets.GetApprovalRequestByWallet(ctx, walletAddress)
	if err != nil {
		return wallet.ApprovalRequest{}, err
	}

	req.Status = wallet.ApprovalRejected
	req.DecidedAt = time.Now().UTC()
	req, err = s.wallets.UpdateApprovalRequest(ctx, req)
	if err != nil {
		return wallet.ApprovalRequest{}, err
	}

	s.persist(ctx)
	s.log.WithField("wallet", req.WalletAddress).Info("wallet rejected")
	return req, nil
}

// ListPending returns requests awaiting a decision.
func (s *Service) ListPending(ctx context.Context) ([]wallet.ApprovalRequest, error) {
	return s.wallets.ListApprovalRequests(ctx, wallet.ApprovalPending)
}

// ListAll returns every wallet grouped by decision state.
func (s *Service) ListAll(ctx context.Context) (Overview, error) {
	all, err := s.wallets.ListApprovalRequests(ctx, "")
	if err != nil {
		return Overview{}, err
	}

	overview := Overview{
		Pending:  make([]wallet.ApprovalRequest, 0),
		Approved: make([]string, 0),
		Rejected: make([]string, 0),
	}
	for _, req := range all {
		switch req.Status {
		case wallet.ApprovalPending:
			overview.Pending = append(overview.Pending, req)
		case wallet.ApprovalApproved:
			overview.Approved = append(overview.Approved, req.WalletAddress)
		case wallet.ApprovalRejected:
			overview.Rejected = append(overview.Rejected, req.WalletAddress)
		}
	}
	return overview, nil
}

// IsApproved reports whether the wallet has been granted access.
func (s *Service) IsApproved(ctx context.Context, walletAddress string) (bool, error) {
	req, err := s.wallets.GetApprovalRequestByWallet(ctx, walletAddress)
	if errors.Is(err, wallet.ErrRequestNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return req.Status == wallet.ApprovalApproved, nil
}

// ReportBalance stores a balance snapshot the user's wallet client reported.
func (s *Service) ReportBalance(ctx context.Context, walletAddress, eth, usdt string) (wallet.Balance, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return wallet.Balance{}, user.ErrInvalidWallet
	}
	if eth == "" {
		eth = "0.0000"
	}
	if usdt == "" {
		usdt = "0.00"
	}

	bal, err := s.wallets.SaveReportedBalance(ctx, wallet.Balance{
		WalletAddress: walletAddress,
		ETH:           eth,
		USDT:          usdt,
		ReportedAt:    time.Now().UTC(),
	})
	if err != nil {
		return wallet.Balance{}, err
	}

	s.persist(ctx)
	return bal, nil
}

func (s *Service) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Persist(ctx); err != nil {
		s.log.WithError(err).Warn("persist snapshot failed")
	}
}
