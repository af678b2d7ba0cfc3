package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/StakePool-Labs/staking_layer/internal/app/domain/ledger"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/settings"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/user"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/wallet"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is the primary store for the platform: durability
// comes from snapshotting it to disk after mutations.
type Store struct {
	mu               sync.RWMutex
	nextID           int64
	users            map[int64]user.User
	usersByWallet    map[string]int64
	transactions     []ledger.Transaction
	txIndexByID      map[int64]int
	txIDByWithdrawal map[string]int64
	withdrawals      map[string]ledger.Withdrawal
	requests         map[string]wallet.ApprovalRequest
	balances         map[string]wallet.Balance
	settings         settings.Platform
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.LedgerStore = (*Store)(nil)
var _ storage.WalletStore = (*Store)(nil)
var _ storage.SettingsStore = (*Store)(nil)
var _ storage.Snapshotter = (*Store)(nil)

// New creates an empty store seeded with default platform settings.
func New() *Store {
	return &Store{
		nextID:           1,
		users:            make(map[int64]user.User),
		usersByWallet:    make(map[string]int64),
		txIndexByID:      make(map[int64]int),
		txIDByWithdrawal: make(map[string]int64),
		withdrawals:      make(map[string]ledger.Withdrawal),
		requests:         make(map[string]wallet.ApprovalRequest),
		balances:         make(map[string]wallet.Balance),
		settings:         settings.Default(),
	}
}

func (s *Store) nextIDLocked() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func walletKey(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.WalletAddress = strings.TrimSpace(u.WalletAddress)
	key := walletKey(u.WalletAddress)
	if key == "" {
		return user.User{}, fmt.Errorf("wallet address is required")
	}
	if existing, exists := s.usersByWallet[key]; exists {
		return user.User{}, fmt.Errorf("wallet %s already assigned to user %d", u.WalletAddress, existing)
	}

	if u.ID == 0 {
		u.ID = s.nextIDLocked()
	} else if _, exists := s.users[u.ID]; exists {
		return user.User{}, fmt.Errorf("user %d already exists", u.ID)
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.JoinedAt.IsZero() {
		u.JoinedAt = now
	}
	if u.LastActiveAt.IsZero() {
		u.LastActiveAt = now
	}

	s.users[u.ID] = u
	s.usersByWallet[key] = u.ID
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return user.User{}, fmt.Errorf("user %d: %w", u.ID, user.ErrNotFound)
	}

	u.WalletAddress = strings.TrimSpace(u.WalletAddress)
	oldKey := walletKey(original.WalletAddress)
	newKey := walletKey(u.WalletAddress)
	if newKey == "" {
		return user.User{}, fmt.Errorf("wallet address is required")
	}
	if existing, exists := s.usersByWallet[newKey]; exists && existing != u.ID {
		return user.User{}, fmt.Errorf("wallet %s already assigned to user %d", u.WalletAddress, existing)
	}

	u.CreatedAt = original.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	if u.JoinedAt.IsZero() {
		u.JoinedAt = original.JoinedAt
	}

	s.users[u.ID] = u
	if oldKey != newKey {
		delete(s.usersByWallet, oldKey)
		s.usersByWallet[newKey] = u.ID
	}
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %d: %w", id, user.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByWallet(_ context.Context, walletAddress string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.usersByWallet[walletKey(walletAddress)]; ok {
		return s.users[id], nil
	}
	return user.User{}, fmt.Errorf("user for wallet %s: %w", walletAddress, user.ErrNotFound)
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// LedgerStore implementation --------------------------------------------------

func (s *Store) CreateTransaction(_ context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == 0 {
		tx.ID = s.nextIDLocked()
	} else if _, exists := s.txIndexByID[tx.ID]; exists {
		return ledger.Transaction{}, fmt.Errorf("transaction %d already exists", tx.ID)
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	s.transactions = append(s.transactions, tx)
	s.txIndexByID[tx.ID] = len(s.transactions) - 1
	if tx.WithdrawalID != "" {
		s.txIDByWithdrawal[tx.WithdrawalID] = tx.ID
	}
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.txIndexByID[tx.ID]
	if !ok {
		return ledger.Transaction{}, fmt.Errorf("transaction %d: %w", tx.ID, ledger.ErrTransactionNotFound)
	}

	tx.CreatedAt = s.transactions[idx].CreatedAt
	s.transactions[idx] = tx
	if tx.WithdrawalID != "" {
		s.txIDByWithdrawal[tx.WithdrawalID] = tx.ID
	}
	return tx, nil
}

func (s *Store) GetTransactionByWithdrawal(_ context.Context, withdrawalID string) (ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.txIDByWithdrawal[withdrawalID]; ok {
		return s.transactions[s.txIndexByID[id]], nil
	}
	return ledger.Transaction{}, fmt.Errorf("transaction for withdrawal %s: %w", withdrawalID, ledger.ErrTransactionNotFound)
}

func (s *Store) ListTransactions(_ context.Context, walletAddress string) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := walletKey(walletAddress)
	result := make([]ledger.Transaction, 0)
	for _, tx := range s.transactions {
		if key == "" || walletKey(tx.WalletAddress) == key {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (s *Store) CreateWithdrawal(_ context.Context, wd ledger.Withdrawal) (ledger.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wd.ID == "" {
		wd.ID = fmt.Sprintf("%d", s.nextIDLocked())
	} else if _, exists := s.withdrawals[wd.ID]; exists {
		return ledger.Withdrawal{}, fmt.Errorf("withdrawal %s already exists", wd.ID)
	}
	if wd.RequestedAt.IsZero() {
		wd.RequestedAt = time.Now().UTC()
	}

	s.withdrawals[wd.ID] = wd
	return wd, nil
}

func (s *Store) UpdateWithdrawal(_ context.Context, wd ledger.Withdrawal) (ledger.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.withdrawals[wd.ID]
	if !ok {
		return ledger.Withdrawal{}, fmt.Errorf("withdrawal %s: %w", wd.ID, ledger.ErrWithdrawalNotFound)
	}

	wd.RequestedAt = original.RequestedAt
	s.withdrawals[wd.ID] = wd
	return wd, nil
}

func (s *Store) GetWithdrawal(_ context.Context, id string) (ledger.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wd, ok := s.withdrawals[id]
	if !ok {
		return ledger.Withdrawal{}, fmt.Errorf("withdrawal %s: %w", id, ledger.ErrWithdrawalNotFound)
	}
	return wd, nil
}

func (s *Store) ListWithdrawals(_ context.Context, status ledger.WithdrawalStatus) ([]ledger.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ledger.Withdrawal, 0)
	for _, wd := range s.withdrawals {
		if status == "" || wd.Status == status {
			result = append(result, wd)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RequestedAt.Before(result[j].RequestedAt) })
	return result, nil
}

// WalletStore implementation --------------------------------------------------

func (s *Store) CreateApprovalRequest(_ context.Context, req wallet.ApprovalRequest) (wallet.ApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req.WalletAddress = strings.TrimSpace(req.WalletAddress)
	key := walletKey(req.WalletAddress)
	if key == "" {
		return wallet.ApprovalRequest{}, fmt.Errorf("wallet address is required")
	}
	if _, exists := s.requests[key]; exists {
		return wallet.ApprovalRequest{}, fmt.Errorf("approval request for %s already exists", req.WalletAddress)
	}

	if req.ID == "" {
		req.ID = fmt.Sprintf("%d", s.nextIDLocked())
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}

	s.requests[key] = req
	return req, nil
}

func (s *Store) UpdateApprovalRequest(_ context.Context, req wallet.ApprovalRequest) (wallet.ApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := walletKey(req.WalletAddress)
	original, ok := s.requests[key]
	if !ok {
		return wallet.ApprovalRequest{}, fmt.Errorf("request for wallet %s: %w", req.WalletAddress, wallet.ErrRequestNotFound)
	}

	req.ID = original.ID
	req.RequestedAt = original.RequestedAt
	s.requests[key] = req
	return req, nil
}

func (s *Store) GetApprovalRequestByWallet(_ context.Context, walletAddress string) (wallet.ApprovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[walletKey(walletAddress)]
	if !ok {
		return wallet.ApprovalRequest{}, fmt.Errorf("request for wallet %s: %w", walletAddress, wallet.ErrRequestNotFound)
	}
	return req, nil
}

func (s *Store) ListApprovalRequests(_ context.Context, status wallet.ApprovalStatus) ([]wallet.ApprovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]wallet.ApprovalRequest, 0)
	for _, req := range s.requests {
		if status == "" || req.Status == status {
			result = append(result, req)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RequestedAt.Before(result[j].RequestedAt) })
	return result, nil
}

func (s *Store) SaveReportedBalance(_ context.Context, bal wallet.Balance) (wallet.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bal.WalletAddress = strings.TrimSpace(bal.WalletAddress)
	key := walletKey(bal.WalletAddress)
	if key == "" {
		return wallet.Balance{}, fmt.Errorf("wallet address is required")
	}
	if bal.ReportedAt.IsZero() {
		bal.ReportedAt = time.Now().UTC()
	}

	s.balances[key] = bal
	return bal, nil
}

func (s *Store) GetReportedBalance(_ context.Context, walletAddress string) (wallet.Balance, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bal, ok := s.balances[walletKey(walletAddress)]
	return bal, ok, nil
}

// SettingsStore implementation ------------------------------------------------

func (s *Store) GetSettings(_ context.Context) (settings.Platform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *Store) SaveSettings(_ context.Context, cfg settings.Platform) (settings.Platform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = cfg
	return cfg, nil
}

// Snapshotter implementation --------------------------------------------------

func (s *Store) Snapshot(_ context.Context) (storage.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := storage.Snapshot{
		Users:            make([]user.User, 0, len(s.users)),
		Transactions:     append([]ledger.Transaction(nil), s.transactions...),
		Withdrawals:      make([]ledger.Withdrawal, 0, len(s.withdrawals)),
		ApprovalRequests: make([]wallet.ApprovalRequest, 0, len(s.requests)),
		ReportedBalances: make([]wallet.Balance, 0, len(s.balances)),
		Settings:         s.settings,
		NextID:           s.nextID,
	}
	for _, u := range s.users {
		snap.Users = append(snap.Users, u)
	}
	sort.Slice(snap.Users, func(i, j int) bool { return snap.Users[i].ID < snap.Users[j].ID })
	for _, wd := range s.withdrawals {
		snap.Withdrawals = append(snap.Withdrawals, wd)
	}
	sort.Slice(snap.Withdrawals, func(i, j int) bool {
		return snap.Withdrawals[i].RequestedAt.Before(snap.Withdrawals[j].RequestedAt)
	})
	for _, req := range s.requests {
		snap.ApprovalRequests = append(snap.ApprovalRequests, req)
	}
	sort.Slice(snap.ApprovalRequests, func(i, j int) bool {
		return snap.ApprovalRequests[i].RequestedAt.Before(snap.ApprovalRequests[j].RequestedAt)
	})
	for _, bal := range s.balances {
		snap.ReportedBalances = append(snap.ReportedBalances, bal)
	}
	return snap, nil
}

func (s *Store) Restore(_ context.Context, snap storage.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[int64]user.User, len(snap.Users))
	s.usersByWallet = make(map[string]int64, len(snap.Users))
	for _, u := range snap.Users {
		s.users[u.ID] = u
		s.usersByWallet[walletKey(u.WalletAddress)] = u.ID
	}

	s.transactions = append([]ledger.Transaction(nil), snap.Transactions...)
	s.txIndexByID = make(map[int64]int, len(s.transactions))
	s.txIDByWithdrawal = make(map[string]int64)
	for i, tx := range s.transactions {
		s.txIndexByID[tx.ID] = i
		if tx.WithdrawalID != "" {
			s.txIDByWithdrawal[tx.WithdrawalID] = tx.ID
		}
	}

	s.withdrawals = make(map[string]ledger.Withdrawal, len(snap.Withdrawals))
	for _, wd := range snap.Withdrawals {
		s.withdrawals[wd.ID] = wd
	}

	s.requests = make(map[string]wallet.ApprovalRequest, len(snap.ApprovalRequests))
	for _, req := range snap.ApprovalRequests {
		s.requests[walletKey(req.WalletAddress)] = req
	}

	s.balances = make(map[string]wallet.Balance, len(snap.ReportedBalances))
	for _, bal := range snap.ReportedBalances {
		s.balances[walletKey(bal.WalletAddress)] = bal
	}

	s.settings = snap.Settings
	if s.settings == (settings.Platform{}) {
		s.settings = settings.Default()
	}

	s.nextID = snap.NextID
	if s.nextID < 1 {
		s.nextID = 1
	}
	for id := range s.users {
		if id >= s.nextID {
			s.nextID = id + 1
		}
	}
	for _, tx := range s.transactions {
		if tx.ID >= s.nextID {
			s.nextID = tx.ID + 1
		}
	}
	return nil
}
