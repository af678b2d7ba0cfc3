// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/StakePool-Labs/staking_layer/internal/app/domain/ledger"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/settings"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/user"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/wallet"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.LedgerStore = (*Store)(nil)
var _ storage.WalletStore = (*Store)(nil)
var _ storage.SettingsStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS staking_users (
			id BIGSERIAL PRIMARY KEY,
			wallet_address TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			staked_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_earned DOUBLE PRECISION NOT NULL DEFAULT 0,
			claimable_rewards DOUBLE PRECISION NOT NULL DEFAULT 0,
			vip_level INT NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'active',
			joined_at TIMESTAMPTZ NOT NULL,
			last_active_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS staking_users_wallet_idx
			ON staking_users (LOWER(wallet_address))`,
		`CREATE TABLE IF NOT EXISTS staking_transactions (
			id BIGSERIAL PRIMARY KEY,
			wallet_address TEXT NOT NULL,
			type TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			withdrawal_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS staking_withdrawals (
			id TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			wallet_address TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			fee DOUBLE PRECISION NOT NULL,
			net_amount DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			requested_at TIMESTAMPTZ NOT NULL,
			decided_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS wallet_approvals (
			id TEXT PRIMARY KEY,
			wallet_address TEXT NOT NULL,
			ip_address TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			requested_at TIMESTAMPTZ NOT NULL,
			decided_at TIMESTAMPTZ
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS wallet_approvals_wallet_idx
			ON wallet_approvals (LOWER(wallet_address))`,
		`CREATE TABLE IF NOT EXISTS wallet_balances (
			wallet_address TEXT PRIMARY KEY,
			eth TEXT NOT NULL,
			usdt TEXT NOT NULL,
			reported_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS platform_settings (
			id INT PRIMARY KEY,
			base_apy DOUBLE PRECISION NOT NULL,
			vip1_bonus DOUBLE PRECISION NOT NULL,
			vip2_bonus DOUBLE PRECISION NOT NULL,
			vip3_bonus DOUBLE PRECISION NOT NULL,
			min_stake DOUBLE PRECISION NOT NULL,
			max_stake DOUBLE PRECISION NOT NULL,
			withdrawal_fee DOUBLE PRECISION NOT NULL,
			maintenance_mode BOOLEAN NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	now := time.Now().UTC()
	if u.JoinedAt.IsZero() {
		u.JoinedAt = now
	}
	if u.LastActiveAt.IsZero() {
		u.LastActiveAt = now
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Status == "" {
		u.Status = user.StatusActive
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO staking_users (wallet_address, email, staked_amount, total_earned,
			claimable_rewards, vip_level, status, joined_at, last_active_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, u.WalletAddress, u.Email, u.StakedAmount, u.TotalEarned, u.ClaimableRewards,
		u.VIPLevel, u.Status, u.JoinedAt, u.LastActiveAt, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	u.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE staking_users
		SET wallet_address = $2, email = $3, staked_amount = $4, total_earned = $5,
			claimable_rewards = $6, vip_level = $7, status = $8, last_active_at = $9,
			updated_at = $10
		WHERE id = $1
	`, u.ID, u.WalletAddress, u.Email, u.StakedAmount, u.TotalEarned,
		u.ClaimableRewards, u.VIPLevel, u.Status, u.LastActiveAt, u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

const userColumns = `id, wallet_address, email, staked_amount, total_earned,
	claimable_rewards, vip_level, status, joined_at, last_active_at, created_at, updated_at`

func (s *Store) GetUser(ctx context.Context, id int64) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM staking_users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (s *Store) GetUserByWallet(ctx context.Context, walletAddress string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM staking_users
		WHERE LOWER(wallet_address) = LOWER($1)
	`, strings.TrimSpace(walletAddress))
	return scanUser(row)
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM staking_users
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.WalletAddress, &u.Email, &u.StakedAmount, &u.TotalEarned,
		&u.ClaimableRewards, &u.VIPLevel, &u.Status, &u.JoinedAt, &u.LastActiveAt,
		&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

// --- LedgerStore ------------------------------------------------------------

func (s *Store) CreateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO staking_transactions (wallet_address, type, amount, status, withdrawal_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, tx.WalletAddress, tx.Type, tx.Amount, tx.Status, tx.WithdrawalID, tx.CreatedAt).Scan(&tx.ID)
	if err != nil {
		return ledger.Transaction{}, err
	}
	return tx, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE staking_transactions
		SET status = $2
		WHERE id = $1
	`, tx.ID, tx.Status)
	if err != nil {
		return ledger.Transaction{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}
	return tx, nil
}

func (s *Store) GetTransactionByWithdrawal(ctx context.Context, withdrawalID string) (ledger.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, wallet_address, type, amount, status, withdrawal_id, created_at
		FROM staking_transactions
		WHERE withdrawal_id = $1
	`, withdrawalID)

	var tx ledger.Transaction
	err := row.Scan(&tx.ID, &tx.WalletAddress, &tx.Type, &tx.Amount, &tx.Status,
		&tx.WithdrawalID, &tx.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}
	if err != nil {
		return ledger.Transaction{}, err
	}
	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, walletAddress string) ([]ledger.Transaction, error) {
	query := `
		SELECT id, wallet_address, type, amount, status, withdrawal_id, created_at
		FROM staking_transactions
	`
	var args []interface{}
	if strings.TrimSpace(walletAddress) != "" {
		query += ` WHERE LOWER(wallet_address) = LOWER($1)`
		args = append(args, strings.TrimSpace(walletAddress))
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.Transaction
	for rows.Next() {
		var tx ledger.Transaction
		if err := rows.Scan(&tx.ID, &tx.WalletAddress, &tx.Type, &tx.Amount, &tx.Status,
			&tx.WithdrawalID, &tx.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, tx)
	}
	return result, rows.Err()
}

func (s *Store) CreateWithdrawal(ctx context.Context, wd ledger.Withdrawal) (ledger.Withdrawal, error) {
	if wd.RequestedAt.IsZero() {
		wd.RequestedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staking_withdrawals (id, user_id, wallet_address, amount, fee,
			net_amount, status, reason, requested_at, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, wd.ID, wd.UserID, wd.WalletAddress, wd.Amount, wd.Fee, wd.NetAmount,
		wd.Status, wd.Reason, wd.RequestedAt, toNullTime(wd.DecidedAt))
	if err != nil {
		return ledger.Withdrawal{}, err
	}
	return wd, nil
}

func (s *Store) UpdateWithdrawal(ctx context.Context, wd ledger.Withdrawal) (ledger.Withdrawal, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE staking_withdrawals
		SET status = $2, reason = $3, decided_at = $4
		WHERE id = $1
	`, wd.ID, wd.Status, wd.Reason, toNullTime(wd.DecidedAt))
	if err != nil {
		return ledger.Withdrawal{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ledger.Withdrawal{}, ledger.ErrWithdrawalNotFound
	}
	return wd, nil
}

func (s *Store) GetWithdrawal(ctx context.Context, id string) (ledger.Withdrawal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, wallet_address, amount, fee, net_amount, status, reason,
			requested_at, decided_at
		FROM staking_withdrawals
		WHERE id = $1
	`, id)
	return scanWithdrawal(row)
}

func (s *Store) ListWithdrawals(ctx context.Context, status ledger.WithdrawalStatus) ([]ledger.Withdrawal, error) {
	query := `
		SELECT id, user_id, wallet_address, amount, fee, net_amount, status, reason,
			requested_at, decided_at
		FROM staking_withdrawals
	`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY requested_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.Withdrawal
	for rows.Next() {
		wd, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, wd)
	}
	return result, rows.Err()
}

func scanWithdrawal(row rowScanner) (ledger.Withdrawal, error) {
	var (
		wd      ledger.Withdrawal
		decided sql.NullTime
	)
	err := row.Scan(&wd.ID, &wd.UserID, &wd.WalletAddress, &wd.Amount, &wd.Fee,
		&wd.NetAmount, &wd.Status, &wd.Reason, &wd.RequestedAt, &decided)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Withdrawal{}, ledger.ErrWithdrawalNotFound
	}
	if err != nil {
		return ledger.Withdrawal{}, err
	}
	if decided.Valid {
		wd.DecidedAt = decided.Time
	}
	return wd, nil
}

// --- WalletStore ------------------------------------------------------------

func (s *Store) CreateApprovalRequest(ctx context.Context, req wallet.ApprovalRequest) (wallet.ApprovalRequest, error) {
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wallet_approvals (id, wallet_address, ip_address, user_agent,
			status, requested_at, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, req.ID, req.WalletAddress, req.IPAddress, req.UserAgent, req.Status,
		req.RequestedAt, toNullTime(req.DecidedAt))
	if err != nil {
		return wallet.ApprovalRequest{}, err
	}
	return req, nil
}

func (s *Store) UpdateApprovalRequest(ctx context.Context, req wallet.ApprovalRequest) (wallet.ApprovalRequest, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE wallet_approvals
		SET status = $2, decided_at = $3
		WHERE id = $1
	`, req.ID, req.Status, toNullTime(req.DecidedAt))
	if err != nil {
		return wallet.ApprovalRequest{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return wallet.ApprovalRequest{}, wallet.ErrRequestNotFound
	}
	return req, nil
}

func (s *Store) GetApprovalRequestByWallet(ctx context.Context, walletAddress string) (wallet.ApprovalRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, wallet_address, ip_address, user_agent, status, requested_at, decided_at
		FROM wallet_approvals
		WHERE LOWER(wallet_address) = LOWER($1)
	`, strings.TrimSpace(walletAddress))
	return scanApprovalRequest(row)
}

func (s *Store) ListApprovalRequests(ctx context.Context, status wallet.ApprovalStatus) ([]wallet.ApprovalRequest, error) {
	query := `
		SELECT id, wallet_address, ip_address, user_agent, status, requested_at, decided_at
		FROM wallet_approvals
	`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY requested_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []wallet.ApprovalRequest
	for rows.Next() {
		req, err := scanApprovalRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func scanApprovalRequest(row rowScanner) (wallet.ApprovalRequest, error) {
	var (
		req     wallet.ApprovalRequest
		decided sql.NullTime
	)
	err := row.Scan(&req.ID, &req.WalletAddress, &req.IPAddress, &req.UserAgent,
		&req.Status, &req.RequestedAt, &decided)
	if errors.Is(err, sql.ErrNoRows) {
		return wallet.ApprovalRequest{}, wallet.ErrRequestNotFound
	}
	if err != nil {
		return wallet.ApprovalRequest{}, err
	}
	if decided.Valid {
		req.DecidedAt = decided.Time
	}
	return req, nil
}

func (s *Store) SaveReportedBalance(ctx context.Context, bal wallet.Balance) (wallet.Balance, error) {
	if bal.ReportedAt.IsZero() {
		bal.ReportedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wallet_balances (wallet_address, eth, usdt, reported_at)
		VALUES (LOWER($1), $2, $3, $4)
		ON CONFLICT (wallet_address)
		DO UPDATE SET eth = EXCLUDED.eth, usdt = EXCLUDED.usdt, reported_at = EXCLUDED.reported_at
	`, bal.WalletAddress, bal.ETH, bal.USDT, bal.ReportedAt)
	if err != nil {
		return wallet.Balance{}, err
	}
	return bal, nil
}

func (s *Store) GetReportedBalance(ctx context.Context, walletAddress string) (wallet.Balance, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT wallet_address, eth, usdt, reported_at
		FROM wallet_balances
		WHERE wallet_address = LOWER($1)
	`, strings.TrimSpace(walletAddress))

	var bal wallet.Balance
	err := row.Scan(&bal.WalletAddress, &bal.ETH, &bal.USDT, &bal.ReportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return wallet.Balance{}, false, nil
	}
	if err != nil {
		return wallet.Balance{}, false, err
	}
	return bal, true, nil
}

// --- SettingsStore ----------------------------------------------------------

func (s *Store) GetSettings(ctx context.Context) (settings.Platform, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT base_apy, vip1_bonus, vip2_bonus, vip3_bonus, min_stake, max_stake,
			withdrawal_fee, maintenance_mode
		FROM platform_settings
		WHERE id = 1
	`)

	var cfg settings.Platform
	err := row.Scan(&cfg.BaseAPY, &cfg.VIP1Bonus, &cfg.VIP2Bonus, &cfg.VIP3Bonus,
		&cfg.MinStake, &cfg.MaxStake, &cfg.WithdrawalFee, &cfg.MaintenanceMode)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Default(), nil
	}
	if err != nil {
		return settings.Platform{}, err
	}
	return cfg, nil
}

func (s *Store) SaveSettings(ctx context.Context, cfg settings.Platform) (settings.Platform, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO platform_settings (id, base_apy, vip1_bonus, vip2_bonus, vip3_bonus,
			min_stake, max_stake, withdrawal_fee, maintenance_mode)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id)
		DO UPDATE SET base_apy = EXCLUDED.base_apy, vip1_bonus = EXCLUDED.vip1_bonus,
			vip2_bonus = EXCLUDED.vip2_bonus, vip3_bonus = EXCLUDED.vip3_bonus,
			min_stake = EXCLUDED.min_stake, max_stake = EXCLUDED.max_stake,
			withdrawal_fee = EXCLUDED.withdrawal_fee, maintenance_mode = EXCLUDED.maintenance_mode
	`, cfg.BaseAPY, cfg.VIP1Bonus, cfg.VIP2Bonus, cfg.VIP3Bonus, cfg.MinStake,
		cfg.MaxStake, cfg.WithdrawalFee, cfg.MaintenanceMode)
	if err != nil {
		return settings.Platform{}, err
	}
	return cfg, nil
}

func toNullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
