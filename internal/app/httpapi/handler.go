// Package httpapi exposes the staking platform REST API.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	app "github.com/StakePool-Labs/staking_layer/internal/app"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/ledger"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/settings"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/user"
	"github.com/StakePool-Labs/staking_layer/internal/app/domain/wallet"
	"github.com/StakePool-Labs/staking_layer/internal/app/metrics"
	"github.com/StakePool-Labs/staking_layer/internal/app/services/rewards"
	"github.com/StakePool-Labs/staking_layer/internal/app/services/staking"
	userssvc "github.com/StakePool-Labs/staking_layer/internal/app/services/users"
	"github.com/StakePool-Labs/staking_layer/internal/app/services/withdrawals"
	"github.com/StakePool-Labs/staking_layer/internal/chain"
	"github.com/StakePool-Labs/staking_layer/pkg/logger"
)

// Options configures the API surface.
type Options struct {
	AdminUsername string
	AdminPassword string
	JWTSecret     string
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app   *app.Application
	chain *chain.Client
	auth  *authManager
	log   *logger.Logger
}

// NewHandler returns a router exposing the public and admin REST API.
func NewHandler(application *app.Application, chainClient *chain.Client, opts Options, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{
		app:   application,
		chain: chainClient,
		auth:  newAuthManager(opts.AdminUsername, opts.AdminPassword, opts.JWTSecret),
		log:   log,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Public surface.
	api.HandleFunc("/request-approval", h.requestApproval).Methods(http.MethodPost)
	api.HandleFunc("/check-approval/{address}", h.checkApproval).Methods(http.MethodGet)
	api.HandleFunc("/user/{walletAddress}", h.getUser).Methods(http.MethodGet)
	api.HandleFunc("/user/{walletAddress}/transactions", h.userTransactions).Methods(http.MethodGet)
	api.HandleFunc("/settings", h.publicSettings).Methods(http.MethodGet)
	api.HandleFunc("/stake", h.stake).Methods(http.MethodPost)
	api.HandleFunc("/claim", h.claim).Methods(http.MethodPost)
	api.HandleFunc("/withdraw/request", h.requestWithdrawal).Methods(http.MethodPost)
	api.HandleFunc("/report-balance", h.reportBalance).Methods(http.MethodPost)
	api.HandleFunc("/wallet-balance/{address}", h.walletBalance).Methods(http.MethodGet)

	// Admin auth.
	api.HandleFunc("/admin/login", h.adminLogin).Methods(http.MethodPost)
	api.HandleFunc("/admin/logout", h.adminLogout).Methods(http.MethodPost)
	api.HandleFunc("/admin/verify", h.adminVerify).Methods(http.MethodGet)

	// Admin surface.
	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/stats", h.auth.requireAuth(h.adminStats)).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.auth.requireAuth(h.adminUsers)).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}", h.auth.requireAuth(h.adminGetUser)).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}", h.auth.requireAuth(h.adminUpdateUser)).Methods(http.MethodPut)
	admin.HandleFunc("/users/{id}/balance", h.auth.requireAuth(h.adminSetBalance)).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}/status", h.auth.requireAuth(h.adminSetStatus)).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}/rewards", h.auth.requireAuth(h.adminAddRewards)).Methods(http.MethodPost)
	admin.HandleFunc("/pending", h.auth.requireAuth(h.adminPendingWallets)).Methods(http.MethodGet)
	admin.HandleFunc("/wallets", h.auth.requireAuth(h.adminWallets)).Methods(http.MethodGet)
	admin.HandleFunc("/approve", h.auth.requireAuth(h.adminApproveWallet)).Methods(http.MethodPost)
	admin.HandleFunc("/reject", h.auth.requireAuth(h.adminRejectWallet)).Methods(http.MethodPost)
	admin.HandleFunc("/withdrawals/pending", h.auth.requireAuth(h.adminPendingWithdrawals)).Methods(http.MethodGet)
	admin.HandleFunc("/withdraw/approve", h.auth.requireAuth(h.adminApproveWithdrawal)).Methods(http.MethodPost)
	admin.HandleFunc("/withdraw/reject", h.auth.requireAuth(h.adminRejectWithdrawal)).Methods(http.MethodPost)
	admin.HandleFunc("/transactions", h.auth.requireAuth(h.adminTransactions)).Methods(http.MethodGet)
	admin.HandleFunc("/transactions", h.auth.requireAuth(h.adminInsertTransaction)).Methods(http.MethodPost)
	admin.HandleFunc("/settings", h.auth.requireAuth(h.adminSettings)).Methods(http.MethodGet)
	admin.HandleFunc("/settings", h.auth.requireAuth(h.adminUpdateSettings)).Methods(http.MethodPut)
	admin.HandleFunc("/wallet-balances", h.auth.requireAuth(h.adminWalletBalances)).Methods(http.MethodGet)

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- Admin auth ----

func (h *handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	token, err := h.auth.Login(payload.Username, payload.Password)
	if err != nil {
		h.log.WithField("username", payload.Username).Warn("admin login failed")
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	h.log.WithField("username", payload.Username).Info("admin logged in")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"token":    token,
		"username": payload.Username,
	})
}

func (h *handler) adminLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		h.auth.Logout(token)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handler) adminVerify(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" || !h.auth.Verify(token) {
		writeJSON(w, http.StatusUnauthorized, map[string]bool{"valid": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// ---- Wallet approval ----

func (h *handler) requestApproval(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		WalletAddress string `json:"walletAddress"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !chain.ValidAddress(payload.WalletAddress) {
		writeError(w, http.StatusBadRequest, chain.ErrInvalidAddress)
		return
	}

	req, err := h.app.Wallets.RequestApproval(r.Context(), payload.WalletAddress, clientIP(r), r.UserAgent())
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  req.Status,
		"request": req,
	})
}

func (h *handler) checkApproval(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	approved, err := h.app.Wallets.IsApproved(r.Context(), address)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"approved": approved})
}

// ---- Accounts ----

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["walletAddress"]
	u, err := h.app.Users.GetByWallet(r.Context(), address)
	if errors.Is(err, user.ErrNotFound) {
		// Wallets that never staked read as a fresh zero-balance account.
		writeJSON(w, http.StatusOK, user.User{
			WalletAddress: address,
			Status:        user.StatusActive,
		})
		return
	}
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) userTransactions(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["walletAddress"]
	txs, err := h.app.Users.Transactions(r.Context(), address)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	if txs == nil {
		txs = []ledger.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// ---- Staking engine ----

func (h *handler) stake(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		WalletAddress string  `json:"walletAddress"`
		Amount        float64 `json:"amount"`
		Type          string  `json:"type"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var (
		u   user.User
		tx  ledger.Transaction
		err error
	)
	switch payload.Type {
	case "unstake":
		u, tx, err = h.app.Staking.Unstake(r.Context(), payload.WalletAddress, payload.Amount)
	case "stake":
		u, tx, err = h.app.Staking.Stake(r.Context(), payload.WalletAddress, payload.Amount)
	case "":
		writeError(w, http.StatusBadRequest, errors.New("type is required"))
		return
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported operation %q", payload.Type))
		return
	}
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"user":        u,
		"transaction": tx,
	})
}

func (h *handler) claim(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		WalletAddress string `json:"walletAddress"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	amount, tx, err := h.app.Rewards.Claim(r.Context(), payload.WalletAddress)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"amount":      amount,
		"transaction": tx,
	})
}

// ---- Withdrawals ----

func (h *handler) requestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		WalletAddress string  `json:"walletAddress"`
		Amount        float64 `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	wd, err := h.app.Withdrawals.Request(r.Context(), payload.WalletAddress, payload.Amount)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"withdrawal": wd,
	})
}

func (h *handler) adminPendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	pending, err := h.app.Withdrawals.ListPending(r.Context())
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	if pending == nil {
		pending = []ledger.Withdrawal{}
	}
	writeJSON(w, http.StatusOK, pending)
}

func (h *handler) adminApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		WithdrawalID string `json:"withdrawalId"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	wd, err := h.app.Withdrawals.Approve(r.Context(), payload.WithdrawalID)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"withdrawal": wd,
	})
}

func (h *handler) adminRejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		WithdrawalID string `json:"withdrawalId"`
		Reason       string `json:"reason"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	wd, err := h.app.Withdrawals.Reject(r.Context(), payload.WithdrawalID, payload.Reason)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"withdrawal": wd,
	})
}

// ---- Admin: accounts ----

func (h *handler) adminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.app.Users.Stats(r.Context())
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) adminUsers(w http.ResponseWriter, r *http.Request) {
	all, err := h.app.Users.List(r.Context())
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	if all == nil {
		all = []user.User{}
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *handler) adminGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := h.app.Users.Get(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) adminUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var patch userssvc.Patch
	if err := decodeJSON(r.Body, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	u, err := h.app.Users.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) adminSetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var payload struct {
		StakedAmount *float64 `json:"stakedAmount"`
		TotalEarned  *float64 `json:"totalEarned"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	u, err := h.app.Users.SetBalance(r.Context(), id, payload.StakedAmount, payload.TotalEarned)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) adminSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	u, err := h.app.Users.SetStatus(r.Context(), id, payload.Status)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) adminAddRewards(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var payload struct {
		Amount float64 `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	u, err := h.app.Rewards.AddRewards(r.Context(), id, payload.Amount)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ---- Admin: wallets ----

func (h *handler) adminPendingWallets(w http.ResponseWriter, r *http.Request) {
	pending, err := h.app.Wallets.ListPending(r.Context())
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	if pending == nil {
		pending = []wallet.ApprovalRequest{}
	}
	writeJSON(w, http.StatusOK, pending)
}

func (h *handler) adminWallets(w http.ResponseWriter, r *http.Request) {
	overview, err := h.app.Wallets.ListAll(r.Context())
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *handler) adminApproveWallet(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		WalletAddress string `json:"walletAddress"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	req, err := h.app.Wallets.Approve(r.Context(), payload.WalletAddress)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"request": req,
	})
}

func (h *handler) adminRejectWallet(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		WalletAddress string `json:"walletAddress"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	req, err := h.app.Wallets.Reject(r.Context(), payload.WalletAddress)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"request": req,
	})
}

// ---- Admin: ledger ----

func (h *handler) adminTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.app.Users.Transactions(r.Context(), r.URL.Query().Get("wallet"))
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	if txs == nil {
		txs = []ledger.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *handler) adminInsertTransaction(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		WalletAddress string  `json:"walletAddress"`
		Type          string  `json:"type"`
		Amount        float64 `json:"amount"`
		Status        string  `json:"status"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tx, err := h.app.Users.InsertTransaction(r.Context(), payload.WalletAddress, payload.Type, payload.Amount, payload.Status)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// ---- Settings ----

func (h *handler) publicSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.app.Settings.Public(r.Context())
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *handler) adminSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.app.Settings.Get(r.Context())
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *handler) adminUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch settings.Patch
	if err := decodeJSON(r.Body, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg, err := h.app.Settings.Update(r.Context(), patch)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"settings": cfg,
	})
}

// ---- Balances ----

func (h *handler) reportBalance(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		WalletAddress string `json:"walletAddress"`
		ETH           string `json:"eth"`
		USDT          string `json:"usdt"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !chain.ValidAddress(payload.WalletAddress) {
		writeError(w, http.StatusBadRequest, chain.ErrInvalidAddress)
		return
	}

	bal, err := h.app.Wallets.ReportBalance(r.Context(), payload.WalletAddress, payload.ETH, payload.USDT)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"balance": bal,
	})
}

func (h *handler) walletBalance(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	pair, err := h.chain.WalletBalance(r.Context(), address)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *handler) adminWalletBalances(w http.ResponseWriter, r *http.Request) {
	all, err := h.app.Users.List(r.Context())
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	addresses := make([]string, 0, len(all))
	for _, u := range all {
		addresses = append(addresses, u.WalletAddress)
	}
	writeJSON(w, http.StatusOK, h.chain.BulkBalances(r.Context(), addresses))
}

// ---- Helpers ----

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q", raw)
	}
	return id, nil
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// clientErrors are rejections the caller can act on. Anything outside this
// set and the not-found sentinels is an operational fault.
var clientErrors = []error{
	user.ErrInvalidWallet,
	chain.ErrInvalidAddress,
	staking.ErrInvalidAmount,
	staking.ErrBelowMinimum,
	staking.ErrAboveMaximum,
	staking.ErrInsufficientStake,
	rewards.ErrInvalidAmount,
	rewards.ErrNoRewards,
	withdrawals.ErrInvalidAmount,
	withdrawals.ErrInsufficientWithdrawable,
	withdrawals.ErrWithdrawalAlreadyDecided,
	userssvc.ErrNegativeBalance,
	userssvc.ErrInvalidInput,
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, settings.ErrMaintenance):
		return http.StatusServiceUnavailable
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, ledger.ErrWithdrawalNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, wallet.ErrRequestNotFound):
		return http.StatusNotFound
	}
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
