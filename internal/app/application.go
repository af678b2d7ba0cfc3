package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/StakePool-Labs/staking_layer/internal/app/services/rewards"
	settingssvc "github.com/StakePool-Labs/staking_layer/internal/app/services/settings"
	"github.com/StakePool-Labs/staking_layer/internal/app/services/staking"
	userssvc "github.com/StakePool-Labs/staking_layer/internal/app/services/users"
	walletssvc "github.com/StakePool-Labs/staking_layer/internal/app/services/wallets"
	"github.com/StakePool-Labs/staking_layer/internal/app/services/withdrawals"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage/memory"
	"github.com/StakePool-Labs/staking_layer/internal/app/system"
	"github.com/StakePool-Labs/staking_layer/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users    storage.UserStore
	Ledger   storage.LedgerStore
	Wallets  storage.WalletStore
	Settings storage.SettingsStore
}

// Options tunes application behaviour.
type Options struct {
	// AccrualSchedule is the cron expression driving the reward accrual
	// pass. Empty or unparseable selects the hourly default.
	AccrualSchedule string
}

// Application ties domain services together and manages their lifecycle.
// Mutating operations across all services serialize on one engine mutex:
// every state transition reads and writes several stores and must be atomic
// with respect to the others.
type Application struct {
	manager *system.Manager
	log     *logger.Logger
	guard   sync.Mutex

	Staking     *staking.Service
	Rewards     *rewards.Service
	Withdrawals *withdrawals.Service
	Users       *userssvc.Service
	Wallets     *walletssvc.Service
	Settings    *settingssvc.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Ledger == nil {
		stores.Ledger = mem
	}
	if stores.Wallets == nil {
		stores.Wallets = mem
	}
	if stores.Settings == nil {
		stores.Settings = mem
	}

	manager := system.NewManager()

	a := &Application{
		manager:     manager,
		log:         log,
		Staking:     staking.New(stores.Users, stores.Ledger, stores.Settings, log),
		Rewards:     rewards.New(stores.Users, stores.Ledger, stores.Settings, log),
		Withdrawals: withdrawals.New(stores.Users, stores.Ledger, log),
		Users:       userssvc.New(stores.Users, stores.Ledger, stores.Wallets, stores.Settings, log),
		Wallets:     walletssvc.New(stores.Wallets, stores.Users, log),
		Settings:    settingssvc.New(stores.Settings, log),
	}

	a.Staking.AttachGuard(&a.guard)
	a.Rewards.AttachGuard(&a.guard)
	a.Withdrawals.AttachGuard(&a.guard)
	a.Users.AttachGuard(&a.guard)
	a.Wallets.AttachGuard(&a.guard)
	a.Settings.AttachGuard(&a.guard)

	for _, name := range []string{"staking", "withdrawals", "users", "wallets", "settings"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	accrual := rewards.NewAccrualRunner(a.Rewards, opts.AccrualSchedule, log)
	if err := manager.Register(accrual); err != nil {
		return nil, fmt.Errorf("register %s: %w", accrual.Name(), err)
	}

	return a, nil
}

// AttachPersister enables post-mutation snapshots across all services. Call
// before Start.
func (a *Application) AttachPersister(p storage.Persister) {
	a.Staking.AttachPersister(p)
	a.Rewards.AttachPersister(p)
	a.Withdrawals.AttachPersister(p)
	a.Users.AttachPersister(p)
	a.Wallets.AttachPersister(p)
	a.Settings.AttachPersister(p)
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
