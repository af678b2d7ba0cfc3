// Package settings exposes the platform configuration gate.
package settings

import (
	"context"
	"sync"

	"github.com/StakePool-Labs/staking_layer/internal/app/domain/settings"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage"
	"github.com/StakePool-Labs/staking_layer/pkg/logger"
)

// Service reads and updates platform settings.
type Service struct {
	store storage.SettingsStore
	log   *logger.Logger

	guard     *sync.Mutex
	persister storage.Persister
}

// New constructs a settings service.
func New(store storage.SettingsStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("settings")
	}
	return &Service{
		store: store,
		log:   log,
		guard: &sync.Mutex{},
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

// Get returns the full settings. Admin-only view.
func (s *Service) Get(ctx context.Context) (settings.Platform, error) {
	return s.store.GetSettings(ctx)
}

// Public returns the unauthenticated settings subset.
func (s *Service) Public(ctx context.Context) (settings.Public, error) {
	cfg, err := s.store.GetSettings(ctx)
	if err != nil {
		return settings.Public{}, err
	}
	return cfg.Public(), nil
}

// Update merges a partial change into the current settings. Fields the patch
// leaves nil keep their values.
func (s *Service) Update(ctx context.Context, patch settings.Patch) (settings.Platform, error) {
	s.guard.Lock()
	defer s.guard.Unlock()

	cfg, err := s.store.GetSettings(ctx)
	if err != nil {
		return settings.Platform{}, err
	}

	cfg, err = s.store.SaveSettings(ctx, cfg.Apply(patch))
	if err != nil {
		return settings.Platform{}, err
	}

	s.persist(ctx)
	s.log.WithField("maintenance", cfg.MaintenanceMode).Info("settings updated")
	return cfg, nil
}

func (s *Service) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Persist(ctx); err != nil {
		s.log.WithError(err).Warn("persist snapshot failed")
	}
}
