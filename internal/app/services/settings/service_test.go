package settings

import (
	"context"
	"testing"

	domain "github.com/StakePool-Labs/staking_layer/internal/app/domain/settings"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage/memory"
)

func TestService_UpdateMerges(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)

	apy := 15.0
	maintenance := true
	updated, err := svc.Update(context.Background(), domain.Patch{
		BaseAPY:         &apy,
		MaintenanceMode: &maintenance,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.BaseAPY != 15.0 || !updated.MaintenanceMode {
		t.Fatalf("patched fields not applied: %+v", updated)
	}
	// Untouched fields keep their defaults.
	if updated.MinStake != 100 || updated.MaxStake != 1000000 {
		t.Fatalf("unpatched fields changed: %+v", updated)
	}

	cfg, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cfg != updated {
		t.Fatalf("update not persisted: %+v", cfg)
	}
}

func TestService_PublicOmitsOperatorFields(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)

	pub, err := svc.Public(context.Background())
	if err != nil {
		t.Fatalf("public: %v", err)
	}
	if pub.BaseAPY != 12.5 || pub.MinStake != 100 {
		t.Fatalf("unexpected public view: %+v", pub)
	}
}
