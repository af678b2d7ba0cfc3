package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/StakePool-Labs/staking_layer/internal/app/domain/user"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage/memory"
)

func TestFile_PersistLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	store := memory.New()
	if _, err := store.CreateUser(context.Background(), user.User{
		WalletAddress: "0xaaa",
		StakedAmount:  750,
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	file := NewFile(path, store, nil)
	if err := file.Persist(context.Background()); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("data file missing: %v", err)
	}

	fresh := memory.New()
	loader := NewFile(path, fresh, nil)
	if err := loader.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	u, err := fresh.GetUserByWallet(context.Background(), "0xaaa")
	if err != nil {
		t.Fatalf("user not restored: %v", err)
	}
	if u.StakedAmount != 750 {
		t.Fatalf("state lost: %+v", u)
	}
}

func TestFile_LoadMissingFile(t *testing.T) {
	store := memory.New()
	file := NewFile(filepath.Join(t.TempDir(), "missing.json"), store, nil)
	if err := file.Load(context.Background()); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
}

func TestFile_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	file := NewFile(path, memory.New(), nil)
	if err := file.Load(context.Background()); err == nil {
		t.Fatalf("corrupt file should error")
	}
}
