package storage

import (
	"context"
	"testing"

	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/models"
)

func TestFileStore_MissingFilesLoadEmpty(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if text, err := store.LoadProxies(ctx); err != nil || text != "" {
		t.Fatalf("missing proxies file: text=%q err=%v", text, err)
	}
	if accts, err := store.LoadAccounts(ctx); err != nil || accts != nil {
		t.Fatalf("missing accounts file: accts=%#v err=%v", accts, err)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if err := store.SaveProxies(ctx, "1.2.3.4:8080\n"); err != nil {
		t.Fatalf("save proxies: %v", err)
	}
	text, err := store.LoadProxies(ctx)
	if err != nil || text != "1.2.3.4:8080\n" {
		t.Fatalf("load proxies: text=%q err=%v", text, err)
	}

	in := []models.KickAccount{{Username: "a", Email: "a@example.com", IsActive: true}}
	if err := store.SaveAccounts(ctx, in); err != nil {
		t.Fatalf("save accounts: %v", err)
	}
	out, err := store.LoadAccounts(ctx)
	if err != nil {
		t.Fatalf("load accounts: %v", err)
	}
	if len(out) != 1 || out[0].Username != "a" || !out[0].IsActive {
		t.Fatalf("accounts round trip: %#v", out)
	}
}

func TestFileStore_CorruptAccountsIsAnError(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	// write a proxies-style blob where accounts.json belongs
	if err := store.writeFile(accountsFile, "not json"); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}
	if _, err := store.LoadAccounts(ctx); err == nil {
		t.Fatal("corrupt accounts file must surface an error for the pool to degrade on")
	}
}
