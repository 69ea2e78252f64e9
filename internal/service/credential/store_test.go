package credential

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	if err := Validate("   "); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if err := Validate("sk-openai-123"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if err := Validate("sk-ant-api03-abc"); err != nil {
		t.Fatalf("expected valid key, got %v", err)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(ErrEmpty); got != "Please enter a valid API key" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := UserMessage(ErrInvalidFormat); !strings.Contains(got, "sk-ant-") {
		t.Fatalf("expected prefix hint, got %q", got)
	}
}

func TestSetRejectsBadPrefixWithoutPersisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.toml")
	store, err := Load(path)
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if err := store.Set("not-a-key"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if store.Present() {
		t.Fatal("expected store to stay empty")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no credential file, stat err: %v", err)
	}
}

func TestSetPersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.toml")
	store, err := Load(path)
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if err := store.Set("  sk-ant-api03-secret1234 "); err != nil {
		t.Fatalf("Set err: %v", err)
	}
	if got := store.Get(); got != "sk-ant-api03-secret1234" {
		t.Fatalf("unexpected value %q", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat err: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read err: %v", err)
	}
	if !strings.Contains(string(raw), StorageKey) {
		t.Fatalf("expected %s key in file, got %s", StorageKey, raw)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload err: %v", err)
	}
	if reloaded.Get() != "sk-ant-api03-secret1234" {
		t.Fatalf("expected persisted key, got %q", reloaded.Get())
	}
}

func TestSetTightensLooseExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.toml")
	if err := os.WriteFile(path, []byte("claude-api-key = \"sk-ant-old\"\n"), 0o644); err != nil {
		t.Fatalf("write err: %v", err)
	}

	store, err := Load(path)
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if err := store.Set("sk-ant-api03-new"); err != nil {
		t.Fatalf("Set err: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat err: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions after rewrite, got %o", perm)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir err: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the credential file, found %d entries", len(entries))
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload err: %v", err)
	}
	if reloaded.Get() != "sk-ant-api03-new" {
		t.Fatalf("expected new key, got %q", reloaded.Get())
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.toml")
	if err := os.WriteFile(path, []byte("claude-api-key = "), 0o600); err != nil {
		t.Fatalf("write err: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}

	recovered := NewFileStore(path)
	if err := recovered.Set("sk-ant-replacement"); err != nil {
		t.Fatalf("Set err: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load after overwrite err: %v", err)
	}
	if reloaded.Get() != "sk-ant-replacement" {
		t.Fatalf("unexpected reloaded key %q", reloaded.Get())
	}
}

func TestMasked(t *testing.T) {
	if got := NewMemoryStore("").Masked(); got != "" {
		t.Fatalf("expected empty mask, got %q", got)
	}
	if got := NewMemoryStore("sk-ant-api03-abcdWXYZ").Masked(); got != "sk-ant-****WXYZ" {
		t.Fatalf("unexpected mask %q", got)
	}
}
