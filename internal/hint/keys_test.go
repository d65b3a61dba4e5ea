package hint

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func newTestKeyStore(env map[string]string) *KeyStore {
	ks := NewKeyStore("mindmaster-test")
	ks.lookup = func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
	return ks
}

func TestKeyStorePrefersEnv(t *testing.T) {
	keyring.MockInit()
	ks := newTestKeyStore(map[string]string{"API_KEY": " from-env "})
	if err := ks.Set("from-keyring"); err != nil {
		t.Fatalf("set: %v", err)
	}
	key, source, err := ks.Resolve()
	if err != nil || key != "from-env" || source != "env:API_KEY" {
		t.Fatalf("expected env key, got %q %q %v", key, source, err)
	}
}

func TestKeyStoreFallsBackToKeyring(t *testing.T) {
	keyring.MockInit()
	ks := newTestKeyStore(nil)
	if _, _, err := ks.Resolve(); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	if err := ks.Set("secret"); err != nil {
		t.Fatalf("set: %v", err)
	}
	key, source, err := ks.Resolve()
	if err != nil || key != "secret" || source != "keyring" {
		t.Fatalf("expected keyring key, got %q %q %v", key, source, err)
	}
	if err := ks.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := ks.Clear(); err != nil {
		t.Fatalf("clear twice: %v", err)
	}
	if _, _, err := ks.Resolve(); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected key gone, got %v", err)
	}
}

func TestKeyStoreRejectsEmpty(t *testing.T) {
	keyring.MockInit()
	if err := newTestKeyStore(nil).Set("  "); err == nil {
		t.Fatalf("expected empty key error")
	}
}
