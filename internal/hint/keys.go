package hint

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	KeyringService = "mindmaster"
	keyringUser    = "gemini"
)

var ErrNoAPIKey = errors.New("no gemini api key configured")

// KeyStore resolves the Gemini API key from the environment first and the OS
// keyring second.
type KeyStore struct {
	service string
	envVars []string
	lookup  func(string) (string, bool)
}

func NewKeyStore(service string) *KeyStore {
	if strings.TrimSpace(service) == "" {
		service = KeyringService
	}
	return &KeyStore{
		service: service,
		envVars: []string{"GEMINI_API_KEY", "API_KEY"},
		lookup:  os.LookupEnv,
	}
}

// Resolve returns the key and where it came from ("env:<NAME>" or "keyring").
func (k *KeyStore) Resolve() (string, string, error) {
	for _, name := range k.envVars {
		if v, ok := k.lookup(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), "env:" + name, nil
		}
	}
	v, err := keyring.Get(k.service, keyringUser)
	if err == nil && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), "keyring", nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return "", "", fmt.Errorf("keyring get: %w", err)
	}
	return "", "", ErrNoAPIKey
}

func (k *KeyStore) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("api key must not be empty")
	}
	if err := keyring.Set(k.service, keyringUser, value); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

func (k *KeyStore) Clear() error {
	if err := keyring.Delete(k.service, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}

// NewRequester picks Gemini when a key is available and the offline quips otherwise.
func NewRequester(apiKey, model string) Requester {
	if strings.TrimSpace(apiKey) == "" {
		return NewLocalRequester()
	}
	return NewGeminiRequester(apiKey, model)
}
