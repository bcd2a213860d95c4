package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/99designs/keyring"
)

const (
	keyringService = "stackit"
	tokenKey       = "access-token"
)

// ErrNoToken is returned by TokenStore.Load when nothing is persisted.
var ErrNoToken = errors.New("no stored token")

// TokenStore persists the access token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// KeyringTokenStore keeps the token in the OS keyring.
type KeyringTokenStore struct {
	ring keyring.Keyring
}

// OpenKeyringTokenStore opens the platform keyring, falling back to an
// encrypted file under ~/.config/stackit.
func OpenKeyringTokenStore() (*KeyringTokenStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: keyringService,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/stackit/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("stackit-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewKeyringTokenStore(ring), nil
}

func NewKeyringTokenStore(ring keyring.Keyring) *KeyringTokenStore {
	return &KeyringTokenStore{ring: ring}
}

func (s *KeyringTokenStore) Load() (string, error) {
	item, err := s.ring.Get(tokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("getting token: %w", err)
	}
	if len(item.Data) == 0 {
		return "", ErrNoToken
	}
	return string(item.Data), nil
}

func (s *KeyringTokenStore) Save(token string) error {
	err := s.ring.Set(keyring.Item{
		Key:   tokenKey,
		Data:  []byte(token),
		Label: "StackIt access token",
	})
	if err != nil {
		return fmt.Errorf("setting token: %w", err)
	}
	return nil
}

func (s *KeyringTokenStore) Clear() error {
	err := s.ring.Remove(tokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}

// MemoryTokenStore keeps the token in process memory.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
