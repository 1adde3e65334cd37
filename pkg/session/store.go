package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"roundbuy/pkg/logger"
	"roundbuy/pkg/models"
)

// Fixed storage keys, kept compatible with the mobile client's
// key-value store so a device migration can carry credentials over.
const (
	keyAccessToken  = "@roundbuy:access_token"
	keyRefreshToken = "@roundbuy:refresh_token"
	keyUserData     = "@roundbuy:user_data"
)

// Store is the durable local credential store backing the session:
// access/refresh tokens and the cached user profile under fixed keys,
// cleared wholesale on logout or irrecoverable auth failure.
// It satisfies transport.TokenSource.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("session_store_open_failed", "path", path, "error", err)
		return nil, err
	}
	logger.Debug("session_store_opened", "path", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Ready reports whether the store is open.
func (s *Store) Ready() bool { return s.db != nil }

func (s *Store) get(key string) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("session store not opened")
	}
	v, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer closer.Close()
	out := make([]byte, len(v))
	copy(out, v)
	return string(out), nil
}

func (s *Store) set(key, val string) error {
	if s.db == nil {
		return fmt.Errorf("session store not opened")
	}
	return s.db.Set([]byte(key), []byte(val), pebble.Sync)
}

// StoreTokens persists both tokens atomically; both are required.
func (s *Store) StoreTokens(access, refresh string) error {
	if access == "" || refresh == "" {
		return fmt.Errorf("invalid tokens: both access and refresh tokens are required")
	}
	if s.db == nil {
		return fmt.Errorf("session store not opened")
	}
	b := s.db.NewBatch()
	_ = b.Set([]byte(keyAccessToken), []byte(access), nil)
	_ = b.Set([]byte(keyRefreshToken), []byte(refresh), nil)
	return s.db.Apply(b, pebble.Sync)
}

// AccessToken returns the stored access token, or "" when absent.
func (s *Store) AccessToken() (string, error) { return s.get(keyAccessToken) }

// RefreshToken returns the stored refresh token, or "" when absent.
func (s *Store) RefreshToken() (string, error) { return s.get(keyRefreshToken) }

// SaveUser caches the authenticated user's profile.
func (s *Store) SaveUser(u models.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.set(keyUserData, string(data))
}

// User returns the cached profile, or nil when absent.
func (s *Store) User() (*models.User, error) {
	raw, err := s.get(keyUserData)
	if err != nil || raw == "" {
		return nil, err
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Clear removes tokens and the cached profile in one batch.
func (s *Store) Clear() error {
	if s.db == nil {
		return fmt.Errorf("session store not opened")
	}
	b := s.db.NewBatch()
	_ = b.Delete([]byte(keyAccessToken), nil)
	_ = b.Delete([]byte(keyRefreshToken), nil)
	_ = b.Delete([]byte(keyUserData), nil)
	return s.db.Apply(b, pebble.Sync)
}
