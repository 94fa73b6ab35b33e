package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"microblog/internal/cache"
)

const sessionKeyPrefix = "session:"

// SessionStoreInterface defines the interface for session storage operations.
// A token whose record is missing is treated as logged out, so redis outages
// fail closed for protected routes.
type SessionStoreInterface interface {
	StoreSession(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error
	GetSession(ctx context.Context, tokenID string) (userID uint, err error)
	DeleteSession(ctx context.Context, tokenID string) error
}

// SessionStore handles storage and retrieval of active sessions in Redis.
type SessionStore struct {
	cache *cache.Client
}

// Ensure SessionStore implements SessionStoreInterface
var _ SessionStoreInterface = (*SessionStore)(nil)

// NewSessionStore creates a new session store.
func NewSessionStore(cache *cache.Client) *SessionStore {
	return &SessionStore{cache: cache}
}

// StoreSession records an active session in Redis with TTL matching the token.
func (s *SessionStore) StoreSession(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error {
	payload, err := json.Marshal(map[string]interface{}{"user_id": userID})
	if err != nil {
		return fmt.Errorf("marshal session data: %w", err)
	}

	key := sessionKeyPrefix + tokenID
	return s.cache.Set(ctx, key, payload, ttl)
}

// GetSession resolves a session token ID to the user it belongs to.
func (s *SessionStore) GetSession(ctx context.Context, tokenID string) (uint, error) {
	key := sessionKeyPrefix + tokenID
	data, err := s.cache.Get(ctx, key)
	if err != nil || data == nil {
		return 0, fmt.Errorf("session not found")
	}

	var sessionData map[string]interface{}
	if err := json.Unmarshal(data, &sessionData); err != nil {
		return 0, fmt.Errorf("unmarshal session data: %w", err)
	}

	uid, ok := sessionData["user_id"].(float64)
	if !ok {
		return 0, fmt.Errorf("invalid user_id in session data")
	}
	return uint(uid), nil
}

// DeleteSession removes a session from Redis, ending it immediately.
func (s *SessionStore) DeleteSession(ctx context.Context, tokenID string) error {
	key := sessionKeyPrefix + tokenID
	return s.cache.Delete(ctx, key)
}
