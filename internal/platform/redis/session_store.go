// Package redis provides Redis-backed storage for refresh token sessions.
//
// Access tokens are stateless JWTs, so logout and refresh-token rotation
// need server-side state: a session record keyed by the refresh token's
// unique ID (jti claim). A refresh token is only honored while its session
// record exists, which makes logout and rotation effective immediately.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/tasklist-api/internal/config"
	"github.com/phrazzld/tasklist-api/internal/platform/logger"
)

// ErrSessionNotFound indicates the refresh session does not exist,
// either because it expired, was rotated away, or was revoked by logout.
var ErrSessionNotFound = errors.New("refresh session not found")

// SessionStore defines operations for managing refresh token sessions.
type SessionStore interface {
	// Save records a refresh session for the given user and token ID with
	// the given time-to-live. The session expires automatically when the
	// TTL elapses.
	Save(ctx context.Context, userID uuid.UUID, tokenID string, ttl time.Duration) error

	// Validate checks that the session exists and belongs to the given
	// user. Returns ErrSessionNotFound if the session is missing or owned
	// by a different user.
	Validate(ctx context.Context, userID uuid.UUID, tokenID string) error

	// Rotate atomically replaces an old session with a new one. The old
	// session must exist and belong to the user, otherwise
	// ErrSessionNotFound is returned and no new session is created.
	Rotate(ctx context.Context, userID uuid.UUID, oldTokenID, newTokenID string, ttl time.Duration) error

	// Delete removes a single session. Deleting a session that does not
	// exist is not an error.
	Delete(ctx context.Context, userID uuid.UUID, tokenID string) error

	// DeleteAllForUser removes every session belonging to the given user.
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}

// sessionStore implements SessionStore on top of a go-redis client.
type sessionStore struct {
	client *goredis.Client
	prefix string
}

// Ensure sessionStore implements SessionStore.
var _ SessionStore = (*sessionStore)(nil)

// NewClient creates a go-redis client from configuration and verifies
// connectivity with a ping.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return client, nil
}

// NewSessionStore creates a SessionStore backed by the given client.
// Keys are namespaced under the given prefix.
func NewSessionStore(client *goredis.Client, prefix string) SessionStore {
	if prefix == "" {
		prefix = "tasklist"
	}
	return &sessionStore{
		client: client,
		prefix: prefix,
	}
}

// sessionKey returns the key holding a single session record.
// The value stored at this key is the owning user's ID.
func (s *sessionStore) sessionKey(tokenID string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, tokenID)
}

// userSessionsKey returns the key of the set tracking a user's session IDs,
// used to revoke all of a user's sessions at once.
func (s *sessionStore) userSessionsKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:user_sessions:%s", s.prefix, userID)
}

func (s *sessionStore) Save(ctx context.Context, userID uuid.UUID, tokenID string, ttl time.Duration) error {
	log := logger.FromContext(ctx)

	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(tokenID), userID.String(), ttl)
		pipe.SAdd(ctx, s.userSessionsKey(userID), tokenID)
		// Keep the tracking set alive at least as long as its newest session.
		pipe.Expire(ctx, s.userSessionsKey(userID), ttl)
		return nil
	})
	if err != nil {
		log.Error("failed to save refresh session",
			"error", err,
			"user_id", userID)
		return fmt.Errorf("failed to save refresh session: %w", err)
	}

	log.Debug("refresh session saved",
		"user_id", userID,
		"ttl", ttl)
	return nil
}

func (s *sessionStore) Validate(ctx context.Context, userID uuid.UUID, tokenID string) error {
	owner, err := s.client.Get(ctx, s.sessionKey(tokenID)).Result()
	if errors.Is(err, goredis.Nil) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up refresh session: %w", err)
	}

	if owner != userID.String() {
		// Session exists but belongs to someone else. Treat as missing
		// rather than leaking the mismatch.
		return ErrSessionNotFound
	}

	return nil
}

func (s *sessionStore) Rotate(ctx context.Context, userID uuid.UUID, oldTokenID, newTokenID string, ttl time.Duration) error {
	log := logger.FromContext(ctx)

	if err := s.Validate(ctx, userID, oldTokenID); err != nil {
		return err
	}

	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, s.sessionKey(oldTokenID))
		pipe.SRem(ctx, s.userSessionsKey(userID), oldTokenID)
		pipe.Set(ctx, s.sessionKey(newTokenID), userID.String(), ttl)
		pipe.SAdd(ctx, s.userSessionsKey(userID), newTokenID)
		pipe.Expire(ctx, s.userSessionsKey(userID), ttl)
		return nil
	})
	if err != nil {
		log.Error("failed to rotate refresh session",
			"error", err,
			"user_id", userID)
		return fmt.Errorf("failed to rotate refresh session: %w", err)
	}

	log.Debug("refresh session rotated", "user_id", userID)
	return nil
}

func (s *sessionStore) Delete(ctx context.Context, userID uuid.UUID, tokenID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, s.sessionKey(tokenID))
		pipe.SRem(ctx, s.userSessionsKey(userID), tokenID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete refresh session: %w", err)
	}
	return nil
}

func (s *sessionStore) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	log := logger.FromContext(ctx)

	tokenIDs, err := s.client.SMembers(ctx, s.userSessionsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, tokenID := range tokenIDs {
			pipe.Del(ctx, s.sessionKey(tokenID))
		}
		pipe.Del(ctx, s.userSessionsKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}

	log.Debug("all refresh sessions deleted",
		"user_id", userID,
		"count", len(tokenIDs))
	return nil
}
