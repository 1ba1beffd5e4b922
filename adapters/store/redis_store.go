package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/streamgate/streamgate/core"
	"github.com/streamgate/streamgate/ports"
)

// RedisStore is a Redis implementation of the SessionStore interface.
// Session records are JSON values with a TTL; a per-subject index set
// backs RevokeAllForSubject.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(client *redis.Client) ports.SessionStore {
	return &RedisStore{
		client: client,
		prefix: "streamgate:",
	}
}

func (s *RedisStore) sessionKey(id string) string { return s.prefix + "session:" + id }

func (s *RedisStore) subjectKey(subjectID string) string {
	return s.prefix + "subject:" + subjectID
}

// Create persists the session with a TTL derived from its expiry and adds
// it to the subject index.
func (s *RedisStore) Create(ctx context.Context, sess core.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return core.Wrap(core.ErrStoreUnavailable, err)
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return core.E(core.KindValidation, "session already expired")
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.sessionKey(sess.ID), payload, ttl)
	pipe.SAdd(ctx, s.subjectKey(sess.SubjectID), sess.ID)
	// The index outlives any one session by its longest member's TTL.
	pipe.Expire(ctx, s.subjectKey(sess.SubjectID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return core.Wrap(core.ErrStoreUnavailable, err)
	}
	return nil
}

// Get returns the session iff present and unexpired. Redis misses map to
// ErrSessionInvalid; every other failure is ErrStoreUnavailable so callers
// never confuse "no session" with "cannot check".
func (s *RedisStore) Get(ctx context.Context, id string) (core.Session, error) {
	payload, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.Session{}, core.ErrSessionInvalid
		}
		return core.Session{}, core.Wrap(core.ErrStoreUnavailable, err)
	}

	var sess core.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return core.Session{}, core.Wrap(core.ErrStoreUnavailable, err)
	}

	// The TTL usually handles this, but clock skew between writer and
	// reader can leave an expired record visible. Purge lazily.
	if sess.Expired(time.Now()) {
		_ = s.Revoke(ctx, id)
		return core.Session{}, core.ErrSessionInvalid
	}
	return sess, nil
}

// Revoke deletes the session and its index entry; absent ids are fine.
func (s *RedisStore) Revoke(ctx context.Context, id string) error {
	payload, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return core.Wrap(core.ErrStoreUnavailable, err)
	}

	var sess core.Session
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.sessionKey(id))
	if jsonErr := json.Unmarshal(payload, &sess); jsonErr == nil {
		pipe.SRem(ctx, s.subjectKey(sess.SubjectID), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return core.Wrap(core.ErrStoreUnavailable, err)
	}
	return nil
}

// RevokeAllForSubject deletes every session in the subject's index set.
func (s *RedisStore) RevokeAllForSubject(ctx context.Context, subjectID string) (int, error) {
	ids, err := s.client.SMembers(ctx, s.subjectKey(subjectID)).Result()
	if err != nil {
		return 0, core.Wrap(core.ErrStoreUnavailable, err)
	}

	count := 0
	for _, id := range ids {
		deleted, err := s.client.Del(ctx, s.sessionKey(id)).Result()
		if err != nil {
			return count, core.Wrap(core.ErrStoreUnavailable, err)
		}
		count += int(deleted)
	}
	if err := s.client.Del(ctx, s.subjectKey(subjectID)).Err(); err != nil {
		return count, core.Wrap(core.ErrStoreUnavailable, err)
	}
	return count, nil
}
