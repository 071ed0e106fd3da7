package wizard_sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/narrative-service/internal/domain/wizard"
	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
)

const (
	keyPrefix = "wizard_session:"
	indexKey  = "wizard_sessions"
)

type redisRepo struct {
	client       redis.UniversalClient
	timeProvider TimeProvider
	ttl          time.Duration
}

func sessionKey(id string) string {
	return keyPrefix + id
}

// Create writes the session only if the key is free
func (r *redisRepo) Create(ctx context.Context, session *wizard.Session) error {
	if session == nil {
		return apperr.InvalidArgument("session cannot be nil")
	}
	if session.ID == "" {
		return apperr.InvalidArgument("session ID is required")
	}

	now := r.timeProvider.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	jsonData, err := json.Marshal(toData(session))
	if err != nil {
		return apperr.Wrap(err, "failed to marshal session data")
	}

	created, err := r.client.SetNX(ctx, sessionKey(session.ID), string(jsonData), r.ttl).Result()
	if err != nil {
		return apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to create session in Redis").
			WithMeta("session_id", session.ID)
	}
	if !created {
		return apperr.AlreadyExistsf("session with ID '%s' already exists", session.ID).
			WithMeta("session_id", session.ID)
	}

	if err := r.client.SAdd(ctx, indexKey, session.ID).Err(); err != nil {
		return apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to index session").
			WithMeta("session_id", session.ID)
	}

	return nil
}

func (r *redisRepo) Get(ctx context.Context, id string) (*wizard.Session, error) {
	if id == "" {
		return nil, apperr.InvalidArgument("session ID is required")
	}

	jsonData, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFoundf("session with ID '%s' not found", id).
				WithMeta("session_id", id)
		}
		return nil, apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to get session from Redis").
			WithMeta("session_id", id)
	}

	var data Data
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, apperr.Wrapf(err, "failed to unmarshal session %s", id)
	}

	return toSession(&data), nil
}

// Update overwrites an existing session and refreshes its TTL
func (r *redisRepo) Update(ctx context.Context, session *wizard.Session) error {
	if session == nil {
		return apperr.InvalidArgument("session cannot be nil")
	}
	if session.ID == "" {
		return apperr.InvalidArgument("session ID is required")
	}

	session.UpdatedAt = r.timeProvider.Now()

	jsonData, err := json.Marshal(toData(session))
	if err != nil {
		return apperr.Wrap(err, "failed to marshal session data")
	}

	updated, err := r.client.SetXX(ctx, sessionKey(session.ID), string(jsonData), r.ttl).Result()
	if err != nil {
		return apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to update session in Redis").
			WithMeta("session_id", session.ID)
	}
	if !updated {
		return apperr.NotFoundf("session with ID '%s' not found", session.ID).
			WithMeta("session_id", session.ID)
	}

	return nil
}

func (r *redisRepo) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperr.InvalidArgument("session ID is required")
	}

	pipe := r.client.Pipeline()
	del := pipe.Del(ctx, sessionKey(id))
	pipe.SRem(ctx, indexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to delete session from Redis").
			WithMeta("session_id", id)
	}

	if del.Val() == 0 {
		return apperr.NotFoundf("session with ID '%s' not found", id).
			WithMeta("session_id", id)
	}

	return nil
}

// List loads every indexed session. Ids whose key already expired are dropped
// from the index.
func (r *redisRepo) List(ctx context.Context) ([]*wizard.Session, error) {
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to list sessions from Redis")
	}

	found := make([]*wizard.Session, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			session, err := r.Get(gctx, id)
			if err != nil {
				if apperr.IsNotFound(err) {
					return nil
				}
				return fmt.Errorf("failed to get session %s: %w", id, err)
			}
			found[i] = session
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sessions := make([]*wizard.Session, 0, len(found))
	var stale []any
	for i, session := range found {
		if session == nil {
			stale = append(stale, ids[i])
			continue
		}
		sessions = append(sessions, session)
	}

	if len(stale) > 0 {
		if err := r.client.SRem(ctx, indexKey, stale...).Err(); err != nil {
			return nil, apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to prune session index")
		}
	}

	return sessions, nil
}
