package wizard_sessions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/KirkDiggler/narrative-service/internal/domain/wizard"
	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
)

// InMemoryConfig configures the in-memory repository
type InMemoryConfig struct {
	// TTL after the last write; zero disables expiry
	TTL          time.Duration
	TimeProvider TimeProvider
}

type entry struct {
	session   *wizard.Session
	expiresAt time.Time
}

// InMemoryRepository keeps sessions in process memory. Expired entries are invisible
// to reads and are purged on the next write.
type InMemoryRepository struct {
	mu           sync.RWMutex
	sessions     map[string]entry
	ttl          time.Duration
	timeProvider TimeProvider
}

// NewInMemoryRepository creates a new in-memory session repository
func NewInMemoryRepository(cfg *InMemoryConfig) Repository {
	repo := &InMemoryRepository{
		sessions:     make(map[string]entry),
		ttl:          DefaultTTL,
		timeProvider: realTimeProvider{},
	}
	if cfg != nil {
		repo.ttl = cfg.TTL
		if cfg.TimeProvider != nil {
			repo.timeProvider = cfg.TimeProvider
		}
	}
	return repo
}

// Create stores a new session
func (r *InMemoryRepository) Create(ctx context.Context, session *wizard.Session) error {
	if session == nil {
		return apperr.InvalidArgument("session cannot be nil")
	}
	if session.ID == "" {
		return apperr.InvalidArgument("session ID is required")
	}

	now := r.timeProvider.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.purgeExpired(now)

	if _, exists := r.sessions[session.ID]; exists {
		return apperr.AlreadyExistsf("session with ID '%s' already exists", session.ID).
			WithMeta("session_id", session.ID)
	}

	session.CreatedAt = now
	session.UpdatedAt = now
	r.sessions[session.ID] = r.newEntry(session, now)

	return nil
}

// Get retrieves a session by ID
func (r *InMemoryRepository) Get(ctx context.Context, id string) (*wizard.Session, error) {
	if id == "" {
		return nil, apperr.InvalidArgument("session ID is required")
	}

	now := r.timeProvider.Now()

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.sessions[id]
	if !exists || r.expired(e, now) {
		return nil, apperr.NotFoundf("session with ID '%s' not found", id).
			WithMeta("session_id", id)
	}

	return e.session.Snapshot(), nil
}

// Update replaces an existing session and refreshes its expiry
func (r *InMemoryRepository) Update(ctx context.Context, session *wizard.Session) error {
	if session == nil {
		return apperr.InvalidArgument("session cannot be nil")
	}
	if session.ID == "" {
		return apperr.InvalidArgument("session ID is required")
	}

	now := r.timeProvider.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.purgeExpired(now)

	if _, exists := r.sessions[session.ID]; !exists {
		return apperr.NotFoundf("session with ID '%s' not found", session.ID).
			WithMeta("session_id", session.ID)
	}

	session.UpdatedAt = now
	r.sessions[session.ID] = r.newEntry(session, now)

	return nil
}

// Delete removes a session
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperr.InvalidArgument("session ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.sessions[id]
	if !exists || r.expired(e, r.timeProvider.Now()) {
		return apperr.NotFoundf("session with ID '%s' not found", id).
			WithMeta("session_id", id)
	}

	delete(r.sessions, id)
	return nil
}

// List returns every live session ordered by creation time
func (r *InMemoryRepository) List(ctx context.Context) ([]*wizard.Session, error) {
	now := r.timeProvider.Now()

	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*wizard.Session, 0, len(r.sessions))
	for _, e := range r.sessions {
		if r.expired(e, now) {
			continue
		}
		sessions = append(sessions, e.session.Snapshot())
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	return sessions, nil
}

func (r *InMemoryRepository) newEntry(session *wizard.Session, now time.Time) entry {
	e := entry{session: session.Snapshot()}
	if r.ttl > 0 {
		e.expiresAt = now.Add(r.ttl)
	}
	return e
}

func (r *InMemoryRepository) expired(e entry, now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// purgeExpired must be called with the write lock held
func (r *InMemoryRepository) purgeExpired(now time.Time) {
	for id, e := range r.sessions {
		if r.expired(e, now) {
			delete(r.sessions, id)
		}
	}
}
