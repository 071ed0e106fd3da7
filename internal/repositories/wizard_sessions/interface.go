package wizard_sessions

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks . Repository,TimeProvider

import (
	"context"
	"time"

	"github.com/KirkDiggler/narrative-service/internal/domain/wizard"
)

// Repository stores wizard sessions by id. Implementations hand out copies, so a
// caller must Update to persist changes.
type Repository interface {
	Create(ctx context.Context, session *wizard.Session) error
	Get(ctx context.Context, id string) (*wizard.Session, error)
	Update(ctx context.Context, session *wizard.Session) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*wizard.Session, error)
}

// TimeProvider abstracts the clock used for timestamps and expiry
type TimeProvider interface {
	Now() time.Time
}

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time {
	return time.Now().UTC()
}

// DefaultTTL is how long a session survives after its last write
const DefaultTTL = 24 * time.Hour
