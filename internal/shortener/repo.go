package shortener

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the durable link store and the source of truth for
// existence and expiry. Every mutation is atomic per record.
//
// Errors are *errx.Error values: NotFound for a missing code, Conflict for
// a taken code on Create or Update, Internal for everything else.
type Repository interface {
	Create(ctx context.Context, link Link) (Link, error)
	GetByCode(ctx context.Context, code string) (Link, error)
	// FindByURL matches original URLs ignoring case and surrounding spaces.
	FindByURL(ctx context.Context, url string) ([]Link, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Link, error)
	// Update and Delete only touch a link still owned by ownerID; a link
	// with another owner is reported like a missing one.
	Update(ctx context.Context, code string, ownerID uuid.UUID, upd LinkUpdate) (Link, error)
	// TrackHit increments hits and sets last_used in a single statement.
	TrackHit(ctx context.Context, code string, at time.Time) (Link, error)
	Delete(ctx context.Context, code string, ownerID uuid.UUID) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
	// SweepExpired deletes every link with expires_at < now.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}
