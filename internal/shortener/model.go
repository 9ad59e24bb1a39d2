package shortener

import (
	"time"

	"github.com/google/uuid"
)

// Link maps a short code to its redirect target.
type Link struct {
	ShortCode   string
	OriginalURL string
	CreatedAt   time.Time
	ExpiresAt   *time.Time // nil: never expires
	Hits        int64
	LastUsed    *time.Time
	OwnerID     *uuid.UUID // nil: anonymous
}

// ExpiredAt reports whether the link is dead at now. A link whose expiry
// equals now is already expired.
func (l Link) ExpiredAt(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

// OwnedBy reports whether id owns the link. Anonymous links have no owner.
func (l Link) OwnedBy(id uuid.UUID) bool {
	return l.OwnerID != nil && *l.OwnerID == id
}

// LinkUpdate replaces the mutable fields of a link. ShortCode is the new
// code and equals the current one when the link is not renamed.
type LinkUpdate struct {
	ShortCode   string
	OriginalURL string
	ExpiresAt   *time.Time
}

// Stats is the usage summary of a link.
type Stats struct {
	Hits      int64
	CreatedAt time.Time
	LastUsed  *time.Time
}
