package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	db "github.com/sundayezeilo/shortlinks/internal/db/sqlc"
	"github.com/sundayezeilo/shortlinks/internal/errx"
)

const DefaultQueryTimeout = 3 * time.Second

// querier is the subset of *db.Queries used by the link repository.
type querier interface {
	CreateLink(ctx context.Context, arg db.CreateLinkParams) (db.Link, error)
	GetLinkByCode(ctx context.Context, shortCode string) (db.Link, error)
	FindLinksByURL(ctx context.Context, originalUrl string) ([]db.Link, error)
	ListLinksByOwner(ctx context.Context, id uuid.UUID) ([]db.Link, error)
	UpdateLink(ctx context.Context, arg db.UpdateLinkParams) (db.Link, error)
	TrackLinkHit(ctx context.Context, arg db.TrackLinkHitParams) (db.Link, error)
	DeleteLink(ctx context.Context, arg db.DeleteLinkParams) (int64, error)
	DeleteAllLinks(ctx context.Context) (int64, error)
	DeleteExpiredLinks(ctx context.Context, now pgtype.Timestamptz) (int64, error)
}

type repo struct {
	q       querier
	timeout time.Duration
}

// RepositoryConfig holds configuration for the repository.
type RepositoryConfig struct {
	QueryTimeout time.Duration // bound on every store call (default: 3s)
}

// NewRepository creates a PostgreSQL-backed Repository.
func NewRepository(q querier, config *RepositoryConfig) Repository {
	if config == nil {
		config = &RepositoryConfig{}
	}

	timeout := config.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}

	return &repo{
		q:       q,
		timeout: timeout,
	}
}

func (r *repo) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func mustTime(ts pgtype.Timestamptz, field string) (time.Time, error) {
	if !ts.Valid {
		return time.Time{}, fmt.Errorf("%s unexpectedly NULL", field)
	}
	return ts.Time.UTC(), nil
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time.UTC()
	return &t
}

func timestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

func ownerPtr(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	owner := id.UUID
	return &owner
}

func nullOwner(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func toDomainLink(x db.Link) (Link, error) {
	createdAt, err := mustTime(x.CreatedAt, "created_at")
	if err != nil {
		return Link{}, err
	}

	return Link{
		ShortCode:   x.ShortCode,
		OriginalURL: x.OriginalUrl,
		CreatedAt:   createdAt,
		ExpiresAt:   timePtr(x.ExpiresAt),
		Hits:        x.Hits,
		LastUsed:    timePtr(x.LastUsed),
		OwnerID:     ownerPtr(x.OwnerID),
	}, nil
}

func toDomainLinks(op string, rows []db.Link) ([]Link, error) {
	links := make([]Link, 0, len(rows))
	for _, row := range rows {
		link, err := toDomainLink(row)
		if err != nil {
			return nil, errx.E(op, errx.Internal, err)
		}
		links = append(links, link)
	}
	return links, nil
}

// mapRepoError hides driver errors behind errx kinds. Timeouts and
// connection failures are Internal: the store is the source of truth and
// cannot be bypassed.
func mapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)

	case isShortCodeUniqueViolation(err):
		return errx.E(op, errx.Conflict, err)

	default:
		return errx.E(op, errx.Internal, err)
	}
}

func (r *repo) one(op string, row db.Link, err error) (Link, error) {
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	link, err := toDomainLink(row)
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}
	return link, nil
}

func (r *repo) Create(ctx context.Context, link Link) (Link, error) {
	const op = "shortener.repo.Create"

	ctx, cancel := r.bound(ctx)
	defer cancel()

	row, err := r.q.CreateLink(ctx, db.CreateLinkParams{
		ShortCode:   link.ShortCode,
		OriginalUrl: link.OriginalURL,
		ExpiresAt:   timestamptz(link.ExpiresAt),
		OwnerID:     nullOwner(link.OwnerID),
	})
	return r.one(op, row, err)
}

func (r *repo) GetByCode(ctx context.Context, code string) (Link, error) {
	const op = "shortener.repo.GetByCode"

	ctx, cancel := r.bound(ctx)
	defer cancel()

	row, err := r.q.GetLinkByCode(ctx, code)
	return r.one(op, row, err)
}

func (r *repo) FindByURL(ctx context.Context, url string) ([]Link, error) {
	const op = "shortener.repo.FindByURL"

	ctx, cancel := r.bound(ctx)
	defer cancel()

	rows, err := r.q.FindLinksByURL(ctx, url)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	return toDomainLinks(op, rows)
}

func (r *repo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Link, error) {
	const op = "shortener.repo.ListByOwner"

	ctx, cancel := r.bound(ctx)
	defer cancel()

	rows, err := r.q.ListLinksByOwner(ctx, ownerID)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	return toDomainLinks(op, rows)
}

func (r *repo) Update(ctx context.Context, code string, ownerID uuid.UUID, upd LinkUpdate) (Link, error) {
	const op = "shortener.repo.Update"

	ctx, cancel := r.bound(ctx)
	defer cancel()

	newCode := upd.ShortCode
	if newCode == "" {
		newCode = code
	}

	row, err := r.q.UpdateLink(ctx, db.UpdateLinkParams{
		NewShortCode: newCode,
		OriginalUrl:  upd.OriginalURL,
		ExpiresAt:    timestamptz(upd.ExpiresAt),
		ShortCode:    code,
		OwnerID:      nullOwner(&ownerID),
	})
	return r.one(op, row, err)
}

func (r *repo) TrackHit(ctx context.Context, code string, at time.Time) (Link, error) {
	const op = "shortener.repo.TrackHit"

	ctx, cancel := r.bound(ctx)
	defer cancel()

	row, err := r.q.TrackLinkHit(ctx, db.TrackLinkHitParams{
		UsedAt:    timestamptz(&at),
		ShortCode: code,
	})
	return r.one(op, row, err)
}

func (r *repo) Delete(ctx context.Context, code string, ownerID uuid.UUID) (bool, error) {
	const op = "shortener.repo.Delete"

	ctx, cancel := r.bound(ctx)
	defer cancel()

	n, err := r.q.DeleteLink(ctx, db.DeleteLinkParams{
		ShortCode: code,
		OwnerID:   nullOwner(&ownerID),
	})
	if err != nil {
		return false, mapRepoError(op, err)
	}
	return n > 0, nil
}

func (r *repo) DeleteAll(ctx context.Context) (int64, error) {
	const op = "shortener.repo.DeleteAll"

	ctx, cancel := r.bound(ctx)
	defer cancel()

	n, err := r.q.DeleteAllLinks(ctx)
	if err != nil {
		return 0, mapRepoError(op, err)
	}
	return n, nil
}

// SweepExpired runs under the caller's deadline only; the janitor sets
// its own, longer bound.
func (r *repo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	const op = "shortener.repo.SweepExpired"

	n, err := r.q.DeleteExpiredLinks(ctx, timestamptz(&now))
	if err != nil {
		return 0, mapRepoError(op, err)
	}
	return n, nil
}
