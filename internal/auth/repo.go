package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	db "github.com/sundayezeilo/shortlinks/internal/db/sqlc"
	"github.com/sundayezeilo/shortlinks/internal/errx"
)

// User is a registered account.
type User struct {
	ID             uuid.UUID
	Username       string
	Email          string
	HashedPassword string
	Role           Role
	IsActive       bool
	CreatedAt      time.Time
}

// Principal returns the identity carried in access tokens for u.
func (u User) Principal() Principal {
	return Principal{ID: u.ID, Username: u.Username, Role: u.Role}
}

// UserRepository persists users.
type UserRepository interface {
	Create(ctx context.Context, u User) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
}

type querier interface {
	CreateUser(ctx context.Context, arg db.CreateUserParams) (db.User, error)
	GetUserByUsername(ctx context.Context, username string) (db.User, error)
}

type userRepo struct {
	q       querier
	timeout time.Duration
}

// NewUserRepository creates a PostgreSQL-backed UserRepository. Each call
// is bounded by timeout.
func NewUserRepository(q querier, timeout time.Duration) UserRepository {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &userRepo{q: q, timeout: timeout}
}

func toDomainUser(x db.User) (User, error) {
	if !x.CreatedAt.Valid {
		return User{}, errors.New("created_at unexpectedly NULL")
	}
	return User{
		ID:             x.ID,
		Username:       x.Username,
		Email:          x.Email,
		HashedPassword: x.HashedPassword,
		Role:           Role(x.Role),
		IsActive:       x.IsActive,
		CreatedAt:      x.CreatedAt.Time.UTC(),
	}, nil
}

func mapUserError(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		return errx.E(op, errx.Conflict, fmt.Errorf("%s already registered: %w", uniqueField(pgErr.ConstraintName), err))
	default:
		return errx.E(op, errx.Internal, err)
	}
}

func uniqueField(constraint string) string {
	switch constraint {
	case "users_username_unique":
		return "username"
	case "users_email_unique":
		return "email"
	default:
		return "user"
	}
}

func (r *userRepo) Create(ctx context.Context, u User) (User, error) {
	const op = "auth.repo.Create"

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row, err := r.q.CreateUser(ctx, db.CreateUserParams{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		Role:           string(u.Role),
	})
	if err != nil {
		return User{}, mapUserError(op, err)
	}

	user, err := toDomainUser(row)
	if err != nil {
		return User{}, errx.E(op, errx.Internal, err)
	}
	return user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	const op = "auth.repo.GetByUsername"

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row, err := r.q.GetUserByUsername(ctx, username)
	if err != nil {
		return User{}, mapUserError(op, err)
	}

	user, err := toDomainUser(row)
	if err != nil {
		return User{}, errx.E(op, errx.Internal, err)
	}
	return user, nil
}
