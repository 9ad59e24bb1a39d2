// Package auth handles accounts, access tokens and the request principal.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sundayezeilo/shortlinks/internal/errx"
	"github.com/sundayezeilo/shortlinks/internal/idgen"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MinPasswordLength = 8
	MaxEmailLength    = 100
)

// RegisterRequest holds the fields of a new account.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// AccessToken is the result of a successful login.
type AccessToken struct {
	Token     string
	Type      string
	ExpiresAt time.Time
}

// Service manages accounts and issues access tokens.
type Service struct {
	users  UserRepository
	tokens *Tokens
	ids    idgen.Generator
	logger *slog.Logger
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	IDGenerator idgen.Generator // default: UUIDv7
	Logger      *slog.Logger
}

// NewService creates an account service.
func NewService(users UserRepository, tokens *Tokens, config *ServiceConfig) *Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	ids := config.IDGenerator
	if ids == nil {
		ids = idgen.NewV7(idgen.WithRetries(1))
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		users:  users,
		tokens: tokens,
		ids:    ids,
		logger: logger,
	}
}

// Register creates a regular user account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	const op = "auth.service.Register"

	if err := validateRegistration(req); err != nil {
		return User{}, errx.E(op, errx.Invalid, err)
	}

	user, err := s.create(ctx, req, RoleUser)
	if err != nil {
		return User{}, errx.E(op, errx.KindOf(err), err)
	}
	return user, nil
}

// Login checks credentials and issues an access token. Unknown users,
// wrong passwords and disabled accounts are indistinguishable to callers.
func (s *Service) Login(ctx context.Context, username, password string) (AccessToken, error) {
	const op = "auth.service.Login"

	invalid := errx.E(op, errx.Unauthorized, errors.New("invalid username or password"))

	if username == "" || password == "" {
		return AccessToken{}, invalid
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errx.KindOf(err) == errx.NotFound {
			return AccessToken{}, invalid
		}
		return AccessToken{}, errx.E(op, errx.KindOf(err), err)
	}

	ok, err := VerifyPassword(user.HashedPassword, password)
	if err != nil {
		return AccessToken{}, errx.E(op, errx.Internal, err)
	}
	if !ok || !user.IsActive {
		return AccessToken{}, invalid
	}

	token, expiresAt, err := s.tokens.Issue(user.Principal())
	if err != nil {
		return AccessToken{}, errx.E(op, errx.Internal, err)
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID.String())
	return AccessToken{Token: token, Type: TokenType, ExpiresAt: expiresAt}, nil
}

// EnsureAdmin creates the admin account unless the username is taken.
// It is safe to call on every start.
func (s *Service) EnsureAdmin(ctx context.Context, req RegisterRequest) error {
	const op = "auth.service.EnsureAdmin"

	existing, err := s.users.GetByUsername(ctx, req.Username)
	switch {
	case err == nil:
		if existing.Role != RoleAdmin {
			s.logger.WarnContext(ctx, "admin username belongs to a non-admin account",
				"username", req.Username)
			return nil
		}
		s.logger.InfoContext(ctx, "admin user already exists", "username", req.Username)
		return nil
	case errx.KindOf(err) != errx.NotFound:
		return errx.E(op, errx.KindOf(err), err)
	}

	if err := validateRegistration(req); err != nil {
		return errx.E(op, errx.Invalid, err)
	}

	if _, err := s.create(ctx, req, RoleAdmin); err != nil {
		// another replica may have won the race
		if errx.Is(err, errx.Conflict) {
			return nil
		}
		return errx.E(op, errx.KindOf(err), err)
	}

	s.logger.InfoContext(ctx, "admin user created", "username", req.Username)
	return nil
}

func (s *Service) create(ctx context.Context, req RegisterRequest, role Role) (User, error) {
	const op = "auth.service.create"

	hash, err := HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return User{}, errx.E(op, errx.Invalid, errors.New("password too long (max 72 bytes)"))
		}
		return User{}, errx.E(op, errx.Internal, err)
	}

	id, err := s.ids.Generate()
	if err != nil {
		return User{}, errx.E(op, errx.Internal, err)
	}

	user, err := s.users.Create(ctx, User{
		ID:             id,
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hash,
		Role:           role,
	})
	if err != nil {
		return User{}, errx.E(op, errx.KindOf(err), err)
	}
	return user, nil
}

func validateRegistration(req RegisterRequest) error {
	if len(req.Username) < MinUsernameLength || len(req.Username) > MaxUsernameLength {
		return errors.New("username must be between 3 and 50 characters")
	}
	for _, c := range req.Username {
		if !isUsernameChar(c) {
			return errors.New("username may only contain letters, digits, '.', '-' and '_'")
		}
	}

	if len(req.Email) > MaxEmailLength {
		return errors.New("email too long (max 100 characters)")
	}
	addr, err := mail.ParseAddress(req.Email)
	if err != nil || addr.Address != req.Email {
		return errors.New("invalid email address")
	}

	if len(req.Password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

func isUsernameChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.' || c == '-' || c == '_':
		return true
	default:
		return false
	}
}
