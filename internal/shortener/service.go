package shortener

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shortlinks/codegen"
	"github.com/sundayezeilo/shortlinks/internal/auth"
	"github.com/sundayezeilo/shortlinks/internal/cache"
	"github.com/sundayezeilo/shortlinks/internal/errx"
	"github.com/sundayezeilo/shortlinks/internal/metrics"
)

const (
	DefaultCodeLength     = 6
	MinCodeLength         = 3
	MaxCodeLength         = 50
	MaxURLLength          = 2048
	DefaultCodeMaxRetries = 5
)

// CreateLinkRequest represents the parameters for creating a new link.
type CreateLinkRequest struct {
	OriginalURL string
	ShortCode   string     // optional alias; generated when empty
	ExpiresAt   *time.Time // optional
	OwnerID     *uuid.UUID // nil for anonymous callers
}

// UpdateLinkRequest replaces a link's target and expiry, optionally
// renaming it.
type UpdateLinkRequest struct {
	OriginalURL string
	ShortCode   string // new code; empty or equal to the current code keeps it
	ExpiresAt   *time.Time
}

// Service defines the link lifecycle and the redirect path.
type Service interface {
	Create(ctx context.Context, req CreateLinkRequest) (Link, error)
	Update(ctx context.Context, p auth.Principal, code string, req UpdateLinkRequest) (Link, error)
	Delete(ctx context.Context, p auth.Principal, code string) error
	DeleteAll(ctx context.Context, p auth.Principal) (int64, error)
	Resolve(ctx context.Context, code string) (string, error)
	Search(ctx context.Context, rawURL string) ([]Link, error)
	Stats(ctx context.Context, code string) (Stats, error)
	ListMine(ctx context.Context, p auth.Principal) ([]Link, error)
}

type service struct {
	repo           Repository
	cache          cache.Gateway
	codes          codegen.Generator
	codeLength     int
	codeMaxRetries int
	defaultTTL     time.Duration
	now            func() time.Time
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	Cache           cache.Gateway // default: cache.Noop
	CodeGenerator   codegen.Generator
	CodeLength      int
	CodeMaxRetries  int           // attempts when generating a unique code (default: 5)
	DefaultCacheTTL time.Duration // cache lifetime of links without expiry; 0 keeps them until evicted
	Clock           func() time.Time
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
}

// NewService creates a new service instance.
func NewService(repo Repository, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	gw := config.Cache
	if gw == nil {
		gw = cache.Noop{}
	}

	codes := config.CodeGenerator
	if codes == nil {
		codes = codegen.NewAlphanumeric()
	}

	length := config.CodeLength
	if length < MinCodeLength || length > MaxCodeLength {
		length = DefaultCodeLength
	}

	retries := config.CodeMaxRetries
	if retries <= 0 {
		retries = DefaultCodeMaxRetries
	}

	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &service{
		repo:           repo,
		cache:          gw,
		codes:          codes,
		codeLength:     length,
		codeMaxRetries: retries,
		defaultTTL:     config.DefaultCacheTTL,
		now:            func() time.Time { return clock().UTC() },
		logger:         logger,
		metrics:        config.Metrics,
	}
}

// Create stores a new link and writes it through to the cache.
// An expiry in the past is accepted; such a link resolves as Gone.
func (s *service) Create(ctx context.Context, req CreateLinkRequest) (Link, error) {
	const op = "shortener.service.Create"

	if err := validateURL(req.OriginalURL); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}

	link := Link{
		OriginalURL: req.OriginalURL,
		ExpiresAt:   utcPtr(req.ExpiresAt),
		OwnerID:     req.OwnerID,
	}

	// Alias path: validate and create once
	if req.ShortCode != "" {
		if err := validateShortCode(req.ShortCode); err != nil {
			return Link{}, errx.E(op, errx.Invalid, err)
		}

		link.ShortCode = req.ShortCode
		created, err := s.repo.Create(ctx, link)
		if err != nil {
			return Link{}, errx.E(op, errx.KindOf(err), err)
		}
		s.writeThrough(ctx, created)
		return created, nil
	}

	// Generated code path: retry on conflicts
	for range s.codeMaxRetries {
		code, err := s.codes.Generate(s.codeLength)
		if err != nil {
			return Link{}, errx.E(op, errx.Internal, err)
		}

		link.ShortCode = code
		created, err := s.repo.Create(ctx, link)
		if err == nil {
			s.writeThrough(ctx, created)
			return created, nil
		}

		if !errx.Is(err, errx.Conflict) {
			return Link{}, errx.E(op, errx.KindOf(err), err)
		}
		s.logger.DebugContext(ctx, "generated short code collided, retrying", "short_code", code)
	}

	return Link{}, errx.E(op, errx.Internal,
		errors.New("could not generate unique short code after retries"))
}

// Update replaces a link's URL and expiry and may rename it. Only the
// owner may update a link, and the write itself is conditioned on the
// owner: a link deleted and re-created by someone else after the check
// is reported as NotFound. The old cache key is always evicted and the
// current one rewritten, so no field change can leave a stale entry.
func (s *service) Update(ctx context.Context, p auth.Principal, code string, req UpdateLinkRequest) (Link, error) {
	const op = "shortener.service.Update"

	if code == "" {
		return Link{}, errx.E(op, errx.Invalid, errors.New("short code cannot be empty"))
	}
	if err := validateURL(req.OriginalURL); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}

	newCode := code
	if req.ShortCode != "" && req.ShortCode != code {
		if err := validateShortCode(req.ShortCode); err != nil {
			return Link{}, errx.E(op, errx.Invalid, err)
		}
		newCode = req.ShortCode
	}

	if err := s.authorizeOwner(ctx, op, p, code); err != nil {
		return Link{}, err
	}

	updated, err := s.repo.Update(ctx, code, p.ID, LinkUpdate{
		ShortCode:   newCode,
		OriginalURL: req.OriginalURL,
		ExpiresAt:   utcPtr(req.ExpiresAt),
	})
	if err != nil {
		return Link{}, errx.E(op, errx.KindOf(err), err)
	}

	s.cache.Delete(ctx, code)
	s.writeThrough(ctx, updated)
	return updated, nil
}

// Delete removes an owned link from the store and the cache.
func (s *service) Delete(ctx context.Context, p auth.Principal, code string) error {
	const op = "shortener.service.Delete"

	if code == "" {
		return errx.E(op, errx.Invalid, errors.New("short code cannot be empty"))
	}

	if err := s.authorizeOwner(ctx, op, p, code); err != nil {
		return err
	}

	removed, err := s.repo.Delete(ctx, code, p.ID)
	if err != nil {
		return errx.E(op, errx.KindOf(err), err)
	}
	s.cache.Delete(ctx, code)

	if !removed {
		return errx.E(op, errx.NotFound, errors.New("link deleted or replaced concurrently"))
	}
	return nil
}

// DeleteAll clears the store and every cache entry. Admin only.
func (s *service) DeleteAll(ctx context.Context, p auth.Principal) (int64, error) {
	const op = "shortener.service.DeleteAll"

	if !p.IsAdmin() {
		return 0, errx.E(op, errx.Forbidden, errors.New("admin role required"))
	}

	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, errx.E(op, errx.KindOf(err), err)
	}
	s.cache.Purge(ctx)

	s.logger.InfoContext(ctx, "all links deleted",
		"deleted", n,
		"admin_id", p.ID.String(),
	)
	return n, nil
}

// Search finds links whose original URL matches rawURL, ignoring case and
// surrounding spaces. rawURL may be percent-encoded and may omit the scheme.
func (s *service) Search(ctx context.Context, rawURL string) ([]Link, error) {
	const op = "shortener.service.Search"

	normalized, err := normalizeSearchURL(rawURL)
	if err != nil {
		return nil, errx.E(op, errx.Invalid, err)
	}

	links, err := s.repo.FindByURL(ctx, normalized)
	if err != nil {
		return nil, errx.E(op, errx.KindOf(err), err)
	}
	if len(links) == 0 {
		return nil, errx.E(op, errx.NotFound, errors.New("no links match url"))
	}
	return links, nil
}

func (s *service) Stats(ctx context.Context, code string) (Stats, error) {
	const op = "shortener.service.Stats"

	if code == "" {
		return Stats{}, errx.E(op, errx.Invalid, errors.New("short code cannot be empty"))
	}

	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return Stats{}, errx.E(op, errx.KindOf(err), err)
	}
	return Stats{
		Hits:      link.Hits,
		CreatedAt: link.CreatedAt,
		LastUsed:  link.LastUsed,
	}, nil
}

func (s *service) ListMine(ctx context.Context, p auth.Principal) ([]Link, error) {
	const op = "shortener.service.ListMine"

	links, err := s.repo.ListByOwner(ctx, p.ID)
	if err != nil {
		return nil, errx.E(op, errx.KindOf(err), err)
	}
	return links, nil
}

func (s *service) authorizeOwner(ctx context.Context, op string, p auth.Principal, code string) error {
	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return errx.E(op, errx.KindOf(err), err)
	}
	if !link.OwnedBy(p.ID) {
		return errx.E(op, errx.Forbidden, errors.New("link is not owned by caller"))
	}
	return nil
}

// writeThrough caches link unless it is already expired.
func (s *service) writeThrough(ctx context.Context, link Link) {
	ttl, ok := cacheTTL(link, s.now(), s.defaultTTL)
	if !ok {
		return
	}
	s.cache.Put(ctx, link.ShortCode, link.OriginalURL, ttl)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func normalizeSearchURL(raw string) (string, error) {
	decoded := strings.TrimSpace(unescapeLenient(raw))
	if decoded == "" {
		return "", errors.New("original_url cannot be empty")
	}
	if !strings.HasPrefix(decoded, "http://") && !strings.HasPrefix(decoded, "https://") {
		decoded = "https://" + decoded
	}
	return decoded, nil
}

// unescapeLenient decodes %XX sequences and keeps any '%' that does not
// start one, so "100%" searches for itself.
func unescapeLenient(s string) string {
	if decoded, err := url.PathUnescape(s); err == nil {
		return decoded
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if v, err := hex.DecodeString(s[i+1 : i+3]); err == nil {
				b.WriteByte(v[0])
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("url cannot be empty")
	}
	if len(rawURL) > MaxURLLength {
		return errors.New("url too long (max 2048 characters)")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid url format")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}
	if parsedURL.Host == "" {
		return errors.New("url must include host")
	}
	return nil
}

func validateShortCode(code string) error {
	if len(code) < MinCodeLength {
		return errors.New("short code too short (minimum 3 characters)")
	}
	if len(code) > MaxCodeLength {
		return errors.New("short code too long (maximum 50 characters)")
	}

	if strings.HasPrefix(code, "-") || strings.HasPrefix(code, "_") ||
		strings.HasSuffix(code, "-") || strings.HasSuffix(code, "_") {
		return errors.New("short code cannot start or end with dash or underscore")
	}

	for _, c := range code {
		if !isShortCodeChar(c) {
			return errors.New("short code contains invalid characters (only alphanumeric, dash, and underscore allowed)")
		}
	}
	return nil
}

func isShortCodeChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	default:
		return false
	}
}
