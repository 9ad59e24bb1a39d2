package shortener

import (
	"context"
	"errors"

	"github.com/sundayezeilo/shortlinks/internal/errx"
)

// Resolve returns the redirect target for code and records the hit.
//
// A cache hit is served without re-checking expiry; the entry's TTL never
// exceeds the link's remaining lifetime, so the staleness window is bounded
// by it. On a miss the store decides: unknown codes are NotFound and
// expired links are evicted and reported as Gone.
func (s *service) Resolve(ctx context.Context, code string) (string, error) {
	const op = "shortener.service.Resolve"

	if code == "" {
		return "", errx.E(op, errx.Invalid, errors.New("short code cannot be empty"))
	}

	if url, ok := s.cache.Get(ctx, code); ok {
		s.trackCachedHit(ctx, code)
		s.metrics.Resolution("cache", "ok")
		return url, nil
	}

	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		kind := errx.KindOf(err)
		s.metrics.Resolution("store", resolutionOutcome(kind))
		return "", errx.E(op, kind, err)
	}

	now := s.now()
	if link.ExpiredAt(now) {
		s.cache.Delete(ctx, code)
		s.metrics.Resolution("store", "gone")
		return "", errx.E(op, errx.Gone, errors.New("link expired"))
	}

	tracked, err := s.repo.TrackHit(ctx, code, now)
	if err != nil {
		kind := errx.KindOf(err)
		if kind != errx.NotFound {
			kind = errx.Internal
		}
		s.metrics.Resolution("store", resolutionOutcome(kind))
		return "", errx.E(op, kind, err)
	}

	s.writeThrough(ctx, tracked)
	s.metrics.Resolution("store", "ok")
	return tracked.OriginalURL, nil
}

// trackCachedHit records usage for a cache-served redirect. Failures never
// fail the redirect: a missing record means a delete or the janitor won a
// race, anything else is logged.
func (s *service) trackCachedHit(ctx context.Context, code string) {
	_, err := s.repo.TrackHit(ctx, code, s.now())
	if err == nil || errx.Is(err, errx.NotFound) {
		return
	}

	s.logger.WarnContext(ctx, "failed to record hit for cached link",
		"short_code", code,
		"error", err.Error(),
		"error_kind", errx.KindOf(err),
	)
}

func resolutionOutcome(kind errx.Kind) string {
	switch kind {
	case errx.NotFound:
		return "not_found"
	case errx.Gone:
		return "gone"
	default:
		return "error"
	}
}
