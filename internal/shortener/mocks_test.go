package shortener

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shortlinks/internal/errx"
)

/***************
 * Mocks
 ***************/

// mockRepository implements Repository for testing.
type mockRepository struct {
	createFunc       func(ctx context.Context, link Link) (Link, error)
	getByCodeFunc    func(ctx context.Context, code string) (Link, error)
	findByURLFunc    func(ctx context.Context, url string) ([]Link, error)
	listByOwnerFunc  func(ctx context.Context, ownerID uuid.UUID) ([]Link, error)
	updateFunc       func(ctx context.Context, code string, ownerID uuid.UUID, upd LinkUpdate) (Link, error)
	trackHitFunc     func(ctx context.Context, code string, at time.Time) (Link, error)
	deleteFunc       func(ctx context.Context, code string, ownerID uuid.UUID) (bool, error)
	deleteAllFunc    func(ctx context.Context) (int64, error)
	sweepExpiredFunc func(ctx context.Context, now time.Time) (int64, error)

	mu            sync.Mutex
	trackHitCalls int
	createCalls   int
}

func notFound(op string) error {
	return errx.E(op, errx.NotFound, errors.New("not found"))
}

func (m *mockRepository) Create(ctx context.Context, link Link) (Link, error) {
	m.mu.Lock()
	m.createCalls++
	m.mu.Unlock()

	if m.createFunc != nil {
		return m.createFunc(ctx, link)
	}
	link.CreatedAt = time.Now().UTC()
	return link, nil
}

func (m *mockRepository) GetByCode(ctx context.Context, code string) (Link, error) {
	if m.getByCodeFunc != nil {
		return m.getByCodeFunc(ctx, code)
	}
	return Link{}, notFound("repo.GetByCode")
}

func (m *mockRepository) FindByURL(ctx context.Context, url string) ([]Link, error) {
	if m.findByURLFunc != nil {
		return m.findByURLFunc(ctx, url)
	}
	return nil, nil
}

func (m *mockRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Link, error) {
	if m.listByOwnerFunc != nil {
		return m.listByOwnerFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockRepository) Update(ctx context.Context, code string, ownerID uuid.UUID, upd LinkUpdate) (Link, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, code, ownerID, upd)
	}
	return Link{}, notFound("repo.Update")
}

func (m *mockRepository) TrackHit(ctx context.Context, code string, at time.Time) (Link, error) {
	m.mu.Lock()
	m.trackHitCalls++
	m.mu.Unlock()

	if m.trackHitFunc != nil {
		return m.trackHitFunc(ctx, code, at)
	}
	return Link{}, notFound("repo.TrackHit")
}

func (m *mockRepository) Delete(ctx context.Context, code string, ownerID uuid.UUID) (bool, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, code, ownerID)
	}
	return true, nil
}

func (m *mockRepository) DeleteAll(ctx context.Context) (int64, error) {
	if m.deleteAllFunc != nil {
		return m.deleteAllFunc(ctx)
	}
	return 0, nil
}

func (m *mockRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.sweepExpiredFunc != nil {
		return m.sweepExpiredFunc(ctx, now)
	}
	return 0, nil
}

// cachePut is one recorded Put call.
type cachePut struct {
	code string
	url  string
	ttl  time.Duration
}

// fakeCache is an in-memory cache.Gateway that records writes.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	puts    []cachePut
	deletes []string
	purges  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, code string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	url, ok := c.entries[code]
	return url, ok
}

func (c *fakeCache) Put(_ context.Context, code, url string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[code] = url
	c.puts = append(c.puts, cachePut{code: code, url: url, ttl: ttl})
}

func (c *fakeCache) Delete(_ context.Context, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, code)
	c.deletes = append(c.deletes, code)
}

func (c *fakeCache) Purge(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string)
	c.purges++
}

func (c *fakeCache) has(code string) bool {
	_, ok := c.Get(context.Background(), code)
	return ok
}

// mockCodeGenerator returns codes in order, then repeats the last one.
type mockCodeGenerator struct {
	codes     []string
	err       error
	callCount int
	lengths   []int
}

func (m *mockCodeGenerator) Generate(length int) (string, error) {
	m.callCount++
	m.lengths = append(m.lengths, length)

	if m.err != nil {
		return "", m.err
	}
	if len(m.codes) == 0 {
		return "abc123", nil
	}
	idx := min(m.callCount-1, len(m.codes)-1)
	return m.codes[idx], nil
}

/***************
 * Helpers
 ***************/

var testNow = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func timeAt(d time.Duration) *time.Time {
	t := testNow.Add(d)
	return &t
}

func ownerID(s string) *uuid.UUID {
	id := uuid.MustParse(s)
	return &id
}

const (
	aliceID = "0190a8d2-1c3e-7b6a-9f00-00000000a11c"
	bobID   = "0190a8d2-1c3e-7b6a-9f00-000000000b0b"
)

func newTestService(repo Repository, gw *fakeCache, gen *mockCodeGenerator) Service {
	cfg := &ServiceConfig{
		Cache: gw,
		Clock: fixedClock,
	}
	if gen != nil {
		cfg.CodeGenerator = gen
	}
	return NewService(repo, cfg)
}
