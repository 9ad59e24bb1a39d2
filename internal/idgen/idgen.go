// Package idgen generates primary keys for user accounts.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator produces unique identifiers. Implementations are safe for
// concurrent use.
type Generator interface {
	Generate() (uuid.UUID, error)
}

// Func adapts a function to Generator.
type Func func() (uuid.UUID, error)

func (f Func) Generate() (uuid.UUID, error) { return f() }

type v7 struct {
	retries int
	newID   func() (uuid.UUID, error)
}

// Option configures the v7 generator.
type Option func(*v7)

// WithRetries sets how many extra attempts follow a failed generation.
// Negative values are ignored.
func WithRetries(n int) Option {
	return func(g *v7) {
		if n >= 0 {
			g.retries = n
		}
	}
}

// NewV7 returns a Generator of time-ordered UUIDv7 values, which keep
// primary key inserts close together in the index. One retry by default.
func NewV7(opts ...Option) Generator {
	g := &v7{retries: 1, newID: uuid.NewV7}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *v7) Generate() (uuid.UUID, error) {
	var last error
	for range g.retries + 1 {
		id, err := g.newID()
		if err == nil {
			return id, nil
		}
		last = err
	}
	return uuid.Nil, fmt.Errorf("uuid v7 generation failed after %d attempts: %w", g.retries+1, last)
}
