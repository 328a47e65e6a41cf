// Package idgen produces request identifiers.
package idgen

import (
	"github.com/google/uuid"
)

// Generator generates unique request identifiers.
// Implementations must be safe for concurrent use.
type Generator interface {
	Generate() string
}

// Func adapts a plain function to a Generator.
type Func func() string

func (f Func) Generate() string { return f() }

type v7Gen struct {
	maxRetries int
}

type Option func(*v7Gen)

// WithRetries sets how many times to retry uuid.NewV7() after the initial attempt.
// Defaults to 1. Set to 0 to disable retries.
func WithRetries(n int) Option {
	return func(g *v7Gen) {
		if n >= 0 {
			g.maxRetries = n
		}
	}
}

// NewV7 returns a Generator that produces time-ordered UUID v7 strings,
// so request ids sort by arrival in the access log.
// If the clock source keeps failing it falls back to a v4 value.
func NewV7(opts ...Option) Generator {
	g := &v7Gen{maxRetries: 1}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *v7Gen) Generate() string {
	for range g.maxRetries + 1 {
		if id, err := uuid.NewV7(); err == nil {
			return id.String()
		}
	}
	return uuid.NewString()
}
