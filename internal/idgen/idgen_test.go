package idgen

import (
	"testing"

	"github.com/google/uuid"
)

func parse(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("Generate() returned unparseable id %q: %v", s, err)
	}
	if id == uuid.Nil {
		t.Fatal("generated UUID is nil")
	}
	return id
}

func TestNewV7(t *testing.T) {
	tests := []struct {
		name string
		gen  Generator
	}{
		{"default retries", NewV7()},
		{"no retries", NewV7(WithRetries(0))},
		{"negative retries ignored", NewV7(WithRetries(-5))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := parse(t, tt.gen.Generate())
			if id.Version() != 7 {
				t.Fatalf("UUID version = %d, want 7", id.Version())
			}
		})
	}
}

func TestWithRetries(t *testing.T) {
	g := NewV7(WithRetries(3)).(*v7Gen)
	if g.maxRetries != 3 {
		t.Errorf("maxRetries = %d, want 3", g.maxRetries)
	}

	g = NewV7(WithRetries(-1)).(*v7Gen)
	if g.maxRetries != 1 {
		t.Errorf("maxRetries = %d, want default 1", g.maxRetries)
	}
}

func TestV7_Order(t *testing.T) {
	gen := NewV7()
	seen := make(map[string]struct{}, 50)
	prev := gen.Generate()
	for range 50 {
		next := gen.Generate()
		if next <= prev {
			t.Fatalf("v7 ids out of order: %s after %s", next, prev)
		}
		if _, ok := seen[next]; ok {
			t.Fatalf("generated duplicate id: %s", next)
		}
		seen[next] = struct{}{}
		prev = next
	}
}

func TestFunc(t *testing.T) {
	var calls int
	gen := Func(func() string {
		calls++
		return "req-fixed"
	})

	if got := gen.Generate(); got != "req-fixed" {
		t.Errorf("Generate() = %q, want req-fixed", got)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
