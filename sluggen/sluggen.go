// Package sluggen generates shortcodes for links created without an explicit name.
// Generators are safe for concurrent use.
package sluggen

import (
	"crypto/rand"
	"errors"
)

const (
	base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Largest multiple of 62 that fits in a byte; bytes at or above it are
	// discarded so every character is equally likely.
	base62Limit = 248
)

var ErrLength = errors.New("length must be positive")

// Generator generates shortcodes.
type Generator interface {
	Generate(length int) (string, error)
}

type base62Generator struct{}

// NewBase62 returns a generator drawing from [0-9A-Za-z].
func NewBase62() Generator {
	return base62Generator{}
}

// Generate returns a random base62 string of the given length.
func (base62Generator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", ErrLength
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= base62Limit {
				continue
			}
			out = append(out, base62Chars[int(b)%len(base62Chars)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
