// Package token mints approval link tokens.
package token

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Alphabet is the set of symbols a token is drawn from. All are URL-safe.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Length is the number of symbols in a token.
const Length = 32

// maxByte is the largest multiple of len(Alphabet) below 256; bytes at or above it are
// discarded so every symbol is equally likely.
const maxByte = 256 - (256 % len(Alphabet))

// Generator produces tokens from a random source.
type Generator struct {
	src io.Reader
}

// New returns a generator backed by crypto/rand.
func New() *Generator {
	return &Generator{src: rand.Reader}
}

// NewWithSource returns a generator reading from src. Intended for tests.
func NewWithSource(src io.Reader) *Generator {
	return &Generator{src: src}
}

// Generate returns a fresh token. Uniqueness is enforced by the store, not here.
func (g *Generator) Generate() (string, error) {
	out := make([]byte, 0, Length)
	buf := make([]byte, Length*2)
	for len(out) < Length {
		if _, err := io.ReadFull(g.src, buf); err != nil {
			return "", fmt.Errorf("reading random source: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxByte {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == Length {
				break
			}
		}
	}
	return string(out), nil
}

// Valid reports whether s has the shape of a token.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
