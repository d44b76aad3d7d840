// Package confirmation issues the short codes guests quote to find a booking.
package confirmation

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"
)

const (
	Alphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultLength = 10

	// Largest multiple of len(Alphabet) that fits in a byte. Bytes at or above
	// it are discarded so every symbol is equally likely.
	acceptBelow = 252
)

var ErrInvalidLength = errors.New("confirmation code length must be positive")

// Generator draws codes from a cryptographically secure source. It does not
// check uniqueness; the unique index on Bookings.confirmation_code does.
type Generator struct {
	mu     sync.Mutex
	source io.Reader
}

// NewGenerator uses source for randomness, or crypto/rand when source is nil.
func NewGenerator(source io.Reader) *Generator {
	if source == nil {
		source = rand.Reader
	}
	return &Generator{source: source}
}

func (g *Generator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	code := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)

	g.mu.Lock()
	defer g.mu.Unlock()

	for len(code) < length {
		if _, err := io.ReadFull(g.source, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= acceptBelow {
				continue
			}
			code = append(code, Alphabet[int(b)%len(Alphabet)])
			if len(code) == length {
				break
			}
		}
	}

	return string(code), nil
}
