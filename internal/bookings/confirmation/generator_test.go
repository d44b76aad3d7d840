package confirmation

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	g := NewGenerator(nil)

	for _, length := range []int{1, 6, DefaultLength, 32} {
		code, err := g.Generate(length)
		if err != nil {
			t.Fatalf("Generate(%d) error: %v", length, err)
		}
		if len(code) != length {
			t.Errorf("Generate(%d) returned %d characters", length, len(code))
		}
		for _, r := range code {
			if !strings.ContainsRune(Alphabet, r) {
				t.Errorf("code %q contains %q outside the alphabet", code, r)
			}
		}
	}
}

func TestGenerate_InvalidLength(t *testing.T) {
	g := NewGenerator(nil)
	for _, length := range []int{0, -1} {
		if _, err := g.Generate(length); !errors.Is(err, ErrInvalidLength) {
			t.Errorf("Generate(%d) error = %v, want ErrInvalidLength", length, err)
		}
	}
}

func TestGenerate_TenThousandUnique(t *testing.T) {
	g := NewGenerator(nil)
	seen := make(map[string]struct{}, 10000)

	for i := 0; i < 10000; i++ {
		code, err := g.Generate(DefaultLength)
		if err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code %q after %d draws", code, i)
		}
		seen[code] = struct{}{}
	}
}

func TestGenerate_DiscardsBiasedBytes(t *testing.T) {
	// 252..255 must be skipped; 0 -> 'A', 35 -> '9', 36 -> 'A', 251 -> '9'.
	source := bytes.NewReader(append(
		[]byte{252, 0, 255, 35, 36, 251, 253, 1},
		make([]byte, 64)...,
	))
	g := NewGenerator(source)

	code, err := g.Generate(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "A9A9B" {
		t.Errorf("Generate() = %q, want %q", code, "A9A9B")
	}
}

func TestGenerate_SourceFailure(t *testing.T) {
	g := NewGenerator(bytes.NewReader([]byte{1, 2}))
	if _, err := g.Generate(DefaultLength); err == nil {
		t.Errorf("expected error when the random source runs dry")
	}
}
