package service

import (
	"context"
	"crypto/rand"
	"fmt"
)

// codeAlphabet excludes 0/O, 1/I and L so codes survive being read aloud or
// copied by hand. Its length divides 256, so a byte modulo draw is uniform.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Generator produces random access-code strings of a fixed shape. It has no
// side effects: a generated string reserves nothing until the caller
// persists it.
type Generator struct {
	length      int
	maxAttempts int
}

func NewGenerator(length, maxAttempts int) *Generator {
	if length <= 0 {
		length = 8
	}
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &Generator{length: length, maxAttempts: maxAttempts}
}

// Generate draws one code uniformly from the alphabet.
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, g.length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}
	return string(buf), nil
}

// GenerateUnique retries Generate until exists reports the string free,
// giving up with ErrGenerationExhausted after the configured attempt budget.
// It never falls back to a longer or differently shaped code.
func (g *Generator) GenerateUnique(ctx context.Context, exists func(ctx context.Context, code string) (bool, error)) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code, err := g.Generate()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrGenerationExhausted, g.maxAttempts)
}
