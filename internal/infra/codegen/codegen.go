// Package codegen issues redemption codes from a cryptographically secure source.
package codegen

import (
	"crypto/rand"
	"math/big"

	"loyalty/config"
	"loyalty/internal/domain/service"
	"loyalty/internal/errors"
)

// Alphabet is the set of characters a redemption code is drawn from.
// It leaves out 0, O, 1 and I, which staff confuse when typing a code.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type randomCodeGenerator struct {
	length int
}

// NewCodeGenerator returns a generator producing codes of the configured length.
func NewCodeGenerator(cfg *config.Config) service.CodeGenerator {
	return NewRandomCodeGenerator(cfg.Loyalty.WithDefaults().RedemptionCodeLength)
}

// NewRandomCodeGenerator returns a generator producing codes of length characters.
func NewRandomCodeGenerator(length int) service.CodeGenerator {
	return &randomCodeGenerator{length: length}
}

// Generate draws each character uniformly from Alphabet.
func (g *randomCodeGenerator) Generate() (string, error) {
	if g.length <= 0 {
		return "", errors.Errorf("invalid redemption code length %d", g.length)
	}

	alphabetSize := big.NewInt(int64(len(Alphabet)))
	code := make([]byte, g.length)
	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", errors.Wrap(err, "failed to read random source")
		}
		code[i] = Alphabet[n.Int64()]
	}

	return string(code), nil
}
