package rand

import (
	"crypto/rand"
	"encoding/base64"
)

// TokenGenerator generates opaque random tokens of a fixed size.
type TokenGenerator struct {
	size int
}

// NewTokenGenerator returns a token generator producing tokens from size
// random bytes.
func NewTokenGenerator(size int) *TokenGenerator {
	return &TokenGenerator{
		size: size,
	}
}

// Token returns a new random token.
func (g *TokenGenerator) Token() (string, error) {
	b := make([]byte, g.size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
