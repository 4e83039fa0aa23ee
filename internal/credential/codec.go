package credential

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used for stored passwords.
const DefaultCost = 10

type Codec struct {
	cost int
}

func NewCodec() *Codec {
	return &Codec{cost: DefaultCost}
}

// NewCodecWithCost is used by tests that cannot afford the default work factor.
func NewCodecWithCost(cost int) *Codec {
	return &Codec{cost: cost}
}

// Encrypt hashes plaintext with a fresh salt and returns the encoded form.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), c.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash credential: %w", err)
	}
	return EncodeHash(string(hash)), nil
}

// Validate reports whether plaintext matches stored. A mismatch is (false, nil);
// only a malformed stored value surfaces as an error.
func (c *Codec) Validate(plaintext, stored string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(DecodeHash(stored)), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("failed to compare credential: %w", err)
	}
}
