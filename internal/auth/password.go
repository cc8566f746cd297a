package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordEncoding is returned for input bcrypt cannot hash faithfully.
var ErrPasswordEncoding = errors.New("password_encoding")

type Hasher struct {
	cost int
}

func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Hasher{cost: cost}
}

func (h Hasher) HashPassword(plaintext string) (string, error) {
	if strings.IndexByte(plaintext, 0) >= 0 || len(plaintext) > 72 {
		return "", ErrPasswordEncoding
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordEncoding
		}
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword reports false for a mismatch and for a malformed digest alike.
func (h Hasher) VerifyPassword(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
