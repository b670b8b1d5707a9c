package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const DefaultCost = 12

// ErrCredentialFormat means the stored hash could not be parsed. Callers
// must treat it as a failed credential check.
var ErrCredentialFormat = errors.New("malformed credential hash")

type Hasher struct {
	cost int
}

func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}

	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plain string) (string, error) {
	const op = "password.Hash"

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(hash), nil
}

// Verify reports whether plain matches hash. A mismatch is (false, nil);
// an unparseable hash is (false, ErrCredentialFormat).
func (h *Hasher) Verify(plain, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrCredentialFormat, err)
	}
}
