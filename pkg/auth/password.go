package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matthewhartstonge/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	SchemeBcrypt   = "bcrypt"
	SchemeArgon2id = "argon2id"
)

// Hasher hashes new passwords with one scheme and verifies hashes produced
// by either, so the scheme can be switched without resetting passwords.
type Hasher struct {
	scheme string
	argon  argon2.Config
	cost   int
	dummy  []byte
}

func NewHasher(scheme string) (*Hasher, error) {
	h := &Hasher{scheme: scheme, argon: argon2.DefaultConfig(), cost: bcrypt.DefaultCost}
	switch scheme {
	case SchemeBcrypt, SchemeArgon2id:
	default:
		return nil, fmt.Errorf("auth: unknown password scheme %q", scheme)
	}

	dummy, err := h.Hash("not-a-real-password")
	if err != nil {
		return nil, err
	}
	h.dummy = []byte(dummy)
	return h, nil
}

// Hash returns an encoded, salted hash of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	if h.scheme == SchemeArgon2id {
		encoded, err := h.argon.HashEncoded([]byte(plain))
		if err != nil {
			return "", fmt.Errorf("auth: argon2: %w", err)
		}
		return string(encoded), nil
	}

	out, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: bcrypt: %w", err)
	}
	return string(out), nil
}

// Verify reports whether plain matches hash. A malformed hash is an error;
// a plain mismatch is not.
func (h *Hasher) Verify(hash, plain string) (bool, error) {
	if strings.HasPrefix(hash, "$argon2") {
		ok, err := argon2.VerifyEncoded([]byte(plain), []byte(hash))
		if err != nil {
			return false, fmt.Errorf("auth: argon2: %w", err)
		}
		return ok, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("auth: bcrypt: %w", err)
	}
}

// Burn spends the same work as a real Verify. Login calls it for unknown
// accounts so both failure paths take comparable time.
func (h *Hasher) Burn(plain string) {
	_, _ = h.Verify(string(h.dummy), plain)
}
