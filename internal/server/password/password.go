// Package password implements one-way password hashing with a creation-time
// strength policy. Digests are bcrypt with a fixed cost; the per-call salt
// is embedded in the digest, so verification needs no separate salt storage.
package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/authgate/internal/common"
)

// HashCost is the bcrypt work factor for new digests.
const HashCost = 12

// Symbols is the punctuation set a password must draw at least one
// character from.
const Symbols = "!@#$%^&*-+?"

const minLength = 8

// CheckPolicy validates password strength: minimum 8 characters, at least
// one lowercase letter, one uppercase letter, one digit and one symbol from
// Symbols. Violations are reported as common.ErrorWeakPassword.
func CheckPolicy(password string) error {
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(Symbols, r):
			symbol = true
		}
	}
	if len(password) < minLength || !lower || !upper || !digit || !symbol {
		return common.ErrorWeakPassword
	}
	return nil
}

// Hash checks the policy and returns a salted bcrypt digest of the
// password. The policy runs first so weak passwords are rejected before any
// hashing work happens.
func Hash(password string) (string, error) {
	if err := CheckPolicy(password); err != nil {
		return "", err
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return string(digest), nil
}

// Verify compares a password against a stored digest in constant time.
// A mismatch yields (false, nil); only a digest that bcrypt cannot parse
// yields common.ErrorCorruptDigest.
func Verify(password, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", common.ErrorCorruptDigest, err)
}
