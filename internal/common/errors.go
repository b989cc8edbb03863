// Package common defines shared constants and sentinel errors used across
// client and server layers of Authgate. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound            = errors.New("not found")
	ErrorDuplicateIdentifier = errors.New("identifier already registered")
	ErrorDatabase            = errors.New("database unavailable")

	// Credential policy errors (safe to surface to the caller).
	ErrorWeakPassword       = errors.New("password does not meet requirements")
	ErrorInvalidEmail       = errors.New("invalid email address")
	ErrorInvalidCredentials = errors.New("invalid identifier or password")

	// Session errors. ErrorInvalidOpaque means the record holds no active
	// opaque value and the user simply has to log in again.
	// ErrorUnauthorizedAccess means the presented opaque did not match the
	// stored one (a possible replay) and the session has been revoked.
	ErrorInvalidOpaque      = errors.New("no active session")
	ErrorUnauthorizedAccess = errors.New("unauthorized access")

	// Token errors. ErrorMissingOpaqueClaim is "not verified", not a hard
	// failure: the signature checked out but no opaque value was embedded.
	ErrorInvalidToken       = errors.New("invalid token")
	ErrorMissingOpaqueClaim = errors.New("token carries no opaque claim")

	// Key material / hashing errors.
	ErrorKeyGeneration = errors.New("unable to initialize signing key pair")
	ErrorCorruptDigest = errors.New("malformed password digest")

	// Catch-all for hashing/storage failures that are not policy violations.
	ErrorInternal = errors.New("internal error")
)
