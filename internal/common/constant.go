// Package common contains shared constants and sentinel errors used across
// Authgate components.
package common

// AuthorizationHeaderName is the HTTP header / gRPC metadata key that carries
// the session credentials on inbound requests.
const AuthorizationHeaderName = "authorization"

// OpaqueByteLength is the number of random bytes in a freshly generated
// opaque token. Base64 encoding expands it to exactly 32 characters, which
// is also the column width in the credentials table.
const OpaqueByteLength = 24

// TokenSubject is the fixed subject claim carried by every session token.
const TokenSubject = "user"
