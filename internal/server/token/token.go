// Package token issues and verifies the signed session assertion: an RS256
// JWT binding a numeric user id to the opaque value that was current at
// issuance time. The package is purely functional over a key pair; there is
// no I/O and the clock is injectable.
package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/server/keys"
)

// DefaultTTL is the lifetime of a session assertion.
const DefaultTTL = 12 * time.Hour

// Claims is the assertion claim set: the registered claims plus the opaque
// value under the short name "o".
type Claims struct {
	jwt.RegisteredClaims
	Opaque string `json:"o"`
}

// Issuer signs and verifies session assertions with a fixed issuer name and
// TTL. Safe for concurrent use.
type Issuer struct {
	issuer string
	ttl    time.Duration
	keys   *keys.Provider
	now    func() time.Time
}

// NewIssuer constructs an Issuer. A non-positive ttl falls back to
// DefaultTTL.
func NewIssuer(issuer string, ttl time.Duration, kp *keys.Provider) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{issuer: issuer, ttl: ttl, keys: kp, now: time.Now}
}

// WithClock returns a copy of the Issuer using the given time source.
// Intended for tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	clone := *i
	clone.now = now
	return &clone
}

// Issue signs a fresh assertion for userID embedding the given opaque value.
func (i *Issuer) Issue(userID int64, opaque string) (string, error) {
	issued := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   common.TokenSubject,
			Audience:  jwt.ClaimStrings{strconv.FormatInt(userID, 10)},
			ExpiresAt: jwt.NewNumericDate(issued.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(issued),
		},
		Opaque: opaque,
	}

	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(i.keys.Private())
}

// Verify checks the signature and the full claim set (issuer, audience =
// userID, subject, expiry) and returns the embedded opaque value.
//
// Every verification failure collapses into common.ErrorInvalidToken so the
// caller cannot tell which check failed. A token whose signature is valid
// but which carries no opaque value yields common.ErrorMissingOpaqueClaim;
// callers treat that as "not verified" rather than a hard error.
func (i *Issuer) Verify(userID int64, tokenString string) (string, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return i.keys.Public(), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(strconv.FormatInt(userID, 10)),
		jwt.WithSubject(common.TokenSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return "", common.ErrorInvalidToken
	}

	if claims.Opaque == "" {
		return "", common.ErrorMissingOpaqueClaim
	}

	return claims.Opaque, nil
}
