package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/server/keys"
)

func testIssuer(t *testing.T) *Issuer {
	t.Helper()
	kp, err := keys.Obtain(testPub, testPriv)
	require.NoError(t, err)
	return NewIssuer("authgate", DefaultTTL, kp)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	iss := testIssuer(t)

	tok, err := iss.Issue(42, "opaque-value")
	require.NoError(t, err)

	got, err := iss.Verify(42, tok)
	require.NoError(t, err)
	assert.Equal(t, "opaque-value", got, "opaque must survive the round trip unchanged")
}

func TestVerify_WrongAudience(t *testing.T) {
	iss := testIssuer(t)

	tok, err := iss.Issue(42, "opaque-value")
	require.NoError(t, err)

	_, err = iss.Verify(43, tok)
	assert.True(t, errors.Is(err, common.ErrorInvalidToken))
}

func TestVerify_WrongIssuer(t *testing.T) {
	kp, err := keys.Obtain(testPub, testPriv)
	require.NoError(t, err)

	signer := NewIssuer("somebody-else", DefaultTTL, kp)
	verifier := NewIssuer("authgate", DefaultTTL, kp)

	tok, err := signer.Issue(42, "opaque-value")
	require.NoError(t, err)

	_, err = verifier.Verify(42, tok)
	assert.True(t, errors.Is(err, common.ErrorInvalidToken))
}

func TestVerify_Expired(t *testing.T) {
	iss := testIssuer(t)

	tok, err := iss.Issue(42, "opaque-value")
	require.NoError(t, err)

	// move the verifier's clock past the TTL
	late := iss.WithClock(func() time.Time { return time.Now().Add(DefaultTTL + time.Minute) })
	_, err = late.Verify(42, tok)
	assert.True(t, errors.Is(err, common.ErrorInvalidToken))
}

func TestVerify_FixedClockBeforeExpiry(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	iss := testIssuer(t).WithClock(func() time.Time { return base })

	tok, err := iss.Issue(7, "o32")
	require.NoError(t, err)

	almost := iss.WithClock(func() time.Time { return base.Add(DefaultTTL - time.Minute) })
	got, err := almost.Verify(7, tok)
	require.NoError(t, err)
	assert.Equal(t, "o32", got)
}

func TestVerify_MissingOpaqueClaim(t *testing.T) {
	kp, err := keys.Obtain(testPub, testPriv)
	require.NoError(t, err)
	iss := NewIssuer("authgate", DefaultTTL, kp)

	// a structurally valid token with no "o" claim
	claims := jwt.RegisteredClaims{
		Issuer:    "authgate",
		Subject:   common.TokenSubject,
		Audience:  jwt.ClaimStrings{"42"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(kp.Private())
	require.NoError(t, err)

	_, err = iss.Verify(42, tok)
	assert.True(t, errors.Is(err, common.ErrorMissingOpaqueClaim))
}

func TestVerify_WrongSubject(t *testing.T) {
	kp, err := keys.Obtain(testPub, testPriv)
	require.NoError(t, err)
	iss := NewIssuer("authgate", DefaultTTL, kp)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "authgate",
			Subject:   "admin",
			Audience:  jwt.ClaimStrings{"42"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Opaque: "o",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(kp.Private())
	require.NoError(t, err)

	_, err = iss.Verify(42, tok)
	assert.True(t, errors.Is(err, common.ErrorInvalidToken))
}

func TestVerify_ForeignKey(t *testing.T) {
	iss := testIssuer(t)

	otherKeys, err := keys.Obtain(otherPub, otherPriv)
	require.NoError(t, err)
	other := NewIssuer("authgate", DefaultTTL, otherKeys)

	tok, err := other.Issue(42, "opaque-value")
	require.NoError(t, err)

	_, err = iss.Verify(42, tok)
	assert.True(t, errors.Is(err, common.ErrorInvalidToken))
}

func TestVerify_Malformed(t *testing.T) {
	iss := testIssuer(t)

	for _, tok := range []string{"", "not.a.jwt", "xxxx"} {
		_, err := iss.Verify(42, tok)
		assert.True(t, errors.Is(err, common.ErrorInvalidToken), "token %q", tok)
	}
}
