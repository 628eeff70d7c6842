package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestIssueAndValidate(t *testing.T) {
	issuer := NewIssuer(testKey)
	gate := NewGate(testKey)

	t.Run("password token round trips identity", func(t *testing.T) {
		tok, err := issuer.Issue(PasswordClaims("u-1", "ops@daraw.example"), time.Hour)
		require.NoError(t, err)

		claims, err := gate.Validate(tok)
		require.NoError(t, err)
		assert.Equal(t, KindPassword, claims.Kind)
		assert.Equal(t, "u-1", claims.TargetID)
		assert.Equal(t, "ops@daraw.example", claims.Email)
	})

	t.Run("proposal token round trips target", func(t *testing.T) {
		tok, err := issuer.Issue(CodeClaims(KindProposal, "p-1"), 24*time.Hour)
		require.NoError(t, err)

		claims, err := gate.Validate(tok)
		require.NoError(t, err)
		assert.Equal(t, KindProposal, claims.Kind)
		assert.Equal(t, "p-1", claims.TargetID)
		assert.Empty(t, claims.Email)
	})

	t.Run("custom token carries no target", func(t *testing.T) {
		tok, err := issuer.Issue(CustomClaims(), 24*time.Hour)
		require.NoError(t, err)

		claims, err := gate.Validate(tok)
		require.NoError(t, err)
		assert.Equal(t, KindCustom, claims.Kind)
		assert.Empty(t, claims.TargetID)
	})
}

func TestValidateRejections(t *testing.T) {
	issuer := NewIssuer(testKey)
	gate := NewGate(testKey)

	t.Run("rejects expired token", func(t *testing.T) {
		tok, err := issuer.Issue(PasswordClaims("u-1", "ops@daraw.example"), -time.Minute)
		require.NoError(t, err)

		_, err = gate.Validate(tok)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("accepts token inside TTL and rejects past it", func(t *testing.T) {
		// Issue with exp one hour out, then with exp one minute ago:
		// the T+59min / T+61min boundary of a 1h token.
		live, err := issuer.Issue(PasswordClaims("u-1", ""), time.Minute)
		require.NoError(t, err)
		_, err = gate.Validate(live)
		assert.NoError(t, err)

		stale, err := issuer.Issue(PasswordClaims("u-1", ""), -time.Minute)
		require.NoError(t, err)
		_, err = gate.Validate(stale)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("rejects tampered claims", func(t *testing.T) {
		tok, err := issuer.Issue(CodeClaims(KindProposal, "p-1"), time.Hour)
		require.NoError(t, err)

		parts := strings.Split(tok, ".")
		require.Len(t, parts, 3)
		// Swap in a forged payload while keeping the original signature.
		forged, err := NewIssuer(testKey).Issue(CodeClaims(KindProposal, "p-2"), time.Hour)
		require.NoError(t, err)
		forgedParts := strings.Split(forged, ".")
		tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

		_, err = gate.Validate(tampered)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("rejects token signed with a different key", func(t *testing.T) {
		other := NewIssuer("ffffffffffffffffffffffffffffffff")
		tok, err := other.Issue(PasswordClaims("u-1", ""), time.Hour)
		require.NoError(t, err)

		_, err = gate.Validate(tok)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("rejects malformed token", func(t *testing.T) {
		_, err := gate.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("rejects token without expiry", func(t *testing.T) {
		raw := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Kind: KindPassword})
		tok, err := raw.SignedString([]byte(testKey))
		require.NoError(t, err)

		_, err = gate.Validate(tok)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		tok, err := issuer.Issue(Claims{Kind: Kind("superuser")}, time.Hour)
		require.NoError(t, err)

		_, err = gate.Validate(tok)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("rejects unsigned token", func(t *testing.T) {
		raw := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Kind: KindPassword})
		tok, err := raw.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = gate.Validate(tok)
		assert.ErrorIs(t, err, ErrInvalid)
	})
}
