// Package token mints and validates the signed session tokens handed
// out after a successful password login or code redemption. Tokens
// are self-contained: validity is signature plus embedded expiry, and
// no server-side record is kept, so an issued token cannot be revoked
// before it expires.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind discriminates what a session token grants access to.
type Kind string

const (
	KindPassword Kind = "password"
	KindProposal Kind = "proposal"
	KindInvoice  Kind = "invoice"
	KindCustom   Kind = "custom"
)

// ErrInvalid is the single outcome for every verification failure.
// Expired, malformed and badly signed tokens are deliberately not
// distinguished so responses never leak signing details.
var ErrInvalid = errors.New("invalid session token")

// Claims is the one token schema for all four credential kinds.
type Claims struct {
	Kind     Kind   `json:"kind"`
	TargetID string `json:"id,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// PasswordClaims describes a session for an administrative operator.
func PasswordClaims(userID, email string) Claims {
	return Claims{Kind: KindPassword, TargetID: userID, Email: email}
}

// CodeClaims describes a session bound to one proposal or invoice.
func CodeClaims(kind Kind, targetID string) Claims {
	return Claims{Kind: kind, TargetID: targetID}
}

// CustomClaims describes the fixed partner-bypass session. It carries
// no target id; handlers treat it as read-only partner access.
func CustomClaims() Claims {
	return Claims{Kind: KindCustom}
}

// Issuer signs session tokens with a single HS256 key.
type Issuer struct {
	key []byte
}

func NewIssuer(signingKey string) *Issuer {
	return &Issuer{key: []byte(signingKey)}
}

// Issue signs the claims with the given time-to-live. The TTL is
// fixed per call site: one hour for password logins, twenty-four
// hours for code redemptions.
func (i *Issuer) Issue(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.key)
}

// Gate validates tokens presented on protected requests.
type Gate struct {
	key []byte
}

func NewGate(signingKey string) *Gate {
	return &Gate{key: []byte(signingKey)}
}

// Validate checks signature and expiry. Every failure collapses to
// ErrInvalid.
func (g *Gate) Validate(tokenString string) (*Claims, error) {
	var claims Claims
	t, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return g.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !t.Valid {
		return nil, ErrInvalid
	}

	switch claims.Kind {
	case KindPassword, KindProposal, KindInvoice, KindCustom:
	default:
		return nil, ErrInvalid
	}

	return &claims, nil
}
