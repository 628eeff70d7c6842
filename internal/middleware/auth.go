package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/daraw/billing-server-go/internal/token"
)

type contextKey string

const ClaimsContextKey contextKey = "sessionClaims"

// SessionCookieName is the cookie carrying the session token for
// browser clients. API clients may use a bearer header instead.
const SessionCookieName = "token"

// GetClaims returns the validated session claims for the request, or
// nil when the request did not pass the session gate.
func GetClaims(ctx context.Context) *token.Claims {
	if claims, ok := ctx.Value(ClaimsContextKey).(*token.Claims); ok {
		return claims
	}
	return nil
}

// SessionGateMiddleware validates the session token on every
// protected route. Signature and embedded expiry are the only checks;
// there is no server-side session state. Missing, malformed, expired
// and badly signed tokens all produce the same response.
type SessionGateMiddleware struct {
	gate *token.Gate
}

func NewSessionGateMiddleware(gate *token.Gate) *SessionGateMiddleware {
	return &SessionGateMiddleware{gate: gate}
}

func (m *SessionGateMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := ExtractToken(r)
		if tok == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		claims, err := m.gate.Validate(tok)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ExtractToken pulls the session token from the Authorization header
// or the session cookie, in that order.
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}

	return ""
}

// SetSessionCookie stores the session token in an HTTP-only,
// strict-same-site cookie. The secure flag is dropped only under the
// explicit development override validated at startup.
func SetSessionCookie(w http.ResponseWriter, tok string, maxAge time.Duration, insecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   !insecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie removes the client-held token copy. The token
// itself stays valid until its embedded expiry; the server keeps no
// revocation list.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
