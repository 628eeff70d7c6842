package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/daraw/billing-server-go/internal/util"
)

const (
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
	csrfCookieAge  = 24 * time.Hour
)

// CSRFMiddleware protects the cookie-authenticated operator routes
// using the double-submit cookie pattern: the token is set in a
// JavaScript-readable cookie and must be echoed in the X-CSRF-Token
// header on every state-changing request.
type CSRFMiddleware struct {
	insecureCookies bool
}

func NewCSRFMiddleware(insecureCookies bool) *CSRFMiddleware {
	return &CSRFMiddleware{insecureCookies: insecureCookies}
}

func (m *CSRFMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A bearer header cannot be attached by a cross-site form or
		// fetch, so such requests carry no ambient credential to
		// protect.
		if strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(CSRFCookieName)
		if err != nil || cookie.Value == "" {
			tok, err := util.GenerateToken()
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{
					"error": "Failed to generate security token",
				})
				return
			}
			m.setCSRFCookie(w, tok)
			cookie = &http.Cookie{Value: tok}
		}

		if isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		headerToken := r.Header.Get(CSRFHeaderName)
		if headerToken == "" {
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error": "Missing CSRF token",
			})
			return
		}

		if !util.ConstantTimeEqual(cookie.Value, headerToken) {
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error": "Invalid CSRF token",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *CSRFMiddleware) setCSRFCookie(w http.ResponseWriter, tok string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(csrfCookieAge.Seconds()),
		HttpOnly: false, // must be readable by the client to echo in the header
		Secure:   !m.insecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}
