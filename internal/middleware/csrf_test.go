package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csrfTestHandler() http.Handler {
	m := NewCSRFMiddleware(false)
	return m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCSRF_SafeMethodIssuesCookie(t *testing.T) {
	handler := csrfTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/proposals", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	cookie := findCookie(rec, CSRFCookieName)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.False(t, cookie.HttpOnly)
}

func TestCSRF_WriteWithoutHeaderRejected(t *testing.T) {
	handler := csrfTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/proposals", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSRF")
}

func TestCSRF_WriteWithMatchingTokenAccepted(t *testing.T) {
	handler := csrfTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/proposals", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "match-me-1234"})
	req.Header.Set(CSRFHeaderName, "match-me-1234")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRF_WriteWithMismatchedTokenRejected(t *testing.T) {
	handler := csrfTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/proposals", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "match-me-1234"})
	req.Header.Set(CSRFHeaderName, "something-else")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// Bearer requests carry no ambient cookie credential, so the
// double-submit check does not apply to them.
func TestCSRF_BearerRequestBypassesCheck(t *testing.T) {
	handler := csrfTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/proposals", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
