package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daraw/billing-server-go/internal/audit"
	"github.com/daraw/billing-server-go/internal/config"
	apperrors "github.com/daraw/billing-server-go/internal/errors"
	"github.com/daraw/billing-server-go/internal/middleware"
	"github.com/daraw/billing-server-go/internal/service"
	"github.com/daraw/billing-server-go/internal/token"
)

// AuthHandler serves the two entry points into a session (password
// login and one-time code redemption) plus session introspection and
// logout.
type AuthHandler struct {
	authService     *service.AuthService
	otpService      *service.OTPService
	sessionGate     func(http.Handler) http.Handler
	loginRateLimit  func(http.Handler) http.Handler
	codeRateLimit   func(http.Handler) http.Handler
	insecureCookies bool
}

func NewAuthHandler(
	authService *service.AuthService,
	otpService *service.OTPService,
	sessionGate func(http.Handler) http.Handler,
	loginRateLimit func(http.Handler) http.Handler,
	codeRateLimit func(http.Handler) http.Handler,
	insecureCookies bool,
) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		otpService:      otpService,
		sessionGate:     sessionGate,
		loginRateLimit:  loginRateLimit,
		codeRateLimit:   codeRateLimit,
		insecureCookies: insecureCookies,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.loginRateLimit).Post("/login", h.Login)
	r.With(h.codeRateLimit).Post("/otp", h.RedeemCode)
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.sessionGate)
		r.Get("/me", h.Me)
	})

	return r
}

// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.Email == "" {
		writeError(w, apperrors.MissingRequired("email"))
		return
	}
	if req.Password == "" {
		writeError(w, apperrors.MissingRequired("password"))
		return
	}

	user, tok, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventLoginFailure,
			Details: map[string]interface{}{"email": req.Email},
		})
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventLoginSuccess,
		UserID: user.ID,
	})

	middleware.SetSessionCookie(w, tok, config.PasswordTokenTTL, h.insecureCookies)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    formatUser(user),
		"token":   tok,
	})
}

// POST /api/auth/otp
func (h *AuthHandler) RedeemCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.Code == "" {
		writeError(w, apperrors.MissingRequired("code"))
		return
	}

	result, err := h.otpService.Redeem(r.Context(), req.Code)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{Type: redemptionFailureEvent(err)})
		writeError(w, err)
		return
	}

	eventType := audit.EventCodeRedeemed
	if result.Kind == token.KindCustom {
		eventType = audit.EventCustomBypass
	}
	audit.LogFromRequest(r, audit.Event{
		Type:     eventType,
		TargetID: result.TargetID,
		Details:  map[string]interface{}{"kind": string(result.Kind)},
	})

	middleware.SetSessionCookie(w, result.Token, config.CodeTokenTTL, h.insecureCookies)

	resp := map[string]any{
		"success": true,
		"type":    result.Kind,
		"token":   result.Token,
	}
	if result.TargetID != "" {
		resp["id"] = result.TargetID
	}
	writeJSON(w, http.StatusOK, resp)
}

func redemptionFailureEvent(err error) audit.EventType {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeCodeExpired:
		return audit.EventCodeExpired
	case apperrors.ErrCodeDataIntegrity:
		return audit.EventIntegrityFault
	default:
		return audit.EventCodeInvalid
	}
}

// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	resp := map[string]any{
		"authenticated": true,
		"kind":          claims.Kind,
	}
	if claims.TargetID != "" {
		resp["id"] = claims.TargetID
	}
	if claims.Email != "" {
		resp["email"] = claims.Email
	}
	if claims.ExpiresAt != nil {
		resp["expiresAt"] = claims.ExpiresAt.Time
	}

	// Operator sessions report the current stored email, which may
	// have changed since the token was minted.
	if claims.Kind == token.KindPassword {
		if user, err := h.authService.GetUser(r.Context(), claims.TargetID); err == nil && user != nil {
			resp["email"] = user.Email
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /api/auth/logout
//
// Tokens are self-contained, so logout only discards the client's
// cookie copy. A token held elsewhere stays valid until expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := middleware.GetClaims(r.Context()); claims != nil {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout, UserID: claims.TargetID})
	}

	middleware.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
