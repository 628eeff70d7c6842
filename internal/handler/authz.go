package handler

import (
	"net/http"

	apperrors "github.com/daraw/billing-server-go/internal/errors"
	"github.com/daraw/billing-server-go/internal/middleware"
	"github.com/daraw/billing-server-go/internal/token"
)

// Sessions carry one of four kinds. Password sessions may do
// everything. Proposal and invoice sessions may read the single
// resource their code was bound to (plus accept/decline for
// proposals). Custom sessions are read-only partner access.

func requireClaims(w http.ResponseWriter, r *http.Request) *token.Claims {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return nil
	}
	return claims
}

func canRead(claims *token.Claims, kind token.Kind, id string) bool {
	switch claims.Kind {
	case token.KindPassword, token.KindCustom:
		return true
	case kind:
		return claims.TargetID == id
	default:
		return false
	}
}

func canList(claims *token.Claims) bool {
	return claims.Kind == token.KindPassword || claims.Kind == token.KindCustom
}

func requirePassword(w http.ResponseWriter, claims *token.Claims) bool {
	if claims.Kind != token.KindPassword {
		writeError(w, apperrors.Forbidden("Insufficient permissions"))
		return false
	}
	return true
}
