package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/daraw/billing-server-go/internal/errors"
	"github.com/daraw/billing-server-go/internal/model"
	"github.com/daraw/billing-server-go/internal/service"
	"github.com/daraw/billing-server-go/internal/token"
	"github.com/daraw/billing-server-go/internal/util"
)

type ProposalHandler struct {
	proposalService *service.ProposalService
	sessionGate     func(http.Handler) http.Handler
}

func NewProposalHandler(
	proposalService *service.ProposalService,
	sessionGate func(http.Handler) http.Handler,
) *ProposalHandler {
	return &ProposalHandler{
		proposalService: proposalService,
		sessionGate:     sessionGate,
	}
}

func (h *ProposalHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.sessionGate)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Post("/{id}/status", h.SetStatus)
	r.Delete("/{id}", h.Delete)

	return r
}

// GET /api/proposals
func (h *ProposalHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil {
		return
	}
	if !canList(claims) {
		writeError(w, apperrors.Forbidden("Insufficient permissions"))
		return
	}

	p := ParsePagination(r)
	proposals, total, err := h.proposalService.List(r.Context(), p.Limit, p.Offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list proposals")
		writeError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": proposals,
		"total": total,
	})
}

// POST /api/proposals
func (h *ProposalHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil || !requirePassword(w, claims) {
		return
	}

	var req struct {
		Title       string `json:"title"`
		ClientName  string `json:"clientName"`
		ClientEmail string `json:"clientEmail"`
		AmountCents int64  `json:"amountCents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.Title == "" {
		writeError(w, apperrors.MissingRequired("title"))
		return
	}
	if req.ClientName == "" {
		writeError(w, apperrors.MissingRequired("clientName"))
		return
	}
	if req.ClientEmail != "" && !util.IsValidEmail(req.ClientEmail) {
		writeError(w, apperrors.InvalidInput("clientEmail", "must be a valid email address"))
		return
	}
	if req.AmountCents < 0 {
		writeError(w, apperrors.InvalidInput("amountCents", "must not be negative"))
		return
	}

	created, err := h.proposalService.Create(r.Context(), model.CreateProposalParams{
		Title:       req.Title,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		AmountCents: req.AmountCents,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create proposal")
		writeError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"proposal":      created.Proposal,
		"accessCode":    created.AccessCode.Code,
		"codeExpiresAt": created.AccessCode.ExpiresAt.Format(time.RFC3339),
	})
}

// GET /api/proposals/{id}
func (h *ProposalHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil {
		return
	}

	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}
	if !canRead(claims, token.KindProposal, id) {
		writeError(w, apperrors.Forbidden("Insufficient permissions"))
		return
	}

	proposal, err := h.proposalService.Get(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("failed to get proposal")
		writeError(w, apperrors.Database(err))
		return
	}
	if proposal == nil {
		writeError(w, apperrors.NotFound("Proposal"))
		return
	}

	writeJSON(w, http.StatusOK, proposal)
}

// PATCH /api/proposals/{id}
func (h *ProposalHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil || !requirePassword(w, claims) {
		return
	}

	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	var req struct {
		Title       *string `json:"title"`
		ClientName  *string `json:"clientName"`
		ClientEmail *string `json:"clientEmail"`
		Status      *string `json:"status"`
		AmountCents *int64  `json:"amountCents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.ClientEmail != nil && !util.IsValidEmail(*req.ClientEmail) {
		writeError(w, apperrors.InvalidInput("clientEmail", "must be a valid email address"))
		return
	}

	params := model.UpdateProposalParams{
		Title:       req.Title,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		AmountCents: req.AmountCents,
	}
	if req.Status != nil {
		if !util.IsValidEnum(*req.Status, model.ValidProposalStatuses()) {
			writeError(w, apperrors.InvalidInput("status", "unknown status"))
			return
		}
		status := model.ProposalStatus(*req.Status)
		params.Status = &status
	}

	proposal, err := h.proposalService.Update(r.Context(), id, params)
	if err != nil {
		log.Error().Err(err).Msg("failed to update proposal")
		writeError(w, apperrors.Database(err))
		return
	}
	if proposal == nil {
		writeError(w, apperrors.NotFound("Proposal"))
		return
	}

	writeJSON(w, http.StatusOK, proposal)
}

// POST /api/proposals/{id}/status
//
// Clients holding a proposal-bound session may accept or decline
// their own proposal. Operators may set any status.
func (h *ProposalHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil {
		return
	}

	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeError(w, apperrors.MissingRequired("status"))
		return
	}
	if !util.IsValidEnum(req.Status, model.ValidProposalStatuses()) {
		writeError(w, apperrors.InvalidInput("status", "unknown status"))
		return
	}
	status := model.ProposalStatus(req.Status)

	switch claims.Kind {
	case token.KindPassword:
	case token.KindProposal:
		if claims.TargetID != id {
			writeError(w, apperrors.Forbidden("Insufficient permissions"))
			return
		}
		if status != model.ProposalStatusAccepted && status != model.ProposalStatusDeclined {
			writeError(w, apperrors.Forbidden("Clients may only accept or decline"))
			return
		}
	default:
		writeError(w, apperrors.Forbidden("Insufficient permissions"))
		return
	}

	proposal, err := h.proposalService.SetStatus(r.Context(), id, status)
	if err != nil {
		log.Error().Err(err).Msg("failed to update proposal status")
		writeError(w, apperrors.Database(err))
		return
	}
	if proposal == nil {
		writeError(w, apperrors.NotFound("Proposal"))
		return
	}

	writeJSON(w, http.StatusOK, proposal)
}

// DELETE /api/proposals/{id}
func (h *ProposalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil || !requirePassword(w, claims) {
		return
	}

	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	if err := h.proposalService.Delete(r.Context(), id); err != nil {
		log.Error().Err(err).Msg("failed to delete proposal")
		writeError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
