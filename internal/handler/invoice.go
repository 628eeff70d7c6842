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

type InvoiceHandler struct {
	invoiceService *service.InvoiceService
	sessionGate    func(http.Handler) http.Handler
}

func NewInvoiceHandler(
	invoiceService *service.InvoiceService,
	sessionGate func(http.Handler) http.Handler,
) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		sessionGate:    sessionGate,
	}
}

func (h *InvoiceHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.sessionGate)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

type invoiceItemRequest struct {
	Description    string `json:"description"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

// GET /api/invoices
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil {
		return
	}
	if !canList(claims) {
		writeError(w, apperrors.Forbidden("Insufficient permissions"))
		return
	}

	p := ParsePagination(r)
	invoices, total, err := h.invoiceService.List(r.Context(), p.Limit, p.Offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list invoices")
		writeError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": invoices,
		"total": total,
	})
}

// POST /api/invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil || !requirePassword(w, claims) {
		return
	}

	var req struct {
		Number      string               `json:"number"`
		ClientName  string               `json:"clientName"`
		ClientEmail string               `json:"clientEmail"`
		IssuedAt    *time.Time           `json:"issuedAt"`
		DueAt       *time.Time           `json:"dueAt"`
		Items       []invoiceItemRequest `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.Number == "" {
		writeError(w, apperrors.MissingRequired("number"))
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
	items := make([]model.CreateInvoiceItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Description == "" {
			writeError(w, apperrors.MissingRequired("items[].description"))
			return
		}
		if item.Quantity <= 0 {
			writeError(w, apperrors.InvalidInput("items[].quantity", "must be positive"))
			return
		}
		if item.UnitPriceCents < 0 {
			writeError(w, apperrors.InvalidInput("items[].unitPriceCents", "must not be negative"))
			return
		}
		items = append(items, model.CreateInvoiceItemParams{
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}

	created, err := h.invoiceService.Create(r.Context(), model.CreateInvoiceParams{
		Number:      req.Number,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		IssuedAt:    req.IssuedAt,
		DueAt:       req.DueAt,
	}, items)
	if err != nil {
		log.Error().Err(err).Msg("failed to create invoice")
		writeError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"invoice":       formatInvoice(created.Invoice, created.Items),
		"accessCode":    created.AccessCode.Code,
		"codeExpiresAt": created.AccessCode.ExpiresAt.Format(time.RFC3339),
	})
}

// GET /api/invoices/{id}
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil {
		return
	}

	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}
	if !canRead(claims, token.KindInvoice, id) {
		writeError(w, apperrors.Forbidden("Insufficient permissions"))
		return
	}

	invoice, err := h.invoiceService.Get(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("failed to get invoice")
		writeError(w, apperrors.Database(err))
		return
	}
	if invoice == nil {
		writeError(w, apperrors.NotFound("Invoice"))
		return
	}

	writeJSON(w, http.StatusOK, formatInvoice(invoice.Invoice, invoice.Items))
}

// PATCH /api/invoices/{id}
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
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
		ClientName  *string    `json:"clientName"`
		ClientEmail *string    `json:"clientEmail"`
		Status      *string    `json:"status"`
		IssuedAt    *time.Time `json:"issuedAt"`
		DueAt       *time.Time `json:"dueAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.ClientEmail != nil && !util.IsValidEmail(*req.ClientEmail) {
		writeError(w, apperrors.InvalidInput("clientEmail", "must be a valid email address"))
		return
	}

	params := model.UpdateInvoiceParams{
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		IssuedAt:    req.IssuedAt,
		DueAt:       req.DueAt,
	}
	if req.Status != nil {
		if !util.IsValidEnum(*req.Status, model.ValidInvoiceStatuses()) {
			writeError(w, apperrors.InvalidInput("status", "unknown status"))
			return
		}
		status := model.InvoiceStatus(*req.Status)
		params.Status = &status
	}

	invoice, err := h.invoiceService.Update(r.Context(), id, params)
	if err != nil {
		log.Error().Err(err).Msg("failed to update invoice")
		writeError(w, apperrors.Database(err))
		return
	}
	if invoice == nil {
		writeError(w, apperrors.NotFound("Invoice"))
		return
	}

	writeJSON(w, http.StatusOK, formatInvoice(invoice, nil))
}

// DELETE /api/invoices/{id}
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil || !requirePassword(w, claims) {
		return
	}

	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	if err := h.invoiceService.Delete(r.Context(), id); err != nil {
		log.Error().Err(err).Msg("failed to delete invoice")
		writeError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
