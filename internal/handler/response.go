package handler

import (
	"net/http"
	"time"

	"github.com/daraw/billing-server-go/internal/httputil"
	"github.com/daraw/billing-server-go/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func formatUser(user *model.User) map[string]any {
	return map[string]any{
		"id":    user.ID,
		"email": user.Email,
	}
}

func formatInvoice(invoice *model.Invoice, items []model.InvoiceItem) map[string]any {
	out := map[string]any{
		"id":          invoice.ID,
		"number":      invoice.Number,
		"clientName":  invoice.ClientName,
		"clientEmail": invoice.ClientEmail,
		"status":      invoice.Status,
		"issuedAt":    formatTime(invoice.IssuedAt),
		"dueAt":       formatTime(invoice.DueAt),
		"createdAt":   invoice.CreatedAt.Format(time.RFC3339),
		"updatedAt":   invoice.UpdatedAt.Format(time.RFC3339),
	}
	if items != nil {
		out["items"] = items
		out["totalCents"] = model.TotalCents(items)
	}
	return out
}
