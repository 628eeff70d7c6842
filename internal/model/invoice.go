package model

import (
	"time"
)

type Invoice struct {
	ID          string        `db:"id" json:"id"`
	Number      string        `db:"number" json:"number"`
	ClientName  string        `db:"client_name" json:"clientName"`
	ClientEmail string        `db:"client_email" json:"clientEmail"`
	Status      InvoiceStatus `db:"status" json:"status"`
	IssuedAt    *time.Time    `db:"issued_at" json:"issuedAt,omitempty"`
	DueAt       *time.Time    `db:"due_at" json:"dueAt,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updatedAt"`
}

type InvoiceItem struct {
	ID             string `db:"id" json:"id"`
	InvoiceID      string `db:"invoice_id" json:"invoiceId"`
	Description    string `db:"description" json:"description"`
	Quantity       int    `db:"quantity" json:"quantity"`
	UnitPriceCents int64  `db:"unit_price_cents" json:"unitPriceCents"`
	Position       int    `db:"position" json:"position"`
}

type CreateInvoiceParams struct {
	Number      string
	ClientName  string
	ClientEmail string
	IssuedAt    *time.Time
	DueAt       *time.Time
}

type CreateInvoiceItemParams struct {
	Description    string
	Quantity       int
	UnitPriceCents int64
}

type UpdateInvoiceParams struct {
	ClientName  *string
	ClientEmail *string
	Status      *InvoiceStatus
	IssuedAt    *time.Time
	DueAt       *time.Time
}

// TotalCents sums the invoice line items.
func TotalCents(items []InvoiceItem) int64 {
	var total int64
	for _, item := range items {
		total += int64(item.Quantity) * item.UnitPriceCents
	}
	return total
}
