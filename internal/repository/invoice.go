package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/daraw/billing-server-go/internal/model"
)

type InvoiceRepository interface {
	FindByID(ctx context.Context, id string) (*model.Invoice, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Invoice, error)
	Create(ctx context.Context, params model.CreateInvoiceParams) (*model.Invoice, error)
	Update(ctx context.Context, id string, params model.UpdateInvoiceParams) (*model.Invoice, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)

	CreateItem(ctx context.Context, invoiceID string, position int, params model.CreateInvoiceItemParams) (*model.InvoiceItem, error)
	FindItems(ctx context.Context, invoiceID string) ([]model.InvoiceItem, error)

	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) InvoiceRepository
}

type invoiceRepo struct {
	db sqlxDB
}

func NewInvoiceRepository(db *sqlx.DB) InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) WithTx(tx *sqlx.Tx) InvoiceRepository {
	return &invoiceRepo{db: tx}
}

func (r *invoiceRepo) FindByID(ctx context.Context, id string) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.GetContext(ctx, &invoice, `
		SELECT * FROM invoices WHERE id = $1
	`, id)
	return HandleNotFound(&invoice, err)
}

func (r *invoiceRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.SelectContext(ctx, &invoices, `
		SELECT * FROM invoices
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepo) Create(ctx context.Context, params model.CreateInvoiceParams) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.GetContext(ctx, &invoice, `
		INSERT INTO invoices (number, client_name, client_email, issued_at, due_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.Number, params.ClientName, params.ClientEmail, params.IssuedAt, params.DueAt)
	if err != nil {
		return nil, handleUnique(err)
	}
	return &invoice, nil
}

func (r *invoiceRepo) Update(ctx context.Context, id string, params model.UpdateInvoiceParams) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.GetContext(ctx, &invoice, `
		UPDATE invoices SET
			client_name = COALESCE($2, client_name),
			client_email = COALESCE($3, client_email),
			status = COALESCE($4, status),
			issued_at = COALESCE($5, issued_at),
			due_at = COALESCE($6, due_at),
			updated_at = $7
		WHERE id = $1
		RETURNING *
	`, id, params.ClientName, params.ClientEmail, params.Status, params.IssuedAt, params.DueAt, time.Now())
	return HandleNotFound(&invoice, err)
}

func (r *invoiceRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	return err
}

func (r *invoiceRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM invoices`)
	return count, err
}

func (r *invoiceRepo) CreateItem(ctx context.Context, invoiceID string, position int, params model.CreateInvoiceItemParams) (*model.InvoiceItem, error) {
	var item model.InvoiceItem
	err := r.db.GetContext(ctx, &item, `
		INSERT INTO invoice_items (invoice_id, description, quantity, unit_price_cents, position)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, invoiceID, params.Description, params.Quantity, params.UnitPriceCents, position)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *invoiceRepo) FindItems(ctx context.Context, invoiceID string) ([]model.InvoiceItem, error) {
	var items []model.InvoiceItem
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY position ASC
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	return items, nil
}
