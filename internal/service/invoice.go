package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/daraw/billing-server-go/internal/database"
	"github.com/daraw/billing-server-go/internal/model"
	"github.com/daraw/billing-server-go/internal/repository"
)

// InvoiceService manages invoices, their line items and the access
// codes issued with them.
type InvoiceService struct {
	db          *database.DB
	invoiceRepo repository.InvoiceRepository
	otpService  *OTPService
}

func NewInvoiceService(
	db *database.DB,
	invoiceRepo repository.InvoiceRepository,
	otpService *OTPService,
) *InvoiceService {
	return &InvoiceService{
		db:          db,
		invoiceRepo: invoiceRepo,
		otpService:  otpService,
	}
}

// InvoiceWithItems is an invoice plus its ordered line items.
type InvoiceWithItems struct {
	Invoice *model.Invoice
	Items   []model.InvoiceItem
}

// CreatedInvoice pairs a new invoice with the client access code
// issued for it.
type CreatedInvoice struct {
	InvoiceWithItems
	AccessCode *model.OneTimeCode
}

// Create inserts the invoice, its items and its one-time access code
// in one transaction.
func (s *InvoiceService) Create(ctx context.Context, params model.CreateInvoiceParams, items []model.CreateInvoiceItemParams) (*CreatedInvoice, error) {
	var result CreatedInvoice

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		txRepo := s.invoiceRepo.WithTx(tx)

		invoice, err := txRepo.Create(ctx, params)
		if err != nil {
			return err
		}

		created := make([]model.InvoiceItem, 0, len(items))
		for i, item := range items {
			row, err := txRepo.CreateItem(ctx, invoice.ID, i+1, item)
			if err != nil {
				return err
			}
			created = append(created, *row)
		}

		code, err := s.otpService.WithTx(tx).IssueForInvoice(ctx, invoice.ID)
		if err != nil {
			return err
		}

		result.Invoice = invoice
		result.Items = created
		result.AccessCode = code
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("invoiceId", result.Invoice.ID).Int("items", len(result.Items)).Msg("invoice created")
	return &result, nil
}

func (s *InvoiceService) Get(ctx context.Context, id string) (*InvoiceWithItems, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil || invoice == nil {
		return nil, err
	}

	items, err := s.invoiceRepo.FindItems(ctx, id)
	if err != nil {
		return nil, err
	}

	return &InvoiceWithItems{Invoice: invoice, Items: items}, nil
}

func (s *InvoiceService) List(ctx context.Context, limit, offset int) ([]model.Invoice, int, error) {
	invoices, err := s.invoiceRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoiceRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (s *InvoiceService) Update(ctx context.Context, id string, params model.UpdateInvoiceParams) (*model.Invoice, error) {
	return s.invoiceRepo.Update(ctx, id, params)
}

func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	return s.invoiceRepo.Delete(ctx, id)
}
