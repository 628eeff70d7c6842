package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/daraw/billing-server-go/internal/model"
)

type ProposalRepository interface {
	FindByID(ctx context.Context, id string) (*model.Proposal, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Proposal, error)
	Create(ctx context.Context, params model.CreateProposalParams) (*model.Proposal, error)
	Update(ctx context.Context, id string, params model.UpdateProposalParams) (*model.Proposal, error)
	UpdateStatus(ctx context.Context, id string, status model.ProposalStatus) (*model.Proposal, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) ProposalRepository
}

type proposalRepo struct {
	db sqlxDB
}

func NewProposalRepository(db *sqlx.DB) ProposalRepository {
	return &proposalRepo{db: db}
}

func (r *proposalRepo) WithTx(tx *sqlx.Tx) ProposalRepository {
	return &proposalRepo{db: tx}
}

func (r *proposalRepo) FindByID(ctx context.Context, id string) (*model.Proposal, error) {
	var proposal model.Proposal
	err := r.db.GetContext(ctx, &proposal, `
		SELECT * FROM proposals WHERE id = $1
	`, id)
	return HandleNotFound(&proposal, err)
}

func (r *proposalRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Proposal, error) {
	var proposals []model.Proposal
	err := r.db.SelectContext(ctx, &proposals, `
		SELECT * FROM proposals
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return proposals, nil
}

func (r *proposalRepo) Create(ctx context.Context, params model.CreateProposalParams) (*model.Proposal, error) {
	var proposal model.Proposal
	err := r.db.GetContext(ctx, &proposal, `
		INSERT INTO proposals (title, client_name, client_email, amount_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.Title, params.ClientName, params.ClientEmail, params.AmountCents)
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (r *proposalRepo) Update(ctx context.Context, id string, params model.UpdateProposalParams) (*model.Proposal, error) {
	var proposal model.Proposal
	err := r.db.GetContext(ctx, &proposal, `
		UPDATE proposals SET
			title = COALESCE($2, title),
			client_name = COALESCE($3, client_name),
			client_email = COALESCE($4, client_email),
			status = COALESCE($5, status),
			amount_cents = COALESCE($6, amount_cents),
			updated_at = $7
		WHERE id = $1
		RETURNING *
	`, id, params.Title, params.ClientName, params.ClientEmail, params.Status, params.AmountCents, time.Now())
	return HandleNotFound(&proposal, err)
}

func (r *proposalRepo) UpdateStatus(ctx context.Context, id string, status model.ProposalStatus) (*model.Proposal, error) {
	var proposal model.Proposal
	err := r.db.GetContext(ctx, &proposal, `
		UPDATE proposals SET
			status = $2,
			updated_at = $3
		WHERE id = $1
		RETURNING *
	`, id, status, time.Now())
	return HandleNotFound(&proposal, err)
}

func (r *proposalRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM proposals WHERE id = $1`, id)
	return err
}

func (r *proposalRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM proposals`)
	return count, err
}
