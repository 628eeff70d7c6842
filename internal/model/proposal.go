package model

import (
	"time"
)

type Proposal struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	ClientName  string         `db:"client_name" json:"clientName"`
	ClientEmail string         `db:"client_email" json:"clientEmail"`
	Status      ProposalStatus `db:"status" json:"status"`
	AmountCents int64          `db:"amount_cents" json:"amountCents"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

type CreateProposalParams struct {
	Title       string
	ClientName  string
	ClientEmail string
	AmountCents int64
}

type UpdateProposalParams struct {
	Title       *string
	ClientName  *string
	ClientEmail *string
	Status      *ProposalStatus
	AmountCents *int64
}
