package model

import (
	"time"
)

// OneTimeCode grants single-use, time-boxed access to exactly one
// proposal or invoice. Exactly one of ProposalID/InvoiceID is set for
// a well-formed row; the redemption flow rejects rows violating that.
type OneTimeCode struct {
	ID         string    `db:"id" json:"id"`
	Code       string    `db:"code" json:"code"`
	ProposalID *string   `db:"proposal_id" json:"proposalId,omitempty"`
	InvoiceID  *string   `db:"invoice_id" json:"invoiceId,omitempty"`
	ExpiresAt  time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

type CreateOneTimeCodeParams struct {
	Code       string
	ProposalID *string
	InvoiceID  *string
	ExpiresAt  time.Time
}

// IsExpired checks if the code has expired.
func (c *OneTimeCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
