package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/daraw/billing-server-go/internal/model"
)

// OneTimeCodeRepository handles one-time access code rows.
type OneTimeCodeRepository interface {
	Create(ctx context.Context, params model.CreateOneTimeCodeParams) (*model.OneTimeCode, error)
	// Consume atomically deletes the row for a code and returns it.
	// A nil result means no such code existed. The delete-and-return
	// is one statement, so two racing redemptions of the same code
	// cannot both see the row.
	Consume(ctx context.Context, code string) (*model.OneTimeCode, error)
	DeleteExpired(ctx context.Context) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) OneTimeCodeRepository
}

type oneTimeCodeRepo struct {
	db sqlxDB
}

func NewOneTimeCodeRepository(db *sqlx.DB) OneTimeCodeRepository {
	return &oneTimeCodeRepo{db: db}
}

func (r *oneTimeCodeRepo) WithTx(tx *sqlx.Tx) OneTimeCodeRepository {
	return &oneTimeCodeRepo{db: tx}
}

// Create inserts a new code row. The otps.code unique constraint is
// the collision guard; a conflict surfaces as ErrDuplicate so the
// caller can retry with a fresh code.
func (r *oneTimeCodeRepo) Create(ctx context.Context, params model.CreateOneTimeCodeParams) (*model.OneTimeCode, error) {
	var otp model.OneTimeCode
	err := r.db.GetContext(ctx, &otp, `
		INSERT INTO otps (code, proposal_id, invoice_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.Code, params.ProposalID, params.InvoiceID, params.ExpiresAt)
	if err != nil {
		return nil, handleUnique(err)
	}
	return &otp, nil
}

func (r *oneTimeCodeRepo) Consume(ctx context.Context, code string) (*model.OneTimeCode, error) {
	var otp model.OneTimeCode
	err := r.db.GetContext(ctx, &otp, `
		DELETE FROM otps
		WHERE code = $1
		RETURNING *
	`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

// DeleteExpired sweeps rows past their expiry. Redemption also cleans
// up expired rows lazily; this keeps abandoned codes from piling up.
func (r *oneTimeCodeRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM otps
		WHERE expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
