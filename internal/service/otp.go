package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/daraw/billing-server-go/internal/audit"
	"github.com/daraw/billing-server-go/internal/config"
	apperrors "github.com/daraw/billing-server-go/internal/errors"
	"github.com/daraw/billing-server-go/internal/model"
	"github.com/daraw/billing-server-go/internal/repository"
	"github.com/daraw/billing-server-go/internal/token"
	"github.com/daraw/billing-server-go/internal/util"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8

	// How many collisions with stored codes we tolerate before
	// giving up. The otps.code unique constraint is the arbiter.
	codeCreateAttempts = 5
)

// RedemptionResult carries the outcome of a successful code
// redemption forward to token issuance.
type RedemptionResult struct {
	Kind     token.Kind
	TargetID string
	Token    string
}

// OTPService issues and redeems one-time access codes.
type OTPService struct {
	codeRepo   repository.OneTimeCodeRepository
	issuer     *token.Issuer
	customCode string
	codeTTL    time.Duration
}

func NewOTPService(
	codeRepo repository.OneTimeCodeRepository,
	issuer *token.Issuer,
	customCode string,
	codeTTL time.Duration,
) *OTPService {
	return &OTPService{
		codeRepo:   codeRepo,
		issuer:     issuer,
		customCode: customCode,
		codeTTL:    codeTTL,
	}
}

// WithTx returns a copy of the service whose code repository runs
// inside the given transaction, so code issuance can join the
// proposal/invoice creation transaction.
func (s *OTPService) WithTx(tx *sqlx.Tx) *OTPService {
	clone := *s
	clone.codeRepo = s.codeRepo.WithTx(tx)
	return &clone
}

// IssueForProposal creates a single-use access code bound to a proposal.
func (s *OTPService) IssueForProposal(ctx context.Context, proposalID string) (*model.OneTimeCode, error) {
	return s.issue(ctx, &proposalID, nil)
}

// IssueForInvoice creates a single-use access code bound to an invoice.
func (s *OTPService) IssueForInvoice(ctx context.Context, invoiceID string) (*model.OneTimeCode, error) {
	return s.issue(ctx, nil, &invoiceID)
}

func (s *OTPService) issue(ctx context.Context, proposalID, invoiceID *string) (*model.OneTimeCode, error) {
	expiresAt := time.Now().Add(s.codeTTL)

	var targetID string
	switch {
	case proposalID != nil:
		targetID = *proposalID
	case invoiceID != nil:
		targetID = *invoiceID
	}

	for attempt := 0; attempt < codeCreateAttempts; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, err
		}

		otp, err := s.codeRepo.Create(ctx, model.CreateOneTimeCodeParams{
			Code:       code,
			ProposalID: proposalID,
			InvoiceID:  invoiceID,
			ExpiresAt:  expiresAt,
		})
		if err == repository.ErrDuplicate {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create one-time code: %w", err)
		}

		audit.Log(ctx, audit.Event{
			Type:     audit.EventCodeIssued,
			TargetID: targetID,
			Details: map[string]interface{}{
				"code":      util.MaskCode(otp.Code),
				"expiresAt": otp.ExpiresAt.Format(time.RFC3339),
			},
		})
		return otp, nil
	}

	return nil, fmt.Errorf("create one-time code: %d consecutive collisions", codeCreateAttempts)
}

// Redeem verifies a submitted code and mints a 24-hour session token
// for the bound resource. The stored row is deleted in the same
// statement that reads it, so a code can be redeemed at most once
// even under concurrent attempts. Expired rows are also removed on
// access and surface as a distinct "expired" outcome.
func (s *OTPService) Redeem(ctx context.Context, submitted string) (*RedemptionResult, error) {
	submitted = strings.TrimSpace(submitted)

	// Partner bypass: never touches the store and consumes nothing.
	// An unconfigured bypass code matches nothing.
	if s.customCode != "" && util.ConstantTimeEqual(submitted, s.customCode) {
		tok, err := s.issuer.Issue(token.CustomClaims(), config.CodeTokenTTL)
		if err != nil {
			log.Error().Err(err).Msg("failed to sign session token")
			return nil, apperrors.Internal("Failed to create session")
		}
		log.Info().Msg("partner bypass code redeemed")
		return &RedemptionResult{Kind: token.KindCustom, Token: tok}, nil
	}

	normalized := strings.ToUpper(submitted)

	// Anything that cannot be a generated code is rejected without a
	// store round trip.
	if !util.IsValidCodeShape(normalized) {
		log.Warn().Str("code", util.MaskCode(submitted)).Msg("redemption of malformed code")
		return nil, apperrors.InvalidCode()
	}

	otp, err := s.codeRepo.Consume(ctx, normalized)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if otp == nil {
		log.Warn().Str("code", util.MaskCode(submitted)).Msg("redemption of unknown code")
		return nil, apperrors.InvalidCode()
	}

	if otp.IsExpired() {
		// The consume already removed the row, so a retry with the
		// same code reports "invalid", not "expired".
		log.Warn().Str("code", util.MaskCode(otp.Code)).Msg("redemption of expired code")
		return nil, apperrors.CodeExpired()
	}

	var kind token.Kind
	var targetID string
	switch {
	case otp.ProposalID != nil:
		kind, targetID = token.KindProposal, *otp.ProposalID
	case otp.InvoiceID != nil:
		kind, targetID = token.KindInvoice, *otp.InvoiceID
	default:
		// A row bound to nothing grants access to nothing. Reject it
		// rather than defaulting a type with an absent id.
		log.Error().Str("otpId", otp.ID).Msg("one-time code row has no target")
		return nil, apperrors.DataIntegrity("One-time code is not bound to a resource")
	}

	tok, err := s.issuer.Issue(token.CodeClaims(kind, targetID), config.CodeTokenTTL)
	if err != nil {
		log.Error().Err(err).Msg("failed to sign session token")
		return nil, apperrors.Internal("Failed to create session")
	}

	log.Info().
		Str("code", util.MaskCode(otp.Code)).
		Str("kind", string(kind)).
		Str("targetId", targetID).
		Msg("one-time code redeemed")

	return &RedemptionResult{Kind: kind, TargetID: targetID, Token: tok}, nil
}

// GenerateCode produces an 8-character code drawn uniformly from
// A-Z0-9. Uniqueness is enforced by the store, not here.
func GenerateCode() (string, error) {
	chars := []byte(codeAlphabet)
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", fmt.Errorf("read randomness: %w", err)
		}
		code[i] = chars[n.Int64()]
	}
	return string(code), nil
}
