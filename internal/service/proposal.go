package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/daraw/billing-server-go/internal/database"
	"github.com/daraw/billing-server-go/internal/model"
	"github.com/daraw/billing-server-go/internal/repository"
)

// ProposalService manages proposals and the access codes issued with
// them.
type ProposalService struct {
	db           *database.DB
	proposalRepo repository.ProposalRepository
	otpService   *OTPService
}

func NewProposalService(
	db *database.DB,
	proposalRepo repository.ProposalRepository,
	otpService *OTPService,
) *ProposalService {
	return &ProposalService{
		db:           db,
		proposalRepo: proposalRepo,
		otpService:   otpService,
	}
}

// CreatedProposal pairs a new proposal with the client access code
// issued for it.
type CreatedProposal struct {
	Proposal   *model.Proposal
	AccessCode *model.OneTimeCode
}

// Create inserts the proposal and issues its one-time access code in
// one transaction, so a code row never points at a proposal that
// failed to persist.
func (s *ProposalService) Create(ctx context.Context, params model.CreateProposalParams) (*CreatedProposal, error) {
	var result CreatedProposal

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		proposal, err := s.proposalRepo.WithTx(tx).Create(ctx, params)
		if err != nil {
			return err
		}

		code, err := s.otpService.WithTx(tx).IssueForProposal(ctx, proposal.ID)
		if err != nil {
			return err
		}

		result.Proposal = proposal
		result.AccessCode = code
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("proposalId", result.Proposal.ID).Msg("proposal created")
	return &result, nil
}

func (s *ProposalService) Get(ctx context.Context, id string) (*model.Proposal, error) {
	return s.proposalRepo.FindByID(ctx, id)
}

func (s *ProposalService) List(ctx context.Context, limit, offset int) ([]model.Proposal, int, error) {
	proposals, err := s.proposalRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.proposalRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (s *ProposalService) Update(ctx context.Context, id string, params model.UpdateProposalParams) (*model.Proposal, error) {
	return s.proposalRepo.Update(ctx, id, params)
}

// SetStatus is the one mutation a code-authenticated client may make
// on their own proposal (accept or decline).
func (s *ProposalService) SetStatus(ctx context.Context, id string, status model.ProposalStatus) (*model.Proposal, error) {
	proposal, err := s.proposalRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if proposal != nil {
		log.Info().Str("proposalId", id).Str("status", string(status)).Msg("proposal status changed")
	}
	return proposal, nil
}

func (s *ProposalService) Delete(ctx context.Context, id string) error {
	return s.proposalRepo.Delete(ctx, id)
}
