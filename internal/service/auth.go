package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/daraw/billing-server-go/internal/config"
	apperrors "github.com/daraw/billing-server-go/internal/errors"
	"github.com/daraw/billing-server-go/internal/model"
	"github.com/daraw/billing-server-go/internal/repository"
	"github.com/daraw/billing-server-go/internal/token"
	"github.com/daraw/billing-server-go/internal/util"
)

// AuthService handles password logins for administrative operators.
type AuthService struct {
	userRepo repository.UserRepository
	issuer   *token.Issuer
}

func NewAuthService(userRepo repository.UserRepository, issuer *token.Issuer) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		issuer:   issuer,
	}
}

// Login verifies email + password and mints a one-hour session token.
// Unknown email and wrong password return the identical error so the
// response never reveals which check failed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", apperrors.Database(err)
	}
	if user == nil {
		// Burn a comparison so the miss costs the same as a mismatch.
		util.CheckPasswordHash(password, dummyHash)
		return nil, "", apperrors.InvalidCredentials()
	}

	if !util.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", apperrors.InvalidCredentials()
	}

	tok, err := s.issuer.Issue(token.PasswordClaims(user.ID, user.Email), config.PasswordTokenTTL)
	if err != nil {
		log.Error().Err(err).Msg("failed to sign session token")
		return nil, "", apperrors.Internal("Failed to create session")
	}

	log.Info().Str("userId", user.ID).Msg("operator logged in")

	return user, tok, nil
}

// GetUser returns the operator behind a password session, or nil when
// the row no longer exists.
func (s *AuthService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return user, nil
}

// EnsureOperator creates the bootstrap operator account on startup
// when no row with that email exists. The hash is produced out of
// band with scripts/hash-password.go.
func (s *AuthService) EnsureOperator(ctx context.Context, email, passwordHash string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user != nil {
		return nil
	}

	created, err := s.userRepo.Create(ctx, email, passwordHash)
	if err != nil {
		return err
	}

	log.Info().Str("userId", created.ID).Str("email", email).Msg("bootstrap operator created")
	return nil
}

// dummyHash is a bcrypt hash of an unguessable throwaway value, used
// to equalize timing between unknown-email and wrong-password paths.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"
