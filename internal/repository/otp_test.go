package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daraw/billing-server-go/internal/database"
	"github.com/daraw/billing-server-go/internal/model"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.Connect(url)
	require.NoError(t, err)
	return db
}

func createTestProposal(t *testing.T, db *database.DB) *model.Proposal {
	t.Helper()
	repo := NewProposalRepository(db.DB)
	proposal, err := repo.Create(context.Background(), model.CreateProposalParams{
		Title:       "Test proposal",
		ClientName:  "Acme",
		ClientEmail: "billing@acme.example",
		AmountCents: 125000,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = repo.Delete(context.Background(), proposal.ID)
	})
	return proposal
}

func TestOneTimeCodeRepository_Consume(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewOneTimeCodeRepository(db.DB)
	ctx := context.Background()
	proposal := createTestProposal(t, db)

	_, err := repo.Create(ctx, model.CreateOneTimeCodeParams{
		Code:       "AB12CD34",
		ProposalID: &proposal.ID,
		ExpiresAt:  time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	t.Run("first consume returns the row", func(t *testing.T) {
		otp, err := repo.Consume(ctx, "AB12CD34")
		require.NoError(t, err)
		require.NotNil(t, otp)
		require.NotNil(t, otp.ProposalID)
		assert.Equal(t, proposal.ID, *otp.ProposalID)
	})

	t.Run("second consume returns nothing", func(t *testing.T) {
		otp, err := repo.Consume(ctx, "AB12CD34")
		require.NoError(t, err)
		assert.Nil(t, otp)
	})

	t.Run("unknown code returns nothing", func(t *testing.T) {
		otp, err := repo.Consume(ctx, "ZZ99ZZ99")
		require.NoError(t, err)
		assert.Nil(t, otp)
	})
}

func TestOneTimeCodeRepository_DuplicateCode(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewOneTimeCodeRepository(db.DB)
	ctx := context.Background()
	proposal := createTestProposal(t, db)

	params := model.CreateOneTimeCodeParams{
		Code:       "DUPE0001",
		ProposalID: &proposal.ID,
		ExpiresAt:  time.Now().Add(time.Hour),
	}

	_, err := repo.Create(ctx, params)
	require.NoError(t, err)
	defer repo.Consume(ctx, "DUPE0001")

	_, err = repo.Create(ctx, params)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestOneTimeCodeRepository_DeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewOneTimeCodeRepository(db.DB)
	ctx := context.Background()
	proposal := createTestProposal(t, db)

	_, err := repo.Create(ctx, model.CreateOneTimeCodeParams{
		Code:       "OLDCODE1",
		ProposalID: &proposal.ID,
		ExpiresAt:  time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	count, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, int64(1))

	otp, err := repo.Consume(ctx, "OLDCODE1")
	require.NoError(t, err)
	assert.Nil(t, otp)
}
