package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/daraw/billing-server-go/internal/model"
	"github.com/daraw/billing-server-go/internal/repository"
	"github.com/daraw/billing-server-go/internal/service"
	"github.com/daraw/billing-server-go/internal/token"
)

type mockProposalRepo struct {
	mock.Mock
}

func (m *mockProposalRepo) FindByID(ctx context.Context, id string) (*model.Proposal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Proposal), args.Error(1)
}

func (m *mockProposalRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Proposal, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]model.Proposal), args.Error(1)
}

func (m *mockProposalRepo) Create(ctx context.Context, params model.CreateProposalParams) (*model.Proposal, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Proposal), args.Error(1)
}

func (m *mockProposalRepo) Update(ctx context.Context, id string, params model.UpdateProposalParams) (*model.Proposal, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Proposal), args.Error(1)
}

func (m *mockProposalRepo) UpdateStatus(ctx context.Context, id string, status model.ProposalStatus) (*model.Proposal, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Proposal), args.Error(1)
}

func (m *mockProposalRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProposalRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockProposalRepo) WithTx(tx *sqlx.Tx) repository.ProposalRepository {
	return m
}

const proposalID = "6f1a2b3c-1111-4111-8111-000000000001"

func newProposalHandler(repo repository.ProposalRepository) *ProposalHandler {
	svc := service.NewProposalService(nil, repo, nil)
	return NewProposalHandler(svc, passthrough)
}

func getWithClaims(t *testing.T, h *ProposalHandler, path string, claims *token.Claims) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Mount("/", h.Routes())

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = withClaims(req, claims)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestProposalHandler_Get(t *testing.T) {
	proposal := &model.Proposal{ID: proposalID, Title: "Site redesign", Status: model.ProposalStatusSent}

	t.Run("operator can read any proposal", func(t *testing.T) {
		repo := new(mockProposalRepo)
		repo.On("FindByID", mock.Anything, proposalID).Return(proposal, nil)
		h := newProposalHandler(repo)

		rec := getWithClaims(t, h, "/"+proposalID, &token.Claims{Kind: token.KindPassword, TargetID: "u-1"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Site redesign")
	})

	t.Run("code session can read its own proposal", func(t *testing.T) {
		repo := new(mockProposalRepo)
		repo.On("FindByID", mock.Anything, proposalID).Return(proposal, nil)
		h := newProposalHandler(repo)

		rec := getWithClaims(t, h, "/"+proposalID, &token.Claims{Kind: token.KindProposal, TargetID: proposalID})

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("code session cannot read a different proposal", func(t *testing.T) {
		repo := new(mockProposalRepo)
		h := newProposalHandler(repo)

		other := "6f1a2b3c-1111-4111-8111-000000000099"
		rec := getWithClaims(t, h, "/"+proposalID, &token.Claims{Kind: token.KindProposal, TargetID: other})

		assert.Equal(t, http.StatusForbidden, rec.Code)
		repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("invoice session cannot read proposals", func(t *testing.T) {
		h := newProposalHandler(new(mockProposalRepo))

		rec := getWithClaims(t, h, "/"+proposalID, &token.Claims{Kind: token.KindInvoice, TargetID: proposalID})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("returns 400 for a malformed id", func(t *testing.T) {
		h := newProposalHandler(new(mockProposalRepo))

		rec := getWithClaims(t, h, "/not-a-uuid", &token.Claims{Kind: token.KindPassword})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns 404 when proposal does not exist", func(t *testing.T) {
		repo := new(mockProposalRepo)
		repo.On("FindByID", mock.Anything, proposalID).Return(nil, nil)
		h := newProposalHandler(repo)

		rec := getWithClaims(t, h, "/"+proposalID, &token.Claims{Kind: token.KindPassword})

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "NOT_FOUND")
	})
}

func TestProposalHandler_List(t *testing.T) {
	t.Run("operator gets items and total", func(t *testing.T) {
		repo := new(mockProposalRepo)
		repo.On("FindAll", mock.Anything, DefaultLimit, 0).Return([]model.Proposal{{ID: proposalID}}, nil)
		repo.On("Count", mock.Anything).Return(1, nil)
		h := newProposalHandler(repo)

		rec := getWithClaims(t, h, "/", &token.Claims{Kind: token.KindPassword})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"total":1`)
	})

	t.Run("partner session may list", func(t *testing.T) {
		repo := new(mockProposalRepo)
		repo.On("FindAll", mock.Anything, DefaultLimit, 0).Return([]model.Proposal{}, nil)
		repo.On("Count", mock.Anything).Return(0, nil)
		h := newProposalHandler(repo)

		rec := getWithClaims(t, h, "/", &token.Claims{Kind: token.KindCustom})

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("code session may not list", func(t *testing.T) {
		h := newProposalHandler(new(mockProposalRepo))

		rec := getWithClaims(t, h, "/", &token.Claims{Kind: token.KindProposal, TargetID: proposalID})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestProposalHandler_SetStatus(t *testing.T) {
	setStatus := func(h *ProposalHandler, claims *token.Claims, body string) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		r.Mount("/", h.Routes())

		req := httptest.NewRequest(http.MethodPost, "/"+proposalID+"/status", bytes.NewBufferString(body))
		req = withClaims(req, claims)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	t.Run("client may accept their own proposal", func(t *testing.T) {
		repo := new(mockProposalRepo)
		repo.On("UpdateStatus", mock.Anything, proposalID, model.ProposalStatusAccepted).
			Return(&model.Proposal{ID: proposalID, Status: model.ProposalStatusAccepted}, nil)
		h := newProposalHandler(repo)

		rec := setStatus(h, &token.Claims{Kind: token.KindProposal, TargetID: proposalID}, `{"status": "accepted"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		repo.AssertExpectations(t)
	})

	t.Run("client may not move their proposal back to draft", func(t *testing.T) {
		repo := new(mockProposalRepo)
		h := newProposalHandler(repo)

		rec := setStatus(h, &token.Claims{Kind: token.KindProposal, TargetID: proposalID}, `{"status": "draft"}`)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("partner session may not change status", func(t *testing.T) {
		h := newProposalHandler(new(mockProposalRepo))

		rec := setStatus(h, &token.Claims{Kind: token.KindCustom}, `{"status": "accepted"}`)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("operator may set any status", func(t *testing.T) {
		repo := new(mockProposalRepo)
		repo.On("UpdateStatus", mock.Anything, proposalID, model.ProposalStatusDraft).
			Return(&model.Proposal{ID: proposalID, Status: model.ProposalStatusDraft}, nil)
		h := newProposalHandler(repo)

		rec := setStatus(h, &token.Claims{Kind: token.KindPassword, TargetID: "u-1"}, `{"status": "draft"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		h := newProposalHandler(new(mockProposalRepo))

		rec := setStatus(h, &token.Claims{Kind: token.KindPassword}, `{"status": "archived"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProposalHandler_WriteOperationsRequirePassword(t *testing.T) {
	h := newProposalHandler(new(mockProposalRepo))
	r := chi.NewRouter()
	r.Mount("/", h.Routes())

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/"},
		{http.MethodPatch, "/" + proposalID},
		{http.MethodDelete, "/" + proposalID},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(`{}`))
		req = withClaims(req, &token.Claims{Kind: token.KindCustom})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", tc.method, tc.path)
	}
}
