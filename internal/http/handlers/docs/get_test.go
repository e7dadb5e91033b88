package docs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"kbdedup/internal/dto"
	"kbdedup/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) ListDocuments(ctx context.Context, user *models.User, kbID string, page models.DocumentPage) ([]*models.Document, error) {
	args := m.Called(ctx, user, kbID, page)
	return args.Get(0).([]*models.Document), args.Error(1)
}

func (m *mockProvider) Document(ctx context.Context, user *models.User, id string) (*models.Document, error) {
	args := m.Called(ctx, user, id)
	doc, _ := args.Get(0).(*models.Document)
	return doc, args.Error(1)
}

func (m *mockProvider) QuotaStatus(ctx context.Context, user *models.User) (*models.QuotaUsage, error) {
	args := m.Called(ctx, user)
	q, _ := args.Get(0).(*models.QuotaUsage)
	return q, args.Error(1)
}

func TestGet_Success(t *testing.T) {
	t.Parallel()

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/kbs/kb1/documents?limit=2&offset=4", nil), requester)
	w := httptest.NewRecorder()

	provider := new(mockProvider)
	provider.On("ListDocuments", mock.Anything, requester, "kb1", models.DocumentPage{Limit: 2, Offset: 4}).
		Return([]*models.Document{{ID: "d1", Name: "a.txt"}, {ID: "d2", Name: "b.txt"}}, nil)

	Get(req.Context(), discardLogger(), w, req, "kb1", provider)

	assert.Equal(t, http.StatusOK, w.Code)

	var parsed struct {
		Data dto.DocumentListResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&parsed))
	assert.Equal(t, 2, parsed.Data.Count)
	assert.Equal(t, "d2", parsed.Data.Data[1].ID)
	provider.AssertExpectations(t)
}

func TestGet_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid", models.ErrInvalidParams, http.StatusBadRequest},
		{"internal", models.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := withUser(httptest.NewRequest(http.MethodGet, "/api/kbs/kb1/documents", nil), requester)
			w := httptest.NewRecorder()

			provider := new(mockProvider)
			provider.On("ListDocuments", mock.Anything, requester, "kb1", models.DocumentPage{}).
				Return([]*models.Document(nil), tt.err)

			Get(req.Context(), discardLogger(), w, req, "kb1", provider)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHead(t *testing.T) {
	t.Parallel()

	req := withUser(httptest.NewRequest(http.MethodHead, "/api/kbs/kb1/documents", nil), requester)
	w := httptest.NewRecorder()

	provider := new(mockProvider)
	provider.On("ListDocuments", mock.Anything, requester, "kb1", models.DocumentPage{}).
		Return([]*models.Document{{ID: "d1"}}, nil)

	Head(req.Context(), discardLogger(), w, req, "kb1", provider)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get(documentsCountHeader))
	assert.Empty(t, w.Body.String())
}

func TestQuota(t *testing.T) {
	t.Parallel()

	provider := new(mockProvider)
	provider.On("QuotaStatus", mock.Anything, requester).Return(&models.QuotaUsage{Used: 2, Limit: 3}, nil)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/quota", nil), requester)
	w := httptest.NewRecorder()

	Quota(req.Context(), discardLogger(), w, provider)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"used":2,"limit":3,"exempt":false}}`, w.Body.String())
}

func TestQuota_Error(t *testing.T) {
	t.Parallel()

	provider := new(mockProvider)
	provider.On("QuotaStatus", mock.Anything, requester).Return(nil, errors.New("db down"))

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/quota", nil), requester)
	w := httptest.NewRecorder()

	Quota(req.Context(), discardLogger(), w, provider)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetByID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		doc        *models.Document
		err        error
		wantStatus int
	}{
		{name: "found", doc: &models.Document{ID: "d1", Name: "a.txt"}, wantStatus: http.StatusOK},
		{name: "hidden or missing", err: models.ErrDocumentNotFound, wantStatus: http.StatusNotFound},
		{name: "store failure", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := withUser(httptest.NewRequest(http.MethodGet, "/api/documents/d1", nil), requester)
			w := httptest.NewRecorder()

			provider := new(mockProvider)
			provider.On("Document", mock.Anything, requester, "d1").Return(tt.doc, tt.err)

			GetByID(req.Context(), discardLogger(), w, "d1", provider)

			assert.Equal(t, tt.wantStatus, w.Code)
			provider.AssertExpectations(t)
		})
	}
}
