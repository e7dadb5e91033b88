package docs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kbdedup/internal/dto"
	"kbdedup/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Decide(ctx context.Context, req models.UploadRequest, content io.Reader) (*models.Verdict, error) {
	body, _ := io.ReadAll(content)
	args := m.Called(ctx, req, string(body))
	v, _ := args.Get(0).(*models.Verdict)
	return v, args.Error(1)
}

var requester = &models.User{ID: "u1", Role: models.RoleUser}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func withUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), models.UserContextKey, user))
}

func multipartRequest(t *testing.T, meta string, content string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if meta != "" {
		require.NoError(t, writer.WriteField("meta", meta))
	}
	if content != "" {
		part, err := writer.CreateFormFile("file", "upload.txt")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/kbs/kb1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return withUser(req, requester)
}

func TestUpload_Created(t *testing.T) {
	t.Parallel()

	req := multipartRequest(t, `{"name":"alpha.txt","visibility":"private"}`, "alpha")
	w := httptest.NewRecorder()

	uploader := new(mockUploader)
	uploader.On("Decide", mock.Anything, models.UploadRequest{
		KnowledgeBaseID: "kb1",
		Uploader:        *requester,
		Name:            "alpha.txt",
		Visibility:      models.VisibilityPrivate,
	}, "alpha").Return(&models.Verdict{
		Action:   models.ActionCreate,
		State:    models.StateResolved,
		Branch:   models.StateNew,
		Document: &models.Document{ID: "doc1", Name: "alpha.txt", Visibility: models.VisibilityPrivate},
		Quota:    &models.QuotaUsage{Used: 1, Limit: 3},
	}, nil)

	Upload(req.Context(), discardLogger(), w, req, "kb1", 0, uploader)

	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var parsed struct {
		Data dto.VerdictResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.Equal(t, "create", parsed.Data.Action)
	assert.Equal(t, "doc1", parsed.Data.Document.ID)
	assert.Equal(t, 1, parsed.Data.Quota.Used)

	uploader.AssertExpectations(t)
}

func TestUpload_FilenameFallbackAndRetryAfter(t *testing.T) {
	t.Parallel()

	req := multipartRequest(t, "", "alpha")
	w := httptest.NewRecorder()

	uploader := new(mockUploader)
	uploader.On("Decide", mock.Anything, mock.MatchedBy(func(r models.UploadRequest) bool {
		return r.Name == "upload.txt" && r.KnowledgeBaseID == "kb1"
	}), "alpha").Return(&models.Verdict{
		Action:    models.ActionReject,
		ErrorKind: models.ErrKindLockTimeout,
		State:     models.StateDenied,
		Retryable: true,
	}, nil)

	Upload(req.Context(), discardLogger(), w, req, "kb1", 0, uploader)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	uploader.AssertExpectations(t)
}

func TestUpload_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
	}{
		{"bad meta", func(t *testing.T) *http.Request { return multipartRequest(t, "{not json", "alpha") }},
		{"missing file", func(t *testing.T) *http.Request { return multipartRequest(t, `{"name":"x"}`, "") }},
		{"not multipart", func(t *testing.T) *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/api/kbs/kb1/documents", strings.NewReader("invalid"))
			req.Header.Set("Content-Type", "multipart/form-data; boundary=----badboundary")
			return withUser(req, requester)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := tt.req(t)
			w := httptest.NewRecorder()
			uploader := new(mockUploader)

			Upload(req.Context(), discardLogger(), w, req, "kb1", 0, uploader)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			uploader.AssertNotCalled(t, "Decide", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUpload_TooLarge(t *testing.T) {
	t.Parallel()

	req := multipartRequest(t, `{"name":"big"}`, strings.Repeat("x", 4096))
	w := httptest.NewRecorder()
	uploader := new(mockUploader)

	Upload(req.Context(), discardLogger(), w, req, "kb1", 512, uploader)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestUpload_NoRequester(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/api/kbs/kb1/documents", nil)
	w := httptest.NewRecorder()

	Upload(req.Context(), discardLogger(), w, req, "kb1", 0, new(mockUploader))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpload_ServiceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid params", models.ErrInvalidParams, http.StatusBadRequest},
		{"internal", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := multipartRequest(t, `{"visibility":"internal"}`, "alpha")
			w := httptest.NewRecorder()

			uploader := new(mockUploader)
			uploader.On("Decide", mock.Anything, mock.Anything, "alpha").Return(nil, tt.err)

			Upload(req.Context(), discardLogger(), w, req, "kb1", 0, uploader)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		verdict models.Verdict
		want    int
	}{
		{"created", models.Verdict{Action: models.ActionCreate}, http.StatusCreated},
		{"dry run create", models.Verdict{Action: models.ActionCreate, DryRun: true}, http.StatusOK},
		{"reuse", models.Verdict{Action: models.ActionReuseExisting}, http.StatusOK},
		{"visible duplicate", models.Verdict{Action: models.ActionReject, ErrorKind: models.ErrKindDuplicateVisibleConflict}, http.StatusConflict},
		{"quota", models.Verdict{Action: models.ActionReject, ErrorKind: models.ErrKindQuotaExceeded}, http.StatusForbidden},
		{"storage conflict", models.Verdict{Action: models.ActionReject, ErrorKind: models.ErrKindStorageConflict}, http.StatusServiceUnavailable},
		{"lock timeout", models.Verdict{Action: models.ActionReject, ErrorKind: models.ErrKindLockTimeout}, http.StatusServiceUnavailable},
		{"hash failure", models.Verdict{Action: models.ActionReject, ErrorKind: models.ErrKindHashComputationFailure}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StatusFor(&tt.verdict))
		})
	}
}
