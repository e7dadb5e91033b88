package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()

	WriteJSONError(w, http.StatusForbidden, "access denied")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"access denied"}`, w.Body.String())
}
