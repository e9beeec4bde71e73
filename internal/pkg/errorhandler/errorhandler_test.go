package errorhandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minewatch/minewatch-api/internal/pkg/response"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHandleBackendErrorKeepsMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	HandleBackendError(context.Background(), rr, "relation \"reports\" does not exist", errors.New("pq"))

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	resp := decode(t, rr)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "BACKEND_ERROR", resp.Error.Code)
	assert.Equal(t, "relation \"reports\" does not exist", resp.Error.Message)
}

func TestHandleValidationError(t *testing.T) {
	rr := httptest.NewRecorder()
	HandleValidationError(context.Background(), rr, map[string]string{"title": "This field is required"})

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "This field is required", resp.Error.Details["title"])
}

func TestHandleError(t *testing.T) {
	rr := httptest.NewRecorder()
	HandleError(context.Background(), rr, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "INTERNAL_ERROR", decode(t, rr).Error.Code)
}
