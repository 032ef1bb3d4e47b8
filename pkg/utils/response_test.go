package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRespondErrorWritesEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, http.StatusBadRequest, "prompt is required")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"prompt is required"}`, rr.Body.String())
}

func TestRespondTextKeepsBodyVerbatim(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondText(rr, http.StatusInternalServerError, "Something went wrong: boom")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Something went wrong: boom", rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
}
