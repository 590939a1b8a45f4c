package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "restgate/pkg/domain-errors"
	"restgate/pkg/testutil"
)

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSON(rr, http.StatusCreated, map[string]string{"status": "ok"})

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	body := testutil.DecodeJSON[map[string]string](t, rr)
	assert.Equal(t, "ok", body["status"])
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		code   dErrors.Code
		status int
	}{
		{dErrors.CodeUnauthorized, http.StatusUnauthorized},
		{dErrors.CodeNotFound, http.StatusNotFound},
		{dErrors.CodeConflict, http.StatusConflict},
		{dErrors.CodePolicyNotConfigured, http.StatusConflict},
		{dErrors.CodeInvalidMode, http.StatusBadRequest},
		{dErrors.CodeEmptyPolicy, http.StatusBadRequest},
		{dErrors.CodeInvalidAddress, http.StatusBadRequest},
		{dErrors.CodeMissingProof, http.StatusBadRequest},
		{dErrors.CodeInvalidAttestation, http.StatusBadRequest},
		{dErrors.CodeInvalidInput, http.StatusBadRequest},
		{dErrors.CodeBadRequest, http.StatusBadRequest},
		{dErrors.CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteError(rr, dErrors.New(tc.code, "boom"))

			assert.Equal(t, tc.status, rr.Code)
			body := testutil.DecodeJSON[map[string]string](t, rr)
			assert.Equal(t, string(tc.code), body["error"])
		})
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, dErrors.Wrap(errors.New("dial tcp: refused"), dErrors.CodeInternal, "failed to persist decision"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	body := testutil.DecodeJSON[map[string]string](t, rr)
	assert.Equal(t, "internal_error", body["error"])
	assert.Empty(t, body["error_description"])
}

func TestWriteErrorUnclassified(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("plain failure"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
