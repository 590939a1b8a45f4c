package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restgate/internal/policy"
	id "restgate/pkg/domain"
	"restgate/pkg/requestcontext"
	"restgate/pkg/testutil"
)

type policyFixture struct {
	router chi.Router
	admin  id.Identity
}

func newPolicyFixture(t *testing.T) *policyFixture {
	t.Helper()

	admin := id.NewIdentity()
	svc := policy.NewService(policy.NewInMemoryStore(admin))
	h := New(svc, slog.New(slog.DiscardHandler))

	router := chi.NewRouter()
	h.Register(router)

	return &policyFixture{router: router, admin: admin}
}

func (f *policyFixture) do(req *http.Request, caller id.Identity) *httptest.ResponseRecorder {
	if !caller.IsNil() {
		req = req.WithContext(requestcontext.WithCallerID(req.Context(), caller))
	}
	return testutil.DoRequest(f.router, req)
}

func (f *policyFixture) currentPolicy(t *testing.T) PolicyResponse {
	t.Helper()
	rr := f.do(testutil.NewRequest(t, http.MethodGet, "/policy"), f.admin)
	require.Equal(t, http.StatusOK, rr.Code)
	return testutil.DecodeJSON[PolicyResponse](t, rr)
}

func TestHandleSetPolicy(t *testing.T) {
	t.Run("administrator replaces policy", func(t *testing.T) {
		f := newPolicyFixture(t)
		body := SetPolicyRequest{BPMThreshold: 140, StressThreshold: 20, Mode: "AND"}
		rr := f.do(testutil.NewJSONRequest(t, http.MethodPut, "/policy", body), f.admin)
		require.Equal(t, http.StatusOK, rr.Code)

		resp := testutil.DecodeJSON[PolicyResponse](t, rr)
		assert.Equal(t, uint16(140), resp.BPMThreshold)
		assert.Equal(t, uint16(20), resp.StressThreshold)
		assert.Equal(t, "AND", resp.Mode)
		assert.True(t, resp.Configured)
	})

	t.Run("non-administrator gets 401 and policy is unchanged", func(t *testing.T) {
		f := newPolicyFixture(t)
		body := SetPolicyRequest{BPMThreshold: 140, StressThreshold: 20, Mode: "AND"}
		rr := f.do(testutil.NewJSONRequest(t, http.MethodPut, "/policy", body), id.NewIdentity())
		require.Equal(t, http.StatusUnauthorized, rr.Code)

		current := f.currentPolicy(t)
		assert.False(t, current.Configured)
	})

	t.Run("unknown mode", func(t *testing.T) {
		f := newPolicyFixture(t)
		body := SetPolicyRequest{BPMThreshold: 140, StressThreshold: 20, Mode: "XOR"}
		rr := f.do(testutil.NewJSONRequest(t, http.MethodPut, "/policy", body), f.admin)
		require.Equal(t, http.StatusBadRequest, rr.Code)

		resp := testutil.DecodeJSON[map[string]string](t, rr)
		assert.Equal(t, "invalid_mode", resp["error"])
	})

	t.Run("both thresholds zero", func(t *testing.T) {
		f := newPolicyFixture(t)
		body := SetPolicyRequest{Mode: "OR"}
		rr := f.do(testutil.NewJSONRequest(t, http.MethodPut, "/policy", body), f.admin)
		require.Equal(t, http.StatusBadRequest, rr.Code)

		resp := testutil.DecodeJSON[map[string]string](t, rr)
		assert.Equal(t, "empty_policy", resp["error"])
	})
}

func TestHandleSetDefault(t *testing.T) {
	f := newPolicyFixture(t)
	rr := f.do(testutil.NewRequest(t, http.MethodPost, "/policy/default"), f.admin)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := testutil.DecodeJSON[PolicyResponse](t, rr)
	assert.Equal(t, uint16(100), resp.BPMThreshold)
	assert.Equal(t, uint16(15), resp.StressThreshold)
	assert.Equal(t, "OR", resp.Mode)
}

func TestHandleTransfer(t *testing.T) {
	t.Run("hands the role to the new identity", func(t *testing.T) {
		f := newPolicyFixture(t)
		next := id.NewIdentity()
		body := TransferRequest{NewAdmin: next.String()}
		rr := f.do(testutil.NewJSONRequest(t, http.MethodPost, "/policy/transfer", body), f.admin)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = f.do(testutil.NewRequest(t, http.MethodGet, "/policy/administrator"), next)
		require.Equal(t, http.StatusOK, rr.Code)
		resp := testutil.DecodeJSON[AdministratorResponse](t, rr)
		assert.Equal(t, next.String(), resp.Administrator)
	})

	t.Run("empty new_admin", func(t *testing.T) {
		f := newPolicyFixture(t)
		rr := f.do(testutil.NewJSONRequest(t, http.MethodPost, "/policy/transfer", TransferRequest{}), f.admin)
		require.Equal(t, http.StatusBadRequest, rr.Code)

		resp := testutil.DecodeJSON[map[string]string](t, rr)
		assert.Equal(t, "invalid_address", resp["error"])
	})

	t.Run("malformed new_admin", func(t *testing.T) {
		f := newPolicyFixture(t)
		body := TransferRequest{NewAdmin: "not-a-uuid"}
		rr := f.do(testutil.NewJSONRequest(t, http.MethodPost, "/policy/transfer", body), f.admin)
		require.Equal(t, http.StatusBadRequest, rr.Code)

		resp := testutil.DecodeJSON[map[string]string](t, rr)
		assert.Equal(t, "bad_request", resp["error"])
	})
}
