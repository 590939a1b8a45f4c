package decision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restgate/internal/encval"
	"restgate/internal/encval/fake"
	"restgate/internal/policy"
	id "restgate/pkg/domain"
	dErrors "restgate/pkg/domain-errors"
	auditmemory "restgate/pkg/platform/audit/store/memory"
)

type pipelineFixture struct {
	enc      *fake.Service
	policies *policy.InMemoryStore
	records  *InMemoryStore
	events   *auditmemory.InMemoryStore
	engineID id.Identity
	service  *Service
}

func newPipelineFixture(t *testing.T, pol policy.Policy) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		enc:      fake.New(),
		policies: policy.NewInMemoryStore(id.NewIdentity()),
		records:  NewInMemoryStore(),
		events:   auditmemory.NewInMemoryStore(),
		engineID: id.NewIdentity(),
	}
	if pol != (policy.Policy{}) {
		require.NoError(t, f.policies.SetPolicy(context.Background(), pol))
	}
	f.service = NewService(f.policies, f.records, f.enc, f.engineID, WithEmitter(f.events))
	return f
}

// submit encrypts both readings and builds a valid request for subject.
func (f *pipelineFixture) submit(subject id.Identity, bpm, stress uint16, visibility Visibility) EvaluateRequest {
	proof := []byte("attested-by-enclave")
	return EvaluateRequest{
		Subject:    subject,
		BPM:        f.enc.Encrypt(bpm, proof),
		Stress:     f.enc.Encrypt(stress, proof),
		Proof:      proof,
		Visibility: visibility,
	}
}

func (f *pipelineFixture) decryptAs(t *testing.T, handle encval.Handle, reader id.Identity) bool {
	t.Helper()
	value, err := f.enc.DecryptBool(handle, reader)
	require.NoError(t, err)
	return value
}

func TestEvaluate_ORPolicy(t *testing.T) {
	orPolicy := policy.Policy{BPMThreshold: 100, StressThreshold: 15, Mode: policy.ModeOR}

	cases := []struct {
		name   string
		bpm    uint16
		stress uint16
		want   bool
	}{
		{"both high", 120, 30, true},
		{"bpm high only", 120, 5, true},
		{"stress high only", 80, 20, true},
		{"stress at threshold", 80, 15, true},
		{"both low", 80, 5, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPipelineFixture(t, orPolicy)
			subject := id.NewIdentity()

			result, err := f.service.Evaluate(context.Background(), f.submit(subject, tc.bpm, tc.stress, VisibilityPrivate))
			require.NoError(t, err)
			assert.Equal(t, tc.want, f.decryptAs(t, result.Handle, subject))
		})
	}
}

func TestEvaluate_ANDPolicy(t *testing.T) {
	andPolicy := policy.Policy{BPMThreshold: 140, StressThreshold: 20, Mode: policy.ModeAND}

	cases := []struct {
		name   string
		bpm    uint16
		stress uint16
		want   bool
	}{
		{"both high", 150, 25, true},
		{"bpm high only", 150, 10, false},
		{"stress high only", 100, 25, false},
		{"both low", 100, 10, false},
		{"both at threshold", 140, 20, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPipelineFixture(t, andPolicy)
			subject := id.NewIdentity()

			result, err := f.service.Evaluate(context.Background(), f.submit(subject, tc.bpm, tc.stress, VisibilityPrivate))
			require.NoError(t, err)
			assert.Equal(t, tc.want, f.decryptAs(t, result.Handle, subject))
		})
	}
}

func TestEvaluate_PrivateVisibility(t *testing.T) {
	f := newPipelineFixture(t, policy.Default())
	subject := id.NewIdentity()
	stranger := id.NewIdentity()

	result, err := f.service.Evaluate(context.Background(), f.submit(subject, 120, 5, VisibilityPrivate))
	require.NoError(t, err)

	assert.True(t, f.decryptAs(t, result.Handle, subject), "bpm 120 crosses the default threshold")
	assert.False(t, result.Public)
	assert.False(t, f.enc.IsPubliclyReadable(result.Handle))

	// The engine keeps its own grant; nobody else can read.
	_, err = f.enc.DecryptBool(result.Handle, stranger)
	require.Error(t, err)
	value, err := f.enc.DecryptBool(result.Handle, f.engineID)
	require.NoError(t, err)
	assert.True(t, value)

	has, err := f.service.HasDecision(context.Background(), subject)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestEvaluate_PublicVisibility(t *testing.T) {
	f := newPipelineFixture(t, policy.Default())
	subject := id.NewIdentity()
	stranger := id.NewIdentity()

	result, err := f.service.Evaluate(context.Background(), f.submit(subject, 80, 30, VisibilityPublic))
	require.NoError(t, err)

	assert.True(t, result.Public)
	assert.True(t, f.enc.IsPubliclyReadable(result.Handle))

	value, err := f.enc.DecryptBool(result.Handle, stranger)
	require.NoError(t, err)
	assert.True(t, value, "stress 30 crosses the default threshold")
}

func TestEvaluate_OverwritesPreviousDecision(t *testing.T) {
	f := newPipelineFixture(t, policy.Default())
	subject := id.NewIdentity()
	ctx := context.Background()

	first, err := f.service.Evaluate(ctx, f.submit(subject, 120, 5, VisibilityPrivate))
	require.NoError(t, err)
	second, err := f.service.Evaluate(ctx, f.submit(subject, 80, 5, VisibilityPrivate))
	require.NoError(t, err)
	require.NotEqual(t, first.Handle, second.Handle)

	handle, exists, err := f.service.LastDecision(ctx, subject)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, second.Handle, handle, "only the latest decision is retrievable")
	assert.False(t, f.decryptAs(t, handle, subject))
}

func TestEvaluate_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("missing proof", func(t *testing.T) {
		f := newPipelineFixture(t, policy.Default())
		subject := id.NewIdentity()
		req := f.submit(subject, 120, 5, VisibilityPrivate)
		req.Proof = nil

		_, err := f.service.Evaluate(ctx, req)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMissingProof))
		assertNoDecision(t, f, subject)
	})

	t.Run("policy not configured", func(t *testing.T) {
		f := newPipelineFixture(t, policy.Policy{})
		subject := id.NewIdentity()

		_, err := f.service.Evaluate(ctx, f.submit(subject, 120, 5, VisibilityPrivate))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePolicyNotConfigured))
		assertNoDecision(t, f, subject)
	})

	t.Run("invalid attestation", func(t *testing.T) {
		f := newPipelineFixture(t, policy.Default())
		subject := id.NewIdentity()
		req := f.submit(subject, 120, 5, VisibilityPrivate)
		req.Proof = []byte("forged")

		_, err := f.service.Evaluate(ctx, req)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAttestation))
		assertNoDecision(t, f, subject)
	})

	t.Run("nil subject", func(t *testing.T) {
		f := newPipelineFixture(t, policy.Default())
		req := f.submit(id.NilIdentity, 120, 5, VisibilityPrivate)

		_, err := f.service.Evaluate(ctx, req)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func assertNoDecision(t *testing.T, f *pipelineFixture, subject id.Identity) {
	t.Helper()
	handle, exists, err := f.service.LastDecision(context.Background(), subject)
	require.NoError(t, err)
	assert.False(t, exists, "rejected call must not record a decision")
	assert.True(t, handle.IsZero())

	events, err := f.events.ListBySubject(context.Background(), subject)
	require.NoError(t, err)
	assert.Empty(t, events, "rejected call must not emit events")
}

func TestEvaluate_PolicyChangeDoesNotReevaluate(t *testing.T) {
	f := newPipelineFixture(t, policy.Default())
	subject := id.NewIdentity()
	ctx := context.Background()

	result, err := f.service.Evaluate(ctx, f.submit(subject, 120, 5, VisibilityPrivate))
	require.NoError(t, err)
	require.True(t, f.decryptAs(t, result.Handle, subject))

	// Raising the thresholds afterwards leaves the stored decision alone.
	require.NoError(t, f.policies.SetPolicy(ctx, policy.Policy{BPMThreshold: 200, StressThreshold: 200, Mode: policy.ModeAND}))

	handle, exists, err := f.service.LastDecision(ctx, subject)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, result.Handle, handle)
	assert.True(t, f.decryptAs(t, handle, subject))
}

func TestLastDecision_NoRecord(t *testing.T) {
	f := newPipelineFixture(t, policy.Default())

	handle, exists, err := f.service.LastDecision(context.Background(), id.NewIdentity())
	require.NoError(t, err)
	assert.False(t, exists)
	assert.True(t, handle.IsZero())

	has, err := f.service.HasDecision(context.Background(), id.NewIdentity())
	require.NoError(t, err)
	assert.False(t, has)
}

func TestEvaluate_EmitsDecisionRecorded(t *testing.T) {
	f := newPipelineFixture(t, policy.Default())
	subject := id.NewIdentity()

	result, err := f.service.Evaluate(context.Background(), f.submit(subject, 120, 5, VisibilityPublic))
	require.NoError(t, err)

	events, err := f.events.ListBySubject(context.Background(), subject)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, result.Handle.String(), events[0].DecisionHandle)
	assert.True(t, events[0].IsPublic)
}
