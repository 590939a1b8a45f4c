package jwtauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "restgate/pkg/domain"
	dErrors "restgate/pkg/domain-errors"
)

func TestIssueAndValidate(t *testing.T) {
	svc := NewService("test-signing-key", "restgate-test")
	subject := id.NewIdentity()

	token, err := svc.IssueToken(subject, time.Hour)
	require.NoError(t, err)

	validated, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, subject, validated)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewService("test-signing-key", "restgate-test")

	token, err := svc.IssueToken(id.NewIdentity(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateRejectsWrongKey(t *testing.T) {
	issuer := NewService("key-one", "restgate-test")
	verifier := NewService("key-two", "restgate-test")

	token, err := issuer.IssueToken(id.NewIdentity(), time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	issuer := NewService("test-signing-key", "someone-else")
	verifier := NewService("test-signing-key", "restgate-test")

	token, err := issuer.IssueToken(id.NewIdentity(), time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewService("test-signing-key", "restgate-test")

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
