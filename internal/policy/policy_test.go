package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "restgate/pkg/domain-errors"
)

func TestParseMode(t *testing.T) {
	or, err := ParseMode("OR")
	require.NoError(t, err)
	assert.Equal(t, ModeOR, or)

	and, err := ParseMode("AND")
	require.NoError(t, err)
	assert.Equal(t, ModeAND, and)

	_, err = ParseMode("XOR")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidMode))
}

func TestPolicyValidate(t *testing.T) {
	t.Run("rejects unknown mode", func(t *testing.T) {
		err := Policy{BPMThreshold: 100, StressThreshold: 15, Mode: Mode(2)}.Validate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidMode))
	})

	t.Run("rejects both thresholds zero", func(t *testing.T) {
		err := Policy{Mode: ModeOR}.Validate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeEmptyPolicy))
	})

	t.Run("accepts single non-zero threshold", func(t *testing.T) {
		require.NoError(t, Policy{BPMThreshold: 100, Mode: ModeOR}.Validate())
		require.NoError(t, Policy{StressThreshold: 15, Mode: ModeAND}.Validate())
	})
}

func TestDefault(t *testing.T) {
	p := Default()
	assert.Equal(t, uint16(100), p.BPMThreshold)
	assert.Equal(t, uint16(15), p.StressThreshold)
	assert.Equal(t, ModeOR, p.Mode)
	assert.True(t, p.IsConfigured())
	require.NoError(t, p.Validate())
}

func TestIsConfigured(t *testing.T) {
	assert.False(t, Policy{}.IsConfigured(), "zero policy means unset")
	assert.True(t, Policy{BPMThreshold: 1}.IsConfigured())
	assert.True(t, Policy{StressThreshold: 1}.IsConfigured())
}
