package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		raw   any
		label int
		ok    bool
	}{
		{1, 1, true},
		{0, 0, true},
		{int64(1), 1, true},
		{1.0, 1, true},
		{0.0, 0, true},
		{"1", 1, true},
		{"0", 0, true},
		{"bad", 1, true},
		{"bad|default", 1, true},
		{"good", 0, true},
		{"Bad", 0, true}, // case-sensitive
		{true, 0, true},
		{2, 0, true},
	}
	for _, tc := range tests {
		label, ok, err := NormalizeLabel(tc.raw)
		require.NoError(t, err)
		assert.Equal(t, tc.ok, ok, "raw: %v", tc.raw)
		assert.Equal(t, tc.label, label, "raw: %v", tc.raw)
	}
}

func TestNormalizeLabel_Missing(t *testing.T) {
	for _, raw := range []any{nil, "", math.NaN()} {
		_, ok, err := NormalizeLabel(raw)
		require.NoError(t, err)
		assert.False(t, ok, "raw: %v", raw)
	}
}

func TestNormalizeLabel_NonScalar(t *testing.T) {
	_, _, err := NormalizeLabel([]int{1})
	require.Error(t, err)
	var ie *InvalidInputError
	assert.ErrorAs(t, err, &ie)
}

func TestMakeObservations(t *testing.T) {
	obs, err := MakeObservations([]any{"good", "bad", nil, 1}, []float64{0.1, 0.9, 0.5, 0.8})
	require.NoError(t, err)
	require.Len(t, obs, 3)
	assert.Equal(t, Observation{Label: 0, Value: 0.1}, obs[0])
	assert.Equal(t, Observation{Label: 1, Value: 0.9}, obs[1])
	assert.Equal(t, Observation{Label: 1, Value: 0.8}, obs[2])
}

func TestMakeObservations_LengthMismatch(t *testing.T) {
	_, err := MakeObservations([]any{1, 0}, []float64{0.5})
	var ie *InvalidInputError
	assert.ErrorAs(t, err, &ie)
}

func TestMakeObservations_AllMissing(t *testing.T) {
	_, err := MakeObservations([]any{nil, ""}, []float64{0.5, 0.6})
	var de *DegenerateInputError
	assert.ErrorAs(t, err, &de)
}
