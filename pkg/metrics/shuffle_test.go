package metrics

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffle_Deterministic(t *testing.T) {
	obs := seqObservations(100)
	a := Shuffle(obs, 186)
	b := Shuffle(obs, 186)
	assert.Equal(t, a, b)
}

func TestShuffle_SeedChangesOrder(t *testing.T) {
	obs := seqObservations(100)
	a := Shuffle(obs, 1)
	b := Shuffle(obs, 2)
	assert.NotEqual(t, a, b)
}

func TestShuffle_PreservesMultiset(t *testing.T) {
	obs := seqObservations(50)
	out := Shuffle(obs, 7)
	require.Len(t, out, len(obs))

	sorted := make([]Observation, len(out))
	copy(sorted, out)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })
	assert.Equal(t, obs, sorted)
}

func TestShuffle_InputUntouched(t *testing.T) {
	obs := seqObservations(20)
	orig := make([]Observation, len(obs))
	copy(orig, obs)
	Shuffle(obs, 3)
	assert.Equal(t, orig, obs)
}

func seqObservations(n int) []Observation {
	obs := make([]Observation, n)
	for i := range obs {
		obs[i] = Observation{Label: i % 2, Value: float64(i)}
	}
	return obs
}
