package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func perfectObservations() []Observation {
	labels := []int{0, 0, 0, 0, 1, 1, 1, 1}
	preds := []float64{0.1, 0.2, 0.3, 0.4, 0.6, 0.7, 0.8, 0.9}
	obs := make([]Observation, len(labels))
	for i := range labels {
		obs[i] = Observation{Label: labels[i], Value: preds[i]}
	}
	return obs
}

func TestRankGroups_PerfectSeparation(t *testing.T) {
	res, err := RankGroups(perfectObservations(), 4)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.KS, 1e-12)
	assert.Equal(t, 2, res.KSGroup)
	require.Len(t, res.Groups, 5)

	// Synthetic group 0 starts the curves at the origin.
	first := res.Groups[0]
	assert.Equal(t, 0, first.Group)
	assert.Zero(t, first.CumGoodShare)
	assert.Zero(t, first.CumBadShare)

	// Descending by score: bads fill the first half.
	assert.Equal(t, 2, res.Groups[1].Bads)
	assert.Equal(t, 0, res.Groups[1].Goods)
	assert.Equal(t, 0, res.Groups[4].Bads)
	assert.InDelta(t, 1.0, res.Groups[4].CumGoodShare, 1e-12)
	assert.InDelta(t, 1.0, res.Groups[4].CumBadShare, 1e-12)
}

func TestRankGroups_GroupSizing(t *testing.T) {
	obs := make([]Observation, 10)
	for i := range obs {
		obs[i] = Observation{Label: i % 2, Value: float64(10 - i)}
	}

	res, err := RankGroups(obs, 3)
	require.NoError(t, err)
	require.Len(t, res.Groups, 4)

	var total int
	for _, g := range res.Groups[1:] {
		total += g.Goods + g.Bads
	}
	assert.Equal(t, 10, total)
	assert.InDelta(t, 1.0, res.Groups[3].CumFrac, 1e-12)
}

func TestRankGroups_EachRecord(t *testing.T) {
	obs := perfectObservations()
	res, err := RankGroups(obs, GroupEachRecord)
	require.NoError(t, err)
	assert.Equal(t, len(obs), res.GroupCount)
	require.Len(t, res.Groups, len(obs)+1)
	for _, g := range res.Groups[1:] {
		assert.Equal(t, 1, g.Goods+g.Bads)
	}
}

func TestRankGroups_CountLargerThanN(t *testing.T) {
	obs := perfectObservations()
	res, err := RankGroups(obs, 100)
	require.NoError(t, err)
	assert.Equal(t, len(obs), res.GroupCount)
}

func TestRankGroups_InvalidCount(t *testing.T) {
	_, err := RankGroups(perfectObservations(), 0)
	var ie *InvalidInputError
	assert.ErrorAs(t, err, &ie)
}

func TestRankGroups_SingleClass(t *testing.T) {
	obs := []Observation{{Label: 1, Value: 0.2}, {Label: 1, Value: 0.8}}
	_, err := RankGroups(obs, 2)
	var de *DegenerateInputError
	assert.ErrorAs(t, err, &de)
}

func TestRankGroups_KSBoundedAndConsistent(t *testing.T) {
	obs := Shuffle(noisyObservations(500), 42)
	res, err := RankGroups(obs, 20)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.KS, 0.0)
	assert.LessOrEqual(t, res.KS, 1.0)

	// KS is the largest vertical gap between the cumulative curves.
	var max float64
	for _, g := range res.Groups {
		assert.InDelta(t, g.CumBadShare-g.CumGoodShare, g.KS, 1e-12)
		if g.KS > max {
			max = g.KS
		}
	}
	assert.InDelta(t, max, res.KS, 1e-12)
}

func TestRankGroups_SeedInvariantWithoutTies(t *testing.T) {
	obs := noisyObservations(200) // all values distinct
	a, err := RankGroups(Shuffle(obs, 1), 10)
	require.NoError(t, err)
	b, err := RankGroups(Shuffle(obs, 99), 10)
	require.NoError(t, err)
	assert.InDelta(t, a.KS, b.KS, 1e-12)
}

// noisyObservations builds a tie-free sample where higher values lean bad.
func noisyObservations(n int) []Observation {
	obs := make([]Observation, n)
	for i := range obs {
		v := float64(i) / float64(n)
		label := 0
		if (i%4 != 0 && v > 0.5) || i%7 == 0 {
			label = 1
		}
		obs[i] = Observation{Label: label, Value: v}
	}
	return obs
}
