package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func perfectInput() ([]any, []float64) {
	return []any{0, 0, 0, 0, 1, 1, 1, 1}, []float64{0.1, 0.2, 0.3, 0.4, 0.6, 0.7, 0.8, 0.9}
}

func TestEvaluatePerformance_Defaults(t *testing.T) {
	labels, preds := perfectInput()
	res, err := EvaluatePerformance(labels, preds, EvaOptions{})
	require.NoError(t, err)

	// Default metric set is {ks, roc}.
	require.NotNil(t, res.KS)
	require.NotNil(t, res.AUC)
	assert.Nil(t, res.LiftBaseline)
	assert.Nil(t, res.BreakEven)

	assert.InDelta(t, 1.0, *res.KS, 1e-12)
	assert.InDelta(t, 1.0, *res.AUC, 1e-12)
	require.NotNil(t, res.Gini)
	assert.InDelta(t, 1.0, *res.Gini, 1e-12)

	assert.Contains(t, res.Series, "ks")
	assert.Contains(t, res.Series, "cum_good")
	assert.Contains(t, res.Series, "cum_bad")
	assert.Contains(t, res.Series, "roc")
	assert.NotContains(t, res.Series, "lift")
}

func TestEvaluatePerformance_MetricSelection(t *testing.T) {
	labels, preds := perfectInput()
	res, err := EvaluatePerformance(labels, preds, EvaOptions{
		Metrics:    []Metric{MetricLift, MetricPR},
		GroupCount: 4,
	})
	require.NoError(t, err)

	assert.Nil(t, res.KS)
	assert.Nil(t, res.AUC)
	require.NotNil(t, res.LiftBaseline)
	require.NotNil(t, res.BreakEven)
	assert.InDelta(t, 0.25, *res.LiftBaseline, 1e-12)

	assert.Contains(t, res.Series, "lift")
	assert.Contains(t, res.Series, "pr")
	assert.NotContains(t, res.Series, "roc")
	assert.NotContains(t, res.Series, "ks")

	// The rank stage still ran once for lift.
	require.Len(t, res.Groups, 5)
}

func TestEvaluatePerformance_Deterministic(t *testing.T) {
	labels := make([]any, 0, 60)
	preds := make([]float64, 0, 60)
	for i := 0; i < 60; i++ {
		labels = append(labels, i%3)
		preds = append(preds, float64(i%10)/10) // plenty of ties
	}

	opts := EvaOptions{Metrics: []Metric{MetricKS, MetricROC}, GroupCount: 7, Seed: 42}
	a, err := EvaluatePerformance(labels, preds, opts)
	require.NoError(t, err)
	b, err := EvaluatePerformance(labels, preds, opts)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

// Seed 0 is documented as reserved for the default seed.
func TestEvaluatePerformance_ZeroSeedIsDefault(t *testing.T) {
	labels := make([]any, 0, 40)
	preds := make([]float64, 0, 40)
	for i := 0; i < 40; i++ {
		labels = append(labels, i%2)
		preds = append(preds, float64(i%5)/5) // ties make the shuffle matter
	}

	zero, err := EvaluatePerformance(labels, preds, EvaOptions{GroupCount: 8})
	require.NoError(t, err)
	def, err := EvaluatePerformance(labels, preds, EvaOptions{GroupCount: 8, Seed: DefaultSeed})
	require.NoError(t, err)

	assert.Equal(t, def, zero)
}

func TestEvaluatePerformance_ROCSeriesSpansUnitSquare(t *testing.T) {
	labels, preds := perfectInput()
	res, err := EvaluatePerformance(labels, preds, EvaOptions{Metrics: []Metric{MetricROC}})
	require.NoError(t, err)

	roc := res.Series["roc"]
	require.NotNil(t, roc)
	assert.InDelta(t, 1.0, roc.X[0], 1e-12)
	assert.InDelta(t, 1.0, roc.Y[0], 1e-12)
	assert.InDelta(t, 0.0, roc.X[len(roc.X)-1], 1e-12)
	assert.InDelta(t, 0.0, roc.Y[len(roc.Y)-1], 1e-12)
}

func TestEvaluatePerformance_UnknownMetric(t *testing.T) {
	_, err := ParseMetrics([]string{"ks", "psi"})
	var ie *InvalidInputError
	assert.ErrorAs(t, err, &ie)

	got, err := ParseMetrics([]string{" KS ", "roc"})
	require.NoError(t, err)
	assert.Equal(t, []Metric{MetricKS, MetricROC}, got)
}

func TestEvaluatePerformance_SingleClass(t *testing.T) {
	_, err := EvaluatePerformance([]any{1, 1}, []float64{0.1, 0.9}, EvaOptions{})
	var de *DegenerateInputError
	assert.ErrorAs(t, err, &de)
}

func TestEvaluateStability_Facade(t *testing.T) {
	pops := []Population{
		{Name: "train", Scores: scoresOf(uniformScores(100, 13, 25)...)},
		{Name: "test", Scores: scoresOf(uniformScores(150, 13, 25)...)},
	}
	res, err := EvaluateStability("credit score", pops, StabilityOptions{TickWidth: 50})
	require.NoError(t, err)

	assert.Equal(t, "credit score", res.Title)
	require.Len(t, res.PSI, 1)
	assert.Equal(t, "train", res.PSI[0].Expected)
	assert.Equal(t, "test", res.PSI[0].Actual)
	assert.GreaterOrEqual(t, res.PSI[0].PSI, 0.0)

	require.Contains(t, res.Series, "train")
	require.Contains(t, res.Series, "test")
	require.Len(t, res.Series["train"], 1)
	assert.Equal(t, "score", res.Series["train"][0].Name)
	assert.NotEmpty(t, res.Series["train"][0].Labels)
}

func TestEvaluateStability_DefaultTickWidth(t *testing.T) {
	pops := []Population{
		{Name: "a", Scores: scoresOf(uniformScores(300, 21, 20)...)},
		{Name: "b", Scores: scoresOf(uniformScores(300, 21, 20)...)},
	}
	res, err := EvaluateStability("", pops, StabilityOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, res.PSI[0].PSI, 1e-12)
}
