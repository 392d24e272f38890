package metrics

import (
	"math"
	"strings"
)

// Metric identifies one of the supported performance metrics.
type Metric string

const (
	MetricKS   Metric = "ks"
	MetricLift Metric = "lift"
	MetricROC  Metric = "roc"
	MetricPR   Metric = "pr"
)

const (
	// DefaultGroupCount is the rank group count used when the caller does
	// not set one.
	DefaultGroupCount = 20

	// DefaultSeed feeds the deterministic pre-shuffle.
	DefaultSeed = 186

	// DefaultTickWidth is the PSI bin width for credit-score style ranges.
	DefaultTickWidth = 50
)

// ParseMetrics maps metric names onto the typed set, rejecting unknown ones.
func ParseMetrics(names []string) ([]Metric, error) {
	out := make([]Metric, 0, len(names))
	for _, n := range names {
		m := Metric(strings.ToLower(strings.TrimSpace(n)))
		switch m {
		case MetricKS, MetricLift, MetricROC, MetricPR:
			out = append(out, m)
		default:
			return nil, invalidInputf("unknown metric: %s", n)
		}
	}
	return out, nil
}

// EvaOptions tunes the performance evaluation.
// Zero values fall back to the defaults above; Metrics nil means {ks, roc}.
// Seed 0 is reserved to mean DefaultSeed, so the zero seed itself is not a
// selectable shuffle order.
type EvaOptions struct {
	Title      string
	GroupCount int
	Metrics    []Metric
	Seed       int64
}

// Series is one named chart-ready series handed to an external renderer:
// either X/Y points or labeled Y values for binned distributions.
type Series struct {
	Name   string    `json:"name" yaml:"name"`
	Labels []string  `json:"labels,omitempty" yaml:"labels,omitempty"`
	X      []float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y      []float64 `json:"y" yaml:"y"`
}

// EvaResult aggregates the requested performance metrics. Scalar fields are
// nil unless the metric that produces them was requested.
type EvaResult struct {
	Title        string             `json:"title,omitempty" yaml:"title,omitempty"`
	KS           *float64           `json:"ks,omitempty" yaml:"ks,omitempty"`
	AUC          *float64           `json:"auc,omitempty" yaml:"auc,omitempty"`
	Gini         *float64           `json:"gini,omitempty" yaml:"gini,omitempty"`
	BreakEven    *float64           `json:"break_even,omitempty" yaml:"break_even,omitempty"`
	LiftBaseline *float64           `json:"lift_baseline,omitempty" yaml:"lift_baseline,omitempty"`
	Groups       []GroupRecord      `json:"groups,omitempty" yaml:"groups,omitempty"`
	Points       []ConfusionPoint   `json:"points,omitempty" yaml:"points,omitempty"`
	Series       map[string]*Series `json:"series" yaml:"series"`
}

// EvaluatePerformance runs the rank-grouping and confusion-sweep stages for
// the requested metric set over raw (label, pred) pairs. Metrics sharing a
// stage ({ks, lift} and {roc, pr}) compute it once.
func EvaluatePerformance(labels []any, preds []float64, opts EvaOptions) (*EvaResult, error) {
	metrics := opts.Metrics
	if len(metrics) == 0 {
		metrics = []Metric{MetricKS, MetricROC}
	}
	want := make(map[Metric]bool, len(metrics))
	for _, m := range metrics {
		want[m] = true
	}

	groupCount := opts.GroupCount
	if groupCount == 0 {
		groupCount = DefaultGroupCount
	}
	seed := opts.Seed
	if seed == 0 {
		seed = DefaultSeed
	}

	obs, err := MakeObservations(labels, preds)
	if err != nil {
		return nil, err
	}
	obs = Shuffle(obs, seed)

	res := &EvaResult{
		Title:  opts.Title,
		Series: make(map[string]*Series),
	}

	if want[MetricKS] || want[MetricLift] {
		rank, err := RankGroups(obs, groupCount)
		if err != nil {
			return nil, err
		}
		res.Groups = rank.Groups
		if want[MetricKS] {
			res.KS = &rank.KS
			res.Series["ks"] = groupSeries("ks", rank.Groups, func(g GroupRecord) float64 { return g.KS })
			res.Series["cum_good"] = groupSeries("cum_good", rank.Groups, func(g GroupRecord) float64 { return g.CumGoodShare })
			res.Series["cum_bad"] = groupSeries("cum_bad", rank.Groups, func(g GroupRecord) float64 { return g.CumBadShare })
		}
		if want[MetricLift] {
			res.LiftBaseline = &rank.Baseline
			lift := &Series{Name: "lift"}
			for _, g := range rank.Groups[1:] {
				lift.X = append(lift.X, float64(g.Group))
				lift.Y = append(lift.Y, g.BadShare)
			}
			res.Series["lift"] = lift
		}
	}

	if want[MetricROC] || want[MetricPR] {
		sweep, err := ConfusionSweep(obs)
		if err != nil {
			return nil, err
		}
		res.Points = sweep.Points
		if want[MetricROC] {
			res.AUC = &sweep.AUC
			gini := 2*sweep.AUC - 1
			res.Gini = &gini
			roc := &Series{Name: "roc", X: []float64{1}, Y: []float64{1}}
			for _, p := range sweep.Points {
				roc.X = append(roc.X, p.FPR)
				roc.Y = append(roc.Y, p.TPR)
			}
			res.Series["roc"] = roc
		}
		if want[MetricPR] {
			res.BreakEven = &sweep.BreakEven
			pr := &Series{Name: "pr"}
			for _, p := range sweep.Points {
				if math.IsNaN(p.Precision) {
					continue
				}
				pr.X = append(pr.X, p.Recall)
				pr.Y = append(pr.Y, p.Precision)
			}
			res.Series["pr"] = pr
		}
	}

	return res, nil
}

func groupSeries(name string, groups []GroupRecord, y func(GroupRecord) float64) *Series {
	s := &Series{Name: name}
	for _, g := range groups {
		s.X = append(s.X, g.CumFrac)
		s.Y = append(s.Y, y(g))
	}
	return s
}

// StabilityResult aggregates per-variable PSI values plus per-population
// distribution series for charting.
type StabilityResult struct {
	Title  string              `json:"title,omitempty" yaml:"title,omitempty"`
	PSI    []Comparison        `json:"psi" yaml:"psi"`
	Series map[string][]Series `json:"series" yaml:"series"`
}

// EvaluateStability computes the PSI of each later population against the
// first and assembles the chart series, keyed by population name.
func EvaluateStability(title string, pops []Population, opts StabilityOptions) (*StabilityResult, error) {
	if opts.TickWidth == 0 {
		opts.TickWidth = DefaultTickWidth
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}

	comparisons, err := StabilityIndex(pops, opts)
	if err != nil {
		return nil, err
	}

	res := &StabilityResult{
		Title:  title,
		PSI:    comparisons,
		Series: make(map[string][]Series),
	}
	seen := make(map[string]bool)
	for _, cmp := range comparisons {
		// The baseline appears in every comparison of a variable; chart it once.
		if key := cmp.Expected + "/" + cmp.Variable; !seen[key] {
			seen[key] = true
			res.Series[cmp.Expected] = append(res.Series[cmp.Expected], distributionSeries(cmp.Variable, cmp.Bins, true))
		}
		res.Series[cmp.Actual] = append(res.Series[cmp.Actual], distributionSeries(cmp.Variable, cmp.Bins, false))
	}
	return res, nil
}

func distributionSeries(variable string, bins []BinRecord, expected bool) Series {
	s := Series{Name: variable}
	for _, b := range bins {
		s.Labels = append(s.Labels, b.Bin)
		if expected {
			s.Y = append(s.Y, b.ExpectedShare)
		} else {
			s.Y = append(s.Y, b.ActualShare)
		}
	}
	return s
}
