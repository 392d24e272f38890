package metrics

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
)

// Continuous-score regime kicks in above this many distinct combined values;
// at or below it every distinct value becomes its own bin.
const discreteValueLimit = 10

// Population is one named sample of score distributions, column-oriented.
// Labels are optional raw labels (same encodings the normalizer accepts);
// when present they enable the per-bin bad-rate overlay, when absent the PSI
// number is still fully defined.
type Population struct {
	Name   string
	Scores map[string][]float64
	Labels []any
}

// StabilityOptions tunes the divergence computation.
// A zero ScoreRange derives the grid span from the observed values, and
// Seed 0 is reserved to mean the caller's default seed.
type StabilityOptions struct {
	ScoreRange [2]float64
	TickWidth  float64
	Seed       int64
}

// BinRecord is one shared bin of an expected/actual distribution pair.
// Shares sum to 1 within each side. Bad rates are NaN without labels.
type BinRecord struct {
	Bin             string  `json:"bin" yaml:"bin"`
	ExpectedCount   int     `json:"expected_count" yaml:"expected_count"`
	ActualCount     int     `json:"actual_count" yaml:"actual_count"`
	ExpectedShare   float64 `json:"expected_share" yaml:"expected_share"`
	ActualShare     float64 `json:"actual_share" yaml:"actual_share"`
	ExpectedBadRate float64 `json:"expected_bad_rate" yaml:"expected_bad_rate"`
	ActualBadRate   float64 `json:"actual_bad_rate" yaml:"actual_bad_rate"`
}

// Comparison is the PSI of one variable between the expected baseline
// population and one actual population.
type Comparison struct {
	Variable string      `json:"variable" yaml:"variable"`
	Expected string      `json:"expected" yaml:"expected"`
	Actual   string      `json:"actual" yaml:"actual"`
	PSI      float64     `json:"psi" yaml:"psi"`
	Bins     []BinRecord `json:"bins" yaml:"bins"`
}

// StabilityIndex bins every scored variable of two or more populations onto a
// shared grid and computes the PSI of each later population against the
// first. Each population normalizes its shares independently; a bin present
// on only one side contributes 0 to the sum rather than blowing up the log.
func StabilityIndex(pops []Population, opts StabilityOptions) ([]Comparison, error) {
	if err := validatePopulations(pops, opts); err != nil {
		return nil, err
	}

	variables := make([]string, 0, len(pops[0].Scores))
	for v := range pops[0].Scores {
		variables = append(variables, v)
	}
	sort.Strings(variables)

	// The pre-shuffle keeps parity with the performance path; binning itself
	// is order-independent.
	shuffled := make([]population, len(pops))
	for i, p := range pops {
		rows, err := p.rows()
		if err != nil {
			return nil, err
		}
		shuffled[i] = population{name: p.Name, rows: Shuffle(rows, opts.Seed)}
	}

	base := shuffled[0]
	out := make([]Comparison, 0, len(variables)*(len(pops)-1))
	for _, v := range variables {
		for _, actual := range shuffled[1:] {
			cmp, err := comparePopulations(v, base, actual, opts)
			if err != nil {
				return nil, err
			}
			out = append(out, *cmp)
		}
	}
	return out, nil
}

type row struct {
	values   map[string]float64
	label    int
	hasLabel bool
}

type population struct {
	name string
	rows []row
}

func (p *Population) rows() ([]row, error) {
	n := -1
	for v, col := range p.Scores {
		if n == -1 {
			n = len(col)
		} else if len(col) != n {
			return nil, invalidInputf("population %s: column %s length %d != %d", p.Name, v, len(col), n)
		}
	}
	if p.Labels != nil && len(p.Labels) != n {
		return nil, invalidInputf("population %s: labels length %d != %d", p.Name, len(p.Labels), n)
	}

	rows := make([]row, n)
	for i := range rows {
		rows[i].values = make(map[string]float64, len(p.Scores))
		for v, col := range p.Scores {
			rows[i].values[v] = col[i]
		}
		if p.Labels != nil {
			label, ok, err := NormalizeLabel(p.Labels[i])
			if err != nil {
				return nil, err
			}
			rows[i].label = label
			rows[i].hasLabel = ok
		}
	}
	return rows, nil
}

func validatePopulations(pops []Population, opts StabilityOptions) error {
	if len(pops) < 2 {
		return invalidInputf("stability needs at least 2 populations, got %d", len(pops))
	}
	if math.IsNaN(opts.TickWidth) || math.IsInf(opts.TickWidth, 0) ||
		math.IsNaN(opts.ScoreRange[0]) || math.IsInf(opts.ScoreRange[0], 0) ||
		math.IsNaN(opts.ScoreRange[1]) || math.IsInf(opts.ScoreRange[1], 0) {
		return arithmeticDomainf("score range and tick width must be finite")
	}
	if opts.TickWidth <= 0 {
		return invalidInputf("tick width must be positive, got %v", opts.TickWidth)
	}

	baseVars := variableSet(pops[0])
	for _, p := range pops[1:] {
		if variableSet(p) != baseVars {
			return invalidInputf("population %s variables (%s) differ from %s (%s)",
				p.Name, variableSet(p), pops[0].Name, baseVars)
		}
	}
	if baseVars == "" {
		return invalidInputf("populations carry no score columns")
	}
	return nil
}

func variableSet(p Population) string {
	vars := make([]string, 0, len(p.Scores))
	for v := range p.Scores {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	out := ""
	for i, v := range vars {
		if i > 0 {
			out += ","
		}
		out += v
	}
	return out
}

func comparePopulations(variable string, expected, actual population, opts StabilityOptions) (*Comparison, error) {
	ev := columnOf(expected.rows, variable)
	av := columnOf(actual.rows, variable)
	if len(ev) == 0 || len(av) == 0 {
		return nil, degenerateInputf("variable %s: empty population", variable)
	}

	combined := append(append([]float64{}, ev...), av...)
	distinct := distinctCount(combined)

	var bins binner
	if distinct > discreteValueLimit {
		bins = newGridBinner(combined, opts)
	} else {
		bins = newValueBinner(combined)
	}

	cmp := &Comparison{
		Variable: variable,
		Expected: expected.name,
		Actual:   actual.name,
		Bins:     make([]BinRecord, bins.count()),
	}
	for i := range cmp.Bins {
		cmp.Bins[i] = BinRecord{
			Bin:             bins.label(i),
			ExpectedBadRate: math.NaN(),
			ActualBadRate:   math.NaN(),
		}
	}

	tallyBins(cmp.Bins, bins, expected.rows, variable, true)
	tallyBins(cmp.Bins, bins, actual.rows, variable, false)

	for i := range cmp.Bins {
		b := &cmp.Bins[i]
		b.ExpectedShare = float64(b.ExpectedCount) / float64(len(ev))
		b.ActualShare = float64(b.ActualCount) / float64(len(av))

		// Zero-contribution convention: one-sided bins add nothing.
		if b.ActualShare > 0 && b.ExpectedShare > 0 {
			cmp.PSI += (b.ActualShare - b.ExpectedShare) * math.Log(b.ActualShare/b.ExpectedShare)
		}
	}
	return cmp, nil
}

func tallyBins(records []BinRecord, bins binner, rows []row, variable string, expected bool) {
	bads := make([]int, len(records))
	labeled := make([]int, len(records))
	for _, r := range rows {
		i := bins.index(r.values[variable])
		if expected {
			records[i].ExpectedCount++
		} else {
			records[i].ActualCount++
		}
		if r.hasLabel {
			labeled[i]++
			bads[i] += r.label
		}
	}
	for i := range records {
		if labeled[i] == 0 {
			continue
		}
		rate := float64(bads[i]) / float64(labeled[i])
		if expected {
			records[i].ExpectedBadRate = rate
		} else {
			records[i].ActualBadRate = rate
		}
	}
}

func columnOf(rows []row, variable string) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.values[variable]
	}
	return out
}

func distinctCount(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// binner maps a value onto a bin index on a grid shared by both populations.
type binner interface {
	count() int
	index(v float64) int
	label(i int) string
}

// gridBinner bins continuous scores into half-open [edge, next) intervals.
// Edges are interior ticks aligned to the tick width plus floor/ceil
// extensions of the observed min/max, so the grid always spans the data.
type gridBinner struct {
	edges []float64
}

func newGridBinner(values []float64, opts StabilityOptions) *gridBinner {
	w := opts.TickWidth
	min, max := floats.Min(values), floats.Max(values)

	low, high := opts.ScoreRange[0], opts.ScoreRange[1]
	if low == 0 && high == 0 {
		low = math.Floor(min/w) * w
		high = math.Ceil(max/w) * w
	}

	edgeSet := map[float64]struct{}{
		math.Floor(min/w) * w: {},
		math.Ceil(max/w) * w:  {},
	}
	for e := low + w; e <= high-w+w/1e9; e += w {
		edgeSet[e] = struct{}{}
	}

	edges := make([]float64, 0, len(edgeSet))
	for e := range edgeSet {
		edges = append(edges, e)
	}
	sort.Float64s(edges)
	return &gridBinner{edges: edges}
}

func (g *gridBinner) count() int {
	if len(g.edges) < 2 {
		return 1
	}
	return len(g.edges) - 1
}

func (g *gridBinner) index(v float64) int {
	// Rightmost edge <= v; the terminal edge folds into the last interval.
	i := sort.SearchFloat64s(g.edges, v)
	if i == len(g.edges) || g.edges[i] != v {
		i--
	}
	if i < 0 {
		i = 0
	}
	if i >= g.count() {
		i = g.count() - 1
	}
	return i
}

func (g *gridBinner) label(i int) string {
	if len(g.edges) < 2 {
		return fmt.Sprintf("[%g,inf)", g.edges[0])
	}
	return fmt.Sprintf("[%g,%g)", g.edges[i], g.edges[i+1])
}

// valueBinner gives every distinct value its own bin, for categorical or
// low-cardinality scores.
type valueBinner struct {
	values []float64
	lookup map[float64]int
}

func newValueBinner(values []float64) *valueBinner {
	b := &valueBinner{lookup: make(map[float64]int)}
	distinct := make([]float64, 0, len(values))
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		distinct = append(distinct, v)
	}
	sort.Float64s(distinct)
	b.values = distinct
	for i, v := range distinct {
		b.lookup[v] = i
	}
	return b
}

func (b *valueBinner) count() int { return len(b.values) }

func (b *valueBinner) index(v float64) int { return b.lookup[v] }

func (b *valueBinner) label(i int) string {
	return strconv.FormatFloat(b.values[i], 'g', -1, 64)
}
