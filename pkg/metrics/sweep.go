package metrics

import (
	"math"
	"sort"
)

// ConfusionPoint is the confusion matrix at one threshold, predicting
// positive for every value strictly above Threshold. Points are emitted one
// per distinct value, ascending. TP+FN and TN+FP stay constant across points.
type ConfusionPoint struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
	TP        int     `json:"tp" yaml:"tp"`
	FP        int     `json:"fp" yaml:"fp"`
	TN        int     `json:"tn" yaml:"tn"`
	FN        int     `json:"fn" yaml:"fn"`
	TPR       float64 `json:"tpr" yaml:"tpr"`
	FPR       float64 `json:"fpr" yaml:"fpr"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
}

// SweepResult holds the threshold sweep feeding ROC, AUC and Precision-Recall.
type SweepResult struct {
	Points    []ConfusionPoint `json:"points" yaml:"points"`
	AUC       float64          `json:"auc" yaml:"auc"`
	BreakEven float64          `json:"break_even" yaml:"break_even"`
	Positives int              `json:"positives" yaml:"positives"`
	Negatives int              `json:"negatives" yaml:"negatives"`
}

// ConfusionSweep walks a threshold over the distinct observation values in
// ascending order, collapsing tied values into a single point, and derives
// ROC/PR rates plus the trapezoidal AUC. The trapezoid runs from the implicit
// all-positive start (TPR=1, FPR=1) down to the final point, which is always
// (0, 0); on tie-free data this matches the step-curve sum, and on tied data
// it matches the Mann-Whitney rank estimator, which grants half credit to
// cross-class ties.
func ConfusionSweep(obs []Observation) (*SweepResult, error) {
	if len(obs) == 0 {
		return nil, degenerateInputf("no observations to sweep")
	}

	goods, bads := countLabels(obs)
	if goods == 0 || bads == 0 {
		return nil, degenerateInputf("roc/auc undefined without both label classes")
	}

	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Value < sorted[j].Value
	})

	res := &SweepResult{
		Positives: bads,
		Negatives: goods,
	}

	var fn, tn int
	flush := func(threshold float64, pos, neg int) {
		fn += pos
		tn += neg
		tp := bads - fn
		fp := goods - tn

		p := ConfusionPoint{
			Threshold: threshold,
			TP:        tp,
			FP:        fp,
			TN:        tn,
			FN:        fn,
			TPR:       float64(tp) / float64(bads),
			FPR:       float64(fp) / float64(goods),
			Recall:    float64(tp) / float64(bads),
		}
		if tp+fp > 0 {
			p.Precision = float64(tp) / float64(tp+fp)
		} else {
			p.Precision = math.NaN()
		}
		res.Points = append(res.Points, p)
	}

	cur := sorted[0].Value
	var pos, neg int
	for _, o := range sorted {
		if o.Value != cur {
			flush(cur, pos, neg)
			cur = o.Value
			pos, neg = 0, 0
		}
		if o.Label == 1 {
			pos++
		} else {
			neg++
		}
	}
	flush(cur, pos, neg)

	prevTPR, prevFPR := 1.0, 1.0
	for _, p := range res.Points {
		res.AUC += (prevTPR + p.TPR) / 2 * (prevFPR - p.FPR)
		prevTPR, prevFPR = p.TPR, p.FPR
	}

	res.BreakEven = breakEven(res.Points)
	return res, nil
}

// breakEven returns the recall at the point where precision and recall are
// closest to equal. Points with undefined precision are skipped.
func breakEven(points []ConfusionPoint) float64 {
	best := math.Inf(1)
	var recall float64
	for _, p := range points {
		if math.IsNaN(p.Precision) {
			continue
		}
		if gap := math.Abs(p.Precision - p.Recall); gap < best {
			best = gap
			recall = p.Recall
		}
	}
	return recall
}
