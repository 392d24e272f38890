package metrics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Observation pairs a normalized binary label with a model value.
// Label is 1 for the bad/positive outcome, 0 for the good/negative one.
// Value is a predicted probability for KS/ROC/Lift/PR, or a score for PSI.
type Observation struct {
	Label int
	Value float64
}

// NormalizeLabel coerces a raw label of arbitrary scalar type onto {0,1}.
// A label maps to 1 when its textual representation contains "bad" or equals
// "1" (case-sensitive), to 0 otherwise. ok is false for missing labels
// (nil, NaN, empty string), which callers must drop before any computation.
func NormalizeLabel(raw any) (label int, ok bool, err error) {
	var s string
	switch v := raw.(type) {
	case nil:
		return 0, false, nil
	case string:
		s = v
	case bool:
		s = strconv.FormatBool(v)
	case int:
		s = strconv.Itoa(v)
	case int32:
		s = strconv.FormatInt(int64(v), 10)
	case int64:
		s = strconv.FormatInt(v, 10)
	case float32:
		if math.IsNaN(float64(v)) {
			return 0, false, nil
		}
		s = strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		if math.IsNaN(v) {
			return 0, false, nil
		}
		s = strconv.FormatFloat(v, 'g', -1, 64)
	case fmt.Stringer:
		s = v.String()
	default:
		return 0, false, invalidInputf("label is not a scalar: %T", raw)
	}

	if s == "" {
		return 0, false, nil
	}
	if s == "1" || strings.Contains(s, "bad") {
		return 1, true, nil
	}
	return 0, true, nil
}

// MakeObservations zips raw labels with values, normalizing labels and
// dropping pairs whose original label is missing.
func MakeObservations(labels []any, values []float64) ([]Observation, error) {
	if len(labels) != len(values) {
		return nil, invalidInputf("label and value lengths differ: %d != %d", len(labels), len(values))
	}

	obs := make([]Observation, 0, len(labels))
	for i, raw := range labels {
		label, ok, err := NormalizeLabel(raw)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		obs = append(obs, Observation{Label: label, Value: values[i]})
	}

	if len(obs) == 0 {
		return nil, degenerateInputf("no observations left after dropping missing labels")
	}
	return obs, nil
}

func countLabels(obs []Observation) (goods, bads int) {
	for _, o := range obs {
		if o.Label == 1 {
			bads++
		} else {
			goods++
		}
	}
	return
}
