package metrics

import "fmt"

// InvalidInputError indicates a shape problem in caller-supplied data:
// unequal sequence lengths, mismatched variable sets across populations,
// non-scalar labels, or non-positive group counts and bin widths.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

func invalidInputf(format string, args ...any) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

// DegenerateInputError indicates input that is well-formed but statistically
// undefined: a single-class label set for ROC/AUC, or nothing left after
// dropping observations with missing labels.
type DegenerateInputError struct {
	Reason string
}

func (e *DegenerateInputError) Error() string {
	return "degenerate input: " + e.Reason
}

func degenerateInputf(format string, args ...any) error {
	return &DegenerateInputError{Reason: fmt.Sprintf(format, args...)}
}

// ArithmeticDomainError indicates a numeric argument outside the domain of
// the computation, e.g. a NaN score range. Zero shares inside the PSI sum are
// not reported through this type; they fall under the zero-contribution
// convention instead.
type ArithmeticDomainError struct {
	Reason string
}

func (e *ArithmeticDomainError) Error() string {
	return "arithmetic domain: " + e.Reason
}

func arithmeticDomainf(format string, args ...any) error {
	return &ArithmeticDomainError{Reason: fmt.Sprintf(format, args...)}
}
