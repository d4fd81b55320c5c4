package params

import (
	"fmt"
	"sort"
	"strings"
)

// Validator constrains the values a parameter record accepts. Exactly one of
// Range, Choice, or When is set.
type Validator struct {
	Range  *RangeValidator  `json:"range,omitempty"`
	Choice *ChoiceValidator `json:"choice,omitempty"`
	When   *WhenValidator   `json:"when,omitempty"`
}

// RangeValidator bounds a numeric value inclusively. Level "warn" downgrades
// violations from errors to warnings.
type RangeValidator struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Level string  `json:"level,omitempty"`
}

// ChoiceValidator restricts a value to an explicit set.
type ChoiceValidator struct {
	Choices []interface{} `json:"choices"`
}

// WhenValidator selects between two validators depending on the current
// value of another parameter.
type WhenValidator struct {
	Param     string     `json:"param"`
	Is        interface{} `json:"is"`
	Then      *Validator `json:"then"`
	Otherwise *Validator `json:"otherwise"`
}

// RevisionError aggregates the problems found while validating a revision,
// keyed by parameter name. It implements error so a failed Adjust can be
// returned directly.
type RevisionError struct {
	Errors   map[string][]string `json:"errors"`
	Warnings map[string][]string `json:"warnings"`
}

// NewRevisionError returns an empty bundle.
func NewRevisionError() *RevisionError {
	return &RevisionError{
		Errors:   make(map[string][]string),
		Warnings: make(map[string][]string),
	}
}

func (re *RevisionError) addError(param, format string, args ...interface{}) {
	re.Errors[param] = append(re.Errors[param], fmt.Sprintf(format, args...))
}

func (re *RevisionError) addWarning(param, format string, args ...interface{}) {
	re.Warnings[param] = append(re.Warnings[param], fmt.Sprintf(format, args...))
}

// HasErrors reports whether any error-level problem was recorded.
func (re *RevisionError) HasErrors() bool {
	return len(re.Errors) > 0
}

// Error renders the bundle as one line per parameter, sorted for stable
// output.
func (re *RevisionError) Error() string {
	names := make([]string, 0, len(re.Errors))
	for name := range re.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(re.Errors[name], "; ")))
	}
	return "revision failed validation: " + strings.Join(parts, " | ")
}

// validate checks one proposed value against the validator, resolving any
// when-predicate against the lookup function (which must return the current
// value of the referenced parameter).
func (v *Validator) validate(param string, value interface{}, lookup func(string) (interface{}, bool), re *RevisionError) {
	switch {
	case v == nil:
		return
	case v.Range != nil:
		num, ok := toFloat(value)
		if !ok {
			re.addError(param, "value %v is not numeric", value)
			return
		}
		if num < v.Range.Min || num > v.Range.Max {
			if v.Range.Level == "warn" {
				re.addWarning(param, "value %v is outside the expected range [%v, %v]", value, v.Range.Min, v.Range.Max)
				return
			}
			re.addError(param, "value %v must lie in [%v, %v]", value, v.Range.Min, v.Range.Max)
		}
	case v.Choice != nil:
		for _, choice := range v.Choice.Choices {
			if equalValue(choice, value) {
				return
			}
		}
		re.addError(param, "value %v is not one of %v", value, v.Choice.Choices)
	case v.When != nil:
		other, ok := lookup(v.When.Param)
		if !ok {
			re.addError(param, "when-predicate references unknown parameter %q", v.When.Param)
			return
		}
		if equalValue(v.When.Is, other) {
			v.When.Then.validate(param, value, lookup, re)
		} else {
			v.When.Otherwise.validate(param, value, lookup, re)
		}
	}
}

// toFloat widens any JSON-decodable numeric to float64.
func toFloat(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// equalValue compares loosely-typed values, widening numerics so the JSON
// decoding of 1 and 1.0 compare equal.
func equalValue(a, b interface{}) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
		return false
	}
	return a == b
}
