// Package validation provides shared validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/capcost/pkg/constants"
)

// ValidateOutputFormat checks whether the requested output format is
// supported.
func ValidateOutputFormat(format string) error {
	for _, f := range constants.OutputFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid output format %q; supported formats are %v",
		format, constants.OutputFormats)
}

// ValidateOutputVariable checks whether the requested output variable is one
// of the reportable measures.
func ValidateOutputVariable(variable string) error {
	for _, v := range constants.OutputVariables {
		if variable == v {
			return nil
		}
	}
	return fmt.Errorf("invalid output variable %q; supported variables are %v",
		variable, constants.OutputVariables)
}

// ValidateRate checks that a rate-like value lies in [0, 1].
func ValidateRate(name string, value float64) error {
	if value < 0 || value > 1 {
		return fmt.Errorf("%s must lie in [0, 1], got %v", name, value)
	}
	return nil
}
