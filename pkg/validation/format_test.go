package validation

import "testing"

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		expectErr bool
	}{
		{name: "Pretty format", format: "pretty", expectErr: false},
		{name: "CSV format", format: "csv", expectErr: false},
		{name: "Excel format", format: "excel", expectErr: false},
		{name: "Tex format", format: "tex", expectErr: false},
		{name: "JSON format", format: "json", expectErr: false},
		{name: "HTML format", format: "html", expectErr: false},
		{name: "Unknown format", format: "parquet", expectErr: true},
		{name: "Empty format", format: "", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateOutputFormat(%q) error = %v, expectErr %v",
					tt.format, err, tt.expectErr)
			}
		})
	}
}

func TestValidateOutputVariable(t *testing.T) {
	for _, variable := range []string{"metr", "mettr", "rho", "ucc", "z", "delta", "tax_wedge", "eatr"} {
		if err := ValidateOutputVariable(variable); err != nil {
			t.Errorf("ValidateOutputVariable(%q) unexpected error: %v", variable, err)
		}
	}
	if err := ValidateOutputVariable("npv"); err == nil {
		t.Error("ValidateOutputVariable(\"npv\") expected error, got nil")
	}
}

func TestValidateRate(t *testing.T) {
	if err := ValidateRate("CIT_rate", 0.21); err != nil {
		t.Errorf("ValidateRate(0.21) unexpected error: %v", err)
	}
	if err := ValidateRate("CIT_rate", 1.2); err == nil {
		t.Error("ValidateRate(1.2) expected error, got nil")
	}
	if err := ValidateRate("CIT_rate", -0.1); err == nil {
		t.Error("ValidateRate(-0.1) expected error, got nil")
	}
}
