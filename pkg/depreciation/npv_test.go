package depreciation

import (
	"math"
	"testing"

	"github.com/iwvelando/capcost/pkg/constants"
	"github.com/iwvelando/capcost/pkg/mathutil"
)

func TestDBSL(t *testing.T) {
	tests := []struct {
		name     string
		in       Inputs
		expected float64
	}{
		{
			name:     "10-year DB 150% with partial bonus",
			in:       Inputs{Life: 10, Multiple: 1.5, Bonus: 0.4, R: 0.03},
			expected: 0.924042198,
		},
		{
			name:     "Full bonus dominates",
			in:       Inputs{Life: 10, Multiple: 2.0, Bonus: 1.0, R: 0.03},
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DBSL(tt.in)
			if !mathutil.WithinTolerance(got, tt.expected, constants.ScenarioTolerance) {
				t.Errorf("DBSL() = %.9f, expected %.9f", got, tt.expected)
			}
		})
	}
}

func TestDBSLDegenerateLife(t *testing.T) {
	got := DBSL(Inputs{Life: 0, Multiple: 2.0, Bonus: 0, R: 0.03})
	if !math.IsNaN(got) {
		t.Errorf("DBSL() with zero life = %v, expected NaN", got)
	}
}

func TestStraightLine(t *testing.T) {
	tests := []struct {
		name     string
		in       Inputs
		expected float64
	}{
		{
			name:     "10-year SL with bonus",
			in:       Inputs{Life: 10, Bonus: 0.4, R: 0.12},
			expected: 0.749402894,
		},
		{
			name:     "No bonus",
			in:       Inputs{Life: 10, Bonus: 0, R: 0.12},
			expected: (1 - math.Exp(-1.2)) / 1.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StraightLine(tt.in)
			if !mathutil.WithinTolerance(got, tt.expected, constants.ScenarioTolerance) {
				t.Errorf("StraightLine() = %.9f, expected %.9f", got, tt.expected)
			}
		})
	}
}

func TestEconomic(t *testing.T) {
	got := Economic(Inputs{Delta: 0.1, Bonus: 0.4, R: 0.12, Pi: 0.03})
	expected := 0.715789474
	if !mathutil.WithinTolerance(got, expected, constants.ScenarioTolerance) {
		t.Errorf("Economic() = %.9f, expected %.9f", got, expected)
	}
}

func TestEconomicDegenerate(t *testing.T) {
	// delta + r - pi == 0 must surface NaN, not Inf.
	got := Economic(Inputs{Delta: 0.1, Bonus: 0, R: 0.03, Pi: 0.13})
	if !math.IsNaN(got) {
		t.Errorf("Economic() with zero denominator = %v, expected NaN", got)
	}
}

func TestExpensing(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
	}{
		{name: "Typical inputs", in: Inputs{Life: 7, Bonus: 0.5, R: 0.05}},
		{name: "Extreme discount rate", in: Inputs{Life: 39, Bonus: 0, R: 0.9}},
		{name: "Zero life", in: Inputs{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Expensing(tt.in); got != 1.0 {
				t.Errorf("Expensing() = %v, expected 1", got)
			}
		})
	}
}

func TestIncomeForecast(t *testing.T) {
	in := Inputs{Life: 10, Delta: 0.15, Bonus: 0.4, R: 0.03}
	got := IncomeForecast(in)
	// Same functional form as DBSL with delta in place of the DB rate;
	// delta*Y = 1.5 here, so it matches the DB 150% result exactly.
	want := DBSL(Inputs{Life: 10, Multiple: 1.5, Bonus: 0.4, R: 0.03})
	if !mathutil.WithinTolerance(got, want, 1e-12) {
		t.Errorf("IncomeForecast() = %.9f, expected %.9f", got, want)
	}
}

func TestByMethodDispatch(t *testing.T) {
	in := Inputs{Life: 10, Multiple: 1.5, Bonus: 0.4, Delta: 0.1, R: 0.03, Pi: 0.02}
	for _, method := range constants.Methods {
		fn, ok := ByMethod[method]
		if !ok {
			t.Fatalf("no dispatch entry for method %q", method)
		}
		if got := fn(in); math.IsNaN(got) {
			t.Errorf("method %q produced NaN for well-formed inputs", method)
		}
	}
}
