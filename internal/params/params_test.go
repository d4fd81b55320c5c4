package params

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/iwvelando/capcost/pkg/constants"
	"github.com/iwvelando/capcost/pkg/mathutil"
)

func mustNew(t *testing.T, year int, opts ...Option) *Specification {
	t.Helper()
	s, err := New(year, opts...)
	if err != nil {
		t.Fatalf("New(%d) unexpected error: %v", year, err)
	}
	return s
}

func TestNewResolvesDefaults(t *testing.T) {
	s := mustNew(t, 2026)

	if s.CITRate != 0.21 {
		t.Errorf("CITRate = %v, expected 0.21 (post-2018 default)", s.CITRate)
	}
	if s.BonusDeprec["7"] != 0.2 {
		t.Errorf("BonusDeprec[7] = %v, expected the 2026 phase-down value 0.2", s.BonusDeprec["7"])
	}
	if s.BonusDeprec["39"] != 0.0 {
		t.Errorf("BonusDeprec[39] = %v, expected 0", s.BonusDeprec["39"])
	}
	if s.BonusDeprec[constants.BonusLandInventory] != 0.0 {
		t.Errorf("sentinel bonus = %v, expected 0", s.BonusDeprec[constants.BonusLandInventory])
	}
	if s.TauXCG != 0 {
		t.Errorf("TauXCG = %v, expected the constant 0", s.TauXCG)
	}
	if s.TaxMethods[constants.MethodDB200] != 2.0 || s.TaxMethods[constants.MethodDB150] != 1.5 {
		t.Errorf("TaxMethods = %v, expected DB multiples 2.0 and 1.5", s.TaxMethods)
	}
}

func TestNewYearBounds(t *testing.T) {
	if _, err := New(2012); err == nil {
		t.Error("New(2012) expected error, got nil")
	}
	if _, err := New(constants.TCLastYear + 1); err == nil {
		t.Error("New beyond the last supported year expected error, got nil")
	}
}

func TestEarlierYearResolvesEarlierLaw(t *testing.T) {
	s := mustNew(t, 2016)
	if s.CITRate != 0.35 {
		t.Errorf("CITRate at 2016 = %v, expected pre-2018 default 0.35", s.CITRate)
	}
	if s.BonusDeprec["5"] != 0.5 {
		t.Errorf("BonusDeprec[5] at 2016 = %v, expected 0.5", s.BonusDeprec["5"])
	}
}

func TestDerivedPassThroughSingleTaxation(t *testing.T) {
	s := mustNew(t, 2026)
	if s.PTEntityTaxInd {
		t.Fatal("default pt_entity_tax_ind should be false")
	}
	for _, flavor := range constants.Flavors {
		got := s.RPrime[constants.EntityPassThrough][flavor]
		want := s.S[constants.EntityPassThrough][flavor] + s.InflationRate
		if !mathutil.WithinTolerance(got, want, 1e-12) {
			t.Errorf("RPrime[pt][%s] = %v, expected s + inflation = %v", flavor, got, want)
		}
	}
}

func TestDerivedEntityTaxBranch(t *testing.T) {
	s := mustNew(t, 2026)
	_, err := s.Adjust(map[string][]YearValue{
		"pt_entity_tax_ind":  {{Year: 2026, Value: true}},
		"pt_entity_tax_rate": {{Year: 2026, Value: 0.21}},
	}, true)
	if err != nil {
		t.Fatalf("Adjust() unexpected error: %v", err)
	}
	if s.U[constants.EntityPassThrough] != 0.21 {
		t.Errorf("U[pt] = %v, expected the entity rate 0.21", s.U[constants.EntityPassThrough])
	}
	ptEquity := s.S[constants.EntityPassThrough][constants.FlavorEquity]
	corpEquity := s.S[constants.EntityCorp][constants.FlavorEquity]
	if !mathutil.WithinTolerance(ptEquity, corpEquity, 1e-12) {
		t.Errorf("S[pt][e] = %v, expected corporate equity return %v under entity taxation", ptEquity, corpEquity)
	}
}

func TestEntityTaxActiveAtZeroRate(t *testing.T) {
	// An entity tax at a zero rate is still an entity tax: the pass-through
	// after-tax return keeps the corporate-style path.
	s := mustNew(t, 2026)
	_, err := s.Adjust(map[string][]YearValue{
		"pt_entity_tax_ind": {{Year: 2026, Value: true}},
	}, true)
	if err != nil {
		t.Fatalf("Adjust() unexpected error: %v", err)
	}
	if s.U[constants.EntityPassThrough] != 0 {
		t.Errorf("U[pt] = %v, expected 0", s.U[constants.EntityPassThrough])
	}
	got := s.RPrime[constants.EntityPassThrough][constants.FlavorDebt]
	pinned := s.S[constants.EntityPassThrough][constants.FlavorDebt] + s.InflationRate
	if mathutil.WithinTolerance(got, pinned, 1e-12) {
		t.Error("RPrime[pt][d] still pinned to s + inflation; expected the corporate-style path")
	}
}

func TestNewViewForcesM(t *testing.T) {
	s := mustNew(t, 2026)
	baseline := s.S[constants.EntityCorp][constants.FlavorEquity]

	if _, err := s.Adjust(map[string][]YearValue{
		"new_view": {{Year: 2026, Value: true}},
		"m":        {{Year: 2026, Value: 0.1}},
	}, true); err != nil {
		t.Fatalf("Adjust() unexpected error: %v", err)
	}
	if s.M != 1 {
		t.Errorf("M = %v, expected forced to 1 under the new view", s.M)
	}
	if s.S[constants.EntityCorp][constants.FlavorEquity] == baseline {
		t.Error("corporate equity return unchanged; the dividend-tax term should have dropped")
	}
}

func TestAdjustUnknownParameter(t *testing.T) {
	s := mustNew(t, 2026)
	re, err := s.Adjust(map[string][]YearValue{
		"corporate_rate": {{Year: 2026, Value: 0.3}},
	}, true)
	if err == nil {
		t.Fatal("Adjust() expected error for unknown parameter")
	}
	msgs := re.Errors["corporate_rate"]
	if len(msgs) != 1 || !strings.Contains(msgs[0], "unknown parameter") {
		t.Errorf("errors = %v, expected an unknown-parameter message", msgs)
	}
}

func TestAdjustWrongType(t *testing.T) {
	s := mustNew(t, 2026)
	re, err := s.Adjust(map[string][]YearValue{
		"CIT_rate": {{Year: 2026, Value: "high"}},
	}, true)
	if err == nil {
		t.Fatal("Adjust() expected error for wrong type")
	}
	if msgs := re.Errors["CIT_rate"]; len(msgs) == 0 || !strings.Contains(msgs[0], "not float") {
		t.Errorf("errors = %v, expected a not-float message", msgs)
	}
}

func TestAdjustOutOfRange(t *testing.T) {
	s := mustNew(t, 2026)
	re, err := s.Adjust(map[string][]YearValue{
		"CIT_rate": {{Year: 2026, Value: 1.5}},
	}, true)
	if err == nil {
		t.Fatal("Adjust() expected error for out-of-range value")
	}
	if msgs := re.Errors["CIT_rate"]; len(msgs) == 0 || !strings.Contains(msgs[0], "[0, 1]") {
		t.Errorf("errors = %v, expected the range bounds in the message", msgs)
	}
}

func TestAdjustYearBounds(t *testing.T) {
	s := mustNew(t, 2026)
	_, err := s.Adjust(map[string][]YearValue{
		"CIT_rate": {{Year: 2050, Value: 0.3}},
	}, true)
	if err == nil {
		t.Fatal("Adjust() expected error for out-of-range year")
	}
}

func TestAdjustTransactional(t *testing.T) {
	s := mustNew(t, 2026)
	before := s.CITRate

	_, err := s.Adjust(map[string][]YearValue{
		"CIT_rate":       {{Year: 2026, Value: 0.28}},
		"inflation_rate": {{Year: 2026, Value: "fast"}},
	}, true)
	if err == nil {
		t.Fatal("Adjust() expected error")
	}
	if s.CITRate != before {
		t.Errorf("CITRate = %v after failed revision, expected unchanged %v", s.CITRate, before)
	}
}

func TestAdjustWhenValidator(t *testing.T) {
	s := mustNew(t, 2026)

	// With no entity-level tax, a nonzero entity rate is rejected.
	if _, err := s.Adjust(map[string][]YearValue{
		"pt_entity_tax_rate": {{Year: 2026, Value: 0.15}},
	}, true); err == nil {
		t.Error("Adjust() expected error for entity rate without entity tax")
	}

	// The same rate is valid when the indicator flips in the same revision.
	if _, err := s.Adjust(map[string][]YearValue{
		"pt_entity_tax_ind":  {{Year: 2026, Value: true}},
		"pt_entity_tax_rate": {{Year: 2026, Value: 0.15}},
	}, true); err != nil {
		t.Errorf("Adjust() unexpected error: %v", err)
	}
}

func TestAdjustShareSums(t *testing.T) {
	s := mustNew(t, 2026)
	re, err := s.Adjust(map[string][]YearValue{
		"omega_scg": {{Year: 2026, Value: 0.5}},
	}, true)
	if err == nil {
		t.Fatal("Adjust() expected error for shares not summing to 1")
	}
	if msgs := re.Errors["omega_scg"]; len(msgs) == 0 || !strings.Contains(msgs[0], "sum to 1") {
		t.Errorf("errors = %v, expected a sum-to-one message", msgs)
	}

	// Adjusting the whole family consistently is accepted.
	if _, err := s.Adjust(map[string][]YearValue{
		"omega_scg": {{Year: 2026, Value: 0.5}},
		"omega_lcg": {{Year: 2026, Value: 0.4}},
		"omega_xcg": {{Year: 2026, Value: 0.1}},
	}, true); err != nil {
		t.Errorf("Adjust() unexpected error: %v", err)
	}
}

func TestAdjustJSONRevision(t *testing.T) {
	s := mustNew(t, 2026)
	revision := `{"CIT_rate": [{"year": 2026, "value": 0.25}]}`
	if _, err := s.Adjust(revision, true); err != nil {
		t.Fatalf("Adjust() unexpected error: %v", err)
	}
	if s.CITRate != 0.25 {
		t.Errorf("CITRate = %v, expected 0.25", s.CITRate)
	}
}

func TestAdjustMalformedRevision(t *testing.T) {
	s := mustNew(t, 2026)
	if _, err := s.Adjust(42, true); err == nil {
		t.Error("Adjust(42) expected a fatal type error")
	}
	if _, err := s.Adjust("{not json", true); err == nil {
		t.Error("Adjust() with malformed JSON expected error")
	}
}

func TestAdjustRevertIsDriftFree(t *testing.T) {
	s := mustNew(t, 2026)
	origU := cloneEntityMap(s.U)
	origS := cloneNested(s.S)
	origR := cloneNested(s.R)
	origRPrime := cloneNested(s.RPrime)

	if _, err := s.Adjust(map[string][]YearValue{
		"CIT_rate": {{Year: 2026, Value: 0.3}},
	}, true); err != nil {
		t.Fatalf("Adjust() unexpected error: %v", err)
	}
	if _, err := s.Adjust(map[string][]YearValue{
		"CIT_rate": {{Year: 2026, Value: 0.21}},
	}, true); err != nil {
		t.Fatalf("Adjust() unexpected error: %v", err)
	}

	if !reflect.DeepEqual(s.U, origU) {
		t.Errorf("U drifted after revert: %v vs %v", s.U, origU)
	}
	if !reflect.DeepEqual(s.S, origS) {
		t.Errorf("S drifted after revert: %v vs %v", s.S, origS)
	}
	if !reflect.DeepEqual(s.R, origR) {
		t.Errorf("R drifted after revert: %v vs %v", s.R, origR)
	}
	if !reflect.DeepEqual(s.RPrime, origRPrime) {
		t.Errorf("RPrime drifted after revert: %v vs %v", s.RPrime, origRPrime)
	}
}

func TestWarningLevelRange(t *testing.T) {
	s := mustNew(t, 2026)
	re, err := s.Adjust(map[string][]YearValue{
		"inflation_rate": {{Year: 2026, Value: 0.5}},
	}, true)
	if err != nil {
		t.Fatalf("Adjust() unexpected error for warn-level range: %v", err)
	}
	if len(re.Warnings["inflation_rate"]) == 0 {
		t.Error("expected a warning for implausible inflation")
	}
	if s.InflationRate != 0.5 {
		t.Errorf("InflationRate = %v, expected the warned value 0.5 to commit", s.InflationRate)
	}
}

func TestDumpMaterializesYearChoices(t *testing.T) {
	s := mustNew(t, 2026)
	dump := s.Dump()
	rec, ok := dump["CIT_rate"]
	if !ok {
		t.Fatal("Dump() missing CIT_rate")
	}
	if len(rec.YearChoices) != constants.TCLastYear-constants.StartYear+1 {
		t.Errorf("YearChoices has %d entries, expected the clamped year window", len(rec.YearChoices))
	}
	if rec.YearChoices[0] != constants.StartYear || rec.YearChoices[len(rec.YearChoices)-1] != constants.TCLastYear {
		t.Errorf("YearChoices span %d..%d, expected %d..%d",
			rec.YearChoices[0], rec.YearChoices[len(rec.YearChoices)-1],
			constants.StartYear, constants.TCLastYear)
	}
}

func TestParamProbe(t *testing.T) {
	s := mustNew(t, 2026)
	v, err := s.Param("E_c")
	if err != nil {
		t.Fatalf("Param() unexpected error: %v", err)
	}
	if v.(float64) != 0.058 {
		t.Errorf("Param(E_c) = %v, expected 0.058", v)
	}

	// SetParam bypasses validation entirely but still recomputes derived
	// constants.
	if err := s.SetParam("CIT_rate", 0.99); err != nil {
		t.Fatalf("SetParam() unexpected error: %v", err)
	}
	if s.U[constants.EntityCorp] != 0.99 {
		t.Errorf("U[c] = %v after SetParam, expected 0.99", s.U[constants.EntityCorp])
	}
	if _, err := s.Param("no_such"); err == nil {
		t.Error("Param(no_such) expected error")
	}
}

func TestRevisionWarningsErrors(t *testing.T) {
	re, err := RevisionWarningsErrors(2026, map[string][]YearValue{
		"CIT_rate":       {{Year: 2026, Value: 2.0}},
		"inflation_rate": {{Year: 2026, Value: 0.5}},
	})
	if err != nil {
		t.Fatalf("RevisionWarningsErrors() unexpected error: %v", err)
	}
	if len(re.Errors["CIT_rate"]) == 0 {
		t.Error("expected an error for CIT_rate")
	}
	if len(re.Warnings["inflation_rate"]) == 0 {
		t.Error("expected a warning for inflation_rate")
	}
}

func TestAnnualizedGainDegenerate(t *testing.T) {
	if got := annualizedGain(0.2, 0, 0.02, 0.05); !math.IsNaN(got) {
		t.Errorf("annualizedGain() with zero holding period = %v, expected NaN", got)
	}
}

func cloneEntityMap(in map[constants.Entity]float64) map[constants.Entity]float64 {
	out := make(map[constants.Entity]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneNested(in map[constants.Entity]map[constants.Flavor]float64) map[constants.Entity]map[constants.Flavor]float64 {
	out := make(map[constants.Entity]map[constants.Flavor]float64, len(in))
	for k, inner := range in {
		out[k] = make(map[constants.Flavor]float64, len(inner))
		for kk, v := range inner {
			out[k][kk] = v
		}
	}
	return out
}
