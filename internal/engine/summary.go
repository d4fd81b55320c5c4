package engine

import (
	"fmt"

	"github.com/iwvelando/capcost/pkg/constants"
)

// SummaryRow is one line of a baseline/reform comparison. Rate variables are
// pre-scaled to percentage points; Change is reform minus baseline.
type SummaryRow struct {
	Label    string  `json:"label"`
	Baseline float64 `json:"baseline"`
	Reform   float64 `json:"reform"`
	Change   float64 `json:"change"`
}

// Summary is a labelled baseline/reform comparison table for one output
// variable.
type Summary struct {
	Variable string       `json:"variable"`
	Rows     []SummaryRow `json:"rows"`
}

// rateVariables lists the output variables rendered in percentage points.
var rateVariables = map[string]bool{
	"metr":      true,
	"mettr":     true,
	"rho":       true,
	"ucc":       true,
	"tax_wedge": true,
	"eatr":      true,
}

// variableValue pulls one output variable for one financing flavor out of a
// grouped row.
func variableValue(row GroupedRow, variable string, flavor constants.Flavor) (float64, error) {
	switch variable {
	case "metr":
		return row.METR.Get(flavor), nil
	case "mettr":
		return row.METTR.Get(flavor), nil
	case "rho":
		return row.Rho.Get(flavor), nil
	case "ucc":
		return row.UCC.Get(flavor), nil
	case "tax_wedge":
		return row.TaxWedge.Get(flavor), nil
	case "eatr":
		return row.EATR.Get(flavor), nil
	case "z":
		return row.Z.Get(flavor), nil
	case "delta":
		return row.Delta, nil
	}
	return 0, fmt.Errorf("unknown output variable %q", variable)
}

// SummaryTable compares this calculator (baseline) against a reform
// calculator for one output variable: an overall row, then each tax
// treatment's mixed-financing total with its equity- and debt-financed
// breakdowns.
func (c *Calculator) SummaryTable(reform *Calculator, variable string, opts GroupOptions) (*Summary, error) {
	base, ref, err := pairedAssetTables(c, reform, opts)
	if err != nil {
		return nil, err
	}

	scale := 1.0
	if rateVariables[variable] {
		scale = constants.PercentageMultiplier
	}

	diffRow := func(label, treatment string, flavor constants.Flavor) (SummaryRow, error) {
		b, ok := base.Find(treatment, LevelOverall, OverallLabel)
		if !ok {
			return SummaryRow{}, fmt.Errorf("baseline has no %s total", treatment)
		}
		r, ok := ref.Find(treatment, LevelOverall, OverallLabel)
		if !ok {
			return SummaryRow{}, fmt.Errorf("reform has no %s total", treatment)
		}
		bv, err := variableValue(b, variable, flavor)
		if err != nil {
			return SummaryRow{}, err
		}
		rv, err := variableValue(r, variable, flavor)
		if err != nil {
			return SummaryRow{}, err
		}
		return SummaryRow{
			Label:    label,
			Baseline: bv * scale,
			Reform:   rv * scale,
			Change:   (rv - bv) * scale,
		}, nil
	}

	layout := []struct {
		label     string
		treatment string
		flavor    constants.Flavor
	}{
		{"Overall Mean", constants.TreatAll, constants.FlavorMix},
		{"Corporations", constants.TreatCorporate, constants.FlavorMix},
		{"   Equity Financed", constants.TreatCorporate, constants.FlavorEquity},
		{"   Debt Financed", constants.TreatCorporate, constants.FlavorDebt},
		{"Pass-Through Entities", constants.TreatNonCorporate, constants.FlavorMix},
		{"   Equity Financed", constants.TreatNonCorporate, constants.FlavorEquity},
		{"   Debt Financed", constants.TreatNonCorporate, constants.FlavorDebt},
	}

	summary := &Summary{Variable: variable}
	for _, item := range layout {
		row, err := diffRow(item.label, item.treatment, item.flavor)
		if err != nil {
			return nil, err
		}
		summary.Rows = append(summary.Rows, row)
	}
	return summary, nil
}

// AssetSummaryTable compares the two regimes per major asset group: an
// overall row, then each tax treatment's total followed by its major-group
// breakdowns.
func (c *Calculator) AssetSummaryTable(reform *Calculator, variable string, opts GroupOptions) (*Summary, error) {
	base, ref, err := pairedAssetTables(c, reform, opts)
	if err != nil {
		return nil, err
	}
	return groupSummary(base, ref, variable, LevelMajorGroup)
}

// IndustrySummaryTable compares the two regimes per major industry.
func (c *Calculator) IndustrySummaryTable(reform *Calculator, variable string, opts GroupOptions) (*Summary, error) {
	base, err := c.CalcByIndustry(opts)
	if err != nil {
		return nil, err
	}
	ref, err := reform.CalcByIndustry(opts)
	if err != nil {
		return nil, err
	}
	return groupSummary(base, ref, variable, LevelMajorInd)
}

func pairedAssetTables(baseline, reform *Calculator, opts GroupOptions) (GroupedTable, GroupedTable, error) {
	base, err := baseline.CalcByAsset(opts)
	if err != nil {
		return nil, nil, err
	}
	ref, err := reform.CalcByAsset(opts)
	if err != nil {
		return nil, nil, err
	}
	return base, ref, nil
}

func groupSummary(base, ref GroupedTable, variable, level string) (*Summary, error) {
	scale := 1.0
	if rateVariables[variable] {
		scale = constants.PercentageMultiplier
	}

	summary := &Summary{Variable: variable}
	appendRow := func(label string, b, r GroupedRow) error {
		bv, err := variableValue(b, variable, constants.FlavorMix)
		if err != nil {
			return err
		}
		rv, err := variableValue(r, variable, constants.FlavorMix)
		if err != nil {
			return err
		}
		summary.Rows = append(summary.Rows, SummaryRow{
			Label:    label,
			Baseline: bv * scale,
			Reform:   rv * scale,
			Change:   (rv - bv) * scale,
		})
		return nil
	}

	bAll, ok := base.Find(constants.TreatAll, LevelOverall, OverallLabel)
	if !ok {
		return nil, fmt.Errorf("baseline has no overall total")
	}
	rAll, ok := ref.Find(constants.TreatAll, LevelOverall, OverallLabel)
	if !ok {
		return nil, fmt.Errorf("reform has no overall total")
	}
	if err := appendRow("Overall Mean", bAll, rAll); err != nil {
		return nil, err
	}

	sections := []struct {
		heading   string
		treatment string
	}{
		{"Corporations", constants.TreatCorporate},
		{"Pass-Through Entities", constants.TreatNonCorporate},
	}
	for _, section := range sections {
		bTotal, ok := base.Find(section.treatment, LevelOverall, OverallLabel)
		if !ok {
			continue
		}
		rTotal, ok := ref.Find(section.treatment, LevelOverall, OverallLabel)
		if !ok {
			return nil, fmt.Errorf("reform has no %s total", section.treatment)
		}
		if err := appendRow(section.heading, bTotal, rTotal); err != nil {
			return nil, err
		}
		for _, b := range base {
			if b.TaxTreat != section.treatment || b.Level != level {
				continue
			}
			r, ok := ref.Find(section.treatment, level, b.Label)
			if !ok {
				return nil, fmt.Errorf("reform has no %s group %q", section.treatment, b.Label)
			}
			if err := appendRow("   "+b.Label, b, r); err != nil {
				return nil, err
			}
		}
	}
	return summary, nil
}
