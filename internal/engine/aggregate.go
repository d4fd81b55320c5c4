package engine

import (
	"fmt"

	"github.com/iwvelando/capcost/internal/assets"
	"github.com/iwvelando/capcost/pkg/constants"
	"github.com/iwvelando/capcost/pkg/mathutil"
)

// Grouping levels for the two roll-up axes.
const (
	LevelAssetName  = "asset_name"
	LevelMinorGroup = "minor_asset_group"
	LevelMajorGroup = "major_asset_group"
	LevelIndustry   = "industry"
	LevelMajorInd   = "major_industry"
	LevelOverall    = "overall"
)

// OverallLabel names the cross-group total row at each axis.
const OverallLabel = "Overall"

// GroupOptions controls which rows enter a roll-up. The filters match on
// asset identity, so excluding land drops the owner-occupied housing land
// row as well.
type GroupOptions struct {
	IncludeLand        bool
	IncludeInventories bool
}

// GroupedRow is one aggregate: the record carries the asset-weighted means
// and re-derived measures, Level names the grouping granularity, and Label
// names the group.
type GroupedRow struct {
	assets.Record
	Level string
	Label string
}

// GroupedTable is the result of a roll-up along one axis.
type GroupedTable []GroupedRow

// Find returns the first row matching a treatment, level, and label.
func (t GroupedTable) Find(treatment, level, label string) (GroupedRow, bool) {
	for _, row := range t {
		if row.TaxTreat == treatment && row.Level == level && row.Label == label {
			return row, true
		}
	}
	return GroupedRow{}, false
}

// CalcByAsset rolls the fact table up along the asset axis: individual
// assets, minor groups, major groups, and an overall total, each within a
// tax treatment, plus a cross-treatment overall row.
func (c *Calculator) CalcByAsset(opts GroupOptions) (GroupedTable, error) {
	return c.rollUp(opts, []axisLevel{
		{LevelAssetName, func(r *assets.Record) string { return r.AssetName }},
		{LevelMinorGroup, func(r *assets.Record) string { return r.MinorAssetGroup }},
		{LevelMajorGroup, func(r *assets.Record) string { return r.MajorAssetGroup }},
	})
}

// CalcByIndustry rolls the fact table up along the industry axis:
// individual industries, major industries, and an overall total, each
// within a tax treatment, plus a cross-treatment overall row.
func (c *Calculator) CalcByIndustry(opts GroupOptions) (GroupedTable, error) {
	return c.rollUp(opts, []axisLevel{
		{LevelIndustry, func(r *assets.Record) string { return r.Industry }},
		{LevelMajorInd, func(r *assets.Record) string { return r.MajorIndustry }},
	})
}

type axisLevel struct {
	name  string
	label func(r *assets.Record) string
}

func (c *Calculator) rollUp(opts GroupOptions, levels []axisLevel) (GroupedTable, error) {
	if !c.allDone {
		if err := c.CalcAll(); err != nil {
			return nil, err
		}
	}

	rows := c.filtered(opts)
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows left to aggregate after filtering")
	}

	treatments := []string{}
	seen := map[string]bool{}
	for i := range rows {
		if !seen[rows[i].TaxTreat] {
			seen[rows[i].TaxTreat] = true
			treatments = append(treatments, rows[i].TaxTreat)
		}
	}

	var out GroupedTable
	for _, treatment := range treatments {
		subset := selectRows(rows, func(r *assets.Record) bool { return r.TaxTreat == treatment })
		for _, level := range levels {
			out = append(out, c.groupBy(subset, treatment, level)...)
		}
		total := c.aggregate(subset, entityForTreatment(treatment))
		total.TaxTreat = treatment
		out = append(out, GroupedRow{Record: total, Level: LevelOverall, Label: OverallLabel})
	}

	// The cross-treatment total uses the corporate tax parameters.
	grand := c.aggregate(rows, constants.EntityCorp)
	grand.TaxTreat = constants.TreatAll
	out = append(out, GroupedRow{Record: grand, Level: LevelOverall, Label: OverallLabel})
	return out, nil
}

func (c *Calculator) groupBy(rows []*assets.Record, treatment string, level axisLevel) GroupedTable {
	order := []string{}
	groups := map[string][]*assets.Record{}
	for _, r := range rows {
		label := level.label(r)
		if label == "" {
			continue
		}
		if _, ok := groups[label]; !ok {
			order = append(order, label)
		}
		groups[label] = append(groups[label], r)
	}

	var out GroupedTable
	for _, label := range order {
		agg := c.aggregate(groups[label], entityForTreatment(treatment))
		agg.TaxTreat = treatment
		out = append(out, GroupedRow{Record: agg, Level: level.name, Label: label})
	}
	return out
}

// aggregate collapses a row set into one record: the asset stock is summed,
// delta, tax life, z, and rho are asset-weighted means, and the derived
// measures are recomputed from the aggregate rho under the given entity's
// tax parameters.
func (c *Calculator) aggregate(rows []*assets.Record, entity constants.Entity) assets.Record {
	weights := make([]float64, len(rows))
	for i, r := range rows {
		weights[i] = r.Assets
	}

	var agg assets.Record
	agg.Assets = mathutil.Sum(weights)
	agg.Delta = weightedField(rows, weights, func(r *assets.Record) float64 { return r.Delta })
	agg.Life = weightedField(rows, weights, func(r *assets.Record) float64 { return r.Life })
	for _, flavor := range constants.Flavors {
		agg.Z.Set(flavor, weightedField(rows, weights, func(r *assets.Record) float64 { return r.Z.Get(flavor) }))
		agg.Rho.Set(flavor, weightedField(rows, weights, func(r *assets.Record) float64 { return r.Rho.Get(flavor) }))
	}
	c.measures(&agg, entity)
	return agg
}

func weightedField(rows []*assets.Record, weights []float64, field func(r *assets.Record) float64) float64 {
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = field(r)
	}
	return mathutil.WeightedMean(values, weights)
}

func (c *Calculator) filtered(opts GroupOptions) []*assets.Record {
	return selectRows(tablePtrs(c.table), func(r *assets.Record) bool {
		if !opts.IncludeLand && r.AssetName == constants.AssetLand {
			return false
		}
		if !opts.IncludeInventories && r.AssetName == constants.AssetInventories {
			return false
		}
		return true
	})
}

func tablePtrs(t assets.Table) []*assets.Record {
	out := make([]*assets.Record, len(t))
	for i := range t {
		out[i] = &t[i]
	}
	return out
}

func selectRows(rows []*assets.Record, keep func(r *assets.Record) bool) []*assets.Record {
	var out []*assets.Record
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func entityForTreatment(treatment string) constants.Entity {
	if treatment == constants.TreatCorporate || treatment == constants.TreatAll {
		return constants.EntityCorp
	}
	return constants.EntityPassThrough
}
