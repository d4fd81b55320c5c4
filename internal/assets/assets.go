// Package assets loads the asset fact table: one row per (BEA asset, BEA
// industry, tax treatment, entity type, partner type) carrying the dollar
// investment stock and the economic depreciation rate. The calculation
// engines annotate rows in place; the table is the only mutable container in
// the system and is scoped to one engine.
package assets

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/iwvelando/capcost/pkg/constants"
	"github.com/iwvelando/capcost/pkg/validation"
)

//go:embed sample_data.csv
var sampleCSV string

// FlavorValues holds one measure per financing flavor.
type FlavorValues struct {
	Mix    float64
	Debt   float64
	Equity float64
}

// Get returns the value for a financing flavor.
func (f FlavorValues) Get(flavor constants.Flavor) float64 {
	switch flavor {
	case constants.FlavorDebt:
		return f.Debt
	case constants.FlavorEquity:
		return f.Equity
	default:
		return f.Mix
	}
}

// Set stores the value for a financing flavor.
func (f *FlavorValues) Set(flavor constants.Flavor, v float64) {
	switch flavor {
	case constants.FlavorDebt:
		f.Debt = v
	case constants.FlavorEquity:
		f.Equity = v
	default:
		f.Mix = v
	}
}

// Record is one row of the fact table. The identifier and stock fields come
// from the input file; the remaining fields are populated by the
// depreciation and cost-of-capital engines.
type Record struct {
	BEAAssetCode    string
	BEAIndCode      string
	TaxTreat        string
	EntityType      string
	PartType        string
	Assets          float64
	Delta           float64
	AssetName       string
	MinorAssetGroup string
	MajorAssetGroup string
	Industry        string
	MajorIndustry   string

	// Populated by the depreciation engine.
	System string
	Method constants.Method
	B      float64 // declining-balance multiple; NaN when the method has none
	Bonus  float64
	Life   float64 // applicable tax life (Y)

	// Populated by the depreciation and cost-of-capital engines.
	Z        FlavorValues
	Rho      FlavorValues
	UCC      FlavorValues
	METR     FlavorValues
	METTR    FlavorValues
	TaxWedge FlavorValues
	EATR     FlavorValues
}

// Entity maps the row's tax treatment onto the parameter entity key. The
// owner-occupied housing treatment follows the pass-through branch.
func (r *Record) Entity() constants.Entity {
	if r.TaxTreat == constants.TreatCorporate {
		return constants.EntityCorp
	}
	return constants.EntityPassThrough
}

// Table is the working fact table.
type Table []Record

// Clone deep-copies the table for checkpointing.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	copy(out, t)
	return out
}

// requiredColumns must all be present in the input header.
var requiredColumns = []string{
	"bea_asset_code", "bea_ind_code", "tax_treat", "entity_type",
	"part_type", "assets", "delta", "asset_name", "Industry",
}

// Load reads the fact table from a delimited file.
func Load(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening asset table %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Read(f)
}

// LoadSample returns the embedded sample fact table.
func LoadSample() (Table, error) {
	return Read(strings.NewReader(sampleCSV))
}

// Read parses a comma-delimited fact table with a header row. Optional
// presentation columns (minor/major asset group, major industry) may be
// absent; the required identifier columns may not.
func Read(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading asset table: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("asset table has no data rows")
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("asset table is missing required column %q", col)
		}
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	table := make(Table, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		rec := Record{
			BEAAssetCode:    field(row, "bea_asset_code"),
			BEAIndCode:      field(row, "bea_ind_code"),
			TaxTreat:        field(row, "tax_treat"),
			EntityType:      field(row, "entity_type"),
			PartType:        field(row, "part_type"),
			AssetName:       field(row, "asset_name"),
			MinorAssetGroup: field(row, "minor_asset_group"),
			MajorAssetGroup: field(row, "major_asset_group"),
			Industry:        field(row, "Industry"),
			MajorIndustry:   field(row, "major_industry"),
		}

		rec.Assets, err = strconv.ParseFloat(field(row, "assets"), 64)
		if err != nil {
			return nil, fmt.Errorf("asset table line %d: assets: %w", line, err)
		}
		rec.Delta, err = strconv.ParseFloat(field(row, "delta"), 64)
		if err != nil {
			return nil, fmt.Errorf("asset table line %d: delta: %w", line, err)
		}

		if err := rec.validate(); err != nil {
			return nil, fmt.Errorf("asset table line %d: %w", line, err)
		}
		table = append(table, rec)
	}
	return table, nil
}

func (r *Record) validate() error {
	if r.Assets < 0 {
		return fmt.Errorf("assets %v must be nonnegative", r.Assets)
	}
	if err := validation.ValidateRate("delta", r.Delta); err != nil {
		return err
	}
	switch r.TaxTreat {
	case constants.TreatCorporate, constants.TreatNonCorporate, constants.TreatOwnerHousing:
	default:
		return fmt.Errorf("tax_treat %q is not one of [%s %s %s]", r.TaxTreat,
			constants.TreatCorporate, constants.TreatNonCorporate, constants.TreatOwnerHousing)
	}
	valid := false
	for _, et := range constants.EntityTypes {
		if r.EntityType == et {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("entity_type %q is not one of %v", r.EntityType, constants.EntityTypes)
	}
	if (r.AssetName == constants.AssetLand || r.AssetName == constants.AssetInventories) && r.Delta != 0 {
		return fmt.Errorf("%s must carry zero economic depreciation, got %v", r.AssetName, r.Delta)
	}
	return nil
}
