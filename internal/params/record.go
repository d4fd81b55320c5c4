package params

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/iwvelando/capcost/pkg/constants"
)

// YearValue is one entry of a parameter's time series.
type YearValue struct {
	Year  int         `json:"year"`
	Value interface{} `json:"value"`
}

// Record is one named parameter: metadata, default time series, and
// validation.
type Record struct {
	Name        string      `json:"-"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Type        string      `json:"type"` // float, int, bool, string, map
	Values      []YearValue `json:"value"`
	Validator   *Validator  `json:"validators,omitempty"`
}

// valueAt resolves the record to the last entry at or before year. The time
// series is kept sorted by loadCatalog.
func (r *Record) valueAt(year int) (interface{}, bool) {
	var out interface{}
	found := false
	for _, yv := range r.Values {
		if yv.Year > year {
			break
		}
		out, found = yv.Value, true
	}
	return out, found
}

// setValue inserts or replaces the entry for year, keeping the series
// sorted.
func (r *Record) setValue(year int, value interface{}) {
	for i, yv := range r.Values {
		if yv.Year == year {
			r.Values[i].Value = value
			return
		}
	}
	r.Values = append(r.Values, YearValue{Year: year, Value: value})
	sort.Slice(r.Values, func(i, j int) bool { return r.Values[i].Year < r.Values[j].Year })
}

// checkType verifies a proposed value against the record's declared type.
func (r *Record) checkType(value interface{}) error {
	switch r.Type {
	case "float", "int":
		if _, ok := toFloat(value); !ok {
			return fmt.Errorf("not %s", r.Type)
		}
	case "bool":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("not bool")
		}
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("not string")
		}
	case "map":
		switch value.(type) {
		case map[string]interface{}, map[string]float64:
		default:
			return fmt.Errorf("not map")
		}
	default:
		return fmt.Errorf("record %s has unknown type %q", r.Name, r.Type)
	}
	return nil
}

// loadCatalog decodes an embedded defaults document into named records with
// sorted time series.
func loadCatalog(raw []byte) (map[string]*Record, error) {
	var decoded map[string]*Record
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("malformed defaults catalog: %w", err)
	}
	for name, rec := range decoded {
		rec.Name = name
		sort.Slice(rec.Values, func(i, j int) bool { return rec.Values[i].Year < rec.Values[j].Year })
	}
	return decoded, nil
}

// DumpRecord is the materialized view of one record produced by Dump.
type DumpRecord struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Type        string      `json:"type"`
	Values      []YearValue `json:"value"`
	Validator   *Validator  `json:"validators,omitempty"`
	YearChoices []int       `json:"year_choices"`
}

// dumpYears materializes the year-range validator as an explicit choice
// list, clamped to the supported window.
func dumpYears() []int {
	years := make([]int, 0, constants.TCLastYear-constants.StartYear+1)
	for y := constants.StartYear; y <= constants.TCLastYear; y++ {
		years = append(years, y)
	}
	return years
}
