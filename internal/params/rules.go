package params

import (
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/iwvelando/capcost/pkg/constants"
	"go.uber.org/zap"
)

//go:embed rules.json
var rulesJSON []byte

// RuleValue is the year-indexed value object of one depreciation rule.
type RuleValue struct {
	System  string           `json:"system"`
	GDSLife float64          `json:"GDS_life"`
	ADSLife float64          `json:"ADS_life"`
	Method  constants.Method `json:"method"`
}

// Life returns the applicable tax life given the rule's recovery system.
func (v RuleValue) Life() float64 {
	if v.System == constants.SystemADS {
		return v.ADSLife
	}
	return v.GDSLife
}

// RuleYearValue is one entry of a rule's time series.
type RuleYearValue struct {
	Year  int       `json:"year"`
	Value RuleValue `json:"value"`
}

// RuleRecord is the catalog entry for one BEA asset.
type RuleRecord struct {
	BEACode         string          `json:"-"`
	AssetName       string          `json:"asset_name"`
	MinorAssetGroup string          `json:"minor_asset_group"`
	MajorAssetGroup string          `json:"major_asset_group"`
	Values          []RuleYearValue `json:"value"`
}

func (r *RuleRecord) valueAt(year int) (RuleValue, bool) {
	var out RuleValue
	found := false
	for _, yv := range r.Values {
		if yv.Year > year {
			break
		}
		out, found = yv.Value, true
	}
	return out, found
}

func (r *RuleRecord) setValue(year int, value RuleValue) {
	for i, yv := range r.Values {
		if yv.Year == year {
			r.Values[i].Value = value
			return
		}
	}
	r.Values = append(r.Values, RuleYearValue{Year: year, Value: value})
	sort.Slice(r.Values, func(i, j int) bool { return r.Values[i].Year < r.Values[j].Year })
}

// DeprecRules is the depreciation-rule store resolved to a single year. It
// mirrors the parameter store's lifecycle: default-loaded, mutated only by a
// transactional Adjust.
type DeprecRules struct {
	Year    int
	logger  *zap.Logger
	records map[string]*RuleRecord
}

// NewDeprecRules loads the default rule catalog resolved to year.
func NewDeprecRules(year int, logger *zap.Logger) (*DeprecRules, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if year < constants.StartYear || year > constants.TCLastYear {
		return nil, fmt.Errorf("year %d outside supported range [%d, %d]",
			year, constants.StartYear, constants.TCLastYear)
	}
	var decoded map[string]*RuleRecord
	if err := json.Unmarshal(rulesJSON, &decoded); err != nil {
		return nil, fmt.Errorf("malformed rule catalog: %w", err)
	}
	for code, rec := range decoded {
		rec.BEACode = code
		sort.Slice(rec.Values, func(i, j int) bool { return rec.Values[i].Year < rec.Values[j].Year })
	}
	return &DeprecRules{Year: year, logger: logger, records: decoded}, nil
}

// Rule returns the resolved rule for a BEA asset code.
func (d *DeprecRules) Rule(beaCode string) (RuleValue, *RuleRecord, bool) {
	rec, ok := d.records[beaCode]
	if !ok {
		return RuleValue{}, nil, false
	}
	value, ok := rec.valueAt(d.Year)
	return value, rec, ok
}

// Codes returns the catalog's BEA asset codes in sorted order.
func (d *DeprecRules) Codes() []string {
	codes := make([]string, 0, len(d.records))
	for code := range d.records {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// RuleFilter selects catalog records by one presentation field.
type RuleFilter struct {
	Field  string `json:"field"` // asset_name, minor_asset_group, major_asset_group
	Equals string `json:"equals"`
}

func (f *RuleFilter) matches(rec *RuleRecord) (bool, error) {
	switch f.Field {
	case "asset_name":
		return rec.AssetName == f.Equals, nil
	case "minor_asset_group":
		return rec.MinorAssetGroup == f.Equals, nil
	case "major_asset_group":
		return rec.MajorAssetGroup == f.Equals, nil
	default:
		return false, fmt.Errorf("unknown filter field %q", f.Field)
	}
}

// RuleAdjustment is one adjust operation: either a single BEA code or a
// group filter, plus the fields to overwrite. A zero Year targets the
// store's active year.
type RuleAdjustment struct {
	BEACode string                 `json:"bea_code,omitempty"`
	Filter  *RuleFilter            `json:"filter,omitempty"`
	Year    int                    `json:"year,omitempty"`
	Set     map[string]interface{} `json:"set"`
}

// Adjust validates the whole batch and, only if clean, applies every
// operation. A failing batch leaves the store untouched.
func (d *DeprecRules) Adjust(adjs []RuleAdjustment, raiseErrors bool) (*RevisionError, error) {
	re := NewRevisionError()

	type pending struct {
		rec   *RuleRecord
		year  int
		value RuleValue
	}
	var commits []pending

	for idx, adj := range adjs {
		key := adj.BEACode
		if key == "" && adj.Filter != nil {
			key = fmt.Sprintf("%s=%s", adj.Filter.Field, adj.Filter.Equals)
		}
		if key == "" {
			re.addError(fmt.Sprintf("adjustment[%d]", idx), "neither a BEA code nor a filter was given")
			continue
		}

		year := adj.Year
		if year == 0 {
			year = d.Year
		}
		if year < constants.StartYear || year > constants.TCLastYear {
			re.addError(key, "year %d outside supported range [%d, %d]",
				year, constants.StartYear, constants.TCLastYear)
			continue
		}

		var targets []*RuleRecord
		if adj.BEACode != "" {
			rec, ok := d.records[adj.BEACode]
			if !ok {
				re.addError(key, "unknown parameter")
				continue
			}
			targets = []*RuleRecord{rec}
		} else {
			for _, rec := range d.records {
				ok, err := adj.Filter.matches(rec)
				if err != nil {
					re.addError(key, "%v", err)
					targets = nil
					break
				}
				if ok {
					targets = append(targets, rec)
				}
			}
			if len(targets) == 0 {
				re.addError(key, "filter matched no catalog records")
				continue
			}
		}

		for _, rec := range targets {
			current, _ := rec.valueAt(year)
			updated, err := applyRuleSet(current, adj.Set)
			if err != nil {
				re.addError(rec.BEACode, "%v", err)
				continue
			}
			if err := validateRuleValue(updated); err != nil {
				re.addError(rec.BEACode, "%v", err)
				continue
			}
			commits = append(commits, pending{rec: rec, year: year, value: updated})
		}
	}

	if re.HasErrors() {
		if raiseErrors {
			return re, re
		}
		return re, nil
	}

	for _, c := range commits {
		c.rec.setValue(c.year, c.value)
	}
	d.logger.Debug("applied depreciation rule adjustments",
		zap.String("op", "params.DeprecRules.Adjust"),
		zap.Int("operations", len(adjs)),
		zap.Int("records", len(commits)),
	)
	return re, nil
}

func applyRuleSet(current RuleValue, set map[string]interface{}) (RuleValue, error) {
	out := current
	for field, raw := range set {
		switch field {
		case "system":
			v, ok := raw.(string)
			if !ok {
				return out, fmt.Errorf("system: not string")
			}
			out.System = v
		case "method":
			v, ok := raw.(string)
			if !ok {
				return out, fmt.Errorf("method: not string")
			}
			out.Method = constants.Method(v)
		case "GDS_life":
			v, ok := toFloat(raw)
			if !ok {
				return out, fmt.Errorf("GDS_life: not float")
			}
			out.GDSLife = v
		case "ADS_life":
			v, ok := toFloat(raw)
			if !ok {
				return out, fmt.Errorf("ADS_life: not float")
			}
			out.ADSLife = v
		default:
			return out, fmt.Errorf("unknown rule field %q", field)
		}
	}
	return out, nil
}

func validateRuleValue(v RuleValue) error {
	if v.System != constants.SystemGDS && v.System != constants.SystemADS {
		return fmt.Errorf("system %q must be one of [%s %s]", v.System, constants.SystemGDS, constants.SystemADS)
	}
	if v.GDSLife < 0 || v.GDSLife > 100 {
		return fmt.Errorf("GDS_life %v must lie in [0, 100]", v.GDSLife)
	}
	if v.ADSLife < 0 || v.ADSLife > 100 {
		return fmt.Errorf("ADS_life %v must lie in [0, 100]", v.ADSLife)
	}
	for _, method := range constants.Methods {
		if v.Method == method {
			return nil
		}
	}
	return fmt.Errorf("method %q is not one of %v", v.Method, constants.Methods)
}

// AdjustCSV ingests adjust operations from a CSV stream with a
// "parameter,value" header. The parameter column holds a BEA asset code and
// the value column a JSON object of rule fields; each row is applied as an
// individual adjust operation at the active year.
func (d *DeprecRules) AdjustCSV(r io.Reader, raiseErrors bool) (*RevisionError, error) {
	reader := csv.NewReader(r)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading rule CSV: %w", err)
	}
	if len(rows) == 0 {
		return NewRevisionError(), nil
	}
	if len(rows[0]) < 2 || rows[0][0] != "parameter" || rows[0][1] != "value" {
		return nil, fmt.Errorf("rule CSV must start with a parameter,value header")
	}

	var adjs []RuleAdjustment
	for i, row := range rows[1:] {
		if len(row) < 2 {
			return nil, fmt.Errorf("rule CSV row %d is missing the value column", i+2)
		}
		var set map[string]interface{}
		if err := json.Unmarshal([]byte(row[1]), &set); err != nil {
			return nil, fmt.Errorf("rule CSV row %d: malformed value JSON: %w", i+2, err)
		}
		adjs = append(adjs, RuleAdjustment{BEACode: row[0], Set: set})
	}
	return d.Adjust(adjs, raiseErrors)
}
