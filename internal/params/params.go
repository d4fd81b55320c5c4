// Package params implements the validated, year-indexed parameter store for
// the cost-of-capital calculator, the depreciation-rule catalog, and the
// derived financial constants recomputed on every adjustment.
package params

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"

	"github.com/iwvelando/capcost/internal/mtr"
	"github.com/iwvelando/capcost/pkg/constants"
	"go.uber.org/zap"
)

//go:embed defaults.json
var defaultsJSON []byte

// Specification is the parameter store resolved to a single active year. The
// exported scalar fields are the resolved values the engines read; the U, S,
// R, and RPrime maps are the derived constants rebuilt after every
// adjustment. Mutate only through Adjust (validated) or SetParam (probe).
type Specification struct {
	Year   int
	logger *zap.Logger

	records map[string]*Record

	// Statutory business tax.
	CITRate                 float64
	PTEntityTaxInd          bool
	PTEntityTaxRate         float64
	PTScaleTaxRateDed       float64
	InterestDeductHaircutC  float64
	InterestDeductHaircutPT float64
	ACEC                    float64
	ACEPT                   float64
	ACEIntRate              float64
	InvTaxCredit            float64
	PropertyTax             float64
	NewView                 bool
	RECreditAsset           map[string]float64
	RECreditIndustry        map[string]float64
	RECreditAdditive        bool

	// Individual income tax rates.
	TauPT, TauDiv, TauInt, TauSCG, TauLCG, TauTD, TauH float64

	// TauXCG is the rate on gains held until death; zero by construction.
	TauXCG float64

	// Savings behavior.
	YTD, YSCG, YLCG, YXCG, YV          float64
	Gamma, Phi, M, EC                  float64
	AlphaCDFT, AlphaCDTD, AlphaCDNT    float64
	AlphaCEFT, AlphaCETD, AlphaCENT    float64
	AlphaPTDFT, AlphaPTDTD, AlphaPTDNT float64
	OmegaSCG, OmegaLCG, OmegaXCG       float64
	FC, FPT                            float64

	// Economic assumptions.
	InflationRate, NominalInterestRate, ProfitRate float64

	// Policy switches.
	InventoryExpensing bool
	LandExpensing      float64

	// Derived constants; see derived.go.
	U           map[constants.Entity]float64
	S           map[constants.Entity]map[constants.Flavor]float64
	R           map[constants.Entity]map[constants.Flavor]float64
	RPrime      map[constants.Entity]map[constants.Flavor]float64
	EPT         float64
	BonusDeprec map[string]float64
	TaxMethods  map[constants.Method]float64
}

// Option configures Specification construction.
type Option func(*specOptions)

type specOptions struct {
	logger    *zap.Logger
	fetcher   mtr.RateFetcher
	baseline  map[string]interface{}
	iitReform map[string]interface{}
}

// WithLogger attaches a logger; nil is replaced with a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *specOptions) { o.logger = logger }
}

// WithRateFetcher wires the upstream marginal-tax-rate adapter. When set,
// construction overwrites the tau_* defaults for the active year with the
// adapter's output.
func WithRateFetcher(fetcher mtr.RateFetcher, baseline, iitReform map[string]interface{}) Option {
	return func(o *specOptions) {
		o.fetcher = fetcher
		o.baseline = baseline
		o.iitReform = iitReform
	}
}

// New loads the default parameter universe and resolves it to year.
func New(year int, opts ...Option) (*Specification, error) {
	if year < constants.StartYear || year > constants.TCLastYear {
		return nil, fmt.Errorf("year %d outside supported range [%d, %d]",
			year, constants.StartYear, constants.TCLastYear)
	}

	var o specOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	records, err := loadCatalog(defaultsJSON)
	if err != nil {
		return nil, err
	}

	s := &Specification{
		Year:             year,
		logger:           o.logger,
		records:          records,
		RECreditAsset:    make(map[string]float64),
		RECreditIndustry: make(map[string]float64),
		BonusDeprec:      make(map[string]float64),
	}

	if o.fetcher != nil {
		rates, err := o.fetcher.Rates(year, o.baseline, o.iitReform)
		if err != nil {
			return nil, fmt.Errorf("marginal tax rate adapter: %w", err)
		}
		for name, value := range map[string]float64{
			"tau_pt": rates.TauPT, "tau_div": rates.TauDiv, "tau_int": rates.TauInt,
			"tau_scg": rates.TauSCG, "tau_lcg": rates.TauLCG, "tau_td": rates.TauTD,
			"tau_h": rates.TauH,
		} {
			s.records[name].setValue(year, value)
		}
		s.logger.Debug("applied upstream marginal tax rates",
			zap.String("op", "params.New"),
			zap.Int("year", year),
		)
	}

	if err := s.resolve(); err != nil {
		return nil, err
	}
	s.derive()
	return s, nil
}

// resolve reads every record at the active year into the typed fields.
func (s *Specification) resolve() error {
	for _, b := range bindings {
		rec, ok := s.records[b.name]
		if !ok {
			return fmt.Errorf("defaults catalog is missing parameter %q", b.name)
		}
		value, ok := rec.valueAt(s.Year)
		if !ok {
			return fmt.Errorf("parameter %q has no value at or before %d", b.name, s.Year)
		}
		if err := b.set(s, value); err != nil {
			return fmt.Errorf("parameter %q: %w", b.name, err)
		}
	}
	s.TauXCG = 0
	return nil
}

// Adjust validates revision as a whole and, only if it is clean, commits it
// and recomputes the derived constants. A failing revision leaves the store
// observationally unchanged. When raiseErrors is true the error bundle is
// also returned as the error value.
func (s *Specification) Adjust(revision interface{}, raiseErrors bool) (*RevisionError, error) {
	parsed, err := parseRevision(revision)
	if err != nil {
		return nil, err
	}

	re := s.validateRevision(parsed)
	if re.HasErrors() {
		if raiseErrors {
			return re, re
		}
		return re, nil
	}

	for name, entries := range parsed {
		rec := s.records[name]
		for _, yv := range entries {
			rec.setValue(yv.Year, yv.Value)
		}
	}
	if err := s.resolve(); err != nil {
		return re, err
	}
	s.derive()

	s.logger.Debug("applied parameter revision",
		zap.String("op", "params.Adjust"),
		zap.Int("parameters", len(parsed)),
	)
	return re, nil
}

// validateRevision checks every proposed entry without mutating the store.
func (s *Specification) validateRevision(parsed map[string][]YearValue) *RevisionError {
	re := NewRevisionError()

	// Lookup resolves when-predicates against the proposed view of the
	// active year, falling back to current resolved values.
	proposed := make(map[string]interface{})
	for name, entries := range parsed {
		for _, yv := range entries {
			if yv.Year == s.Year {
				proposed[name] = yv.Value
			}
		}
	}
	lookup := func(name string) (interface{}, bool) {
		if v, ok := proposed[name]; ok {
			return v, true
		}
		for _, b := range bindings {
			if b.name == name {
				return b.get(s), true
			}
		}
		return nil, false
	}

	for name, entries := range parsed {
		rec, ok := s.records[name]
		if !ok {
			re.addError(name, "unknown parameter")
			continue
		}
		for _, yv := range entries {
			if yv.Year < constants.StartYear || yv.Year > constants.TCLastYear {
				re.addError(name, "year %d outside supported range [%d, %d]",
					yv.Year, constants.StartYear, constants.TCLastYear)
				continue
			}
			if err := rec.checkType(yv.Value); err != nil {
				re.addError(name, "value %v at %d: %v", yv.Value, yv.Year, err)
				continue
			}
			rec.Validator.validate(name, yv.Value, lookup, re)
		}
	}

	s.validateShares(proposed, re)
	return re
}

// shareGroups are the fraction families that must each sum to one.
var shareGroups = [][]string{
	{"alpha_c_d_ft", "alpha_c_d_td", "alpha_c_d_nt"},
	{"alpha_c_e_ft", "alpha_c_e_td", "alpha_c_e_nt"},
	{"alpha_pt_d_ft", "alpha_pt_d_td", "alpha_pt_d_nt"},
	{"omega_scg", "omega_lcg", "omega_xcg"},
}

func (s *Specification) validateShares(proposed map[string]interface{}, re *RevisionError) {
	for _, group := range shareGroups {
		touched := false
		sum := 0.0
		for _, name := range group {
			value, ok := proposed[name]
			if ok {
				touched = true
			} else {
				for _, b := range bindings {
					if b.name == name {
						value = b.get(s)
						break
					}
				}
			}
			if f, ok := toFloat(value); ok {
				sum += f
			}
		}
		if touched && math.Abs(sum-1.0) > 1e-8 {
			for _, name := range group {
				if _, ok := proposed[name]; ok {
					re.addError(name, "fractions %v must sum to 1, got %v", group, sum)
				}
			}
		}
	}
}

// parseRevision accepts the native map form or a JSON document.
func parseRevision(revision interface{}) (map[string][]YearValue, error) {
	switch rev := revision.(type) {
	case map[string][]YearValue:
		return rev, nil
	case string:
		var decoded map[string][]YearValue
		if err := json.Unmarshal([]byte(rev), &decoded); err != nil {
			return nil, fmt.Errorf("malformed revision JSON: %w", err)
		}
		return decoded, nil
	case map[string]interface{}:
		// viper and json decode into this shape; re-marshal once.
		raw, err := json.Marshal(rev)
		if err != nil {
			return nil, fmt.Errorf("malformed revision: %w", err)
		}
		var decoded map[string][]YearValue
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("malformed revision: %w", err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("revision must be a map or JSON string, got %T", revision)
	}
}

// Dump returns the full parameter universe with year-range validators
// materialized as explicit choice lists for downstream UIs.
func (s *Specification) Dump() map[string]DumpRecord {
	out := make(map[string]DumpRecord, len(s.records))
	years := dumpYears()
	for name, rec := range s.records {
		values := make([]YearValue, len(rec.Values))
		copy(values, rec.Values)
		out[name] = DumpRecord{
			Title:       rec.Title,
			Description: rec.Description,
			Type:        rec.Type,
			Values:      values,
			Validator:   rec.Validator,
			YearChoices: years,
		}
	}
	return out
}

// Param returns the resolved value of a parameter by name. It bypasses
// validation and is intended for interactive probing.
func (s *Specification) Param(name string) (interface{}, error) {
	for _, b := range bindings {
		if b.name == name {
			return b.get(s), nil
		}
	}
	return nil, fmt.Errorf("unknown parameter %q", name)
}

// SetParam overwrites the resolved value of a parameter without validation
// and recomputes the derived constants. The underlying time series is also
// updated at the active year so a later resolve sees the same value.
func (s *Specification) SetParam(name string, value interface{}) error {
	for _, b := range bindings {
		if b.name == name {
			if err := b.set(s, value); err != nil {
				return fmt.Errorf("parameter %q: %w", name, err)
			}
			if rec, ok := s.records[name]; ok {
				rec.setValue(s.Year, value)
			}
			s.derive()
			return nil
		}
	}
	return fmt.Errorf("unknown parameter %q", name)
}

// RevisionWarningsErrors validates a revision statelessly: a throwaway store
// is constructed, the revision applied without raising, and the warnings and
// errors returned. Callers use this before committing a reform.
func RevisionWarningsErrors(year int, revision interface{}) (*RevisionError, error) {
	s, err := New(year)
	if err != nil {
		return nil, err
	}
	return s.Adjust(revision, false)
}
