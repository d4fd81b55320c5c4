package params

import "fmt"

// binding connects one parameter name to its resolved field on the
// Specification. The registry drives resolve, Param, and SetParam so the
// record store and the typed view cannot drift apart.
type binding struct {
	name string
	get  func(s *Specification) interface{}
	set  func(s *Specification, v interface{}) error
}

func floatBinding(name string, field func(s *Specification) *float64) binding {
	return binding{
		name: name,
		get:  func(s *Specification) interface{} { return *field(s) },
		set: func(s *Specification, v interface{}) error {
			f, ok := toFloat(v)
			if !ok {
				return fmt.Errorf("not float")
			}
			*field(s) = f
			return nil
		},
	}
}

func boolBinding(name string, field func(s *Specification) *bool) binding {
	return binding{
		name: name,
		get:  func(s *Specification) interface{} { return *field(s) },
		set: func(s *Specification, v interface{}) error {
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("not bool")
			}
			*field(s) = b
			return nil
		},
	}
}

func mapBinding(name string, field func(s *Specification) *map[string]float64) binding {
	return binding{
		name: name,
		get:  func(s *Specification) interface{} { return *field(s) },
		set: func(s *Specification, v interface{}) error {
			out := make(map[string]float64)
			switch m := v.(type) {
			case map[string]float64:
				for k, f := range m {
					out[k] = f
				}
			case map[string]interface{}:
				for k, raw := range m {
					f, ok := toFloat(raw)
					if !ok {
						return fmt.Errorf("entry %q is not numeric", k)
					}
					out[k] = f
				}
			default:
				return fmt.Errorf("not map")
			}
			*field(s) = out
			return nil
		},
	}
}

// bonusBinding stores a per-life bonus share directly into the BonusDeprec
// map under its life key.
func bonusBinding(name, lifeKey string) binding {
	return binding{
		name: name,
		get:  func(s *Specification) interface{} { return s.BonusDeprec[lifeKey] },
		set: func(s *Specification, v interface{}) error {
			f, ok := toFloat(v)
			if !ok {
				return fmt.Errorf("not float")
			}
			s.BonusDeprec[lifeKey] = f
			return nil
		},
	}
}

var bindings = []binding{
	floatBinding("CIT_rate", func(s *Specification) *float64 { return &s.CITRate }),
	boolBinding("pt_entity_tax_ind", func(s *Specification) *bool { return &s.PTEntityTaxInd }),
	floatBinding("pt_entity_tax_rate", func(s *Specification) *float64 { return &s.PTEntityTaxRate }),
	floatBinding("pt_scale_tax_rate_ded", func(s *Specification) *float64 { return &s.PTScaleTaxRateDed }),
	floatBinding("interest_deduct_haircut_c", func(s *Specification) *float64 { return &s.InterestDeductHaircutC }),
	floatBinding("interest_deduct_haircut_pt", func(s *Specification) *float64 { return &s.InterestDeductHaircutPT }),
	floatBinding("ace_c", func(s *Specification) *float64 { return &s.ACEC }),
	floatBinding("ace_pt", func(s *Specification) *float64 { return &s.ACEPT }),
	floatBinding("ace_int_rate", func(s *Specification) *float64 { return &s.ACEIntRate }),
	floatBinding("inv_tax_credit", func(s *Specification) *float64 { return &s.InvTaxCredit }),
	floatBinding("property_tax", func(s *Specification) *float64 { return &s.PropertyTax }),
	boolBinding("new_view", func(s *Specification) *bool { return &s.NewView }),
	mapBinding("re_credit_asset", func(s *Specification) *map[string]float64 { return &s.RECreditAsset }),
	mapBinding("re_credit_industry", func(s *Specification) *map[string]float64 { return &s.RECreditIndustry }),
	boolBinding("re_credit_additive", func(s *Specification) *bool { return &s.RECreditAdditive }),

	bonusBinding("BonusDeprec_3yr", "3"),
	bonusBinding("BonusDeprec_5yr", "5"),
	bonusBinding("BonusDeprec_7yr", "7"),
	bonusBinding("BonusDeprec_10yr", "10"),
	bonusBinding("BonusDeprec_15yr", "15"),
	bonusBinding("BonusDeprec_20yr", "20"),
	bonusBinding("BonusDeprec_25yr", "25"),
	bonusBinding("BonusDeprec_27_5yr", "27_5"),
	bonusBinding("BonusDeprec_39yr", "39"),

	floatBinding("tau_pt", func(s *Specification) *float64 { return &s.TauPT }),
	floatBinding("tau_div", func(s *Specification) *float64 { return &s.TauDiv }),
	floatBinding("tau_int", func(s *Specification) *float64 { return &s.TauInt }),
	floatBinding("tau_scg", func(s *Specification) *float64 { return &s.TauSCG }),
	floatBinding("tau_lcg", func(s *Specification) *float64 { return &s.TauLCG }),
	floatBinding("tau_td", func(s *Specification) *float64 { return &s.TauTD }),
	floatBinding("tau_h", func(s *Specification) *float64 { return &s.TauH }),

	floatBinding("Y_td", func(s *Specification) *float64 { return &s.YTD }),
	floatBinding("Y_scg", func(s *Specification) *float64 { return &s.YSCG }),
	floatBinding("Y_lcg", func(s *Specification) *float64 { return &s.YLCG }),
	floatBinding("Y_xcg", func(s *Specification) *float64 { return &s.YXCG }),
	floatBinding("Y_v", func(s *Specification) *float64 { return &s.YV }),
	floatBinding("gamma", func(s *Specification) *float64 { return &s.Gamma }),
	floatBinding("phi", func(s *Specification) *float64 { return &s.Phi }),
	floatBinding("m", func(s *Specification) *float64 { return &s.M }),
	floatBinding("E_c", func(s *Specification) *float64 { return &s.EC }),
	floatBinding("alpha_c_d_ft", func(s *Specification) *float64 { return &s.AlphaCDFT }),
	floatBinding("alpha_c_d_td", func(s *Specification) *float64 { return &s.AlphaCDTD }),
	floatBinding("alpha_c_d_nt", func(s *Specification) *float64 { return &s.AlphaCDNT }),
	floatBinding("alpha_c_e_ft", func(s *Specification) *float64 { return &s.AlphaCEFT }),
	floatBinding("alpha_c_e_td", func(s *Specification) *float64 { return &s.AlphaCETD }),
	floatBinding("alpha_c_e_nt", func(s *Specification) *float64 { return &s.AlphaCENT }),
	floatBinding("alpha_pt_d_ft", func(s *Specification) *float64 { return &s.AlphaPTDFT }),
	floatBinding("alpha_pt_d_td", func(s *Specification) *float64 { return &s.AlphaPTDTD }),
	floatBinding("alpha_pt_d_nt", func(s *Specification) *float64 { return &s.AlphaPTDNT }),
	floatBinding("omega_scg", func(s *Specification) *float64 { return &s.OmegaSCG }),
	floatBinding("omega_lcg", func(s *Specification) *float64 { return &s.OmegaLCG }),
	floatBinding("omega_xcg", func(s *Specification) *float64 { return &s.OmegaXCG }),
	floatBinding("f_c", func(s *Specification) *float64 { return &s.FC }),
	floatBinding("f_pt", func(s *Specification) *float64 { return &s.FPT }),

	floatBinding("inflation_rate", func(s *Specification) *float64 { return &s.InflationRate }),
	floatBinding("nominal_interest_rate", func(s *Specification) *float64 { return &s.NominalInterestRate }),
	floatBinding("profit_rate", func(s *Specification) *float64 { return &s.ProfitRate }),

	boolBinding("inventory_expensing", func(s *Specification) *bool { return &s.InventoryExpensing }),
	floatBinding("land_expensing", func(s *Specification) *float64 { return &s.LandExpensing }),
}
