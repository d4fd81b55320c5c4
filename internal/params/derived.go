package params

import (
	"math"

	"github.com/iwvelando/capcost/pkg/constants"
)

// tauWealth is the wealth tax rate. There is no wealth tax in the parameter
// universe, so the derivation carries it as a named zero.
const tauWealth = 0.0

// derive recomputes every constant that depends on the primitive parameters:
// entity-level rates u, after-tax returns to savers s, firm discount rates r,
// after-tax rates of return r', the required pass-through equity return, the
// per-life bonus map, and the method multiples. Called after every resolve.
func (s *Specification) derive() {
	if s.NewView {
		// Under the new view marginal equity comes from retained earnings;
		// the dividend payout parameter is pinned to 1.
		s.M = 1
	}

	i := s.NominalInterestRate
	pi := s.InflationRate
	m := s.M

	// Entity-level statutory rates.
	uPT := s.TauPT * s.PTScaleTaxRateDed
	if s.PTEntityTaxInd {
		uPT = s.PTEntityTaxRate
	}
	s.U = map[constants.Entity]float64{
		constants.EntityCorp:        s.CITRate,
		constants.EntityPassThrough: uPT,
	}

	// After-tax returns to savers on debt.
	sPrimeCTD := math.Log((1-s.TauTD)*math.Exp(i*s.YTD)+s.TauTD)/s.YTD - pi
	sCDTD := s.Gamma*(i-pi) + (1-s.Gamma)*sPrimeCTD
	sCD := s.AlphaCDFT*((1-s.TauInt)*i-pi) + s.AlphaCDTD*sCDTD + s.AlphaCDNT*(i-pi) - tauWealth
	sPTD := s.AlphaPTDFT*((1-s.TauInt)*i-pi) + s.AlphaPTDTD*sCDTD + s.AlphaPTDNT*(i-pi) - tauWealth

	// Annualized accrual-equivalent capital gains returns.
	gSCG := annualizedGain(s.TauSCG, s.YSCG, pi, m*s.EC)
	gLCG := annualizedGain(s.TauLCG, s.YLCG, pi, m*s.EC)
	gXCG := annualizedGain(s.TauXCG, s.YXCG, pi, m*s.EC)
	g := s.OmegaSCG*gSCG + s.OmegaLCG*gLCG + s.OmegaXCG*gXCG

	// After-tax returns to savers on corporate equity.
	sCEFT := (1-m)*s.EC*(1-s.TauDiv) + g
	sCETD := math.Log((1-s.TauTD)*math.Exp((pi+s.EC)*s.YTD)+s.TauTD)/s.YTD - pi
	sCE := s.AlphaCEFT*sCEFT + s.AlphaCETD*sCETD + s.AlphaCENT*s.EC - tauWealth

	sC := s.FC*sCD + (1-s.FC)*sCE
	s.EPT = sCE

	sPTE := s.EPT - tauWealth
	sPT := s.FPT*sPTD + (1-s.FPT)*sPTE

	s.S = map[constants.Entity]map[constants.Flavor]float64{
		constants.EntityCorp: {
			constants.FlavorMix:    sC,
			constants.FlavorDebt:   sCD,
			constants.FlavorEquity: sCE,
		},
		constants.EntityPassThrough: {
			constants.FlavorMix:    sPT,
			constants.FlavorDebt:   sPTD,
			constants.FlavorEquity: sPTE,
		},
	}

	// Firm discount rates and after-tax rates of return by financing mix.
	debtShare := map[constants.Entity]map[constants.Flavor]float64{
		constants.EntityCorp: {
			constants.FlavorMix:    s.FC,
			constants.FlavorDebt:   1.0,
			constants.FlavorEquity: 0.0,
		},
		constants.EntityPassThrough: {
			constants.FlavorMix:    s.FPT,
			constants.FlavorDebt:   1.0,
			constants.FlavorEquity: 0.0,
		},
	}
	equityReturn := map[constants.Entity]float64{
		constants.EntityCorp:        s.EC,
		constants.EntityPassThrough: s.EPT,
	}
	haircut := map[constants.Entity]float64{
		constants.EntityCorp:        s.InterestDeductHaircutC,
		constants.EntityPassThrough: s.InterestDeductHaircutPT,
	}
	ace := map[constants.Entity]float64{
		constants.EntityCorp:        s.ACEC,
		constants.EntityPassThrough: s.ACEPT,
	}

	s.R = make(map[constants.Entity]map[constants.Flavor]float64, len(constants.Entities))
	s.RPrime = make(map[constants.Entity]map[constants.Flavor]float64, len(constants.Entities))
	for _, entity := range constants.Entities {
		s.R[entity] = make(map[constants.Flavor]float64, len(constants.Flavors))
		s.RPrime[entity] = make(map[constants.Flavor]float64, len(constants.Flavors))
		for _, flavor := range constants.Flavors {
			f := debtShare[entity][flavor]
			s.R[entity][flavor] = f*i*(1-(1-haircut[entity])*s.U[entity]) +
				(1-f)*(equityReturn[entity]+pi-s.ACEIntRate*ace[entity])
			s.RPrime[entity][flavor] = f*i + (1-f)*(equityReturn[entity]+pi)
		}
	}

	if !s.PTEntityTaxInd {
		// Pass-through income is taxed once, at the owner; the after-tax
		// return to the firm is the saver's return plus inflation.
		for _, flavor := range constants.Flavors {
			s.RPrime[constants.EntityPassThrough][flavor] =
				s.S[constants.EntityPassThrough][flavor] + pi
		}
	} else {
		pt := s.S[constants.EntityPassThrough]
		pt[constants.FlavorMix] = s.FPT*pt[constants.FlavorDebt] +
			(1-s.FPT)*s.S[constants.EntityCorp][constants.FlavorEquity]
		pt[constants.FlavorEquity] = s.S[constants.EntityCorp][constants.FlavorEquity]
	}

	// The bonus map holds the per-life shares (maintained by the bonus
	// bindings) plus the sentinel key for land and inventories.
	s.BonusDeprec[constants.BonusLandInventory] = 0

	s.TaxMethods = map[constants.Method]float64{
		constants.MethodDB200:     2.0,
		constants.MethodDB150:     1.5,
		constants.MethodSL:        1.0,
		constants.MethodEconomic:  1.0,
		constants.MethodExpensing: 1.0,
	}
}

// annualizedGain converts a nominal accrual rate accumulated over a holding
// period of y years into the annualized after-tax return:
//
//	g = (1/y) ln((1-tau) e^{rate*y} + tau) - pi
func annualizedGain(tau, y, pi, realRate float64) float64 {
	if y == 0 {
		return math.NaN()
	}
	return math.Log((1-tau)*math.Exp((pi+realRate)*y)+tau)/y - pi
}
