// Package costcap provides the closed-form cost-of-capital measures: the
// pre-tax required return rho, the user cost of capital, the marginal
// effective tax rates, the tax wedge, and the effective average tax rate.
// Degenerate inputs surface NaN; Inf never leaves this package.
package costcap

import (
	"math"

	"github.com/iwvelando/capcost/pkg/mathutil"
)

// RhoInputs collects the per-row inputs for the cost of capital.
type RhoInputs struct {
	Delta        float64 // economic depreciation rate
	Z            float64 // NPV of depreciation deductions
	W            float64 // property tax rate
	U            float64 // entity-level statutory tax rate
	InvTaxCredit float64 // investment tax credit, net of any R&E credit applied
	Pi           float64 // inflation rate
	R            float64 // nominal firm discount rate
}

// Rho computes the pre-tax real return a marginal investment must earn:
//
//	rho = (r - pi + delta)/(1 - u) * (1 - itc - u*z*(1 - itc)) + w - delta
//
// The depreciable basis is reduced by the investment tax credit, hence the
// (1 - itc) scaling of the u*z term.
func Rho(in RhoInputs) float64 {
	basisShare := 1 - in.InvTaxCredit - in.U*in.Z*(1-in.InvTaxCredit)
	coc := mathutil.SafeDiv(in.R-in.Pi+in.Delta, 1-in.U)*basisShare + in.W - in.Delta
	return mathutil.ClampNaN(coc)
}

// RhoInventory computes the cost of capital for inventories as the
// phi-weighted blend of FIFO and LIFO accounting:
//
//	rho_FIFO = (1/Yv) ln((e^{r*Yv} - u)/(1 - u)) - pi
//	rho_LIFO = (1/Yv) ln((e^{(r-pi)*Yv} - u)/(1 - u))
//
// Non-positive log arguments (e.g. e^{r*Yv} <= u) surface NaN.
func RhoInventory(u, phi, yv, pi, r float64) float64 {
	if yv == 0 {
		return math.NaN()
	}
	fifo := mathutil.SafeLog(mathutil.SafeDiv(math.Exp(r*yv)-u, 1-u))/yv - pi
	lifo := mathutil.SafeLog(mathutil.SafeDiv(math.Exp((r-pi)*yv)-u, 1-u)) / yv
	return mathutil.ClampNaN(phi*fifo + (1-phi)*lifo)
}

// UCC is the user cost of capital, the gross rental rate rho + delta.
func UCC(rho, delta float64) float64 {
	return mathutil.ClampNaN(rho + delta)
}

// METR is the marginal effective tax rate: the wedge between the pre-tax
// return and the firm's after-tax real return, normalized by rho.
func METR(rho, rPrime, pi float64) float64 {
	return mathutil.SafeDiv(rho-(rPrime-pi), rho)
}

// METTR is the marginal effective total tax rate, additionally counting
// saver-level taxes through the after-tax return to savers s.
func METTR(rho, s float64) float64 {
	return mathutil.SafeDiv(rho-s, rho)
}

// TaxWedge is the unnormalized gap between the pre-tax return and the
// saver's after-tax return.
func TaxWedge(rho, s float64) float64 {
	return mathutil.ClampNaN(rho - s)
}

// EATR is the effective average tax rate for an investment earning the
// economic profit rate p:
//
//	eatr = ((p - rho)/p) * u + (rho/p) * metr
//
// When p equals rho this collapses to the METR.
func EATR(rho, metr, p, u float64) float64 {
	if p == 0 {
		return math.NaN()
	}
	return mathutil.ClampNaN((p-rho)/p*u + rho/p*metr)
}
