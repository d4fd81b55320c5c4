// Package depreciation provides the closed-form net-present-value formulas
// for tax depreciation deductions. Each function returns the NPV of the
// deductions generated by one dollar of investment, discounted at the firm's
// nominal rate r.
package depreciation

import (
	"math"

	"github.com/iwvelando/capcost/pkg/constants"
	"github.com/iwvelando/capcost/pkg/mathutil"
)

// Inputs collects everything a depreciation schedule can depend on. Fields
// not used by a given method are ignored.
type Inputs struct {
	Life     float64 // applicable tax life in years (Y)
	Multiple float64 // declining-balance multiple (b); e.g. 2.0 for DB 200%
	Bonus    float64 // share of the investment expensed immediately
	Delta    float64 // economic depreciation rate
	R        float64 // nominal discount rate
	Pi       float64 // inflation rate
}

// Func computes the NPV of depreciation deductions for one method.
type Func func(in Inputs) float64

// ByMethod dispatches each catalog method to its NPV formula.
var ByMethod = map[constants.Method]Func{
	constants.MethodDB200:          DBSL,
	constants.MethodDB150:          DBSL,
	constants.MethodSL:             StraightLine,
	constants.MethodEconomic:       Economic,
	constants.MethodExpensing:      Expensing,
	constants.MethodIncomeForecast: IncomeForecast,
}

// DBSL computes the NPV under declining balance with a switch to straight
// line at the point that maximizes the NPV.
//
// With beta = b/Y and Ystar = Y(1 - 1/b):
//
//	z = bonus + (1-bonus) * [ beta/(beta+r) * (1 - e^{-(beta+r)Ystar})
//	    + e^{-beta*Ystar}/((Y-Ystar)r) * (e^{-r*Ystar} - e^{-rY}) ]
func DBSL(in Inputs) float64 {
	return dbslForm(in.Multiple/in.Life, in)
}

// IncomeForecast uses the declining-balance form with the economic
// depreciation rate in place of the declining-balance rate. It applies to
// the intellectual-property assets the rule catalog tags with it.
func IncomeForecast(in Inputs) float64 {
	return dbslForm(in.Delta, in)
}

func dbslForm(beta float64, in Inputs) float64 {
	y := in.Life
	r := in.R
	if y <= 0 || beta <= 0 {
		return math.NaN()
	}
	// Switch point Ystar = Y(1 - 1/b); the effective multiple b is beta*Y
	// (the catalog multiple for DBSL, delta*Y for income forecast).
	b := beta * y
	ystar := y * (1 - 1/b)
	if ystar < 0 {
		ystar = 0
	}
	declining := beta / (beta + r) * (1 - math.Exp(-(beta+r)*ystar))
	tail := mathutil.SafeDiv(math.Exp(-beta*ystar), (y-ystar)*r) *
		(math.Exp(-r*ystar) - math.Exp(-r*y))
	return mathutil.ClampNaN(in.Bonus + (1-in.Bonus)*(declining+tail))
}

// StraightLine computes the NPV under straight-line recovery:
//
//	z = bonus + (1-bonus) * (1 - e^{-rY}) / (rY)
func StraightLine(in Inputs) float64 {
	if in.Life <= 0 {
		return math.NaN()
	}
	return mathutil.ClampNaN(in.Bonus +
		(1-in.Bonus)*mathutil.SafeDiv(1-math.Exp(-in.R*in.Life), in.R*in.Life))
}

// Economic computes the NPV when deductions track economic depreciation:
//
//	z = bonus + (1-bonus) * delta / (delta + r - pi)
func Economic(in Inputs) float64 {
	return mathutil.ClampNaN(in.Bonus +
		(1-in.Bonus)*mathutil.SafeDiv(in.Delta, in.Delta+in.R-in.Pi))
}

// Expensing is immediate full recovery: z is 1 regardless of life, bonus, or
// discount rate.
func Expensing(Inputs) float64 {
	return 1.0
}
