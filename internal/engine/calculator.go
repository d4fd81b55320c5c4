// Package engine computes the cost-of-capital measures over the asset fact
// table: the NPV of depreciation deductions, rho, the user cost of capital,
// the marginal effective rates, the tax wedge, and the effective average tax
// rate, plus the weighted roll-ups and baseline/reform summaries.
package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/capcost/internal/assets"
	"github.com/iwvelando/capcost/internal/params"
	"github.com/iwvelando/capcost/pkg/constants"
	"github.com/iwvelando/capcost/pkg/costcap"
	"github.com/iwvelando/capcost/pkg/depreciation"
	"go.uber.org/zap"
)

// Calculator owns one policy regime: a parameter store, a depreciation rule
// store, and a private snapshot of the asset fact table that it annotates.
// Baseline and reform regimes are independent Calculators.
type Calculator struct {
	logger *zap.Logger
	spec   *params.Specification
	rules  *params.DeprecRules
	table  assets.Table

	checkpoint assets.Table
	baseDone   bool
	allDone    bool
}

// New assembles a calculator. The table is cloned so sibling calculators
// never share rows.
func New(spec *params.Specification, rules *params.DeprecRules, table assets.Table, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		logger: logger,
		spec:   spec,
		rules:  rules,
		table:  table.Clone(),
	}
}

// Spec exposes the calculator's parameter store.
func (c *Calculator) Spec() *params.Specification { return c.spec }

// Param reads one parameter from the store.
func (c *Calculator) Param(name string) (interface{}, error) {
	return c.spec.Param(name)
}

// SetParam writes one parameter directly, bypassing revision validation.
// Columns computed before the write are stale until the next Calc pass.
func (c *Calculator) SetParam(name string, value interface{}) error {
	return c.spec.SetParam(name, value)
}

// Table exposes the annotated fact table.
func (c *Calculator) Table() assets.Table { return c.table }

// StoreAssets checkpoints the fact table so what-if mutations can be rolled
// back without rebuilding the calculator.
func (c *Calculator) StoreAssets() {
	c.checkpoint = c.table.Clone()
}

// RestoreAssets rolls the fact table back to the last checkpoint.
func (c *Calculator) RestoreAssets() error {
	if c.checkpoint == nil {
		return fmt.Errorf("no stored assets to restore")
	}
	c.table = c.checkpoint.Clone()
	return nil
}

// CalcBase merges the depreciation rules onto the fact table and computes
// the z and rho columns for every financing flavor.
func (c *Calculator) CalcBase() error {
	for i := range c.table {
		if err := c.mergeRule(&c.table[i]); err != nil {
			return err
		}
		c.depreciate(&c.table[i])
		c.costOfCapital(&c.table[i])
	}
	c.baseDone = true
	c.logger.Debug("computed depreciation NPVs and costs of capital",
		zap.String("op", "engine.CalcBase"),
		zap.Int("rows", len(c.table)),
	)
	return nil
}

// CalcAll additionally populates the ucc, metr, mettr, tax wedge, and eatr
// columns.
func (c *Calculator) CalcAll() error {
	if !c.baseDone {
		if err := c.CalcBase(); err != nil {
			return err
		}
	}
	for i := range c.table {
		c.measures(&c.table[i], c.table[i].Entity())
	}
	c.allDone = true
	c.logger.Debug("computed effective tax rate measures",
		zap.String("op", "engine.CalcAll"),
		zap.Int("rows", len(c.table)),
	)
	return nil
}

// mergeRule attaches the depreciation rule to one row. Land and inventories
// bypass the catalog; any other asset without a rule is an error.
func (c *Calculator) mergeRule(rec *assets.Record) error {
	switch rec.AssetName {
	case constants.AssetLand, constants.AssetInventories:
		rec.System = ""
		rec.Method = ""
		rec.Life = 0
		rec.Bonus = c.spec.BonusDeprec[constants.BonusLandInventory]
		rec.B = math.NaN()
		return nil
	}

	value, _, ok := c.rules.Rule(rec.BEAAssetCode)
	if !ok {
		return fmt.Errorf("no depreciation rule for asset %s (%s)", rec.BEAAssetCode, rec.AssetName)
	}
	rec.System = value.System
	rec.Method = value.Method
	rec.Life = value.Life()
	rec.Bonus = c.spec.BonusDeprec[bonusKey(rec.Life)]
	if multiple, ok := c.spec.TaxMethods[value.Method]; ok {
		rec.B = multiple
	} else {
		rec.B = math.NaN()
	}
	return nil
}

// bonusKey renders a tax life as its bonus-map key: 27.5 becomes "27_5",
// integral lives their plain digits. Lives without a map entry fall back to
// a zero bonus at lookup.
func bonusKey(life float64) string {
	s := strings.ReplaceAll(fmt.Sprintf("%g", life), ".", "_")
	return s
}

// depreciate fills the z column for every financing flavor.
func (c *Calculator) depreciate(rec *assets.Record) {
	entity := rec.Entity()
	for _, flavor := range constants.Flavors {
		rec.Z.Set(flavor, c.npv(rec, c.spec.R[entity][flavor]))
	}
}

func (c *Calculator) npv(rec *assets.Record, r float64) float64 {
	switch rec.AssetName {
	case constants.AssetLand:
		return c.spec.LandExpensing
	case constants.AssetInventories:
		// Expensed inventories recover their full cost immediately; under
		// FIFO/LIFO accounting the deduction NPV is carried by the
		// inventory-specific rho, not by z.
		if c.spec.InventoryExpensing {
			return 1
		}
		return 0
	}

	fn, ok := depreciation.ByMethod[rec.Method]
	if !ok {
		return math.NaN()
	}
	return fn(depreciation.Inputs{
		Life:     rec.Life,
		Multiple: rec.B,
		Bonus:    rec.Bonus,
		Delta:    rec.Delta,
		R:        r,
		Pi:       c.spec.InflationRate,
	})
}

// costOfCapital fills the rho column for every financing flavor.
func (c *Calculator) costOfCapital(rec *assets.Record) {
	entity := rec.Entity()
	for _, flavor := range constants.Flavors {
		rec.Rho.Set(flavor, c.rho(rec, entity, flavor, rec.Z.Get(flavor)))
	}
}

func (c *Calculator) rho(rec *assets.Record, entity constants.Entity, flavor constants.Flavor, z float64) float64 {
	u := c.spec.U[entity]
	r := c.spec.R[entity][flavor]
	pi := c.spec.InflationRate

	if rec.AssetName == constants.AssetInventories && !c.spec.InventoryExpensing {
		return costcap.RhoInventory(u, c.spec.Phi, c.spec.YV, pi, r)
	}

	return costcap.Rho(costcap.RhoInputs{
		Delta:        rec.Delta,
		Z:            z,
		W:            c.spec.PropertyTax,
		U:            u,
		InvTaxCredit: c.netInvTaxCredit(rec),
		Pi:           pi,
		R:            r,
	})
}

// netInvTaxCredit reduces the investment tax credit by any research credit
// applying to the row's asset or industry code.
func (c *Calculator) netInvTaxCredit(rec *assets.Record) float64 {
	assetCredit := c.spec.RECreditAsset[rec.BEAAssetCode]
	industryCredit := c.spec.RECreditIndustry[rec.BEAIndCode]
	credit := assetCredit + industryCredit
	if !c.spec.RECreditAdditive {
		credit = math.Max(assetCredit, industryCredit)
	}
	return c.spec.InvTaxCredit - credit
}

// measures fills the ucc, metr, mettr, tax wedge, and eatr columns. The
// entity is passed explicitly so cross-treatment aggregates can use the
// corporate branch.
func (c *Calculator) measures(rec *assets.Record, entity constants.Entity) {
	u := c.spec.U[entity]
	pi := c.spec.InflationRate
	for _, flavor := range constants.Flavors {
		rho := rec.Rho.Get(flavor)
		rPrime := c.spec.RPrime[entity][flavor]
		s := c.spec.S[entity][flavor]

		metr := costcap.METR(rho, rPrime, pi)
		rec.UCC.Set(flavor, costcap.UCC(rho, rec.Delta))
		rec.METR.Set(flavor, metr)
		rec.METTR.Set(flavor, costcap.METTR(rho, s))
		rec.TaxWedge.Set(flavor, costcap.TaxWedge(rho, s))
		rec.EATR.Set(flavor, costcap.EATR(rho, metr, c.spec.ProfitRate, u))
	}
}
