// Package constants provides shared constants for the capcost application.
package constants

// Year bounds for the parameter universe. StartYear is the first year covered
// by the default catalogs; TCLastYear is the last year the upstream
// marginal-tax-rate estimator can extrapolate to.
const (
	StartYear  = 2013
	TCLastYear = 2035
)

// Entity identifies the tax treatment of the firm making the marginal
// investment.
type Entity string

const (
	EntityCorp        Entity = "c"
	EntityPassThrough Entity = "pt"
)

// Entities lists the entity keys in canonical order.
var Entities = []Entity{EntityCorp, EntityPassThrough}

// Flavor identifies the marginal financing mix.
type Flavor string

const (
	FlavorMix    Flavor = "mix"
	FlavorDebt   Flavor = "d"
	FlavorEquity Flavor = "e"
)

// Flavors lists the financing flavors in canonical order.
var Flavors = []Flavor{FlavorMix, FlavorDebt, FlavorEquity}

// Tax treatments appearing in the asset fact table.
const (
	TreatCorporate    = "corporate"
	TreatNonCorporate = "non-corporate"
	TreatOwnerHousing = "owner_occupied_housing"

	// TreatAll labels cross-treatment aggregates.
	TreatAll = "all"
)

// EntityTypes lists the legal entity types appearing in the asset fact table.
var EntityTypes = []string{
	"c_corp", "s_corp", "partnership", "sole_prop", "owner_occupied_housing",
}

// Method is a tax depreciation method from the rule catalog.
type Method string

const (
	MethodDB200          Method = "DB 200%"
	MethodDB150          Method = "DB 150%"
	MethodSL             Method = "SL"
	MethodEconomic       Method = "Economic"
	MethodExpensing      Method = "Expensing"
	MethodIncomeForecast Method = "Income Forecast"
)

// Methods lists the valid depreciation methods.
var Methods = []Method{
	MethodDB200, MethodDB150, MethodSL,
	MethodEconomic, MethodExpensing, MethodIncomeForecast,
}

// Depreciation systems.
const (
	SystemGDS = "GDS"
	SystemADS = "ADS"
)

// Special asset names that bypass the depreciation rule catalog.
const (
	AssetLand        = "Land"
	AssetInventories = "Inventories"
)

// BonusLandInventory is the sentinel bonus-map key assigned to land and
// inventory rows; it always maps to a bonus of zero.
const BonusLandInventory = "100"

// OutputVariables lists the measures reportable by the summary producer.
var OutputVariables = []string{
	"metr", "mettr", "rho", "ucc", "z", "delta", "tax_wedge", "eatr",
}

// Output format constants.
const (
	OutputFormatPretty = "pretty"
	OutputFormatCSV    = "csv"
	OutputFormatTex    = "tex"
	OutputFormatExcel  = "excel"
	OutputFormatJSON   = "json"
	OutputFormatHTML   = "html"
)

// OutputFormats lists the supported serialization formats.
var OutputFormats = []string{
	OutputFormatPretty, OutputFormatCSV, OutputFormatTex,
	OutputFormatExcel, OutputFormatJSON, OutputFormatHTML,
}

// Numeric tolerances.
const (
	// ScenarioTolerance is the tolerance for reference-scenario comparisons.
	ScenarioTolerance = 1e-5

	// AggregationTolerance is the tolerance for roll-up idempotence checks.
	AggregationTolerance = 1e-7

	// PercentageMultiplier converts rates to percentage points for display.
	PercentageMultiplier = 100.0
)

// Configuration file constants.
const (
	// DefaultConfigFile is the default run configuration file name.
	DefaultConfigFile = "capcost.yaml"

	// DefaultServerConfigFile is the default server configuration file name.
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults.
const (
	// DefaultServerAddress is the default HTTP listen address.
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size for
	// revision uploads (256 KB).
	DefaultMaxBodySizeBytes int64 = 256 * 1024
)
