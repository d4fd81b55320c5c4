// Package config defines the run configuration for the calculator CLI and
// includes functions for loading and validating it.
package config

import (
	"fmt"

	"github.com/iwvelando/capcost/pkg/constants"
	"github.com/iwvelando/capcost/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for a calculator run.
type Configuration struct {
	Year       int    `yaml:"year"`
	AssetsFile string `yaml:"assetsFile,omitempty"` // empty means the embedded sample table

	// EstimateIITRates refreshes the individual marginal tax rates from the
	// rate table instead of the static parameter defaults.
	EstimateIITRates bool `yaml:"estimateIitRates,omitempty"`

	Baseline RegimeConfig  `yaml:"baseline,omitempty"`
	Reform   RegimeConfig  `yaml:"reform,omitempty"`
	Logging  LoggingConfig `yaml:"logging,omitempty"`
	Output   OutputConfig  `yaml:"output,omitempty"`
}

// RegimeConfig points at the parameter revision files for one policy regime.
type RegimeConfig struct {
	RevisionFile      string `yaml:"revisionFile,omitempty"`
	DeprecRevisionCSV string `yaml:"deprecRevisionCsv,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output configuration options
type OutputConfig struct {
	Variable           string `yaml:"variable,omitempty"` // metr, mettr, rho, ...
	Format             string `yaml:"format,omitempty"`   // pretty, csv, json, html, tex, excel
	Axis               string `yaml:"axis,omitempty"`     // overall, asset, industry
	File               string `yaml:"file,omitempty"`     // empty means stdout
	IncludeLand        bool   `yaml:"includeLand,omitempty"`
	IncludeInventories bool   `yaml:"includeInventories,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := viper.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.applyDefaults()
	return &configuration, nil
}

func (c *Configuration) applyDefaults() {
	if c.Year == 0 {
		c.Year = constants.StartYear
	}
	if c.Output.Variable == "" {
		c.Output.Variable = "mettr"
	}
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}
	if c.Output.Axis == "" {
		c.Output.Axis = "overall"
	}
}

// ValidateConfiguration checks the run configuration and returns a list of
// warnings for suspicious but non-fatal settings.
func (c *Configuration) ValidateConfiguration() ([]string, error) {
	if c.Year < constants.StartYear || c.Year > constants.TCLastYear {
		return nil, fmt.Errorf("year %d outside supported range [%d, %d]",
			c.Year, constants.StartYear, constants.TCLastYear)
	}
	if err := validation.ValidateOutputVariable(c.Output.Variable); err != nil {
		return nil, err
	}
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return nil, err
	}
	switch c.Output.Axis {
	case "overall", "asset", "industry":
	default:
		return nil, fmt.Errorf("unknown summary axis %q", c.Output.Axis)
	}

	var warnings []string
	if c.Reform.RevisionFile == "" && c.Reform.DeprecRevisionCSV == "" {
		warnings = append(warnings, "no reform revision configured; baseline and reform columns will match")
	}
	if c.Output.Format == constants.OutputFormatExcel && c.Output.File == "" {
		warnings = append(warnings, "excel output without an output file writes the workbook to stdout")
	}
	return warnings, nil
}
