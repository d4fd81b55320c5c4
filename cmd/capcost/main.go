package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/iwvelando/capcost/internal/assets"
	"github.com/iwvelando/capcost/internal/config"
	"github.com/iwvelando/capcost/internal/engine"
	"github.com/iwvelando/capcost/internal/mtr"
	"github.com/iwvelando/capcost/internal/params"
	"github.com/iwvelando/capcost/internal/server"
	"github.com/iwvelando/capcost/pkg/constants"
	"github.com/iwvelando/capcost/pkg/output"
	"github.com/iwvelando/capcost/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is stamped at build time.
var version = "dev"

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info" // Default to info level
	}

	// Parse log level
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	// Determine output format
	format := loggingConfig.Format
	if format == "" {
		format = "json" // Default to JSON for production
	}

	// Configure encoder
	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	// Configure output file if specified
	if loggingConfig.OutputFile != "" {
		// Ensure the directory exists
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		// Test if we can create/write to the file
		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

// buildCalculator assembles one policy regime from its revision files.
func buildCalculator(logger *zap.Logger, conf *config.Configuration, regime config.RegimeConfig) (*engine.Calculator, error) {
	opts := []params.Option{params.WithLogger(logger)}
	if conf.EstimateIITRates {
		opts = append(opts, params.WithRateFetcher(mtr.NewFixedTable(), nil, nil))
	}
	spec, err := params.New(conf.Year, opts...)
	if err != nil {
		return nil, err
	}
	if regime.RevisionFile != "" {
		data, err := os.ReadFile(regime.RevisionFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read revision file: %w", err)
		}
		if _, err := spec.Adjust(string(data), true); err != nil {
			return nil, err
		}
	}

	rules, err := params.NewDeprecRules(conf.Year, logger)
	if err != nil {
		return nil, err
	}
	if regime.DeprecRevisionCSV != "" {
		f, err := os.Open(regime.DeprecRevisionCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to open depreciation revision: %w", err)
		}
		_, adjErr := rules.AdjustCSV(f, true)
		if closeErr := f.Close(); closeErr != nil {
			logger.Warn("failed to close depreciation revision",
				zap.String("op", "main.buildCalculator"),
				zap.Error(closeErr),
			)
		}
		if adjErr != nil {
			return nil, adjErr
		}
	}

	var table assets.Table
	if conf.AssetsFile != "" {
		table, err = assets.Load(conf.AssetsFile)
	} else {
		table, err = assets.LoadSample()
	}
	if err != nil {
		return nil, err
	}

	return engine.New(spec, rules, table, logger), nil
}

func runSummary(logger *zap.Logger, conf *config.Configuration) error {
	baseline, err := buildCalculator(logger, conf, conf.Baseline)
	if err != nil {
		return fmt.Errorf("baseline: %w", err)
	}
	reform, err := buildCalculator(logger, conf, conf.Reform)
	if err != nil {
		return fmt.Errorf("reform: %w", err)
	}

	opts := engine.GroupOptions{
		IncludeLand:        conf.Output.IncludeLand,
		IncludeInventories: conf.Output.IncludeInventories,
	}

	var summary *engine.Summary
	switch conf.Output.Axis {
	case "asset":
		summary, err = baseline.AssetSummaryTable(reform, conf.Output.Variable, opts)
	case "industry":
		summary, err = baseline.IndustrySummaryTable(reform, conf.Output.Variable, opts)
	default:
		summary, err = baseline.SummaryTable(reform, conf.Output.Variable, opts)
	}
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if conf.Output.File != "" {
		f, err := os.Create(conf.Output.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		w = f
	}
	return output.Write(w, summary, conf.Output.Format)
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to run configuration file")
	yearFlag := flag.Int("year", 0, "calculation year override")
	reformFlag := flag.String("reform", "", "path override for the reform revision file")
	baselineFlag := flag.String("baseline", "", "path override for the baseline revision file")
	outputVariable := flag.String("output-variable", "", "output variable override: metr, mettr, rho, ucc, z, delta, tax_wedge, eatr")
	outputFormatFlag := flag.String("output-format", "", "output format override: pretty, csv, json, html, tex, excel")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	serve := flag.Bool("serve", false, "run the HTTP API instead of a one-shot calculation")
	serverConfig := flag.String("server-config", "", "path to server configuration file")
	flag.Parse()

	// Environment overrides may live alongside the binary.
	_ = godotenv.Load()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Apply CLI overrides (they take precedence over config)
	if *yearFlag != 0 {
		conf.Year = *yearFlag
	}
	if *reformFlag != "" {
		conf.Reform.RevisionFile = *reformFlag
	}
	if *baselineFlag != "" {
		conf.Baseline.RevisionFile = *baselineFlag
	}
	if *outputVariable != "" {
		conf.Output.Variable = *outputVariable
	}
	if *outputFormatFlag != "" {
		conf.Output.Format = *outputFormatFlag
	}

	if err := validation.ValidateOutputFormat(conf.Output.Format); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	// Validate configuration and display any warnings
	warnings, err := conf.ValidateConfiguration()
	if err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if *serve {
		srvConf := server.DefaultConfig()
		if *serverConfig != "" {
			srvConf, err = server.LoadConfig(*serverConfig)
			if err != nil {
				logger.Fatal("failed to load server configuration",
					zap.String("op", "main"),
					zap.Error(err),
				)
			}
		}
		handler := server.NewHandler(logger, srvConf.MaxBodySize, version)
		logger.Info("serving calculator API",
			zap.String("op", "main"),
			zap.String("address", srvConf.Address),
			zap.String("version", version),
		)
		if err := http.ListenAndServe(srvConf.Address, handler); err != nil {
			logger.Fatal("server terminated",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	if err := runSummary(logger, conf); err != nil {
		logger.Fatal("failed to compute summary",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
