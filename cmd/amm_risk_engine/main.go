package main

import (
	"flag"
	"fmt"
	"os"

	"frizo/amm_risk_engine/internal/common"
	"frizo/amm_risk_engine/internal/config"
	"frizo/amm_risk_engine/internal/fixed"
	"frizo/amm_risk_engine/internal/logger"
	"frizo/amm_risk_engine/internal/pricing"
	"frizo/amm_risk_engine/internal/version"
	"frizo/amm_risk_engine/pkg/utils"
)

func main() {
	// Command line flags
	var (
		showVersion  = flag.Bool("version", false, "Show version information")
		showHelp     = flag.Bool("help", false, "Show help information")
		snapshotFile = flag.String("snapshot", "", "Path to the YAML market snapshot (default $SNAPSHOT_FILE)")
		logLevel     = flag.String("log-level", "", "Log level (debug, info, warn, error)")
		logFile      = flag.String("log-file", "", "Also write logs to this rotating file")
		trade        = flag.String("trade", "0", "Signed trade size in base currency")
		leverage     = flag.String("leverage", "10", "Target leverage for the required collateral")
	)
	flag.Parse()

	// Handle version flag
	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Handle help flag
	if *showHelp {
		fmt.Printf("AMM Risk Engine %s\n\n", version.Short())
		fmt.Println("Usage:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// Load configuration
	cfg := config.Load()

	// Override from command line
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *snapshotFile != "" {
		cfg.SnapshotFile = *snapshotFile
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Initialize logger
	if cfg.LogFile != "" {
		if err := utils.EnsureParentDir(cfg.LogFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile, JSON: cfg.IsProduction()})
	logger.SetDefault(log)

	runID := common.NewRunID()
	log.WithFields(version.Fields()).Info("Starting AMM Risk Engine",
		"run_id", runID,
		"environment", cfg.Environment,
		"snapshot", cfg.SnapshotFile,
	)

	err := run(cfg, runID, *trade, *leverage, log)
	if err != nil {
		log.Error("Evaluation failed", "run_id", runID, "error", err)
	}
	if cerr := log.Close(); cerr != nil {
		fmt.Fprintln(os.Stderr, cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

// run evaluates the configured snapshot and prints the report.
func run(cfg *config.Config, runID, trade, leverage string, log *logger.Logger) error {
	if !utils.FileExists(cfg.SnapshotFile) {
		return fmt.Errorf("snapshot file %q not found", cfg.SnapshotFile)
	}
	snap, err := config.LoadSnapshot(cfg.SnapshotFile)
	if err != nil {
		return err
	}

	req := request{MaxIterations: cfg.MaxIterations}
	if req.Trade, err = fixed.Parse(trade); err != nil {
		return fmt.Errorf("-trade: %w", err)
	}
	if req.Leverage, err = fixed.Parse(leverage); err != nil {
		return fmt.Errorf("-leverage: %w", err)
	}
	log.Debug("Depth grid", "percent", utils.Map(pricing.DepthGrid, fixed.Fixed.String))

	r, err := evaluate(snap, req, runID, log)
	if err != nil {
		return err
	}
	r.print(os.Stdout)
	log.Info("Evaluation finished", "run_id", runID, "mid", r.Mid)
	return nil
}
