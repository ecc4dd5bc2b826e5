package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"frizo/argencoin_engine/internal/bank"
	"frizo/argencoin_engine/internal/common"
	"frizo/argencoin_engine/internal/config"
	"frizo/argencoin_engine/internal/logger"
	"frizo/argencoin_engine/internal/oracle"
	"frizo/argencoin_engine/internal/staking"
	"frizo/argencoin_engine/internal/token"
	"frizo/argencoin_engine/internal/version"
	"frizo/argencoin_engine/pkg/utils"
)

func main() {
	// Command line flags
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		healthCheck = flag.Bool("health-check", false, "Perform health check")
		configFile  = flag.String("config", ".env.local", "Path to configuration file")
		logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	// Handle version flag
	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Handle help flag
	if *showHelp {
		fmt.Printf("Argencoin Engine %s\n\n", version.Short())
		fmt.Println("Usage:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// Handle health check
	if *healthCheck {
		fmt.Println("OK")
		os.Exit(0)
	}

	// Load configuration
	cfg := config.Load()

	// Override log level from command line
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	// Initialize logger
	log := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.SetDefault(log)

	// Log startup information
	log.Info("Starting Argencoin Engine",
		"version", version.Short(),
		"environment", cfg.Environment,
		"host", cfg.Host,
		"port", cfg.Port,
	)

	if *configFile != "" && !utils.FileExists(*configFile) {
		log.Warn("Configuration file not found, using environment", "file", *configFile)
	}

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if err := run(cfg, log); err != nil {
		log.Error("Application error", "error", err)
		os.Exit(1)
	}

	// Wait for shutdown signal
	<-quit
	log.Info("Shutting down Argencoin Engine...")

	log.Info("Argencoin Engine stopped")
}

// run deploys the protocol with the configured parameters
func run(cfg *config.Config, log *logger.Logger) error {
	admin := common.GenerateAccountID("admin")

	argencoin := token.New("Argencoin", cfg.StableSymbol, admin)
	collateral := token.New("Dai", cfg.CollateralSymbol, admin)
	rates := oracle.New(admin)
	stk := staking.New(admin, argencoin, nil)

	centralBank, err := bank.New(admin, argencoin, rates, stk.Address(),
		cfg.CollateralBasisPoints, cfg.LiquidationBasisPoints, cfg.MintingFeeBasisPoints)
	if err != nil {
		return err
	}

	if err := argencoin.GrantMinter(admin, centralBank.Address()); err != nil {
		return err
	}
	if err := centralBank.AddCollateralToken(admin, cfg.CollateralSymbol, collateral); err != nil {
		return err
	}
	if err := stk.AddRewardToken(admin, cfg.CollateralSymbol, collateral); err != nil {
		return err
	}
	if err := stk.EditRewardToken(admin, collateral); err != nil {
		return err
	}

	log.Info("CentralBank deployed",
		"address", centralBank.Address(),
		"collateral_bp", cfg.CollateralBasisPoints,
		"liquidation_bp", cfg.LiquidationBasisPoints,
		"minting_fee_bp", cfg.MintingFeeBasisPoints,
	)
	log.Info("Staking deployed", "address", stk.Address())
	log.Info("Argencoin Engine is running", "address", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
	return nil
}
