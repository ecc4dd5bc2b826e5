package config

import (
	"os"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	// Server configuration
	Host string
	Port int

	// Logging configuration
	LogLevel  string
	LogFormat string

	// Application configuration
	Environment string

	// Protocol configuration (basis points, 10000 = 100%)
	CollateralBasisPoints  uint32
	LiquidationBasisPoints uint32
	MintingFeeBasisPoints  uint32

	// Token configuration
	StableSymbol     string
	CollateralSymbol string
}

// Load loads the configuration from environment variables.
func Load() *Config {
	config := &Config{
		Host:        getEnv("HOST", "localhost"),
		Port:        getEnvAsInt("PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		Environment: getEnv("ENVIRONMENT", "development"),

		CollateralBasisPoints:  getEnvAsBasisPoints("COLLATERAL_BASIS_POINTS", 15000),
		LiquidationBasisPoints: getEnvAsBasisPoints("LIQUIDATION_BASIS_POINTS", 12500),
		MintingFeeBasisPoints:  getEnvAsBasisPoints("MINTING_FEE_BASIS_POINTS", 100),

		StableSymbol:     getEnv("STABLE_SYMBOL", "ARGC"),
		CollateralSymbol: getEnv("COLLATERAL_SYMBOL", "dai"),
	}

	return config
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

// getEnvAsInt gets an environment variable as integer with a default value.
func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// getEnvAsBasisPoints gets an environment variable as basis points with a default value.
func getEnvAsBasisPoints(key string, defaultVal uint32) uint32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseUint(value, 10, 32); err == nil {
			return uint32(intVal)
		}
	}
	return defaultVal
}
