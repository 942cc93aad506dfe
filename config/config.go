package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the validation service.
type Config struct {
	Port            string        `json:"port"`
	RPCURL          string        `json:"rpc_url"`
	ContractAddress string        `json:"contract_address"`
	OperatorKey     string        `json:"-"`
	GeminiAPIKey    string        `json:"-"`
	GeminiModel     string        `json:"gemini_model"`
	ScorerTimeout   time.Duration `json:"scorer_timeout"`
	ConfirmTimeout  time.Duration `json:"confirm_timeout"`
	PollInterval    time.Duration `json:"poll_interval"`
}

// Load loads configuration from environment variables, honoring an optional
// .env file. The operator key is deliberately not required here: its absence
// is a request-time error on authority-restricted ledger operations, not a
// startup one.
func Load() (*Config, error) {
	// Ignore the error: a missing .env file is the normal deployed case.
	_ = godotenv.Load()

	config := &Config{
		Port:            getEnv("PORT", "8080"),
		RPCURL:          getEnv("ETH_RPC_URL", ""),
		ContractAddress: getEnv("CONTRACT_ADDRESS", ""),
		OperatorKey:     getEnv("ADMIN_PRIVATE_KEY", ""),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
	}

	var err error
	if config.ScorerTimeout, err = getDuration("SCORER_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if config.ConfirmTimeout, err = getDuration("LEDGER_CONFIRM_TIMEOUT", 90*time.Second); err != nil {
		return nil, err
	}
	if config.PollInterval, err = getDuration("POLL_INTERVAL", 3*time.Second); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("ETH_RPC_URL is required")
	}
	if c.ContractAddress == "" {
		return fmt.Errorf("CONTRACT_ADDRESS is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	return nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a duration environment variable with a default value.
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return d, nil
}
