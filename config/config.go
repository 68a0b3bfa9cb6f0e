package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every configuration parameter of the application.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	EngineCommand    string
	EngineScriptPath string
	SystemBotPath    string
	EngineScratchDir string
	MatchTimeout     time.Duration

	PlayoffMaxParticipants int
}

// Load reads configuration from environment variables. A .env file is
// loaded first when present, which is convenient for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		JWTSecretKey: os.Getenv("JWT_SECRET_KEY"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),

		EngineCommand:    getEnvDefault("ENGINE_COMMAND", "python3"),
		EngineScriptPath: os.Getenv("ENGINE_SCRIPT_PATH"),
		SystemBotPath:    os.Getenv("SYSTEM_BOT_PATH"),
		EngineScratchDir: os.Getenv("ENGINE_SCRATCH_DIR"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}
	if cfg.EngineScriptPath == "" {
		return nil, fmt.Errorf("ENGINE_SCRIPT_PATH environment variable is not set")
	}
	if cfg.SystemBotPath == "" {
		return nil, fmt.Errorf("SYSTEM_BOT_PATH environment variable is not set")
	}

	portStr := getEnvDefault("SERVER_PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	timeoutStr := getEnvDefault("MATCH_TIMEOUT", "2m")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid MATCH_TIMEOUT environment variable: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("MATCH_TIMEOUT must be positive, got %v", timeout)
	}
	cfg.MatchTimeout = timeout

	limitStr := getEnvDefault("PLAYOFF_MAX_PARTICIPANTS", "16")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PLAYOFF_MAX_PARTICIPANTS environment variable: %w", err)
	}
	if limit < 2 {
		return nil, fmt.Errorf("PLAYOFF_MAX_PARTICIPANTS must be at least 2, got %d", limit)
	}
	cfg.PlayoffMaxParticipants = limit

	return cfg, nil
}

func getEnvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
