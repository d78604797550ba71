package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port string

	// Board
	BoardRows int
	BoardCols int
	WinLength int

	// Stakes and fees (all amounts in cents)
	MinStakeAmount   int64
	MaxStakeAmount   int64
	FeePercent       int64
	SignupBonusCents int64

	// Timers
	TurnTimeoutSeconds  int
	MatchTimeoutMinutes int

	// Bot
	BotWaitSeconds       int
	BotWorkerPollSeconds int
	BotThinkMillis       int

	// Security
	JWTSecret         string
	SessionTimeoutMin int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/playgrid?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port: getEnv("APP_PORT", "8080"),

		// Board
		BoardRows: getEnvInt("BOARD_ROWS", 6),
		BoardCols: getEnvInt("BOARD_COLS", 6),
		WinLength: getEnvInt("WIN_LENGTH", 4),

		// Stakes and fees
		MinStakeAmount:   getEnvInt64("MIN_STAKE_CENTS", 100),
		MaxStakeAmount:   getEnvInt64("MAX_STAKE_CENTS", 1000000),
		FeePercent:       getEnvInt64("FEE_PERCENT", 10),
		SignupBonusCents: getEnvInt64("SIGNUP_BONUS_CENTS", 0),

		// Timers
		TurnTimeoutSeconds:  getEnvInt("TURN_TIMEOUT_SECONDS", 60),
		MatchTimeoutMinutes: getEnvInt("MATCH_TIMEOUT_MINUTES", 30),

		// Bot
		BotWaitSeconds:       getEnvInt("BOT_WAIT_SECONDS", 30),
		BotWorkerPollSeconds: getEnvInt("BOT_WORKER_POLL_SECONDS", 5),
		BotThinkMillis:       getEnvInt("BOT_THINK_MILLIS", 1500),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTimeoutMin: getEnvInt("SESSION_TIMEOUT_MINUTES", 30),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}
