package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Sweep  SweepConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port string
}

type DBConfig struct {
	// Driver selects "postgres" (default) or "sqlite" for local development.
	Driver string
	DSN    string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type SweepConfig struct {
	// Interval between background overdue sweeps. A sweep can also be
	// triggered on demand through the API, so this only bounds staleness.
	Interval time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL := getDurationEnv("AUTH_TOKEN_TTL", 24*time.Hour)
	sweepInterval := getDurationEnv("SWEEP_INTERVAL", time.Hour)

	return Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		DB: DBConfig{
			Driver: getEnv("DB_DRIVER", "postgres"),
			DSN:    getEnv("DB_DSN", "host=localhost user=balcao password=balcao dbname=balcao port=5432 sslmode=disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-only-secret"),
			TokenTTL:  tokenTTL,
		},
		Sweep: SweepConfig{
			Interval: sweepInterval,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using default %s", key, defaultValue)
	}
	return defaultValue
}
