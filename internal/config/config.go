package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Game        GameConfig
	Leaderboard LeaderboardConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host              string
	Port              string
	GinMode           string
	EnableMetrics     bool
	EnableHealthCheck bool
	CORSOrigins       []string
	Debug             bool
	LogLevel          string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver   string // "gorm" or "postgres" (raw database/sql)
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

// RedisConfig holds Redis-related configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// GameConfig holds the timed-session settings for the two game modes
type GameConfig struct {
	NormalSessionSeconds int
	HardSessionSeconds   int
}

// LeaderboardConfig holds leaderboard-related configuration
type LeaderboardConfig struct {
	TopSize  int
	CacheTTL int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file from multiple possible locations
	envPaths := []string{
		".env",    // Current directory
		"../.env", // Parent directory
	}

	envLoaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("Loaded environment variables from: %s", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Println("No .env file found, using environment variables and defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Host:              getEnv("SERVER_HOST", "0.0.0.0"),
			Port:              getEnv("SERVER_PORT", "6060"),
			GinMode:           getEnv("GIN_MODE", "release"),
			EnableMetrics:     getEnvBool("ENABLE_METRICS", true),
			EnableHealthCheck: getEnvBool("ENABLE_HEALTH_CHECK", true),
			CORSOrigins:       getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:6060"}),
			Debug:             getEnvBool("DEBUG", false),
			LogLevel:          getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "gorm"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "hackbutton"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Game: GameConfig{
			NormalSessionSeconds: getEnvInt("NORMAL_SESSION_SECONDS", 15),
			HardSessionSeconds:   getEnvInt("HARD_SESSION_SECONDS", 60),
		},
		Leaderboard: LeaderboardConfig{
			TopSize:  getEnvInt("LEADERBOARD_TOP_SIZE", 10),
			CacheTTL: getEnvInt("LEADERBOARD_CACHE_TTL", 300),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Driver != "gorm" && c.Database.Driver != "postgres" {
		return fmt.Errorf("DB_DRIVER must be 'gorm' or 'postgres'")
	}

	if c.Database.Host == "" || c.Database.Name == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration is incomplete")
	}

	if c.Game.NormalSessionSeconds <= 0 || c.Game.HardSessionSeconds <= 0 {
		return fmt.Errorf("session durations must be positive")
	}

	if c.Leaderboard.TopSize <= 0 {
		return fmt.Errorf("leaderboard top size must be positive")
	}

	return nil
}

// GetServerAddress returns the server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
