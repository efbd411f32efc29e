package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	OpenAI     OpenAIConfig
	Tavily     TavilyConfig
	Cloudinary CloudinaryConfig
	Browser    BrowserConfig
	Pipeline   PipelineConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, takes precedence
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	FrontendURL    string
}

// OpenAIConfig holds the generative text capability configuration
type OpenAIConfig struct {
	APIKey          string
	APIBase         string
	ChatModel       string
	ChatTemperature float64
	ChatMaxTokens   int
	Timeout         int
	Enabled         bool
}

// TavilyConfig holds the web search provider configuration
type TavilyConfig struct {
	APIKey  string
	APIBase string
	Timeout int
}

// CloudinaryConfig holds the image upload configuration
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Enabled   bool
}

// BrowserConfig holds browser automation configuration
type BrowserConfig struct {
	Headless      bool
	SettleSeconds int // fixed pause after triggering a client-side map search
}

// PipelineConfig holds agent pipeline configuration
type PipelineConfig struct {
	DataDir        string
	CacheTTLHours  int
	DefaultResults int
	MaxResults     int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", ""))),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "estate_scout"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		OpenAI: OpenAIConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			APIBase:         getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ChatModel:       getEnv("OPENAI_CHAT_MODEL", "gpt-4o"),
			ChatTemperature: getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.0),
			ChatMaxTokens:   getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 4096),
			Timeout:         getEnvAsInt("OPENAI_TIMEOUT", 30),
			Enabled:         isConfigured(getEnv("OPENAI_API_KEY", ""), "your_openai_api_key_here"),
		},
		Tavily: TavilyConfig{
			APIKey:  getEnv("TAVILY_API_KEY", ""),
			APIBase: getEnv("TAVILY_API_BASE", "https://api.tavily.com"),
			Timeout: getEnvAsInt("TAVILY_TIMEOUT", 30),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
			Enabled: getEnv("CLOUDINARY_CLOUD_NAME", "") != "" &&
				getEnv("CLOUDINARY_API_KEY", "") != "" &&
				getEnv("CLOUDINARY_API_SECRET", "") != "",
		},
		Browser: BrowserConfig{
			Headless:      getEnvAsBool("BROWSER_HEADLESS", true),
			SettleSeconds: getEnvAsInt("BROWSER_SETTLE_SECONDS", 2),
		},
		Pipeline: PipelineConfig{
			DataDir:        getEnv("DATA_DIR", "data"),
			CacheTTLHours:  getEnvAsInt("SEARCH_CACHE_TTL_HOURS", 24),
			DefaultResults: getEnvAsInt("SEARCH_DEFAULT_RESULTS", 5),
			MaxResults:     getEnvAsInt("SEARCH_MAX_RESULTS", 10),
		},
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// TavilyConfigured reports whether the web search provider has a usable key.
func (c *Config) TavilyConfigured() bool {
	return isConfigured(c.Tavily.APIKey, "your_tavily_api_key_here")
}

// isConfigured rejects empty values and untouched .env placeholders.
func isConfigured(value, placeholder string) bool {
	return value != "" && value != placeholder
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}
