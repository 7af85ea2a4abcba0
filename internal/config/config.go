package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Dataset   DatasetConfig
	Analytics AnalyticsConfig
	LLM       LLMConfig
	Logger    LoggerConfig
	Security  SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatasetConfig struct {
	CSVFile       string
	MaxUploadSize int64
}

type AnalyticsConfig struct {
	RevenueTargetGrowth float64
	MarginFloor         float64
	MemoryEntries       int
	BlueprintsFile      string
}

type LLMConfig struct {
	APIKey      string
	Model       string
	Endpoint    string
	Temperature float64
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8086),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Dataset: DatasetConfig{
			CSVFile:       getEnvString("SALES_CSV_FILE", ""),
			MaxUploadSize: int64(getEnvInt("UPLOAD_MAX_BYTES", 32<<20)),
		},
		Analytics: AnalyticsConfig{
			RevenueTargetGrowth: getEnvFloat("ANALYTICS_REVENUE_TARGET_GROWTH", 0.05),
			MarginFloor:         getEnvFloat("ANALYTICS_MARGIN_FLOOR", 0.20),
			MemoryEntries:       getEnvInt("MEMORY_MAX_ENTRIES", 10),
			BlueprintsFile:      getEnvString("AGENTS_CONFIG_FILE", ""),
		},
		LLM: LLMConfig{
			APIKey:      getEnvString("LLM_API_KEY", os.Getenv("GROQ_API_KEY")),
			Model:       getEnvString("LLM_MODEL", "llama-3.3-70b-versatile"),
			Endpoint:    getEnvString("LLM_ENDPOINT", ""),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8086"}),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Dataset.MaxUploadSize <= 0 {
		return fmt.Errorf("upload size limit must be positive")
	}
	if c.Analytics.RevenueTargetGrowth < 0 {
		return fmt.Errorf("revenue growth target cannot be negative")
	}
	if c.Analytics.MarginFloor < 0 || c.Analytics.MarginFloor > 1 {
		return fmt.Errorf("margin floor must be within [0,1], got %g", c.Analytics.MarginFloor)
	}
	if c.Analytics.MemoryEntries < 1 {
		return fmt.Errorf("memory capacity must be at least 1")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature must be within [0,2], got %g", c.LLM.Temperature)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}
	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 || c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit settings must be positive")
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
