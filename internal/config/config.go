package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Upload   UploadConfig
	Report   ReportConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	FrontendURL     string
	Environment     string
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// UploadConfig governs CSV upload validation.
type UploadConfig struct {
	// MaxUploadSize is the size ceiling in bytes for a single upload.
	MaxUploadSize int64
	// AllowedExtensions is the case-insensitive file extension allow-list.
	AllowedExtensions []string
	// AllowedMIMETypes is the allow-list for sniffed content types.
	AllowedMIMETypes []string
	// MaxCellSize is the per-cell character cap.
	MaxCellSize int
	// FallbackCategory receives rows whose category is unrecognized.
	FallbackCategory string
	// FallbackImpact receives rows whose impact is unrecognized.
	FallbackImpact string
}

// ReportConfig governs report generation and retention.
type ReportConfig struct {
	TopN          int
	RetentionDays int
	// SweepSchedule is a cron expression for the retention sweeper.
	SweepSchedule string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5173"),
			Environment:     getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "advisorlens"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            getEnv("DB_PATH", "./data.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Upload: UploadConfig{
			MaxUploadSize:     getEnvAsInt64("MAX_UPLOAD_SIZE", 50*1024*1024),
			AllowedExtensions: getEnvAsSlice("ALLOWED_CSV_EXTENSIONS", []string{".csv"}),
			AllowedMIMETypes: getEnvAsSlice("ALLOWED_CSV_MIMETYPES", []string{
				"text/plain",
				"text/csv",
				"application/csv",
				"application/vnd.ms-excel",
				"text/x-csv",
			}),
			MaxCellSize:      getEnvAsInt("CSV_MAX_CELL_SIZE", 10000),
			FallbackCategory: getEnv("CSV_FALLBACK_CATEGORY", "Operational Excellence"),
			FallbackImpact:   getEnv("CSV_FALLBACK_IMPACT", "Medium"),
		},
		Report: ReportConfig{
			TopN:          getEnvAsInt("REPORT_TOP_N", 10),
			RetentionDays: getEnvAsInt("REPORT_RETENTION_DAYS", 90),
			SweepSchedule: getEnv("REPORT_SWEEP_SCHEDULE", "0 3 * * *"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Upload.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive, got %d", c.Upload.MaxUploadSize)
	}
	if c.Upload.MaxCellSize <= 0 {
		return fmt.Errorf("CSV_MAX_CELL_SIZE must be positive, got %d", c.Upload.MaxCellSize)
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return fmt.Errorf("ALLOWED_CSV_EXTENSIONS must not be empty")
	}
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
