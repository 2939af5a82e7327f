package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	OCR      OCRConfig      `yaml:"ocr"`
	Queue    QueueConfig    `yaml:"queue"`
	Ingest   IngestConfig   `yaml:"ingest"`
	LogLevel string         `yaml:"log_level"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract   string        `yaml:"tesseract"`
	Pdftoppm    string        `yaml:"pdftoppm"`
	TessdataDir string        `yaml:"tessdata_dir"`
	Backend     string        `yaml:"backend"` // "cli" | "gosseract"
	CachePath   string        `yaml:"cache_path"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	Whitelist   string        `yaml:"whitelist"` // applied to every recognizer config
}

// QueueConfig holds worker-pool configuration
type QueueConfig struct {
	Workers        int           `yaml:"workers"`
	Size           int           `yaml:"size"`
	ProcessTimeout time.Duration `yaml:"process_timeout"`
}

// IngestConfig holds inbox-watcher configuration
type IngestConfig struct {
	InboxDirs []string      `yaml:"inbox_dirs"`
	Debounce  time.Duration `yaml:"debounce"`
}

// LoadConfig loads configuration from an optional YAML file (DOCEXTRACT_CONFIG)
// and then from environment variables, which take precedence.
func LoadConfig() (*Config, error) {
	base := defaultConfig()
	if path := os.Getenv("DOCEXTRACT_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("read config file %q", path), err)
		}
		if err := yaml.Unmarshal(b, base); err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("parse config file %q", path), err)
		}
	}
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", base.Database.DSN),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", base.Database.MaxConns),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", base.Database.MinConns),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", base.Database.MaxConnLifetime),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", base.Database.MaxConnIdleTime),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", base.Database.DialTimeout),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", base.Database.StatementTimeout),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", base.Server.GRPCAddr),
		},
		OCR: OCRConfig{
			Tesseract:   getEnv("OCR_TESSERACT", base.OCR.Tesseract),
			Pdftoppm:    getEnv("OCR_PDFTOPPM", base.OCR.Pdftoppm),
			TessdataDir: getEnv("TESSDATA_PREFIX", base.OCR.TessdataDir),
			Backend:     getEnv("OCR_BACKEND", base.OCR.Backend),
			CachePath:   getEnv("OCR_CACHE_PATH", base.OCR.CachePath),
			CacheTTL:    getEnvAsDuration("OCR_CACHE_TTL", base.OCR.CacheTTL),
			Whitelist:   getEnv("OCR_WHITELIST", base.OCR.Whitelist),
		},
		Queue: QueueConfig{
			Workers:        getEnvAsInt("QUEUE_WORKERS", base.Queue.Workers),
			Size:           getEnvAsInt("QUEUE_SIZE", base.Queue.Size),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", base.Queue.ProcessTimeout),
		},
		Ingest: IngestConfig{
			InboxDirs: getEnvAsList("INBOX_DIRS", base.Ingest.InboxDirs),
			Debounce:  getEnvAsDuration("INBOX_DEBOUNCE", base.Ingest.Debounce),
		},
		LogLevel: getEnv("LOG_LEVEL", base.LogLevel),
	}, nil
}

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{GRPCAddr: ":8080"},
		OCR: OCRConfig{
			Tesseract: "tesseract",
			Pdftoppm:  "pdftoppm",
			Backend:   "cli",
			CacheTTL:  24 * time.Hour,
		},
		Queue: QueueConfig{
			Workers:        4,
			Size:           256,
			ProcessTimeout: 3 * time.Minute,
		},
		Ingest:   IngestConfig{Debounce: 500 * time.Millisecond},
		LogLevel: "info",
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// comma-separated
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SlogLevel maps LogLevel to a slog.Level; unknown values map to Info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.OCR.Backend != "cli" && c.OCR.Backend != "gosseract" {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("OCR_BACKEND must be cli or gosseract, got %q", c.OCR.Backend), ErrInvalidInput)
	}
	if c.Queue.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "QUEUE_WORKERS must be positive", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	return nil
}
