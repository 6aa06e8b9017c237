package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Reports  ReportsConfig
	Backup   BackupConfig
	OTEL     OTELConfig
}

// AppConfig holds process-wide settings
type AppConfig struct {
	Env             string
	DefaultLanguage string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// StoreConfig selects the storage backend
type StoreConfig struct {
	Driver     string
	SQLitePath string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// ReportsConfig holds report cache settings
type ReportsConfig struct {
	CacheTTLSeconds int
}

// BackupConfig holds backup sink configuration
type BackupConfig struct {
	Driver      string
	Dir         string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
	MetricsEnabled bool
}

const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"

	BackupDriverFS = "fs"
	BackupDriverS3 = "s3"
)

var defaults = map[string]any{
	"APP_ENV":                  "development",
	"DEFAULT_LANGUAGE":         "ar",
	"SERVER_HOST":              "0.0.0.0",
	"SERVER_PORT":              8080,
	"ALLOWED_ORIGINS":          "*",
	"STORE_DRIVER":             StoreDriverSQLite,
	"SQLITE_PATH":              "medlab.db",
	"DB_HOST":                  "localhost",
	"DB_PORT":                  5432,
	"DB_USER":                  "postgres",
	"DB_PASSWORD":              "",
	"DB_NAME":                  "medlab",
	"DB_SSLMODE":               "disable",
	"REDIS_ENABLED":            false,
	"REDIS_HOST":               "localhost",
	"REDIS_PORT":               6379,
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"REPORT_CACHE_TTL_SECONDS": 300,
	"BACKUP_DRIVER":            BackupDriverFS,
	"BACKUP_DIR":               "backups",
	"BACKUP_S3_BUCKET":         "",
	"BACKUP_S3_REGION":         "us-east-1",
	"BACKUP_S3_ENDPOINT":       "",
	"BACKUP_S3_PATH_STYLE":     false,
	"OTEL_SERVICE_NAME":        "medlab",
	"OTEL_SERVICE_VERSION":     "1.0.0",
	"OTEL_ENDPOINT":            "",
	"OTEL_ENABLED":             false,
	"METRICS_ENABLED":          true,
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from an optional config file, with
// environment variables taking precedence over file values.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		_ = v.BindEnv(key)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Env:             v.GetString("APP_ENV"),
			DefaultLanguage: v.GetString("DEFAULT_LANGUAGE"),
		},
		Server: ServerConfig{
			Host:           v.GetString("SERVER_HOST"),
			Port:           v.GetInt("SERVER_PORT"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		},
		Store: StoreConfig{
			Driver:     strings.ToLower(v.GetString("STORE_DRIVER")),
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Reports: ReportsConfig{
			CacheTTLSeconds: v.GetInt("REPORT_CACHE_TTL_SECONDS"),
		},
		Backup: BackupConfig{
			Driver:      strings.ToLower(v.GetString("BACKUP_DRIVER")),
			Dir:         v.GetString("BACKUP_DIR"),
			S3Bucket:    v.GetString("BACKUP_S3_BUCKET"),
			S3Region:    v.GetString("BACKUP_S3_REGION"),
			S3Endpoint:  v.GetString("BACKUP_S3_ENDPOINT"),
			S3PathStyle: v.GetBool("BACKUP_S3_PATH_STYLE"),
		},
		OTEL: OTELConfig{
			ServiceName:    v.GetString("OTEL_SERVICE_NAME"),
			ServiceVersion: v.GetString("OTEL_SERVICE_VERSION"),
			Endpoint:       v.GetString("OTEL_ENDPOINT"),
			Enabled:        v.GetBool("OTEL_ENABLED"),
			MetricsEnabled: v.GetBool("METRICS_ENABLED"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that select between backends.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER is %q", StoreDriverSQLite)
		}
	case StoreDriverPostgres:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverSQLite, StoreDriverPostgres, c.Store.Driver)
	}

	switch c.Backup.Driver {
	case BackupDriverFS:
	case BackupDriverS3:
		if c.Backup.S3Bucket == "" {
			return fmt.Errorf("BACKUP_S3_BUCKET is required when BACKUP_DRIVER is %q", BackupDriverS3)
		}
	default:
		return fmt.Errorf("BACKUP_DRIVER must be %q or %q, got %q", BackupDriverFS, BackupDriverS3, c.Backup.Driver)
	}

	if c.Reports.CacheTTLSeconds < 0 {
		return fmt.Errorf("REPORT_CACHE_TTL_SECONDS must not be negative")
	}
	return nil
}

// IsDev reports whether the process runs in development mode.
func (c *Config) IsDev() bool {
	return c.App.Env == "development"
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
