package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	Pipeline   PipelineConfig
	Analyzer   AnalyzerConfig
	Transpiler TranspilerConfig
	Validator  ValidatorConfig
	Database   DatabaseConfig
	Archive    ArchiveConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type LoggerConfig struct {
	Level  string
	Format string
}

// PipelineConfig controls run intake and the per-run working directories
type PipelineConfig struct {
	WorkDir        string
	MaxUploadBytes int64
}

// AnalyzerConfig locates the external analysis CLI
type AnalyzerConfig struct {
	Bin     string
	Timeout time.Duration
}

// TranspilerConfig locates the external code generation CLI
type TranspilerConfig struct {
	Bin     string
	Timeout time.Duration
}

// ValidatorConfig points at the hosted language model. An empty APIKey puts
// the validator in mock mode.
type ValidatorConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// DatabaseConfig is the optional durable run store; the in-memory store is
// used when disabled.
type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// ArchiveConfig is the optional object storage mirror for run artifacts
type ArchiveConfig struct {
	Enabled       bool
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PresignExpiry time.Duration
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")

	v.SetDefault("PIPELINE_WORKDIR", "bridge")
	v.SetDefault("PIPELINE_MAX_UPLOAD_MB", 32)

	v.SetDefault("ANALYZER_BIN", "databricks")
	v.SetDefault("ANALYZER_TIMEOUT", "300s")
	v.SetDefault("TRANSPILER_BIN", "databricks")
	v.SetDefault("TRANSPILER_TIMEOUT", "600s")

	v.SetDefault("VALIDATOR_BASE_URL", "https://api-inference.huggingface.co")
	v.SetDefault("VALIDATOR_MODEL", "HuggingFaceH4/zephyr-7b-beta")
	v.SetDefault("VALIDATOR_TIMEOUT", "120s")

	v.SetDefault("DATABASE_ENABLED", false)
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "postgres")
	v.SetDefault("DATABASE_NAME", "migration_portal")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 2)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")

	v.SetDefault("ARCHIVE_ENABLED", false)
	v.SetDefault("ARCHIVE_ENDPOINT", "localhost:9000")
	v.SetDefault("ARCHIVE_BUCKET", "migration-artifacts")
	v.SetDefault("ARCHIVE_USE_SSL", false)
	v.SetDefault("ARCHIVE_PRESIGN_EXPIRY", "1h")

	// Env
	v.AutomaticEnv()

	// The original deployment configures the validator token as
	// HUGGINGFACE_API_KEY; keep honoring it.
	apiKey := v.GetString("VALIDATOR_API_KEY")
	if apiKey == "" {
		apiKey = v.GetString("HUGGINGFACE_API_KEY")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
		Pipeline: PipelineConfig{
			WorkDir:        v.GetString("PIPELINE_WORKDIR"),
			MaxUploadBytes: v.GetInt64("PIPELINE_MAX_UPLOAD_MB") << 20,
		},
		Analyzer: AnalyzerConfig{
			Bin:     v.GetString("ANALYZER_BIN"),
			Timeout: duration(v, "ANALYZER_TIMEOUT", 300*time.Second),
		},
		Transpiler: TranspilerConfig{
			Bin:     v.GetString("TRANSPILER_BIN"),
			Timeout: duration(v, "TRANSPILER_TIMEOUT", 600*time.Second),
		},
		Validator: ValidatorConfig{
			BaseURL: v.GetString("VALIDATOR_BASE_URL"),
			APIKey:  apiKey,
			Model:   v.GetString("VALIDATOR_MODEL"),
			Timeout: duration(v, "VALIDATOR_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("DATABASE_ENABLED"),
			Host:            v.GetString("DATABASE_HOST"),
			Port:            v.GetInt("DATABASE_PORT"),
			User:            v.GetString("DATABASE_USER"),
			Password:        v.GetString("DATABASE_PASSWORD"),
			Name:            v.GetString("DATABASE_NAME"),
			SSLMode:         v.GetString("DATABASE_SSLMODE"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: duration(v, "DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Archive: ArchiveConfig{
			Enabled:       v.GetBool("ARCHIVE_ENABLED"),
			Endpoint:      v.GetString("ARCHIVE_ENDPOINT"),
			AccessKey:     v.GetString("ARCHIVE_ACCESS_KEY"),
			SecretKey:     v.GetString("ARCHIVE_SECRET_KEY"),
			Bucket:        v.GetString("ARCHIVE_BUCKET"),
			UseSSL:        v.GetBool("ARCHIVE_USE_SSL"),
			PresignExpiry: duration(v, "ARCHIVE_PRESIGN_EXPIRY", time.Hour),
		},
	}

	return cfg, nil
}

func duration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}
