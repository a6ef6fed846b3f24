package common

import (
	"fmt"
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
	LLM      LLMConfig      `yaml:"llm"`
	Prompt   PromptConfig   `yaml:"prompt"`
	Extract  ExtractConfig  `yaml:"extract"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	Batch    BatchConfig    `yaml:"batch"`
	Log      LogConfig      `yaml:"log"`
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

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	BaseURL         string        `yaml:"base_url"`
	Model           string        `yaml:"model"`
	APIKey          string        `yaml:"api_key"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
}

// PromptConfig holds prompt construction limits
type PromptConfig struct {
	MaxChars int `yaml:"max_chars"`
}

// ExtractConfig holds document reader settings
type ExtractConfig struct {
	Pdftotext string `yaml:"pdftotext"` // fallback binary for PDFs without a text layer
	MaxPages  int    `yaml:"max_pages"`
}

// UploadsConfig holds upload registry configuration
type UploadsConfig struct {
	Dir       string `yaml:"dir"`
	MaxBytes  int64  `yaml:"max_bytes"`
	OutputDir string `yaml:"output_dir"`
}

// BatchConfig holds worker pool configuration
type BatchConfig struct {
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", "file:essay-feedback.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		LLM: LLMConfig{
			BaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:           getEnv("OPENAI_MODEL", "gpt-5"),
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			MaxOutputTokens: getEnvAsInt("OPENAI_MAX_OUTPUT_TOKENS", 2048),
			Timeout:         getEnvAsDuration("OPENAI_TIMEOUT", 120*time.Second),
		},
		Prompt: PromptConfig{
			MaxChars: getEnvAsInt("PROMPT_MAX_CHARS", 180_000),
		},
		Extract: ExtractConfig{
			Pdftotext: getEnv("PDFTOTEXT", ""),
			MaxPages:  getEnvAsInt("PDF_MAX_PAGES", 0),
		},
		Uploads: UploadsConfig{
			Dir:       getEnv("UPLOAD_DIR", "./uploads"),
			MaxBytes:  getEnvAsInt64("UPLOAD_MAX_BYTES", 10*1024*1024),
			OutputDir: getEnv("FEEDBACK_OUTPUT_DIR", ""),
		},
		Batch: BatchConfig{
			Workers: getEnvAsInt("WORKERS", 4),
			Timeout: getEnvAsDuration("BATCH_TIMEOUT", 3*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// LoadConfigFile loads env configuration and overlays the YAML file at path.
// Keys missing from the file keep their env/default values.
func LoadConfigFile(path string) (*Config, error) {
	cfg := LoadConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
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

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	v := NewValidator().
		Field("PROMPT_MAX_CHARS", c.Prompt.MaxChars, Positive).
		Field("OPENAI_MAX_OUTPUT_TOKENS", c.LLM.MaxOutputTokens, Positive).
		Field("WORKERS", c.Batch.Workers, Positive).
		Field("LOG_FORMAT", strings.ToLower(c.Log.Format), OneOf("json", "text"))
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// ValidateForModel additionally requires model credentials.
func (c *Config) ValidateForModel() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	return nil
}

// ValidateForServer additionally requires the database and listen address.
func (c *Config) ValidateForServer() error {
	if err := c.ValidateForModel(); err != nil {
		return err
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	return nil
}
