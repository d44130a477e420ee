package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	yaml "gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort  string
	MaxFileSize int64

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	ChatModel        string
	CompletionModel  string
	EnhanceText      bool
	OracleTimeout    time.Duration
	OracleCharBudget int

	ExtractTimeout   time.Duration
	BatchConcurrency int
	SessionTTL       time.Duration

	LogLevel  string
	LogFormat string
}

// FileConfig is the optional YAML file named by CONFIG_FILE. Set values take
// precedence over the environment.
type FileConfig struct {
	Server struct {
		Port        string `yaml:"port"`
		MaxFileSize int64  `yaml:"maxFileSize"`
	} `yaml:"server"`

	OpenAI struct {
		APIKey          string        `yaml:"key"`
		BaseURL         string        `yaml:"base"`
		ChatModel       string        `yaml:"chatModel"`
		CompletionModel string        `yaml:"completionModel"`
		EnhanceText     *bool         `yaml:"enhanceText"`
		Timeout         time.Duration `yaml:"timeout"`
		CharBudget      int           `yaml:"charBudget"`
	} `yaml:"openai"`

	Extraction struct {
		Timeout     time.Duration `yaml:"timeout"`
		Concurrency int           `yaml:"concurrency"`
	} `yaml:"extraction"`

	Sessions struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"sessions"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded, using environment and defaults")
	}

	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10*1024*1024), // 10 MB

		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		ChatModel:        getEnv("OPENAI_CHAT_MODEL", "gpt-4o"),
		CompletionModel:  getEnv("OPENAI_COMPLETION_MODEL", "gpt-4o-mini"),
		EnhanceText:      getEnvAsBool("ENHANCE_TEXT", true),
		OracleTimeout:    getEnvAsDuration("OPENAI_TIMEOUT", 30*time.Second),
		OracleCharBudget: getEnvAsInt("OPENAI_CHAR_BUDGET", 4000),

		ExtractTimeout:   getEnvAsDuration("EXTRACT_TIMEOUT", 60*time.Second),
		BatchConcurrency: getEnvAsInt("BATCH_CONCURRENCY", 4),
		SessionTTL:       getEnvAsDuration("SESSION_TTL", 2*time.Hour),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fc, err := LoadConfigFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("ignoring config file")
		} else {
			ApplyFileConfig(cfg, fc)
			log.Info().Str("path", path).Msg("config file applied")
		}
	}

	return cfg
}

// OracleEnabled reports whether an API key is available for the language model.
func (c *Config) OracleEnabled() bool {
	return c != nil && strings.TrimSpace(c.OpenAIAPIKey) != ""
}

// LoadConfigFile reads a YAML FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse yaml: %w", err)
	}
	return fc, nil
}

// ApplyFileConfig copies every value set in fc into cfg.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setString(&cfg.ServerPort, fc.Server.Port)
	if fc.Server.MaxFileSize > 0 {
		cfg.MaxFileSize = fc.Server.MaxFileSize
	}

	setString(&cfg.OpenAIAPIKey, fc.OpenAI.APIKey)
	setString(&cfg.OpenAIBaseURL, fc.OpenAI.BaseURL)
	setString(&cfg.ChatModel, fc.OpenAI.ChatModel)
	setString(&cfg.CompletionModel, fc.OpenAI.CompletionModel)
	if fc.OpenAI.EnhanceText != nil {
		cfg.EnhanceText = *fc.OpenAI.EnhanceText
	}
	setDuration(&cfg.OracleTimeout, fc.OpenAI.Timeout)
	setInt(&cfg.OracleCharBudget, fc.OpenAI.CharBudget)

	setDuration(&cfg.ExtractTimeout, fc.Extraction.Timeout)
	setInt(&cfg.BatchConcurrency, fc.Extraction.Concurrency)
	setDuration(&cfg.SessionTTL, fc.Sessions.TTL)

	setString(&cfg.LogLevel, fc.Log.Level)
	setString(&cfg.LogFormat, fc.Log.Format)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Int("default", fallback).Msg("invalid integer in environment")
		return fallback
	}
	return value
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Int64("default", fallback).Msg("invalid integer in environment")
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Bool("default", fallback).Msg("invalid boolean in environment")
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Dur("default", fallback).Msg("invalid duration in environment")
		return fallback
	}
	return value
}
