package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"pomofocus/backend/internal/model"
)

const (
	DefaultAIModel   = "claude-sonnet-4-20250514"
	DefaultAIBaseURL = "https://api.anthropic.com/v1/messages"
)

type Config struct {
	Port         string
	DBPath       string
	JWTSecret    string
	TokenTTL     time.Duration
	CORSOrigins  []string
	LogLevel     slog.Level
	TickInterval time.Duration
	Timer        model.SessionConfig
	AI           AIConfig
}

type AIConfig struct {
	APIKey        string `toml:"api_key" yaml:"api_key"`
	Model         string `toml:"model" yaml:"model"`
	BaseURL       string `toml:"base_url" yaml:"base_url"`
	RatePerMinute int    `toml:"rate_per_minute" yaml:"rate_per_minute"`
}

// fileConfig is the shape of the optional POMOFOCUS_CONFIG defaults file.
type fileConfig struct {
	Timer model.SessionConfig `toml:"timer" yaml:"timer"`
	AI    AIConfig            `toml:"ai" yaml:"ai"`
}

// LoadDotEnv loads .env style files into the process environment. Missing files
// are ignored; variables already set are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load builds the configuration from the optional defaults file named by
// POMOFOCUS_CONFIG and the environment. Environment variables win.
func Load() (Config, error) {
	file := fileConfig{
		Timer: model.DefaultSessionConfig(),
		AI: AIConfig{
			Model:         DefaultAIModel,
			BaseURL:       DefaultAIBaseURL,
			RatePerMinute: 6,
		},
	}
	if path := getEnv("POMOFOCUS_CONFIG", ""); path != "" {
		if err := loadFile(path, &file); err != nil {
			return Config{}, err
		}
	}

	file.Timer.AutoAdvance = getEnvBool("TIMER_AUTO_ADVANCE", file.Timer.AutoAdvance)

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		Port:         getEnv("PORT", "8080"),
		DBPath:       getEnv("DB_PATH", "./data/pomofocus.db"),
		JWTSecret:    getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:     time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		LogLevel:     level,
		TickInterval: time.Duration(getEnvInt("TICK_INTERVAL_MS", 1000)) * time.Millisecond,
		Timer:        file.Timer.Normalized(),
		AI: AIConfig{
			APIKey:        getEnv("ANTHROPIC_API_KEY", file.AI.APIKey),
			Model:         getEnv("AI_MODEL", file.AI.Model),
			BaseURL:       getEnv("AI_BASE_URL", file.AI.BaseURL),
			RatePerMinute: getEnvInt("AI_RATE_PER_MINUTE", file.AI.RatePerMinute),
		},
	}, nil
}

func loadFile(path string, out *fileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, out)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	default:
		return fmt.Errorf("config %s: unsupported extension %q", path, filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
