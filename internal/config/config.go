package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"oferta-studio/internal/palette"
)

type Config struct {
	TelegramToken string
	GeminiAPIKey  string

	LogLevel string
	Debug    bool

	PreferIPv4 bool

	TextModel       string
	ImageModel      string
	FallbackBaseURL string

	VariantCount   int
	VariantTimeout time.Duration
	MaxConcurrent  int
	RequestTimeout time.Duration
	HTTPTimeout    time.Duration

	WebAddr        string
	FreeDailyLimit int

	AzureAccount   string
	AzureKey       string
	AzureContainer string

	TuningFile string
	Palette    palette.Options
}

// Tuning is the optional YAML file overlaying generation and palette knobs.
type Tuning struct {
	Palette    palette.Options `yaml:"palette"`
	Generation struct {
		Variants              int `yaml:"variants"`
		VariantTimeoutSeconds int `yaml:"variant_timeout_seconds"`
		MaxConcurrent         int `yaml:"max_concurrent"`
		FreeDailyLimit        int `yaml:"free_daily_limit"`
	} `yaml:"generation"`
}

func Load() (Config, error) {
	cfg := Config{
		LogLevel:        strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		Debug:           getEnvBool("DEBUG", false),
		PreferIPv4:      getEnvBool("PREFER_IPV4", true),
		TextModel:       getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		ImageModel:      getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		FallbackBaseURL: getEnv("FALLBACK_IMAGE_URL", "https://pollinations.ai/p/"),
		VariantCount:    getEnvInt("VARIANT_COUNT", 4),
		VariantTimeout:  time.Duration(getEnvInt("VARIANT_TIMEOUT_SECONDS", 60)) * time.Second,
		MaxConcurrent:   getEnvInt("MAX_CONCURRENT", 4),
		RequestTimeout:  time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 180)) * time.Second,
		HTTPTimeout:     time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 180)) * time.Second,
		WebAddr:         getEnv("WEB_ADDR", ":8080"),
		FreeDailyLimit:  getEnvInt("FREE_DAILY_LIMIT", 2),
		AzureAccount:    getEnv("AZURE_STORAGE_ACCOUNT", ""),
		AzureKey:        getEnv("AZURE_STORAGE_KEY", ""),
		AzureContainer:  getEnv("AZURE_STORAGE_CONTAINER", "campaigns"),
		TuningFile:      getEnv("STUDIO_TUNING_FILE", ""),
		Palette:         palette.DefaultOptions(),
	}

	cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", getEnv("API_KEY", ""))

	if cfg.TuningFile != "" {
		tuning, err := LoadTuning(cfg.TuningFile)
		if err != nil {
			return Config{}, err
		}
		cfg.apply(tuning)
	}

	cfg.Validate()
	return cfg, nil
}

// RequireTelegram fails when the bot token is missing.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

// AzureEnabled reports whether blob publishing is configured.
func (c Config) AzureEnabled() bool {
	return c.AzureAccount != "" && c.AzureKey != ""
}

// Validate clamps counts and timeouts to usable values.
func (c *Config) Validate() {
	if c.VariantCount < 1 {
		c.VariantCount = 1
	}
	if c.VariantCount > 8 {
		c.VariantCount = 8
	}
	if c.MaxConcurrent < 1 {
		c.MaxConcurrent = 1
	}
	if c.VariantTimeout <= 0 {
		c.VariantTimeout = 60 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 180 * time.Second
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 180 * time.Second
	}
	if c.FreeDailyLimit < 1 {
		c.FreeDailyLimit = 1
	}
}

func LoadTuning(path string) (Tuning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning file: %w", err)
	}

	var t Tuning
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning file %s: %w", path, err)
	}
	return t, nil
}

// apply overlays the non-zero tuning values.
func (c *Config) apply(t Tuning) {
	p := t.Palette
	if p.SampleSize > 0 {
		c.Palette.SampleSize = p.SampleSize
	}
	if p.QuantStep > 0 {
		c.Palette.QuantStep = p.QuantStep
	}
	if p.MinDistance > 0 {
		c.Palette.MinDistance = p.MinDistance
	}
	if p.MaxColors > 0 {
		c.Palette.MaxColors = p.MaxColors
	}
	if p.AlphaThreshold > 0 {
		c.Palette.AlphaThreshold = p.AlphaThreshold
	}
	if p.LightCutoff > 0 {
		c.Palette.LightCutoff = p.LightCutoff
	}
	if p.DarkCutoff > 0 {
		c.Palette.DarkCutoff = p.DarkCutoff
	}

	g := t.Generation
	if g.Variants > 0 {
		c.VariantCount = g.Variants
	}
	if g.VariantTimeoutSeconds > 0 {
		c.VariantTimeout = time.Duration(g.VariantTimeoutSeconds) * time.Second
	}
	if g.MaxConcurrent > 0 {
		c.MaxConcurrent = g.MaxConcurrent
	}
	if g.FreeDailyLimit > 0 {
		c.FreeDailyLimit = g.FreeDailyLimit
	}
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
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
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
