package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/maltedev/yarn-scraper/internal/browser"
	"github.com/maltedev/yarn-scraper/internal/database"
	"github.com/maltedev/yarn-scraper/internal/fetch"
	"github.com/maltedev/yarn-scraper/internal/llm"
	"github.com/maltedev/yarn-scraper/internal/parser"
)

const (
	FetcherHTTP    = "http"
	FetcherBrowser = "browser"
)

type Config struct {
	Server     ServerConfig
	Scraper    ScraperConfig
	Browser    BrowserConfig
	LLM        LLMConfig
	Heuristics parser.Limits
	Database   DatabaseConfig
	Redis      RedisConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimit       float64
	RateBurst       int
	AllowedOrigins  []string
}

type ScraperConfig struct {
	Fetcher      string
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
	MinHostDelay time.Duration
	MaxHostDelay time.Duration
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ProxyServer    string
}

type LLMConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	TextLimit   int
	Timeout     time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PollInterval time.Duration
	BatchSize    int
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	limits := parser.DefaultLimits()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			RateLimit:       getFloatOrDefault("SERVER_RATE_LIMIT", 1),
			RateBurst:       getIntOrDefault("SERVER_RATE_BURST", 5),
			AllowedOrigins:  getStringSliceOrDefault("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:*", "https://localhost:*"}),
		},
		Scraper: ScraperConfig{
			Fetcher:      getEnvOrDefault("SCRAPER_FETCHER", FetcherHTTP),
			UserAgent:    getEnvOrDefault("SCRAPER_USER_AGENT", fetch.DefaultUserAgent),
			Timeout:      getDurationOrDefault("SCRAPER_TIMEOUT", 30*time.Second),
			MaxBodyBytes: int64(getIntOrDefault("SCRAPER_MAX_BODY_BYTES", 10<<20)),
			MinHostDelay: getDurationOrDefault("SCRAPER_MIN_HOST_DELAY", 0),
			MaxHostDelay: getDurationOrDefault("SCRAPER_MAX_HOST_DELAY", 0),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "nb-NO,nb;q=0.9,no;q=0.8,en;q=0.7"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "Europe/Oslo"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "nb-NO"),
			ProxyServer:    getEnvOrDefault("BROWSER_PROXY", ""),
		},
		LLM: LLMConfig{
			APIKey:      getEnvOrDefault("ANTHROPIC_API_KEY", ""),
			Model:       getEnvOrDefault("LLM_MODEL", "claude-haiku-4-5"),
			MaxTokens:   getIntOrDefault("LLM_MAX_TOKENS", 1024),
			Temperature: getFloatOrDefault("LLM_TEMPERATURE", 0.1),
			TextLimit:   getIntOrDefault("LLM_TEXT_LIMIT", llm.DefaultOptions().TextLimit),
			Timeout:     getDurationOrDefault("LLM_TIMEOUT", 45*time.Second),
		},
		Heuristics: parser.Limits{
			PriceMin:           getFloatOrDefault("HEURISTIC_PRICE_MIN", limits.PriceMin),
			PriceMax:           getFloatOrDefault("HEURISTIC_PRICE_MAX", limits.PriceMax),
			WeightMinGrams:     getIntOrDefault("HEURISTIC_WEIGHT_MIN_GRAMS", limits.WeightMinGrams),
			WeightMaxGrams:     getIntOrDefault("HEURISTIC_WEIGHT_MAX_GRAMS", limits.WeightMaxGrams),
			YardageMinMeters:   getIntOrDefault("HEURISTIC_YARDAGE_MIN_METERS", limits.YardageMinMeters),
			YardageMaxMeters:   getIntOrDefault("HEURISTIC_YARDAGE_MAX_METERS", limits.YardageMaxMeters),
			NeedleMinMM:        getFloatOrDefault("HEURISTIC_NEEDLE_MIN_MM", limits.NeedleMinMM),
			NeedleMaxMM:        getFloatOrDefault("HEURISTIC_NEEDLE_MAX_MM", limits.NeedleMaxMM),
			CareMaxLength:      getIntOrDefault("HEURISTIC_CARE_MAX_LENGTH", limits.CareMaxLength),
			ColorNameMinLength: getIntOrDefault("HEURISTIC_COLOR_NAME_MIN_LENGTH", limits.ColorNameMinLength),
			ColorNameMaxLength: getIntOrDefault("HEURISTIC_COLOR_NAME_MAX_LENGTH", limits.ColorNameMaxLength),
			MaxColors:          getIntOrDefault("HEURISTIC_MAX_COLORS", limits.MaxColors),
			MaxRelatedPatterns: getIntOrDefault("HEURISTIC_MAX_RELATED_PATTERNS", limits.MaxRelatedPatterns),
			MaxImages:          getIntOrDefault("HEURISTIC_MAX_IMAGES", limits.MaxImages),
			MaxSpecifications:  getIntOrDefault("HEURISTIC_MAX_SPECIFICATIONS", limits.MaxSpecifications),
			SpecKeyMaxLength:   getIntOrDefault("HEURISTIC_SPEC_KEY_MAX_LENGTH", limits.SpecKeyMaxLength),
			SpecValueMaxLength: getIntOrDefault("HEURISTIC_SPEC_VALUE_MAX_LENGTH", limits.SpecValueMaxLength),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", ""),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "yarn_scraper"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
			MaxConns: getIntOrDefault("DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Addr:         getEnvOrDefault("REDIS_ADDR", ""),
			Password:     getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:           getIntOrDefault("REDIS_DB", 0),
			PollInterval: getDurationOrDefault("RELAY_POLL_INTERVAL", 5*time.Second),
			BatchSize:    getIntOrDefault("RELAY_BATCH_SIZE", 100),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.Fetcher != FetcherHTTP && c.Scraper.Fetcher != FetcherBrowser {
		return fmt.Errorf("SCRAPER_FETCHER must be %q or %q, got %q", FetcherHTTP, FetcherBrowser, c.Scraper.Fetcher)
	}
	if c.Scraper.Timeout < 0 || c.LLM.Timeout < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}
	if c.Scraper.MinHostDelay < 0 || c.Scraper.MinHostDelay > c.Scraper.MaxHostDelay {
		return fmt.Errorf("SCRAPER_MIN_HOST_DELAY must be between 0 and SCRAPER_MAX_HOST_DELAY")
	}
	if c.Heuristics.PriceMin > c.Heuristics.PriceMax {
		return fmt.Errorf("HEURISTIC_PRICE_MIN cannot be greater than HEURISTIC_PRICE_MAX")
	}
	if c.Heuristics.WeightMinGrams > c.Heuristics.WeightMaxGrams {
		return fmt.Errorf("HEURISTIC_WEIGHT_MIN_GRAMS cannot be greater than HEURISTIC_WEIGHT_MAX_GRAMS")
	}
	if c.Heuristics.YardageMinMeters > c.Heuristics.YardageMaxMeters {
		return fmt.Errorf("HEURISTIC_YARDAGE_MIN_METERS cannot be greater than HEURISTIC_YARDAGE_MAX_METERS")
	}
	if c.Heuristics.NeedleMinMM > c.Heuristics.NeedleMaxMM {
		return fmt.Errorf("HEURISTIC_NEEDLE_MIN_MM cannot be greater than HEURISTIC_NEEDLE_MAX_MM")
	}
	if c.Heuristics.MaxColors < 1 {
		return fmt.Errorf("HEURISTIC_MAX_COLORS must be at least 1")
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst < 1 {
		return fmt.Errorf("SERVER_RATE_LIMIT must be positive and SERVER_RATE_BURST at least 1")
	}
	if c.Redis.Addr != "" && !c.DatabaseEnabled() {
		return fmt.Errorf("REDIS_ADDR requires DB_HOST: the relay reads from the database outbox")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}
	return nil
}

func (c *Config) DatabaseEnabled() bool {
	return c.Database.Host != ""
}

func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

func (c *Config) DatabaseOptions() database.Config {
	return database.Config{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		Database: c.Database.DBName,
		SSLMode:  c.Database.SSLMode,
		MaxConns: int32(c.Database.MaxConns),
	}
}

func (c *Config) FetchOptions() *fetch.Options {
	opts := fetch.DefaultOptions()
	opts.UserAgent = c.Scraper.UserAgent
	opts.Timeout = c.Scraper.Timeout
	opts.MaxBodyBytes = c.Scraper.MaxBodyBytes
	return opts
}

func (c *Config) BrowserOptions() *browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = c.Browser.Headless
	opts.Timeout = c.Browser.Timeout
	opts.UserAgent = c.Scraper.UserAgent
	opts.ViewportWidth = c.Browser.ViewportWidth
	opts.ViewportHeight = c.Browser.ViewportHeight
	opts.AcceptLanguage = c.Browser.AcceptLanguage
	opts.TimezoneID = c.Browser.TimezoneID
	opts.Locale = c.Browser.Locale
	opts.ProxyServer = c.Browser.ProxyServer
	return opts
}

func (c *Config) CompleterConfig() llm.Config {
	return llm.Config{
		APIKey:    c.LLM.APIKey,
		Model:     c.LLM.Model,
		MaxTokens: c.LLM.MaxTokens,
		Timeout:   c.LLM.Timeout,
	}
}

// ModelOptions keeps the model's plausibility checks in line with the heuristics.
func (c *Config) ModelOptions() llm.Options {
	return llm.Options{
		TextLimit:     c.LLM.TextLimit,
		MaxTokens:     c.LLM.MaxTokens,
		Temperature:   c.LLM.Temperature,
		PriceMin:      c.Heuristics.PriceMin,
		PriceMax:      c.Heuristics.PriceMax,
		CareMaxLength: c.Heuristics.CareMaxLength,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}
