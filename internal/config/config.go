package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Gemini  GeminiConfig
	Email   EmailConfig
	Browser BrowserConfig
	Tracker TrackerConfig
	Storage StorageConfig
	Logging LoggingConfig
}

type GeminiConfig struct {
	APIKey string
}

type EmailConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	From            string
	To              []string
}

type BrowserConfig struct {
	Headless        bool
	UserAgent       string
	NavTimeout      time.Duration
	SelectorTimeout time.Duration
	SettleDelay     time.Duration
	ScrollDelay     time.Duration
}

type TrackerConfig struct {
	ConfigFile    string
	HistoryFile   string
	CheckInterval time.Duration
	MaxHTMLBytes  int
}

type StorageConfig struct {
	DatabaseURL string
	RedisAddr   string
	DedupTTL    time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Email: EmailConfig{
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Region:          getEnvOrDefault("AWS_REGION", "us-east-1"),
			From:            os.Getenv("EMAIL_FROM"),
			To:              getRecipients("EMAIL_TO"),
		},
		Browser: BrowserConfig{
			Headless:        getBoolOrDefault("BROWSER_HEADLESS", true),
			UserAgent:       getEnvOrDefault("BROWSER_USER_AGENT", defaultUserAgent),
			NavTimeout:      getDurationOrDefault("BROWSER_NAV_TIMEOUT", 60*time.Second),
			SelectorTimeout: getDurationOrDefault("BROWSER_SELECTOR_TIMEOUT", 10*time.Second),
			SettleDelay:     getDurationOrDefault("BROWSER_SETTLE_DELAY", 5*time.Second),
			ScrollDelay:     getDurationOrDefault("BROWSER_SCROLL_DELAY", 2*time.Second),
		},
		Tracker: TrackerConfig{
			ConfigFile:    getEnvOrDefault("TRACKER_CONFIG_FILE", "tracked_urls.json"),
			HistoryFile:   getEnvOrDefault("TRACKER_HISTORY_FILE", "price_history.json"),
			CheckInterval: getDurationOrDefault("TRACKER_CHECK_INTERVAL", 30*time.Second),
			MaxHTMLBytes:  getIntOrDefault("TRACKER_MAX_HTML_BYTES", 400000),
		},
		Storage: StorageConfig{
			DatabaseURL: os.Getenv("TRACKER_DATABASE_URL"),
			RedisAddr:   os.Getenv("REDIS_ADDR"),
			DedupTTL:    getDurationOrDefault("DEDUP_TTL", 24*time.Hour),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY not set")
	}

	if c.Tracker.CheckInterval < 0 {
		return fmt.Errorf("TRACKER_CHECK_INTERVAL cannot be negative")
	}

	return nil
}

// EmailConfigured reports whether every piece needed to send mail is present.
func (c *Config) EmailConfigured() bool {
	e := c.Email
	return e.AccessKeyID != "" && e.SecretAccessKey != "" && e.From != "" && len(e.To) > 0
}

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

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

func getRecipients(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var recipients []string
	for _, addr := range strings.Split(value, ",") {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			recipients = append(recipients, addr)
		}
	}
	return recipients
}
