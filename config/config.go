package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultUserAgent is sent by both fetchers unless overridden
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// ScraperConfig holds settings shared by every source
type ScraperConfig struct {
	UserAgent      string        `yaml:"user_agent"`
	MaxPages       int           `yaml:"max_pages"`
	PageDelay      time.Duration `yaml:"page_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// BrowserConfig holds settings for the headless browser used by G2
type BrowserConfig struct {
	Headless          bool          `yaml:"headless"`
	BinPath           string        `yaml:"bin_path"`
	DataDir           string        `yaml:"data_dir"`
	ScreenshotDir     string        `yaml:"screenshot_dir"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	ScrollStep        int           `yaml:"scroll_step"`
	ScrollInterval    time.Duration `yaml:"scroll_interval"`
	MaxScrollSteps    int           `yaml:"max_scroll_steps"`
}

// Config represents the scraper configuration file
type Config struct {
	Scraper ScraperConfig `yaml:"scraper"`
	Browser BrowserConfig `yaml:"browser"`
	G2      struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"g2"`
}

// LoadConfig loads configuration from a YAML file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigOrDefault behaves like LoadConfig but falls back to the defaults
// when the file does not exist
func LoadConfigOrDefault(path string) (*Config, bool, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return GetDefaultConfig(), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Scraper.UserAgent = DefaultUserAgent
	cfg.Scraper.MaxPages = 50
	cfg.Scraper.PageDelay = 2 * time.Second
	cfg.Scraper.RequestTimeout = 30 * time.Second
	cfg.Browser.Headless = true
	cfg.Browser.DataDir = GetEnvOrDefault("BOT_DATA_DIR", "")
	cfg.Browser.NavigationTimeout = 60 * time.Second
	cfg.Browser.ScrollStep = 200
	cfg.Browser.ScrollInterval = 100 * time.Millisecond
	cfg.Browser.MaxScrollSteps = 300
	cfg.G2.BaseURL = "https://www.g2.com"
	return cfg
}

// Validate checks that the numeric settings are usable
func (c *Config) Validate() error {
	switch {
	case c.Scraper.MaxPages <= 0:
		return fmt.Errorf("scraper.max_pages must be positive, got %d", c.Scraper.MaxPages)
	case c.Scraper.PageDelay < 0:
		return fmt.Errorf("scraper.page_delay must not be negative")
	case c.Scraper.RequestTimeout <= 0:
		return fmt.Errorf("scraper.request_timeout must be positive")
	case c.Browser.NavigationTimeout <= 0:
		return fmt.Errorf("browser.navigation_timeout must be positive")
	case c.Browser.ScrollStep <= 0:
		return fmt.Errorf("browser.scroll_step must be positive, got %d", c.Browser.ScrollStep)
	case c.Browser.ScrollInterval <= 0:
		return fmt.Errorf("browser.scroll_interval must be positive")
	case c.Browser.MaxScrollSteps <= 0:
		return fmt.Errorf("browser.max_scroll_steps must be positive, got %d", c.Browser.MaxScrollSteps)
	case c.G2.BaseURL == "":
		return fmt.Errorf("g2.base_url must be set")
	}
	return nil
}

// LoadEnv loads variables from .env files when present. Variables already set
// in the environment win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// GetEnvOrDefault returns the value of key, or defaultValue when unset or empty
func GetEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
