package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine drivers.
const (
	EngineSolr   = "solr"
	EngineMemory = "memory"
)

// Pricing drivers.
const (
	PricingRedis  = "redis"
	PricingMemory = "memory"
	PricingNone   = "none"
)

// Engine timeout bounds in milliseconds.
const (
	MinSearchTimeoutMs = 1000
	MaxSearchTimeoutMs = 30000
)

// Config holds the storefront search service configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Search  SearchConfig  `yaml:"search"`
	Pricing PricingConfig `yaml:"pricing"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	FilePath   string `yaml:"file_path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// AuthConfig holds API authentication settings for the B4F routes.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// SearchConfig selects and tunes the search engine.
type SearchConfig struct {
	Engine       string             `yaml:"engine"` // solr, memory (default: solr)
	TimeoutMs    int                `yaml:"timeout_ms"`
	Solr         SolrConfig         `yaml:"solr"`
	Memory       MemoryConfig       `yaml:"memory"`
	Highlight    HighlightConfig    `yaml:"highlight"`
	PriceFacet   PriceFacetConfig   `yaml:"price_facet"`
	Autocomplete AutocompleteConfig `yaml:"autocomplete"`
}

// Timeout returns the per-call engine timeout.
func (c SearchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// SolrConfig holds Solr connection settings.
type SolrConfig struct {
	BaseURL string `yaml:"base_url"`
	Core    string `yaml:"core"`
}

// MemoryConfig holds embedded engine settings.
type MemoryConfig struct {
	FixturePath string `yaml:"fixture_path"`
}

// HighlightConfig holds highlight markers.
type HighlightConfig struct {
	Pre  string `yaml:"pre"`
	Post string `yaml:"post"`
}

// PriceFacetConfig defines the price range facet buckets.
type PriceFacetConfig struct {
	Start           float64 `yaml:"start"`
	End             float64 `yaml:"end"`
	Gap             float64 `yaml:"gap"`
	IncludeOverflow bool    `yaml:"include_overflow"`
}

// AutocompleteConfig holds autocomplete settings.
type AutocompleteConfig struct {
	Rows int `yaml:"rows"`
}

// PricingConfig holds the pricing collaborator settings.
type PricingConfig struct {
	Driver           string   `yaml:"driver"` // redis, memory, none (default: none)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	CacheTTLSec      int      `yaml:"cache_ttl_sec"`
	CacheSize        int      `yaml:"cache_size"`
	Concurrency      int      `yaml:"concurrency"`
	BatchSize        int      `yaml:"batch_size"` // SKUs per pricing round trip
	RetryAttempts    int      `yaml:"retry_attempts"`
	FixturePath      string   `yaml:"fixture_path"` // seeds the memory driver at startup
	TTLSec           int      `yaml:"ttl_sec"`      // expiry for records written by searchctl prices load; 0 keeps them
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates a YAML configuration document.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Search.Engine == "" {
		c.Search.Engine = EngineSolr
	}
	if c.Search.TimeoutMs == 0 {
		c.Search.TimeoutMs = 3000
	}
	if c.Search.Solr.BaseURL == "" {
		c.Search.Solr.BaseURL = "http://localhost:8983/solr"
	}
	if c.Search.Solr.Core == "" {
		c.Search.Solr.Core = "products"
	}
	if c.Search.Highlight.Pre == "" {
		c.Search.Highlight.Pre = "<mark>"
	}
	if c.Search.Highlight.Post == "" {
		c.Search.Highlight.Post = "</mark>"
	}
	if c.Search.PriceFacet.Gap <= 0 {
		c.Search.PriceFacet.Start = 0
		c.Search.PriceFacet.End = 500
		c.Search.PriceFacet.Gap = 50
	}
	if c.Search.Autocomplete.Rows <= 0 {
		c.Search.Autocomplete.Rows = 8
	}

	if c.Pricing.Driver == "" {
		c.Pricing.Driver = PricingNone
	}
	if c.Pricing.ReadinessTimeout <= 0 {
		c.Pricing.ReadinessTimeout = 10
	}
	if c.Pricing.CacheTTLSec <= 0 {
		c.Pricing.CacheTTLSec = 30
	}
	if c.Pricing.CacheSize == 0 {
		c.Pricing.CacheSize = 1024
	}
	if c.Pricing.Concurrency <= 0 {
		c.Pricing.Concurrency = 8
	}
	if c.Pricing.BatchSize <= 0 {
		c.Pricing.BatchSize = 50
	}
	if c.Pricing.RetryAttempts <= 0 {
		c.Pricing.RetryAttempts = 3
	}

	if c.Logging.FilePath != "" {
		if c.Logging.MaxSizeMB <= 0 {
			c.Logging.MaxSizeMB = 100
		}
		if c.Logging.MaxBackups <= 0 {
			c.Logging.MaxBackups = 5
		}
		if c.Logging.MaxAgeDays <= 0 {
			c.Logging.MaxAgeDays = 28
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Search.Engine {
	case EngineSolr:
		if c.Search.Solr.BaseURL == "" {
			return fmt.Errorf("search.solr.base_url is required")
		}
	case EngineMemory:
		if c.Search.Memory.FixturePath == "" {
			return fmt.Errorf("search.memory.fixture_path is required for the memory engine")
		}
	default:
		return fmt.Errorf("search.engine must be %q or %q, got %q", EngineSolr, EngineMemory, c.Search.Engine)
	}

	if c.Search.TimeoutMs < MinSearchTimeoutMs || c.Search.TimeoutMs > MaxSearchTimeoutMs {
		return fmt.Errorf("search.timeout_ms must be between %d and %d, got %d",
			MinSearchTimeoutMs, MaxSearchTimeoutMs, c.Search.TimeoutMs)
	}
	if pf := c.Search.PriceFacet; pf.End <= pf.Start {
		return fmt.Errorf("search.price_facet.end must be greater than start")
	}

	switch c.Pricing.Driver {
	case PricingRedis:
		if len(c.Pricing.Addrs) == 0 {
			return fmt.Errorf("pricing.addrs is required for the redis driver")
		}
	case PricingMemory, PricingNone:
	default:
		return fmt.Errorf("pricing.driver must be %q, %q or %q, got %q",
			PricingRedis, PricingMemory, PricingNone, c.Pricing.Driver)
	}

	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
