// Package config loads YAML configuration by environment name with ${VAR}
// expansion, defaults, and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the searchcore API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Events    EventsConfig    `yaml:"events"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	CacheTTLSec int    `yaml:"cache_ttl_sec"`
}

// SearchConfig holds retrieval and pagination settings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
	// CandidateMultiplier widens retrieval beyond limit so that
	// post-filtering still fills a page.
	CandidateMultiplier int `yaml:"candidate_multiplier"`
	// FallbackScanCap bounds the constraint-only catalog scan used when
	// semantic retrieval is unavailable.
	FallbackScanCap int `yaml:"fallback_scan_cap"`
}

// EventWeights is the behavioral weight table; configuration, not logic.
type EventWeights struct {
	Search   float64 `yaml:"search"`
	Click    float64 `yaml:"click"`
	Cart     float64 `yaml:"cart"`
	Purchase float64 `yaml:"purchase"`
}

// RankingConfig externalizes every ranking heuristic parameter.
type RankingConfig struct {
	Weights EventWeights `yaml:"weights"`
	// BoostFactor scales the engagement ratio into the similarity multiplier.
	BoostFactor float64 `yaml:"boost_factor"`
	// MaxEngagement clamps the ratio before boosting; 1.0 yields the 1.3x cap
	// with the default factor.
	MaxEngagement   float64 `yaml:"max_engagement"`
	DecayBase       float64 `yaml:"decay_base"`
	DecayPeriodDays float64 `yaml:"decay_period_days"`
	// ColdStartConfidence discounts category-level signal used for items with
	// no history on the exact query.
	ColdStartConfidence float64 `yaml:"cold_start_confidence"`
	ExplorationRate     float64 `yaml:"exploration_rate"`
	ExplorationBoost    float64 `yaml:"exploration_boost"`
	// EngagementExplainThreshold gates the qualitative engagement clause in
	// explanations.
	EngagementExplainThreshold float64 `yaml:"engagement_explain_threshold"`
}

// EventsConfig holds ingestion queue settings.
type EventsConfig struct {
	QueueSize     int `yaml:"queue_size"`
	RetentionDays int `yaml:"retention_days"`
}

// StorageConfig holds key namespace settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// AuthConfig holds API authentication settings for write endpoints.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", configPath, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
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
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.CacheTTLSec <= 0 {
		c.Embedding.CacheTTLSec = 24 * 3600
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 10
	}
	if c.Search.MaxLimit <= 0 {
		c.Search.MaxLimit = 100
	}
	if c.Search.CandidateMultiplier <= 0 {
		c.Search.CandidateMultiplier = 10
	}
	if c.Search.FallbackScanCap <= 0 {
		c.Search.FallbackScanCap = 500
	}
	if c.Ranking.Weights == (EventWeights{}) {
		c.Ranking.Weights = EventWeights{Search: 0.1, Click: 1.0, Cart: 3.0, Purchase: 10.0}
	}
	if c.Ranking.BoostFactor <= 0 {
		c.Ranking.BoostFactor = 0.3
	}
	if c.Ranking.MaxEngagement <= 0 {
		c.Ranking.MaxEngagement = 1.0
	}
	if c.Ranking.DecayBase <= 0 {
		c.Ranking.DecayBase = 0.95
	}
	if c.Ranking.DecayPeriodDays <= 0 {
		c.Ranking.DecayPeriodDays = 30
	}
	if c.Ranking.ColdStartConfidence <= 0 {
		c.Ranking.ColdStartConfidence = 0.5
	}
	if c.Ranking.ExplorationRate <= 0 {
		c.Ranking.ExplorationRate = 0.1
	}
	if c.Ranking.ExplorationBoost <= 0 {
		c.Ranking.ExplorationBoost = 0.1
	}
	if c.Ranking.EngagementExplainThreshold <= 0 {
		c.Ranking.EngagementExplainThreshold = 0.7
	}
	if c.Events.QueueSize <= 0 {
		c.Events.QueueSize = 1024
	}
	if c.Events.RetentionDays <= 0 {
		c.Events.RetentionDays = 90
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "searchcore:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Ranking.DecayBase >= 1 {
		return fmt.Errorf("ranking.decay_base must be below 1, got %g", c.Ranking.DecayBase)
	}
	if c.Ranking.ExplorationRate > 1 {
		return fmt.Errorf("ranking.exploration_rate must be at most 1, got %g", c.Ranking.ExplorationRate)
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit %d exceeds search.max_limit %d",
			c.Search.DefaultLimit, c.Search.MaxLimit)
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
