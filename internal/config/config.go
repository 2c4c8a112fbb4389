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

	"github.com/poshan-ai/poshan/internal/repository/vecindex"
)

// Config holds the poshan API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Index      IndexConfig      `yaml:"index"`
	Cache      CacheConfig      `yaml:"cache"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
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

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // label for logs and metrics
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	Dimensions     int    `yaml:"dimensions"`
	MaxAttempts    int    `yaml:"max_attempts"`
	RetryBackoffMs int    `yaml:"retry_backoff_ms"`
	MaxBatchSize   int    `yaml:"max_batch_size"` // provider's embedding batch limit
	// Instruction prefixes for instruction-tuned embedding models.
	QueryInstruction    string `yaml:"query_instruction"`
	DocumentInstruction string `yaml:"document_instruction"`
}

// IndexConfig holds the HNSW knobs and the search policy.
type IndexConfig struct {
	HNSWM           int     `yaml:"hnsw_m"`
	HNSWEFConstruct int     `yaml:"hnsw_ef_construction"`
	HNSWEFRuntime   int     `yaml:"hnsw_ef_runtime"`
	PoolMultiplier  int     `yaml:"pool_multiplier"`
	MinScore        float64 `yaml:"min_score"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
	TTLSec     int `yaml:"ttl_sec"`
}

// PipelineConfig holds retrieval and selection settings.
type PipelineConfig struct {
	DefaultTopK      int     `yaml:"default_top_k"`
	TopKPerStage     int     `yaml:"top_k_per_stage"`
	StageConcurrency int     `yaml:"stage_concurrency"`
	Lambda           float64 `yaml:"lambda"` // diversity trade-off in [0,1]
}

// ClassifierConfig holds classifier tuning.
type ClassifierConfig struct {
	NearMissLogging *bool `yaml:"near_miss_logging"` // default true
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.MaxAttempts <= 0 {
		c.Embedding.MaxAttempts = 3
	}
	if c.Embedding.RetryBackoffMs <= 0 {
		c.Embedding.RetryBackoffMs = 200
	}
	if c.Embedding.MaxBatchSize <= 0 {
		c.Embedding.MaxBatchSize = 16
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 32
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 400
	}
	if c.Index.HNSWEFRuntime <= 0 {
		c.Index.HNSWEFRuntime = 20
	}
	if c.Index.PoolMultiplier <= 0 {
		c.Index.PoolMultiplier = vecindex.MinPoolMultiplier
	}
	if c.Index.MinScore == 0 {
		c.Index.MinScore = 0.15
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = 4096
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 600
	}
	if c.Pipeline.DefaultTopK <= 0 {
		c.Pipeline.DefaultTopK = 8
	}
	if c.Pipeline.TopKPerStage <= 0 {
		c.Pipeline.TopKPerStage = 5
	}
	if c.Pipeline.StageConcurrency <= 0 {
		c.Pipeline.StageConcurrency = 4
	}
	if c.Pipeline.Lambda == 0 {
		c.Pipeline.Lambda = 0.7
	}
	if c.Classifier.NearMissLogging == nil {
		t := true
		c.Classifier.NearMissLogging = &t
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
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Index.PoolMultiplier < vecindex.MinPoolMultiplier {
		return fmt.Errorf("index.pool_multiplier must be at least %d, got %d",
			vecindex.MinPoolMultiplier, c.Index.PoolMultiplier)
	}
	if c.Index.MinScore < 0 || c.Index.MinScore >= 1 {
		return fmt.Errorf("index.min_score must be in [0,1), got %f", c.Index.MinScore)
	}
	if c.Pipeline.Lambda < 0 || c.Pipeline.Lambda > 1 {
		return fmt.Errorf("pipeline.lambda must be in [0,1], got %f", c.Pipeline.Lambda)
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
