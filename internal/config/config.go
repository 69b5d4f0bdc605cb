// Package config loads and validates Scout configuration.
//
// Configuration is layered in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/scout/config.yaml)
//  3. Project config (.scout.yaml in project root)
//  4. Environment variables (SCOUT_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Scout configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	LLM       LLMConfig       `yaml:"llm" json:"llm"`
	Providers ProvidersConfig `yaml:"providers" json:"providers"`
	Research  ResearchConfig  `yaml:"research" json:"research"`
	Server    ServerConfig    `yaml:"server" json:"server"`
}

// LLMConfig configures the language-model endpoint used for question
// decomposition and summary synthesis. Any OpenAI-compatible chat
// completions endpoint works (OpenAI, Ollama, vLLM, LM Studio).
type LLMConfig struct {
	// Endpoint is the base URL of the chat completions API.
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	// APIKey authenticates against the endpoint. Usually set via
	// SCOUT_LLM_API_KEY or OPENAI_API_KEY rather than the config file.
	APIKey string `yaml:"api_key" json:"-"`
	// Model is the model identifier passed to the endpoint.
	Model string `yaml:"model" json:"model"`
	// Timeout is the per-request timeout (e.g. "60s").
	Timeout string `yaml:"timeout" json:"timeout"`
	// MaxTokens caps the completion length. 0 uses the endpoint default.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`
	// Temperature controls sampling randomness (0.0-2.0).
	Temperature float64 `yaml:"temperature" json:"temperature"`
}

// ProvidersConfig configures the web search provider chain.
type ProvidersConfig struct {
	// Order is the fallback order in which providers are tried.
	// Valid names: duckduckgo, brave, static.
	Order []string `yaml:"order" json:"order"`

	DuckDuckGo DuckDuckGoConfig `yaml:"duckduckgo" json:"duckduckgo"`
	Brave      BraveConfig      `yaml:"brave" json:"brave"`
	Static     StaticConfig     `yaml:"static" json:"static"`

	// Timeout is the per-provider request timeout (e.g. "10s").
	Timeout string `yaml:"timeout" json:"timeout"`

	// CacheSize is the number of query results kept in the in-memory LRU.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
	// CacheTTL is how long cached query results stay fresh (e.g. "15m").
	CacheTTL string `yaml:"cache_ttl" json:"cache_ttl"`

	// DiskCache persists query results across processes under ~/.scout/cache.
	DiskCache DiskCacheConfig `yaml:"disk_cache" json:"disk_cache"`
}

// DuckDuckGoConfig configures the DuckDuckGo HTML provider.
type DuckDuckGoConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Endpoint overrides the default lite endpoint. Used in tests.
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

// BraveConfig configures the Brave Search API provider.
type BraveConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// APIKey is the Brave subscription token. Usually set via BRAVE_API_KEY.
	APIKey   string `yaml:"api_key" json:"-"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

// StaticConfig configures the offline static provider, which serves
// placeholder results when no network provider is reachable.
type StaticConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// DiskCacheConfig configures the on-disk search result cache.
type DiskCacheConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	// TTL is how long disk entries stay fresh (e.g. "24h").
	TTL string `yaml:"ttl" json:"ttl"`
}

// ResearchConfig configures the research pipeline.
type ResearchConfig struct {
	// MaxResults is the default source cap when a request does not set one.
	MaxResults int `yaml:"max_results" json:"max_results"`
	// Parallelism caps concurrent sub-question searches.
	Parallelism int `yaml:"parallelism" json:"parallelism"`
	// Timeout bounds a whole research request (e.g. "120s").
	Timeout string `yaml:"timeout" json:"timeout"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		LLM: LLMConfig{
			Endpoint:    "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Timeout:     "60s",
			MaxTokens:   1024,
			Temperature: 0.3,
		},
		Providers: ProvidersConfig{
			Order: []string{"duckduckgo", "brave", "static"},
			DuckDuckGo: DuckDuckGoConfig{
				Enabled: true,
			},
			Brave: BraveConfig{
				Enabled:  true,
				Endpoint: "https://api.search.brave.com/res/v1/web/search",
			},
			Static: StaticConfig{
				Enabled: true,
			},
			Timeout:   "10s",
			CacheSize: 256,
			CacheTTL:  "15m",
			DiskCache: DiskCacheConfig{
				Enabled: false,
				Path:    defaultDiskCachePath(),
				TTL:     "24h",
			},
		},
		Research: ResearchConfig{
			MaxResults:  10,
			Parallelism: 4,
			Timeout:     "120s",
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "debug",
		},
	}
}

// defaultDiskCachePath returns the default on-disk cache directory.
func defaultDiskCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".scout", "cache")
	}
	return filepath.Join(home, ".scout", "cache")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/scout/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/scout/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "scout", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "scout", "config.yaml")
	}
	return filepath.Join(home, ".config", "scout", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()

	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}

	return cfg, nil
}

// Load loads configuration from the specified directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/scout/config.yaml)
//  3. Project config (.scout.yaml in project root)
//  4. Environment variables (SCOUT_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .scout.yaml or .scout.yml.
func (c *Config) loadFromFile(dir string) error {
	// .yaml takes precedence
	yamlPath := filepath.Join(dir, ".scout.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".scout.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine, use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// LLM
	if other.LLM.Endpoint != "" {
		c.LLM.Endpoint = other.LLM.Endpoint
	}
	if other.LLM.APIKey != "" {
		c.LLM.APIKey = other.LLM.APIKey
	}
	if other.LLM.Model != "" {
		c.LLM.Model = other.LLM.Model
	}
	if other.LLM.Timeout != "" {
		c.LLM.Timeout = other.LLM.Timeout
	}
	if other.LLM.MaxTokens != 0 {
		c.LLM.MaxTokens = other.LLM.MaxTokens
	}
	if other.LLM.Temperature != 0 {
		c.LLM.Temperature = other.LLM.Temperature
	}

	// Providers
	if len(other.Providers.Order) > 0 {
		c.Providers.Order = other.Providers.Order
	}
	if other.Providers.DuckDuckGo.Endpoint != "" {
		c.Providers.DuckDuckGo.Endpoint = other.Providers.DuckDuckGo.Endpoint
	}
	// Enabled defaults to true, so a provider section in the file controls it
	// only when the order list mentions the provider.
	if containsName(other.Providers.Order, "duckduckgo") {
		c.Providers.DuckDuckGo.Enabled = other.Providers.DuckDuckGo.Enabled
	}
	if other.Providers.Brave.APIKey != "" {
		c.Providers.Brave.APIKey = other.Providers.Brave.APIKey
	}
	if other.Providers.Brave.Endpoint != "" {
		c.Providers.Brave.Endpoint = other.Providers.Brave.Endpoint
	}
	if containsName(other.Providers.Order, "brave") {
		c.Providers.Brave.Enabled = other.Providers.Brave.Enabled
	}
	if containsName(other.Providers.Order, "static") {
		c.Providers.Static.Enabled = other.Providers.Static.Enabled
	}
	if other.Providers.Timeout != "" {
		c.Providers.Timeout = other.Providers.Timeout
	}
	if other.Providers.CacheSize != 0 {
		c.Providers.CacheSize = other.Providers.CacheSize
	}
	if other.Providers.CacheTTL != "" {
		c.Providers.CacheTTL = other.Providers.CacheTTL
	}
	if other.Providers.DiskCache.Enabled {
		c.Providers.DiskCache.Enabled = true
	}
	if other.Providers.DiskCache.Path != "" {
		c.Providers.DiskCache.Path = other.Providers.DiskCache.Path
	}
	if other.Providers.DiskCache.TTL != "" {
		c.Providers.DiskCache.TTL = other.Providers.DiskCache.TTL
	}

	// Research
	if other.Research.MaxResults != 0 {
		c.Research.MaxResults = other.Research.MaxResults
	}
	if other.Research.Parallelism != 0 {
		c.Research.Parallelism = other.Research.Parallelism
	}
	if other.Research.Timeout != "" {
		c.Research.Timeout = other.Research.Timeout
	}

	// Server
	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies SCOUT_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SCOUT_LLM_ENDPOINT"); v != "" {
		c.LLM.Endpoint = v
	}
	if v := os.Getenv("SCOUT_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("SCOUT_LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}

	if v := os.Getenv("BRAVE_API_KEY"); v != "" {
		c.Providers.Brave.APIKey = v
	}
	if v := os.Getenv("SCOUT_PROVIDER_ORDER"); v != "" {
		var order []string
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				order = append(order, name)
			}
		}
		if len(order) > 0 {
			c.Providers.Order = order
		}
	}

	if v := os.Getenv("SCOUT_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Research.MaxResults = n
		}
	}
	if v := os.Getenv("SCOUT_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Research.Parallelism = n
		}
	}

	if v := os.Getenv("SCOUT_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("SCOUT_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
}

// FindProjectRoot finds the project root directory.
// It looks for a .git directory or .scout.yaml/.yml file by walking up
// the directory tree. Falls back to the starting directory.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}

		if fileExists(filepath.Join(currentDir, ".scout.yaml")) ||
			fileExists(filepath.Join(currentDir, ".scout.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// validProviderNames are the provider names accepted in the order list.
var validProviderNames = map[string]bool{
	"duckduckgo": true,
	"brave":      true,
	"static":     true,
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.LLM.Endpoint == "" {
		return fmt.Errorf("llm.endpoint must not be empty")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %f", c.LLM.Temperature)
	}
	if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
		return fmt.Errorf("llm.timeout is not a valid duration: %s", c.LLM.Timeout)
	}

	if len(c.Providers.Order) == 0 {
		return fmt.Errorf("providers.order must name at least one provider")
	}
	for _, name := range c.Providers.Order {
		if !validProviderNames[strings.ToLower(name)] {
			return fmt.Errorf("providers.order contains unknown provider %q (use: duckduckgo, brave, static)", name)
		}
	}
	if _, err := time.ParseDuration(c.Providers.Timeout); err != nil {
		return fmt.Errorf("providers.timeout is not a valid duration: %s", c.Providers.Timeout)
	}
	if c.Providers.CacheSize < 0 {
		return fmt.Errorf("providers.cache_size must be non-negative, got %d", c.Providers.CacheSize)
	}
	if _, err := time.ParseDuration(c.Providers.CacheTTL); err != nil {
		return fmt.Errorf("providers.cache_ttl is not a valid duration: %s", c.Providers.CacheTTL)
	}

	if c.Research.MaxResults < 1 || c.Research.MaxResults > 50 {
		return fmt.Errorf("research.max_results must be between 1 and 50, got %d", c.Research.MaxResults)
	}
	if c.Research.Parallelism < 1 {
		return fmt.Errorf("research.parallelism must be at least 1, got %d", c.Research.Parallelism)
	}
	if _, err := time.ParseDuration(c.Research.Timeout); err != nil {
		return fmt.Errorf("research.timeout is not a valid duration: %s", c.Research.Timeout)
	}

	validTransports := map[string]bool{"stdio": true, "sse": true}
	if !validTransports[strings.ToLower(c.Server.Transport)] {
		return fmt.Errorf("server.transport must be 'stdio' or 'sse', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// LLMTimeout returns the parsed language-model request timeout.
func (c *Config) LLMTimeout() time.Duration {
	return parseDurationOr(c.LLM.Timeout, 60*time.Second)
}

// ProviderTimeout returns the parsed per-provider search timeout.
func (c *Config) ProviderTimeout() time.Duration {
	return parseDurationOr(c.Providers.Timeout, 10*time.Second)
}

// CacheTTL returns the parsed in-memory cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return parseDurationOr(c.Providers.CacheTTL, 15*time.Minute)
}

// ResearchTimeout returns the parsed whole-request timeout.
func (c *Config) ResearchTimeout() time.Duration {
	return parseDurationOr(c.Research.Timeout, 120*time.Second)
}

// parseDurationOr parses a duration string, falling back on parse failure.
func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// containsName reports whether the list contains the given name.
func containsName(list []string, name string) bool {
	for _, n := range list {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
