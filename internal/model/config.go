package model

import "time"

// Config holds the complete claimcheck configuration
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Tiers       TiersConfig       `yaml:"tiers"`
	Search      SearchConfig      `yaml:"search"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	HTTP        HTTPConfig        `yaml:"http"`
	Output      OutputConfig      `yaml:"output"`
}

// LLMConfig holds reasoning-backend connection settings shared by all tiers
type LLMConfig struct {
	Provider  string `yaml:"provider"` // openai, anthropic, ollama
	APIKey    string `yaml:"api_key,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// TierConfig maps one reasoning tier to a model and its per-minute budget
type TierConfig struct {
	Model string `yaml:"model"`
	RPM   int    `yaml:"rpm"`   // Calls allowed per minute window
	Burst int    `yaml:"burst"` // Short-burst allowance above the smoothed rate
}

// TiersConfig holds the three fixed reasoning tiers
type TiersConfig struct {
	QuickClassify TierConfig `yaml:"quick_classify"` // Domain tagging and sufficiency checks
	DeepAnalyze   TierConfig `yaml:"deep_analyze"`   // Evidence synthesis
	Decision      TierConfig `yaml:"decision"`       // Final verdict extraction
}

// SearchProviderConfig describes one web search backend.
// Order in the Providers list is the fallback priority order.
type SearchProviderConfig struct {
	Name         string `yaml:"name"`
	APIKey       string `yaml:"api_key,omitempty"`
	MonthlyQuota int    `yaml:"monthly_quota"` // 0 means unlimited
}

// SearchConfig holds web search settings
type SearchConfig struct {
	Providers   []SearchProviderConfig `yaml:"providers"`
	Timeout     time.Duration          `yaml:"timeout"`
	UserAgent   string                 `yaml:"user_agent"`
	MaxResults  int                    `yaml:"max_results"`
	QuerySuffix string                 `yaml:"query_suffix,omitempty"` // Appended to every query (e.g. a region hint)
}

// RetrievalConfig holds vector retrieval collaborator settings
type RetrievalConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ChromaHost       string `yaml:"chroma_host"`
	ChromaPort       int    `yaml:"chroma_port"`
	CollectionPrefix string `yaml:"collection_prefix"` // Collections are named <prefix>_<domain>
	TopK             int    `yaml:"top_k"`
	EmbeddingModel   string `yaml:"embedding_model,omitempty"`
}

// RedisConfig holds connection settings for the redis cache backend
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
}

// CacheConfig holds result cache settings
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Backend string        `yaml:"backend"` // memory, disk, redis, layered
	TTL     time.Duration `yaml:"ttl"`
	Dir     string        `yaml:"dir,omitempty"` // For disk/layered backends
	Redis   RedisConfig   `yaml:"redis,omitempty"`
}

// ConcurrencyConfig holds worker pool settings
type ConcurrencyConfig struct {
	BatchWorkers int `yaml:"batch_workers"`
}

// HTTPConfig holds proxy settings for outbound HTTP clients
type HTTPConfig struct {
	HTTPProxy  string `yaml:"http_proxy,omitempty"`
	HTTPSProxy string `yaml:"https_proxy,omitempty"`
	NoProxy    string `yaml:"no_proxy,omitempty"`
}

// OutputConfig holds presentation settings
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults. Provider API keys are expected
// from the environment, never from this file.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "openai",
			Timeout:   30,
			MaxTokens: 1000,
		},
		Tiers: TiersConfig{
			QuickClassify: TierConfig{Model: "gpt-4o-mini", RPM: 15, Burst: 5},
			DeepAnalyze:   TierConfig{Model: "gpt-4o", RPM: 2, Burst: 1},
			Decision:      TierConfig{Model: "gpt-4o-mini", RPM: 10, Burst: 3},
		},
		Search: SearchConfig{
			Providers: []SearchProviderConfig{
				{Name: "tavily", MonthlyQuota: 1000},
				{Name: "brave", MonthlyQuota: 2000},
				{Name: "duckduckgo", MonthlyQuota: 0}, // Unlimited terminal fallback
			},
			Timeout:    10 * time.Second,
			UserAgent:  "claimcheck/0.1 (+https://github.com/claimcheck/claimcheck)",
			MaxResults: 10,
		},
		Retrieval: RetrievalConfig{
			Enabled:          true,
			ChromaHost:       "localhost",
			ChromaPort:       8000,
			CollectionPrefix: "claims",
			TopK:             3,
		},
		Cache: CacheConfig{
			Enabled: true,
			Backend: "memory",
			TTL:     24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers: 10,
		},
		Output: OutputConfig{},
	}
}
