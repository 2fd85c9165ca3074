package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"claimcheck/internal/cache"
	"claimcheck/internal/llm"
	"claimcheck/internal/model"
	"claimcheck/internal/pipeline"
	"claimcheck/internal/quota"
	"claimcheck/internal/retrieval"
	"claimcheck/internal/search"
	"claimcheck/internal/worker"
)

// app is the assembled verification stack shared by the commands. One
// ledger and one limiter sit under both the model router and the search
// orchestrator, so every command sees the same budgets.
type app struct {
	cfg         *model.Config
	ledger      *quota.Ledger
	provider    llm.Provider
	engine      *pipeline.Engine
	coordinator *worker.Coordinator
}

// loadConfig layers the config file (if any) over built-in defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	return cfg, nil
}

// buildApp wires the full stack from configuration
func buildApp(cfg *model.Config) (*app, error) {
	ledger := quota.NewLedger()
	limiter := quota.NewLimiter(1, 5)

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	models := llm.NewRouter(provider, cfg.Tiers, ledger, limiter)

	searcher, err := search.NewOrchestrator(cfg.Search, cfg.HTTP, ledger, limiter)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	store, err := retrieval.New(cfg.Retrieval)
	if err != nil {
		// Retrieval is optional: without it every claim takes the search
		// path, which still produces verdicts.
		fmt.Fprintf(os.Stderr, "Warning: retrieval disabled: %v\n", err)
		store = retrieval.NoopStore{}
	}

	var results *cache.ResultStore
	backend, err := cache.New(cfg.Cache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cache disabled: %v\n", err)
	} else {
		results = cache.NewResultStore(backend, cfg.Cache.TTL)
	}

	engine := pipeline.NewEngine(models, searcher, store, results, cfg.Retrieval.TopK)
	coordinator := worker.NewCoordinator(engine, cfg.Concurrency.BatchWorkers)

	return &app{
		cfg:         cfg,
		ledger:      ledger,
		provider:    provider,
		engine:      engine,
		coordinator: coordinator,
	}, nil
}

// printBundle writes one result bundle to stdout as indented JSON
func printBundle(bundle *model.ResultBundle) error {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
