package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/mkang/heritaged/internal/analyze"
	"github.com/mkang/heritaged/internal/asset"
	"github.com/mkang/heritaged/internal/cache"
	"github.com/mkang/heritaged/internal/cas"
	"github.com/mkang/heritaged/internal/chain"
	"github.com/mkang/heritaged/internal/model"
	"github.com/mkang/heritaged/internal/storage"
)

// loadConfig merges defaults, the config file and HERITAGED_* env vars
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.AI.APIKey == "" {
		cfg.AI.APIKey = key
	}
	return cfg, nil
}

func newLogger(cfg *model.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newFacade builds just the tiered content store, for blob commands
// that bypass the vault database.
func newFacade(cfg *model.Config) *cas.Facade {
	var remote cas.RemoteStore
	if cfg.IPFS.APIURL != "" {
		remote = cas.NewIPFSClient(cfg.IPFS.APIURL, cfg.IPFS.Gateway, cfg.IPFS.Timeout)
	}
	return cas.NewFacade(remote, cas.NewLocalStore(cfg.Storage.FallbackDir))
}

type app struct {
	cfg     *model.Config
	logger  *slog.Logger
	store   *storage.Store
	service *asset.Service
}

// buildApp wires the full service graph from configuration. The caller
// must Close the returned app.
func buildApp(cfg *model.Config, logger *slog.Logger) (*app, error) {
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	facade := newFacade(cfg)

	provider, err := analyze.NewProvider(analyze.Config{
		Provider: cfg.AI.Provider,
		BaseURL:  cfg.AI.BaseURL,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
		Timeout:  cfg.AI.Timeout,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("configuring analysis provider: %w", err)
	}

	var results cache.Cache
	if cfg.Cache.Enabled {
		results = cache.NewLayered(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}
	resolver := analyze.NewResolver(provider, results)

	var bridge *chain.Client
	if cfg.Chain.BridgeURL != "" {
		bridge = chain.NewClient(cfg.Chain.BridgeURL, cfg.Chain.Contract, cfg.Chain.Timeout)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		service: asset.NewService(resolver, facade, store, bridge, logger),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing database", "error", err)
	}
}
