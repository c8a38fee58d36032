// Package analyze implements the tiered asset-analysis resolver: a
// remote classification provider fronted by a deterministic rule-based
// fallback, so classification never fails outright.
package analyze

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mkang/heritaged/internal/model"
)

// Provider is a remote classification backend
type Provider interface {
	// Name returns the provider name
	Name() string

	// Analyze classifies an asset from its metadata
	Analyze(ctx context.Context, info model.AssetInfo) (*model.ClassificationResult, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// PreferenceProvider is an optional extension for providers that can
// recommend inheritance settings from a user's asset history.
type PreferenceProvider interface {
	AnalyzePreferences(ctx context.Context, userID string) (*model.InheritancePreferences, error)
}

// Config holds remote provider configuration
type Config struct {
	// Provider name: "http", "openai", "" (disabled)
	Provider string

	// BaseURL of the analysis service ("http" provider) or a custom
	// OpenAI-compatible endpoint
	BaseURL string

	// APIKey for the "openai" provider
	APIKey string

	// Model name (provider-specific)
	Model string

	// Timeout per remote call
	Timeout time.Duration
}

// NewProvider creates a remote provider from configuration. An empty
// provider name disables the remote tier and returns (nil, nil): the
// resolver then classifies with rules alone.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "http":
		return NewHTTPProvider(cfg)

	case "openai":
		return NewOpenAIProvider(cfg)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown analysis provider: %s (supported: http, openai)", cfg.Provider)
	}
}
