package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mkang/heritaged/internal/model"
)

// HTTPProvider talks to the platform analysis service over its HTTP API
type HTTPProvider struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewHTTPProvider creates a provider for the analysis service at BaseURL
func NewHTTPProvider(cfg Config) (*HTTPProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("analysis service base URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPProvider{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}, nil
}

// Name returns the provider name
func (p *HTTPProvider) Name() string {
	return "http"
}

// analysis service wire format
type analyzeResponse struct {
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Importance  int      `json:"importance"`
	Sentiment   float64  `json:"sentiment"`
	Tags        []string `json:"tags"`
	Entities    []string `json:"entities"`
}

// Analyze sends asset metadata to the service's /analyze endpoint
func (p *HTTPProvider) Analyze(ctx context.Context, info model.AssetInfo) (*model.ClassificationResult, error) {
	var resp analyzeResponse
	if err := p.post(ctx, "/analyze", info, &resp); err != nil {
		return nil, err
	}

	result := &model.ClassificationResult{
		Category:    model.Category(resp.Category),
		Subcategory: resp.Subcategory,
		Importance:  resp.Importance,
		Sentiment:   resp.Sentiment,
		Tags:        resp.Tags,
		Entities:    resp.Entities,
		Source:      model.SourceRemoteAI,
	}
	if !result.Category.Valid() {
		result.Category = model.CategoryOther
	}
	result.Clamp()
	return result, nil
}

// AnalyzePreferences asks the service for inheritance recommendations
func (p *HTTPProvider) AnalyzePreferences(ctx context.Context, userID string) (*model.InheritancePreferences, error) {
	var prefs model.InheritancePreferences
	req := map[string]string{"userId": userID}
	if err := p.post(ctx, "/analyze/inheritance-preferences", req, &prefs); err != nil {
		return nil, err
	}
	prefs.Source = model.SourceRemoteAI
	return &prefs, nil
}

// IsAvailable probes the service health endpoint
func (p *HTTPProvider) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

func (p *HTTPProvider) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("analysis service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("analysis service: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
