// Package chain wraps the smart-contract bridge service that tokenizes
// assets and manages inheritance plans on-chain. The bridge owns wallet
// and contract plumbing; this client only speaks its HTTP API.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the chain bridge over HTTP
type Client struct {
	baseURL    string
	contract   string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a bridge client. contract is the asset-token
// contract address the bridge should target.
func NewClient(baseURL, contract string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		contract:   contract,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// TokenizeRequest asks the bridge to mint a token for an asset
type TokenizeRequest struct {
	AssetID    string `json:"assetId"`
	UserID     string `json:"userId"`
	ContentID  string `json:"contentId"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Importance int    `json:"importance"`
}

// TokenizeResult is the bridge's record of a minted token
type TokenizeResult struct {
	TokenID         string `json:"tokenId"`
	Contract        string `json:"contract"`
	TransactionHash string `json:"transactionHash"`
	TokenURI        string `json:"tokenUri"`
}

// PlanRequest creates an inheritance plan for a user's estate
type PlanRequest struct {
	UserID        string   `json:"userId"`
	AssetIDs      []string `json:"assetIds"`
	Beneficiaries []string `json:"beneficiaries"`
	Threshold     int      `json:"threshold"` // approvals required to initiate
}

// PlanStatus reports the on-chain state of an inheritance plan
type PlanStatus struct {
	UserID    string `json:"userId"`
	Exists    bool   `json:"exists"`
	Active    bool   `json:"active"`
	Initiated bool   `json:"initiated"`
	Approvals int    `json:"approvals"`
	Threshold int    `json:"threshold"`
}

// Tokenize mints a token for an asset. Tokenization is explicit and has
// no fallback tier: bridge failures surface to the caller.
func (c *Client) Tokenize(ctx context.Context, req TokenizeRequest) (*TokenizeResult, error) {
	if req.ContentID == "" {
		return nil, fmt.Errorf("asset has no stored content to tokenize")
	}
	body := struct {
		TokenizeRequest
		Contract string `json:"contract,omitempty"`
	}{req, c.contract}

	var result TokenizeResult
	if err := c.post(ctx, "/tokens", body, &result); err != nil {
		return nil, err
	}
	if result.TokenID == "" {
		return nil, fmt.Errorf("chain bridge: empty token id in response")
	}
	return &result, nil
}

// CreateInheritancePlan registers a plan on-chain
func (c *Client) CreateInheritancePlan(ctx context.Context, req PlanRequest) error {
	return c.post(ctx, "/inheritance/plans", req, nil)
}

// AddBeneficiary adds a beneficiary to an existing plan
func (c *Client) AddBeneficiary(ctx context.Context, userID, beneficiaryID string) error {
	body := map[string]string{"userId": userID, "beneficiaryId": beneficiaryID}
	return c.post(ctx, "/inheritance/beneficiaries", body, nil)
}

// InheritanceStatus fetches the plan state for a user
func (c *Client) InheritanceStatus(ctx context.Context, userID string) (*PlanStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/inheritance/plans/%s", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chain bridge: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return &PlanStatus{UserID: userID, Exists: false}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, bridgeError(resp)
	}

	var status PlanStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}

// IsAvailable probes the bridge health endpoint
func (c *Client) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chain bridge: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return bridgeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func bridgeError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("chain bridge: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}
