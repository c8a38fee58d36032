package cas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// RemoteStore is the distributed content-addressed store, consumed only
// through its HTTP API. Identifiers on this tier are assigned by the
// remote system's own addressing scheme.
type RemoteStore interface {
	Add(ctx context.Context, content []byte, name string) (string, error)
	Cat(ctx context.Context, id string) ([]byte, error)
	Unpin(ctx context.Context, id string) error
	Stat(ctx context.Context, id string) (*BlobStat, error)
	IsAvailable(ctx context.Context) bool
	GatewayURL(id string) string
}

// IPFSClient talks to an IPFS node over its HTTP API (/api/v0)
type IPFSClient struct {
	apiURL     string
	gateway    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewIPFSClient creates a client for the node at apiURL
// (e.g. http://localhost:5001).
func NewIPFSClient(apiURL, gateway string, timeout time.Duration) *IPFSClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &IPFSClient{
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		gateway:    gateway,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

type ipfsAddResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

type ipfsError struct {
	Message string `json:"Message"`
	Code    int    `json:"Code"`
}

type ipfsStatResponse struct {
	Hash           string `json:"Hash"`
	Size           int64  `json:"Size"`
	CumulativeSize int64  `json:"CumulativeSize"`
	Blocks         int    `json:"Blocks"`
	Type           string `json:"Type"`
}

// BlobStat is the remote store's metadata for a stored blob
type BlobStat struct {
	ID             string
	Size           int64
	CumulativeSize int64
	Blocks         int
	Type           string
}

// Add uploads content and returns the node-assigned CID
func (c *IPFSClient) Add(ctx context.Context, content []byte, name string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if name == "" {
		name = "blob"
	}
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/v0/add?pin=true", c.apiURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ipfs add: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", c.apiError("add", resp)
	}

	var added ipfsAddResponse
	if err := json.NewDecoder(resp.Body).Decode(&added); err != nil {
		return "", fmt.Errorf("decode add response: %w", err)
	}
	if added.Hash == "" {
		return "", fmt.Errorf("ipfs add: empty hash in response")
	}
	return added.Hash, nil
}

// Cat fetches the content behind a CID. A node response naming the CID
// as unknown maps to ErrNotFound; transport failures are returned as-is
// so the caller can distinguish absence from unreachability.
func (c *IPFSClient) Cat(ctx context.Context, id string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/v0/cat?arg=%s", c.apiURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ipfs cat: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError("cat", resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read cat response: %w", err)
	}
	return data, nil
}

// Unpin removes a pin from the node. Add already pins, so this is the
// only pin operation the tier needs.
func (c *IPFSClient) Unpin(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/v0/pin/rm?arg=%s", c.apiURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ipfs pin/rm: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.apiError("pin/rm", resp)
	}
	return nil
}

// Stat fetches the node's metadata for a CID
func (c *IPFSClient) Stat(ctx context.Context, id string) (*BlobStat, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/v0/files/stat?arg=/ipfs/%s", c.apiURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ipfs stat: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError("stat", resp)
	}

	var stat ipfsStatResponse
	if err := json.NewDecoder(resp.Body).Decode(&stat); err != nil {
		return nil, fmt.Errorf("decode stat response: %w", err)
	}
	return &BlobStat{
		ID:             stat.Hash,
		Size:           stat.Size,
		CumulativeSize: stat.CumulativeSize,
		Blocks:         stat.Blocks,
		Type:           stat.Type,
	}, nil
}

// IsAvailable checks whether the node answers its version endpoint
func (c *IPFSClient) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/api/v0/version", c.apiURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
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

// GatewayURL returns the public gateway URL for a CID, or "" when no
// gateway is configured
func (c *IPFSClient) GatewayURL(id string) string {
	if c.gateway == "" {
		return ""
	}
	return c.gateway + id
}

// apiError turns a non-200 node response into an error, mapping
// "not found"-style messages to ErrNotFound.
func (c *IPFSClient) apiError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr ipfsError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		msg := strings.ToLower(apiErr.Message)
		if strings.Contains(msg, "not found") || strings.Contains(msg, "no link named") || strings.Contains(msg, "invalid path") {
			return fmt.Errorf("%w: ipfs %s: %s", ErrNotFound, op, apiErr.Message)
		}
		return fmt.Errorf("ipfs %s: status %d: %s", op, resp.StatusCode, apiErr.Message)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: ipfs %s", ErrNotFound, op)
	}
	return fmt.Errorf("ipfs %s: status %d", op, resp.StatusCode)
}
