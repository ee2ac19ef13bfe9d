package purldb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"purlmatch/internal/config"
)

// ErrUnavailable indicates the PurlDB service could not be reached. Matching
// stages treat it as a skip, not a failure.
var ErrUnavailable = errors.New("purldb unavailable")

const (
	packagesEndpoint  = "/packages/filter_by_checksums/"
	resourcesEndpoint = "/resources/filter_by_checksums/"
)

// HTTPDoer describes the HTTP client used by the PurlDB client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues checksum lookups against a PurlDB instance.
type Client struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewClient constructs a client from application configuration.
func NewClient(cfg *config.Config) *Client {
	timeout := 120 * time.Second
	if cfg.PurlDB.RequestTimeout > 0 {
		timeout = time.Duration(cfg.PurlDB.RequestTimeout) * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.PurlDB.BaseURL, "/"),
		apiKey:  cfg.PurlDB.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewClientWith constructs a client with an explicit HTTP doer.
func NewClientWith(baseURL, apiKey string, doer HTTPDoer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  doer,
	}
}

// IsAvailable probes the API root and reports whether the service answers.
func (c *Client) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// PackageData carries the package fields PurlDB returns for a matched
// checksum.
type PackageData struct {
	Type      string `json:"type"`
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	PURL      string `json:"purl"`
}

type matchRequest struct {
	SHA1 []string `json:"sha1"`
}

type matchResult struct {
	SHA1     string        `json:"sha1"`
	Packages []PackageData `json:"packages"`
}

type matchResponse struct {
	Results []matchResult `json:"results"`
}

// matchChecksums posts a batch of SHA1 checksums to an endpoint and returns
// the candidate packages keyed by checksum. Checksums with no match are
// absent from the map.
func (c *Client) matchChecksums(ctx context.Context, endpoint string, sha1s []string) (map[string][]PackageData, error) {
	body, err := json.Marshal(matchRequest{SHA1: sha1s})
	if err != nil {
		return nil, fmt.Errorf("encode match request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build match request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusBadGateway {
		return nil, fmt.Errorf("%w: service returned %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("purldb match returned %d", resp.StatusCode)
	}

	var decoded matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode match response: %w", err)
	}

	matches := make(map[string][]PackageData, len(decoded.Results))
	for _, result := range decoded.Results {
		if result.SHA1 == "" || len(result.Packages) == 0 {
			continue
		}
		matches[result.SHA1] = append(matches[result.SHA1], result.Packages...)
	}
	return matches, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Token "+c.apiKey)
	}
}
