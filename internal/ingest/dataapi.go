package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"geoevents.io/geoevents/internal/config"
)

const maxUpstreamBody = 4 << 20

// DataAPI calls named social-media lookups on the data API gateway.
type DataAPI interface {
	Call(ctx context.Context, apiID string, query map[string]string, out any) error
}

// DataAPIClient posts {"apiId", "query"} to the gateway and decodes the
// JSON response into out.
type DataAPIClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
}

// NewDataAPIClient creates a gateway client. It returns nil when no base
// URL is configured, which makes every platform lookup fall back to stubs.
func NewDataAPIClient(cfg config.DataAPIConfig) *DataAPIClient {
	if cfg.BaseURL == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &DataAPIClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		cb:      newBreaker("dataapi", 30*time.Second),
	}
}

type dataAPIRequest struct {
	APIID string            `json:"apiId"`
	Query map[string]string `json:"query"`
}

// Call invokes apiID with query.
func (c *DataAPIClient) Call(ctx context.Context, apiID string, query map[string]string, out any) error {
	payload, err := json.Marshal(dataAPIRequest{APIID: apiID, Query: query})
	if err != nil {
		return fmt.Errorf("encode data api request: %w", err)
	}

	body, err := execute(c.cb, func() ([]byte, error) {
		return c.post(ctx, payload)
	})
	if err != nil {
		return fmt.Errorf("data api %s: %w", apiID, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode data api %s response: %w", apiID, err)
	}
	return nil
}

func (c *DataAPIClient) post(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/call", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return doJSON(c.http, req)
}

// doJSON sends req and returns the body of a 2xx response.
func doJSON(client *http.Client, req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
