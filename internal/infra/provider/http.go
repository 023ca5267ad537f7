package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ordinalsplus/indexer-go/internal/metrics"
	"github.com/ordinalsplus/indexer-go/internal/resilience"
)

// httpClient is the shared transport for both provider realizations.
type httpClient struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
}

func newHTTPClient(name, baseURL, apiKey string, timeout time.Duration) *httpClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpClient{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// getJSON fetches path and decodes the body into out. Errors come back as the
// resilience taxonomy so retry and breaker gating work uniformly.
func (c *httpClient) getJSON(ctx context.Context, op, path string, out any) error {
	start := time.Now()
	err := c.doGetJSON(ctx, op, path, out)
	metrics.ProviderCallDuration.WithLabelValues(c.name, op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderCallErrors.WithLabelValues(c.name, op).Inc()
	}
	return err
}

func (c *httpClient) doGetJSON(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &resilience.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &resilience.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &resilience.NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return &resilience.APIError{Op: op, Status: resp.StatusCode, Body: truncate(body, 256)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &resilience.DataParsingError{Op: op, Err: fmt.Errorf("decode %s response: %w", c.name, err)}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
