// Package blob writes raw extraction payloads to an object store bucket for
// audit. Writes are best-effort from the pipeline's point of view; the
// caller decides whether a failure aborts anything.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type Client struct {
	baseURL    string
	bucket     string
	apiKey     string
	httpClient *http.Client
}

func NewClient(httpClient *http.Client, baseURL, bucket, apiKey string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Put stores payload under key in the configured bucket.
func (c *Client) Put(ctx context.Context, key string, payload []byte) error {
	u := c.baseURL + "/" + c.bucket + "/" + key
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("audit request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("audit write rejected (%d): %s", resp.StatusCode, body)
	}
	return nil
}
