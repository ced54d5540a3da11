// Package embed turns market question text into dense vectors via an
// external embedding endpoint.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type request struct {
	Input string `json:"input"`
}

type response struct {
	Embedding []float64 `json:"embedding"`
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("embed api error (%d): %s", e.Status, e.Body)
}

type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewClient(httpClient *http.Client, url, apiKey string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{url: url, apiKey: apiKey, httpClient: httpClient}
}

// Embed returns the vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	payload, err := json.Marshal(request{Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var er response
	if err := json.Unmarshal(body, &er); err != nil {
		return nil, fmt.Errorf("unmarshal embed response: %w", err)
	}
	if len(er.Embedding) == 0 {
		return nil, fmt.Errorf("embed response carried no vector")
	}
	return er.Embedding, nil
}
