package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("polymarket api error (%d): %s", e.Status, e.Body)
}

// Client talks to the Polymarket CLOB REST API. No authentication is
// required for the public markets listing.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// GetMarkets fetches one page of active markets. An empty cursor requests
// the first page.
func (c *Client) GetMarkets(ctx context.Context, cursor string) (*MarketsResponse, error) {
	query := url.Values{}
	query.Set("active", "true")
	if cursor != "" {
		query.Set("next_cursor", cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/markets?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create markets request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("markets request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read markets response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var page MarketsResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("unmarshal markets response: %w", err)
	}
	return &page, nil
}
