// Package store persists canonical market records through a PostgREST-style
// HTTP interface: rows are addressed by table name and filtered through
// query-string operators.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"adjacent/internal/models"
)

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("store api error (%d): %s", e.Status, e.Body)
}

// Client reads and writes rows in the canonical markets table.
type Client struct {
	baseURL    string
	apiKey     string
	table      string
	httpClient *http.Client
}

func NewClient(httpClient *http.Client, baseURL, apiKey, table string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		table:      table,
		httpClient: httpClient,
	}
}

func (c *Client) newRequest(ctx context.Context, method, rawQuery string, body io.Reader) (*http.Request, error) {
	u := c.baseURL + "/" + c.table
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// GetByAdjTicker returns the stored rows whose adj_ticker equals the given
// identifier. The result is empty (not an error) when no row matches.
func (c *Client) GetByAdjTicker(ctx context.Context, adjTicker string) ([]models.Market, error) {
	query := url.Values{}
	query.Set("adj_ticker", "eq."+adjTicker)

	req, err := c.newRequest(ctx, http.MethodGet, query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create select request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("select request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read select response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var rows []models.Market
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal select response: %w", err)
	}
	return rows, nil
}

// InsertMarkets bulk-inserts new rows in a single request.
func (c *Client) InsertMarkets(ctx context.Context, markets []models.Market) error {
	if len(markets) == 0 {
		return nil
	}
	payload, err := json.Marshal(markets)
	if err != nil {
		return fmt.Errorf("marshal insert payload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create insert request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("insert request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read insert response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// UpdateMarket overwrites the row matching the market's adj_ticker with the
// freshly extracted values. The embedding field is omitted from the payload
// when unset, so updates never clobber the stored vector.
func (c *Client) UpdateMarket(ctx context.Context, market models.Market) error {
	payload, err := json.Marshal(market)
	if err != nil {
		return fmt.Errorf("marshal update payload: %w", err)
	}

	query := url.Values{}
	query.Set("adj_ticker", "eq."+market.AdjTicker)

	req, err := c.newRequest(ctx, http.MethodPatch, query.Encode(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create update request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("update request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read update response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}
