package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbed(t *testing.T) {
	var gotInput string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotInput = req.Input
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{0.25, -0.5, 1}})
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "key")
	vec, err := c.Embed(context.Background(), "Will the Fed raise rates in December?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotInput != "Will the Fed raise rates in December?" {
		t.Fatalf("input = %q", gotInput)
	}
	if len(vec) != 3 || vec[1] != -0.5 {
		t.Fatalf("vector = %v", vec)
	}
}

func TestEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "key")
	_, err := c.Embed(context.Background(), "q")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusTooManyRequests {
		t.Fatalf("status = %d", apiErr.Status)
	}
}

func TestEmbedEmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embedding":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "key")
	if _, err := c.Embed(context.Background(), "q"); err == nil {
		t.Fatal("expected error for empty vector")
	}
}
