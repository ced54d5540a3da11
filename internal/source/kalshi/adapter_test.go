package kalshi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"adjacent/internal/models"
)

type memorySink struct {
	keys     []string
	payloads [][]byte
}

func (s *memorySink) Put(_ context.Context, key string, payload []byte) error {
	s.keys = append(s.keys, key)
	s.payloads = append(s.payloads, payload)
	return nil
}

func newTestServer(t *testing.T, markets http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("login method = %s, want POST", r.Method)
		}
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode login body: %v", err)
		}
		json.NewEncoder(w).Encode(loginResponse{Token: "session-token"})
	})
	mux.HandleFunc("/markets", markets)
	return httptest.NewServer(mux)
}

func TestExtractPaginatesToEmptyCursor(t *testing.T) {
	var calls int32
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer session-token" {
			t.Errorf("Authorization = %q, want session token reused across pages", got)
		}
		n := atomic.AddInt32(&calls, 1)
		cursor := r.URL.Query().Get("cursor")
		switch {
		case n == 1 && cursor == "":
			json.NewEncoder(w).Encode(MarketsResponse{
				Markets: []RawMarket{{Ticker: "MKT1", Status: "active"}, {Ticker: "MKT2", Status: "active"}},
				Cursor:  "page2",
			})
		case n == 2 && cursor == "page2":
			json.NewEncoder(w).Encode(MarketsResponse{
				Markets: []RawMarket{{Ticker: "MKT3", Status: "active"}},
				Cursor:  "",
			})
		default:
			t.Errorf("unexpected request: call=%d cursor=%q", n, cursor)
		}
	})
	defer server.Close()

	a := NewAdapter(NewClient(server.Client(), server.URL, "u", "p"), nil, 1000, nil)
	markets, err := a.Extract(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(markets) != 3 {
		t.Fatalf("len(markets) = %d, want 3", len(markets))
	}
	for i, want := range []string{"MKT1", "MKT2", "MKT3"} {
		if markets[i].Ticker != want {
			t.Fatalf("markets[%d].Ticker = %q, want %q (order must be preserved)", i, markets[i].Ticker, want)
		}
	}
	if calls != 2 {
		t.Fatalf("page fetches = %d, want 2", calls)
	}
}

func TestExtractSentinelOnFirstPage(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(MarketsResponse{Markets: []RawMarket{}, Cursor: ""})
	})
	defer server.Close()

	a := NewAdapter(NewClient(server.Client(), server.URL, "u", "p"), nil, 1000, nil)
	markets, err := a.Extract(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(markets) != 0 {
		t.Fatalf("len(markets) = %d, want 0", len(markets))
	}
}

func TestExtractTruncatesOnPageFailure(t *testing.T) {
	var calls int32
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			json.NewEncoder(w).Encode(MarketsResponse{
				Markets: []RawMarket{{Ticker: "MKT1", Status: "active"}},
				Cursor:  "page2",
			})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer server.Close()

	a := NewAdapter(NewClient(server.Client(), server.URL, "u", "p"), nil, 1000, nil)
	markets, err := a.Extract(context.Background())
	if err != nil {
		t.Fatalf("mid-pagination failure must truncate, not error: %v", err)
	}
	if len(markets) != 1 || markets[0].Ticker != "MKT1" {
		t.Fatalf("markets = %+v, want the one page fetched before the failure", markets)
	}
}

func TestExtractLoginFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	a := NewAdapter(NewClient(server.Client(), server.URL, "u", "bad"), nil, 1000, nil)
	if _, err := a.Extract(context.Background()); err == nil {
		t.Fatal("expected error when authentication fails")
	}
}

func TestExtractWritesAuditPayload(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(MarketsResponse{
			Markets: []RawMarket{{Ticker: "MKT1", Status: "active"}},
			Cursor:  "",
		})
	})
	defer server.Close()

	sink := &memorySink{}
	a := NewAdapter(NewClient(server.Client(), server.URL, "u", "p"), sink, 1000, nil)
	if _, err := a.Extract(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.keys) != 1 {
		t.Fatalf("audit writes = %d, want 1", len(sink.keys))
	}
	if got := sink.keys[0]; len(got) < 7 || got[:7] != "kalshi-" {
		t.Fatalf("audit key = %q, want kalshi-<timestamp>", got)
	}
	var raw []RawMarket
	if err := json.Unmarshal(sink.payloads[0], &raw); err != nil {
		t.Fatalf("audit payload is not a raw market array: %v", err)
	}
	if len(raw) != 1 || raw[0].Ticker != "MKT1" {
		t.Fatalf("audit payload = %+v", raw)
	}
}

func TestNormalize(t *testing.T) {
	vol := 1200.0
	oi := 0.0
	price := 37.0
	m := normalize(RawMarket{
		Ticker:       "ACPI-4.5",
		MarketType:   "binary",
		OpenTime:     "2026-01-01T00:00:00Z",
		CloseTime:    "2026-06-30T00:00:00Z",
		OpenInterest: &oi,
		Volume:       &vol,
		LastPrice:    &price,
		Title:        "Will CPI exceed 4.5%?",
		Subtitle:     "Monthly CPI print",
		RulesPrimary: "Resolves YES if ...",
		Category:     "Economics",
		Status:       "open",
	})

	if m.AdjTicker != "ADJ-KALSHI-ACPI-4/.5" {
		t.Fatalf("AdjTicker = %q", m.AdjTicker)
	}
	if m.Liquidity != nil {
		t.Fatalf("absent liquidity must map to nil, got %v", *m.Liquidity)
	}
	if m.OpenInterest == nil || *m.OpenInterest != 0 {
		t.Fatalf("reported zero open_interest must be preserved, got %v", m.OpenInterest)
	}
	if m.Probability == nil || *m.Probability != 37 {
		t.Fatalf("Probability = %v, want 37 (cent scale passes through)", m.Probability)
	}
	if m.Result != nil {
		t.Fatalf("unresolved market must have nil result, got %q", *m.Result)
	}
	if len(m.Category) != 1 || m.Category[0] != "Economics" {
		t.Fatalf("Category = %v, want single-element list", m.Category)
	}
	if m.Status != models.StatusActive {
		t.Fatalf("Status = %q, want %q", m.Status, models.StatusActive)
	}
	if m.Link != "https://kalshi.com/markets/ACPI-4.5" {
		t.Fatalf("Link = %q", m.Link)
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"open", models.StatusActive},
		{"active", models.StatusActive},
		{"closed", models.StatusFinalized},
		{"settled", models.StatusFinalized},
		{"finalized", models.StatusFinalized},
	}
	for _, tt := range tests {
		if got := normalizeStatus(tt.in); got != tt.want {
			t.Fatalf("normalizeStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
