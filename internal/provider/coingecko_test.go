package provider

import (
	"context"
	"net/http"
	"testing"
)

func TestSearchCoins(t *testing.T) {
	t.Parallel()

	p := NewCoinGeckoProvider(testTracer)
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/api/v3/search" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if req.URL.Query().Get("query") != "bitcoin" {
			t.Fatalf("unexpected query: %s", req.URL.Query().Get("query"))
		}
		body := `{"coins": [
			{"id": "bitcoin", "symbol": "btc", "name": "Bitcoin"},
			{"id": "bitcoin-cash", "symbol": "bch", "name": "Bitcoin Cash"}
		]}`
		return jsonResponse(body), nil
	})}

	matches, err := p.SearchCoins(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Symbol != "BTC" {
		t.Fatalf("symbols must be uppercased, got %s", matches[0].Symbol)
	}
}
