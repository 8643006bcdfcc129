package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"ticker-sage/internal/domain"
)

func newTestSerper(rt roundTripFunc) *SerperProvider {
	p := NewSerperProvider("serper-key", testTracer)
	p.client = &http.Client{Transport: rt}
	return p
}

func TestFetchNewsPostsQuery(t *testing.T) {
	t.Parallel()

	p := newTestSerper(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", req.Method)
		}
		if req.Header.Get("X-API-KEY") != "serper-key" {
			t.Fatal("credential header not set")
		}
		var payload struct {
			Q   string `json:"q"`
			Num int    `json:"num"`
		}
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("request body is not JSON: %v", err)
		}
		if payload.Q != "AAPL" || payload.Num != 5 {
			t.Fatalf("unexpected payload: %+v", payload)
		}
		resp := `{"news": [
			{"title": "Apple hits record", "link": "https://example.com/1", "snippet": "up", "date": "1 hour ago", "source": "Example"},
			{"title": "Second story", "link": "https://example.com/2"}
		]}`
		return jsonResponse(resp), nil
	})

	news, err := p.FetchNews(context.Background(), "AAPL", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(news) != 2 || news[0].Title != "Apple hits record" {
		t.Fatalf("unexpected news: %+v", news)
	}
}

func TestFetchNewsTruncates(t *testing.T) {
	t.Parallel()

	p := newTestSerper(func(req *http.Request) (*http.Response, error) {
		items := make([]domain.NewsItem, 8)
		for i := range items {
			items[i] = domain.NewsItem{Title: "story"}
		}
		body, _ := json.Marshal(map[string]any{"news": items})
		return jsonResponse(string(body)), nil
	})

	news, err := p.FetchNews(context.Background(), "BTC", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(news) != 3 {
		t.Fatalf("expected 3 items after truncation, got %d", len(news))
	}
}

func TestFetchNewsMissingCredential(t *testing.T) {
	t.Parallel()

	p := NewSerperProvider("", testTracer)
	if _, err := p.FetchNews(context.Background(), "AAPL", 5); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestFetchNewsErrorStatus(t *testing.T) {
	t.Parallel()

	p := newTestSerper(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusForbidden,
			Body:       io.NopCloser(bytes.NewBufferString(`{"message": "invalid key"}`)),
			Header:     make(http.Header),
		}, nil
	})

	if _, err := p.FetchNews(context.Background(), "AAPL", 5); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
