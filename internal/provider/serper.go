package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ticker-sage/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serperNewsURL = "https://google.serper.dev/news"

// SerperProvider fetches recent news headlines from the Serper search API.
type SerperProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
}

func NewSerperProvider(apiKey string, tracer trace.Tracer) *SerperProvider {
	return &SerperProvider{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: serperNewsURL,
		apiKey:  apiKey,
		tracer:  tracer,
	}
}

// FetchNews returns up to num news items for the query. Fails fast when the
// credential is absent.
func (p *SerperProvider) FetchNews(ctx context.Context, query string, num int) ([]domain.NewsItem, error) {
	_, span := p.tracer.Start(ctx, "serper.fetch-news")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	if p.apiKey == "" {
		return nil, fmt.Errorf("SERPER_API_KEY is not configured")
	}
	if num <= 0 {
		num = 10
	}

	payload, err := json.Marshal(map[string]any{"q": query, "num": num})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("serper API error %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var raw struct {
		News []domain.NewsItem `json:"news"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse news for %q: %w", query, err)
	}

	if len(raw.News) > num {
		raw.News = raw.News[:num]
	}
	return raw.News, nil
}
