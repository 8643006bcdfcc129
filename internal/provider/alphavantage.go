package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ticker-sage/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantageProvider fetches time-series, indicator, quote, and symbol
// search data from the Alpha Vantage API.
type AlphaVantageProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewAlphaVantageProvider creates a provider with built-in rate limiting
// sized for the free tier (5 requests per minute).
func NewAlphaVantageProvider(apiKey string, tracer trace.Tracer) *AlphaVantageProvider {
	return &AlphaVantageProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: alphaVantageBaseURL,
		apiKey:  apiKey,
		tracer:  tracer,
		limiter: NewRateLimiter(5, 12*time.Second),
	}
}

type seriesQuery struct {
	function string
	interval string
}

// timeframeQuery maps a timeframe label to the provider function/interval
// pair for the asset kind. Total over both closed sets: intraday windows use
// the 60min intraday endpoints, everything longer uses the daily series.
func timeframeQuery(timeframe string, asset domain.AssetType) seriesQuery {
	intraday := timeframe == "1h" || timeframe == "6h" || timeframe == "12h"
	if asset == domain.AssetCrypto {
		if intraday {
			return seriesQuery{function: "CRYPTO_INTRADAY", interval: "60min"}
		}
		return seriesQuery{function: "DIGITAL_CURRENCY_DAILY"}
	}
	if intraday {
		return seriesQuery{function: "TIME_SERIES_INTRADAY", interval: "60min"}
	}
	return seriesQuery{function: "TIME_SERIES_DAILY_ADJUSTED"}
}

// FetchTimeSeries fetches raw series data for one (symbol, asset, timeframe)
// slot. The payload is kept provider-shaped; the aggregator stores it as-is.
func (p *AlphaVantageProvider) FetchTimeSeries(ctx context.Context, symbol string, asset domain.AssetType, timeframe string) (json.RawMessage, error) {
	_, span := p.tracer.Start(ctx, "alphavantage.fetch-time-series")
	defer span.End()
	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.String("timeframe", timeframe),
	)

	q := timeframeQuery(timeframe, asset)
	params := url.Values{}
	params.Set("function", q.function)
	params.Set("symbol", symbol)
	if asset == domain.AssetCrypto {
		params.Set("market", "USD")
	}
	if q.interval != "" {
		params.Set("interval", q.interval)
	}

	body, err := p.doRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetch time series %s/%s: %w", symbol, timeframe, err)
	}
	return body, nil
}

// FetchIndicator fetches raw data for one technical indicator.
func (p *AlphaVantageProvider) FetchIndicator(ctx context.Context, symbol string, spec domain.IndicatorSpec) (json.RawMessage, error) {
	_, span := p.tracer.Start(ctx, "alphavantage.fetch-indicator")
	defer span.End()
	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.String("indicator", spec.Name),
	)

	params := url.Values{}
	params.Set("function", spec.Name)
	params.Set("symbol", symbol)
	if spec.Interval != "" {
		params.Set("interval", spec.Interval)
	}
	if spec.SeriesType != "" {
		params.Set("series_type", spec.SeriesType)
	}
	if spec.Period > 0 {
		params.Set("time_period", strconv.Itoa(spec.Period))
	}

	body, err := p.doRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetch indicator %s for %s: %w", spec.Name, symbol, err)
	}
	return body, nil
}

// FetchQuote returns the latest stock quote via GLOBAL_QUOTE, parsed
// explicitly: a response without a usable price is an error, not a default.
func (p *AlphaVantageProvider) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	_, span := p.tracer.Start(ctx, "alphavantage.fetch-quote")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)

	body, err := p.doRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetch quote for %s: %w", symbol, err)
	}

	var raw struct {
		GlobalQuote struct {
			Price            string `json:"05. price"`
			LatestTradingDay string `json:"07. latest trading day"`
		} `json:"Global Quote"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse quote for %s: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(raw.GlobalQuote.Price, 64)
	if err != nil || !isFinite(price) {
		return nil, fmt.Errorf("no price from Alpha Vantage for %s", symbol)
	}

	ts := raw.GlobalQuote.LatestTradingDay
	if ts == "" {
		ts = time.Now().UTC().Format("2006-01-02")
	}

	return &domain.Quote{
		Asset:    domain.AssetStock,
		Symbol:   symbol,
		Price:    price,
		Currency: "USD",
		Time:     ts,
		Source:   "alpha_vantage_global_quote",
	}, nil
}

// SearchSymbols returns equity suggestions for a query via SYMBOL_SEARCH,
// sorted by the provider's match score.
func (p *AlphaVantageProvider) SearchSymbols(ctx context.Context, query string) ([]domain.SymbolMatch, error) {
	_, span := p.tracer.Start(ctx, "alphavantage.search-symbols")
	defer span.End()

	params := url.Values{}
	params.Set("function", "SYMBOL_SEARCH")
	params.Set("keywords", query)

	body, err := p.doRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("symbol search %q: %w", query, err)
	}

	var raw struct {
		BestMatches []map[string]string `json:"bestMatches"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse symbol search %q: %w", query, err)
	}

	matches := make([]domain.SymbolMatch, 0, len(raw.BestMatches))
	for _, m := range raw.BestMatches {
		score, _ := strconv.ParseFloat(m["9. matchScore"], 64)
		matches = append(matches, domain.SymbolMatch{
			Symbol:     m["1. symbol"],
			Name:       m["2. name"],
			Type:       m["3. type"],
			Region:     m["4. region"],
			Currency:   m["8. currency"],
			MatchScore: score,
		})
	}
	return matches, nil
}

func (p *AlphaVantageProvider) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("ALPHA_VANTAGE_API_KEY is not configured")
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params.Set("apikey", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("alpha vantage API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
