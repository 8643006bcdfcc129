package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"ticker-sage/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type stubSeriesFetcher struct {
	mu      sync.Mutex
	calls   []string
	failFor map[string]error
}

func (s *stubSeriesFetcher) FetchTimeSeries(_ context.Context, symbol string, _ domain.AssetType, timeframe string) (json.RawMessage, error) {
	s.mu.Lock()
	s.calls = append(s.calls, timeframe)
	s.mu.Unlock()
	if err, ok := s.failFor[timeframe]; ok {
		return nil, err
	}
	return json.RawMessage(fmt.Sprintf(`{"symbol":%q,"timeframe":%q}`, symbol, timeframe)), nil
}

type stubIndicatorFetcher struct {
	mu      sync.Mutex
	calls   []string
	failFor map[string]error
}

func (s *stubIndicatorFetcher) FetchIndicator(_ context.Context, symbol string, spec domain.IndicatorSpec) (json.RawMessage, error) {
	s.mu.Lock()
	s.calls = append(s.calls, spec.Name)
	s.mu.Unlock()
	if err, ok := s.failFor[spec.Name]; ok {
		return nil, err
	}
	return json.RawMessage(fmt.Sprintf(`{"symbol":%q,"indicator":%q}`, symbol, spec.Name)), nil
}

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func TestAggregateCoversEverySlot(t *testing.T) {
	series := &stubSeriesFetcher{}
	indicators := &stubIndicatorFetcher{}
	agg := NewAggregator(testTracer(), series, indicators)

	req := domain.AnalysisRequest{Ticker: "AAPL", AssetType: domain.AssetStock, InvestmentLevel: 3}
	result := agg.Aggregate(context.Background(), req)

	if len(result.MarketData) != len(domain.Timeframes) {
		t.Fatalf("expected %d timeframe entries, got %d", len(domain.Timeframes), len(result.MarketData))
	}
	for _, tf := range domain.Timeframes {
		if _, ok := result.MarketData[tf]; !ok {
			t.Errorf("missing market data slot %q", tf)
		}
	}

	if len(result.Indicators) != len(domain.IndicatorSpecs) {
		t.Fatalf("expected %d indicator entries, got %d", len(domain.IndicatorSpecs), len(result.Indicators))
	}
	for _, spec := range domain.IndicatorSpecs {
		if _, ok := result.Indicators[spec.Name]; !ok {
			t.Errorf("missing indicator slot %q", spec.Name)
		}
	}
}

func TestAggregateIsolatesSlotFailures(t *testing.T) {
	series := &stubSeriesFetcher{failFor: map[string]error{
		"1w": fmt.Errorf("alpha vantage API error 503: unavailable"),
	}}
	indicators := &stubIndicatorFetcher{failFor: map[string]error{
		"RSI": fmt.Errorf("rate limit wait: context deadline exceeded"),
	}}
	agg := NewAggregator(testTracer(), series, indicators)

	req := domain.AnalysisRequest{Ticker: "BTC", AssetType: domain.AssetCrypto, InvestmentLevel: 2}
	result := agg.Aggregate(context.Background(), req)

	var failed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(result.MarketData["1w"], &failed); err != nil {
		t.Fatalf("failed slot is not an error payload: %v", err)
	}
	if !strings.Contains(failed.Error, "503") {
		t.Errorf("error payload lost the cause: %q", failed.Error)
	}

	if err := json.Unmarshal(result.Indicators["RSI"], &failed); err != nil {
		t.Fatalf("failed indicator slot is not an error payload: %v", err)
	}
	if failed.Error == "" {
		t.Error("indicator error payload is empty")
	}

	// Every other slot still carries real data.
	for _, tf := range domain.Timeframes {
		if tf == "1w" {
			continue
		}
		if strings.Contains(string(result.MarketData[tf]), `"error"`) {
			t.Errorf("slot %q was contaminated by an unrelated failure", tf)
		}
	}
	for _, spec := range domain.IndicatorSpecs {
		if spec.Name == "RSI" {
			continue
		}
		if strings.Contains(string(result.Indicators[spec.Name]), `"error"`) {
			t.Errorf("indicator %q was contaminated by an unrelated failure", spec.Name)
		}
	}
}

func TestAggregateDeterministicContent(t *testing.T) {
	series := &stubSeriesFetcher{}
	indicators := &stubIndicatorFetcher{}
	agg := NewAggregator(testTracer(), series, indicators)

	req := domain.AnalysisRequest{Ticker: "ETH", AssetType: domain.AssetCrypto, InvestmentLevel: 4}
	first := agg.Aggregate(context.Background(), req)
	second := agg.Aggregate(context.Background(), req)

	for _, tf := range domain.Timeframes {
		if string(first.MarketData[tf]) != string(second.MarketData[tf]) {
			t.Errorf("timeframe %q differs between runs", tf)
		}
	}
	for _, spec := range domain.IndicatorSpecs {
		if string(first.Indicators[spec.Name]) != string(second.Indicators[spec.Name]) {
			t.Errorf("indicator %q differs between runs", spec.Name)
		}
	}
}
