package analysis

import (
	"context"
	"encoding/json"
	"sync"

	"ticker-sage/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultFetchConcurrency caps simultaneous upstream calls per job. The
// provider's own rate limiter is the real throttle; this just bounds
// goroutine fan-out.
const defaultFetchConcurrency = 4

type SeriesFetcher interface {
	FetchTimeSeries(ctx context.Context, symbol string, asset domain.AssetType, timeframe string) (json.RawMessage, error)
}

type IndicatorFetcher interface {
	FetchIndicator(ctx context.Context, symbol string, spec domain.IndicatorSpec) (json.RawMessage, error)
}

// Aggregator fans out to the time-series and indicator fetchers across the
// fixed timeframe/indicator sets and merges every outcome into one
// AggregatedData. Each slot is isolated: a failed fetch records an error
// payload under its key and the remaining fetches still run.
type Aggregator struct {
	tracer      trace.Tracer
	series      SeriesFetcher
	indicators  IndicatorFetcher
	concurrency int
}

func NewAggregator(tracer trace.Tracer, series SeriesFetcher, indicators IndicatorFetcher) *Aggregator {
	return &Aggregator{
		tracer:      tracer,
		series:      series,
		indicators:  indicators,
		concurrency: defaultFetchConcurrency,
	}
}

// Aggregate runs every fetch for the request. It never fails as a whole;
// per-slot failures are captured as data.
func (a *Aggregator) Aggregate(ctx context.Context, req domain.AnalysisRequest) domain.AggregatedData {
	ctx, span := a.tracer.Start(ctx, "aggregator.aggregate")
	defer span.End()
	span.SetAttributes(
		attribute.String("ticker", req.Ticker),
		attribute.String("asset_type", string(req.AssetType)),
	)

	result := domain.AggregatedData{
		MarketData: make(map[string]json.RawMessage, len(domain.Timeframes)),
		Indicators: make(map[string]json.RawMessage, len(domain.IndicatorSpecs)),
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, a.concurrency)
	)

	run := func(fetch func() (string, json.RawMessage, error), record map[string]json.RawMessage) {
		defer wg.Done()
		sem <- struct{}{}
		defer func() { <-sem }()

		key, payload, err := fetch()
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			record[key] = domain.ErrorPayload(err.Error())
			return
		}
		record[key] = payload
	}

	for _, tf := range domain.Timeframes {
		tf := tf
		wg.Add(1)
		go run(func() (string, json.RawMessage, error) {
			payload, err := a.series.FetchTimeSeries(ctx, req.Ticker, req.AssetType, tf)
			return tf, payload, err
		}, result.MarketData)
	}

	for _, spec := range domain.IndicatorSpecs {
		spec := spec
		wg.Add(1)
		go run(func() (string, json.RawMessage, error) {
			payload, err := a.indicators.FetchIndicator(ctx, req.Ticker, spec)
			return spec.Name, payload, err
		}, result.Indicators)
	}

	wg.Wait()

	span.SetAttributes(
		attribute.Int("timeframes", len(result.MarketData)),
		attribute.Int("indicators", len(result.Indicators)),
	)
	return result
}
