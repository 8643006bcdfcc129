package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"ticker-sage/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const binanceBaseURL = "https://api.binance.com/api/v3"

// BinanceProvider fetches crypto spot prices from the public Binance API.
// Prices are quoted against USDT and reported as USD.
type BinanceProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewBinanceProvider(tracer trace.Tracer) *BinanceProvider {
	return &BinanceProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: binanceBaseURL,
		tracer:  tracer,
	}
}

func (p *BinanceProvider) FetchSpotPrice(ctx context.Context, symbol string) (*domain.Quote, error) {
	_, span := p.tracer.Start(ctx, "binance.fetch-spot-price")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	pair := symbol + "USDT"
	url := fmt.Sprintf("%s/ticker/price?symbol=%s", p.baseURL, pair)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
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
		return nil, fmt.Errorf("binance API error %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse spot price for %s: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(raw.Price, 64)
	if err != nil || !isFinite(price) {
		return nil, fmt.Errorf("no price from Binance for %s", symbol)
	}

	return &domain.Quote{
		Asset:    domain.AssetCrypto,
		Symbol:   symbol,
		Price:    price,
		Currency: "USD",
		Time:     time.Now().UTC().Format(time.RFC3339),
		Source:   "binance_ticker_USDT",
	}, nil
}
