package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"ticker-sage/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const quoteCacheTTL = 60 * time.Second

type StockQuoter interface {
	FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

type CryptoQuoter interface {
	FetchSpotPrice(ctx context.Context, symbol string) (*domain.Quote, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// QuoteService reads spot prices through a short-lived Redis cache, routing
// stocks and crypto to their respective upstream providers.
type QuoteService struct {
	tracer trace.Tracer
	stocks StockQuoter
	crypto CryptoQuoter
	redis  RedisClient
}

func NewQuoteService(tracer trace.Tracer, stocks StockQuoter, crypto CryptoQuoter, redisClient RedisClient) *QuoteService {
	return &QuoteService{
		tracer: tracer,
		stocks: stocks,
		crypto: crypto,
		redis:  redisClient,
	}
}

func (s *QuoteService) GetQuote(ctx context.Context, asset domain.AssetType, symbol string) (*domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "quote-service.get-quote")
	defer span.End()
	span.SetAttributes(
		attribute.String("asset", string(asset)),
		attribute.String("symbol", symbol),
	)

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if !asset.IsValid() {
		return nil, fmt.Errorf("unsupported asset type: %s", asset)
	}

	if s.redis != nil {
		cached, err := s.getQuoteCache(ctx, asset, symbol)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if cached != nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
	}

	var quote *domain.Quote
	var err error
	switch asset {
	case domain.AssetCrypto:
		quote, err = s.crypto.FetchSpotPrice(ctx, symbol)
	default:
		quote, err = s.stocks.FetchQuote(ctx, symbol)
	}
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.setQuoteCache(ctx, asset, symbol, quote); err != nil {
			log.Printf("redis cache write error for %s: %v", symbol, err)
		}
	}
	return quote, nil
}

func quoteCacheKey(asset domain.AssetType, symbol string) string {
	return fmt.Sprintf("quote:%s:%s", asset, symbol)
}

func (s *QuoteService) setQuoteCache(ctx context.Context, asset domain.AssetType, symbol string, quote *domain.Quote) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, quoteCacheKey(asset, symbol), data, quoteCacheTTL).Err()
}

func (s *QuoteService) getQuoteCache(ctx context.Context, asset domain.AssetType, symbol string) (*domain.Quote, error) {
	data, err := s.redis.Get(ctx, quoteCacheKey(asset, symbol)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var quote domain.Quote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}
