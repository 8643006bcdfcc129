package handler

import (
	"context"

	"ticker-sage/internal/auth"
	"ticker-sage/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type AnalysisSubmitter interface {
	Submit(ctx context.Context, userID string, req domain.AnalysisRequest) (*domain.SubmitResult, error)
	Read(ctx context.Context, reportID, userID string) (*domain.AnalysisJob, error)
}

type QuoteReader interface {
	GetQuote(ctx context.Context, asset domain.AssetType, symbol string) (*domain.Quote, error)
}

type StockSearcher interface {
	SearchSymbols(ctx context.Context, query string) ([]domain.SymbolMatch, error)
}

type CryptoSearcher interface {
	SearchCoins(ctx context.Context, query string) ([]domain.CoinMatch, error)
}

type Handler struct {
	tracer   trace.Tracer
	analysis AnalysisSubmitter
	quotes   QuoteReader
	stocks   StockSearcher
	crypto   CryptoSearcher
	verifier auth.TokenVerifier
}

func New(
	tracer trace.Tracer,
	analysis AnalysisSubmitter,
	quotes QuoteReader,
	stocks StockSearcher,
	crypto CryptoSearcher,
	verifier auth.TokenVerifier,
) *Handler {
	return &Handler{
		tracer:   tracer,
		analysis: analysis,
		quotes:   quotes,
		stocks:   stocks,
		crypto:   crypto,
		verifier: verifier,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api", RequireUser(h.verifier))
	api.POST("/analyze", h.Analyze)
	api.GET("/report", h.GetReport)
	api.GET("/price", h.GetPrice)
	api.GET("/search/stocks", h.SearchStocks)
	api.GET("/search/crypto", h.SearchCrypto)
}
