package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticker-sage/internal/analysis"
	"ticker-sage/internal/auth"
	"ticker-sage/internal/bot"
	"ticker-sage/internal/cache"
	"ticker-sage/internal/config"
	"ticker-sage/internal/db"
	"ticker-sage/internal/handler"
	"ticker-sage/internal/job"
	"ticker-sage/internal/provider"
	"ticker-sage/internal/repository"
	"ticker-sage/internal/service"
	"ticker-sage/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "ticker-sage/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newAnalysisRepoFunc    = repository.NewAnalysisRepository
	newReportClientFunc    = newReportClient
	newAnalysisPoolFunc    = job.NewAnalysisPool
	startPoolFunc          = func(p *job.AnalysisPool, ctx context.Context) { go p.Start(ctx) }
	newSweeperFunc         = job.NewPendingSweeper
	startSweeperFunc       = func(s *job.PendingSweeper, ctx context.Context) { go s.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func newReportClient(ctx context.Context, cfg *config.Config, tracer trace.Tracer) (analysis.ReportClient, error) {
	if cfg.ReportProvider == "openai" {
		return provider.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, tracer)
	}
	return provider.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, tracer)
}

// @title           Ticker Sage API
// @version         1.0
// @description     Asynchronous AI investment analysis service.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Create repository and run migrations
	analysisRepo := newAnalysisRepoFunc(db.Pool, tracer)
	if db.Pool != nil {
		if err := analysisRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	// Upstream providers
	alphaVantage := provider.NewAlphaVantageProvider(cfg.AlphaVantageAPIKey, tracer)
	serper := provider.NewSerperProvider(cfg.SerperAPIKey, tracer)
	binance := provider.NewBinanceProvider(tracer)
	coinGecko := provider.NewCoinGeckoProvider(tracer)

	reportClient, err := newReportClientFunc(ctx, cfg, tracer)
	if err != nil {
		log.Fatalf("failed to create report client: %v", err)
	}

	// Pipeline components
	aggregator := analysis.NewAggregator(tracer, alphaVantage, alphaVantage)
	synthesizer := analysis.NewSynthesizer(tracer, reportClient)
	analysisService := service.NewAnalysisService(tracer, analysisRepo, aggregator, serper, synthesizer, cfg.NewsMaxItems)

	// Background pool; the service is its runner and feeds it via Enqueue.
	pool := newAnalysisPoolFunc(tracer, analysisService, cfg.AnalysisWorkers, cfg.AnalysisQueueSize,
		time.Duration(cfg.UpstreamTimeoutSecs)*time.Second)
	analysisService.SetQueue(pool)
	startPoolFunc(pool, ctx)

	if cfg.PendingSweepSecs > 0 && db.Pool != nil {
		sweeper := newSweeperFunc(tracer, analysisRepo, cfg.PendingSweepSecs, cfg.PendingMaxAgeMins)
		startSweeperFunc(sweeper, ctx)
	}

	// Quote service and Telegram bot
	quoteService := service.NewQuoteService(tracer, alphaVantage, binance, cache.Client)
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	startTelegramBotFunc(quoteService)

	// Create handlers and routes
	verifier := auth.NewHTTPVerifier(cfg.AuthUserInfoURL, tracer)
	h := handler.New(tracer, analysisService, quoteService, alphaVantage, coinGecko, verifier)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("ticker-sage"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
