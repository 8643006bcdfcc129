package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"ticker-sage/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type AnalysisStore interface {
	CreateSearch(ctx context.Context, userID string, req domain.AnalysisRequest) (string, error)
	CreateReport(ctx context.Context, searchID string) (string, error)
	CompleteReport(ctx context.Context, reportID string, data json.RawMessage) error
	FailReport(ctx context.Context, reportID, message string) error
	GetReportForUser(ctx context.Context, reportID, userID string) (*domain.AnalysisJob, error)
}

type Aggregator interface {
	Aggregate(ctx context.Context, req domain.AnalysisRequest) domain.AggregatedData
}

type NewsFetcher interface {
	FetchNews(ctx context.Context, query string, num int) ([]domain.NewsItem, error)
}

type ReportSynthesizer interface {
	Synthesize(ctx context.Context, req domain.AnalysisRequest, aggregated domain.AggregatedData, news []domain.NewsItem) (domain.Report, error)
}

// TaskQueue hands an accepted task to the background pool. Set after
// construction because the pool needs the service as its runner.
type TaskQueue interface {
	Enqueue(task domain.AnalysisTask) error
}

// AnalysisService owns the analysis job lifecycle: accept and persist the
// request, run the pipeline in the background, and expose the owner-scoped
// read. Every job leaves pending exactly once.
type AnalysisService struct {
	tracer      trace.Tracer
	store       AnalysisStore
	aggregator  Aggregator
	news        NewsFetcher
	synthesizer ReportSynthesizer
	queue       TaskQueue
	newsItems   int
}

func NewAnalysisService(
	tracer trace.Tracer,
	store AnalysisStore,
	aggregator Aggregator,
	news NewsFetcher,
	synthesizer ReportSynthesizer,
	newsItems int,
) *AnalysisService {
	return &AnalysisService{
		tracer:      tracer,
		store:       store,
		aggregator:  aggregator,
		news:        news,
		synthesizer: synthesizer,
		newsItems:   newsItems,
	}
}

// SetQueue wires the background pool in after both sides exist.
func (s *AnalysisService) SetQueue(queue TaskQueue) {
	s.queue = queue
}

// Submit validates the request, persists the search and its pending report,
// and enqueues the background task. Nothing is persisted for an invalid
// request. If the queue is full the report is failed immediately rather than
// left pending forever.
func (s *AnalysisService) Submit(ctx context.Context, userID string, req domain.AnalysisRequest) (*domain.SubmitResult, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("ticker", req.Ticker),
		attribute.String("asset_type", string(req.AssetType)),
	)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	searchID, err := s.store.CreateSearch(ctx, userID, req)
	if err != nil {
		return nil, fmt.Errorf("create search: %w", err)
	}

	reportID, err := s.store.CreateReport(ctx, searchID)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	if err := s.queue.Enqueue(domain.AnalysisTask{ReportID: reportID, Request: req}); err != nil {
		log.Printf("enqueue analysis %s: %v", reportID, err)
		if failErr := s.store.FailReport(ctx, reportID, "analysis could not be scheduled: "+err.Error()); failErr != nil {
			log.Printf("fail report %s after enqueue rejection: %v", reportID, failErr)
		}
		return nil, fmt.Errorf("enqueue analysis: %w", err)
	}

	return &domain.SubmitResult{SearchID: searchID, ReportID: reportID}, nil
}

// Process runs one analysis task end to end and writes the terminal state.
// Called from pool workers, never from a request handler.
func (s *AnalysisService) Process(ctx context.Context, task domain.AnalysisTask) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.process")
	defer span.End()
	span.SetAttributes(
		attribute.String("report_id", task.ReportID),
		attribute.String("ticker", task.Request.Ticker),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic processing analysis %s: %v", task.ReportID, r)
			if err := s.store.FailReport(ctx, task.ReportID, fmt.Sprintf("internal error: %v", r)); err != nil {
				log.Printf("fail report %s after panic: %v", task.ReportID, err)
			}
		}
	}()

	aggregated := s.aggregator.Aggregate(ctx, task.Request)

	news, err := s.news.FetchNews(ctx, task.Request.Ticker, s.newsItems)
	if err != nil {
		// News is best-effort; the failure travels in the payload.
		log.Printf("news fetch for %s: %v", task.Request.Ticker, err)
		news = []domain.NewsItem{{Title: "news unavailable", Snippet: err.Error()}}
	}

	report, err := s.synthesizer.Synthesize(ctx, task.Request, aggregated, news)
	if err != nil {
		span.RecordError(err)
		if failErr := s.store.FailReport(ctx, task.ReportID, err.Error()); failErr != nil {
			log.Printf("fail report %s: %v", task.ReportID, failErr)
		}
		return
	}

	output := domain.AnalysisOutput{Aggregated: aggregated, News: news, Report: report}
	data, marshalErr := json.Marshal(output)
	if marshalErr != nil {
		if failErr := s.store.FailReport(ctx, task.ReportID, "encode analysis output: "+marshalErr.Error()); failErr != nil {
			log.Printf("fail report %s: %v", task.ReportID, failErr)
		}
		return
	}

	if err := s.store.CompleteReport(ctx, task.ReportID, data); err != nil {
		// The report may already be terminal (e.g. swept as stale); the
		// first writer wins and this attempt is only logged.
		log.Printf("complete report %s: %v", task.ReportID, err)
	}
}

// Read returns one report scoped to its owner. Missing and not-owned are the
// same domain.ErrReportNotFound.
func (s *AnalysisService) Read(ctx context.Context, reportID, userID string) (*domain.AnalysisJob, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.read")
	defer span.End()
	span.SetAttributes(attribute.String("report_id", reportID))

	return s.store.GetReportForUser(ctx, reportID, userID)
}
