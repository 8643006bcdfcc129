package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ticker-sage/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// narrativeLanguage fixes the language of every narrative field in the
// generated report. Product decision, not a per-caller branch.
const narrativeLanguage = "KOREAN (한국어)"

// Payload caps keep the prompt under the model's context limit even when
// every timeframe returns a full series.
const (
	maxMarketDataBytes = 250000
	maxNewsBytes       = 80000
)

// ReportClient abstracts the report-generating model call for testability.
type ReportClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Synthesizer turns aggregated market data plus news into a fixed-schema
// report via the report-generation client.
type Synthesizer struct {
	tracer trace.Tracer
	llm    ReportClient
}

func NewSynthesizer(tracer trace.Tracer, llm ReportClient) *Synthesizer {
	return &Synthesizer{tracer: tracer, llm: llm}
}

// Synthesize calls the model and normalizes its answer into a complete
// Report. A present-but-malformed answer degrades to a fallback report and
// a nil error; a client failure returns an error-carrying report plus the
// error, which the job lifecycle records as a failed job.
func (s *Synthesizer) Synthesize(ctx context.Context, req domain.AnalysisRequest, aggregated domain.AggregatedData, news []domain.NewsItem) (domain.Report, error) {
	ctx, span := s.tracer.Start(ctx, "synthesizer.synthesize")
	defer span.End()
	span.SetAttributes(
		attribute.String("ticker", req.Ticker),
		attribute.Int("news_items", len(news)),
	)

	prompt := buildPrompt(req, aggregated, news)

	text, err := s.llm.GenerateText(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		cause := fmt.Sprintf("report generation failed: %v", err)
		return domain.ErrorReport(req, cause), fmt.Errorf("report generation: %w", err)
	}

	var parsed domain.Report
	if jsonErr := json.Unmarshal([]byte(stripCodeFence(text)), &parsed); jsonErr != nil {
		span.SetAttributes(attribute.Bool("report.fallback", true))
		return domain.FallbackReport(req, text), nil
	}

	return domain.NormalizeReport(parsed, req), nil
}

const reportSchemaInstructions = `You are an expert investment analyst. Analyze multi-timeframe market data, technical indicators (BBANDS, RSI, MACD, MAs), and recent news to produce a comprehensive investment report.

IMPORTANT LANGUAGE REQUIREMENT: Write all narrative text in ` + narrativeLanguage + `. This includes summary_outlook, technical_analysis (if string), strategy.rationale, risks, catalysts, and any other natural language fields. Keep the JSON KEYS in English exactly as defined below. Use USD for monetary values (do not add currency symbols in JSON values).

Return STRICT JSON that matches exactly this schema (no extra keys, no markdown, no prose outside JSON):
{
  "version": "v1",
  "ticker": string,
  "asset_type": "stock" | "crypto",
  "investment_period_level": 1 | 2 | 3 | 4 | 5,
  "summary_outlook": string,
  "technical_analysis": string | object,
  "key_levels": { "support": number[], "resistance": number[] },
  "indicators_summary": Array<{ "name": string, "value"?: string | number | null, "signal": "bullish" | "bearish" | "neutral", "note"?: string }>,
  "risks": string[],
  "catalysts": string[],
  "confidence": number,
  "strategy": { "entry_price": number | null, "stop_loss": number | null, "rationale": string },
  "references"?: Array<{ "title": string, "url": string }>,
  "_raw"?: string
}`

func buildPrompt(req domain.AnalysisRequest, aggregated domain.AggregatedData, news []domain.NewsItem) string {
	marketJSON, _ := json.Marshal(aggregated)
	newsJSON, _ := json.Marshal(news)

	parts := []string{
		reportSchemaInstructions,
		fmt.Sprintf("Ticker: %s (Asset: %s, InvestmentLevel: %d)", req.Ticker, req.AssetType, req.InvestmentLevel),
		fmt.Sprintf("MarketData(JSON): %s", truncate(string(marketJSON), maxMarketDataBytes)),
		fmt.Sprintf("News(JSON): %s", truncate(string(newsJSON), maxNewsBytes)),
		"Return ONLY the JSON with the exact schema. Do not include code fences. Remember: narrative text must be in Korean.",
	}
	return strings.Join(parts, "\n\n")
}

// stripCodeFence removes a wrapping markdown code fence, with or without a
// language tag, before JSON parsing.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if rest, ok := cutPrefixFold(s, "json"); ok {
		s = rest
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
