package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAnalysisRequestValidate(t *testing.T) {
	valid := AnalysisRequest{Ticker: "AAPL", AssetType: AssetStock, InvestmentLevel: 3}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string]AnalysisRequest{
		"empty ticker":   {Ticker: "  ", AssetType: AssetStock, InvestmentLevel: 3},
		"bad asset type": {Ticker: "AAPL", AssetType: "bond", InvestmentLevel: 3},
		"level too high": {Ticker: "AAPL", AssetType: AssetStock, InvestmentLevel: 7},
		"level zero":     {Ticker: "AAPL", AssetType: AssetStock},
		"missing asset":  {Ticker: "AAPL", InvestmentLevel: 2},
		"negative level": {Ticker: "BTC", AssetType: AssetCrypto, InvestmentLevel: -1},
	}
	for name, req := range cases {
		if err := req.Validate(); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("%s: expected ErrInvalidRequest, got %v", name, err)
		}
	}
}

func TestJobStatusIsTerminal(t *testing.T) {
	if StatusPending.IsTerminal() {
		t.Fatal("pending must not be terminal")
	}
	if !StatusCompleted.IsTerminal() || !StatusFailed.IsTerminal() {
		t.Fatal("completed and failed must be terminal")
	}
}

func TestNormalizeReportFillsDefaults(t *testing.T) {
	req := AnalysisRequest{Ticker: "AAPL", AssetType: AssetStock, InvestmentLevel: 3}

	r := NormalizeReport(Report{}, req)

	if r.Version != ReportVersion {
		t.Fatalf("expected version %s, got %s", ReportVersion, r.Version)
	}
	if r.Ticker != "AAPL" || r.AssetType != AssetStock || r.InvestmentPeriodLevel != 3 {
		t.Fatalf("identity fields not filled from request: %+v", r)
	}
	if string(r.TechnicalAnalysis) != `""` {
		t.Fatalf("expected empty-string technical analysis, got %s", r.TechnicalAnalysis)
	}
	if r.KeyLevels.Support == nil || r.KeyLevels.Resistance == nil {
		t.Fatal("key levels must be non-nil")
	}
	if r.IndicatorsSummary == nil || r.Risks == nil || r.Catalysts == nil || r.References == nil {
		t.Fatal("list fields must be non-nil")
	}
	if r.Confidence != 0 {
		t.Fatalf("expected confidence 0, got %f", r.Confidence)
	}

	// Every required field must serialize to a type-correct value.
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	for _, key := range []string{
		"version", "ticker", "asset_type", "investment_period_level",
		"summary_outlook", "technical_analysis", "key_levels",
		"indicators_summary", "risks", "catalysts", "confidence", "strategy",
		"references",
	} {
		if _, ok := m[key]; !ok {
			t.Fatalf("required field %s missing from serialized report", key)
		}
	}
}

func TestNormalizeReportClampsConfidence(t *testing.T) {
	req := AnalysisRequest{Ticker: "BTC", AssetType: AssetCrypto, InvestmentLevel: 1}
	if r := NormalizeReport(Report{Confidence: 180}, req); r.Confidence != 100 {
		t.Fatalf("expected clamp to 100, got %f", r.Confidence)
	}
	if r := NormalizeReport(Report{Confidence: -5}, req); r.Confidence != 0 {
		t.Fatalf("expected clamp to 0, got %f", r.Confidence)
	}
}

func TestNormalizeReportKeepsParsedValues(t *testing.T) {
	req := AnalysisRequest{Ticker: "AAPL", AssetType: AssetStock, InvestmentLevel: 3}
	entry := 190.5
	parsed := Report{
		Ticker:         "MSFT",
		SummaryOutlook: "긍정적 전망",
		Confidence:     72,
		Strategy:       Strategy{EntryPrice: &entry, Rationale: "지지선 근처 매수"},
		Risks:          []string{"금리 리스크"},
	}

	r := NormalizeReport(parsed, req)
	if r.Ticker != "MSFT" {
		t.Fatalf("parsed ticker must win, got %s", r.Ticker)
	}
	if r.Confidence != 72 || r.SummaryOutlook != "긍정적 전망" {
		t.Fatalf("parsed values lost: %+v", r)
	}
	if r.Strategy.EntryPrice == nil || *r.Strategy.EntryPrice != 190.5 {
		t.Fatalf("entry price lost: %+v", r.Strategy)
	}
	if r.Strategy.StopLoss != nil {
		t.Fatal("absent stop loss must stay null")
	}
}

func TestFallbackReportPreservesRawText(t *testing.T) {
	req := AnalysisRequest{Ticker: "AAPL", AssetType: AssetStock, InvestmentLevel: 3}
	raw := "the model said something that is not JSON"

	r := FallbackReport(req, raw)
	if r.Raw != raw {
		t.Fatalf("raw text not preserved: %q", r.Raw)
	}
	var technical string
	if err := json.Unmarshal(r.TechnicalAnalysis, &technical); err != nil || technical != raw {
		t.Fatalf("technical analysis should carry the raw text, got %s", r.TechnicalAnalysis)
	}
	if r.Confidence != 0 {
		t.Fatalf("fallback confidence must be 0, got %f", r.Confidence)
	}
}

func TestErrorPayload(t *testing.T) {
	var m map[string]string
	if err := json.Unmarshal(ErrorPayload("boom"), &m); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if m["error"] != "boom" {
		t.Fatalf("unexpected payload: %+v", m)
	}
}
