package domain

import "encoding/json"

// ReportVersion is the fixed schema version emitted by the synthesizer.
const ReportVersion = "v1"

type KeyLevels struct {
	Support    []float64 `json:"support"`
	Resistance []float64 `json:"resistance"`
}

type IndicatorSignal struct {
	Name   string `json:"name"`
	Value  any    `json:"value,omitempty"`
	Signal string `json:"signal"`
	Note   string `json:"note,omitempty"`
}

type Strategy struct {
	// Entry/stop are pointers: the model may legitimately be unable to
	// determine them, and null must survive round trips.
	EntryPrice *float64 `json:"entry_price"`
	StopLoss   *float64 `json:"stop_loss"`
	Rationale  string   `json:"rationale"`
}

type Reference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Report is the fixed-schema structured output of the report synthesizer.
// TechnicalAnalysis is raw JSON because the model may return either a
// narrative string or a structured breakdown.
type Report struct {
	Version               string            `json:"version"`
	Ticker                string            `json:"ticker"`
	AssetType             AssetType         `json:"asset_type"`
	InvestmentPeriodLevel InvestmentLevel   `json:"investment_period_level"`
	SummaryOutlook        string            `json:"summary_outlook"`
	TechnicalAnalysis     json.RawMessage   `json:"technical_analysis"`
	KeyLevels             KeyLevels         `json:"key_levels"`
	IndicatorsSummary     []IndicatorSignal `json:"indicators_summary"`
	Risks                 []string          `json:"risks"`
	Catalysts             []string          `json:"catalysts"`
	Confidence            float64           `json:"confidence"`
	Strategy              Strategy          `json:"strategy"`
	References            []Reference       `json:"references"`
	Raw                   string            `json:"_raw,omitempty"`
}

// NormalizeReport coerces every optional field of a parsed model response to
// its documented default, so a partial response still yields a structurally
// valid report. Required identity fields fall back to the request.
func NormalizeReport(parsed Report, req AnalysisRequest) Report {
	if parsed.Version == "" {
		parsed.Version = ReportVersion
	}
	if parsed.Ticker == "" {
		parsed.Ticker = req.Ticker
	}
	if !parsed.AssetType.IsValid() {
		parsed.AssetType = req.AssetType
	}
	if !parsed.InvestmentPeriodLevel.IsValid() {
		parsed.InvestmentPeriodLevel = req.InvestmentLevel
	}
	if len(parsed.TechnicalAnalysis) == 0 {
		parsed.TechnicalAnalysis = json.RawMessage(`""`)
	}
	if parsed.KeyLevels.Support == nil {
		parsed.KeyLevels.Support = []float64{}
	}
	if parsed.KeyLevels.Resistance == nil {
		parsed.KeyLevels.Resistance = []float64{}
	}
	if parsed.IndicatorsSummary == nil {
		parsed.IndicatorsSummary = []IndicatorSignal{}
	}
	if parsed.Risks == nil {
		parsed.Risks = []string{}
	}
	if parsed.Catalysts == nil {
		parsed.Catalysts = []string{}
	}
	if parsed.Confidence < 0 {
		parsed.Confidence = 0
	}
	if parsed.Confidence > 100 {
		parsed.Confidence = 100
	}
	if parsed.References == nil {
		parsed.References = []Reference{}
	}
	return parsed
}

// FallbackReport wraps a model response that was present but not parseable.
// The raw text is preserved for diagnostics; the job still completes.
func FallbackReport(req AnalysisRequest, rawText string) Report {
	technical, _ := json.Marshal(rawText)
	r := Report{
		TechnicalAnalysis: technical,
		Raw:               rawText,
	}
	return NormalizeReport(r, req)
}

// ErrorReport describes a report-generation failure as a structurally valid
// report, with the cause in the diagnostic field.
func ErrorReport(req AnalysisRequest, cause string) Report {
	return NormalizeReport(Report{Raw: cause}, req)
}
