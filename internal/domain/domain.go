package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetCrypto AssetType = "crypto"
)

func (a AssetType) IsValid() bool {
	return a == AssetStock || a == AssetCrypto
}

// InvestmentLevel is a 1..5 ordinal selecting the analysis time horizon.
type InvestmentLevel int

func (l InvestmentLevel) IsValid() bool {
	return l >= 1 && l <= 5
}

// ErrInvalidRequest marks caller-caused validation failures. Handlers map it
// to 400; anything else from Submit is a 500.
var ErrInvalidRequest = errors.New("invalid analysis request")

// ErrReportNotFound covers both a missing report and a report owned by
// another user, so a caller cannot probe for existence.
var ErrReportNotFound = errors.New("report not found")

// AnalysisRequest is the immutable input of one analysis job.
type AnalysisRequest struct {
	Ticker          string          `json:"ticker"`
	AssetType       AssetType       `json:"asset_type"`
	InvestmentLevel InvestmentLevel `json:"investment_level"`
}

func (r AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.Ticker) == "" {
		return fmt.Errorf("%w: ticker is required", ErrInvalidRequest)
	}
	if !r.AssetType.IsValid() {
		return fmt.Errorf("%w: asset_type must be stock or crypto", ErrInvalidRequest)
	}
	if !r.InvestmentLevel.IsValid() {
		return fmt.Errorf("%w: investment_level must be between 1 and 5", ErrInvalidRequest)
	}
	return nil
}

type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// IsTerminal reports whether no further status transition is possible.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Search is the persisted record of a submitted analysis request.
type Search struct {
	ID              string
	UserID          string
	Ticker          string
	AssetType       AssetType
	InvestmentLevel InvestmentLevel
	CreatedAt       time.Time
}

// AnalysisJob is the owner-scoped read projection of an analysis_reports row.
// ReportData is nil until the job reaches a terminal state.
type AnalysisJob struct {
	ID         string          `json:"id"`
	Status     JobStatus       `json:"status"`
	ReportData json.RawMessage `json:"report_data"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// AnalysisTask is the unit of work handed to the background pool.
type AnalysisTask struct {
	ReportID string
	Request  AnalysisRequest
}

type SubmitResult struct {
	SearchID string `json:"search_id"`
	ReportID string `json:"report_id"`
}

// Timeframes is the fixed, ordered fan-out set for time-series fetches.
var Timeframes = []string{"1h", "6h", "12h", "1d", "3d", "1w", "1m", "1y"}

// IndicatorSpec names one technical indicator query with its standard
// parameters. Period 0 means the provider's own default (MACD).
type IndicatorSpec struct {
	Name       string
	Interval   string
	SeriesType string
	Period     int
}

// IndicatorSpecs is the fixed indicator fan-out set.
var IndicatorSpecs = []IndicatorSpec{
	{Name: "BBANDS", Interval: "daily", SeriesType: "close", Period: 20},
	{Name: "RSI", Interval: "daily", SeriesType: "close", Period: 14},
	{Name: "MACD", Interval: "daily", SeriesType: "close"},
	{Name: "SMA", Interval: "daily", SeriesType: "close", Period: 50},
	{Name: "EMA", Interval: "daily", SeriesType: "close", Period: 200},
}

// AggregatedData maps timeframe labels and indicator names to the raw
// provider payload for that slot, or to an ErrorPayload when that single
// fetch failed. One failed slot never discards the others.
type AggregatedData struct {
	MarketData map[string]json.RawMessage `json:"market_data"`
	Indicators map[string]json.RawMessage `json:"indicators"`
}

// ErrorPayload encodes a per-slot upstream failure as data.
func ErrorPayload(msg string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return b
}

type NewsItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet,omitempty"`
	Date    string `json:"date,omitempty"`
	Source  string `json:"source,omitempty"`
}

// AnalysisOutput is the terminal payload persisted for a completed job.
type AnalysisOutput struct {
	Aggregated AggregatedData `json:"aggregated"`
	News       []NewsItem     `json:"news"`
	Report     Report         `json:"report"`
}

// Quote is a spot price read through from an upstream provider.
type Quote struct {
	Asset    AssetType `json:"asset"`
	Symbol   string    `json:"symbol"`
	Price    float64   `json:"price"`
	Currency string    `json:"currency"`
	Time     string    `json:"time"`
	Source   string    `json:"source"`
}

// SymbolMatch is one equity suggestion from symbol search.
type SymbolMatch struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Region     string  `json:"region"`
	Currency   string  `json:"currency"`
	Type       string  `json:"type"`
	MatchScore float64 `json:"matchScore"`
}

// CoinMatch is one crypto suggestion from coin search.
type CoinMatch struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}
