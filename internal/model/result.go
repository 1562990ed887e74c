package model

import (
	"encoding/json"
	"time"
)

// AlignmentResult records, for the finished-export vs global-demand
// comparison, the years both datasets cover and the years only one side
// covers. Excluded years are reported for display; metrics never use them.
type AlignmentResult struct {
	AlignedYears []int `json:"aligned_years"`
	DomesticOnly []int `json:"domestic_only"`
	GlobalOnly   []int `json:"global_only"`
}

// StageMetrics holds the aggregate value and growth trend for one stage.
type StageMetrics struct {
	TotalValue float64 `json:"total_value"`
	CAGRPct    float64 `json:"cagr_pct"`
}

// Verdict is a human-oriented reading of the analysis numbers.
type Verdict struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// AnalysisSummary is the output of the year-alignment analyzer: per-stage
// totals and trends plus the aligned-window market gap.
type AnalysisSummary struct {
	Raw          StageMetrics    `json:"raw_export"`
	Semi         StageMetrics    `json:"semi_export"`
	Finished     StageMetrics    `json:"finished_export"`
	GlobalDemand StageMetrics    `json:"global_demand"`
	MarketGap    float64         `json:"market_gap"`
	Alignment    AlignmentResult `json:"alignment"`
	Verdict      Verdict         `json:"verdict"`
}

// ProtocolDatasets holds the four series collected by one protocol run, in
// collection order.
type ProtocolDatasets struct {
	RawExport            Dataset `json:"raw_export"`
	SemiExport           Dataset `json:"semi_export"`
	FinishedExport       Dataset `json:"finished_export"`
	GlobalFinishedImport Dataset `json:"global_finished_import"`
}

// ProtocolResult is the full outcome of a four-stage protocol run.
type ProtocolResult struct {
	RawCode      string           `json:"raw_hs_code"`
	SemiCode     string           `json:"semi_hs_code,omitempty"`
	FinishedCode string           `json:"finished_hs_code"`
	Years        []int            `json:"years"`
	Datasets     ProtocolDatasets `json:"datasets"`
	Analysis     AnalysisSummary  `json:"analysis"`
}

// SearchRecord persists one classified commodity search.
type SearchRecord struct {
	ID             string          `json:"id"`
	Input          string          `json:"input"`
	Commodity      string          `json:"commodity"`
	RawCode        string          `json:"raw_hs_code"`
	SemiCode       string          `json:"semi_hs_code"`
	FinishedCode   string          `json:"finished_hs_code"`
	Classification json.RawMessage `json:"classification"`
	CreatedAt      time.Time       `json:"created_at"`
}

// AnalysisRecord persists one completed analysis with its narrative summary.
type AnalysisRecord struct {
	ID           string          `json:"id"`
	Commodity    string          `json:"commodity"`
	RawCode      string          `json:"raw_hs_code"`
	SemiCode     string          `json:"semi_hs_code"`
	FinishedCode string          `json:"finished_hs_code"`
	Summary      json.RawMessage `json:"summary"`
	Narrative    string          `json:"narrative"`
	CreatedAt    time.Time       `json:"created_at"`
}
