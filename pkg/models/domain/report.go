package domain

import "time"

// IngestSummary is the result of normalizing one provider's raw batch.
type IngestSummary struct {
	Provider        Provider
	NormalizedCount int
	RejectedCount   int
	Records         []CanonicalRecord
}

// Warning describes a contained, non-fatal failure during a batch run.
type Warning struct {
	Provider Provider
	Message  string
}

// AnalysisReport is what the analysis entry point always returns, even when
// some providers failed. Opportunities are ranked by the scorer's total
// order.
type AnalysisReport struct {
	TotalAmount      float64
	PotentialSavings float64
	SavingsPercent   float64
	ByProvider       map[Provider]float64
	ByCategory       map[string]float64
	RecordsAnalyzed  int
	RejectedRecords  int
	Opportunities    []ScoredOpportunity
	Warnings         []Warning
	AnalyzedAt       time.Time
}

// SLAStats summarizes deadline compliance across tracked opportunities.
type SLAStats struct {
	Total          int
	WithDeadline   int
	WithinSLA      int
	Overdue        int
	ComplianceRate float64 // percent of deadline-carrying opportunities within SLA
}
