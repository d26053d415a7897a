package api

import "time"

type IngestRequest struct {
	Records []map[string]any `json:"records"`
}

type IngestResponse struct {
	Provider        string           `json:"provider"`
	NormalizedCount int              `json:"normalized_count"`
	RejectedCount   int              `json:"rejected_count"`
	Records         []map[string]any `json:"records,omitempty"`
}

type Opportunity struct {
	Key             string         `json:"key"`
	Kind            string         `json:"kind"`
	ResourceID      string         `json:"resource_id"`
	Provider        string         `json:"provider"`
	CurrentValue    float64        `json:"current_value"`
	EstimatedImpact float64        `json:"estimated_impact"`
	Evidence        map[string]any `json:"evidence,omitempty"`
	PriorityScore   int            `json:"priority_score"`
	RoiPercent      float64        `json:"roi_percent"`
	RoiUnbounded    bool           `json:"roi_unbounded,omitempty"`
	PaybackPeriods  float64        `json:"payback_periods"`
	RiskLevel       string         `json:"risk_level"`
	AssignedOwner   string         `json:"assigned_owner,omitempty"`
	Confidence      float64        `json:"confidence,omitempty"`
	Status          string         `json:"status"`
	SLADeadline     *time.Time     `json:"sla_deadline,omitempty"`
	Overdue         bool           `json:"overdue"`
	Recommendation  string         `json:"recommendation,omitempty"`
}

type Warning struct {
	Provider string `json:"provider"`
	Message  string `json:"message"`
}

type AnalysisResponse struct {
	TotalAmount      float64            `json:"total_amount"`
	PotentialSavings float64            `json:"total_potential_savings"`
	SavingsPercent   float64            `json:"savings_percentage"`
	ByProvider       map[string]float64 `json:"by_provider,omitempty"`
	ByCategory       map[string]float64 `json:"by_category,omitempty"`
	RecordsAnalyzed  int                `json:"records_analyzed"`
	RejectedRecords  int                `json:"rejected_records"`
	Opportunities    []Opportunity      `json:"opportunities"`
	Warnings         []Warning          `json:"warnings,omitempty"`
	AnalyzedAt       time.Time          `json:"analyzed_at"`
}

type StatusRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
}

type AssignRequest struct {
	Owner string `json:"owner,omitempty"`
	Actor string `json:"actor"`
}

type SLAStats struct {
	Total          int     `json:"total"`
	WithDeadline   int     `json:"with_deadline"`
	WithinSLA      int     `json:"within_sla"`
	Overdue        int     `json:"overdue"`
	ComplianceRate float64 `json:"compliance_rate"`
}

type Error struct {
	Error string `json:"error"`
}
