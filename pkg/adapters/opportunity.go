package adapters

import (
	"maps"
	"time"

	"github.com/de-tools/cost-radar/pkg/models/api"
	"github.com/de-tools/cost-radar/pkg/models/domain"
	"github.com/de-tools/cost-radar/pkg/models/store"
)

func MapDomainOpportunityToStore(o domain.ScoredOpportunity) store.Opportunity {
	return store.Opportunity{
		Key:             o.Key(),
		Kind:            string(o.Kind),
		ResourceID:      o.ResourceID,
		Provider:        string(o.Provider),
		CurrentValue:    o.CurrentValue,
		EstimatedImpact: o.EstimatedImpact,
		Evidence:        maps.Clone(o.Evidence),
		PriorityScore:   o.PriorityScore,
		RoiPercent:      o.RoiPercent,
		RoiUnbounded:    o.RoiUnbounded,
		PaybackPeriods:  o.PaybackPeriods,
		RiskLevel:       string(o.RiskLevel),
		AssignedOwner:   o.AssignedOwner,
		Confidence:      o.Confidence,
		Status:          string(o.Status),
		SLADeadline:     o.SLADeadline,
		Version:         o.Version,
	}
}

func MapStoreOpportunityToDomain(row store.Opportunity) domain.ScoredOpportunity {
	return domain.ScoredOpportunity{
		Candidate: domain.Candidate{
			Kind:            domain.Kind(row.Kind),
			ResourceID:      row.ResourceID,
			Provider:        domain.Provider(row.Provider),
			CurrentValue:    row.CurrentValue,
			EstimatedImpact: row.EstimatedImpact,
			Evidence:        maps.Clone(row.Evidence),
		},
		PriorityScore:  row.PriorityScore,
		RoiPercent:     row.RoiPercent,
		RoiUnbounded:   row.RoiUnbounded,
		PaybackPeriods: row.PaybackPeriods,
		RiskLevel:      domain.RiskLevel(row.RiskLevel),
		AssignedOwner:  row.AssignedOwner,
		Confidence:     row.Confidence,
		Status:         domain.Status(row.Status),
		SLADeadline:    row.SLADeadline,
		Version:        row.Version,
	}
}

func MapDomainOpportunityToApi(o domain.ScoredOpportunity, now time.Time) api.Opportunity {
	return api.Opportunity{
		Key:             o.Key(),
		Kind:            string(o.Kind),
		ResourceID:      o.ResourceID,
		Provider:        string(o.Provider),
		CurrentValue:    o.CurrentValue,
		EstimatedImpact: o.EstimatedImpact,
		Evidence:        maps.Clone(o.Evidence),
		PriorityScore:   o.PriorityScore,
		RoiPercent:      o.RoiPercent,
		RoiUnbounded:    o.RoiUnbounded,
		PaybackPeriods:  o.PaybackPeriods,
		RiskLevel:       string(o.RiskLevel),
		AssignedOwner:   o.AssignedOwner,
		Confidence:      o.Confidence,
		Status:          string(o.Status),
		SLADeadline:     o.SLADeadline,
		Overdue:         o.Overdue(now),
	}
}

func MapDomainReportToApi(report domain.AnalysisReport, now time.Time) api.AnalysisResponse {
	resp := api.AnalysisResponse{
		TotalAmount:      report.TotalAmount,
		PotentialSavings: report.PotentialSavings,
		SavingsPercent:   report.SavingsPercent,
		RecordsAnalyzed:  report.RecordsAnalyzed,
		RejectedRecords:  report.RejectedRecords,
		Opportunities:    []api.Opportunity{},
		AnalyzedAt:       report.AnalyzedAt,
	}

	if len(report.ByProvider) > 0 {
		resp.ByProvider = make(map[string]float64, len(report.ByProvider))
		for provider, amount := range report.ByProvider {
			resp.ByProvider[string(provider)] = amount
		}
	}
	if len(report.ByCategory) > 0 {
		resp.ByCategory = maps.Clone(report.ByCategory)
	}
	for _, o := range report.Opportunities {
		resp.Opportunities = append(resp.Opportunities, MapDomainOpportunityToApi(o, now))
	}
	for _, w := range report.Warnings {
		resp.Warnings = append(resp.Warnings, api.Warning{
			Provider: string(w.Provider),
			Message:  w.Message,
		})
	}

	return resp
}

func MapDomainSLAStatsToApi(stats domain.SLAStats) api.SLAStats {
	return api.SLAStats{
		Total:          stats.Total,
		WithDeadline:   stats.WithDeadline,
		WithinSLA:      stats.WithinSLA,
		Overdue:        stats.Overdue,
		ComplianceRate: stats.ComplianceRate,
	}
}
