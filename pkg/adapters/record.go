package adapters

import (
	"github.com/de-tools/cost-radar/pkg/models/api"
	"github.com/de-tools/cost-radar/pkg/models/domain"
)

func MapDomainIngestSummaryToApi(summary domain.IngestSummary) api.IngestResponse {
	resp := api.IngestResponse{
		Provider:        string(summary.Provider),
		NormalizedCount: summary.NormalizedCount,
		RejectedCount:   summary.RejectedCount,
	}
	for _, record := range summary.Records {
		resp.Records = append(resp.Records, MapDomainCanonicalRecordToApi(record))
	}
	return resp
}

func MapDomainCanonicalRecordToApi(record domain.CanonicalRecord) map[string]any {
	out := map[string]any{
		"resource_id": record.ResourceID,
		"provider":    string(record.Provider),
		"amount":      record.Amount,
		"category":    record.Category,
	}
	if len(record.Metrics) > 0 {
		metrics := make(map[string]any, len(record.Metrics))
		for k, v := range record.Metrics {
			metrics[k] = v
		}
		out["metrics"] = metrics
	}
	return out
}
