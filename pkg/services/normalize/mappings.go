package normalize

import "github.com/de-tools/cost-radar/pkg/models/domain"

// DefaultMappings are the field mapping tables for the built-in providers,
// keyed by the raw vocabulary each source adapter emits. AWS cost comes back
// as a stringified decimal, Azure and GCP as floats, Databricks and
// Snowflake as floats computed in SQL.
func DefaultMappings() map[domain.Provider]FieldMapping {
	return map[domain.Provider]FieldMapping{
		domain.ProviderAWS: {
			ResourceIDKey: "lineItem/ResourceId",
			AmountKey:     "lineItem/UnblendedCost",
			AmountCodec:   AmountString,
			CategoryKey:   "lineItem/ProductCode",
			Categories: map[string]string{
				"Amazon Elastic Compute Cloud - Compute": domain.CategoryCompute,
				"Amazon Simple Storage Service":          domain.CategoryStorage,
				"Amazon Elastic Block Store":             domain.CategoryStorage,
				"Amazon Relational Database Service":     domain.CategoryDatabase,
			},
			DefaultCategory: domain.CategoryOther,
			Metrics: map[string]string{
				"lineItem/UsageAmount":         domain.MetricUsageHours,
				"lineItem/UsageType":           domain.MetricUnitType,
				"enrichment/AttachedTo":        domain.MetricAttachedTo,
				"enrichment/DBInstanceStatus":  "instance_status",
				"metrics/UtilizationPrimary":   domain.MetricUtilizationPrimary,
				"metrics/UtilizationSecondary": domain.MetricUtilizationSecondary,
			},
		},
		domain.ProviderAzure: {
			ResourceIDKey:   "ResourceId",
			AmountKey:       "Cost",
			AmountCodec:     AmountFloat,
			CategoryKey:     "ServiceName",
			Categories:      map[string]string{},
			DefaultCategory: domain.CategoryOther,
			Metrics: map[string]string{
				"MeterCategory": domain.MetricUnitType,
			},
		},
		domain.ProviderGCP: {
			ResourceIDKey:   "resource.name",
			AmountKey:       "cost",
			AmountCodec:     AmountFloat,
			CategoryKey:     "service.description",
			Categories:      map[string]string{},
			DefaultCategory: domain.CategoryOther,
			Metrics: map[string]string{
				"sku.description": domain.MetricUnitType,
				"usage.amount":    domain.MetricUsageHours,
			},
		},
		domain.ProviderDatabricks: {
			ResourceIDKey:   "entity_id",
			AmountKey:       "amount",
			AmountCodec:     AmountFloat,
			CategoryKey:     "sku_name",
			Categories:      map[string]string{},
			DefaultCategory: domain.CategoryCompute,
			Metrics: map[string]string{
				"usage_quantity": domain.MetricUsageHours,
				"rate":           domain.MetricUnitRate,
				"sku_name":       domain.MetricUnitType,
			},
		},
		domain.ProviderSnowflake: {
			ResourceIDKey:   "WAREHOUSE_NAME",
			AmountKey:       "AMOUNT_USD",
			AmountCodec:     AmountFloat,
			DefaultCategory: domain.CategoryCompute,
			Metrics: map[string]string{
				"CREDITS_USED": domain.MetricUsageHours,
			},
		},
	}
}

// GenericMapping accepts records already shaped like the canonical schema,
// as submitted straight to the ingestion entry point.
func GenericMapping() FieldMapping {
	return FieldMapping{
		ResourceIDKey:   "resource_id",
		AmountKey:       "amount",
		AmountCodec:     AmountFloat,
		CategoryKey:     "category",
		Categories:      map[string]string{},
		DefaultCategory: domain.CategoryOther,
		MetricsKey:      "metrics",
	}
}
