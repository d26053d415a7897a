package azure

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"

	"github.com/de-tools/cost-radar/pkg/models/domain"
	"github.com/de-tools/cost-radar/pkg/sources"
)

const lookbackDays = 30

type source struct {
	factory *armcostmanagement.ClientFactory
	scope   string
}

// SourceFactory builds the Azure source from the default profile in
// ~/.azure/config; the profile path argument belongs to other providers.
func SourceFactory(ctx context.Context, _ string) (sources.Source, error) {
	cfg, err := LoadConfig(ctx, DefaultProfile)
	if err != nil {
		return nil, fmt.Errorf("failed to load Azure config: %w", err)
	}

	factory, err := armcostmanagement.NewClientFactory(cfg.Credentials, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cost management client: %w", err)
	}

	return &source{
		factory: factory,
		scope:   fmt.Sprintf("/subscriptions/%s", cfg.SubscriptionID),
	}, nil
}

func (s *source) Provider() domain.Provider {
	return domain.ProviderAzure
}

func (s *source) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, sources.DefaultFetchTimeout)
	defer cancel()

	client := s.factory.NewQueryClient()

	timeFrom := time.Now().UTC().AddDate(0, 0, -lookbackDays)
	timeTo := time.Now().UTC()

	exportType := armcostmanagement.ExportTypeActualCost
	granularity := armcostmanagement.GranularityType("None")
	timeframe := armcostmanagement.TimeframeTypeCustom
	dimension := armcostmanagement.QueryColumnTypeDimension
	costSum := armcostmanagement.FunctionTypeSum

	params := armcostmanagement.QueryDefinition{
		Type:      &exportType,
		Timeframe: &timeframe,
		TimePeriod: &armcostmanagement.QueryTimePeriod{
			From: &timeFrom,
			To:   &timeTo,
		},
		Dataset: &armcostmanagement.QueryDataset{
			Granularity: &granularity,
			Aggregation: map[string]*armcostmanagement.QueryAggregation{
				"totalCost": {
					Name:     to.Ptr("Cost"),
					Function: &costSum,
				},
			},
			Grouping: []*armcostmanagement.QueryGrouping{
				{Name: to.Ptr("ResourceId"), Type: &dimension},
				{Name: to.Ptr("ServiceName"), Type: &dimension},
				{Name: to.Ptr("MeterCategory"), Type: &dimension},
			},
		},
	}

	result, err := client.Usage(ctx, s.scope, params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query costs: %w", err)
	}

	var records []domain.RawRecord
	for _, row := range result.Properties.Rows {
		// Columns follow the aggregation + grouping order: cost, then the
		// three grouped dimensions.
		if len(row) < 4 {
			continue
		}

		cost, ok := row[0].(float64)
		if !ok {
			continue
		}

		records = append(records, domain.RawRecord{
			"ResourceId":    fmt.Sprintf("%v", row[1]),
			"ServiceName":   fmt.Sprintf("%v", row[2]),
			"MeterCategory": fmt.Sprintf("%v", row[3]),
			"Cost":          cost,
		})
	}

	return records, nil
}
