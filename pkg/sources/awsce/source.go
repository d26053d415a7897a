package awsce

import (
	"context"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/rs/zerolog"

	"github.com/de-tools/cost-radar/pkg/models/domain"
	"github.com/de-tools/cost-radar/pkg/sources"
)

const lookbackDays = 30

// source pulls resource-level billing line items from Cost Explorer and
// annotates them with inventory facts (volume attachments from EC2, instance
// status from RDS) that the detector rules use as evidence.
type source struct {
	ce  *costexplorer.Client
	ec2 *ec2.Client
	rds *rds.Client
}

// SourceFactory builds the AWS source. Credentials and the shared-config
// profile are resolved by the SDK's default chain (AWS_PROFILE, env keys,
// instance role); the profile path argument belongs to other providers.
func SourceFactory(ctx context.Context, _ string) (sources.Source, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	return &source{
		ce:  costexplorer.NewFromConfig(cfg),
		ec2: ec2.NewFromConfig(cfg),
		rds: rds.NewFromConfig(cfg),
	}, nil
}

func (s *source) Provider() domain.Provider {
	return domain.ProviderAWS
}

func (s *source) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, sources.DefaultFetchTimeout)
	defer cancel()

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -lookbackDays)

	input := &costexplorer.GetCostAndUsageWithResourcesInput{
		TimePeriod: &cetypes.DateInterval{
			Start: awssdk.String(start.Format("2006-01-02")),
			End:   awssdk.String(end.Format("2006-01-02")),
		},
		Granularity: cetypes.GranularityMonthly,
		Metrics:     []string{"UnblendedCost", "UsageQuantity"},
		Filter: &cetypes.Expression{
			Not: &cetypes.Expression{
				Dimensions: &cetypes.DimensionValues{
					Key:    cetypes.DimensionRecordType,
					Values: []string{"Credit", "Refund"},
				},
			},
		},
		GroupBy: []cetypes.GroupDefinition{
			{
				Type: cetypes.GroupDefinitionTypeDimension,
				Key:  awssdk.String("RESOURCE_ID"),
			},
			{
				Type: cetypes.GroupDefinitionTypeDimension,
				Key:  awssdk.String("SERVICE"),
			},
		},
	}

	result, err := s.ce.GetCostAndUsageWithResources(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get cost and usage: %w", err)
	}

	attachments := s.volumeAttachments(ctx)
	dbStatuses := s.dbInstanceStatuses(ctx)

	var records []domain.RawRecord
	for _, period := range result.ResultsByTime {
		for _, group := range period.Groups {
			if len(group.Keys) < 2 {
				continue
			}
			resourceID := group.Keys[0]
			service := group.Keys[1]

			record := domain.RawRecord{
				"lineItem/ResourceId":  resourceID,
				"lineItem/ProductCode": service,
			}
			if cost, ok := group.Metrics["UnblendedCost"]; ok && cost.Amount != nil {
				record["lineItem/UnblendedCost"] = awssdk.ToString(cost.Amount)
			}
			if usage, ok := group.Metrics["UsageQuantity"]; ok && usage.Amount != nil {
				record["lineItem/UsageAmount"] = awssdk.ToString(usage.Amount)
			}
			if instance, ok := attachments[resourceID]; ok {
				record["enrichment/AttachedTo"] = instance
			}
			if status, ok := dbStatuses[resourceID]; ok {
				record["enrichment/DBInstanceStatus"] = status
			}

			records = append(records, record)
		}
	}

	return records, nil
}

// volumeAttachments maps EBS volume ids to the instance they are attached
// to. Unattached volumes are absent from the map, which is exactly the
// signal the unattached-asset rule needs.
func (s *source) volumeAttachments(ctx context.Context) map[string]string {
	logger := zerolog.Ctx(ctx)

	attachments := make(map[string]string)
	paginator := ec2.NewDescribeVolumesPaginator(s.ec2, &ec2.DescribeVolumesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to describe EBS volumes, skipping attachment enrichment")
			return attachments
		}
		for _, volume := range page.Volumes {
			id := awssdk.ToString(volume.VolumeId)
			for _, att := range volume.Attachments {
				if instance := awssdk.ToString(att.InstanceId); instance != "" {
					attachments[id] = instance
				}
			}
		}
	}
	return attachments
}

func (s *source) dbInstanceStatuses(ctx context.Context) map[string]string {
	logger := zerolog.Ctx(ctx)

	statuses := make(map[string]string)
	paginator := rds.NewDescribeDBInstancesPaginator(s.rds, &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to describe RDS instances, skipping status enrichment")
			return statuses
		}
		for _, instance := range page.DBInstances {
			statuses[awssdk.ToString(instance.DBInstanceIdentifier)] = awssdk.ToString(instance.DBInstanceStatus)
		}
	}
	return statuses
}
