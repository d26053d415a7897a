package normalize

import (
	"strings"

	"github.com/de-tools/cost-radar/pkg/models/domain"
)

// categoryKeywords collapses the many provider-specific service names into
// the canonical vocabulary. Order matters: the first matching group wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{domain.CategoryCompute, []string{"ec2", "compute", "vm", "instance", "virtual machine", "cluster", "warehouse", "job"}},
	{domain.CategoryStorage, []string{"s3", "storage", "blob", "bucket", "ebs", "disk"}},
	{domain.CategoryDatabase, []string{"rds", "database", "sql", "dynamodb", "cosmos"}},
	{domain.CategoryNetwork, []string{"vpc", "network", "load balancer", "nat", "gateway"}},
}

func keywordCategory(code string) (string, bool) {
	lower := strings.ToLower(code)
	for _, group := range categoryKeywords {
		for _, keyword := range group.keywords {
			if strings.Contains(lower, keyword) {
				return group.category, true
			}
		}
	}
	return "", false
}
