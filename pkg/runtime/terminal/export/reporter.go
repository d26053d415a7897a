package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/cost-radar/pkg/models/domain"
)

type TableConfig struct {
	ResourceWidth int
	KindWidth     int
	ProviderWidth int
	ImpactWidth   int
	ScoreWidth    int
	RoiWidth      int
	OwnerWidth    int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		ResourceWidth: 36,
		KindWidth:     20,
		ProviderWidth: 10,
		ImpactWidth:   12,
		ScoreWidth:    6,
		RoiWidth:      10,
		OwnerWidth:    12,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

// Handle prints the analysis report as a summary block followed by the
// ranked opportunity table.
func (c *Reporter) Handle(report *domain.AnalysisReport) error {
	funcMap := template.FuncMap{
		"formatRow": func(resource, kind, provider, impact, score, roi, owner string) string {
			return fmt.Sprintf("| %-*s | %-*s | %-*s | %*s | %*s | %*s | %-*s |",
				c.config.ResourceWidth, truncate(resource, c.config.ResourceWidth),
				c.config.KindWidth, kind,
				c.config.ProviderWidth, provider,
				c.config.ImpactWidth, impact,
				c.config.ScoreWidth, score,
				c.config.RoiWidth, roi,
				c.config.OwnerWidth, owner)
		},
		"separator": func() string {
			widths := []int{
				c.config.ResourceWidth, c.config.KindWidth, c.config.ProviderWidth,
				c.config.ImpactWidth, c.config.ScoreWidth, c.config.RoiWidth, c.config.OwnerWidth,
			}
			parts := make([]string, 0, len(widths))
			for _, w := range widths {
				parts = append(parts, strings.Repeat("-", w+2))
			}
			return "+" + strings.Join(parts, "+") + "+"
		},
		"impact": func(o domain.ScoredOpportunity) string {
			return fmt.Sprintf("$%.2f", o.EstimatedImpact)
		},
		"score": func(o domain.ScoredOpportunity) string {
			return fmt.Sprintf("%d", o.PriorityScore)
		},
		"roi": func(o domain.ScoredOpportunity) string {
			if o.RoiUnbounded {
				return "unbounded"
			}
			return fmt.Sprintf("%.0f%%", o.RoiPercent)
		},
	}

	tmpl := `
Cost Radar Analysis ({{.AnalyzedAt.Format "2006-01-02 15:04"}})

Records analyzed: {{.RecordsAnalyzed}} ({{.RejectedRecords}} rejected)
Total amount: $ {{printf "%.2f" .TotalAmount}}
Potential savings: $ {{printf "%.2f" .PotentialSavings}} ({{printf "%.1f" .SavingsPercent}}%)
{{range .Warnings}}
WARNING [{{.Provider}}]: {{.Message}}
{{end}}
{{if .Opportunities}}
{{separator}}
{{formatRow "Resource" "Kind" "Provider" "Impact" "Score" "ROI" "Owner"}}
{{separator}}
{{range .Opportunities}}{{formatRow .ResourceID (printf "%s" .Kind) (printf "%s" .Provider) (impact .) (score .) (roi .) .AssignedOwner}}
{{end}}{{separator}}
{{else}}
No opportunities detected.
{{end}}
`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}
