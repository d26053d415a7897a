package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/de-tools/cost-radar/pkg/runtime/terminal/export"
	"github.com/de-tools/cost-radar/pkg/services/analysis"
)

type AnalyzeCmd struct {
	timeout  int
	service  analysis.Service
	reporter *export.Reporter
}

func NewAnalyzeCmd(service analysis.Service, reporter *export.Reporter) *cobra.Command {
	ac := &AnalyzeCmd{service: service, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run detection over all registered providers and print the ranked opportunities",
		RunE:  ac.run,
	}

	cmd.Flags().IntVar(&ac.timeout, "timeout", 120, "Timeout in seconds for the whole run")

	return cmd
}

func (ac *AnalyzeCmd) run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(ac.timeout)*time.Second)
	defer cancel()

	report, err := ac.service.Analyze(ctx)
	if err != nil {
		return err
	}

	return ac.reporter.Handle(report)
}
