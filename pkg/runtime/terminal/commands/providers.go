package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/de-tools/cost-radar/pkg/sources"
)

type ProvidersCmd struct {
	registry sources.Registry
}

func NewProvidersCmd(registry sources.Registry) *cobra.Command {
	pc := &ProvidersCmd{registry: registry}
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List the registered billing providers",
		RunE:  pc.run,
	}

	return cmd
}

func (pc *ProvidersCmd) run(cmd *cobra.Command, args []string) error {
	providers := pc.registry.ListProviders()
	if len(providers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No providers registered.")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Registered providers:")
	for _, provider := range providers {
		fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", provider)
	}

	return nil
}
