package terminal

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/de-tools/cost-radar/pkg/runtime/terminal/commands"
	"github.com/de-tools/cost-radar/pkg/runtime/terminal/export"
	"github.com/de-tools/cost-radar/pkg/services/analysis"
	"github.com/de-tools/cost-radar/pkg/sources"
)

// CLI represents the command-line interface
type CLI struct {
	service  analysis.Service
	registry sources.Registry
	reporter *export.Reporter
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Service  analysis.Service
	Registry sources.Registry
	Output   io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		service:  opts.Service,
		registry: opts.Registry,
		reporter: export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "radar",
		Short: "Cost optimization radar",
	}

	cmd.AddCommand(commands.NewAnalyzeCmd(cli.service, cli.reporter))
	cmd.AddCommand(commands.NewProvidersCmd(cli.registry))

	return cmd
}
