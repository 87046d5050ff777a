package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Execute runs the swagger2ts CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swagger2ts",
		Short: "Generate TypeScript request functions and types from Swagger/OpenAPI documents",
		Long: "swagger2ts appends request functions and writes type definitions for selected " +
			"operations of a Swagger 2.0 or OpenAPI 3 document, caching the document locally.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	cmd.SetFlagErrorFunc(flagError)

	pf := cmd.PersistentFlags()
	pf.StringP("config", "c", "", "Config file path (YAML or JSON); defaults to ./"+defaultConfigName()+" when present")
	pf.BoolP("verbose", "v", false, "Enable verbose logging output")
	addSourceFlags(pf)

	for _, sub := range []*cobra.Command{newGenerateCmd(), newSearchCmd(), newRefreshCmd(), newInitCmd()} {
		sub.SetFlagErrorFunc(flagError)
		cmd.AddCommand(sub)
	}
	return cmd
}

func flagError(c *cobra.Command, err error) error {
	return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
}
