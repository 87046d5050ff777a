package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/swagger2ts/internal/codegen"
	"github.com/mark3labs/swagger2ts/internal/config"
	"github.com/mark3labs/swagger2ts/internal/generate"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

// GenerateRequest captures everything the generate command acts on after
// config resolution and selector parsing.
type GenerateRequest struct {
	Config    *config.Config
	Selectors []generate.Selector
	Verbose   bool
	Out       io.Writer
	Logger    *slog.Logger
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [METHOD:]PATH ...",
		Short: "Generate request functions and types for operations or schemas",
		Long: "Generate request functions and type definitions for the selected operations. " +
			"A path without a method selects every method declared for it; --def selects " +
			"schema definitions by key.",
		Example: strings.TrimSpace(`  swagger2ts generate /users get:/users/{id}
  swagger2ts generate "POST /orders" --only-def
  swagger2ts --url https://example.com/v2/api-docs generate --def UserDTO`),
		RunE: func(cmd *cobra.Command, args []string) error {
			selectors, err := selectorsFromArgs(cmd, args)
			if err != nil {
				return err
			}
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			verbose, _ := cmd.Flags().GetBool("verbose")
			return generateRunner(cmd.Context(), &GenerateRequest{
				Config:    cfg,
				Selectors: selectors,
				Verbose:   verbose,
				Out:       cmd.OutOrStdout(),
				Logger:    commandLogger(cmd),
			})
		},
	}

	flags := cmd.Flags()
	flags.StringSlice("def", nil, "Schema definition keys to generate")
	flags.Bool("only-def", false, "Only write type definitions for the selected paths")
	return cmd
}

func selectorsFromArgs(cmd *cobra.Command, args []string) ([]generate.Selector, error) {
	onlyDef, err := cmd.Flags().GetBool("only-def")
	if err != nil {
		return nil, err
	}
	defs, err := cmd.Flags().GetStringSlice("def")
	if err != nil {
		return nil, err
	}

	var selectors []generate.Selector
	for i := 0; i < len(args); i++ {
		arg := args[i]
		// Accept "GET /users" split over two arguments.
		if _, ok := spec.ParseMethod(arg); ok && i+1 < len(args) && strings.HasPrefix(args[i+1], "/") {
			arg = arg + " " + args[i+1]
			i++
		}
		sel, err := generate.ParseSelector(arg)
		if err != nil {
			return nil, newUsageError(fmt.Sprintf("generate: %v\n\n%s", err, cmd.UsageString()))
		}
		sel.OnlyDefinition = onlyDef
		selectors = append(selectors, sel)
	}
	for _, key := range defs {
		if key = strings.TrimSpace(key); key != "" {
			selectors = append(selectors, generate.DefinitionSelector(key))
		}
	}
	if len(selectors) == 0 {
		return nil, newUsageError(fmt.Sprintf("generate: at least one PATH or --def is required\n\n%s", cmd.UsageString()))
	}
	return selectors, nil
}

func runGenerate(ctx context.Context, req *GenerateRequest) error {
	if ctx == nil {
		ctx = context.Background()
	}
	svc := newService(req.Logger)
	res, err := svc.Targets(ctx, req.Config, req.Selectors)
	if err != nil && res == nil {
		return describeError(err)
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(req.Out, "warning: %v\n", w)
	}
	for _, c := range res.Completed {
		verb := "appended"
		if c.Unit.Kind == codegen.Definition {
			verb = "wrote"
		}
		fmt.Fprintf(req.Out, "%s %s\n", verb, c.Path)
	}
	for _, f := range res.Failures {
		fmt.Fprintf(req.Out, "failed %v\n", f)
	}
	if err != nil {
		return err
	}
	if len(res.Failures) > 0 {
		return fmt.Errorf("generate: %d failure(s), %d unit(s) written: %w", len(res.Failures), len(res.Completed), res.Err())
	}
	return nil
}
