package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/mark3labs/swagger2ts/internal/catalog"
	"github.com/mark3labs/swagger2ts/internal/config"
)

// SearchRequest is the resolved input of the search command.
type SearchRequest struct {
	Config  *config.Config
	Keyword string
	JSON    bool
	Out     io.Writer
	Logger  *slog.Logger
}

var searchRunner = runSearch

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [KEYWORD]",
		Short: "List operations whose path, summary or tags contain KEYWORD",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			keyword := ""
			if len(args) == 1 {
				keyword = args[0]
			}
			return searchRunner(cmd.Context(), &SearchRequest{
				Config:  cfg,
				Keyword: keyword,
				JSON:    asJSON,
				Out:     cmd.OutOrStdout(),
				Logger:  commandLogger(cmd),
			})
		},
	}
	cmd.Flags().Bool("json", false, "Print results as JSON")
	return cmd
}

func runSearch(ctx context.Context, req *SearchRequest) error {
	if ctx == nil {
		ctx = context.Background()
	}
	svc := newService(req.Logger)
	ops, err := svc.Search(ctx, req.Config, req.Keyword)
	if err != nil {
		return describeError(err)
	}
	if req.JSON {
		data, err := sonic.ConfigStd.MarshalIndent(ops, "", "  ")
		if err != nil {
			return fmt.Errorf("search: encode results: %w", err)
		}
		_, err = fmt.Fprintf(req.Out, "%s\n", data)
		return err
	}
	return printOperations(req.Out, ops, req.Keyword)
}

func printOperations(w io.Writer, ops []catalog.OperationSummary, keyword string) error {
	if len(ops) == 0 {
		if k := strings.TrimSpace(keyword); k != "" {
			_, err := fmt.Fprintf(w, "No operations match %q\n", k)
			return err
		}
		_, err := fmt.Fprintln(w, "No operations found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, op := range ops {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op.Method, op.Path, op.Summary, strings.Join(op.Tags, ","))
	}
	return tw.Flush()
}
