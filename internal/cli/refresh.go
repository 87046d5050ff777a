package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mark3labs/swagger2ts/internal/config"
)

// RefreshRequest is the resolved input of the refresh command.
type RefreshRequest struct {
	Config *config.Config
	Out    io.Writer
	Logger *slog.Logger
}

var refreshRunner = runRefresh

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the remote document again and overwrite the local cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return refreshRunner(cmd.Context(), &RefreshRequest{Config: cfg, Out: cmd.OutOrStdout(), Logger: commandLogger(cmd)})
		},
	}
}

func runRefresh(ctx context.Context, req *RefreshRequest) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Config.DocumentURL == "" {
		return newUsageError("refresh: no remote URL configured (set --url or documentUrl)")
	}
	loaded, err := newService(req.Logger).Refresh(ctx, req.Config)
	if err != nil {
		return describeError(err)
	}
	if len(loaded.Warnings) > 0 {
		return fmt.Errorf("refresh: fetched %d operation(s) but the cache was not updated: %w",
			len(loaded.Doc.Operations), errors.Join(loaded.Warnings...))
	}
	_, err = fmt.Fprintf(req.Out, "Refreshed %s from %s (%d operations)\n",
		req.Config.DocumentPath, req.Config.DocumentURL, len(loaded.Doc.Operations))
	return err
}
