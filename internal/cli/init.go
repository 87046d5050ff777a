package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/swagger2ts/internal/config"
	"github.com/mark3labs/swagger2ts/internal/output"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Out        io.Writer
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample swagger2ts configuration file",
		Long:  "Scaffold a commented swagger2ts configuration file that documents available options.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			return initRunner(cmd.Context(), &InitConfig{
				OutputPath: out,
				Force:      force,
				Out:        cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().String("out", config.DefaultFileName, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")
	return cmd
}

func runInit(_ context.Context, cfg *InitConfig) error {
	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = config.DefaultFileName
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	content := strings.TrimSpace(config.SampleFile) + "\n"
	if err := output.WriteFileAtomic(absPath, []byte(content)); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write %s: %v\nHint: choose a different --out or check directory permissions.", absPath, err))
	}
	_, err = fmt.Fprintf(cfg.Out, "Wrote sample config to %s\n", absPath)
	return err
}
