package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mark3labs/swagger2ts/internal/config"
	"github.com/mark3labs/swagger2ts/internal/doccache"
	"github.com/mark3labs/swagger2ts/internal/errs"
	"github.com/mark3labs/swagger2ts/internal/generate"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

func defaultConfigName() string { return config.DefaultFileName }

func addSourceFlags(fs *pflag.FlagSet) {
	fs.String("input", "", "Local document path; used as the cache when --url is set")
	fs.String("url", "", "Remote Swagger/OpenAPI document URL")
	fs.String("cookie", "", "Cookie header sent when fetching the document")
	fs.String("token", "", "Bearer token sent when fetching the document")
	fs.String("api-dir", "", "Implementation root for request functions (default "+config.DefaultImplementationRoot+")")
	fs.String("type-dir", "", "Definition root; defaults to <api-dir>/<namespace>")
	fs.String("header", "", "Text prepended to newly created request files")
	fs.String("header-file", "", "File whose content is prepended to newly created request files")
	fs.Bool("auto-export", true, "Register generated types in the directory's index.ts")
}

// newFetcher builds the document fetcher; tests replace it.
var newFetcher = func() doccache.Fetcher { return spec.NewHTTPFetcher() }

// resolveConfig merges the config file, environment and changed flags.
func resolveConfig(cmd *cobra.Command, opts ...config.ResolveOption) (*config.Config, error) {
	flags := cmd.Flags()

	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		if _, statErr := os.Stat(config.DefaultFileName); statErr == nil {
			path = config.DefaultFileName
		} else if !errors.Is(statErr, fs.ErrNotExist) {
			return nil, newUsageError(fmt.Sprintf("config: %v", statErr))
		}
	}

	var file *config.Layer
	if path != "" {
		file, err = config.ReadFile(path)
		if err != nil {
			return nil, newUsageError(err.Error())
		}
	}

	overrides, err := flagOverrides(flags)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(file, overrides, opts...)
	if err != nil {
		if errs.Is(err, errs.ConfigError) {
			return nil, newUsageError(fmt.Sprintf("%v\nHint: pass --input or --url, or set them in %s.", err, config.DefaultFileName))
		}
		return nil, err
	}
	return cfg, nil
}

func flagOverrides(flags *pflag.FlagSet) (config.Overrides, error) {
	var o config.Overrides
	strs := []struct {
		name    string
		target  *string
		setting config.Setting
	}{
		{"input", &o.DocumentPath, config.SettingDocumentPath},
		{"url", &o.DocumentURL, config.SettingDocumentURL},
		{"cookie", &o.Cookie, config.SettingCookie},
		{"token", &o.Token, config.SettingToken},
		{"api-dir", &o.ImplementationRoot, config.SettingImplementationRoot},
		{"type-dir", &o.DefinitionRoot, config.SettingDefinitionRoot},
		{"header", &o.FileHeader, config.SettingFileHeader},
		{"header-file", &o.FileHeaderFile, config.SettingFileHeader},
	}
	for _, s := range strs {
		if !flags.Changed(s.name) {
			continue
		}
		value, err := flags.GetString(s.name)
		if err != nil {
			return o, err
		}
		*s.target = strings.TrimSpace(value)
		// An explicit empty value clears what lower layers set.
		if *s.target == "" {
			o.Cleared = append(o.Cleared, s.setting)
		}
	}
	// A header file given on the command line beats header text from
	// lower layers.
	if flags.Changed("header-file") && !flags.Changed("header") && o.FileHeaderFile != "" {
		h := config.HeaderFromFile(o.FileHeaderFile)
		o.Header = &h
	}
	if flags.Changed("auto-export") {
		value, err := flags.GetBool("auto-export")
		if err != nil {
			return o, err
		}
		o.AutoExport = config.SwitchOf(value)
	}
	return o, nil
}

// newLogger writes structured logs to w; verbose enables debug records.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func commandLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return newLogger(cmd.ErrOrStderr(), verbose)
}

func newService(logger *slog.Logger) *generate.Service {
	loader := doccache.New(newFetcher(), doccache.WithLogger(logger))
	return generate.NewService(loader, generate.WithLogger(logger))
}

// describeError renders fatal pipeline errors for humans.
func describeError(err error) error {
	var se *spec.SpecError
	if errors.As(err, &se) {
		if se.JSONPointer != "" {
			return fmt.Errorf("%w\nPointer: %s", err, se.JSONPointer)
		}
	}
	return err
}
