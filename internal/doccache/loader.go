// Package doccache obtains the description document for an invocation:
// from the local cache file when it exists, otherwise from the remote
// source, persisting what was fetched for later runs.
package doccache

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/mark3labs/swagger2ts/internal/config"
	"github.com/mark3labs/swagger2ts/internal/errs"
	"github.com/mark3labs/swagger2ts/internal/output"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

// Fetcher retrieves raw document bytes from a remote locator. Failures
// should be errs.FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, locator string, cred spec.Credential) ([]byte, error)
}

// Loaded is the outcome of a successful load.
type Loaded struct {
	Doc *spec.Document
	// Source is the cache path or URL the document came from.
	Source    string
	FromCache bool
	// Warnings are non-fatal problems, such as a failed cache write.
	Warnings []error
}

// Loader loads documents. The zero value is not usable; use New.
type Loader struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger; nil discards.
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// New returns a Loader using fetcher for remote documents.
func New(fetcher Fetcher, opts ...Option) *Loader {
	l := &Loader{
		fetcher: fetcher,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the document for cfg. A readable cache file wins and the
// fetcher is never called. Otherwise the remote document is fetched,
// parsed and written to the cache path; a failed cache write is reported
// in Loaded.Warnings only. When nothing usable is found the error is
// errs.DocumentUnavailable.
func (l *Loader) Load(ctx context.Context, cfg *config.Config) (*Loaded, error) {
	var warnings []error
	if cfg.DocumentPath != "" {
		raw, err := os.ReadFile(cfg.DocumentPath)
		switch {
		case err == nil:
			doc, perr := Parse(ctx, raw, cfg.DocumentPath)
			if perr == nil {
				l.logger.Debug("loaded cached document", "path", cfg.DocumentPath, "operations", len(doc.Operations))
				return &Loaded{Doc: doc, Source: cfg.DocumentPath, FromCache: true}, nil
			}
			if cfg.DocumentURL == "" {
				return nil, errs.Wrap(errs.DocumentUnavailable, cfg.DocumentPath, perr, "cached document is unusable")
			}
			l.logger.Warn("cached document is unusable, fetching", "path", cfg.DocumentPath, "error", perr)
			warnings = append(warnings, errs.Wrap(errs.DocumentUnavailable, cfg.DocumentPath, perr, "cached document is unusable"))
		case errors.Is(err, fs.ErrNotExist):
		default:
			if cfg.DocumentURL == "" {
				return nil, errs.Wrap(errs.DocumentUnavailable, cfg.DocumentPath, err, "read cached document")
			}
			l.logger.Warn("cannot read cached document, fetching", "path", cfg.DocumentPath, "error", err)
			warnings = append(warnings, errs.Wrap(errs.DocumentUnavailable, cfg.DocumentPath, err, "read cached document"))
		}
	}
	if cfg.DocumentURL == "" {
		return nil, errs.New(errs.DocumentUnavailable, cfg.DocumentPath, "no cached document and no remote URL configured")
	}
	loaded, err := l.fetch(ctx, cfg)
	if err != nil {
		return nil, err
	}
	loaded.Warnings = append(warnings, loaded.Warnings...)
	return loaded, nil
}

// Refresh fetches the remote document regardless of the cache and
// overwrites the cache file.
func (l *Loader) Refresh(ctx context.Context, cfg *config.Config) (*Loaded, error) {
	if cfg.DocumentURL == "" {
		return nil, errs.New(errs.DocumentUnavailable, "", "refresh needs a remote URL")
	}
	return l.fetch(ctx, cfg)
}

func (l *Loader) fetch(ctx context.Context, cfg *config.Config) (*Loaded, error) {
	if l.fetcher == nil {
		return nil, errs.New(errs.DocumentUnavailable, cfg.DocumentURL, "no document fetcher configured")
	}
	l.logger.Info("fetching document", "url", cfg.DocumentURL)
	raw, err := l.fetcher.Fetch(ctx, cfg.DocumentURL, cfg.Credential)
	if err != nil {
		return nil, errs.Wrap(errs.DocumentUnavailable, cfg.DocumentURL, err, "fetch document")
	}
	doc, err := Parse(ctx, raw, cfg.DocumentURL)
	if err != nil {
		return nil, errs.Wrap(errs.DocumentUnavailable, cfg.DocumentURL, err, "parse fetched document")
	}

	loaded := &Loaded{Doc: doc, Source: cfg.DocumentURL}
	if cfg.DocumentPath != "" {
		if err := output.WriteFileAtomic(cfg.DocumentPath, raw); err != nil {
			w := errs.Wrap(errs.WriteFailure, cfg.DocumentPath, err, "cache fetched document")
			l.logger.Warn("could not cache document", "path", cfg.DocumentPath, "error", err)
			loaded.Warnings = append(loaded.Warnings, w)
		} else {
			l.logger.Debug("cached document", "path", cfg.DocumentPath, "bytes", len(raw))
		}
	}
	return loaded, nil
}

// Parse turns raw document bytes into a Document.
func Parse(ctx context.Context, raw []byte, location string) (*spec.Document, error) {
	t, err := spec.Parse(ctx, raw, location)
	if err != nil {
		return nil, err
	}
	return spec.BuildDocument(t, raw)
}
