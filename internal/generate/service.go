package generate

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/mark3labs/swagger2ts/internal/catalog"
	"github.com/mark3labs/swagger2ts/internal/codegen"
	"github.com/mark3labs/swagger2ts/internal/codegen/tsbackend"
	"github.com/mark3labs/swagger2ts/internal/config"
	"github.com/mark3labs/swagger2ts/internal/doccache"
	"github.com/mark3labs/swagger2ts/internal/errs"
	"github.com/mark3labs/swagger2ts/internal/output"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

// BackendFactory builds the backend for one invocation's configuration.
type BackendFactory func(cfg *config.Config) codegen.Backend

// TypeScript is the default backend factory.
func TypeScript(cfg *config.Config) codegen.Backend {
	return tsbackend.New(tsbackend.Options{TypeImport: cfg.TypeImportPath})
}

// Completed is a unit that was written.
type Completed struct {
	Unit codegen.Unit
	Path string
}

// Result is the outcome of Targets. Failures and Warnings never abort the
// run; the caller decides how to present partial success.
type Result struct {
	Completed []Completed
	Failures  []Failure
	Warnings  []error
}

// Err joins all failures, or returns nil.
func (r *Result) Err() error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	list := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		list = append(list, f)
	}
	return errors.Join(list...)
}

// Service is the entry point used by command surfaces.
type Service struct {
	loader   *doccache.Loader
	backend  BackendFactory
	document *spec.Document
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBackend replaces the TypeScript backend.
func WithBackend(f BackendFactory) Option { return func(s *Service) { s.backend = f } }

// WithDocument uses doc instead of loading one.
func WithDocument(doc *spec.Document) Option { return func(s *Service) { s.document = doc } }

// WithLogger sets the logger; nil discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService returns a Service loading documents with loader.
func NewService(loader *doccache.Loader, opts ...Option) *Service {
	s := &Service{
		loader:  loader,
		backend: TypeScript,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) load(ctx context.Context, cfg *config.Config) (*spec.Document, []error, error) {
	if s.document != nil {
		return s.document, nil, nil
	}
	if s.loader == nil {
		return nil, nil, errs.New(errs.DocumentUnavailable, "", "no document loader configured")
	}
	loaded, err := s.loader.Load(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return loaded.Doc, loaded.Warnings, nil
}

// Targets generates every selector and writes the output. Only fatal
// errors (the document cannot be obtained, ctx ended) are returned as
// error; per-selector and per-unit problems are in Result.Failures. When
// ctx ends mid-run the partial Result is returned with the error.
func (s *Service) Targets(ctx context.Context, cfg *config.Config, selectors []Selector) (*Result, error) {
	doc, warnings, err := s.load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res := &Result{Warnings: warnings}
	m := output.New(cfg, output.WithLogger(s.logger))

	res.Failures = Generate(ctx, doc, s.backend(cfg), selectors, func(e Emission) error {
		if err := m.Materialize(ctx, e.Unit); err != nil {
			return err
		}
		path, _ := m.Path(e.Unit)
		res.Completed = append(res.Completed, Completed{Unit: e.Unit, Path: path})
		s.logger.Debug("materialized unit", "selector", e.Selector.String(), "kind", e.Unit.Kind.String(), "path", path)
		return nil
	})
	for _, f := range res.Failures {
		s.logger.Warn("generation failure", "selector", f.Selector.String(), "code", string(errs.CodeOf(f.Err)), "error", f.Err)
	}
	s.logger.Info("generation finished", "completed", len(res.Completed), "failures", len(res.Failures))
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// Search lists the operations matching keyword.
func (s *Service) Search(ctx context.Context, cfg *config.Config, keyword string) ([]catalog.OperationSummary, error) {
	doc, _, err := s.load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return catalog.Search(doc, keyword), nil
}

// Refresh refetches the document and overwrites the cache. A failed cache
// write is a warning on the returned Loaded.
func (s *Service) Refresh(ctx context.Context, cfg *config.Config) (*doccache.Loaded, error) {
	if s.loader == nil {
		return nil, errs.New(errs.DocumentUnavailable, "", "no document loader configured")
	}
	loaded, err := s.loader.Refresh(ctx, cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range loaded.Warnings {
		s.logger.Warn("refresh warning", "error", w)
	}
	return loaded, nil
}
