// Package output writes emitted units to the output tree: implementation
// units are appended to per-namespace files, definition units overwrite
// their file and are registered in the directory's re-export index.
package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mark3labs/swagger2ts/internal/codegen"
	"github.com/mark3labs/swagger2ts/internal/config"
	"github.com/mark3labs/swagger2ts/internal/errs"
)

// Materializer performs the filesystem side effects of generation. It is
// safe for concurrent use; writes to one file, and updates to one index,
// are applied in the order Materialize was called.
type Materializer struct {
	cfg    *config.Config
	logger *slog.Logger
	gate   *gate
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithLogger sets the logger; nil discards.
func WithLogger(l *slog.Logger) Option {
	return func(m *Materializer) {
		if l != nil {
			m.logger = l
		}
	}
}

// New returns a Materializer writing under cfg's roots.
func New(cfg *config.Config, opts ...Option) *Materializer {
	m := &Materializer{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		gate:   newGate(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path is the file unit is written to.
func (m *Materializer) Path(unit codegen.Unit) (string, error) {
	rel := filepath.FromSlash(unit.RelPath)
	if !filepath.IsLocal(rel) {
		return "", errs.New(errs.WriteFailure, unit.RelPath, "output path escapes its root")
	}
	switch unit.Kind {
	case codegen.Implementation:
		return filepath.Join(m.cfg.ImplementationRoot, rel), nil
	case codegen.Definition:
		return filepath.Join(m.cfg.DefinitionDir(unit.Namespace), rel), nil
	default:
		return "", errs.New(errs.WriteFailure, unit.RelPath, "unknown unit kind %s", unit.Kind)
	}
}

// Materialize writes unit. Failures are errs.WriteFailure.
func (m *Materializer) Materialize(ctx context.Context, unit codegen.Unit) error {
	path, err := m.Path(unit)
	if err != nil {
		return err
	}
	if unit.Kind == codegen.Implementation {
		return m.appendImplementation(ctx, path, unit)
	}
	return m.writeDefinition(ctx, path, unit)
}

func (m *Materializer) appendImplementation(ctx context.Context, path string, unit codegen.Unit) error {
	release, err := m.gate.acquire(ctx, path)
	if err != nil {
		return errs.Wrap(errs.WriteFailure, path, err, "wait for pending writes")
	}
	defer release()

	content := unit.Source
	created := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		created = true
		if !m.cfg.Header.IsZero() {
			header, err := m.cfg.Header.Text()
			if err != nil {
				return errs.Wrap(errs.WriteFailure, path, err, "resolve file header")
			}
			if header != "" && !strings.HasSuffix(header, "\n") {
				header += "\n"
			}
			content = header + content
		}
	} else if err != nil {
		return errs.Wrap(errs.WriteFailure, path, err, "stat output file")
	}

	if err := appendFile(path, []byte(content)); err != nil {
		return errs.Wrap(errs.WriteFailure, path, err, "append implementation")
	}
	m.logger.Debug("appended implementation", "path", path, "namespace", unit.Namespace, "created", created)
	return nil
}

func (m *Materializer) writeDefinition(ctx context.Context, path string, unit codegen.Unit) error {
	release, err := m.gate.acquire(ctx, path)
	if err != nil {
		return errs.Wrap(errs.WriteFailure, path, err, "wait for pending writes")
	}
	err = WriteFileAtomic(path, []byte(unit.Source))
	release()
	if err != nil {
		return errs.Wrap(errs.WriteFailure, path, err, "write definition")
	}
	m.logger.Debug("wrote definition", "path", path, "type", unit.TypeName)

	if !m.cfg.AutoExport || unit.TypeName == "" {
		return nil
	}
	return m.register(ctx, path, unit.TypeName)
}

// register adds name to the index next to file.
func (m *Materializer) register(ctx context.Context, file, name string) error {
	indexPath := filepath.Join(filepath.Dir(file), IndexFile)
	release, err := m.gate.acquire(ctx, indexPath)
	if err != nil {
		return errs.Wrap(errs.WriteFailure, indexPath, err, "wait for pending index updates")
	}
	defer release()

	idx, err := LoadIndex(indexPath)
	if err != nil {
		return errs.Wrap(errs.WriteFailure, indexPath, err, "read index")
	}
	module := moduleFor(file)
	if prev, ok := idx.Lookup(name); ok && prev != module {
		m.logger.Warn("repointing index entry", "index", indexPath, "type", name, "from", prev, "to", module)
	}
	if !idx.Register(name, module) {
		return nil
	}
	if err := WriteFileAtomic(indexPath, idx.Bytes()); err != nil {
		return errs.Wrap(errs.WriteFailure, indexPath, err, "write index")
	}
	m.logger.Debug("registered type", "index", indexPath, "type", name)
	return nil
}

func appendFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteFileAtomic replaces path via a uniquely named temp file and rename.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
