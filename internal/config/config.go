// Package config resolves the effective settings for one invocation from
// built-in defaults, a persisted config file, the environment and explicit
// caller overrides.
package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	env "github.com/caarlos0/env/v11"

	"github.com/mark3labs/swagger2ts/internal/errs"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

const (
	// DefaultImplementationRoot is where request functions are written when
	// nothing else is configured.
	DefaultImplementationRoot = "src/api"
	// DefaultCacheFile is the cached document name, placed alongside the
	// implementation root.
	DefaultCacheFile = "swagger.json"
	// EnvPrefix prefixes every environment variable read by Resolve.
	EnvPrefix = "SWAGGER2TS_"
)

// Switch is an optional boolean. The zero value means "not set" so that a
// higher-precedence layer can turn a lower layer's "on" back off.
type Switch int

const (
	SwitchUnset Switch = iota
	SwitchOn
	SwitchOff
)

// SwitchOf converts a bool into a set Switch.
func SwitchOf(b bool) Switch {
	if b {
		return SwitchOn
	}
	return SwitchOff
}

// UnmarshalText lets env parse boolean strings into a Switch.
func (s *Switch) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*s = SwitchUnset
		return nil
	}
	v, err := parseBool(string(text))
	if err != nil {
		return err
	}
	*s = SwitchOf(v)
	return nil
}

// Layer is one source of settings. Empty fields defer to lower layers.
type Layer struct {
	DocumentPath       string `env:"DOCUMENT_PATH"`
	DocumentURL        string `env:"DOCUMENT_URL"`
	Cookie             string `env:"COOKIE"`
	Token              string `env:"TOKEN"`
	ImplementationRoot string `env:"API_DIR"`
	DefinitionRoot     string `env:"TYPE_DIR"`
	FileHeader         string `env:"FILE_HEADER"`
	FileHeaderFile     string `env:"FILE_HEADER_FILE"`
	AutoExport         Switch `env:"AUTO_EXPORT"`
}

// Defaults is the lowest-precedence layer.
func Defaults() Layer {
	return Layer{
		ImplementationRoot: DefaultImplementationRoot,
		AutoExport:         SwitchOn,
	}
}

// Overrides are explicit caller settings; they win over every other layer.
type Overrides struct {
	Layer
	// Header, when set, replaces any header text from other layers. It is
	// the only way to configure a computed header.
	Header *Header
	// Cleared lists settings the caller explicitly set to empty. They drop
	// values from lower layers; a cleared implementation root falls back
	// to the default.
	Cleared []Setting
}

// Setting names a clearable setting.
type Setting string

const (
	SettingDocumentPath       Setting = "documentPath"
	SettingDocumentURL        Setting = "documentUrl"
	SettingCookie             Setting = "cookie"
	SettingToken              Setting = "token"
	SettingImplementationRoot Setting = "apiDir"
	SettingDefinitionRoot     Setting = "typeDir"
	// SettingFileHeader covers both header text and header file.
	SettingFileHeader Setting = "fileHeader"
)

// Config is the effective configuration for one invocation. It is never
// mutated after Resolve returns.
type Config struct {
	DocumentPath       string
	DocumentURL        string
	Credential         spec.Credential
	ImplementationRoot string
	// DefinitionRoot is empty when definition directories are derived
	// per namespace.
	DefinitionRoot string
	Header         Header
	AutoExport     bool
}

type resolveOptions struct {
	preloaded bool
	environ   map[string]string
}

// ResolveOption adjusts Resolve.
type ResolveOption func(*resolveOptions)

// WithPreloadedDocument tells Resolve a document is already available in
// memory, so a missing document source is not an error.
func WithPreloadedDocument() ResolveOption {
	return func(o *resolveOptions) { o.preloaded = true }
}

// WithEnvironment replaces the process environment as the env layer source.
func WithEnvironment(environ map[string]string) ResolveOption {
	return func(o *resolveOptions) { o.environ = environ }
}

// Resolve merges defaults < file < environment < overrides. file may be
// nil. It fails with errs.ConfigError when no document source can be
// determined.
func Resolve(file *Layer, overrides Overrides, opts ...ResolveOption) (*Config, error) {
	ro := resolveOptions{}
	for _, opt := range opts {
		opt(&ro)
	}

	envLayer, err := environmentLayer(ro.environ)
	if err != nil {
		return nil, errs.Wrap(errs.ConfigError, "environment", err, "read environment")
	}

	merged := Defaults()
	var lower []Layer
	if file != nil {
		lower = append(lower, *file)
	}
	lower = append(lower, envLayer)
	for _, l := range lower {
		if err := mergeLayer(&merged, l); err != nil {
			return nil, err
		}
	}
	clearSettings(&merged, overrides.Cleared)
	if err := mergeLayer(&merged, overrides.Layer); err != nil {
		return nil, err
	}

	cfg := &Config{
		DocumentPath:       merged.DocumentPath,
		DocumentURL:        merged.DocumentURL,
		Credential:         spec.Credential{Cookie: merged.Cookie, Token: merged.Token},
		ImplementationRoot: filepath.Clean(merged.ImplementationRoot),
		AutoExport:         merged.AutoExport != SwitchOff,
	}
	if merged.DefinitionRoot != "" {
		cfg.DefinitionRoot = filepath.Clean(merged.DefinitionRoot)
	}

	switch {
	case overrides.Header != nil:
		cfg.Header = *overrides.Header
	case merged.FileHeader != "":
		cfg.Header = StaticHeader(merged.FileHeader)
	case merged.FileHeaderFile != "":
		cfg.Header = HeaderFromFile(merged.FileHeaderFile)
	}

	if cfg.DocumentPath == "" && cfg.DocumentURL != "" {
		cfg.DocumentPath = filepath.Join(cfg.ImplementationRoot, DefaultCacheFile)
	}
	if cfg.DocumentPath == "" && cfg.DocumentURL == "" && !ro.preloaded {
		return nil, errs.New(errs.ConfigError, "", "no document source: set a local document path or a document URL")
	}
	return cfg, nil
}

// mergeLayer applies l over merged. Header text and header file are one
// setting: a layer providing either replaces both from lower layers.
func mergeLayer(merged *Layer, l Layer) error {
	l = trimmed(l)
	if l.FileHeader != "" || l.FileHeaderFile != "" {
		merged.FileHeader, merged.FileHeaderFile = "", ""
	}
	if err := mergo.Merge(merged, l, mergo.WithOverride); err != nil {
		return errs.Wrap(errs.ConfigError, "", err, "merge configuration")
	}
	return nil
}

func clearSettings(merged *Layer, settings []Setting) {
	for _, s := range settings {
		switch s {
		case SettingDocumentPath:
			merged.DocumentPath = ""
		case SettingDocumentURL:
			merged.DocumentURL = ""
		case SettingCookie:
			merged.Cookie = ""
		case SettingToken:
			merged.Token = ""
		case SettingImplementationRoot:
			merged.ImplementationRoot = DefaultImplementationRoot
		case SettingDefinitionRoot:
			merged.DefinitionRoot = ""
		case SettingFileHeader:
			merged.FileHeader, merged.FileHeaderFile = "", ""
		}
	}
}

func environmentLayer(environ map[string]string) (Layer, error) {
	var l Layer
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&l, opts); err != nil {
		return Layer{}, err
	}
	return l, nil
}

func trimmed(l Layer) Layer {
	l.DocumentPath = strings.TrimSpace(l.DocumentPath)
	l.DocumentURL = strings.TrimSpace(l.DocumentURL)
	l.Cookie = strings.TrimSpace(l.Cookie)
	l.Token = strings.TrimSpace(l.Token)
	l.ImplementationRoot = strings.TrimSpace(l.ImplementationRoot)
	l.DefinitionRoot = strings.TrimSpace(l.DefinitionRoot)
	l.FileHeaderFile = strings.TrimSpace(l.FileHeaderFile)
	return l
}

// DefinitionDir is the directory definitions of namespace are written to:
// the explicit definition root, else the implementation root joined with
// the namespace.
func (c *Config) DefinitionDir(namespace string) string {
	if c.DefinitionRoot != "" {
		return c.DefinitionRoot
	}
	if namespace == "" {
		namespace = spec.DefaultNamespace
	}
	return filepath.Join(c.ImplementationRoot, namespace)
}

// TypeImportPath is the module specifier implementation files use to
// reference definitions of namespace.
func (c *Config) TypeImportPath(namespace string) string {
	rel, err := filepath.Rel(c.ImplementationRoot, c.DefinitionDir(namespace))
	if err != nil {
		abs, aerr := filepath.Abs(c.DefinitionDir(namespace))
		if aerr != nil {
			return c.DefinitionDir(namespace)
		}
		return filepath.ToSlash(abs)
	}
	rel = path.Clean(filepath.ToSlash(rel))
	if rel == "." {
		return "."
	}
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}

// Header is the optional text prepended to a new implementation file:
// either static text or a producer evaluated lazily.
type Header struct {
	static  string
	compute func() (string, error)
}

// StaticHeader returns a header with fixed text.
func StaticHeader(text string) Header { return Header{static: text} }

// ComputedHeader returns a header whose text is produced on demand.
func ComputedHeader(fn func() (string, error)) Header { return Header{compute: fn} }

// HeaderFromFile returns a computed header reading path when needed.
func HeaderFromFile(path string) Header {
	return ComputedHeader(func() (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read header file: %w", err)
		}
		return string(data), nil
	})
}

// IsZero reports whether no header is configured.
func (h Header) IsZero() bool { return h.static == "" && h.compute == nil }

// Text resolves the header. Computed headers run their producer on every
// call; callers resolve once per file creation.
func (h Header) Text() (string, error) {
	if h.compute != nil {
		return h.compute()
	}
	return h.static, nil
}
