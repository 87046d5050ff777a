package generate

import (
	"fmt"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/spec"
)

// Selector picks what to generate: a path, optionally narrowed to one
// method, or a bare schema definition when DefinitionKey is set.
type Selector struct {
	Path   string
	Method spec.HttpMethod
	// OnlyDefinition skips the implementation unit of each operation.
	OnlyDefinition bool
	DefinitionKey  string
}

// PathSelector selects every method of path.
func PathSelector(path string) Selector { return Selector{Path: normalizePath(path)} }

// OperationSelector selects one operation.
func OperationSelector(method spec.HttpMethod, path string) Selector {
	return Selector{Path: normalizePath(path), Method: method}
}

// DefinitionSelector selects a component schema by key.
func DefinitionSelector(key string) Selector { return Selector{DefinitionKey: key} }

// IsDefinition reports whether s selects a schema key.
func (s Selector) IsDefinition() bool { return s.DefinitionKey != "" }

func (s Selector) String() string {
	if s.IsDefinition() {
		return "#" + s.DefinitionKey
	}
	if s.Method == "" {
		return s.Path
	}
	return strings.ToUpper(string(s.Method)) + " " + s.Path
}

// ParseSelector reads "/path", "METHOD:/path" or "METHOD /path".
func ParseSelector(arg string) (Selector, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Selector{}, fmt.Errorf("empty selector")
	}
	if strings.HasPrefix(arg, "/") {
		return PathSelector(arg), nil
	}
	sep := strings.IndexAny(arg, ": ")
	if sep < 0 {
		return Selector{}, fmt.Errorf("selector %q: expected /path or METHOD:/path", arg)
	}
	m, ok := spec.ParseMethod(arg[:sep])
	if !ok {
		return Selector{}, fmt.Errorf("selector %q: unknown method %q", arg, arg[:sep])
	}
	path := strings.TrimSpace(arg[sep+1:])
	if path == "" {
		return Selector{}, fmt.Errorf("selector %q: missing path", arg)
	}
	return OperationSelector(m, path), nil
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
