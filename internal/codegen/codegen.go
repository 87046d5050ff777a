// Package codegen defines the contract between the generation pipeline and
// the backends that turn operations and schemas into source text.
package codegen

import (
	"context"
	"fmt"

	"github.com/mark3labs/swagger2ts/internal/spec"
)

// Kind classifies an emitted unit by how it is materialized.
type Kind int

const (
	// Implementation units are appended to a per-namespace file under the
	// implementation root.
	Implementation Kind = iota + 1
	// Definition units overwrite a whole file under the definition
	// directory and are registered in its re-export index.
	Definition
)

func (k Kind) String() string {
	switch k {
	case Implementation:
		return "implementation"
	case Definition:
		return "definition"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Unit is one piece of generated output.
type Unit struct {
	Kind   Kind
	Source string
	// RelPath is relative to the implementation root for implementation
	// units and to the namespace's definition directory for definitions.
	RelPath   string
	Namespace string
	// TypeName is the exported name registered in the index. Definitions
	// only.
	TypeName string
}

// Target is what a backend is asked to emit: an operation, or a bare
// component schema when SchemaKey is set.
type Target struct {
	Operation *spec.Operation
	SchemaKey string
}

func (t Target) String() string {
	if t.Operation != nil {
		return t.Operation.ID
	}
	return "#" + t.SchemaKey
}

// Backend turns a target into units. Emit must be deterministic for
// identical inputs. With onlyDefinition set, no implementation unit is
// returned.
type Backend interface {
	Emit(ctx context.Context, doc *spec.Document, target Target, onlyDefinition bool) ([]Unit, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, doc *spec.Document, target Target, onlyDefinition bool) ([]Unit, error)

func (f BackendFunc) Emit(ctx context.Context, doc *spec.Document, target Target, onlyDefinition bool) ([]Unit, error) {
	return f(ctx, doc, target, onlyDefinition)
}
