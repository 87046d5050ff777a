// Package tsbackend emits TypeScript request functions and type
// definitions for operations of a parsed document.
package tsbackend

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/codegen"
	"github.com/mark3labs/swagger2ts/internal/errs"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

const generatedMarker = "// Code generated by swagger2ts. DO NOT EDIT.\n"

// Options controls rendering.
type Options struct {
	// TypeImport maps a namespace to the module specifier, relative to the
	// implementation root, of the directory holding its definitions.
	// Defaults to "./<namespace>".
	TypeImport func(namespace string) string
	// RequestFunc is the client function generated code calls. Defaults to
	// "request".
	RequestFunc string
}

// Backend implements codegen.Backend for TypeScript.
type Backend struct {
	opts Options
}

var _ codegen.Backend = (*Backend)(nil)

// New returns a TypeScript backend.
func New(opts Options) *Backend {
	if opts.TypeImport == nil {
		opts.TypeImport = func(ns string) string { return "./" + ns }
	}
	if strings.TrimSpace(opts.RequestFunc) == "" {
		opts.RequestFunc = "request"
	}
	return &Backend{opts: opts}
}

// Emit renders target. For an operation the units are, in order: the
// params interface, body and result aliases for inline schemas, every
// component schema they reach, then the implementation unit unless
// onlyDefinition is set. A schema-key target yields exactly one
// definition unit in the default namespace.
func (b *Backend) Emit(ctx context.Context, doc *spec.Document, target codegen.Target, onlyDefinition bool) ([]codegen.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errs.New(errs.BackendError, target.String(), "tsbackend: nil document")
	}
	names := newComponentNames(doc)
	if target.Operation == nil {
		return b.emitSchema(doc, names, target.SchemaKey)
	}
	return b.emitOperation(doc, names, target.Operation, onlyDefinition), nil
}

// emitSchema renders key as one self-contained file: the exported type
// followed by local declarations of every component it reaches.
func (b *Backend) emitSchema(doc *spec.Document, names componentNames, key string) ([]codegen.Unit, error) {
	s, ok := doc.Schema(key)
	if !ok {
		return nil, errs.New(errs.SelectorNotFound, "#"+key, "no schema definition %q", key)
	}
	name := names.of(key)
	r := newTypeRenderer(doc, names)
	r.seen[key] = true

	var src strings.Builder
	src.WriteString(generatedMarker)
	src.WriteString("\n")
	src.WriteString(r.declaration(name, s, true))
	for i := 0; i < len(r.deps); i++ {
		dep, _ := doc.Schema(r.deps[i])
		src.WriteString("\n")
		src.WriteString(r.declaration(names.of(r.deps[i]), dep, false))
	}
	return []codegen.Unit{{
		Kind:      codegen.Definition,
		Source:    src.String(),
		RelPath:   name + ".ts",
		Namespace: spec.DefaultNamespace,
		TypeName:  name,
	}}, nil
}

type operationTypes struct {
	params string
	body   string
	result string
}

func (b *Backend) emitOperation(doc *spec.Document, names componentNames, op *spec.Operation, onlyDefinition bool) []codegen.Unit {
	ns := op.Namespace
	if ns == "" {
		ns = spec.DefaultNamespace
	}
	fn := funcName(op)
	prefix := typeName(fn)

	var (
		units []codegen.Unit
		types operationTypes
		queue []string
	)
	add := func(u codegen.Unit, deps []string) {
		units = append(units, u)
		queue = append(queue, deps...)
	}
	r := newTypeRenderer(doc, names)

	if params := requestParams(op); len(params) > 0 {
		types.params = prefix + "Params"
		add(paramsUnit(doc, names, ns, types.params, params))
	}
	if media := preferredMedia(requestContent(op)); media != nil && media.Schema != nil {
		types.body = b.namedOrInline(doc, r, ns, prefix+"Body", media.Schema, add)
	}
	if media := preferredMedia(successContent(op)); media != nil && media.Schema != nil {
		types.result = b.namedOrInline(doc, r, ns, prefix+"Result", media.Schema, add)
	}
	queue = append(queue, r.deps...)

	// Transitive closure of component schemas, breadth first.
	emitted := map[string]bool{}
	for _, u := range units {
		emitted[u.TypeName] = true
	}
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		name := names.of(key)
		if emitted[name] {
			continue
		}
		emitted[name] = true
		s, _ := doc.Schema(key)
		add(definitionUnit(doc, names, ns, name, s))
	}

	if !onlyDefinition {
		units = append(units, codegen.Unit{
			Kind:      codegen.Implementation,
			Source:    b.function(op, fn, ns, types),
			RelPath:   ns + ".ts",
			Namespace: ns,
		})
	}
	return units
}

// namedOrInline returns the type name used for a body or result schema.
// References use the component name; inline schemas get an alias unit.
func (b *Backend) namedOrInline(doc *spec.Document, r *typeRenderer, ns, alias string, sor *spec.SchemaOrRef, add func(codegen.Unit, []string)) string {
	if sor.Ref != nil {
		name := r.ref(sor.Ref)
		if name == "any" {
			return ""
		}
		return name
	}
	add(definitionUnit(doc, r.names, ns, alias, sor.Schema))
	return alias
}

// definitionUnit renders one definition file and returns the component
// keys it imports.
func definitionUnit(doc *spec.Document, names componentNames, ns, name string, s *spec.Schema) (codegen.Unit, []string) {
	r := newTypeRenderer(doc, names)
	decl := r.declaration(name, s, true)
	return codegen.Unit{
		Kind:      codegen.Definition,
		Source:    definitionSource(names, name, r.deps, decl),
		RelPath:   name + ".ts",
		Namespace: ns,
		TypeName:  name,
	}, r.deps
}

func definitionSource(names componentNames, name string, deps []string, decl string) string {
	var b strings.Builder
	b.WriteString(generatedMarker)
	wrote := false
	for _, key := range deps {
		dep := names.of(key)
		if dep == name {
			continue
		}
		if !wrote {
			b.WriteString("\n")
			wrote = true
		}
		fmt.Fprintf(&b, "import type { %s } from './%s';\n", dep, dep)
	}
	b.WriteString("\n")
	b.WriteString(decl)
	return b.String()
}

func paramsUnit(doc *spec.Document, names componentNames, ns, name string, params []spec.Parameter) (codegen.Unit, []string) {
	s := &spec.Schema{Type: "object", Properties: map[string]*spec.SchemaOrRef{}}
	for _, p := range params {
		schema := p.Schema
		if schema == nil {
			schema = &spec.SchemaOrRef{Schema: &spec.Schema{Type: "string"}}
		}
		if p.Description != "" && schema.Schema != nil && schema.Schema.Description == "" {
			copied := *schema.Schema
			copied.Description = p.Description
			schema = &spec.SchemaOrRef{Schema: &copied}
		}
		s.Properties[p.Name] = schema
		s.PropertyOrder = append(s.PropertyOrder, p.Name)
		if p.Required || p.In == "path" {
			s.Required = append(s.Required, p.Name)
		}
	}
	return definitionUnit(doc, names, ns, name, s)
}

func requestParams(op *spec.Operation) []spec.Parameter {
	var out []spec.Parameter
	for _, p := range op.Parameters {
		if p.In == "path" || p.In == "query" {
			out = append(out, p)
		}
	}
	return out
}

func requestContent(op *spec.Operation) []spec.Media {
	if op.RequestBody == nil {
		return nil
	}
	return op.RequestBody.Content
}

// successContent is the content of the first 2xx response declaring any,
// else of the default response.
func successContent(op *spec.Operation) []spec.Media {
	var fallback []spec.Media
	for _, resp := range op.Responses {
		if strings.HasPrefix(resp.Status, "2") && len(resp.Content) > 0 {
			return resp.Content
		}
		if resp.Status == "default" {
			fallback = resp.Content
		}
	}
	return fallback
}

// preferredMedia picks a JSON media type when present.
func preferredMedia(content []spec.Media) *spec.Media {
	for i := range content {
		mime := content[i].Mime
		if mime == "application/json" || strings.HasSuffix(mime, "+json") {
			return &content[i]
		}
	}
	for i := range content {
		if content[i].Mime == "*/*" || strings.Contains(content[i].Mime, "json") {
			return &content[i]
		}
	}
	if len(content) > 0 {
		return &content[0]
	}
	return nil
}

func (b *Backend) typeRef(ns, name string) string {
	base := strings.TrimSuffix(b.opts.TypeImport(ns), "/")
	if base == "" {
		base = "."
	}
	return fmt.Sprintf("import('%s/%s').%s", base, name, name)
}
