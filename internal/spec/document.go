package spec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ettle/strcase"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// DefaultNamespace groups operations that declare no tag and have no
// static path segment.
const DefaultNamespace = "common"

// BuildDocument converts a parsed OpenAPI v3 document into a Document.
// raw is the source the document was parsed from; it is used to recover
// declaration order, which kin-openapi's maps do not keep. When raw is nil
// or unreadable, paths are ordered lexically.
func BuildDocument(doc *openapi3.T, raw []byte) (*Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	order := declarationOrder(raw)

	out := &Document{}
	if doc.Info != nil {
		out.Title = safeStr(doc.Info.Title)
		out.Version = safeStr(doc.Info.Version)
		out.Description = safeStr(doc.Info.Description)
	}

	if doc.Components != nil && len(doc.Components.Schemas) > 0 {
		out.Schemas = make(map[string]*Schema, len(doc.Components.Schemas))
		for _, name := range orderedKeys(doc.Components.Schemas, order.schemas) {
			sor := toSchemaOrRef(doc.Components.Schemas[name])
			if sor == nil {
				continue
			}
			var s *Schema
			if sor.Ref != nil {
				// A top-level alias to another component.
				s = &Schema{AllOf: []*SchemaOrRef{sor}}
			} else {
				s = sor.Schema
			}
			s.Name = name
			out.Schemas[name] = s
			out.SchemaKeys = append(out.SchemaKeys, name)
		}
	}

	for _, p := range orderedKeys(doc.Paths, order.paths) {
		item := doc.Paths[p]
		if item == nil {
			continue
		}
		for _, m := range methodOrder(order.methods[p]) {
			op := item.GetOperation(strings.ToUpper(string(m)))
			if op == nil {
				continue
			}
			out.Operations = append(out.Operations, buildOperation(p, m, item, op))
		}
	}
	return out, nil
}

func buildOperation(path string, method HttpMethod, item *openapi3.PathItem, op *openapi3.Operation) Operation {
	// Path-level parameters first, overridden by operation-level ones.
	var params []Parameter
	index := map[string]int{}
	add := func(refs openapi3.Parameters) {
		for _, ref := range refs {
			pm := toParameter(ref)
			if pm == nil {
				continue
			}
			key := pm.In + ":" + pm.Name
			if i, ok := index[key]; ok {
				params[i] = *pm
				continue
			}
			index[key] = len(params)
			params = append(params, *pm)
		}
	}
	add(item.Parameters)
	add(op.Parameters)

	var body *RequestBody
	if op.RequestBody != nil && op.RequestBody.Value != nil {
		body = &RequestBody{
			Required: op.RequestBody.Value.Required,
			Content:  toMediaList(op.RequestBody.Value.Content),
		}
	}

	var responses []Response
	codes := make([]string, 0, len(op.Responses))
	for code := range op.Responses {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		ref := op.Responses[code]
		if ref == nil || ref.Value == nil {
			continue
		}
		desc := ""
		if ref.Value.Description != nil {
			desc = safeStr(*ref.Value.Description)
		}
		responses = append(responses, Response{Status: code, Description: desc, Content: toMediaList(ref.Value.Content)})
	}

	tags := make([]string, 0, len(op.Tags))
	for _, t := range op.Tags {
		if t = safeStr(t); t != "" {
			tags = append(tags, t)
		}
	}

	return Operation{
		ID:          string(method) + " " + path,
		Method:      method,
		Path:        path,
		OperationID: safeStr(op.OperationID),
		Summary:     safeStr(op.Summary),
		Description: safeStr(op.Description),
		Tags:        tags,
		Namespace:   namespaceFor(path, tags),
		Deprecated:  op.Deprecated,
		Parameters:  params,
		RequestBody: body,
		Responses:   responses,
	}
}

// namespaceFor picks the first tag, else the first static path segment.
func namespaceFor(path string, tags []string) string {
	if len(tags) > 0 {
		if ns := strcase.ToCamel(tags[0]); ns != "" {
			return ns
		}
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || strings.HasPrefix(seg, "{") {
			continue
		}
		if ns := strcase.ToCamel(seg); ns != "" {
			return ns
		}
	}
	return DefaultNamespace
}

func safeStr(s string) string { return strings.TrimSpace(s) }

func toParameter(ref *openapi3.ParameterRef) *Parameter {
	if ref == nil || ref.Value == nil {
		return nil
	}
	p := ref.Value
	return &Parameter{
		Name:        safeStr(p.Name),
		In:          safeStr(p.In),
		Required:    p.Required,
		Description: safeStr(p.Description),
		Schema:      toSchemaOrRef(p.Schema),
	}
}

func toMediaList(content openapi3.Content) []Media {
	if len(content) == 0 {
		return nil
	}
	mimes := make([]string, 0, len(content))
	for k := range content {
		mimes = append(mimes, k)
	}
	sort.Strings(mimes)
	out := make([]Media, 0, len(mimes))
	for _, mime := range mimes {
		mt := content[mime]
		if mt == nil {
			continue
		}
		out = append(out, Media{Mime: mime, Schema: toSchemaOrRef(mt.Schema)})
	}
	return out
}

func toSchemaOrRef(ref *openapi3.SchemaRef) *SchemaOrRef {
	if ref == nil {
		return nil
	}
	if ref.Ref != "" {
		return &SchemaOrRef{Ref: &SchemaRef{Ref: ref.Ref}}
	}
	if ref.Value == nil {
		return &SchemaOrRef{Schema: &Schema{Type: "object"}}
	}
	v := ref.Value
	s := &Schema{
		Type:        safeStr(v.Type),
		Description: safeStr(v.Description),
		Format:      safeStr(v.Format),
		Nullable:    v.Nullable,
		Required:    append([]string(nil), v.Required...),
	}
	if len(v.Enum) > 0 {
		s.Enum = append([]any(nil), v.Enum...)
	}
	s.Items = toSchemaOrRef(v.Items)
	if len(v.Properties) > 0 {
		s.Properties = make(map[string]*SchemaOrRef, len(v.Properties))
		for name, prop := range v.Properties {
			s.Properties[name] = toSchemaOrRef(prop)
			s.PropertyOrder = append(s.PropertyOrder, name)
		}
		sort.Strings(s.PropertyOrder)
	}
	for _, r := range v.AllOf {
		s.AllOf = append(s.AllOf, toSchemaOrRef(r))
	}
	for _, r := range v.AnyOf {
		s.AnyOf = append(s.AnyOf, toSchemaOrRef(r))
	}
	for _, r := range v.OneOf {
		s.OneOf = append(s.OneOf, toSchemaOrRef(r))
	}
	return &SchemaOrRef{Schema: s}
}

type sourceOrder struct {
	paths   []string
	methods map[string][]string
	schemas []string
}

// declarationOrder walks the raw YAML/JSON node tree and records the order
// in which paths, methods and component schemas were declared.
func declarationOrder(raw []byte) sourceOrder {
	order := sourceOrder{methods: map[string][]string{}}
	if len(raw) == 0 {
		return order
	}
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil || len(root.Content) == 0 {
		return order
	}
	top := root.Content[0]

	if paths := mappingValue(top, "paths"); paths != nil {
		for i := 0; i+1 < len(paths.Content); i += 2 {
			p := paths.Content[i].Value
			order.paths = append(order.paths, p)
			item := paths.Content[i+1]
			if item.Kind != yaml.MappingNode {
				continue
			}
			for j := 0; j+1 < len(item.Content); j += 2 {
				order.methods[p] = append(order.methods[p], strings.ToLower(item.Content[j].Value))
			}
		}
	}

	schemas := mappingValue(mappingValue(top, "components"), "schemas")
	if schemas == nil {
		schemas = mappingValue(top, "definitions") // swagger 2.0
	}
	if schemas != nil {
		for i := 0; i+1 < len(schemas.Content); i += 2 {
			order.schemas = append(order.schemas, schemas.Content[i].Value)
		}
	}
	return order
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// orderedKeys returns the keys of m, declared ones first in declaration
// order, the rest sorted.
func orderedKeys[V any](m map[string]V, declared []string) []string {
	out := make([]string, 0, len(m))
	seen := make(map[string]struct{}, len(m))
	for _, k := range declared {
		if _, ok := m[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	var rest []string
	for k := range m {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// methodOrder keeps declared methods first, then any remaining ones in
// canonical order.
func methodOrder(declared []string) []HttpMethod {
	out := make([]HttpMethod, 0, len(Methods))
	seen := map[HttpMethod]bool{}
	for _, d := range declared {
		if m, ok := ParseMethod(d); ok && !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	for _, m := range Methods {
		if !seen[m] {
			out = append(out, m)
		}
	}
	return out
}
