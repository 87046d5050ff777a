package tsbackend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/spec"
)

// typeRenderer renders schema nodes as TypeScript type expressions and
// records the component schemas they reference, in discovery order.
type typeRenderer struct {
	doc   *spec.Document
	names componentNames
	deps  []string
	seen  map[string]bool
}

func newTypeRenderer(doc *spec.Document, names componentNames) *typeRenderer {
	return &typeRenderer{doc: doc, names: names, seen: map[string]bool{}}
}

// ref resolves a component reference. Unknown components render as any.
func (r *typeRenderer) ref(ref *spec.SchemaRef) string {
	key := ref.Name()
	if _, ok := r.doc.Schema(key); !ok {
		return "any"
	}
	if !r.seen[key] {
		r.seen[key] = true
		r.deps = append(r.deps, key)
	}
	return r.names.of(key)
}

func (r *typeRenderer) expr(sor *spec.SchemaOrRef, indent string) string {
	if sor == nil {
		return "any"
	}
	if sor.Ref != nil {
		return r.ref(sor.Ref)
	}
	return r.schema(sor.Schema, indent)
}

func (r *typeRenderer) schema(s *spec.Schema, indent string) string {
	if s == nil {
		return "any"
	}
	var t string
	switch {
	case len(s.Enum) > 0:
		t = enumUnion(s.Enum)
	case len(s.AllOf) > 0:
		parts := r.list(s.AllOf, indent)
		if len(s.Properties) > 0 {
			parts = append(parts, r.object(s, indent))
		}
		t = strings.Join(parts, " & ")
	case len(s.OneOf) > 0:
		t = strings.Join(r.list(s.OneOf, indent), " | ")
	case len(s.AnyOf) > 0:
		t = strings.Join(r.list(s.AnyOf, indent), " | ")
	default:
		t = r.primitive(s, indent)
	}
	if s.Nullable {
		t += " | null"
	}
	return t
}

func (r *typeRenderer) primitive(s *spec.Schema, indent string) string {
	switch s.Type {
	case "string":
		if s.Format == "binary" {
			return "Blob"
		}
		return "string"
	case "integer", "number":
		return "number"
	case "boolean":
		return "boolean"
	case "array":
		elem := r.expr(s.Items, indent)
		if strings.ContainsAny(elem, "|&") {
			elem = "(" + elem + ")"
		}
		return elem + "[]"
	case "object":
		if len(s.Properties) == 0 {
			return "Record<string, any>"
		}
		return r.object(s, indent)
	default:
		if len(s.Properties) > 0 {
			return r.object(s, indent)
		}
		return "any"
	}
}

func (r *typeRenderer) list(items []*spec.SchemaOrRef, indent string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		e := r.expr(it, indent)
		if strings.ContainsAny(e, "|&") && len(items) > 1 {
			e = "(" + e + ")"
		}
		out = append(out, e)
	}
	return out
}

func (r *typeRenderer) object(s *spec.Schema, indent string) string {
	return "{\n" + r.members(s, indent+"  ") + indent + "}"
}

// members renders one line per property of s.
func (r *typeRenderer) members(s *spec.Schema, indent string) string {
	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}
	names := s.PropertyOrder
	if len(names) != len(s.Properties) {
		names = make([]string, 0, len(s.Properties))
		for name := range s.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	var b strings.Builder
	for _, name := range names {
		prop := s.Properties[name]
		if prop != nil && prop.Schema != nil {
			writeDoc(&b, indent, prop.Schema.Description, false)
		}
		opt := "?"
		if required[name] {
			opt = ""
		}
		fmt.Fprintf(&b, "%s%s%s: %s;\n", indent, propertyKey(name), opt, r.expr(prop, indent))
	}
	return b.String()
}

func enumUnion(values []any) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		switch val := v.(type) {
		case string:
			parts = append(parts, quote(val))
		case nil:
			parts = append(parts, "null")
		default:
			parts = append(parts, fmt.Sprint(val))
		}
	}
	return strings.Join(parts, " | ")
}

// isInterface reports whether s renders as a named interface rather than
// a type alias.
func isInterface(s *spec.Schema) bool {
	return s != nil && len(s.Properties) > 0 && len(s.Enum) == 0 &&
		len(s.AllOf) == 0 && len(s.OneOf) == 0 && len(s.AnyOf) == 0 &&
		!s.Nullable && (s.Type == "object" || s.Type == "")
}

// declaration renders an interface or type alias for name, exported when
// exported is set.
func (r *typeRenderer) declaration(name string, s *spec.Schema, exported bool) string {
	var b strings.Builder
	if s != nil {
		writeDoc(&b, "", s.Description, false)
	}
	if exported {
		b.WriteString("export ")
	}
	if isInterface(s) {
		fmt.Fprintf(&b, "interface %s {\n%s}\n", name, r.members(s, "  "))
		return b.String()
	}
	fmt.Fprintf(&b, "type %s = %s;\n", name, r.schema(s, ""))
	return b.String()
}

// writeDoc writes a JSDoc block; nothing when text is empty and the
// operation is not deprecated.
func writeDoc(b *strings.Builder, indent, text string, deprecated bool) {
	text = strings.TrimSpace(text)
	if text == "" && !deprecated {
		return
	}
	lines := strings.Split(strings.ReplaceAll(text, "*/", "*\\/"), "\n")
	if !deprecated && len(lines) == 1 {
		fmt.Fprintf(b, "%s/** %s */\n", indent, lines[0])
		return
	}
	fmt.Fprintf(b, "%s/**\n", indent)
	if text != "" {
		for _, l := range lines {
			fmt.Fprintf(b, "%s * %s\n", indent, strings.TrimRight(l, " \t\r"))
		}
	}
	if deprecated {
		fmt.Fprintf(b, "%s * @deprecated\n", indent)
	}
	fmt.Fprintf(b, "%s */\n", indent)
}
