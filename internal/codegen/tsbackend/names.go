package tsbackend

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/ettle/strcase"

	"github.com/mark3labs/swagger2ts/internal/spec"
)

var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true, "with": true,
}

// words replaces every rune that cannot appear in an identifier with a
// space so strcase sees clean word boundaries. Generic markers such as
// "Result«List«User»»" collapse into words.
func words(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
}

// typeName converts a component key into an exported TypeScript type name.
// Keys that already are identifiers keep their spelling.
func typeName(key string) string {
	if isIdentifier(key) {
		return upperFirst(key)
	}
	name := strcase.ToPascal(words(key))
	if name == "" {
		return "Schema"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "T" + name
	}
	return name
}

// componentNames maps component keys to distinct type names. Keys whose
// names collide, such as "user" and "User", are numbered in declaration
// order: the first keeps the plain name.
type componentNames map[string]string

func newComponentNames(doc *spec.Document) componentNames {
	keys := append([]string(nil), doc.SchemaKeys...)
	listed := make(map[string]bool, len(keys))
	for _, k := range keys {
		listed[k] = true
	}
	var unlisted []string
	for k := range doc.Schemas {
		if !listed[k] {
			unlisted = append(unlisted, k)
		}
	}
	sort.Strings(unlisted)
	keys = append(keys, unlisted...)

	names := make(componentNames, len(keys))
	used := make(map[string]bool, len(keys))
	for _, key := range keys {
		if _, done := names[key]; done {
			continue
		}
		base := typeName(key)
		name := base
		for i := 2; used[name]; i++ {
			name = fmt.Sprintf("%s%d", base, i)
		}
		used[name] = true
		names[key] = name
	}
	return names
}

// of returns the type name of key.
func (n componentNames) of(key string) string {
	if name, ok := n[key]; ok {
		return name
	}
	return typeName(key)
}

// funcName derives the request function name of op: its operationId, or
// the method followed by the path segments.
func funcName(op *spec.Operation) string {
	var name string
	switch {
	case isIdentifier(op.OperationID):
		name = lowerFirst(op.OperationID)
	case op.OperationID != "":
		name = strcase.ToCamel(words(op.OperationID))
	}
	if name == "" {
		parts := []string{string(op.Method)}
		for _, seg := range strings.Split(op.Path, "/") {
			if seg == "" {
				continue
			}
			if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
				parts = append(parts, "by", strings.Trim(seg, "{}"))
				continue
			}
			parts = append(parts, seg)
		}
		name = strcase.ToCamel(words(strings.Join(parts, " ")))
	}
	if name == "" {
		return "request" + strcase.ToPascal(string(op.Method))
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "op" + strcase.ToPascal(name)
	}
	if reserved[name] {
		name += "Api"
	}
	return name
}

func upperFirst(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func lowerFirst(s string) string {
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || r == '$' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// propertyKey renders an object member name, quoting it when needed.
func propertyKey(name string) string {
	if isIdentifier(name) {
		return name
	}
	return quote(name)
}

// accessor renders a member access on obj.
func accessor(obj, name string) string {
	if isIdentifier(name) {
		return obj + "." + name
	}
	return obj + "[" + quote(name) + "]"
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return "'" + s + "'"
}
