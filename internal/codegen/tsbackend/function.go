package tsbackend

import (
	"fmt"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/spec"
)

// function renders the exported request function of op.
func (b *Backend) function(op *spec.Operation, fn, ns string, t operationTypes) string {
	var sb strings.Builder

	text := op.Summary
	if op.Description != "" && op.Description != op.Summary {
		if text != "" {
			text += "\n"
		}
		text += op.Description
	}
	writeDoc(&sb, "", text, op.Deprecated)

	pathParams, queryParams := splitParams(op)
	bodyRequired := op.RequestBody != nil && op.RequestBody.Required

	var args []string
	if t.params != "" {
		optional := len(pathParams) == 0 && t.body == "" && !anyRequired(queryParams)
		args = append(args, argument("params", optional, b.typeRef(ns, t.params)))
	}
	if t.body != "" {
		args = append(args, argument("data", !bodyRequired, b.typeRef(ns, t.body)))
	}

	generic := ""
	if t.result != "" {
		generic = "<" + b.typeRef(ns, t.result) + ">"
	}

	fmt.Fprintf(&sb, "export function %s(%s) {\n", fn, strings.Join(args, ", "))
	fmt.Fprintf(&sb, "  return %s%s(%s, {\n", b.opts.RequestFunc, generic, requestURL(op.Path, t.params != ""))
	fmt.Fprintf(&sb, "    method: '%s',\n", strings.ToUpper(string(op.Method)))
	if q := queryExpr(pathParams, queryParams); q != "" {
		fmt.Fprintf(&sb, "    params: %s,\n", q)
	}
	if t.body != "" {
		sb.WriteString("    data,\n")
	}
	sb.WriteString("  });\n}\n\n")
	return sb.String()
}

func argument(name string, optional bool, typ string) string {
	if optional {
		return name + "?: " + typ
	}
	return name + ": " + typ
}

func splitParams(op *spec.Operation) (path, query []spec.Parameter) {
	for _, p := range op.Parameters {
		switch p.In {
		case "path":
			path = append(path, p)
		case "query":
			query = append(query, p)
		}
	}
	return path, query
}

func anyRequired(params []spec.Parameter) bool {
	for _, p := range params {
		if p.Required {
			return true
		}
	}
	return false
}

// requestURL renders the request path, substituting {name} templates with
// values from params when the function takes them.
func requestURL(p string, hasParams bool) string {
	if !hasParams || !strings.Contains(p, "{") {
		return quote(p)
	}
	var b strings.Builder
	b.WriteByte('`')
	for len(p) > 0 {
		open := strings.IndexByte(p, '{')
		if open < 0 {
			b.WriteString(escapeTemplate(p))
			break
		}
		end := strings.IndexByte(p[open:], '}')
		if end < 0 {
			b.WriteString(escapeTemplate(p))
			break
		}
		b.WriteString(escapeTemplate(p[:open]))
		name := p[open+1 : open+end]
		fmt.Fprintf(&b, "${encodeURIComponent(String(%s))}", accessor("params", name))
		p = p[open+end+1:]
	}
	b.WriteByte('`')
	return b.String()
}

func escapeTemplate(s string) string {
	s = strings.ReplaceAll(s, "`", "\\`")
	return strings.ReplaceAll(s, "${", "\\${")
}

// queryExpr is the value of the request's params option: the whole params
// object when it only holds query values, otherwise the query members.
func queryExpr(pathParams, queryParams []spec.Parameter) string {
	if len(queryParams) == 0 {
		return ""
	}
	if len(pathParams) == 0 {
		return "params"
	}
	parts := make([]string, 0, len(queryParams))
	for _, p := range queryParams {
		parts = append(parts, fmt.Sprintf("%s: %s", propertyKey(p.Name), accessor("params", p.Name)))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}
