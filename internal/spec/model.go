package spec

import "strings"

// Document model consumed by search, fan-out and codegen backends.

type HttpMethod string

const (
	GET     HttpMethod = "get"
	POST    HttpMethod = "post"
	PUT     HttpMethod = "put"
	DELETE  HttpMethod = "delete"
	PATCH   HttpMethod = "patch"
	HEAD    HttpMethod = "head"
	OPTIONS HttpMethod = "options"
	TRACE   HttpMethod = "trace"
)

// Methods lists the supported HTTP methods in their canonical order.
var Methods = []HttpMethod{GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS, TRACE}

// ParseMethod maps a case-insensitive method name to an HttpMethod.
func ParseMethod(s string) (HttpMethod, bool) {
	m := HttpMethod(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, true
		}
	}
	return "", false
}

// Document is the parsed description document for one invocation. It is
// read-only once built.
type Document struct {
	Title       string
	Version     string
	Description string
	// Operations are kept in document-declaration order.
	Operations []Operation
	Schemas    map[string]*Schema
	// SchemaKeys lists Schemas keys in declaration order.
	SchemaKeys []string
}

// Operation is one path+method pair.
type Operation struct {
	ID          string // method+path
	Method      HttpMethod
	Path        string
	OperationID string
	Summary     string
	Description string
	Tags        []string
	Namespace   string
	Deprecated  bool
	Parameters  []Parameter
	RequestBody *RequestBody
	Responses   []Response
}

type Parameter struct {
	Name        string
	In          string // path|query|header|cookie
	Required    bool
	Description string
	Schema      *SchemaOrRef
}

type RequestBody struct {
	Content  []Media
	Required bool
}

type Response struct {
	Status      string // 200, 4xx, default
	Description string
	Content     []Media
}

type Media struct {
	Mime   string
	Schema *SchemaOrRef
}

type Schema struct {
	Name        string
	Type        string
	Properties  map[string]*SchemaOrRef
	// PropertyOrder lists Properties keys in a stable order.
	PropertyOrder []string
	Required      []string
	Items         *SchemaOrRef
	AllOf         []*SchemaOrRef
	AnyOf         []*SchemaOrRef
	OneOf         []*SchemaOrRef
	Description   string
	Enum          []any
	Format        string
	Nullable      bool
}

type SchemaRef struct{ Ref string }

// Name returns the component name a reference points at.
func (r SchemaRef) Name() string {
	for i := len(r.Ref) - 1; i >= 0; i-- {
		if r.Ref[i] == '/' {
			return r.Ref[i+1:]
		}
	}
	return r.Ref
}

type SchemaOrRef struct {
	Schema *Schema
	Ref    *SchemaRef
}

// Operation finds the operation with the exact path and method.
func (d *Document) Operation(path string, method HttpMethod) (*Operation, bool) {
	for i := range d.Operations {
		op := &d.Operations[i]
		if op.Path == path && op.Method == method {
			return op, true
		}
	}
	return nil, false
}

// OperationsAt returns every operation declared for path, in declaration order.
func (d *Document) OperationsAt(path string) []*Operation {
	var out []*Operation
	for i := range d.Operations {
		if d.Operations[i].Path == path {
			out = append(out, &d.Operations[i])
		}
	}
	return out
}

// Schema looks a component schema up by key.
func (d *Document) Schema(key string) (*Schema, bool) {
	s, ok := d.Schemas[key]
	return s, ok
}
