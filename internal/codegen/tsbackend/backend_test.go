package tsbackend

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/mark3labs/swagger2ts/internal/codegen"
	"github.com/mark3labs/swagger2ts/internal/errs"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

func ref(name string) *spec.SchemaOrRef {
	return &spec.SchemaOrRef{Ref: &spec.SchemaRef{Ref: "#/components/schemas/" + name}}
}

func inline(s *spec.Schema) *spec.SchemaOrRef { return &spec.SchemaOrRef{Schema: s} }

func object(required []string, props map[string]*spec.SchemaOrRef) *spec.Schema {
	s := &spec.Schema{Type: "object", Properties: props, Required: required}
	for name := range props {
		s.PropertyOrder = append(s.PropertyOrder, name)
	}
	return s
}

func testDoc() *spec.Document {
	doc := &spec.Document{
		Schemas: map[string]*spec.Schema{
			"UserDTO": func() *spec.Schema {
				s := object([]string{"name"}, map[string]*spec.SchemaOrRef{
					"address": ref("Address"),
					"name":    inline(&spec.Schema{Type: "string"}),
				})
				s.PropertyOrder = []string{"address", "name"}
				s.Description = "A user"
				return s
			}(),
			"Address": object(nil, map[string]*spec.SchemaOrRef{"city": inline(&spec.Schema{Type: "string"})}),
			"Order":   object(nil, map[string]*spec.SchemaOrRef{"id": inline(&spec.Schema{Type: "integer"})}),
			"Node": func() *spec.Schema {
				s := object(nil, map[string]*spec.SchemaOrRef{
					"children": inline(&spec.Schema{Type: "array", Items: ref("Node")}),
				})
				return s
			}(),
		},
		SchemaKeys: []string{"UserDTO", "Address", "Order", "Node"},
	}
	doc.Operations = []spec.Operation{
		{
			ID: "get /users/{id}", Method: spec.GET, Path: "/users/{id}",
			OperationID: "getUser", Summary: "Get a user", Tags: []string{"user"}, Namespace: "user",
			Parameters: []spec.Parameter{
				{Name: "id", In: "path", Required: true, Schema: inline(&spec.Schema{Type: "integer"})},
				{Name: "verbose", In: "query", Schema: inline(&spec.Schema{Type: "boolean"})},
				{Name: "X-Trace", In: "header", Schema: inline(&spec.Schema{Type: "string"})},
			},
			Responses: []spec.Response{
				{Status: "200", Content: []spec.Media{{Mime: "application/json", Schema: ref("UserDTO")}}},
			},
		},
		{
			ID: "post /orders", Method: spec.POST, Path: "/orders", Namespace: "orders",
			RequestBody: &spec.RequestBody{Required: true, Content: []spec.Media{{
				Mime:   "application/json",
				Schema: inline(object([]string{"qty"}, map[string]*spec.SchemaOrRef{"qty": inline(&spec.Schema{Type: "integer"})})),
			}}},
			Responses: []spec.Response{
				{Status: "201", Content: []spec.Media{{Mime: "application/json", Schema: inline(&spec.Schema{Type: "array", Items: ref("Order")})}}},
			},
		},
		{ID: "get /users", Method: spec.GET, Path: "/users", Namespace: "user"},
	}
	return doc
}

func emit(t *testing.T, b *Backend, doc *spec.Document, target codegen.Target, onlyDef bool) []codegen.Unit {
	t.Helper()
	units, err := b.Emit(context.Background(), doc, target, onlyDef)
	if err != nil {
		t.Fatalf("emit %s: %v", target, err)
	}
	return units
}

func TestEmit_OperationWithParamsAndRefResult(t *testing.T) {
	t.Parallel()
	doc := testDoc()
	units := emit(t, New(Options{}), doc, codegen.Target{Operation: &doc.Operations[0]}, false)

	var got []string
	for _, u := range units {
		got = append(got, u.Kind.String()+":"+u.RelPath)
	}
	want := []string{
		"definition:GetUserParams.ts",
		"definition:UserDTO.ts",
		"definition:Address.ts",
		"implementation:user.ts",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("units mismatch:\n got %v\nwant %v", got, want)
	}
	for _, u := range units {
		if u.Namespace != "user" {
			t.Errorf("%s: namespace %q", u.RelPath, u.Namespace)
		}
	}

	params := `// Code generated by swagger2ts. DO NOT EDIT.

export interface GetUserParams {
  id: number;
  verbose?: boolean;
}
`
	if units[0].Source != params {
		t.Errorf("params source:\n%s", units[0].Source)
	}
	if units[0].TypeName != "GetUserParams" {
		t.Errorf("type name %q", units[0].TypeName)
	}

	user := `// Code generated by swagger2ts. DO NOT EDIT.

import type { Address } from './Address';

/** A user */
export interface UserDTO {
  address?: Address;
  name: string;
}
`
	if units[1].Source != user {
		t.Errorf("UserDTO source:\n%s", units[1].Source)
	}

	impl := "/** Get a user */\n" +
		"export function getUser(params: import('./user/GetUserParams').GetUserParams) {\n" +
		"  return request<import('./user/UserDTO').UserDTO>(`/users/${encodeURIComponent(String(params.id))}`, {\n" +
		"    method: 'GET',\n" +
		"    params: { verbose: params.verbose },\n" +
		"  });\n" +
		"}\n\n"
	if units[3].Source != impl {
		t.Errorf("implementation source:\n%s\nwant:\n%s", units[3].Source, impl)
	}
}

func TestEmit_InlineBodyAndResult(t *testing.T) {
	t.Parallel()
	doc := testDoc()
	units := emit(t, New(Options{RequestFunc: "http"}), doc, codegen.Target{Operation: &doc.Operations[1]}, false)

	names := make([]string, 0, len(units))
	for _, u := range units {
		names = append(names, u.TypeName)
	}
	if want := []string{"PostOrdersBody", "PostOrdersResult", "Order", ""}; !reflect.DeepEqual(names, want) {
		t.Fatalf("type names: got %v want %v", names, want)
	}
	if !strings.Contains(units[1].Source, "import type { Order } from './Order';") ||
		!strings.Contains(units[1].Source, "export type PostOrdersResult = Order[];") {
		t.Errorf("result alias:\n%s", units[1].Source)
	}
	impl := units[3].Source
	for _, want := range []string{
		"export function postOrders(data: import('./orders/PostOrdersBody').PostOrdersBody) {",
		"return http<import('./orders/PostOrdersResult').PostOrdersResult>('/orders', {",
		"method: 'POST',",
		"data,",
	} {
		if !strings.Contains(impl, want) {
			t.Errorf("implementation missing %q:\n%s", want, impl)
		}
	}
}

func TestEmit_OnlyDefinition(t *testing.T) {
	t.Parallel()
	doc := testDoc()
	units := emit(t, New(Options{}), doc, codegen.Target{Operation: &doc.Operations[0]}, true)
	for _, u := range units {
		if u.Kind != codegen.Definition {
			t.Fatalf("unexpected %s unit %s", u.Kind, u.RelPath)
		}
	}
	if len(units) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(units))
	}
}

func TestEmit_BareOperationHasOnlyImplementation(t *testing.T) {
	t.Parallel()
	doc := testDoc()
	units := emit(t, New(Options{}), doc, codegen.Target{Operation: &doc.Operations[2]}, false)
	if len(units) != 1 || units[0].Kind != codegen.Implementation {
		t.Fatalf("expected a single implementation unit, got %+v", units)
	}
	want := "export function getUsers() {\n  return request('/users', {\n    method: 'GET',\n  });\n}\n\n"
	if units[0].Source != want {
		t.Errorf("source:\n%s", units[0].Source)
	}
}

func TestEmit_SchemaKey(t *testing.T) {
	t.Parallel()
	doc := testDoc()
	units := emit(t, New(Options{}), doc, codegen.Target{SchemaKey: "UserDTO"}, true)
	if len(units) != 1 {
		t.Fatalf("expected one unit, got %d", len(units))
	}
	u := units[0]
	if u.Kind != codegen.Definition || u.TypeName != "UserDTO" || u.RelPath != "UserDTO.ts" || u.Namespace != spec.DefaultNamespace {
		t.Fatalf("unexpected unit %+v", u)
	}

	_, err := New(Options{}).Emit(context.Background(), doc, codegen.Target{SchemaKey: "Missing"}, true)
	if !errs.Is(err, errs.SelectorNotFound) {
		t.Fatalf("expected SelectorNotFound, got %v", err)
	}
}

func TestEmit_SchemaKeyIsSelfContained(t *testing.T) {
	t.Parallel()
	doc := &spec.Document{
		Schemas: map[string]*spec.Schema{
			"Order":   object([]string{"buyer"}, map[string]*spec.SchemaOrRef{"buyer": ref("User")}),
			"User":    object(nil, map[string]*spec.SchemaOrRef{"address": ref("Address"), "orders": inline(&spec.Schema{Type: "array", Items: ref("Order")})}),
			"Address": object(nil, map[string]*spec.SchemaOrRef{"city": inline(&spec.Schema{Type: "string"})}),
		},
		SchemaKeys: []string{"Order", "User", "Address"},
	}
	doc.Schemas["User"].PropertyOrder = []string{"address", "orders"}

	units := emit(t, New(Options{}), doc, codegen.Target{SchemaKey: "Order"}, true)
	if len(units) != 1 {
		t.Fatalf("expected one unit, got %d", len(units))
	}
	want := generatedMarker + `
export interface Order {
  buyer: User;
}

interface User {
  address?: Address;
  orders?: Order[];
}

interface Address {
  city?: string;
}
`
	if units[0].Source != want {
		t.Errorf("source:\n%s\nwant:\n%s", units[0].Source, want)
	}
	if strings.Contains(units[0].Source, "import") {
		t.Errorf("schema-key unit must not import files that are never written")
	}
}

func TestEmit_CollidingComponentNames(t *testing.T) {
	t.Parallel()
	doc := &spec.Document{
		Schemas: map[string]*spec.Schema{
			"user": object(nil, map[string]*spec.SchemaOrRef{"id": inline(&spec.Schema{Type: "integer"})}),
			"User": object(nil, map[string]*spec.SchemaOrRef{"name": inline(&spec.Schema{Type: "string"})}),
		},
		SchemaKeys: []string{"user", "User"},
		Operations: []spec.Operation{{
			ID: "get /both", Method: spec.GET, Path: "/both", Namespace: "both",
			Responses: []spec.Response{{Status: "200", Content: []spec.Media{{
				Mime: "application/json",
				Schema: inline(object([]string{"a", "b"}, map[string]*spec.SchemaOrRef{
					"a": ref("user"),
					"b": ref("User"),
				})),
			}}}},
		}},
	}
	doc.Operations[0].Responses[0].Content[0].Schema.Schema.PropertyOrder = []string{"a", "b"}

	units := emit(t, New(Options{}), doc, codegen.Target{Operation: &doc.Operations[0]}, true)
	var got []string
	for _, u := range units {
		got = append(got, u.TypeName)
	}
	if want := []string{"GetBothResult", "User", "User2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("type names = %v, want %v", got, want)
	}
	if !strings.Contains(units[0].Source, "a: User;\n  b: User2;") {
		t.Errorf("colliding refs not disambiguated:\n%s", units[0].Source)
	}
	if !strings.Contains(units[2].Source, "name?: string;") {
		t.Errorf("User2 should hold the second schema:\n%s", units[2].Source)
	}
}

func TestEmit_RecursiveSchemaDoesNotImportItself(t *testing.T) {
	t.Parallel()
	doc := testDoc()
	units := emit(t, New(Options{}), doc, codegen.Target{SchemaKey: "Node"}, true)
	src := units[0].Source
	if strings.Contains(src, "import type") {
		t.Errorf("self import in:\n%s", src)
	}
	if !strings.Contains(src, "children?: Node[];") {
		t.Errorf("recursive member missing:\n%s", src)
	}
}

func TestEmit_CustomTypeImport(t *testing.T) {
	t.Parallel()
	doc := testDoc()
	b := New(Options{TypeImport: func(string) string { return "../types/" }})
	units := emit(t, b, doc, codegen.Target{Operation: &doc.Operations[0]}, false)
	impl := units[len(units)-1].Source
	if !strings.Contains(impl, "import('../types/GetUserParams').GetUserParams") {
		t.Errorf("custom import path not used:\n%s", impl)
	}
}

func TestEmit_Deterministic(t *testing.T) {
	t.Parallel()
	doc := testDoc()
	b := New(Options{})
	for i := range doc.Operations {
		target := codegen.Target{Operation: &doc.Operations[i]}
		first := emit(t, b, doc, target, false)
		second := emit(t, b, doc, target, false)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("%s: output differs between runs", target)
		}
	}
}

func TestEmit_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := testDoc()
	if _, err := New(Options{}).Emit(ctx, doc, codegen.Target{Operation: &doc.Operations[0]}, false); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestSchemaExpressions(t *testing.T) {
	t.Parallel()
	doc := testDoc()
	tests := []struct {
		name   string
		schema *spec.Schema
		want   string
	}{
		{"enum", &spec.Schema{Type: "string", Enum: []any{"a", "b'c"}}, `'a' | 'b\'c'`},
		{"numeric enum", &spec.Schema{Type: "integer", Enum: []any{1, 2}}, "1 | 2"},
		{"nullable", &spec.Schema{Type: "string", Nullable: true}, "string | null"},
		{"binary", &spec.Schema{Type: "string", Format: "binary"}, "Blob"},
		{"free object", &spec.Schema{Type: "object"}, "Record<string, any>"},
		{"untyped", &spec.Schema{}, "any"},
		{"all of", &spec.Schema{AllOf: []*spec.SchemaOrRef{ref("Address"), ref("Order")}}, "Address & Order"},
		{"one of array", &spec.Schema{Type: "array", Items: inline(&spec.Schema{OneOf: []*spec.SchemaOrRef{ref("Address"), ref("Order")}})}, "(Address | Order)[]"},
		{"unknown ref", &spec.Schema{Type: "array", Items: ref("Ghost")}, "any[]"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := newTypeRenderer(doc, newComponentNames(doc)).schema(tt.schema, ""); got != tt.want {
				t.Errorf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestNames(t *testing.T) {
	t.Parallel()
	typeNames := map[string]string{
		"UserDTO":            "UserDTO",
		"pet":                "Pet",
		"Result«List«User»»": "ResultListUser",
		"user-info":          "UserInfo",
	}
	for in, want := range typeNames {
		if got := typeName(in); got != want {
			t.Errorf("typeName(%q) = %q, want %q", in, got, want)
		}
	}

	funcs := []struct {
		op   spec.Operation
		want string
	}{
		{spec.Operation{OperationID: "ListPets"}, "listPets"},
		{spec.Operation{OperationID: "list-pets"}, "listPets"},
		{spec.Operation{OperationID: "delete"}, "deleteApi"},
		{spec.Operation{Method: spec.GET, Path: "/users/{id}"}, "getUsersById"},
		{spec.Operation{Method: spec.POST, Path: "/"}, "post"},
	}
	for _, tt := range funcs {
		if got := funcName(&tt.op); got != tt.want {
			t.Errorf("funcName(%+v) = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestRequestURL(t *testing.T) {
	t.Parallel()
	if got := requestURL("/a/{b}/c", false); got != "'/a/{b}/c'" {
		t.Errorf("without params: %s", got)
	}
	want := "`/a/${encodeURIComponent(String(params['user-id']))}/c`"
	if got := requestURL("/a/{user-id}/c", true); got != want {
		t.Errorf("got %s want %s", got, want)
	}
}
