package spec

import (
	"context"
	"testing"
)

const sampleSpec = `openapi: 3.0.0
info:
  title: Sample API
  version: "1.0.0"
  description: Demo
paths:
  /pets:
    parameters:
      - in: query
        name: limit
        required: false
        schema:
          type: integer
    post:
      summary: Create pet
      tags: [pet store, write]
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Pet'
      responses:
        "201":
          description: created
    get:
      summary: List pets
      operationId: listPets
      tags: [pet store]
      parameters:
        - in: query
          name: limit
          required: true
          schema:
            type: integer
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
  /admin/{id}:
    get:
      summary: Admin only
      parameters:
        - in: path
          name: id
          required: true
          schema:
            type: string
      responses:
        "200": { description: ok }
  /{tenant}:
    delete:
      parameters:
        - in: path
          name: tenant
          required: true
          schema:
            type: string
      responses:
        "204": { description: gone }
components:
  schemas:
    Pet:
      type: object
      required: [id, name]
      properties:
        name:
          type: string
        id:
          type: integer
          format: int64
    Animal:
      $ref: '#/components/schemas/Pet'
`

func buildSample(t *testing.T) *Document {
	t.Helper()
	raw := []byte(sampleSpec)
	parsed, err := Parse(context.Background(), raw, "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	doc, err := BuildDocument(parsed, raw)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return doc
}

func TestBuildDocument_DeclarationOrder(t *testing.T) {
	t.Parallel()
	doc := buildSample(t)

	want := []string{"post /pets", "get /pets", "get /admin/{id}", "delete /{tenant}"}
	if len(doc.Operations) != len(want) {
		t.Fatalf("operations: got %d, want %d", len(doc.Operations), len(want))
	}
	for i, id := range want {
		if doc.Operations[i].ID != id {
			t.Errorf("operation %d: got %q want %q", i, doc.Operations[i].ID, id)
		}
	}
	if len(doc.SchemaKeys) != 2 || doc.SchemaKeys[0] != "Pet" || doc.SchemaKeys[1] != "Animal" {
		t.Fatalf("schema keys: got %v", doc.SchemaKeys)
	}
}

func TestBuildDocument_OrderFallbackWithoutRaw(t *testing.T) {
	t.Parallel()
	parsed, err := Parse(context.Background(), []byte(sampleSpec), "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	doc, err := BuildDocument(parsed, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if doc.Operations[0].Path != "/admin/{id}" {
		t.Fatalf("expected lexical path order, got %q first", doc.Operations[0].Path)
	}
	if doc.Operations[1].ID != "get /pets" || doc.Operations[2].ID != "post /pets" {
		t.Fatalf("expected canonical method order, got %q, %q", doc.Operations[1].ID, doc.Operations[2].ID)
	}
}

func TestBuildDocument_Namespaces(t *testing.T) {
	t.Parallel()
	doc := buildSample(t)
	cases := map[string]string{
		"get /pets":        "petStore",
		"get /admin/{id}":  "admin",
		"delete /{tenant}": DefaultNamespace,
	}
	for id, want := range cases {
		found := false
		for _, op := range doc.Operations {
			if op.ID == id {
				found = true
				if op.Namespace != want {
					t.Errorf("%s: namespace %q, want %q", id, op.Namespace, want)
				}
			}
		}
		if !found {
			t.Errorf("%s: not found", id)
		}
	}
}

func TestBuildDocument_ParameterOverrideAndSchemas(t *testing.T) {
	t.Parallel()
	doc := buildSample(t)

	op, ok := doc.Operation("/pets", GET)
	if !ok {
		t.Fatalf("get /pets missing")
	}
	if op.OperationID != "listPets" {
		t.Errorf("operationId: got %q", op.OperationID)
	}
	if len(op.Parameters) != 1 || !op.Parameters[0].Required {
		t.Fatalf("expected operation-level limit to override path-level one: %+v", op.Parameters)
	}

	post, _ := doc.Operation("/pets", POST)
	if post.RequestBody == nil || !post.RequestBody.Required {
		t.Fatalf("post /pets: expected required request body")
	}
	if ref := post.RequestBody.Content[0].Schema.Ref; ref == nil || ref.Name() != "Pet" {
		t.Fatalf("post /pets: expected Pet ref, got %+v", post.RequestBody.Content[0].Schema)
	}

	pet, ok := doc.Schema("Pet")
	if !ok {
		t.Fatalf("schemas: missing Pet")
	}
	if pet.Type != "object" || len(pet.PropertyOrder) != 2 || pet.PropertyOrder[0] != "id" {
		t.Fatalf("pet: unexpected shape %+v", pet)
	}
	alias, _ := doc.Schema("Animal")
	if alias == nil || len(alias.AllOf) != 1 || alias.AllOf[0].Ref == nil {
		t.Fatalf("animal: expected alias to Pet, got %+v", alias)
	}
}

func TestOperationsAt(t *testing.T) {
	t.Parallel()
	doc := buildSample(t)
	if got := doc.OperationsAt("/pets"); len(got) != 2 {
		t.Fatalf("expected both /pets methods, got %d", len(got))
	}
	if got := doc.OperationsAt("/missing"); len(got) != 0 {
		t.Fatalf("expected no operations, got %d", len(got))
	}
}
