package spec

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// repairV2 rewrites Swagger 2.0 operations that openapi2conv refuses:
//   - several "in: body" parameters are merged into one object body;
//   - body parameters mixed with formData become formData fields and the
//     operation consumes multipart/form-data.
//
// On any decode/encode error the input is returned unchanged.
func repairV2(data []byte) ([]byte, bool, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return data, false, err
	}
	paths, _ := doc["paths"].(map[string]any)
	changed := false
	for _, rawItem := range paths {
		item, _ := rawItem.(map[string]any)
		for method, rawOp := range item {
			if _, ok := ParseMethod(method); !ok {
				continue
			}
			op, _ := rawOp.(map[string]any)
			if op != nil && repairOperation(op) {
				changed = true
			}
		}
	}
	if !changed {
		return data, false, nil
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return data, false, err
	}
	return out, true, nil
}

func repairOperation(op map[string]any) bool {
	params, _ := op["parameters"].([]any)
	var bodies, others []map[string]any
	hasForm := false
	for _, p := range params {
		pm, _ := p.(map[string]any)
		if pm == nil {
			continue
		}
		switch in := strings.ToLower(stringField(pm, "in")); in {
		case "body":
			bodies = append(bodies, pm)
		case "formdata":
			hasForm = true
			others = append(others, pm)
		default:
			others = append(others, pm)
		}
	}

	switch {
	case len(bodies) > 0 && hasForm:
		rebuilt := make([]any, 0, len(params))
		for _, p := range params {
			pm, _ := p.(map[string]any)
			if pm == nil {
				continue
			}
			if strings.EqualFold(stringField(pm, "in"), "body") {
				rebuilt = append(rebuilt, bodyToFormField(pm))
				continue
			}
			rebuilt = append(rebuilt, pm)
		}
		op["parameters"] = rebuilt
		consumes, _ := op["consumes"].([]any)
		for _, c := range consumes {
			if c == "multipart/form-data" {
				return true
			}
		}
		op["consumes"] = append(consumes, "multipart/form-data")
		return true
	case len(bodies) > 1:
		props := map[string]any{}
		var required []any
		for _, b := range bodies {
			name := stringField(b, "name")
			if name == "" {
				name = "field"
			}
			props[name] = schemaOfParam(b)
			if req, _ := b["required"].(bool); req {
				required = append(required, name)
			}
		}
		schema := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			schema["required"] = required
		}
		rebuilt := []any{map[string]any{"in": "body", "name": "body", "schema": schema}}
		for _, o := range others {
			rebuilt = append(rebuilt, o)
		}
		op["parameters"] = rebuilt
		return true
	}
	return false
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// schemaOfParam returns the body schema, or one synthesized from the
// parameter's type/items/format.
func schemaOfParam(pm map[string]any) map[string]any {
	if sch, ok := pm["schema"].(map[string]any); ok {
		return sch
	}
	out := map[string]any{"type": "string"}
	if t := stringField(pm, "type"); t != "" {
		out["type"] = t
	}
	if items, ok := pm["items"].(map[string]any); ok {
		out["items"] = items
	}
	if f := stringField(pm, "format"); f != "" {
		out["format"] = f
	}
	return out
}

func bodyToFormField(pm map[string]any) map[string]any {
	name := stringField(pm, "name")
	if name == "" {
		name = "field"
	}
	field := map[string]any{"in": "formData", "name": name}
	if d := stringField(pm, "description"); d != "" {
		field["description"] = d
	}
	if req, ok := pm["required"].(bool); ok {
		field["required"] = req
	}
	schema := schemaOfParam(pm)
	typ, _ := schema["type"].(string)
	if _, isRef := schema["$ref"]; isRef || typ == "" || typ == "object" {
		// formData cannot carry objects or refs.
		typ = "string"
	}
	field["type"] = typ
	if items, ok := schema["items"]; ok && typ == "array" {
		field["items"] = items
	}
	if f, _ := schema["format"].(string); f != "" {
		field["format"] = f
	}
	return field
}
