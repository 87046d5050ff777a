package spec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	openapi2 "github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// ErrorCode categorizes parse errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
	ConversionError ErrorCode = "ConversionError"
)

// SpecError is a structured parse error with optional location and JSON Pointer.
type SpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path or URL
	JSONPointer string // e.g. "#/paths/~1pets/get"
	Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

// Parse decodes raw document bytes into an OpenAPI v3 document. Swagger 2.0
// input is repaired where kin-openapi would reject it and converted to v3.
// location names the origin for error messages; when it is a local file
// path, relative external refs are resolved against it.
func Parse(ctx context.Context, raw []byte, location string) (*openapi3.T, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, &SpecError{Code: InputError, Message: "spec: document is empty", Location: location}
	}

	version, err := detectSpecVersion(raw)
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: location, Cause: err}
	}

	var doc *openapi3.T
	switch version {
	case 3:
		loader := newLoader(location)
		if isLocalPath(location) {
			abs, aerr := filepath.Abs(location)
			if aerr != nil {
				abs = location
			}
			doc, err = loader.LoadFromDataWithPath(raw, &url.URL{Path: filepath.ToSlash(abs)})
		} else {
			doc, err = loader.LoadFromData(raw)
		}
		if err != nil {
			return nil, mapValidateOrParseErr(err, location)
		}
	case 2:
		if fixed, changed, _ := repairV2(raw); changed {
			raw = fixed
		}
		doc, err = convertV2ToV3(raw)
		if err != nil {
			return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v2→v3: %v", err), Location: location, Cause: err}
		}
		if err := newLoader(location).ResolveRefsIn(doc, nil); err != nil && !canProceedDespiteValidation(err) {
			return nil, mapValidateOrParseErr(err, location)
		}
	}

	if err := doc.Validate(ctx); err != nil && !canProceedDespiteValidation(err) {
		return nil, mapValidateOrParseErr(err, location)
	}
	return doc, nil
}

func isLocalPath(location string) bool {
	if location == "" {
		return false
	}
	u, err := url.Parse(location)
	return err != nil || u.Scheme == "" || len(u.Scheme) == 1 // windows drive letters
}

func newLoader(location string) *openapi3.Loader {
	loader := openapi3.NewLoader()
	// External refs only make sense relative to a file on disk.
	loader.IsExternalRefsAllowed = isLocalPath(location)
	loader.ReadFromURIFunc = func(l *openapi3.Loader, uri *url.URL) ([]byte, error) {
		switch strings.ToLower(uri.Scheme) {
		case "", "file":
			path := uri.Path
			if path == "" {
				path = uri.Opaque
			}
			return os.ReadFile(filepath.FromSlash(path))
		default:
			return nil, fmt.Errorf("blocked remote ref: %s", uri.String())
		}
	}
	return loader
}

// detectSpecVersion returns 3 for OpenAPI v3, 2 for Swagger v2, else error.
func detectSpecVersion(data []byte) (int, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return 0, fmt.Errorf("parse spec: %w", err)
	}
	if s, _ := root["openapi"].(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
		return 3, nil
	}
	if s, _ := root["swagger"].(string); strings.HasPrefix(strings.TrimSpace(s), "2.") {
		return 2, nil
	}
	return 0, errors.New("spec: missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')")
}

// convertV2ToV3 round-trips YAML or JSON input through encoding/json so the
// openapi2 types see their JSON field names.
func convertV2ToV3(data []byte) (*openapi3.T, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	asJSON, err := json.Marshal(jsonCompatible(generic))
	if err != nil {
		return nil, err
	}
	var v2 openapi2.T
	if err := json.Unmarshal(asJSON, &v2); err != nil {
		return nil, err
	}
	if v2.Info.Title == "" && v2.Info.Version == "" {
		return nil, errors.New("swagger document has no info section")
	}
	return openapi2conv.ToV3(&v2)
}

// jsonCompatible rewrites non-string map keys (for example unquoted
// response codes) so the value can be JSON encoded.
func jsonCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, elem := range val {
			val[k] = jsonCompatible(elem)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[fmt.Sprint(k)] = jsonCompatible(elem)
		}
		return out
	case []any:
		for i, elem := range val {
			val[i] = jsonCompatible(elem)
		}
		return val
	default:
		return v
	}
}

func mapValidateOrParseErr(err error, location string) error {
	code := ValidationError
	lowered := strings.ToLower(err.Error())
	if strings.Contains(lowered, "unmarshal") || strings.Contains(lowered, "invalid character") || strings.Contains(lowered, "yaml:") {
		code = ParseError
	}
	return &SpecError{Code: code, Message: err.Error(), Location: location, JSONPointer: extractJSONPointer(err), Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	var me openapi3.MultiError
	if errors.As(err, &me) && len(me) > 0 {
		return extractJSONPointer(me[0])
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
	}
	return jsonPtrRe.FindString(err.Error())
}

// canProceedDespiteValidation tolerates unresolved refs so a best-effort
// generation can still run.
func canProceedDespiteValidation(err error) bool {
	if err == nil {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unresolved ref")
}
