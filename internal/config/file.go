package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mark3labs/swagger2ts/internal/errs"
)

// DefaultFileName is the config file looked up when none is given.
const DefaultFileName = "swagger2ts.yaml"

// ReadFile loads a YAML or JSON config file into a Layer. Keys are matched
// ignoring case, dashes and underscores; unknown keys are rejected.
func ReadFile(path string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ConfigError, path, err, "read config file")
	}
	return ParseFile(data, path)
}

// ParseFile decodes config file bytes. location is used in error messages.
func ParseFile(data []byte, location string) (*Layer, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errs.Wrap(errs.ConfigError, location, err, "parse config file")
	}

	l := &Layer{}
	for key, value := range raw {
		var target *string
		switch normalizeKey(key) {
		case "documentpath", "input", "swaggerpath":
			target = &l.DocumentPath
		case "documenturl", "url", "swaggerurl":
			target = &l.DocumentURL
		case "cookie":
			target = &l.Cookie
		case "token":
			target = &l.Token
		case "apidir", "implementationroot":
			target = &l.ImplementationRoot
		case "typedir", "definitionroot":
			target = &l.DefinitionRoot
		case "fileheader", "header":
			target = &l.FileHeader
		case "fileheaderfile", "headerfile":
			target = &l.FileHeaderFile
		case "autoexport", "autoexportalltype", "autoexporttypes":
			b, err := valueAsBool(value)
			if err != nil {
				return nil, errs.Wrap(errs.ConfigError, location, err, "config field %q", key)
			}
			if value != nil {
				l.AutoExport = SwitchOf(b)
			}
			continue
		default:
			return nil, errs.New(errs.ConfigError, location, "config file: unknown field %q", key)
		}
		str, err := valueAsString(value)
		if err != nil {
			return nil, errs.Wrap(errs.ConfigError, location, err, "config field %q", key)
		}
		*target = str
	}
	return l, nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	return strings.NewReplacer("-", "", "_", "").Replace(lowered)
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		return parseBool(val)
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes", "y", "on":
		return true, nil
	case "false", "f", "0", "no", "n", "off", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q", s)
	}
}
