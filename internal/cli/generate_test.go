package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/swagger2ts/internal/generate"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

func captureGenerate(t *testing.T) **GenerateRequest {
	t.Helper()
	var captured *GenerateRequest
	generateRunner = func(ctx context.Context, req *GenerateRequest) error {
		captured = req
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })
	return &captured
}

func TestGenerateConfigFromFlags(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	captured := captureGenerate(t)

	root.SetArgs([]string{
		"--verbose",
		"generate",
		"--input", "cache/swagger.json",
		"--url", "https://example.com/v2/api-docs",
		"--cookie", "SESSION=abc",
		"--token", "t0k",
		"--api-dir", "./web/api",
		"--type-dir", "./web/types",
		"--header", "import request from '@/request';",
		"--auto-export=false",
		"--def", "UserDTO",
		"--only-def",
		"/users", "get:/users/{id}", "POST", "/orders",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	req := *captured
	if req == nil {
		t.Fatalf("expected request to be captured")
	}
	cfg := req.Config

	if cfg.DocumentPath != "cache/swagger.json" {
		t.Errorf("document path mismatch: got %q", cfg.DocumentPath)
	}
	if cfg.DocumentURL != "https://example.com/v2/api-docs" {
		t.Errorf("url mismatch: got %q", cfg.DocumentURL)
	}
	if cfg.Credential != (spec.Credential{Cookie: "SESSION=abc", Token: "t0k"}) {
		t.Errorf("credential mismatch: got %+v", cfg.Credential)
	}
	if cfg.ImplementationRoot != filepath.Clean("web/api") {
		t.Errorf("api dir mismatch: got %q", cfg.ImplementationRoot)
	}
	if cfg.DefinitionRoot != filepath.Clean("web/types") {
		t.Errorf("type dir mismatch: got %q", cfg.DefinitionRoot)
	}
	if header, _ := cfg.Header.Text(); header != "import request from '@/request';" {
		t.Errorf("header mismatch: got %q", header)
	}
	if cfg.AutoExport {
		t.Errorf("expected auto-export off")
	}
	if !req.Verbose {
		t.Errorf("expected verbose true")
	}

	want := []generate.Selector{
		{Path: "/users", OnlyDefinition: true},
		{Path: "/users/{id}", Method: spec.GET, OnlyDefinition: true},
		{Path: "/orders", Method: spec.POST, OnlyDefinition: true},
		{DefinitionKey: "UserDTO"},
	}
	if len(req.Selectors) != len(want) {
		t.Fatalf("selectors: got %v", req.Selectors)
	}
	for i := range want {
		if req.Selectors[i] != want[i] {
			t.Errorf("selector %d: want %+v got %+v", i, want[i], req.Selectors[i])
		}
	}
}

func TestGenerateConfigPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	headerPath := filepath.Join(tmpDir, "header.ts")
	configContent := strings.TrimSpace(`documentUrl: https://config.example.com/api-docs
apiDir: from-config/api
typeDir: from-config/types
fileHeader: "// from config"
autoExport: false
token: cfg-token
`) + "\n"
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(headerPath, []byte("// from header file\n"), 0o600); err != nil {
		t.Fatalf("write header: %v", err)
	}
	t.Setenv("SWAGGER2TS_TOKEN", "env-token")
	t.Setenv("SWAGGER2TS_TYPE_DIR", "from-env/types")

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	captured := captureGenerate(t)

	root.SetArgs([]string{
		"--config", configPath,
		"generate",
		"--api-dir", "from-flag/api",
		"--header-file", headerPath,
		"--auto-export",
		"/users",
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	cfg := (*captured).Config

	if cfg.DocumentURL != "https://config.example.com/api-docs" {
		t.Errorf("url: got %q", cfg.DocumentURL)
	}
	if cfg.ImplementationRoot != filepath.Clean("from-flag/api") {
		t.Errorf("api dir: flag should win, got %q", cfg.ImplementationRoot)
	}
	if cfg.DefinitionRoot != filepath.Clean("from-env/types") {
		t.Errorf("type dir: env should beat config file, got %q", cfg.DefinitionRoot)
	}
	if cfg.Credential.Token != "env-token" {
		t.Errorf("token: env should beat config file, got %q", cfg.Credential.Token)
	}
	if cfg.DocumentPath != filepath.Join("from-flag", "api", "swagger.json") {
		t.Errorf("cache path should default under the api dir, got %q", cfg.DocumentPath)
	}
	if header, err := cfg.Header.Text(); err != nil || header != "// from header file\n" {
		t.Errorf("header: flag file should beat config text, got %q (%v)", header, err)
	}
	if !cfg.AutoExport {
		t.Errorf("expected auto-export re-enabled by flag")
	}
}

func TestGenerateConfigExplicitEmptyFlagsClear(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := "input: spec.yaml\ntypeDir: from-config/types\nfileHeader: \"// from config\"\ntoken: cfg-token\n"
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	captured := captureGenerate(t)

	root.SetArgs([]string{"--config", configPath, "generate", "--type-dir", "", "--header", "", "--token=", "/users"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	cfg := (*captured).Config
	if cfg.DefinitionRoot != "" {
		t.Errorf("type dir should be cleared, got %q", cfg.DefinitionRoot)
	}
	if !cfg.Header.IsZero() {
		t.Errorf("header should be cleared")
	}
	if cfg.Credential.Token != "" {
		t.Errorf("token should be cleared, got %q", cfg.Credential.Token)
	}
	if cfg.DocumentPath != "spec.yaml" {
		t.Errorf("unrelated settings stay: got %q", cfg.DocumentPath)
	}
}

func TestGenerateConfigUnknownKey(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte("unknown: value\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", configPath, "generate", "--input", "spec.yaml", "/users"})

	err := root.Execute()
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestGenerateUsageErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"no selectors", []string{"generate", "--input", "spec.yaml"}, "at least one PATH"},
		{"bad method", []string{"generate", "--input", "spec.yaml", "fetch:/users"}, "unknown method"},
		{"no document source", []string{"generate", "/users"}, "no document source"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			root := NewRootCmd()
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)
			root.SetArgs(tc.args)

			err := root.Execute()
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("expected usage error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}
}
