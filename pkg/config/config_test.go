package config

import (
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Key  string `yaml:"key"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_Basic(t *testing.T) {
	p := writeConfig(t, "name: sourcelens\nkey: plain\n")
	var cfg sample
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "sourcelens" || cfg.Key != "plain" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-secret")
	p := writeConfig(t, "name: app\nkey: ${TEST_API_KEY}\n")
	var cfg sample
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Key != "sk-secret" {
		t.Errorf("key = %q, want expanded env var", cfg.Key)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg sample
	if err := Load("/nonexistent/config.yaml", &cfg); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	p := writeConfig(t, ": not: valid: {{{\n")
	var cfg sample
	if err := Load(p, &cfg); err == nil {
		t.Fatal("expected parse error")
	}
}

type validated struct {
	Name string `yaml:"name"`
}

func (v *validated) Validate() error {
	if v.Name == "" {
		return os.ErrInvalid
	}
	return nil
}

func TestLoad_RunsValidation(t *testing.T) {
	p := writeConfig(t, "name: \"\"\n")
	var cfg validated
	if err := Load(p, &cfg); err == nil {
		t.Fatal("expected validation error")
	}

	p = writeConfig(t, "name: ok\n")
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
