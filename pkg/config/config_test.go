package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
	return f
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFrom(newFlags(t), filepath.Join(dir, "missing.toml"), filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.OutDir != "src-gen" || cfg.Language != "java" || cfg.Port != 8080 {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.DryRun || cfg.Watch || cfg.WebMode || cfg.MCP {
		t.Errorf("Mode flags should default to false: %+v", cfg)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, FileName)
	toml := "lang = \"go\"\nout = \"from-file\"\nport = 9000\npackage = \"shapes\"\n"
	if err := os.WriteFile(configPath, []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DRAWIO_CODEGEN_OUT", "from-env")
	t.Setenv("DRAWIO_CODEGEN_DRY_RUN", "true")

	cfg, err := LoadFrom(newFlags(t, "--port", "9100", "-vv"), configPath, "")
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Language != "go" {
		t.Errorf("Language = %q, want go (file)", cfg.Language)
	}
	if cfg.Package != "shapes" {
		t.Errorf("Package = %q, want shapes (file)", cfg.Package)
	}
	if cfg.OutDir != "from-env" {
		t.Errorf("OutDir = %q, want from-env (env beats file)", cfg.OutDir)
	}
	if !cfg.DryRun {
		t.Error("DryRun should be enabled from env")
	}
	if cfg.Port != 9100 {
		t.Errorf("Port = %d, want 9100 (flag beats file)", cfg.Port)
	}
	if cfg.VerboseCnt != 2 {
		t.Errorf("VerboseCnt = %d, want 2", cfg.VerboseCnt)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	if err := os.WriteFile(dotenv, []byte("DRAWIO_CODEGEN_VERBOSITY=debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// godotenv sets real environment variables; make sure they are removed afterwards
	t.Setenv("DRAWIO_CODEGEN_VERBOSITY", "")
	os.Unsetenv("DRAWIO_CODEGEN_VERBOSITY")

	cfg, err := LoadFrom(newFlags(t), "", dotenv)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Verbosity != "debug" {
		t.Errorf("Verbosity = %q, want debug (.env)", cfg.Verbosity)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok", Config{Input: "a.drawio", Port: 8080}, false},
		{"no input", Config{Port: 8080}, true},
		{"mcp without input", Config{Port: 8080, MCP: true}, false},
		{"mcp with web", Config{Input: "a.drawio", Port: 8080, MCP: true, WebMode: true}, true},
		{"bad port", Config{Input: "a.drawio", Port: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	if got := envKey("DRAWIO_CODEGEN_JSON_LOGS"); got != "json-logs" {
		t.Errorf("envKey() = %q, want json-logs", got)
	}
}
