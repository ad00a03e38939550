package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// FileName is the optional project config file, read from the working directory
const FileName = "drawio-codegen.toml"

// EnvPrefix prefixes environment overrides, e.g. DRAWIO_CODEGEN_LANG=go
const EnvPrefix = "DRAWIO_CODEGEN_"

// Config holds all configuration for the application
type Config struct {
	Input      string `koanf:"input"`   // Diagram file or directory of diagrams
	OutDir     string `koanf:"out"`     // Directory for generated sources
	Language   string `koanf:"lang"`    // Emitter name: java, go
	Package    string `koanf:"package"` // Package name for emitters that need one
	DryRun     bool   `koanf:"dry-run"` // Build and report, write nothing
	Watch      bool   `koanf:"watch"`
	WebMode    bool   `koanf:"web"`
	Port       int    `koanf:"port"`
	Open       bool   `koanf:"open"` // Open a browser in web mode
	MCP        bool   `koanf:"mcp"`
	Verbosity  string `koanf:"verbosity"`
	VerboseCnt int    `koanf:"verbose"`
	JSONLogs   bool   `koanf:"json-logs"`
}

// Defaults returns the built-in configuration values
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"input":     "",
		"out":       "src-gen",
		"lang":      "java",
		"package":   "model",
		"dry-run":   false,
		"watch":     false,
		"web":       false,
		"port":      8080,
		"open":      false,
		"mcp":       false,
		"verbosity": "",
		"verbose":   0,
		"json-logs": false,
	}
}

// RegisterFlags declares the command-line flags understood by Load
func RegisterFlags(f *pflag.FlagSet) {
	f.StringP("input", "i", "", "Diagram file (.drawio/.xml) or directory of diagrams")
	f.StringP("out", "o", "src-gen", "Output directory for generated sources")
	f.StringP("lang", "l", "java", "Target language (java, go)")
	f.String("package", "model", "Package name for generated Go sources")
	f.Bool("dry-run", false, "Build the model and print the report without writing files")
	f.BoolP("watch", "w", false, "Regenerate whenever the diagram changes")
	f.Bool("web", false, "Serve the model and generated sources over HTTP")
	f.IntP("port", "p", 8080, "Port for the web server (only used with --web)")
	f.Bool("open", false, "Open the browser when the web server starts")
	f.Bool("mcp", false, "Run as an MCP server on stdio")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase log verbosity (repeatable)")
	f.Bool("json-logs", false, "Emit logs as JSON")
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env (.env included) > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFrom(f, FileName, ".env")
}

// LoadFrom is Load with explicit config and dotenv paths. Missing files are skipped.
func LoadFrom(f *pflag.FlagSet, configPath, dotenvPath string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", configPath, err)
			}
		}
	}

	// 3. .env, then environment variables. godotenv never overrides variables
	// that are already set, so the real environment keeps precedence.
	if dotenvPath != "" {
		if _, err := os.Stat(dotenvPath); err == nil {
			if err := godotenv.Load(dotenvPath); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", dotenvPath, err)
			}
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// envKey maps DRAWIO_CODEGEN_DRY_RUN to dry-run
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
}

// Validate checks option combinations that cannot work together
func (c *Config) Validate() error {
	// MCP clients pass the diagram path per tool call
	if c.Input == "" && !c.MCP {
		return fmt.Errorf("no input diagram given (use --input or a positional argument)")
	}
	if c.MCP && (c.WebMode || c.Watch) {
		return fmt.Errorf("--mcp cannot be combined with --web or --watch")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
