package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ritzau/drawio-codegen/pkg/config"
	"github.com/ritzau/drawio-codegen/pkg/emit"
	"github.com/ritzau/drawio-codegen/pkg/logging"
	"github.com/ritzau/drawio-codegen/pkg/mcpserver"
	"github.com/ritzau/drawio-codegen/pkg/output"
	"github.com/ritzau/drawio-codegen/pkg/pipeline"
	"github.com/ritzau/drawio-codegen/pkg/watcher"
	"github.com/ritzau/drawio-codegen/pkg/web"
	"github.com/spf13/pflag"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	flags := pflag.NewFlagSet("drawio-codegen", pflag.ExitOnError)
	config.RegisterFlags(flags)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: drawio-codegen [flags] <diagram.drawio|dir> [output_dir]\n\n")
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if err := setupLogging(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		flags.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flags); err != nil {
		logging.Fatal("drawio-codegen failed", "error", err)
	}
}

// loadConfig reads layered configuration and applies the positional
// arguments: the input diagram, then optionally the output directory.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, err
	}
	if cfg.Input == "" && flags.NArg() > 0 {
		cfg.Input = flags.Arg(0)
	}
	if flags.NArg() > 1 && !flags.Changed("out") {
		cfg.OutDir = flags.Arg(1)
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) error {
	level, err := logging.LevelFromFlags(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		return err
	}
	if cfg.JSONLogs {
		logging.SetJSONOutput(os.Stderr)
	}
	logging.SetLevel(level)
	return nil
}

func optionsFrom(cfg *config.Config, reason string) pipeline.Options {
	return pipeline.Options{
		OutDir:   cfg.OutDir,
		Language: cfg.Language,
		Package:  cfg.Package,
		DryRun:   cfg.DryRun,
		Reason:   reason,
	}
}

func run(ctx context.Context, cfg *config.Config, flags *pflag.FlagSet) error {
	runner := pipeline.NewRunner()

	switch {
	case cfg.MCP:
		return mcpserver.New(runner, optionsFrom(cfg, "mcp request"), version).Run(ctx)
	case cfg.WebMode:
		return runWeb(ctx, cfg, flags, runner)
	case cfg.Watch:
		return watchLoop(ctx, cfg, flags, runner, printResult)
	}

	return generate(ctx, runner, cfg, "command line", printResult)
}

// generate runs every diagram of the input and hands each result on.
// Results of a partly failed batch are still delivered.
func generate(ctx context.Context, runner *pipeline.Runner, cfg *config.Config, reason string, onResult func(*pipeline.Result)) error {
	batch, err := runner.RunAll(ctx, cfg.Input, optionsFrom(cfg, reason))
	if batch != nil {
		for _, res := range batch.Results {
			onResult(res)
		}
	}
	return err
}

func printResult(res *pipeline.Result) {
	output.PrintReport(os.Stdout, res)
	fmt.Println()
}

func runWeb(ctx context.Context, cfg *config.Config, flags *pflag.FlagSet, runner *pipeline.Runner) error {
	server := web.NewServer(emit.Options{Package: cfg.Package})
	runner.SetPublisher(server)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx, cfg.Port)
	}()

	url := fmt.Sprintf("http://localhost:%d", cfg.Port)
	if cfg.Open {
		// Give the listener a moment before the browser connects
		time.Sleep(300 * time.Millisecond)
		openBrowser(url)
	}

	if err := generate(ctx, runner, cfg, "initial generation", server.SetResult); err != nil {
		logging.Error("initial generation failed", "error", err)
	}
	logging.Info("Model ready", "url", url)

	if cfg.Watch {
		go func() {
			if err := watchLoop(ctx, cfg, flags, runner, server.SetResult); err != nil {
				logging.Error("watcher stopped", "error", err)
			}
		}()
	}

	return <-errCh
}

// watchLoop regenerates on every debounced change until ctx ends
func watchLoop(ctx context.Context, cfg *config.Config, flags *pflag.FlagSet, runner *pipeline.Runner, onResult func(*pipeline.Result)) error {
	fw, err := watcher.NewFileWatcher(cfg.Input)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), 300*time.Millisecond, 2*time.Second)
	debouncer.Start(ctx)

	// Generate once up front unless web mode already did
	if !cfg.WebMode {
		if err := generate(ctx, runner, cfg, "initial generation", onResult); err != nil {
			logging.Error("initial generation failed", "error", err)
		}
	}

	logging.Info("Watching for changes", "input", cfg.Input)

	for event := range debouncer.Output() {
		plan := watcher.PlanChanges(event)
		logging.Info("Change detected", "reason", plan.Reason(), "files", len(plan.ChangedFiles))

		if plan.ReloadConfig {
			reloaded, err := loadConfig(flags)
			if err != nil {
				logging.Error("config reload failed, keeping previous settings", "error", err)
			} else {
				// The watched input cannot move while watching
				reloaded.Input = cfg.Input
				cfg = reloaded
				if err := setupLogging(cfg); err != nil {
					logging.Warn("invalid log settings after reload", "error", err)
				}
			}
		}

		if !plan.Regenerate {
			continue
		}
		if err := generate(ctx, runner, cfg, plan.Reason(), onResult); err != nil {
			logging.Error("regeneration failed", "error", err)
		}
	}

	return nil
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open browser on this platform", "os", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
