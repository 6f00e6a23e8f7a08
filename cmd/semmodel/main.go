// Package main implements the entry point for the semmodel checker.
// It loads a model configuration, resolves every declared model against
// its context and constraint documents, registers the results and prints
// the effective attribute tables, so definition problems surface before
// any service embeds the engine.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/c360/semmodel/config"
	"github.com/c360/semmodel/model"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "semmodel"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Check failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return err
	}
	slog.Info("Configuration loaded",
		"config_path", cliCfg.ConfigPath,
		"models", len(cfg.Models),
		"store_mode", cfg.Store.Mode)

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	baseDir := filepath.Dir(cliCfg.ConfigPath)
	defs, err := buildDefinitions(context.Background(), cfg, baseDir)
	if err != nil {
		return err
	}

	registry := model.NewRegistry()
	if err := registry.RegisterAll(defs); err != nil {
		return err
	}
	slog.Info("All models resolved", "count", len(defs))

	if cliCfg.ShowTables {
		printTables(registry, cfg)
	}
	return nil
}

// buildDefinitions resolves every declared model's documents in parallel.
// Results keep declaration order so registration sees parents before
// children the way the configuration listed them.
func buildDefinitions(ctx context.Context, cfg *config.Config, baseDir string) ([]model.Definition, error) {
	defs := make([]model.Definition, len(cfg.Models))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, decl := range cfg.Models {
		i, decl := i, decl
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			single := &config.Config{Store: cfg.Store, Models: []config.ModelDecl{decl}}
			built, err := single.BuildDefinitions(baseDir)
			if err != nil {
				return fmt.Errorf("model %q: %w", decl.Name, err)
			}
			defs[i] = built[0]
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return defs, nil
}

func printTables(registry *model.Registry, cfg *config.Config) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	for _, decl := range cfg.Models {
		table, err := registry.Lookup(decl.Name)
		if err != nil {
			continue
		}

		fmt.Fprintf(w, "model %s\n", table.ModelName())
		for _, classIRI := range table.ClassIRIs() {
			fmt.Fprintf(w, "  type\t%s\n", classIRI)
		}
		for _, def := range table.Attributes() {
			flags := ""
			if def.Required {
				flags += " required"
			}
			if def.ReadOnly {
				flags += " readOnly"
			}
			if def.WriteOnly {
				flags += " writeOnly"
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s%s\n",
				def.Name, def.Predicate, def.Kind, def.Datatype, flags)
		}
		fmt.Fprintln(w)
	}
	_ = w.Flush()
}
