package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/SscSPs/recon_engine/internal/core/engine"
	"github.com/SscSPs/recon_engine/internal/dto"
	"github.com/google/subcommands"
	"gopkg.in/yaml.v3"
)

type reconcileCmd struct {
	sourceA   string
	sourceB   string
	reference string
	config    string
	format    string
	asOf      string
	batchID   string
	verbose   bool
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "match two transaction files and report the breaks" }
func (*reconcileCmd) Usage() string {
	return `reconctl reconcile -a <a.json> -b <b.json> [-ref <reference.json>] [-config <cfg.yaml>] [-format json|yaml|markdown]

  Reads two JSON arrays of normalized transactions, runs matching, break
  detection and classification, and prints the result.
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sourceA, "a", "", "JSON file with the side A transactions")
	f.StringVar(&c.sourceB, "b", "", "JSON file with the side B transactions")
	f.StringVar(&c.reference, "ref", "", "JSON file with reference data (fxRates, priceHistory)")
	f.StringVar(&c.config, "config", "", "YAML file overriding the engine defaults")
	f.StringVar(&c.format, "format", "markdown", "Output format (json, yaml, markdown)")
	f.StringVar(&c.asOf, "as-of", "", "Batch timestamp, YYYY-MM-DD or RFC 3339 (defaults to now)")
	f.StringVar(&c.batchID, "batch", "", "Batch id (derived from the inputs when empty)")
	f.BoolVar(&c.verbose, "v", false, "Log engine progress to stderr")
}

func (c *reconcileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.sourceA == "" || c.sourceB == "" {
		fmt.Fprintln(os.Stderr, "Error: both -a and -b are required")
		return subcommands.ExitUsageError
	}
	format := strings.ToLower(c.format)
	if format != "json" && format != "yaml" && format != "markdown" {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}

	cfg, err := loadEngineConfig(c.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	batch, err := c.loadBatch()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	eng, err := engine.New(cfg, engine.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	result, err := eng.Run(ctx, batch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if format == "markdown" {
		printMarkdown(resultMarkdown(*result))
		return subcommands.ExitSuccess
	}
	if err := writeResult(os.Stdout, format, *result); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *reconcileCmd) loadBatch() (domain.Batch, error) {
	req := dto.ReconcileRequest{BatchID: c.batchID, AsOf: c.asOf}
	if err := readJSON(c.sourceA, &req.SourceA); err != nil {
		return domain.Batch{}, err
	}
	if err := readJSON(c.sourceB, &req.SourceB); err != nil {
		return domain.Batch{}, err
	}
	if c.reference != "" {
		if err := readJSON(c.reference, &req.Reference); err != nil {
			return domain.Batch{}, err
		}
	}
	return req.ToDomain()
}

// loadEngineConfig overlays the YAML file at path, if any, on the engine defaults.
func loadEngineConfig(path string) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return engine.Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return engine.Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func writeResult(w io.Writer, format string, result domain.Result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported format %q", format)
}
