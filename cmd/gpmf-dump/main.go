// Command gpmf-dump decodes an extracted telemetry track file and prints it
// as JSON. The track must already be demuxed from its container; this tool
// does not read video files.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/twinfer/gpmf-plugin/internal/filter"
	"github.com/twinfer/gpmf-plugin/pkg/telemetry"
)

// Config controls dump output. Values from the YAML config file are
// overridden by flags.
type Config struct {
	Input   string `yaml:"input"`   // track file path
	Flat    bool   `yaml:"flat"`    // flattened samples instead of the tree
	Filter  string `yaml:"filter"`  // CEL predicate over flattened samples
	Verbose bool   `yaml:"verbose"` // debug logging to stderr
}

func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "", "YAML config file")
	input := flag.String("input", "", "telemetry track file (overrides config)")
	flat := flag.Bool("flat", false, "print flattened samples instead of the record tree")
	filterExpr := flag.String("filter", "", "CEL predicate over flattened samples (implies -flat)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *input != "" {
		cfg.Input = *input
	}
	if *flat {
		cfg.Flat = true
	}
	if *filterExpr != "" {
		cfg.Filter = *filterExpr
		cfg.Flat = true
	}
	if *verbose {
		cfg.Verbose = true
	}
	if cfg.Input == "" && flag.NArg() > 0 {
		cfg.Input = flag.Arg(0)
	}

	if err := run(cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *Config, out io.Writer) error {
	if cfg.Input == "" {
		return fmt.Errorf("no input file: pass -input, a positional argument, or set input in the config")
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	data, err := os.ReadFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("reading track file: %w", err)
	}

	parser := telemetry.NewParser(telemetry.WithLogger(logger))
	records, err := parser.Decode(data)
	if err != nil {
		return err
	}

	var payload any
	if cfg.Flat {
		samples := telemetry.Flatten(records)
		if cfg.Filter != "" {
			pool, err := filter.NewPool()
			if err != nil {
				return err
			}
			kept := samples[:0]
			for _, s := range samples {
				ok, err := pool.Match(cfg.Filter, s)
				if err != nil {
					return err
				}
				if ok {
					kept = append(kept, s)
				}
			}
			samples = kept
		}
		payload = samples
	} else {
		payload = telemetry.TreeMaps(records)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
