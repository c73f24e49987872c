// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline orchestrates one source file's run through parse,
// label, realign, and export.
//
// Each run is a pure sequential pipeline with no shared mutable state;
// batch processing fans out at whole-file granularity only.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/arushisharma17/RAID/services/raid/align"
	"github.com/arushisharma17/RAID/services/raid/ast"
	"github.com/arushisharma17/RAID/services/raid/export"
	"github.com/arushisharma17/RAID/services/raid/label"
)

// Config configures a pipeline run.
type Config struct {
	// Grammar selects the source grammar ("java" or "python").
	Grammar ast.Grammar

	// OutputDir receives every generated file. Created if absent.
	OutputDir string

	// LabelType optionally selects a non-leaf CSV column as the label
	// source instead of the nearest-named-ancestor labeling. Empty uses
	// the labeler output directly.
	LabelType string

	// Dictionary is the label dictionary; nil uses the built-in default.
	Dictionary *label.Dictionary

	// NoCache forces relabeling even when a tabular export for the file
	// already exists. The cache is advisory and path-keyed: it performs
	// no content check, so callers editing sources in place must pass
	// NoCache or delete the .csv themselves.
	NoCache bool

	// WriteTreeJSON additionally writes the recursive tree document.
	WriteTreeJSON bool

	// Logger receives progress output; nil uses slog.Default().
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.Dictionary == nil {
		c.Dictionary = label.DefaultDictionary()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Result reports what one run produced.
type Result struct {
	// Base is the output file stem (source basename without extension).
	Base string

	// Groups is the realigned per-line grouping that was exported.
	Groups []align.Group

	// FromCache reports whether token labels were read back from an
	// existing tabular export instead of recomputed.
	FromCache bool
}

// Run processes one source file end to end: read, normalize, parse,
// label, realign, and write the .in/.label/.bio and .csv exports.
//
// Outputs:
//   - error: a missing source file, an unsupported grammar, or an I/O
//     failure. Alignment misses never error; they degrade per the
//     realignment contract.
func Run(ctx context.Context, sourcePath string, cfg Config) (*Result, error) {
	cfg.defaults()

	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	// External normalization: characters the tokenizer cannot see must
	// not survive into the alignment text either.
	source := export.StripNonASCII(string(raw))

	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	csvPath := filepath.Join(cfg.OutputDir, base+".csv")

	var (
		tokens    []label.Token
		tree      *ast.Tree
		fromCache bool
	)

	if !cfg.NoCache && cfg.LabelType != "" {
		if _, statErr := os.Stat(csvPath); statErr == nil {
			tokens, err = readCachedTokens(csvPath, cfg.Dictionary, cfg.LabelType)
			if err != nil {
				return nil, err
			}
			fromCache = true
			cfg.Logger.Info("label cache hit",
				slog.String("csv", csvPath),
				slog.String("label_type", cfg.LabelType))
		}
	}

	if tokens == nil {
		tree, tokens, err = labelSource(ctx, source, cfg)
		if err != nil {
			return nil, err
		}

		csvFile, err := os.Create(csvPath)
		if err != nil {
			return nil, fmt.Errorf("create csv export: %w", err)
		}
		if err := export.WriteCSV(csvFile, tree, tokens, cfg.Dictionary); err != nil {
			csvFile.Close()
			return nil, err
		}
		if err := csvFile.Close(); err != nil {
			return nil, fmt.Errorf("close csv export: %w", err)
		}

		if cfg.LabelType != "" {
			tokens, err = readCachedTokens(csvPath, cfg.Dictionary, cfg.LabelType)
			if err != nil {
				return nil, err
			}
		}
	}

	lines := strings.Split(source, "\n")
	groups := align.Realign(lines, tokens, cfg.Logger)

	if err := writeParallelFiles(cfg.OutputDir, base, groups, cfg.Dictionary); err != nil {
		return nil, err
	}

	if cfg.WriteTreeJSON && tree != nil {
		jsonPath := filepath.Join(cfg.OutputDir, base+".json")
		jsonFile, err := os.Create(jsonPath)
		if err != nil {
			return nil, fmt.Errorf("create tree json: %w", err)
		}
		if err := export.WriteTreeJSON(jsonFile, tree, cfg.Dictionary); err != nil {
			jsonFile.Close()
			return nil, err
		}
		if err := jsonFile.Close(); err != nil {
			return nil, fmt.Errorf("close tree json: %w", err)
		}
	}

	cfg.Logger.Info("pipeline run complete",
		slog.String("source", sourcePath),
		slog.String("grammar", string(cfg.Grammar)),
		slog.Int("lines", len(lines)),
		slog.Int("tokens", len(tokens)),
		slog.Bool("from_cache", fromCache))

	return &Result{Base: base, Groups: groups, FromCache: fromCache}, nil
}

// RunBatch processes several source files, each through its own
// independent pipeline run. Fan-out happens at whole-file granularity;
// no cursor state is ever shared between files.
func RunBatch(ctx context.Context, sourcePaths []string, cfg Config) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, path := range sourcePaths {
		path := path
		g.Go(func() error {
			if _, err := Run(ctx, path, cfg); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Parse parses a source file and returns its tree, for callers that need
// the raw leaf stream (the annotation pipeline).
func Parse(ctx context.Context, sourcePath string, cfg Config) (*ast.Tree, error) {
	cfg.defaults()

	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}

	parser, err := ast.NewParser(cfg.Grammar, ast.WithLogger(cfg.Logger))
	if err != nil {
		return nil, err
	}
	return parser.Parse(ctx, []byte(export.StripNonASCII(string(raw))))
}

// labelSource parses and labels one normalized source text.
func labelSource(ctx context.Context, source string, cfg Config) (*ast.Tree, []label.Token, error) {
	parser, err := ast.NewParser(cfg.Grammar, ast.WithLogger(cfg.Logger))
	if err != nil {
		return nil, nil, err
	}

	tree, err := parser.Parse(ctx, []byte(source))
	if err != nil {
		return nil, nil, err
	}

	labeler, err := label.NewLabeler(cfg.Grammar)
	if err != nil {
		return nil, nil, err
	}
	return tree, labeler.Label(tree), nil
}

// readCachedTokens reads the token stream back from a tabular export,
// taking labels from the selected non-leaf column.
func readCachedTokens(csvPath string, dict *label.Dictionary, labelType string) ([]label.Token, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open csv export: %w", err)
	}
	defer f.Close()

	tokens, err := export.ReadCSVColumn(f, dict, labelType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", csvPath, err)
	}
	return tokens, nil
}

// writeParallelFiles writes the .in/.label/.bio streams for one run.
func writeParallelFiles(dir, base string, groups []align.Group, dict *label.Dictionary) error {
	inFile, err := os.Create(filepath.Join(dir, base+".in"))
	if err != nil {
		return fmt.Errorf("create .in: %w", err)
	}
	defer inFile.Close()

	labelFile, err := os.Create(filepath.Join(dir, base+".label"))
	if err != nil {
		return fmt.Errorf("create .label: %w", err)
	}
	defer labelFile.Close()

	bioFile, err := os.Create(filepath.Join(dir, base+".bio"))
	if err != nil {
		return fmt.Errorf("create .bio: %w", err)
	}
	defer bioFile.Close()

	return export.NewWriter(inFile, labelFile, bioFile, dict).WriteGroups(groups)
}
