// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/arushisharma17/RAID/services/raid/activations"
	"github.com/arushisharma17/RAID/services/raid/pipeline"
)

var (
	annotateCmd = &cobra.Command{
		Use:   "annotate [source file]",
		Short: "Extract model activations for a source file's leaf tokens",
		Long: `Parses the source file, writes its leaf tokens as one sentence, runs
the external transformer extractor over it, and partitions the tokens
and activations into per-depth annotation files plus aggregated and
phrasal JSON documents.

Requires a Python environment with the NeuroX extractor installed.`,
		Args: cobra.ExactArgs(1),
		Run:  runAnnotate,
	}

	modelFlag        string
	deviceFlag       string
	filterFlag       string
	aggregationFlag  string
	outputPrefixFlag string
	pythonFlag       string
)

func init() {
	rootCmd.AddCommand(annotateCmd)
	annotateCmd.Flags().StringVar(&modelFlag, "model", "",
		"Transformer model name (default bert-base-uncased)")
	annotateCmd.Flags().StringVar(&deviceFlag, "device", "",
		"Extraction device (cpu, cuda)")
	annotateCmd.Flags().StringVar(&filterFlag, "filter", "",
		"Binary token filter, re:<regexp> or set:<a,b,c> (default set:public,static)")
	annotateCmd.Flags().StringVar(&aggregationFlag, "aggregation", "",
		"Subword aggregation method (mean, max, sum, concat)")
	annotateCmd.Flags().StringVar(&outputPrefixFlag, "output-prefix", "output",
		"Prefix for annotation output files")
	annotateCmd.Flags().StringVar(&pythonFlag, "python", "python3",
		"Python interpreter used to run the extractor")
}

// neuroxExtractor shells out to the NeuroX transformers extractor.
type neuroxExtractor struct {
	python string
}

func (e *neuroxExtractor) Extract(ctx context.Context, model, inputFile, outputFile, aggregation, device string) error {
	cmd := exec.CommandContext(ctx, e.python,
		"-m", "neurox.data.extraction.transformers_extractor",
		model, inputFile, outputFile,
		"--aggregation", aggregation,
		"--device", device,
	)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run extractor: %w", err)
	}
	return nil
}

func runAnnotate(cmd *cobra.Command, args []string) {
	logger := newLogger()
	defer logger.Close()

	dict, err := loadDictionary()
	if err != nil {
		logger.Error("load dictionary failed", "error", err)
		os.Exit(1)
	}
	cfg := pipelineConfig(logger, dict)

	ctx := context.Background()
	tree, err := pipeline.Parse(ctx, args[0], cfg)
	if err != nil {
		logger.Error("annotate failed", "source", args[0], "error", err)
		os.Exit(1)
	}

	annotator, err := activations.NewAnnotator(&neuroxExtractor{python: pythonFlag}, activations.Config{
		Model:        resolve(modelFlag, config.Model, ""),
		Device:       resolve(deviceFlag, config.Device, ""),
		BinaryFilter: resolve(filterFlag, config.Filter, ""),
		Aggregation:  resolve(aggregationFlag, config.Aggregation, ""),
		OutputPrefix: outputPrefixFlag,
		Logger:       logger.Slog(),
	})
	if err != nil {
		logger.Error("annotate failed", "error", err)
		os.Exit(1)
	}

	if err := annotator.Process(ctx, tree.Leaves(), cfg.OutputDir); err != nil {
		logger.Error("annotate failed", "source", args[0], "error", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote annotation files to %s\n", cfg.OutputDir)
}
