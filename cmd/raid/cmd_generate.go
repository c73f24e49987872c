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

	"github.com/spf13/cobra"

	"github.com/arushisharma17/RAID/services/raid/pipeline"
)

var (
	generateCmd = &cobra.Command{
		Use:   "generate [source files...]",
		Short: "Generate .in/.label/.bio files for one or more source files",
		Long: `Parses each source file, labels its leaf tokens, realigns them onto
the original lines, and writes three parallel files per source file
plus a tabular .csv export. Multiple files are processed concurrently.`,
		Args: cobra.MinimumNArgs(1),
		Run:  runGenerate,
	}

	noCacheFlag  bool
	treeJSONFlag bool
)

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&labelTypeFlag, "label-type", "",
		"Take labels from this non-leaf CSV column instead of the default labeling")
	generateCmd.Flags().BoolVar(&noCacheFlag, "no-cache", false,
		"Relabel even when a .csv export for the file already exists")
	generateCmd.Flags().BoolVar(&treeJSONFlag, "tree-json", false,
		"Also write the recursive labeled tree as JSON")
}

func runGenerate(cmd *cobra.Command, args []string) {
	logger := newLogger()
	defer logger.Close()

	dict, err := loadDictionary()
	if err != nil {
		logger.Error("load dictionary failed", "error", err)
		os.Exit(1)
	}

	cfg := pipelineConfig(logger, dict)
	cfg.NoCache = noCacheFlag
	cfg.WriteTreeJSON = treeJSONFlag

	ctx := context.Background()
	if len(args) == 1 {
		res, err := pipeline.Run(ctx, args[0], cfg)
		if err != nil {
			logger.Error("generate failed", "source", args[0], "error", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s.{in,label,bio,csv} to %s\n", res.Base, cfg.OutputDir)
		return
	}

	if err := pipeline.RunBatch(ctx, args, cfg); err != nil {
		logger.Error("generate failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Processed %d files into %s\n", len(args), cfg.OutputDir)
}
