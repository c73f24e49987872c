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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arushisharma17/RAID/services/raid/label"
	"github.com/arushisharma17/RAID/services/raid/pipeline"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [source file]",
	Short: "Print the labeled leaf tokens of a source file",
	Long: `Parses the source file and prints one row per leaf token: text, BIO
tag, canonical label, tree depth, and naming pattern. Useful for
inspecting what generate will write before running it.`,
	Args: cobra.ExactArgs(1),
	Run:  runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}

func runTokens(cmd *cobra.Command, args []string) {
	logger := newLogger()
	defer logger.Close()

	dict, err := loadDictionary()
	if err != nil {
		logger.Error("load dictionary failed", "error", err)
		os.Exit(1)
	}
	cfg := pipelineConfig(logger, dict)

	tree, err := pipeline.Parse(context.Background(), args[0], cfg)
	if err != nil {
		logger.Error("tokens failed", "source", args[0], "error", err)
		os.Exit(1)
	}

	labeler, err := label.NewLabeler(cfg.Grammar)
	if err != nil {
		logger.Error("tokens failed", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOKEN\tBIO\tLABEL\tDEPTH\tNAMING")
	for _, tok := range labeler.Label(tree) {
		fmt.Fprintf(w, "%s\t%c\t%s\t%d\t%s\n",
			tok.Text, tok.Tag, dict.Convert(tok.Label), tok.Depth, tok.Naming)
	}
	w.Flush()
}
