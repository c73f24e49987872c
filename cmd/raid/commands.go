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
	"github.com/spf13/cobra"

	"github.com/arushisharma17/RAID/pkg/logging"
	"github.com/arushisharma17/RAID/services/raid/ast"
	"github.com/arushisharma17/RAID/services/raid/label"
	"github.com/arushisharma17/RAID/services/raid/pipeline"
)

// Config holds the optional config.yaml settings. Every field has a
// corresponding flag; flags win when both are set.
type Config struct {
	Language    string `yaml:"language"`
	OutputDir   string `yaml:"output_dir"`
	LabelType   string `yaml:"label_type"`
	Dictionary  string `yaml:"dictionary"`
	Model       string `yaml:"model"`
	Device      string `yaml:"device"`
	Filter      string `yaml:"binary_filter"`
	Aggregation string `yaml:"aggregation"`
	LogLevel    string `yaml:"log_level"`
	LogDir      string `yaml:"log_dir"`
}

const configPath = "config.yaml"

var (
	rootCmd = &cobra.Command{
		Use:   "raid",
		Short: "Derive token-level labels from source code ASTs",
		Long: `RAID parses Java or Python source with tree-sitter, labels every
leaf token with a BIO tag and its nearest-named-ancestor type, and
re-projects the labeled tokens back onto the original source lines
to produce parallel sequence-labeling files.`,
	}

	languageFlag   string
	outputDirFlag  string
	labelTypeFlag  string
	dictionaryFlag string
	logLevelFlag   string
	logDirFlag     string
	quietFlag      bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&languageFlag, "language", "l", "",
		"Source grammar (java, python)")
	rootCmd.PersistentFlags().StringVarP(&outputDirFlag, "output-dir", "o", "",
		"Directory for generated files (default \"output\")")
	rootCmd.PersistentFlags().StringVar(&dictionaryFlag, "dictionary", "",
		"Path to a YAML label dictionary (default built-in)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Minimum log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logDirFlag, "log-dir", "",
		"Directory for JSON log files (default stderr only)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false,
		"Suppress stderr logging")
}

// resolve returns flag value if set, else the config.yaml value, else def.
func resolve(flag, fromConfig, def string) string {
	if flag != "" {
		return flag
	}
	if fromConfig != "" {
		return fromConfig
	}
	return def
}

// newLogger builds the process logger from flags and config.yaml.
func newLogger() *logging.Logger {
	return logging.New(logging.Config{
		Level:   logging.ParseLevel(resolve(logLevelFlag, config.LogLevel, "info")),
		LogDir:  resolve(logDirFlag, config.LogDir, ""),
		Service: "raid",
		Quiet:   quietFlag,
	})
}

// loadDictionary resolves the label dictionary from flags and config.
func loadDictionary() (*label.Dictionary, error) {
	path := resolve(dictionaryFlag, config.Dictionary, "")
	if path == "" {
		return label.DefaultDictionary(), nil
	}
	return label.LoadDictionary(path)
}

// grammarFromFlags resolves the grammar selection. Validation happens
// in ast.NewParser so that unsupported grammars fail with the sentinel.
func grammarFromFlags() ast.Grammar {
	return ast.Grammar(resolve(languageFlag, config.Language, "java"))
}

// pipelineConfig assembles the shared pipeline settings.
func pipelineConfig(logger *logging.Logger, dict *label.Dictionary) pipeline.Config {
	return pipeline.Config{
		Grammar:    grammarFromFlags(),
		OutputDir:  resolve(outputDirFlag, config.OutputDir, "output"),
		LabelType:  resolve(labelTypeFlag, config.LabelType, ""),
		Dictionary: dict,
		Logger:     logger.Slog(),
	}
}
