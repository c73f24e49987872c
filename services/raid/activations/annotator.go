// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package activations

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/arushisharma17/RAID/services/raid/ast"
)

// Extractor is the black-box activation-extraction collaborator. It maps a
// line of tokens to per-token, per-layer vectors serialized as JSON.
type Extractor interface {
	// Extract runs the model over inputFile and writes activation JSON to
	// outputFile. aggregation controls subword pooling inside the
	// extractor; device selects where the model runs ("cpu" or "cuda").
	Extract(ctx context.Context, model, inputFile, outputFile, aggregation, device string) error
}

// Layer is one network layer's activation vector for a token.
type Layer struct {
	Index  int       `json:"index"`
	Values []float64 `json:"values"`
}

// TokenActivations holds all layer vectors for one extracted token.
type TokenActivations struct {
	Token  string  `json:"token"`
	Layers []Layer `json:"layers"`
}

// activationFile is the JSON document the extractor produces.
type activationFile struct {
	LineIndex int                `json:"linex_index"`
	Features  []TokenActivations `json:"features"`
}

// ParseActivationFile reads the extractor's JSON output. The subword
// marker rune the extractor prefixes to word-initial tokens is stripped.
func ParseActivationFile(path string) ([]TokenActivations, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read activations: %w", err)
	}

	var f activationFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse activations %s: %w", path, err)
	}

	for i := range f.Features {
		f.Features[i].Token = strings.ReplaceAll(f.Features[i].Token, "Ġ", "")
	}
	return f.Features, nil
}

// Config configures an Annotator.
type Config struct {
	// Model is the transformer model identifier passed to the extractor.
	Model string

	// Device selects where the extractor runs the model ("cpu", "cuda").
	Device string

	// BinaryFilter is the positive-class filter specification
	// ("set:public,static" or "re:^get").
	BinaryFilter string

	// OutputPrefix prefixes every annotation output file name.
	OutputPrefix string

	// Aggregation is the cross-layer aggregation method.
	Aggregation string

	// Logger receives progress output; nil uses slog.Default().
	Logger *slog.Logger
}

// Annotator derives binary-labeled, aggregated, and phrase-level datasets
// from extractor output for one token stream.
type Annotator struct {
	cfg       Config
	extractor Extractor
	filter    Filter
	logger    *slog.Logger
}

// NewAnnotator validates the configuration and builds an Annotator.
//
// Outputs:
//   - error: ErrInvalidFilter for a malformed BinaryFilter,
//     ErrUnsupportedAggregation for an unknown Aggregation keyword. Both
//     are raised here, synchronously, before any extraction work starts.
func NewAnnotator(extractor Extractor, cfg Config) (*Annotator, error) {
	if cfg.Model == "" {
		cfg.Model = "bert-base-uncased"
	}
	if cfg.Device == "" {
		cfg.Device = "cpu"
	}
	if cfg.BinaryFilter == "" {
		cfg.BinaryFilter = "set:public,static"
	}
	if cfg.OutputPrefix == "" {
		cfg.OutputPrefix = "output"
	}
	if cfg.Aggregation == "" {
		cfg.Aggregation = AggregateMean
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	filter, err := CompileFilter(cfg.BinaryFilter)
	if err != nil {
		return nil, err
	}

	switch cfg.Aggregation {
	case AggregateMean, AggregateMax, AggregateSum, AggregateConcat:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAggregation, cfg.Aggregation)
	}

	return &Annotator{
		cfg:       cfg,
		extractor: extractor,
		filter:    filter,
		logger:    cfg.Logger,
	}, nil
}

// Process runs the full annotation pipeline for one leaf-token stream:
// writes the extractor input sentence, invokes the extractor, parses its
// output, and writes the per-depth annotation files plus the aggregated
// and phrase-level activation documents into outputDir.
func (a *Annotator) Process(ctx context.Context, tokens []ast.LeafToken, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	inputFile := filepath.Join(outputDir, "input_sentences.txt")
	outputFile := filepath.Join(outputDir, "activations.json")

	texts := make([]string, len(tokens))
	for i, t := range tokens {
		texts[i] = t.Text
	}
	if err := os.WriteFile(inputFile, []byte(strings.Join(texts, " ")+"\n"), 0o640); err != nil {
		return fmt.Errorf("write extractor input: %w", err)
	}

	a.logger.Info("extracting activations",
		slog.String("model", a.cfg.Model),
		slog.String("device", a.cfg.Device),
		slog.Int("tokens", len(tokens)))

	if err := a.extractor.Extract(ctx, a.cfg.Model, inputFile, outputFile, "average", a.cfg.Device); err != nil {
		return fmt.Errorf("extract activations: %w", err)
	}

	features, err := ParseActivationFile(outputFile)
	if err != nil {
		return err
	}

	if err := a.annotateByDepth(tokens, features, outputDir); err != nil {
		return err
	}
	if err := a.writeAggregated(tokens, features, outputDir); err != nil {
		return err
	}
	return a.writePhrasal(tokens, features, outputDir)
}

// annotateByDepth writes the binary-labeled token/label files organized by
// tree depth, plus the last-layer activation vectors in stream order.
func (a *Annotator) annotateByDepth(tokens []ast.LeafToken, features []TokenActivations, outputDir string) error {
	depthTokens := make(map[int][]string)
	depthLabels := make(map[int][]string)
	maxDepth := 0

	for _, t := range tokens {
		lbl := "negative"
		if a.filter(t.Text) {
			lbl = "positive"
		}
		depthTokens[t.Depth] = append(depthTokens[t.Depth], t.Text)
		depthLabels[t.Depth] = append(depthLabels[t.Depth], lbl)
		if t.Depth > maxDepth {
			maxDepth = t.Depth
		}
	}

	var words, labels strings.Builder
	for depth := 0; depth <= maxDepth; depth++ {
		words.WriteString(strings.Join(depthTokens[depth], " ") + "\n")
		labels.WriteString(strings.Join(depthLabels[depth], " ") + "\n")
	}

	wordsFile := filepath.Join(outputDir, a.cfg.OutputPrefix+"_tokens.txt")
	labelsFile := filepath.Join(outputDir, a.cfg.OutputPrefix+"_labels.txt")
	if err := os.WriteFile(wordsFile, []byte(words.String()), 0o640); err != nil {
		return fmt.Errorf("write tokens: %w", err)
	}
	if err := os.WriteFile(labelsFile, []byte(labels.String()), 0o640); err != nil {
		return fmt.Errorf("write labels: %w", err)
	}

	var b strings.Builder
	for _, f := range features {
		if len(f.Layers) == 0 {
			b.WriteString("\n")
			continue
		}
		last := f.Layers[len(f.Layers)-1].Values
		parts := make([]string, len(last))
		for i, x := range last {
			parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		b.WriteString(strings.Join(parts, " ") + "\n")
	}
	activationsFile := filepath.Join(outputDir, a.cfg.OutputPrefix+"_activations.txt")
	if err := os.WriteFile(activationsFile, []byte(b.String()), 0o640); err != nil {
		return fmt.Errorf("write activations: %w", err)
	}

	a.logger.Info("annotation files written",
		slog.String("tokens", wordsFile),
		slog.String("labels", labelsFile),
		slog.String("activations", activationsFile))
	return nil
}

// aggregatedDocument is the cross-layer aggregate for each token.
type aggregatedDocument struct {
	AggregationMethod string              `json:"aggregation_method"`
	Features          []aggregatedFeature `json:"features"`
}

type aggregatedFeature struct {
	Token            string    `json:"token"`
	AggregatedValues []float64 `json:"aggregated_values"`
}

// writeAggregated aggregates each token's vectors across layers and dumps
// the result as JSON.
func (a *Annotator) writeAggregated(tokens []ast.LeafToken, features []TokenActivations, outputDir string) error {
	doc := aggregatedDocument{AggregationMethod: a.cfg.Aggregation}

	for i, f := range features {
		vectors := make([][]float64, 0, len(f.Layers))
		for _, l := range f.Layers {
			vectors = append(vectors, l.Values)
		}
		agg, err := Aggregate(vectors, a.cfg.Aggregation)
		if err != nil {
			return err
		}

		token := f.Token
		if i < len(tokens) {
			token = tokens[i].Text
		}
		doc.Features = append(doc.Features, aggregatedFeature{Token: token, AggregatedValues: agg})
	}

	path := filepath.Join(outputDir, a.cfg.OutputPrefix+"_aggregated_activations.json")
	if err := writeJSON(path, doc); err != nil {
		return err
	}
	a.logger.Info("aggregated activations written", slog.String("path", path))
	return nil
}

// phrasalDocument groups tokens at the same tree depth into phrases and
// aggregates their activations per layer.
type phrasalDocument struct {
	LineIndex int              `json:"linex_index"`
	Features  []phrasalFeature `json:"features"`
}

type phrasalFeature struct {
	Phrase string  `json:"phrase"`
	Layers []Layer `json:"layers"`
}

// writePhrasal aggregates token activations into per-depth phrase
// activations, layer by layer.
func (a *Annotator) writePhrasal(tokens []ast.LeafToken, features []TokenActivations, outputDir string) error {
	depthTexts := make(map[int][]string)
	depthLayers := make(map[int]map[int][][]float64)

	n := len(tokens)
	if len(features) < n {
		n = len(features)
	}
	for i := 0; i < n; i++ {
		depth := tokens[i].Depth
		depthTexts[depth] = append(depthTexts[depth], tokens[i].Text)
		if depthLayers[depth] == nil {
			depthLayers[depth] = make(map[int][][]float64)
		}
		for _, l := range features[i].Layers {
			depthLayers[depth][l.Index] = append(depthLayers[depth][l.Index], l.Values)
		}
	}

	depths := make([]int, 0, len(depthTexts))
	for d := range depthTexts {
		depths = append(depths, d)
	}
	sort.Ints(depths)

	doc := phrasalDocument{}
	for _, d := range depths {
		layerIndices := make([]int, 0, len(depthLayers[d]))
		for idx := range depthLayers[d] {
			layerIndices = append(layerIndices, idx)
		}
		sort.Ints(layerIndices)

		feature := phrasalFeature{Phrase: strings.Join(depthTexts[d], " ")}
		for _, idx := range layerIndices {
			agg, err := Aggregate(depthLayers[d][idx], a.cfg.Aggregation)
			if err != nil {
				return err
			}
			feature.Layers = append(feature.Layers, Layer{Index: idx, Values: agg})
		}
		doc.Features = append(doc.Features, feature)
	}

	path := filepath.Join(outputDir, a.cfg.OutputPrefix+"_phrasal_activations.json")
	if err := writeJSON(path, doc); err != nil {
		return err
	}
	a.logger.Info("phrase activations written", slog.String("path", path))
	return nil
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o640); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
