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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arushisharma17/RAID/services/raid/ast"
)

// Set filters match exact members only
func TestCompileFilter_SetForm(t *testing.T) {
	f, err := CompileFilter("set:public,static")
	require.NoError(t, err)

	assert.True(t, f("public"))
	assert.True(t, f("static"))
	assert.False(t, f("private"))
	assert.False(t, f("publics"))
	assert.False(t, f(""))
}

// Regex filters match by pattern
func TestCompileFilter_RegexForm(t *testing.T) {
	f, err := CompileFilter("re:^get[A-Z]")
	require.NoError(t, err)

	assert.True(t, f("getValue"))
	assert.False(t, f("get"))
	assert.False(t, f("setValue"))
}

// Malformed specifications fail synchronously with the sentinel
func TestCompileFilter_Invalid(t *testing.T) {
	_, err := CompileFilter("public,static")
	require.ErrorIs(t, err, ErrInvalidFilter)

	_, err = CompileFilter("re:([")
	require.ErrorIs(t, err, ErrInvalidFilter)
}

// Element-wise and concatenating aggregation methods
func TestAggregate_Methods(t *testing.T) {
	vectors := [][]float64{{1, 2}, {3, 6}}

	mean, err := Aggregate(vectors, AggregateMean)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, mean)

	max, err := Aggregate(vectors, AggregateMax)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 6}, max)

	sum, err := Aggregate(vectors, AggregateSum)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 8}, sum)

	concat, err := Aggregate(vectors, AggregateConcat)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 6}, concat)
}

// Unknown methods and malformed inputs are rejected
func TestAggregate_Errors(t *testing.T) {
	_, err := Aggregate([][]float64{{1}}, "median")
	require.ErrorIs(t, err, ErrUnsupportedAggregation)

	_, err = Aggregate(nil, AggregateMean)
	require.Error(t, err)

	_, err = Aggregate([][]float64{{1, 2}, {3}}, AggregateMean)
	require.Error(t, err)

	// Ragged vectors are fine under concat.
	out, err := Aggregate([][]float64{{1, 2}, {3}}, AggregateConcat)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, out)
}

// The extractor's subword marker is stripped from parsed tokens
func TestParseActivationFile_StripsSubwordMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activations.json")
	doc := `{"linex_index":0,"features":[{"token":"Ġpublic","layers":[{"index":0,"values":[1,2]}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	features, err := ParseActivationFile(path)
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, "public", features[0].Token)
	assert.Equal(t, []float64{1, 2}, features[0].Layers[0].Values)
}

// Config validation happens at construction, before extraction
func TestNewAnnotator_Validation(t *testing.T) {
	_, err := NewAnnotator(&fakeExtractor{}, Config{BinaryFilter: "nope"})
	require.ErrorIs(t, err, ErrInvalidFilter)

	_, err = NewAnnotator(&fakeExtractor{}, Config{Aggregation: "median"})
	require.ErrorIs(t, err, ErrUnsupportedAggregation)

	a, err := NewAnnotator(&fakeExtractor{}, Config{})
	require.NoError(t, err)
	assert.Equal(t, "bert-base-uncased", a.cfg.Model)
	assert.Equal(t, "cpu", a.cfg.Device)
	assert.Equal(t, AggregateMean, a.cfg.Aggregation)
}

// fakeExtractor reads the input sentence back and fabricates two layers
// of activations per token: layer 0 is [i, i], layer 1 is [i+10, i+10].
type fakeExtractor struct {
	calls int
}

func (e *fakeExtractor) Extract(ctx context.Context, model, inputFile, outputFile, aggregation, device string) error {
	e.calls++

	raw, err := os.ReadFile(inputFile)
	if err != nil {
		return err
	}
	tokens := strings.Fields(string(raw))

	doc := activationFile{LineIndex: 0}
	for i, tok := range tokens {
		doc.Features = append(doc.Features, TokenActivations{
			Token: tok,
			Layers: []Layer{
				{Index: 0, Values: []float64{float64(i), float64(i)}},
				{Index: 1, Values: []float64{float64(i + 10), float64(i + 10)}},
			},
		})
	}

	raw, err = json.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(outputFile, raw, 0o600)
}

// End-to-end annotation run over a fake extractor
func TestProcess_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	extractor := &fakeExtractor{}

	a, err := NewAnnotator(extractor, Config{OutputPrefix: "run"})
	require.NoError(t, err)

	tokens := []ast.LeafToken{
		{Text: "public", Type: "public", Depth: 0},
		{Text: "static", Type: "static", Depth: 0},
		{Text: "x", Type: "identifier", Depth: 1},
	}
	require.NoError(t, a.Process(context.Background(), tokens, dir))
	assert.Equal(t, 1, extractor.calls)

	// Extractor input is the space-joined token sentence.
	input, err := os.ReadFile(filepath.Join(dir, "input_sentences.txt"))
	require.NoError(t, err)
	assert.Equal(t, "public static x\n", string(input))

	// Tokens and labels are grouped by depth, one depth per line.
	words, err := os.ReadFile(filepath.Join(dir, "run_tokens.txt"))
	require.NoError(t, err)
	assert.Equal(t, "public static\nx\n", string(words))

	labels, err := os.ReadFile(filepath.Join(dir, "run_labels.txt"))
	require.NoError(t, err)
	assert.Equal(t, "positive positive\nnegative\n", string(labels))

	// The activations file carries each token's last-layer vector.
	acts, err := os.ReadFile(filepath.Join(dir, "run_activations.txt"))
	require.NoError(t, err)
	assert.Equal(t, "10 10\n11 11\n12 12\n", string(acts))

	// Aggregated document: cross-layer mean per token.
	var agg aggregatedDocument
	raw, err := os.ReadFile(filepath.Join(dir, "run_aggregated_activations.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &agg))
	assert.Equal(t, AggregateMean, agg.AggregationMethod)
	require.Len(t, agg.Features, 3)
	assert.Equal(t, "public", agg.Features[0].Token)
	assert.Equal(t, []float64{5, 5}, agg.Features[0].AggregatedValues)
	assert.Equal(t, []float64{6, 6}, agg.Features[1].AggregatedValues)
	assert.Equal(t, []float64{7, 7}, agg.Features[2].AggregatedValues)

	// Phrasal document: per-depth phrases with per-layer aggregates.
	var phr phrasalDocument
	raw, err = os.ReadFile(filepath.Join(dir, "run_phrasal_activations.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &phr))
	assert.Equal(t, 0, phr.LineIndex)
	require.Len(t, phr.Features, 2)

	assert.Equal(t, "public static", phr.Features[0].Phrase)
	require.Len(t, phr.Features[0].Layers, 2)
	assert.Equal(t, 0, phr.Features[0].Layers[0].Index)
	assert.Equal(t, []float64{0.5, 0.5}, phr.Features[0].Layers[0].Values)
	assert.Equal(t, []float64{10.5, 10.5}, phr.Features[0].Layers[1].Values)

	assert.Equal(t, "x", phr.Features[1].Phrase)
	assert.Equal(t, []float64{2, 2}, phr.Features[1].Layers[0].Values)
	assert.Equal(t, []float64{12, 12}, phr.Features[1].Layers[1].Values)
}

// Extraction failures surface as wrapped errors
func TestProcess_ExtractorFailure(t *testing.T) {
	a, err := NewAnnotator(failingExtractor{}, Config{})
	require.NoError(t, err)

	err = a.Process(context.Background(), []ast.LeafToken{{Text: "x"}}, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract activations")
}

type failingExtractor struct{}

func (failingExtractor) Extract(ctx context.Context, model, inputFile, outputFile, aggregation, device string) error {
	return os.ErrPermission
}
