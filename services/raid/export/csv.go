// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/arushisharma17/RAID/services/raid/ast"
	"github.com/arushisharma17/RAID/services/raid/label"
)

// Fixed leading columns of the tabular export; the declared non-leaf label
// types follow as one column each.
var csvFixedHeader = []string{"token", "node_type", "bio"}

// WriteCSV writes the tabular export: one row per leaf token with its
// text, node type, and BIO tag, followed by one column per declared
// non-leaf label type holding the BIO-prefixed label for every enclosing
// ancestor of that type ("B-class_body" on the span's first leaf,
// "I-class_body" on continuations, empty when the leaf is not enclosed).
//
// Downstream column selection reads a single ancestor column back to build
// alternative labelings of the same token stream without re-parsing.
func WriteCSV(w io.Writer, tree *ast.Tree, tokens []label.Token, dict *label.Dictionary) error {
	if dict == nil {
		dict = label.DefaultDictionary()
	}

	cw := csv.NewWriter(w)
	nonLeaf := dict.NonLeafTypes()

	header := append(append([]string{}, csvFixedHeader...), nonLeaf...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	leaves := tree.LeafIndices()
	if len(leaves) != len(tokens) {
		return fmt.Errorf("csv export: %d leaves but %d labeled tokens", len(leaves), len(tokens))
	}

	// Span tracking per column: the ancestor node instance that produced
	// the previous row's cell. A new instance starts a B span.
	prevAncestor := make(map[string]int, len(nonLeaf))

	row := make([]string, len(header))
	for i, leafIdx := range leaves {
		tok := tokens[i]
		row[0] = tok.Text
		row[1] = tok.Type
		row[2] = string(tok.Tag)

		enclosing := ancestorsByType(tree, leafIdx)
		for c, name := range nonLeaf {
			cell := ""
			if anc, ok := enclosing[name]; ok {
				tag := "I"
				if prevAncestor[name] != anc+1 {
					tag = "B"
				}
				prevAncestor[name] = anc + 1 // +1 so the zero value means "no span"
				cell = tag + "-" + name
			} else {
				delete(prevAncestor, name)
			}
			row[len(csvFixedHeader)+c] = cell
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ancestorsByType maps each ancestor node type of a leaf to the nearest
// ancestor node of that type.
func ancestorsByType(tree *ast.Tree, leaf int) map[string]int {
	out := make(map[string]int)
	for p := tree.Nodes[leaf].Parent; p != ast.NoParent; p = tree.Nodes[p].Parent {
		name := tree.Nodes[p].Type
		if _, ok := out[name]; !ok {
			out[name] = p
		}
	}
	return out
}

// ReadCSVColumn reads tokens back from a tabular export, taking the BIO
// tag and structural label from the named non-leaf column. Rows where the
// column is empty come back tagged O with an empty label.
//
// This is the column-selection step: paired with an existing .csv it
// replaces parsing and labeling entirely.
func ReadCSVColumn(r io.Reader, dict *label.Dictionary, labelType string) ([]label.Token, error) {
	if dict == nil {
		dict = label.DefaultDictionary()
	}
	colOffset, ok := dict.NonLeafColumn(labelType)
	if !ok {
		return nil, fmt.Errorf("label type %q is not a declared non-leaf column", labelType)
	}
	col := len(csvFixedHeader) + colOffset

	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	var tokens []label.Token
	for i, rec := range records {
		if i == 0 {
			continue // header
		}
		if col >= len(rec) {
			return nil, fmt.Errorf("csv row %d has %d columns, need %d", i, len(rec), col+1)
		}

		tok := label.Token{Text: rec[0], Type: rec[1], Tag: label.TagOutside}
		if cell := rec[col]; len(cell) >= 2 {
			tok.Tag = cell[0]
			tok.Label = cell[2:]
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}
