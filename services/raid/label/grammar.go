// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package label

import (
	"fmt"

	"github.com/arushisharma17/RAID/services/raid/ast"
)

// Strategy decides whether an anonymous leaf token functions as the
// opening token of a construct. The decision is grammar-specific, so it is
// injected into the Labeler by grammar id rather than hard-coded.
//
// Implementations must be pure: the decision depends only on the leaf's
// parent node type, the parent's child count, and the type of the parent's
// last child.
type Strategy interface {
	// BlockOpen reports whether a leaf under the given parent should be
	// tagged as span-opening (B) rather than outside (O) when the labeler
	// reaches a context boundary.
	BlockOpen(parentType string, childCount int, lastChildType string) bool
}

// javaStrategy treats a leaf as block-opening when its parent is a
// three-child construct terminated by a semicolon.
type javaStrategy struct{}

func (javaStrategy) BlockOpen(parentType string, childCount int, lastChildType string) bool {
	return childCount == 3 && lastChildType == ";"
}

// pythonStrategy treats a leaf as block-opening when its parent has
// exactly two children.
type pythonStrategy struct{}

func (pythonStrategy) BlockOpen(parentType string, childCount int, lastChildType string) bool {
	return childCount == 2
}

// StrategyFor returns the block-open strategy for a grammar id.
//
// Unsupported grammars fail fast with ast.ErrUnsupportedGrammar.
func StrategyFor(grammar ast.Grammar) (Strategy, error) {
	switch grammar {
	case ast.GrammarJava:
		return javaStrategy{}, nil
	case ast.GrammarPython:
		return pythonStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: no labeling strategy for %q", ast.ErrUnsupportedGrammar, string(grammar))
	}
}

// Compile-time interface compliance checks.
var (
	_ Strategy = javaStrategy{}
	_ Strategy = pythonStrategy{}
)
