// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package label assigns hierarchical BIO tags and structural labels to the
// leaf tokens of a parsed tree.
//
// The structural label of a leaf is the node-type name of its nearest
// enclosing named ancestor, found the way lexical scoping resolves names: a
// closer named ancestor shadows an outer one. B/I/O tagging follows span
// boundaries over that labeling, with a per-grammar strategy deciding
// whether an anonymous boundary token opens a construct (B) or sits outside
// one (O).
package label

import (
	"github.com/arushisharma17/RAID/services/raid/ast"
	"github.com/arushisharma17/RAID/services/raid/patterns"
)

// BIO tag bytes.
const (
	TagBegin   byte = 'B'
	TagInside  byte = 'I'
	TagOutside byte = 'O'
)

// Token is one labeled leaf token.
type Token struct {
	// Text is the token's source text.
	Text string

	// Type is the grammar node type of the leaf.
	Type string

	// Depth is the leaf's tree depth (see ast.Tree.Depth).
	Depth int

	// Tag is the BIO tag: TagBegin, TagInside, or TagOutside.
	Tag byte

	// Label is the structural label (nearest named ancestor type).
	Label string

	// Naming is the naming-convention category of identifier tokens, or
	// patterns.NoMatch for everything else.
	Naming string
}

// LabelerOption configures a Labeler.
type LabelerOption func(*Labeler)

// WithCases overrides the naming-convention table used for identifier
// classification.
func WithCases(cases patterns.Cases) LabelerOption {
	return func(l *Labeler) {
		if cases != nil {
			l.cases = cases
		}
	}
}

// Labeler produces the labeled token stream for one grammar.
//
// Thread Safety: a Labeler is immutable after construction and safe for
// concurrent use.
type Labeler struct {
	strategy Strategy
	cases    patterns.Cases
}

// NewLabeler creates a Labeler for the given grammar.
//
// Outputs:
//   - *Labeler: configured labeler.
//   - error: ast.ErrUnsupportedGrammar when no strategy exists for the
//     grammar id.
func NewLabeler(grammar ast.Grammar, opts ...LabelerOption) (*Labeler, error) {
	strategy, err := StrategyFor(grammar)
	if err != nil {
		return nil, err
	}

	l := &Labeler{
		strategy: strategy,
		cases:    patterns.DefaultCases(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// labelType returns the structural label for a leaf node.
//
// A leaf whose type equals its own text (anonymous punctuation/keywords)
// or whose type is "identifier" is itself the named container being
// labeled, so its label comes from its parent instead.
func labelType(t *ast.Tree, i int) string {
	n := t.Nodes[i]
	if (n.Type == n.Text || n.Type == "identifier") && n.Parent != ast.NoParent {
		return t.Nodes[n.Parent].Type
	}
	return n.Type
}

// Label walks the tree's leaves in order and assigns each a BIO tag and
// structural label.
//
// Tagging protocol: the first leaf under a structural context is tagged B
// and contiguous leaves under the same context are tagged I. An anonymous
// leaf reaching a context boundary is tagged B when the grammar strategy
// considers it block-opening, O otherwise; either way it resets the
// contiguity tracking so the next leaf starts a fresh span.
func (l *Labeler) Label(t *ast.Tree) []Token {
	leaves := t.LeafIndices()
	out := make([]Token, 0, len(leaves))

	var prev string
	havePrev := false
	haveOuter := false

	for i, idx := range leaves {
		n := t.Nodes[idx]
		name := labelType(t, idx)

		naming := patterns.NoMatch
		if n.Type == "identifier" {
			naming = l.cases.Classify(n.Text)
		}

		var tag byte
		if n.Type == n.Text && i > 0 && (!havePrev || prev != name || !haveOuter) {
			tag = TagOutside
			if n.Parent != ast.NoParent &&
				l.strategy.BlockOpen(t.Nodes[n.Parent].Type, t.ChildCount(n.Parent), t.LastChildType(n.Parent)) {
				tag = TagBegin
			}
			havePrev = false
			haveOuter = true
		} else {
			if havePrev && prev == name {
				tag = TagInside
			} else {
				tag = TagBegin
			}
			prev = name
			havePrev = true
			haveOuter = false
		}

		out = append(out, Token{
			Text:   n.Text,
			Type:   n.Type,
			Depth:  t.Depth(idx),
			Tag:    tag,
			Label:  name,
			Naming: naming,
		})
	}
	return out
}
