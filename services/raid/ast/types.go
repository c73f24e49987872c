// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast provides grammar-driven parsing and leaf-token extraction for
// the RAID labeling pipeline.
//
// The package wraps tree-sitter parsing behind a small Parser type and copies
// each parsed tree into an arena representation that the rest of the pipeline
// can traverse without holding tree-sitter resources open. All types are
// read-only after construction.
package ast

import "strings"

// NoParent marks a node without a parent (the root).
const NoParent = -1

// Node is one syntax node in an arena-backed Tree.
//
// Nodes reference each other by index into Tree.Nodes rather than by
// pointer, so a Tree has no ownership cycles and can be copied or
// garbage-collected as a unit.
type Node struct {
	// Type is the grammar node-type name (e.g. "identifier", "class_body").
	// Anonymous punctuation and keyword nodes have their literal text as
	// the type (e.g. "{", "public").
	Type string

	// Text is the exact source text covered by this node.
	Text string

	// Parent is the index of the parent node, or NoParent for the root.
	Parent int

	// Children holds the indices of child nodes in source order.
	Children []int

	// IsNamed reports whether the grammar considers this node a named
	// (semantically meaningful) node rather than anonymous punctuation.
	IsNamed bool
}

// Tree is an immutable arena of syntax nodes produced by Parser.Parse.
//
// Nodes[0] is always the root. A Tree is safe for concurrent reads.
type Tree struct {
	// Grammar identifies the grammar that produced this tree.
	Grammar Grammar

	// Nodes is the node arena in pre-order. Nodes[0] is the root.
	Nodes []Node
}

// LeafToken is one childless node of the tree, paired with its node type
// and tree depth.
//
// Leaf tokens are emitted in left-to-right source order; their concatenation,
// modulo whitespace, reconstructs the original text.
type LeafToken struct {
	// Text is the token's source text.
	Text string

	// Type is the grammar node type of the leaf.
	Type string

	// Depth is the distance from the root, counted so that direct children
	// of the root sit at depth 0.
	Depth int
}

// Root returns the index of the root node. Valid for any non-empty tree.
func (t *Tree) Root() int { return 0 }

// ChildCount returns the number of children of node i.
func (t *Tree) ChildCount(i int) int { return len(t.Nodes[i].Children) }

// LastChildType returns the node type of the last child of node i, or ""
// when i has no children.
func (t *Tree) LastChildType(i int) string {
	c := t.Nodes[i].Children
	if len(c) == 0 {
		return ""
	}
	return t.Nodes[c[len(c)-1]].Type
}

// LeafIndices returns the indices of all childless nodes in pre-order.
//
// Every tree yields at least one index: a single-node tree (including the
// bare error node tree-sitter produces for unparseable input) yields its
// root.
func (t *Tree) LeafIndices() []int {
	leaves := make([]int, 0, len(t.Nodes))
	var walk func(i int)
	walk = func(i int) {
		if len(t.Nodes[i].Children) == 0 {
			leaves = append(leaves, i)
			return
		}
		for _, c := range t.Nodes[i].Children {
			walk(c)
		}
	}
	walk(0)
	return leaves
}

// Depth returns the depth of node i, counted so that direct children of
// the root sit at depth 0 and the root itself also reports 0.
func (t *Tree) Depth(i int) int {
	hops := 0
	for t.Nodes[i].Parent != NoParent {
		i = t.Nodes[i].Parent
		hops++
	}
	if hops == 0 {
		return 0
	}
	return hops - 1
}

// Leaves returns the ordered leaf tokens of the tree.
func (t *Tree) Leaves() []LeafToken {
	idx := t.LeafIndices()
	out := make([]LeafToken, len(idx))
	for k, i := range idx {
		out[k] = LeafToken{
			Text:  t.Nodes[i].Text,
			Type:  t.Nodes[i].Type,
			Depth: t.Depth(i),
		}
	}
	return out
}

// NodesAtDepth returns the indices of nodes found target levels below the
// root. Leaves shallower than the target are included where they occur, so
// the result always covers the whole source text. A negative target selects
// the leaves.
func (t *Tree) NodesAtDepth(target int) []int {
	if target < 0 {
		return t.LeafIndices()
	}
	var out []int
	var walk func(i, level int)
	walk = func(i, level int) {
		if level == target || len(t.Nodes[i].Children) == 0 {
			out = append(out, i)
			return
		}
		for _, c := range t.Nodes[i].Children {
			walk(c, level+1)
		}
	}
	walk(0, 0)
	return out
}

// JoinedText concatenates all leaf texts with whitespace removed. Useful
// for round-trip checks against the original source.
func (t *Tree) JoinedText() string {
	var b strings.Builder
	for _, i := range t.LeafIndices() {
		b.WriteString(strings.Join(strings.Fields(t.Nodes[i].Text), ""))
	}
	return b.String()
}
