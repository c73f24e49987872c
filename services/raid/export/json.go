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
	"encoding/json"
	"fmt"
	"io"

	"github.com/arushisharma17/RAID/services/raid/ast"
	"github.com/arushisharma17/RAID/services/raid/label"
)

// TreeNode is the JSON rendering of one syntax node.
type TreeNode struct {
	// Type is the grammar node type.
	Type string `json:"type"`

	// Label is the canonical export label for the type.
	Label string `json:"label"`

	// Token is the source text, present on leaves only.
	Token string `json:"token,omitempty"`

	// Children holds the child nodes in source order.
	Children []*TreeNode `json:"children,omitempty"`
}

// WriteTreeJSON writes the whole syntax tree as an indented JSON document,
// listing every node's type and canonical label and every leaf's token
// text, recursively.
func WriteTreeJSON(w io.Writer, tree *ast.Tree, dict *label.Dictionary) error {
	if dict == nil {
		dict = label.DefaultDictionary()
	}

	root := buildTreeNode(tree, tree.Root(), dict)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("write tree json: %w", err)
	}
	return nil
}

func buildTreeNode(tree *ast.Tree, i int, dict *label.Dictionary) *TreeNode {
	n := tree.Nodes[i]
	out := &TreeNode{
		Type:  n.Type,
		Label: dict.Convert(n.Type),
	}
	if len(n.Children) == 0 {
		out.Token = n.Text
		return out
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, buildTreeNode(tree, c, dict))
	}
	return out
}
