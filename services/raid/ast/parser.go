// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/python"
)

// Grammar identifies a supported source grammar.
type Grammar string

const (
	// GrammarJava selects the tree-sitter Java grammar.
	GrammarJava Grammar = "java"

	// GrammarPython selects the tree-sitter Python grammar.
	GrammarPython Grammar = "python"
)

// DefaultMaxFileSize is the largest input Parse accepts unless overridden.
const DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB

// WarnFileSize is the size above which Parse logs a warning.
const WarnFileSize = 1024 * 1024 // 1MB

// language returns the tree-sitter language for the grammar, or
// ErrUnsupportedGrammar for anything outside the supported set.
func (g Grammar) language() (*sitter.Language, error) {
	switch g {
	case GrammarJava:
		return java.GetLanguage(), nil
	case GrammarPython:
		return python.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: java, python)", ErrUnsupportedGrammar, string(g))
	}
}

// Supported reports whether g names a grammar this package can parse.
func (g Grammar) Supported() bool {
	_, err := g.language()
	return err == nil
}

// ParserOption configures a Parser instance.
type ParserOption func(*Parser)

// WithMaxFileSize sets the maximum input size the parser will accept.
//
// Parameters:
//   - bytes: Maximum size in bytes. Must be positive.
func WithMaxFileSize(bytes int64) ParserOption {
	return func(p *Parser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// WithLogger sets the logger used for parse diagnostics.
func WithLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Parser parses source bytes for one grammar into an arena Tree.
//
// Description:
//
//	Parser uses tree-sitter to parse source files. Each Parse call creates
//	its own tree-sitter parser instance internally and copies the resulting
//	tree into an arena, so parsed Trees hold no tree-sitter resources.
//
// Thread Safety:
//
//	Parser instances are safe for concurrent use. Multiple goroutines may
//	call Parse simultaneously on the same Parser.
type Parser struct {
	grammar     Grammar
	language    *sitter.Language
	maxFileSize int64
	logger      *slog.Logger
}

// NewParser creates a Parser for the given grammar.
//
// Inputs:
//   - grammar: One of GrammarJava or GrammarPython. Unsupported grammar ids
//     fail fast with ErrUnsupportedGrammar.
//   - opts: Optional configuration (WithMaxFileSize, WithLogger).
//
// Outputs:
//   - *Parser: Configured parser instance.
//   - error: ErrUnsupportedGrammar when grammar is outside the supported set.
func NewParser(grammar Grammar, opts ...ParserOption) (*Parser, error) {
	lang, err := grammar.language()
	if err != nil {
		return nil, err
	}

	p := &Parser{
		grammar:     grammar,
		language:    lang,
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Grammar returns the grammar id this parser handles.
func (p *Parser) Grammar() Grammar { return p.grammar }

// Parse parses source bytes into an arena Tree.
//
// Description:
//
//	Parse is error-tolerant: syntactically invalid input still yields a
//	tree containing error nodes, which downstream labeling degrades on
//	gracefully. Complete failures are limited to invalid or oversized
//	content and context cancellation.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing.
//     Tree-sitter parsing itself cannot be interrupted mid-parse.
//   - content: Raw source bytes. Must be valid UTF-8.
//
// Outputs:
//   - *Tree: Arena tree. Never nil on success; always has at least a root.
//   - error: ErrFileTooLarge, ErrInvalidContent, ErrParseFailed, or a
//     context error.
func (p *Parser) Parse(ctx context.Context, content []byte) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if int64(len(content)) > p.maxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}

	if len(content) > WarnFileSize {
		p.logger.Warn("parsing large input",
			slog.String("grammar", string(p.grammar)),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	start := time.Now()
	ctx, span := startParseSpan(ctx, p.grammar)
	defer span.End()

	// New instance per call for thread safety.
	parser := sitter.NewParser()
	parser.SetLanguage(p.language)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParse(ctx, p.grammar, time.Since(start), 0, err)
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	root := tree.RootNode()
	if root == nil {
		recordParse(ctx, p.grammar, time.Since(start), 0, ErrParseFailed)
		return nil, fmt.Errorf("%w: tree-sitter returned nil root node", ErrParseFailed)
	}

	out := &Tree{Grammar: p.grammar}
	copyNode(out, root, content, NoParent)

	if root.HasError() {
		p.logger.Debug("source contains syntax errors",
			slog.String("grammar", string(p.grammar)))
	}

	recordParse(ctx, p.grammar, time.Since(start), len(out.LeafIndices()), nil)
	return out, nil
}

// copyNode copies one tree-sitter node (and its subtree) into the arena.
func copyNode(t *Tree, n *sitter.Node, content []byte, parent int) int {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{
		Type:    n.Type(),
		Text:    n.Content(content),
		Parent:  parent,
		IsNamed: n.IsNamed(),
	})

	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := copyNode(t, n.Child(i), content, idx)
		t.Nodes[idx].Children = append(t.Nodes[idx].Children, c)
	}
	return idx
}
