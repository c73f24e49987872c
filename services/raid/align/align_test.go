// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package align

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arushisharma17/RAID/services/raid/ast"
	"github.com/arushisharma17/RAID/services/raid/label"
)

// mkTokens builds a token stream from bare texts.
func mkTokens(texts ...string) []label.Token {
	out := make([]label.Token, len(texts))
	for i, s := range texts {
		out[i] = label.Token{Text: s, Tag: label.TagBegin, Label: "test"}
	}
	return out
}

// texts extracts the token texts of one group.
func texts(g Group) []string {
	out := make([]string, len(g.Tokens))
	for i, tok := range g.Tokens {
		out[i] = tok.Text
	}
	return out
}

// A single fully-matching line claims all its tokens
func TestRealign_SingleLine(t *testing.T) {
	groups := Realign(
		[]string{"int x = 1;"},
		mkTokens("int", "x", "=", "1", ";"),
		nil,
	)
	require.Len(t, groups, 2)

	assert.Equal(t, "int x = 1;", groups[0].Line)
	assert.Equal(t, []string{"int", "x", "=", "1", ";"}, texts(groups[0]))
	// Trailing blank record is always present.
	assert.Empty(t, groups[1].Line)
	assert.Empty(t, groups[1].Tokens)
}

// Tokens split across lines at the first miss
func TestRealign_TwoLines(t *testing.T) {
	groups := Realign(
		[]string{"if (x) {", "}"},
		mkTokens("if", "(", "x", ")", "{", "}"),
		nil,
	)
	require.Len(t, groups, 3)

	assert.Equal(t, []string{"if", "(", "x", ")", "{"}, texts(groups[0]))
	assert.Equal(t, []string{"}"}, texts(groups[1]))
}

// Blank lines yield empty groups and consume nothing
func TestRealign_BlankLines(t *testing.T) {
	groups := Realign(
		[]string{"a = 1;", "", "b = 2;"},
		mkTokens("a", "=", "1", ";", "b", "=", "2", ";"),
		nil,
	)
	require.Len(t, groups, 4)

	assert.Equal(t, []string{"a", "=", "1", ";"}, texts(groups[0]))
	assert.Empty(t, groups[1].Tokens)
	assert.Equal(t, []string{"b", "=", "2", ";"}, texts(groups[2]))
}

// A miss after several matches retracts the last tentative match
func TestRealign_RetractionOnMiss(t *testing.T) {
	groups := Realign(
		[]string{"x = y;", "z++;"},
		mkTokens("x", "=", "y", ";", "z", "++", ";"),
		nil,
	)
	require.Len(t, groups, 3)

	// "z" misses on line one after four matches; the retraction keeps the
	// four matched tokens on the line and pushes "z" to line two.
	assert.Equal(t, []string{"x", "=", "y", ";"}, texts(groups[0]))
	assert.Equal(t, []string{"z", "++", ";"}, texts(groups[1]))
}

// A single ambiguous match is backed off entirely
func TestRealign_SingleMatchBackoff(t *testing.T) {
	groups := Realign(
		[]string{"foo", "bar"},
		mkTokens("foo", "bar"),
		nil,
	)
	require.Len(t, groups, 3)

	// "bar" misses at index 1 with exactly one prior match; the back-off
	// keeps only "foo" on the first line.
	assert.Equal(t, []string{"foo"}, texts(groups[0]))
	assert.Equal(t, []string{"bar"}, texts(groups[1]))
}

// A miss on the very first token still claims it for the line
func TestRealign_FirstTokenMissOverclaims(t *testing.T) {
	groups := Realign(
		[]string{"aaa", "bbb"},
		mkTokens("bbb"),
		nil,
	)
	require.Len(t, groups, 3)

	// Contract behavior: the unmatched token lands on the line where the
	// scan gave up, and the line it actually belongs to goes empty.
	assert.Equal(t, []string{"bbb"}, texts(groups[0]))
	assert.Empty(t, groups[1].Tokens)
}

// Tokens left over past the last line are dropped
func TestRealign_TrailingTokensDropped(t *testing.T) {
	groups := Realign(
		[]string{"x"},
		mkTokens("x", "y", "z"),
		nil,
	)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"x"}, texts(groups[0]))
}

// An all-matching scan over exactly two remaining tokens still backs
// off the second one
func TestRealign_TwoRemainingBackoff(t *testing.T) {
	groups := Realign(
		[]string{"x;", "y;", "z;"},
		mkTokens("x", ";"),
		nil,
	)
	require.Len(t, groups, 4)

	// Both tokens match line one, but a 2-token window that never missed
	// is treated as ambiguous: ";" is deferred to the next line's scan.
	assert.Equal(t, []string{"x"}, texts(groups[0]))
	assert.Equal(t, []string{";"}, texts(groups[1]))
	assert.Empty(t, groups[2].Tokens)
}

// No token is assigned twice and order is preserved
func TestRealign_StreamPartitionProperty(t *testing.T) {
	lines := []string{
		"public class Foo {",
		"    int count = 0;",
		"",
		"    void run() { count++; }",
		"}",
	}
	stream := mkTokens(
		"public", "class", "Foo", "{",
		"int", "count", "=", "0", ";",
		"void", "run", "(", ")", "{", "count", "++", ";", "}",
		"}",
	)

	groups := Realign(lines, stream, nil)
	require.Len(t, groups, len(lines)+1)

	var flattened []string
	for _, g := range groups {
		flattened = append(flattened, texts(g)...)
	}

	// The concatenation of all groups is a prefix of the original stream.
	require.LessOrEqual(t, len(flattened), len(stream))
	for i, text := range flattened {
		assert.Equal(t, stream[i].Text, text, "position=%d", i)
	}
}

// Realigned groups reconstruct each line modulo whitespace when every
// token matches
func TestRealign_LineReconstruction(t *testing.T) {
	lines := []string{
		"public class Foo {",
		"    int x = 1;",
		"}",
	}
	stream := mkTokens(
		"public", "class", "Foo", "{",
		"int", "x", "=", "1", ";",
		"}",
	)

	groups := Realign(lines, stream, nil)
	require.Len(t, groups, len(lines)+1)

	for i, line := range lines {
		want := strings.Join(strings.Fields(line), "")
		got := strings.Join(texts(groups[i]), "")
		assert.Equal(t, want, got, "line=%d", i)
	}
}

// parseJavaTokens parses src with the real Java grammar and labels its
// leaves, mirroring the pipeline's path into Realign.
func parseJavaTokens(t *testing.T, src string) []label.Token {
	t.Helper()
	p, err := ast.NewParser(ast.GrammarJava)
	require.NoError(t, err)
	tree, err := p.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	l, err := label.NewLabeler(ast.GrammarJava)
	require.NoError(t, err)
	return l.Label(tree)
}

// A block comment spanning three lines distributes its pieces onto the
// physical lines it covers
func TestRealign_MultilineBlockComment(t *testing.T) {
	src := "/**\n * {@inheritDoc}\n */"
	tokens := parseJavaTokens(t, src)
	require.NotEmpty(t, tokens)

	groups := Realign(strings.Split(src, "\n"), tokens, nil)
	require.Len(t, groups, 4)

	require.Equal(t, []string{"/**"}, texts(groups[0]))
	require.Equal(t, []string{"*", "{@inheritDoc}"}, texts(groups[1]))
	assert.Equal(t, []string{"*/"}, texts(groups[2]))
	assert.Empty(t, groups[3].Tokens)

	// The comment's first piece opens the span; the rest continue it under
	// the same label.
	first := groups[0].Tokens[0]
	assert.Equal(t, label.TagBegin, first.Tag)
	assert.Equal(t, label.TagInside, groups[1].Tokens[0].Tag)
	for _, g := range groups[:3] {
		for _, tok := range g.Tokens {
			assert.Equal(t, first.Label, tok.Label)
		}
	}
}

// Escape sequences never split a line's tokens across the line boundary
func TestRealign_EscapedBackslash(t *testing.T) {
	src := "final String[] memberValues = value.split(\"\\\\|\");\n" +
		"if (c == '\\\\') {}"
	tokens := parseJavaTokens(t, src)
	require.NotEmpty(t, tokens)

	groups := Realign(strings.Split(src, "\n"), tokens, nil)
	require.Len(t, groups, 3)

	assert.NotEmpty(t, groups[0].Tokens)
	assert.NotEmpty(t, groups[1].Tokens)
	assert.Empty(t, groups[2].Tokens)

	// No token straddles a line break and no escape is cut in half into a
	// lone backslash.
	for i, g := range groups {
		for _, tok := range g.Tokens {
			assert.NotContains(t, tok.Text, "\n", "line=%d", i)
			assert.NotEqual(t, `\`, tok.Text, "line=%d", i)
		}
	}
}

// A token spanning a line break resumes the scan past its final piece
func TestRealign_SpanningTokenResumesScan(t *testing.T) {
	stream := mkTokens("a", "=", "'\n  '", "+", "b", ";")

	groups := Realign([]string{"a = '", "  ' + b;"}, stream, nil)
	require.Len(t, groups, 3)

	require.Equal(t, []string{"a", "=", "'"}, texts(groups[0]))
	require.Equal(t, []string{"'", "+", "b", ";"}, texts(groups[1]))
	assert.Empty(t, groups[2].Tokens)

	// The literal's opening piece keeps its tag; the continuation piece
	// is marked inside.
	assert.Equal(t, label.TagBegin, groups[0].Tokens[2].Tag)
	assert.Equal(t, label.TagInside, groups[1].Tokens[0].Tag)
}

// Labels and tags travel with their tokens through realignment
func TestRealign_PreservesTokenFields(t *testing.T) {
	stream := []label.Token{
		{Text: "x", Tag: label.TagBegin, Label: "local_variable_declaration", Naming: "single_letter"},
		{Text: "=", Tag: label.TagBegin, Label: "local_variable_declaration"},
		{Text: ";", Tag: label.TagBegin, Label: "local_variable_declaration"},
	}

	groups := Realign([]string{"x = ;"}, stream, nil)
	require.Len(t, groups, 2)
	require.Len(t, groups[0].Tokens, 3)

	for i := range stream {
		assert.Equal(t, stream[i], groups[0].Tokens[i])
	}
}
