// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package export reads corpus source files and writes the parallel
// .in/.label/.bio streams plus the tabular and JSON exports.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadBlocks splits a source stream into blank-line-delimited blocks.
//
// Each block is the trimmed text between blank lines. A final (possibly
// empty) block is always appended after the last blank line, mirroring the
// convention that every corpus text ends with an implicit blank record.
func ReadBlocks(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var blocks []string
	var b strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			blocks = append(blocks, strings.TrimSpace(b.String()))
			b.Reset()
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read blocks: %w", err)
	}

	blocks = append(blocks, b.String())
	return blocks, nil
}

// ReadAll reads the whole stream as a single block.
func ReadAll(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return string(raw), nil
}

// StripNonASCII removes every rune outside the 7-bit ASCII range.
//
// Alignment searches for token text inside source lines byte-for-byte, so
// characters the grammar tokenizer normalizes away (box-drawing characters,
// typographic punctuation) must be removed from the source before parsing.
func StripNonASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
