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
	"bufio"
	"fmt"
	"io"

	"github.com/arushisharma17/RAID/services/raid/align"
	"github.com/arushisharma17/RAID/services/raid/label"
)

// Writer serializes per-line token groups to three strictly parallel
// line-oriented streams: raw tokens (.in), canonical labels (.label), and
// single-character BIO tags (.bio).
//
// Every group produces exactly one line in each stream, blank groups
// included, so the streams stay positionally aligned line by line.
type Writer struct {
	in    *bufio.Writer
	label *bufio.Writer
	bio   *bufio.Writer
	dict  *label.Dictionary
}

// NewWriter creates a Writer over the three output streams. A nil dict
// uses the built-in label dictionary.
func NewWriter(in, lbl, bio io.Writer, dict *label.Dictionary) *Writer {
	if dict == nil {
		dict = label.DefaultDictionary()
	}
	return &Writer{
		in:    bufio.NewWriter(in),
		label: bufio.NewWriter(lbl),
		bio:   bufio.NewWriter(bio),
		dict:  dict,
	}
}

// WriteGroups writes one line per group to each stream. Token text is
// space-joined with a trailing space per token, matching the corpus
// format downstream tooling consumes.
func (w *Writer) WriteGroups(groups []align.Group) error {
	for _, g := range groups {
		for _, tok := range g.Tokens {
			if _, err := w.in.WriteString(tok.Text + " "); err != nil {
				return fmt.Errorf("write .in: %w", err)
			}
			if _, err := w.label.WriteString(w.dict.Convert(tok.Label) + " "); err != nil {
				return fmt.Errorf("write .label: %w", err)
			}
			if _, err := w.bio.WriteString(string(tok.Tag) + " "); err != nil {
				return fmt.Errorf("write .bio: %w", err)
			}
		}
		for _, bw := range []*bufio.Writer{w.in, w.label, w.bio} {
			if err := bw.WriteByte('\n'); err != nil {
				return fmt.Errorf("write line break: %w", err)
			}
		}
	}
	return w.Flush()
}

// Flush flushes all three streams.
func (w *Writer) Flush() error {
	for _, bw := range []*bufio.Writer{w.in, w.label, w.bio} {
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
	}
	return nil
}
