// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package align re-partitions a flat labeled-token stream back onto the
// physical lines of the original source text.
//
// The parser's token stream has lost line boundaries and inter-token
// whitespace. Realign recovers the per-line grouping with a forward
// substring scan: each remaining token is searched for inside the current
// line from a character cursor, and the first miss ends the line's group.
// Two empirical retraction corrections compensate for tokens whose text
// coincidentally occurs inside an earlier, unrelated match (a short
// operator inside a longer literal). The corrections are contract, not
// accident: downstream corpora depend on the exact grouping, and the
// golden tests in this package lock it in. Misses are absorbed, never
// raised.
//
// Tokens whose text itself spans physical lines (block comments,
// multi-line literals) can never match a single-line substring scan.
// Their per-line pieces are known outright from the newline positions in
// the token text, so Realign distributes them directly: each piece is
// split on whitespace into sub-tokens carrying the original token's type
// and label, placed on its own physical line, and the substring scan
// resumes after the final piece.
//
// Realign must not be invoked concurrently on overlapping cursor state;
// each call owns its cursors, so calling it from multiple goroutines on
// distinct inputs is fine.
package align

import (
	"log/slog"
	"strings"

	"github.com/arushisharma17/RAID/services/raid/label"
)

// Group pairs one physical source line with the ordered tokens whose text
// occurs within it.
//
// Concatenating all Groups' token slices in line order reproduces the
// global token stream with no token assigned twice and none skipped,
// except for trailing synthetic tokens dropped after the last line.
type Group struct {
	// Line is the original source line, unmodified.
	Line string

	// Tokens is the subsequence of the global stream assigned to this
	// line. Empty for blank lines.
	Tokens []label.Token
}

// Realign partitions tokens into per-line groups.
//
// Inputs:
//   - lines: the physical source lines, in order, split on line breaks.
//   - tokens: the flat labeled token stream for the same source.
//   - logger: destination for drop diagnostics; nil uses slog.Default().
//
// Outputs one Group per input line plus a trailing empty Group (every
// corpus block ends with an implicit blank record). Tokens remaining after
// the last line — typically synthetic end-of-input tokens — are dropped
// silently apart from a debug log.
func Realign(lines []string, tokens []label.Token, logger *slog.Logger) []Group {
	if logger == nil {
		logger = slog.Default()
	}

	groups := make([]Group, 0, len(lines)+1)
	prev := 0

	// Sub-tokens of a line-spanning token already assigned to the next
	// line, and the character cursor past that token's final piece.
	var carry []label.Token
	carryCursor := 0

	for li := 0; li < len(lines); li++ {
		line := lines[li]
		cur := Group{Line: line, Tokens: carry}
		tokenIndex := carryCursor
		carry, carryCursor = nil, 0

		// A blank physical line yields an empty group and consumes nothing.
		if line == "" {
			groups = append(groups, cur)
			continue
		}

		remaining := tokens[prev:]
		if len(remaining) == 0 {
			groups = append(groups, cur)
			continue
		}

		spanned := false
		decreased := false
		count := 0
		for i, tok := range remaining {
			count = i
			if strings.ContainsRune(tok.Text, '\n') {
				// The token's text covers this line and the following
				// ones; its placement is certain, so the miss heuristics
				// below do not apply. Everything matched so far plus the
				// token's first piece closes this line; middle pieces fill
				// whole lines; the final piece opens the line where the
				// scan resumes.
				segs := strings.Split(tok.Text, "\n")
				first := true
				cur.Tokens = append(cur.Tokens, remaining[:i]...)
				cur.Tokens = append(cur.Tokens, splitSegment(tok, segs[0], &first)...)
				groups = append(groups, cur)
				prev += i + 1
				for k := 1; k < len(segs)-1 && li+1 < len(lines); k++ {
					li++
					groups = append(groups, Group{
						Line:   lines[li],
						Tokens: splitSegment(tok, segs[k], &first),
					})
				}
				if last := segs[len(segs)-1]; li+1 < len(lines) {
					carry = splitSegment(tok, last, &first)
					carryCursor = len(last)
				}
				spanned = true
				break
			}
			at := indexFrom(line, tok.Text, tokenIndex)
			if at >= tokenIndex {
				tokenIndex = at + 1
				continue
			}
			// Miss: with two or more matches already made, retract one
			// extra token — the last tentative match was likely found
			// inside a longer, unrelated substring and belongs to a
			// later line.
			if count >= 2 {
				count--
				decreased = true
			}
			break
		}
		if spanned {
			continue
		}

		// A single ambiguous match is over-claiming; back it off unless
		// the extra retraction above already fired.
		if count == 1 && !decreased {
			count--
		}

		take := count + 1
		if take > len(remaining) {
			take = len(remaining)
		}
		cur.Tokens = append(cur.Tokens, remaining[:take]...)
		groups = append(groups, cur)
		prev += take
	}

	if dropped := len(tokens) - prev; dropped > 0 {
		logger.Debug("dropping trailing tokens past final line",
			slog.Int("count", dropped))
	}

	// Implicit trailing blank record.
	groups = append(groups, Group{})
	return groups
}

// splitSegment expands one physical-line piece of a line-spanning token
// into whitespace-separated sub-tokens sharing the token's type, depth,
// and label. The first sub-token emitted for the token keeps its BIO tag;
// later pieces continue the span with I, or stay O for untagged tokens.
func splitSegment(tok label.Token, seg string, first *bool) []label.Token {
	fields := strings.Fields(seg)
	if len(fields) == 0 {
		return nil
	}
	subs := make([]label.Token, 0, len(fields))
	for _, f := range fields {
		sub := tok
		sub.Text = f
		if *first {
			*first = false
		} else if sub.Tag != label.TagOutside {
			sub.Tag = label.TagInside
		}
		subs = append(subs, sub)
	}
	return subs
}

// indexFrom reports the byte index of the first occurrence of sub in line
// at or after from, or -1 when absent.
func indexFrom(line, sub string, from int) int {
	if from > len(line) {
		return -1
	}
	i := strings.Index(line[from:], sub)
	if i < 0 {
		return -1
	}
	return from + i
}
