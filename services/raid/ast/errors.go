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

import "errors"

// Sentinel errors for common parse failure conditions.
//
// These errors can be checked using errors.Is() to determine the
// category of failure without inspecting error messages.
var (
	// ErrUnsupportedGrammar indicates that the requested grammar id is not
	// in the supported set. Callers must fail fast on this error rather
	// than falling back to a different grammar.
	//
	// Example:
	//   parser, err := NewParser("ruby")
	//   if errors.Is(err, ErrUnsupportedGrammar) { ... }
	ErrUnsupportedGrammar = errors.New("unsupported grammar")

	// ErrInvalidContent indicates that the provided content is invalid
	// and cannot be processed.
	//
	// Common causes:
	//   - Non-UTF-8 encoding
	//   - Binary file content
	ErrInvalidContent = errors.New("invalid content")

	// ErrFileTooLarge indicates that the content exceeds the parser's
	// configured maximum file size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrParseFailed indicates that parsing failed completely and no
	// tree could be produced.
	//
	// This is different from syntactically invalid input, which still
	// yields a tree containing error nodes.
	ErrParseFailed = errors.New("parse failed")
)
