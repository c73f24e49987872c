// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package activations annotates labeled tokens with neural-network
// activations produced by an external extraction collaborator.
//
// The extraction step itself is a black box behind the Extractor
// interface; this package prepares its input, parses its JSON output, and
// derives binary-labeled, aggregated, and phrase-level datasets from it.
package activations

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Sentinel errors for annotation failures.
var (
	// ErrInvalidFilter indicates a classification filter string that is
	// neither a recognized regex form ("re:...") nor a recognized set
	// form ("set:a,b").
	ErrInvalidFilter = errors.New("invalid binary filter")

	// ErrUnsupportedAggregation indicates an aggregation keyword outside
	// the supported set {mean, max, sum, concat}.
	ErrUnsupportedAggregation = errors.New("unsupported aggregation method")
)

// Filter reports whether a token belongs to the positive class.
type Filter func(token string) bool

// CompileFilter builds a Filter from its string specification.
//
// Two forms are recognized:
//   - "set:a,b,c" — membership in a comma-separated word set
//   - "re:<pattern>" — match against a regular expression
//
// Anything else fails synchronously with ErrInvalidFilter.
func CompileFilter(spec string) (Filter, error) {
	switch {
	case strings.HasPrefix(spec, "re:"):
		re, err := regexp.Compile(spec[len("re:"):])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		return re.MatchString, nil

	case strings.HasPrefix(spec, "set:"):
		members := make(map[string]struct{})
		for _, word := range strings.Split(spec[len("set:"):], ",") {
			members[word] = struct{}{}
		}
		return func(token string) bool {
			_, ok := members[token]
			return ok
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q must start with \"re:\" or \"set:\"", ErrInvalidFilter, spec)
	}
}
