// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package patterns classifies token text by naming convention.
//
// Classification is a pure lookup against an ordered list of regular
// expressions: the first matching pattern names the category. The table is
// immutable configuration built once at startup and passed explicitly to
// callers; there are no package-level mutable singletons.
package patterns

import (
	"fmt"
	"regexp"
)

// NoMatch is returned when no naming convention applies to a token.
const NoMatch = "N/A"

// Case pairs a naming-convention category with its compiled pattern.
type Case struct {
	// Name is the category reported by Classify.
	Name string

	pattern *regexp.Regexp
}

// Cases is an ordered naming-convention table. Order is priority: the
// first matching case wins.
type Cases []Case

// defaultCases holds the built-in convention table. Priority order matters:
// camel_case is checked before prefix, so only get/set names that are not
// plain camelCase classify as prefix.
var defaultCases = []struct {
	name    string
	pattern string
}{
	{"single_letter", `^[a-zA-Z]$`},
	{"camel_case", `^[a-z]+([A-Z][a-z]+)+$`},
	{"pascal_case", `^([A-Z][a-z]+)*[A-Z][a-z]*$`},
	{"snake_case", `^[a-z]+(_[a-z]+)*$`},
	{"screaming_snake_case", `^[A-Z]+(_[A-Z]+)*$`},
	{"prefix", `^(get|set)[A-Za-z]+$`},
	{"numeric", `^[a-zA-Z].+[0-9]+$`},
}

// DefaultCases returns the built-in convention table.
//
// The table never fails to compile; the patterns are package constants
// covered by tests.
func DefaultCases() Cases {
	cs := make(Cases, 0, len(defaultCases))
	for _, c := range defaultCases {
		cs = append(cs, Case{Name: c.name, pattern: regexp.MustCompile(c.pattern)})
	}
	return cs
}

// Compile builds a convention table from ordered name/pattern pairs, for
// callers that load the table from configuration.
//
// Outputs:
//   - Cases: the compiled table, in the given order.
//   - error: the first pattern that fails to compile.
func Compile(pairs [][2]string) (Cases, error) {
	cs := make(Cases, 0, len(pairs))
	for _, p := range pairs {
		re, err := regexp.Compile(p[1])
		if err != nil {
			return nil, fmt.Errorf("naming pattern %q: %w", p[0], err)
		}
		cs = append(cs, Case{Name: p[0], pattern: re})
	}
	return cs, nil
}

// Classify returns the first matching category name for the token, or
// NoMatch when no pattern applies.
//
// Classify is pure and total: it never fails and every input maps to
// exactly one category.
func (cs Cases) Classify(token string) string {
	for _, c := range cs {
		if c.pattern.MatchString(token) {
			return c.Name
		}
	}
	return NoMatch
}
