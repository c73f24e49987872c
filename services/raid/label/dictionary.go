// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package label

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultLabelTypes maps lower-cased grammar node-type names and literal
// punctuation/keyword tokens to canonical export names. The table matches
// the vocabulary downstream consumers were trained against, including the
// historical "PLUSEUQAL" spelling for "+=".
var defaultLabelTypes = map[string]string{
	"::": "DOUBLECOLON", "--": "DOUBLEMINUS", "++": "DOUBLEPLUS",
	"false": "BOOL", "true": "BOOL",
	"modifier": "MODIFIER", "public": "MODIFIER", "basictype": "TYPE",
	"null": "IDENT", "keyword": "KEYWORD", "identifier": "IDENT",
	"decimalinteger": "NUMBER", "decimalfloatingpoint": "NUMBER",
	"string": "STRING", "string_fragment": "STRING",
	"(": "LPAR", ")": "RPAR", "[": "LSQB", "]": "RSQB", ",": "COMMA",
	"?": "CONDITIONOP", ";": "SEMI", "+": "PLUS", "-": "MINUS", "*": "STAR",
	"/": "SLASH", ".": "DOT", "=": "EQUAL", ":": "COLON", "|": "VBAR",
	"&": "AMPER", "<": "LESS", ">": "GREATER", "%": "PERCENT",
	"{": "LBRACE", "}": "RBRACE",
	"==": "EQEQUAL", "!=": "NOTEQUAL", "<=": "LESSEQUAL", ">=": "GREATEREQUAL",
	"~": "TILDE", "^": "CIRCUMFLEX", `"`: "DQUOTES",
	"<<": "LEFTSHIFT", ">>": "RIGHTSHIFT", "**": "DOUBLESTAR",
	"+=": "PLUSEUQAL", "-=": "MINEQUAL", "*=": "STAREQUAL",
	"/=": "SLASHEQUAL", "%=": "PERCENTEQUAL", "&=": "AMPEREQUAL",
	"|=": "VBAREQUAL", "^=": "CIRCUMFLEXEQUAL",
	"<<=": "LEFTSHIFTEQUAL", ">>=": "RIGHTSHIFTEQUAL", "**=": "DOUBLESTAREQUAL",
	"//": "DOUBLESLASH", "//=": "DOUBLESLASHEQUAL",
	"@": "AT", "@=": "ATEQUAL", "->": "RARROW", "...": "ELLIPSIS",
	":=": "COLONEQUAL", "&&": "AND", "!": "NOT", "||": "OR",
}

// defaultNonLeafTypes lists the non-leaf label types exported as CSV
// columns, in column order, covering both supported grammars.
var defaultNonLeafTypes = []string{
	"program",
	"class_declaration",
	"class_body",
	"method_declaration",
	"formal_parameters",
	"block",
	"expression_statement",
	"argument_list",
	"local_variable_declaration",
	"module",
	"function_definition",
	"parameters",
	"return_statement",
}

// Dictionary converts raw structural labels and literal tokens into the
// fixed external label vocabulary, and declares the non-leaf label types
// used as tabular-export columns.
//
// A Dictionary is immutable after construction and safe for concurrent use.
type Dictionary struct {
	labelTypes map[string]string
	nonLeaf    []string
	nonLeafIdx map[string]int
}

// dictionaryFile is the YAML schema for dictionary overrides.
type dictionaryFile struct {
	Labels  map[string]string `yaml:"labels"`
	NonLeaf []string          `yaml:"non_leaf"`
}

func newDictionary(labels map[string]string, nonLeaf []string) *Dictionary {
	d := &Dictionary{
		labelTypes: labels,
		nonLeaf:    nonLeaf,
		nonLeafIdx: make(map[string]int, len(nonLeaf)),
	}
	for i, name := range nonLeaf {
		d.nonLeafIdx[name] = i
	}
	return d
}

// DefaultDictionary returns the built-in label dictionary.
func DefaultDictionary() *Dictionary {
	return newDictionary(defaultLabelTypes, defaultNonLeafTypes)
}

// LoadDictionary reads a YAML dictionary file. Omitted sections fall back
// to the built-in defaults, so a file may override only the label table or
// only the column order.
func LoadDictionary(path string) (*Dictionary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label dictionary: %w", err)
	}

	var f dictionaryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse label dictionary %s: %w", path, err)
	}

	labels := f.Labels
	if labels == nil {
		labels = defaultLabelTypes
	}
	nonLeaf := f.NonLeaf
	if nonLeaf == nil {
		nonLeaf = defaultNonLeafTypes
	}
	return newDictionary(labels, nonLeaf), nil
}

// Convert maps a raw label to its canonical export name.
//
// The label is looked up lower-cased; labels absent from the table are
// returned upper-cased unchanged. Convert is pure, total, and idempotent.
func (d *Dictionary) Convert(label string) string {
	if canonical, ok := d.labelTypes[strings.ToLower(label)]; ok {
		return canonical
	}
	return strings.ToUpper(label)
}

// NonLeafTypes returns the declared non-leaf label types in column order.
func (d *Dictionary) NonLeafTypes() []string {
	out := make([]string, len(d.nonLeaf))
	copy(out, d.nonLeaf)
	return out
}

// NonLeafColumn returns the column position of a non-leaf label type.
func (d *Dictionary) NonLeafColumn(name string) (int, bool) {
	i, ok := d.nonLeafIdx[name]
	return i, ok
}
