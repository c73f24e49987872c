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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Known tokens map to their canonical names
func TestConvert_KnownLabels(t *testing.T) {
	d := DefaultDictionary()

	tests := []struct {
		in   string
		want string
	}{
		{"identifier", "IDENT"},
		{"Identifier", "IDENT"},
		{"(", "LPAR"},
		{")", "RPAR"},
		{";", "SEMI"},
		{"{", "LBRACE"},
		{"true", "BOOL"},
		{"false", "BOOL"},
		{"public", "MODIFIER"},
		{"==", "EQEQUAL"},
		{"&&", "AND"},
		{"->", "RARROW"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, d.Convert(tc.in), "label=%q", tc.in)
	}
}

// The historical misspelling for += is preserved verbatim
func TestConvert_PlusEqualSpelling(t *testing.T) {
	d := DefaultDictionary()
	assert.Equal(t, "PLUSEUQAL", d.Convert("+="))
}

// Unknown labels pass through upper-cased
func TestConvert_UnknownLabels(t *testing.T) {
	d := DefaultDictionary()

	assert.Equal(t, "METHOD_DECLARATION", d.Convert("method_declaration"))
	assert.Equal(t, "CLASS_BODY", d.Convert("class_body"))
	assert.Equal(t, "", d.Convert(""))
}

// Converting a converted label changes nothing
func TestConvert_Idempotent(t *testing.T) {
	d := DefaultDictionary()

	inputs := []string{"identifier", "+=", "==", "method_declaration", "program", "{", "UNKNOWN_THING"}
	for _, in := range inputs {
		once := d.Convert(in)
		assert.Equal(t, once, d.Convert(once), "label=%q", in)
	}
}

// Non-leaf columns keep declaration order
func TestNonLeafTypes_Order(t *testing.T) {
	d := DefaultDictionary()

	types := d.NonLeafTypes()
	require.NotEmpty(t, types)
	assert.Equal(t, "program", types[0])

	for i, name := range types {
		col, ok := d.NonLeafColumn(name)
		require.True(t, ok, "type=%q", name)
		assert.Equal(t, i, col, "type=%q", name)
	}

	_, ok := d.NonLeafColumn("not_a_column")
	assert.False(t, ok)
}

// YAML overrides replace only the sections present in the file
func TestLoadDictionary_PartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dict.yaml")
	content := "labels:\n  identifier: NAME\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	d, err := LoadDictionary(path)
	require.NoError(t, err)

	assert.Equal(t, "NAME", d.Convert("identifier"))
	// Labels outside the override pass through upper-cased.
	assert.Equal(t, "(", d.Convert("("))
	// Non-leaf section falls back to the defaults.
	assert.Equal(t, DefaultDictionary().NonLeafTypes(), d.NonLeafTypes())
}

// Missing and malformed files fail with wrapped errors
func TestLoadDictionary_Errors(t *testing.T) {
	_, err := LoadDictionary(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("labels: [not, a, map]"), 0o600))
	_, err = LoadDictionary(bad)
	require.Error(t, err)
}
