// MIT License

// Copyright (c) 2018 Akhil Indurti

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package refmap implements the registry of link reference definitions.
//
// Labels are normalized before use: surrounding whitespace is trimmed,
// internal runs of whitespace collapse to one space, and the result is case
// folded. Two labels that differ only in case or in the amount of internal
// whitespace therefore name the same entry. The first definition of a label
// wins; later ones are rejected.
package refmap // import "akhil.cc/quill/refmap"

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Entry is the destination registered for a label.
type Entry struct {
	Label       string
	Destination string
	Title       string
}

// Map is an append-only label registry. The zero value is not usable; call New.
type Map struct {
	entries map[string]Entry
	order   []string
}

// New returns an empty Map.
func New() *Map {
	return &Map{entries: make(map[string]Entry)}
}

// Normalize returns the lookup key of label.
func Normalize(label string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.TrimFunc(label, unicode.IsSpace) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(cases.Fold().String(b.String()))
}

// Set registers e under label. It reports false, leaving the map unchanged,
// when the normalized label is empty or already registered.
func (m *Map) Set(label string, e Entry) bool {
	key := Normalize(label)
	if key == "" {
		return false
	}
	if _, ok := m.entries[key]; ok {
		return false
	}
	e.Label = key
	m.entries[key] = e
	m.order = append(m.order, key)
	return true
}

// Get returns a copy of the entry registered for label.
func (m *Map) Get(label string) (Entry, bool) {
	e, ok := m.entries[Normalize(label)]
	return e, ok
}

// Len returns the number of registered labels.
func (m *Map) Len() int { return len(m.entries) }

// Labels returns the normalized labels in registration order.
func (m *Map) Labels() []string {
	return append([]string(nil), m.order...)
}
