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

package syntax

import (
	"context"
	"strings"
	"unicode"

	"akhil.cc/quill/ast"
	"akhil.cc/quill/parser"
	"akhil.cc/quill/refmap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// References registers every link reference definition in the Reference
// Map once the block pass is done, in document order. The first definition
// of a label wins.
type References struct{}

func (References) Name() string        { return "references" }
func (References) Kind() ast.Kind      { return ast.Block }
func (References) Phase() parser.Phase { return parser.Post }
func (References) Priority() int       { return 10 }

func (References) Parse(_ context.Context, c *parser.Context, t *ast.Tree, root ast.ID) error {
	if root != t.Root() {
		return nil
	}
	t.Walk(root, func(id ast.ID) bool {
		e, ok := t.Data(id).(*refmap.Entry)
		if !ok || t.Name(id) != NameDefinition {
			return true
		}
		if !c.Refs.Set(e.Label, *e) {
			c.Log.Warn("duplicate link reference definition", "label", e.Label)
		}
		return false
	})
	return nil
}

func (References) VerifyNode(t *ast.Tree, id ast.ID) bool {
	return t.Name(id) == NameDefinition
}

// Headings assigns unique anchors to headings and collects the table of
// contents, in document order.
type Headings struct{}

func (Headings) Name() string        { return "headings" }
func (Headings) Kind() ast.Kind      { return ast.Block }
func (Headings) Phase() parser.Phase { return parser.Post }
func (Headings) Priority() int       { return 0 }

func (Headings) Parse(_ context.Context, c *parser.Context, t *ast.Tree, root ast.ID) error {
	if root != t.Root() {
		return nil
	}
	lower := cases.Lower(language.Und)
	t.Walk(root, func(id ast.ID) bool {
		h, ok := t.Data(id).(*Header)
		if !ok || t.Name(id) != NameHeading {
			return true
		}
		h.Anchor = c.Anchors.Register(slug(lower, h.Text))
		c.TOC = append(c.TOC, parser.TOCEntry{Level: h.Level, Text: h.Text, Anchor: h.Anchor})
		return false
	})
	return nil
}

func (Headings) VerifyNode(t *ast.Tree, id ast.ID) bool {
	return t.Name(id) == NameHeading
}

// slug keeps letters and digits of s, lower-cased, and joins the words with
// hyphens.
func slug(lower cases.Caser, s string) string {
	var b strings.Builder
	dash := false
	for _, r := range lower.String(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			dash = true
		}
	}
	if b.Len() == 0 {
		return "section"
	}
	return b.String()
}
