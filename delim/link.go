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

package delim

import (
	"sort"
	"strings"

	"akhil.cc/quill/ast"
)

const (
	// maxLabel bounds the length of a reference label.
	maxLabel = 999
	// maxParens bounds the nesting of parentheses in a link destination.
	maxParens = 32
)

// resolveBrackets pairs every ] with the nearest live opener before it.
func (s *scope) resolveBrackets() {
	var openers []*delimiter
	for i := s.liveAt(0); i < len(s.ds); i = s.liveAt(i + 1) {
		d := s.ds[i]
		if d.kind == openBracket || d.kind == imageOpen {
			openers = append(openers, d)
			continue
		}
		if d.kind != closeBracket {
			continue
		}
		if s.cancelled() {
			return
		}
		for len(openers) > 0 && openers[len(openers)-1].removed {
			openers = openers[:len(openers)-1]
		}
		if len(openers) == 0 {
			s.drop(d)
			continue
		}
		o := openers[len(openers)-1]
		openers = openers[:len(openers)-1]
		if (o.kind == openBracket && o.idx < s.linkFloor) || !s.link(o, d) {
			s.drop(o)
			s.drop(d)
			continue
		}
		if o.kind == openBracket {
			// Links may not contain other links.
			s.linkFloor = o.idx
		}
	}
	for _, o := range openers {
		s.drop(o)
	}
}

// content returns the flat text between an opener and a closer, or "" when
// a sibling without raw text sits between them.
func (s *scope) content(o, cl *delimiter) string {
	if i := sort.SearchInts(s.stops, o.end); i < len(s.stops) && s.stops[i] <= cl.start {
		return ""
	}
	return s.flat[o.end:cl.start]
}

// tail returns the flat text after a closer up to the first sibling
// without raw text.
func (s *scope) tail(cl *delimiter) string {
	end := len(s.flat)
	if i := sort.SearchInts(s.stops, cl.end); i < len(s.stops) {
		end = s.stops[i]
	}
	return s.flat[cl.end:end]
}

// cuttable reports whether offset q of the flat text falls on a node
// boundary or inside a Text node.
func (s *scope) cuttable(q int) bool {
	i := sort.Search(len(s.parsed), func(k int) bool { return s.parsed[k][1] > q })
	return i == len(s.parsed) || s.parsed[i][0] >= q
}

// target parses what follows a ] into link data. n is the number of bytes
// of tail the link consumes.
func (s *scope) target(tail, content string) (ld ast.LinkData, n int, ok bool) {
	if strings.HasPrefix(tail, "(") {
		if dest, title, n, ok := parseInline(tail); ok {
			return ast.LinkData{Destination: dest, Title: title}, n, true
		}
	}
	label := content
	if strings.HasPrefix(tail, "[") {
		if l, end, ok := ParseLinkLabel(tail, 0); ok {
			label, n = l, end
		} else if strings.HasPrefix(tail, "[]") {
			n = 2
		}
	}
	if len(label) > maxLabel || strings.TrimSpace(label) == "" || s.c == nil || s.c.Refs == nil {
		return ast.LinkData{}, 0, false
	}
	e, found := s.c.Refs.Get(label)
	if !found {
		return ast.LinkData{}, 0, false
	}
	return ast.LinkData{Destination: e.Destination, Title: e.Title, Label: e.Label}, n, true
}

// link tries to turn the bracket pair o and cl into a link or image.
func (s *scope) link(o, cl *delimiter) bool {
	t := s.t
	ld, n, ok := s.target(s.tail(cl), s.content(o, cl))
	if !ok || !s.cuttable(cl.end+n) {
		return false
	}

	typ := ast.TypeLink
	if o.kind == imageOpen {
		typ = ast.TypeImage
	}
	parent := t.Parent(o.node)
	inner := t.Slice(parent, t.Index(o.node)+1, t.Index(cl.node))
	id := t.NewNode(typ, ast.Inline, "")
	data := ld
	t.SetData(id, &data)
	t.After(o.node, id)
	t.Append(id, inner...)
	consumed := s.consume(cl.node, n)

	s.resolveEmphasis(o.idx, cl.idx)
	open := t.Text(o.node)
	t.Remove(o.node)
	t.Remove(cl.node)
	s.drop(o)
	s.drop(cl)
	s.setRaw(id, open, "]"+consumed)
	return true
}

// consume removes the first n bytes of the siblings after id and returns
// them.
func (s *scope) consume(id ast.ID, n int) string {
	var b strings.Builder
	for n > 0 {
		next := s.t.Next(id)
		if next == ast.Nil {
			break
		}
		raw := s.t.Text(next)
		if d := s.at[next]; d != nil {
			s.drop(d)
		}
		if len(raw) <= n {
			b.WriteString(raw)
			n -= len(raw)
			s.t.Remove(next)
			continue
		}
		pieces := s.t.SplitAt(next, n)
		b.WriteString(s.t.Text(pieces[0]))
		s.t.Remove(pieces[0])
		n = 0
	}
	return b.String()
}

// setRaw rebuilds the raw text of id from its children, or clears it when a
// child has none.
func (s *scope) setRaw(id ast.ID, open, closing string) {
	var b strings.Builder
	b.WriteString(open)
	for _, c := range s.t.Children(id) {
		raw, ok := s.t.Raw(c)
		if !ok {
			s.t.ClearRaw(id)
			return
		}
		b.WriteString(raw)
	}
	b.WriteString(closing)
	s.t.SetRaw(id, b.String())
}

// parseInline parses an inline link tail: (destination "title").
func parseInline(s string) (dest, title string, n int, ok bool) {
	i := skipSpace(s, 1)
	if i < len(s) && s[i] == ')' {
		return "", "", i + 1, true
	}
	dest, i, ok = ParseLinkDest(s, i)
	if !ok {
		return "", "", 0, false
	}
	j := skipSpace(s, i)
	if j < len(s) && j > i && s[j] != ')' {
		title, j, ok = ParseLinkTitle(s, j)
		if !ok {
			return "", "", 0, false
		}
		j = skipSpace(s, j)
	}
	if j >= len(s) || s[j] != ')' {
		return "", "", 0, false
	}
	return dest, title, j + 1, true
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
		i++
	}
	return i
}

// ParseLinkDest parses a link destination at s[i], either <bracketed> or a
// run of non-space characters with balanced parentheses nested at most 32
// deep. It returns the unescaped destination and the offset after it.
func ParseLinkDest(s string, i int) (string, int, bool) {
	if i >= len(s) {
		return "", 0, false
	}
	if s[i] == '<' {
		for j := i + 1; j < len(s); j++ {
			switch s[j] {
			case '\n', '<':
				return "", 0, false
			case '>':
				return unescaper.Replace(s[i+1 : j]), j + 1, true
			case '\\':
				j++
			}
		}
		return "", 0, false
	}
	depth := 0
	j := i
Loop:
	for ; j < len(s); j++ {
		switch c := s[j]; {
		case c == '(':
			depth++
			if depth > maxParens {
				return "", 0, false
			}
		case c == ')':
			if depth == 0 {
				break Loop
			}
			depth--
		case c == '\\':
			if j+1 < len(s) {
				j++
			}
		case c <= ' ' || c == 0x7f:
			break Loop
		}
	}
	if j == i || depth != 0 {
		return "", 0, false
	}
	return unescaper.Replace(s[i:j]), j, true
}

// ParseLinkTitle parses a "double", 'single' or (parenthesized) link title
// at s[i].
func ParseLinkTitle(s string, i int) (string, int, bool) {
	if i >= len(s) || (s[i] != '"' && s[i] != '\'' && s[i] != '(') {
		return "", 0, false
	}
	want := s[i]
	if want == '(' {
		want = ')'
	}
	for j := i + 1; j < len(s); j++ {
		switch {
		case s[j] == want:
			return unescaper.Replace(s[i+1 : j]), j + 1, true
		case s[j] == '(' && want == ')':
			return "", 0, false
		case s[j] == '\\' && j+1 < len(s):
			j++
		}
	}
	return "", 0, false
}

// ParseLinkLabel parses a bracketed, non-blank reference label at s[i].
// Labels longer than 999 bytes are rejected.
func ParseLinkLabel(s string, i int) (string, int, bool) {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case ']':
			if j-(i+1) > maxLabel {
				return "", 0, false
			}
			if label := strings.Trim(s[i+1:j], " \t\n"); label != "" {
				return label, j + 1, true
			}
			return "", 0, false
		case '[':
			return "", 0, false
		case '\\':
			if j+1 < len(s) {
				j++
			}
		}
	}
	return "", 0, false
}
