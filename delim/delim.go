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

// Package delim resolves runs of emphasis, strikethrough, link and image
// markers left in text into a correctly nested tree.
//
// It runs as an inline AST plugin after the inline matchers of a subtree
// are done. The direct Text children of the subtree are split at every
// marker run and each run is pushed on a delimiter stack; a block child
// starts a fresh stack, so nothing pairs across block boundaries. Brackets
// are resolved first, left to right: each ] looks back for the nearest [ or
// ![ and tries the inline form, then the reference forms. Emphasis is
// resolved afterwards, and inside every link or image as soon as it forms.
//
//	*a* _a_      emphasis
//	**a** __a__  strong emphasis
//	~a~ ~~a~~    deleted text
//	[a](/u "t")  link; also [a][label], [a][] and [a]
//	![a](/u)     image
//
// Runs that cannot pair stay literal text.
package delim // import "akhil.cc/quill/delim"

import (
	"context"
	"strings"

	"akhil.cc/quill/ast"
	"akhil.cc/quill/parser"
)

// EscapeName is the name of the node backslash escapes are parsed into.
// Such a node counts as a letter next to a delimiter run.
const EscapeName = "escape"

// Options disable individual marker characters.
type Options struct {
	DisableAsterisk   bool
	DisableUnderscore bool
	DisableTilde      bool
}

// Resolver is the delimiter resolution plugin.
type Resolver struct {
	opts Options
}

// New returns a Resolver.
func New(opts Options) *Resolver {
	return &Resolver{opts: opts}
}

func (*Resolver) Name() string        { return "delimiters" }
func (*Resolver) Kind() ast.Kind      { return ast.Inline }
func (*Resolver) Phase() parser.Phase { return parser.Post }
func (*Resolver) Priority() int       { return 0 }

// VerifyNode reports whether id is one of the nodes the resolver creates.
func (*Resolver) VerifyNode(t *ast.Tree, id ast.ID) bool {
	switch t.Type(id) {
	case ast.TypeEmph, ast.TypeStrong, ast.TypeDel, ast.TypeLink, ast.TypeImage:
		return true
	}
	return false
}

// Parse resolves the delimiters among the direct children of root. It stops
// early with the context's error once ctx is done.
func (r *Resolver) Parse(ctx context.Context, c *parser.Context, t *ast.Tree, root ast.ID) error {
	if !r.hasMarkers(t, root) {
		return nil
	}
	for _, s := range r.collect(ctx, c, t, root) {
		s.classify()
		s.resolveBrackets()
		s.resolveEmphasis(-1, len(s.ds))
		if s.err != nil {
			return s.err
		}
	}
	return nil
}

func (r *Resolver) hasMarkers(t *ast.Tree, root ast.ID) bool {
	for i, n := 0, t.ChildCount(root); i < n; i++ {
		c := t.Child(root, i)
		if t.IsText(c) && strings.ContainsAny(t.Text(c), "[]*_~") {
			return true
		}
	}
	return false
}

type marker uint8

const (
	openBracket marker = iota + 1
	imageOpen
	closeBracket
	emphasis
)

type delimiter struct {
	node     ast.ID
	idx      int
	kind     marker
	char     byte
	length   int
	orig     int
	canOpen  bool
	canClose bool
	removed  bool
	// start and end locate the run in the flat text of its scope.
	start, end int
}

// scope is the delimiter stack of one run of inline siblings.
//
// flat is the concatenated raw text of those siblings. Wrapping siblings
// into a link or an emphasis node keeps it intact, so the text between two
// brackets and the text after a closer are plain substrings of it.
type scope struct {
	ctx context.Context
	err error
	c   *parser.Context
	t   *ast.Tree
	ds  []*delimiter
	at  map[ast.ID]*delimiter

	b    strings.Builder
	flat string
	// stops holds the offsets of siblings without raw text.
	stops []int
	// parsed holds the sorted flat spans of the non-Text siblings.
	parsed [][2]int

	// prev and next skip over removed delimiters.
	prev, next []int
	// Bracket openers below linkFloor may no longer form links.
	linkFloor int
}

func newScope(ctx context.Context, c *parser.Context, t *ast.Tree) *scope {
	return &scope{ctx: ctx, c: c, t: t, at: make(map[ast.ID]*delimiter), linkFloor: -1}
}

func (s *scope) push(d *delimiter) {
	d.idx = len(s.ds)
	s.ds = append(s.ds, d)
	s.at[d.node] = d
}

// seal fixes the flat text and sets up the skip lists once every
// delimiter is pushed.
func (s *scope) seal() {
	s.flat = s.b.String()
	n := len(s.ds)
	s.prev = make([]int, n+1)
	s.next = make([]int, n+1)
	for i := range s.prev {
		s.prev[i], s.next[i] = i, i
	}
}

func find(p []int, k int) int {
	for p[k] != k {
		p[k] = p[p[k]]
		k = p[k]
	}
	return k
}

// liveAt returns the first live delimiter index at or after k, or len(ds).
func (s *scope) liveAt(k int) int { return find(s.next, k) }

// liveBefore returns the last live delimiter index at or before k, or -1.
func (s *scope) liveBefore(k int) int { return find(s.prev, k+1) - 1 }

// drop marks d as removed.
func (s *scope) drop(d *delimiter) {
	if d.removed {
		return
	}
	d.removed = true
	s.prev[d.idx+1] = d.idx
	s.next[d.idx] = d.idx + 1
}

// cancelled reports whether the resolution should stop, keeping the
// context's error.
func (s *scope) cancelled() bool {
	if s.err == nil {
		s.err = s.ctx.Err()
	}
	return s.err != nil
}

type run struct {
	start, end int
	kind       marker
}

// collect splits the Text children of root at every marker run.
func (r *Resolver) collect(ctx context.Context, c *parser.Context, t *ast.Tree, root ast.ID) []*scope {
	cur := newScope(ctx, c, t)
	scopes := []*scope{cur}
	for _, child := range t.Children(root) {
		if !t.IsText(child) {
			if t.Kind(child) == ast.Block {
				cur = newScope(ctx, c, t)
				scopes = append(scopes, cur)
				continue
			}
			raw, ok := t.Raw(child)
			if !ok {
				cur.stops = append(cur.stops, cur.b.Len())
				continue
			}
			if raw != "" {
				cur.parsed = append(cur.parsed, [2]int{cur.b.Len(), cur.b.Len() + len(raw)})
				cur.b.WriteString(raw)
			}
			continue
		}
		text := t.Text(child)
		base := cur.b.Len()
		cur.b.WriteString(text)
		runs := r.markers(text)
		if len(runs) == 0 {
			continue
		}
		cuts := make([]int, 0, 2*len(runs))
		for _, m := range runs {
			cuts = append(cuts, m.start, m.end)
		}
		off := 0
		for _, p := range t.SplitAt(child, cuts...) {
			raw := t.Text(p)
			if len(runs) > 0 && runs[0].start == off {
				cur.push(&delimiter{
					node:   p,
					kind:   runs[0].kind,
					char:   raw[len(raw)-1],
					length: len(raw),
					orig:   len(raw),
					start:  base + off,
					end:    base + off + len(raw),
				})
				runs = runs[1:]
			}
			off += len(raw)
		}
	}
	for _, s := range scopes {
		s.seal()
	}
	return scopes
}

// markers lists the marker runs of s in order.
func (r *Resolver) markers(s string) []run {
	var runs []run
	for i := 0; i < len(s); {
		start, end, kind := r.nextMarker(s[i:])
		if start < 0 {
			break
		}
		runs = append(runs, run{i + start, i + end, kind})
		i += end
	}
	return runs
}

func (r *Resolver) enabled(c byte) bool {
	switch c {
	case '*':
		return !r.opts.DisableAsterisk
	case '_':
		return !r.opts.DisableUnderscore
	case '~':
		return !r.opts.DisableTilde
	}
	return false
}

// nextMarker finds the first marker run in s.
func (r *Resolver) nextMarker(s string) (start, end int, kind marker) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			if i+1 < len(s) && isPunct(s[i+1]) {
				i++
			}
		case '[':
			return i, i + 1, openBracket
		case ']':
			return i, i + 1, closeBracket
		case '!':
			if i+1 < len(s) && s[i+1] == '[' {
				return i, i + 2, imageOpen
			}
		case '*', '_', '~':
			j := i + 1
			for j < len(s) && s[j] == c {
				j++
			}
			if !r.enabled(c) || (c == '~' && j-i > 2) {
				i = j - 1
				continue
			}
			return i, j, emphasis
		}
	}
	return -1, -1, 0
}
