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

package parser

import (
	"context"
	"regexp"
	"regexp/syntax"
	"strings"
	"unicode/utf8"

	"akhil.cc/quill/ast"
)

// Match is what a matcher produces for the text it claims.
type Match struct {
	// Raw is the exact matched text. It must be a non-empty prefix of the
	// span at the matched offset.
	Raw string
	// Name and Kind default to the matcher's for the top-level match and to
	// the enclosing match's for nested children.
	Name string
	Kind ast.Kind
	// Text marks a nested child that becomes a plain Text node, scanned
	// again by later passes.
	Text bool
	// Data is attached to the node as is.
	Data any
	// Children become the children of the node.
	Children []*Match

	MaxLevel              ast.Kind
	SkipParagraphWrapping bool
	LineBreak             ast.LineBreak
}

// TextChild returns a nested Text child holding s.
func TextChild(s string) *Match {
	return &Match{Raw: s, Text: true}
}

// Start locates the first offset at or after from where a matcher may
// apply. It returns -1 when there is none. A probe may also return the
// match itself, in which case the matcher's Parse is not called.
type Start interface {
	Find(ctx context.Context, c *Context, src string, from int) (int, *Match, error)
}

// Literal starts wherever the string occurs.
type Literal string

func (l Literal) Find(_ context.Context, _ *Context, src string, from int) (int, *Match, error) {
	if l == "" || from > len(src) {
		return -1, nil, nil
	}
	i := strings.Index(src[from:], string(l))
	if i < 0 {
		return -1, nil, nil
	}
	return from + i, nil, nil
}

// Pattern starts wherever the regular expression matches. Assertions that
// look behind the match, such as ^ or \b, see the text before from, so a
// restarted search agrees with one made from the start of the span. Build
// patterns with NewPattern or Regexp; a Pattern literal without lookbehind
// context only sees src[from:].
type Pattern struct {
	Re *regexp.Regexp
	// behind matches one rune of context followed by Re in group 1. It is
	// nil when Re has no assertion that depends on the preceding text.
	behind *regexp.Regexp
}

// NewPattern wraps re in a Pattern.
func NewPattern(re *regexp.Regexp) Pattern {
	p := Pattern{Re: re}
	if lookBehind(re.String()) {
		p.behind = regexp.MustCompile(`(?s:.)(` + re.String() + `)`)
	}
	return p
}

// Regexp compiles expr into a Pattern. It panics on a malformed expression.
func Regexp(expr string) Pattern {
	return NewPattern(regexp.MustCompile(expr))
}

// lookBehind reports whether expr asserts anything about the text before a
// position.
func lookBehind(expr string) bool {
	re, err := syntax.Parse(expr, syntax.Perl)
	if err != nil {
		return false
	}
	stack := []*syntax.Regexp{re}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch r.Op {
		case syntax.OpBeginLine, syntax.OpBeginText, syntax.OpWordBoundary, syntax.OpNoWordBoundary:
			return true
		}
		stack = append(stack, r.Sub...)
	}
	return false
}

func (p Pattern) Find(_ context.Context, _ *Context, src string, from int) (int, *Match, error) {
	if from > len(src) {
		return -1, nil, nil
	}
	if p.behind != nil && from > 0 {
		_, size := utf8.DecodeLastRuneInString(src[:from])
		back := from - size
		loc := p.behind.FindStringSubmatchIndex(src[back:])
		if loc == nil {
			return -1, nil, nil
		}
		return back + loc[2], nil, nil
	}
	loc := p.Re.FindStringIndex(src[from:])
	if loc == nil {
		return -1, nil, nil
	}
	return from + loc[0], nil, nil
}

// ProbeFunc is a custom Start.
type ProbeFunc func(ctx context.Context, c *Context, src string, from int) (int, *Match, error)

func (f ProbeFunc) Find(ctx context.Context, c *Context, src string, from int) (int, *Match, error) {
	return f(ctx, c, src, from)
}

// Matcher claims spans of text and turns them into Parsed nodes.
type Matcher struct {
	Name string
	Kind ast.Kind
	// Order groups matchers into successive scans of the same text; higher
	// orders scan first.
	Order int
	// Priority breaks ties between matchers starting at the same offset;
	// higher wins.
	Priority int
	Start    Start
	// Parse matches src at offset at. A nil Match with a nil error means
	// no match.
	Parse func(ctx context.Context, c *Context, src string, at int) (*Match, error)
}

// Phase selects when an AST plugin runs relative to the children of the
// subtree it is given.
type Phase uint8

const (
	Pre Phase = iota
	Post
)

// ASTPlugin mutates whole subtrees instead of matching text.
type ASTPlugin interface {
	Name() string
	Kind() ast.Kind
	Phase() Phase
	Priority() int
	Parse(ctx context.Context, c *Context, t *ast.Tree, root ast.ID) error
	// VerifyNode reports whether id is a node this plugin produced.
	VerifyNode(t *ast.Tree, id ast.ID) bool
}

// FrontMatter recognizes a metadata header. It returns the exact prefix it
// consumed, or the empty string when src has no header.
type FrontMatter interface {
	Extract(src string) (prefix string, meta map[string]any, err error)
}
