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
	"fmt"
	"sort"
	"strings"

	"akhil.cc/quill/ast"
	"github.com/emirpasic/gods/maps/treemap"
)

// candidate is a matcher waiting at an offset of the span.
type candidate struct {
	m   *Matcher
	seq int // registration order, the final tie-break
	off int
	pre *Match
}

func (a *candidate) before(b *candidate) bool {
	if a.m.Priority != b.m.Priority {
		return a.m.Priority > b.m.Priority
	}
	return a.seq < b.seq
}

// schedule orders candidates by ascending offset, then by priority.
type schedule struct {
	m *treemap.Map
}

func newSchedule() *schedule {
	return &schedule{m: treemap.NewWithIntComparator()}
}

func (s *schedule) push(c *candidate) {
	var list []*candidate
	if v, ok := s.m.Get(c.off); ok {
		list = v.([]*candidate)
	}
	i := sort.Search(len(list), func(i int) bool { return c.before(list[i]) })
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = c
	s.m.Put(c.off, list)
}

func (s *schedule) pop() *candidate {
	if s.m.Empty() {
		return nil
	}
	it := s.m.Iterator()
	it.First()
	list := it.Value().([]*candidate)
	if len(list) == 1 {
		s.m.Remove(it.Key())
	} else {
		s.m.Put(it.Key(), list[1:])
	}
	return list[0]
}

// below removes and returns every candidate waiting before limit.
func (s *schedule) below(limit int) []*candidate {
	var out []*candidate
	for !s.m.Empty() {
		it := s.m.Iterator()
		it.First()
		if it.Key().(int) >= limit {
			break
		}
		out = append(out, it.Value().([]*candidate)...)
		s.m.Remove(it.Key())
	}
	return out
}

// tokenizer resolves one flat span of text into nodes.
type tokenizer struct {
	c    *Context
	tree *ast.Tree
	// fail decides what a hard matcher failure does. Returning nil treats
	// the failure as no match.
	fail func(error) error
}

// Tokenize resolves span into a sequence of detached nodes of t using
// matchers. Unclaimed text becomes Text nodes of the given kind. The nodes,
// concatenated in order, cover span exactly.
func Tokenize(ctx context.Context, c *Context, t *ast.Tree, span string, kind ast.Kind, matchers []*Matcher) ([]ast.ID, error) {
	tk := &tokenizer{c: c, tree: t, fail: func(err error) error { return err }}
	return tk.run(ctx, span, kind, matchers)
}

// lineStart returns the first line start at or after from.
func lineStart(src string, from int) int {
	if from <= 0 || from > len(src) || src[from-1] == '\n' {
		return from
	}
	i := strings.IndexByte(src[from:], '\n')
	if i < 0 {
		return len(src)
	}
	return from + i + 1
}

func (tk *tokenizer) probe(ctx context.Context, s *schedule, cand *candidate, span string, kind ast.Kind, from int) error {
	for {
		if kind == ast.Block {
			from = lineStart(span, from)
		}
		if from > len(span) {
			return nil
		}
		off, pre, err := cand.m.Start.Find(ctx, tk.c, span, from)
		if err != nil {
			return tk.fail(fmt.Errorf("%s: find start: %w", cand.m.Name, err))
		}
		if off < from || off > len(span) {
			return nil
		}
		if kind == ast.Block && lineStart(span, off) != off {
			// Block constructs only start at the beginning of a line.
			from = lineStart(span, off)
			if from >= len(span) {
				return nil
			}
			continue
		}
		cand.off, cand.pre = off, pre
		s.push(cand)
		return nil
	}
}

func (tk *tokenizer) run(ctx context.Context, span string, kind ast.Kind, matchers []*Matcher) ([]ast.ID, error) {
	s := newSchedule()
	for i, m := range matchers {
		if m.Start == nil {
			continue
		}
		if err := tk.probe(ctx, s, &candidate{m: m, seq: i}, span, kind, 0); err != nil {
			return nil, err
		}
	}
	var out []ast.ID
	cursor := 0
	for cand := s.pop(); cand != nil; cand = s.pop() {
		m, err := tk.parse(ctx, cand, span)
		if err != nil {
			return nil, err
		}
		if m == nil {
			restart := cand.off + 1
			if kind == ast.Block {
				restart = lineStart(span, cand.off+1)
			}
			if restart <= cand.off || restart >= len(span) {
				continue
			}
			if err := tk.probe(ctx, s, cand, span, kind, restart); err != nil {
				return nil, err
			}
			continue
		}
		if cand.off > cursor {
			out = append(out, tk.tree.NewText(kind, span[cursor:cand.off]))
		}
		out = append(out, tk.build(m, cand.m.Name, cand.m.Kind))
		cursor = cand.off + len(m.Raw)
		stale := append(s.below(cursor), cand)
		for _, c := range stale {
			if err := tk.probe(ctx, s, c, span, kind, cursor); err != nil {
				return nil, err
			}
		}
	}
	if cursor < len(span) {
		out = append(out, tk.tree.NewText(kind, span[cursor:]))
	}
	return out, nil
}

// parse runs the candidate and validates the result against the span.
func (tk *tokenizer) parse(ctx context.Context, cand *candidate, span string) (*Match, error) {
	m := cand.pre
	cand.pre = nil
	if m == nil {
		if cand.m.Parse == nil {
			return nil, nil
		}
		var err error
		m, err = cand.m.Parse(ctx, tk.c, span, cand.off)
		if err != nil {
			return nil, tk.fail(fmt.Errorf("%s: parse at %d: %w", cand.m.Name, cand.off, err))
		}
	}
	if m == nil || m.Raw == "" {
		return nil, nil
	}
	if !strings.HasPrefix(span[cand.off:], m.Raw) {
		tk.c.Log.Warn("match does not start at its offset", "matcher", cand.m.Name, "offset", cand.off)
		return nil, nil
	}
	return m, nil
}

// build materializes m and its nested children as detached nodes.
func (tk *tokenizer) build(m *Match, name string, kind ast.Kind) ast.ID {
	type item struct {
		m      *Match
		parent ast.ID
		name   string
		kind   ast.Kind
	}
	var root ast.ID
	stack := []item{{m, ast.Nil, name, kind}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.m.Name != "" {
			it.name = it.m.Name
		}
		if it.m.Kind != ast.Unset {
			it.kind = it.m.Kind
		}
		var id ast.ID
		if it.m.Text {
			id = tk.tree.NewText(it.kind, it.m.Raw)
		} else {
			id = tk.tree.NewParsed(it.kind, it.name, it.m.Raw, it.m.Data)
		}
		if it.m.MaxLevel != ast.Unset {
			tk.tree.SetMaxLevel(id, it.m.MaxLevel)
		}
		if it.m.SkipParagraphWrapping {
			tk.tree.SetSkipParagraphWrapping(id, true)
		}
		if it.m.LineBreak != ast.LineBreakUnset {
			tk.tree.SetLineBreak(id, it.m.LineBreak)
		}
		if it.parent == ast.Nil {
			root = id
		} else {
			tk.tree.Append(it.parent, id)
		}
		if it.m.Text {
			continue
		}
		for i := len(it.m.Children) - 1; i >= 0; i-- {
			if it.m.Children[i] != nil {
				stack = append(stack, item{it.m.Children[i], id, it.name, it.kind})
			}
		}
	}
	return root
}
