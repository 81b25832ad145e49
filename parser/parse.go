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

// Package parser turns markup source into an *ast.Tree by scheduling
// pluggable matchers over text and running AST plugins over subtrees.
//
// A parse proceeds in passes. The source is wrapped in a single Text child
// of a new Document. The block pass then walks the tree and asks the
// tokenizer to resolve every eligible Text node with the block matchers; the
// inline pass does the same with the inline matchers. Matchers of one kind
// are grouped by Order, and a Text node is rescanned once per group, the
// highest order first. AST plugins of the pass's kind run over each visited
// subtree before (Pre) and after (Post) its children are processed.
//
// The tokenizer resolves a span as follows:
//
//	probe   = every matcher reports its first possible offset .
//	select  = lowest offset, then highest priority, then registration order .
//	match   = on success the text before the match becomes a Text node,
//	          the match becomes a Parsed node, and every matcher waiting
//	          inside the consumed text is probed again after it .
//	retry   = on failure the matcher is probed again from the next line
//	          (block) or the next byte (inline) .
//
// Malformed markup never fails a parse: it is left as text.
package parser // import "akhil.cc/quill/parser"

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"akhil.cc/quill/ast"
)

// Options configure an Engine.
type Options struct {
	// DisableBlock skips the block pass; the whole source is inline text.
	DisableBlock bool
	// FrontMatter strips a metadata header recognized by the engine's
	// FrontMatter collaborator.
	FrontMatter bool
	// IgnoreErrors collects hard plugin failures in File.Errors instead of
	// aborting the parse.
	IgnoreErrors bool
	// MaxLevel, LineBreak and SkipParagraphWrapping set the Document's
	// options, inherited by the whole tree.
	MaxLevel              ast.Kind
	LineBreak             ast.LineBreak
	SkipParagraphWrapping bool
	// TrimLineIndent strips leading whitespace from every line of text once
	// parsing is done.
	TrimLineIndent bool
}

// File is the result of a parse.
type File struct {
	Tree    *ast.Tree
	Meta    map[string]any
	Context *Context
	Options Options
	// Errors holds the failures ignored under Options.IgnoreErrors.
	Errors []error
}

// Root returns the Document node of f.
func (f *File) Root() ast.ID { return f.Tree.Root() }

// Engine holds a set of plugins. Configure it before the first parse; an
// Engine may then be used for any number of sequential or concurrent parses.
type Engine struct {
	opts     Options
	log      *slog.Logger
	matchers []*Matcher
	plugins  []ASTPlugin
	front    FrontMatter
}

// New returns an Engine without any plugin.
func New(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Options returns the engine's options.
func (e *Engine) Options() Options { return e.opts }

// SetLogger sets the logger handed to plugins through the Context.
func (e *Engine) SetLogger(log *slog.Logger) { e.log = log }

// AddMatcher registers matchers. Registration order breaks scheduling ties.
func (e *Engine) AddMatcher(ms ...*Matcher) {
	e.matchers = append(e.matchers, ms...)
}

// AddPlugin registers AST plugins.
func (e *Engine) AddPlugin(ps ...ASTPlugin) {
	e.plugins = append(e.plugins, ps...)
}

// SetFrontMatter sets the metadata header collaborator.
func (e *Engine) SetFrontMatter(fm FrontMatter) { e.front = fm }

// Matchers returns the registered matchers.
func (e *Engine) Matchers() []*Matcher { return append([]*Matcher(nil), e.matchers...) }

// Plugins returns the registered AST plugins.
func (e *Engine) Plugins() []ASTPlugin { return append([]ASTPlugin(nil), e.plugins...) }

// groups returns the matchers of kind grouped by descending Order.
func (e *Engine) groups(kind ast.Kind) [][]*Matcher {
	byOrder := map[int][]*Matcher{}
	var orders []int
	for _, m := range e.matchers {
		if m.Kind != kind {
			continue
		}
		if _, ok := byOrder[m.Order]; !ok {
			orders = append(orders, m.Order)
		}
		byOrder[m.Order] = append(byOrder[m.Order], m)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(orders)))
	groups := make([][]*Matcher, len(orders))
	for i, o := range orders {
		groups[i] = byOrder[o]
	}
	return groups
}

func (e *Engine) astPlugins(kind ast.Kind, phase Phase) []ASTPlugin {
	var ps []ASTPlugin
	for _, p := range e.plugins {
		if p.Kind() == kind && p.Phase() == phase {
			ps = append(ps, p)
		}
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Priority() > ps[j].Priority() })
	return ps
}

// MustParse is like Parse but panics if the source cannot be parsed.
func (e *Engine) MustParse(src io.Reader) *File {
	f, err := e.Parse(context.Background(), src)
	if err != nil {
		panic("Parse error: " + err.Error())
	}
	return f
}

// Parse reads src and parses it. On a hard failure the partially built
// File is returned along with the error.
func (e *Engine) Parse(ctx context.Context, src io.Reader) (*File, error) {
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return e.ParseString(ctx, string(b))
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// ParseString parses src.
func (e *Engine) ParseString(ctx context.Context, src string) (*File, error) {
	tree := ast.New()
	c := NewContext(e.log)
	f := &File{Tree: tree, Context: c, Options: e.opts}
	w := &walker{e: e, c: c, tree: tree, file: f}
	w.tk = &tokenizer{c: c, tree: tree, fail: w.fail}

	root := tree.Root()
	if e.opts.MaxLevel != ast.Unset {
		tree.SetMaxLevel(root, e.opts.MaxLevel)
	}
	if e.opts.LineBreak != ast.LineBreakUnset {
		tree.SetLineBreak(root, e.opts.LineBreak)
	}
	if e.opts.SkipParagraphWrapping {
		tree.SetSkipParagraphWrapping(root, true)
	}

	src = newlines.Replace(src)
	if e.opts.FrontMatter && e.front != nil {
		prefix, meta, err := e.front.Extract(src)
		if err != nil {
			if err := w.fail(fmt.Errorf("front matter: %w", err)); err != nil {
				return f, err
			}
		} else if prefix != "" && strings.HasPrefix(src, prefix) {
			src = src[len(prefix):]
			f.Meta, c.Meta = meta, meta
		}
	}
	tree.Append(root, tree.NewText(ast.Block, src))

	if !e.opts.DisableBlock {
		if err := w.walk(ctx, root, ast.Block); err != nil {
			return f, err
		}
	}
	if err := w.walk(ctx, root, ast.Inline); err != nil {
		return f, err
	}
	tree.Normalize(root, ast.NormalizeOptions{
		TrimLineIndent:  e.opts.TrimLineIndent,
		TrimTrailing:    true,
		TrimBeforeBlock: true,
	})
	return f, nil
}
