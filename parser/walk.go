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

	"akhil.cc/quill/ast"
)

// walker drives the tokenizer and the AST plugins over a whole tree.
type walker struct {
	e    *Engine
	c    *Context
	tree *ast.Tree
	tk   *tokenizer
	file *File
}

type frame struct {
	id      ast.ID
	next    int
	entered bool
}

// walk runs one pass for kind over the subtree rooted at root. It uses an
// explicit stack so nesting depth is bounded by memory, not by the call
// stack.
func (w *walker) walk(ctx context.Context, root ast.ID, kind ast.Kind) error {
	level := kind.Level()
	groups := w.e.groups(kind)
	pre, post := w.e.astPlugins(kind, Pre), w.e.astPlugins(kind, Post)
	w.c.Log.Debug("walk", "kind", kind, "groups", len(groups))

	stack := []frame{{id: root}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := &stack[len(stack)-1]
		if !f.entered {
			f.entered = true
			if err := w.runPlugins(ctx, pre, f.id); err != nil {
				return err
			}
			continue
		}
		if f.next >= w.tree.ChildCount(f.id) {
			id := f.id
			stack = stack[:len(stack)-1]
			if err := w.runPlugins(ctx, post, id); err != nil {
				return err
			}
			continue
		}
		child := w.tree.Child(f.id, f.next)
		if !w.tree.IsText(child) {
			f.next++
			if w.tree.Resolve(child).MaxLevel.Level() >= level {
				stack = append(stack, frame{id: child})
			}
			continue
		}
		tag := w.tree.Order(child)
		if tag >= len(groups) || w.tree.Resolve(child).MaxLevel.Level() < level {
			f.next++
			continue
		}
		if err := w.retokenize(ctx, child, kind, tag, groups[tag]); err != nil {
			return err
		}
		// The first produced node now sits at f.next and is visited next.
	}
	// Plugins may have moved or split tagged nodes, so the whole subtree is
	// cleared for the next pass.
	w.tree.Walk(root, func(id ast.ID) bool {
		w.tree.SetOrder(id, 0)
		return true
	})
	return nil
}

func (w *walker) retokenize(ctx context.Context, text ast.ID, kind ast.Kind, tag int, matchers []*Matcher) error {
	raw := w.tree.Text(text)
	nodes, err := w.tk.run(ctx, raw, kind, matchers)
	if err != nil {
		return err
	}
	if len(nodes) == 1 && w.tree.IsText(nodes[0]) {
		// Nothing matched; keep the node and move it to the next group.
		w.tree.SetOrder(text, tag+1)
		return nil
	}
	for _, n := range nodes {
		w.tree.SetOrder(n, tag+1)
		if w.tree.IsText(n) {
			w.tree.CopyOptions(n, text)
		}
	}
	if len(nodes) == 0 {
		w.tree.Remove(text)
		return nil
	}
	w.tree.Before(text, nodes...)
	w.tree.Remove(text)
	return nil
}

func (w *walker) runPlugins(ctx context.Context, plugins []ASTPlugin, id ast.ID) error {
	for _, p := range plugins {
		if err := p.Parse(ctx, w.c, w.tree, id); err != nil {
			if err := w.fail(fmt.Errorf("%s: %w", p.Name(), err)); err != nil {
				return err
			}
		}
	}
	return nil
}

// fail records err when errors are ignored and returns it otherwise.
func (w *walker) fail(err error) error {
	if !w.e.opts.IgnoreErrors {
		return err
	}
	w.c.Log.Error("ignoring parse error", "error", err)
	w.file.Errors = append(w.file.Errors, err)
	return nil
}
