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

// Package html converts a parsed quill file into html output.
// Text is escaped, and directives with a command are replaced by the
// standard output of that command, run with the directive's body as its
// standard input.
//
// Nodes correspond to the following HTML tags:
//
//	Document, blockquote        loose inline content wrapped in <p></p>
//	paragraph                   <p></p>
//	heading                     <h1 id=""></h1> ... <h6 id=""></h6>
//	blockquote                  <blockquote></blockquote>
//	list                        <ul></ul>, one more <ul> per nesting level
//	list_item (bulleted)        <li class="bullet"></li>
//	list_item (labeled)         <li><span></span></li>
//	directive (raw string)      <pre></pre>
//	directive (with command)    Depends on the result of command execution
//	definition                  nothing
//	Link                        <a href="" title=""></a>
//	Image                       <img src="" alt="" title="" />
//	Emph                        <em></em>
//	Strong                      <strong></strong>
//	Del                         <s></s>
//	code_span                   <code></code>
//	hard_break                  <br />
//
// A Parsed node with any other name renders its children.
package html // import "akhil.cc/quill/gen/html"

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"sync"

	"akhil.cc/quill/ast"
	"akhil.cc/quill/gen"
	"akhil.cc/quill/parser"
	"akhil.cc/quill/syntax"
)

type syncWriter struct {
	m sync.Mutex
	w io.Writer
}

func (s *syncWriter) Write(p []byte) (n int, err error) {
	s.m.Lock()
	defer s.m.Unlock()
	n, err = s.w.Write(p)
	return
}

type stickyCountWriter struct {
	n   int64
	err error
	w   io.Writer
}

func (c *stickyCountWriter) Write(p []byte) (n int, err error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err = c.w.Write(p)
	c.err = err
	c.n += int64(n)
	return
}

func (c *stickyCountWriter) WriteString(s string) (n int, err error) {
	return c.Write([]byte(s))
}

// Generator represents a non-reusable HTML output generator for a *parser.File.
type Generator struct {
	// Stdout and Stderr specify the generator's standard output and standard error.
	//
	// HTML output will be written to standard out. Standard error is typically only
	// written by a process run for a directive.
	//
	// If Stdout == Stderr, at most one goroutine at a time will call Write.
	Stdout   io.Writer
	Stderr   io.Writer
	ctx      context.Context
	file     *parser.File
	waitdone chan error

	m     sync.Mutex
	pipes []io.Closer
}

// Gen returns the Generator struct to convert the given file into HTML output.
//
// It sets only the file in the returned structure.
func Gen(file *parser.File) *Generator {
	return &Generator{ctx: context.TODO(), file: file}
}

// GenContext is like Gen but includes a context.
//
// The provided context is used both to halt HTML generation
// after rendering a node, and to kill any processes executed
// for a directive.
func GenContext(ctx context.Context, file *parser.File) *Generator {
	if ctx == nil {
		panic("nil context")
	}
	return &Generator{ctx: ctx, file: file}
}

// Start starts the generator but does not wait for it to complete.
func (g *Generator) Start() error {
	if g.waitdone != nil {
		return fmt.Errorf("already started")
	}
	if g.Stdout == nil {
		g.Stdout = io.Discard
	}
	if g.Stderr == nil {
		g.Stderr = io.Discard
	}
	if g.Stdout == g.Stderr {
		g.Stdout = &syncWriter{w: g.Stdout}
		g.Stderr = g.Stdout
	}
	g.waitdone = make(chan error)
	go func() {
		err := g.gen()
		g.m.Lock()
		for _, p := range g.pipes {
			p.Close()
		}
		g.pipes = nil
		g.m.Unlock()
		g.waitdone <- err
	}()
	return nil
}

// Wait waits for the generator to complete and finish copying to
// Stdout and Stderr. It is an error to call Wait before Start
// has been called.
//
// Wait will release any resources associated with the generator.
func (g *Generator) Wait() error {
	if g.waitdone == nil {
		return fmt.Errorf("not started")
	}
	err := <-g.waitdone
	close(g.waitdone)
	return err
}

// Run starts the generator and waits for it to complete, returning
// any errors enountered.
func (g *Generator) Run() error {
	if err := g.Start(); err != nil {
		return err
	}
	return g.Wait()
}

// StdoutPipe returns a pipe that is connected to the generator's
// standard output.
//
// The pipe is closed once the generator is done. It is invalid to call Wait
// until all reads from the pipe have completed. For the same reason, it is
// invalid to call Run when using StdoutPipe.
func (g *Generator) StdoutPipe() (io.Reader, error) {
	if g.Stdout != nil {
		return nil, fmt.Errorf("Stdout already set")
	}
	pr, pw := io.Pipe()
	g.Stdout = pw
	g.pipes = append(g.pipes, pw)
	return pr, nil
}

// StderrPipe returns a pipe that is connected to the generator's
// standard error.
//
// It has the same restrictions as StdoutPipe.
func (g *Generator) StderrPipe() (io.Reader, error) {
	if g.Stderr != nil {
		return nil, fmt.Errorf("Stderr already set")
	}
	pr, pw := io.Pipe()
	g.Stderr = pw
	g.pipes = append(g.pipes, pw)
	return pr, nil
}

// Output runs the generator and returns its standard output.
func (g *Generator) Output() ([]byte, error) {
	if g.Stdout != nil {
		return nil, fmt.Errorf("Stdout already set")
	}
	var stdout bytes.Buffer
	g.Stdout = &stdout
	err := g.Run()
	return stdout.Bytes(), err
}

// CombinedOutput runs the generator and returns its combined
// standard output and standard error.
func (g *Generator) CombinedOutput() ([]byte, error) {
	if g.Stdout != nil {
		return nil, fmt.Errorf("Stdout already set")
	}
	if g.Stderr != nil {
		return nil, fmt.Errorf("Stderr already set")
	}
	b := new(syncBuffer)
	g.Stdout = b
	g.Stderr = b
	err := g.Run()
	return b.Bytes(), err
}

// item is a unit of pending output: a node to render or a literal string.
type item struct {
	id  ast.ID
	lit string
}

type renderer struct {
	t    *ast.Tree
	w    *stickyCountWriter
	c    *parser.Context
	runs gen.Command
}

func (g *Generator) gen() error {
	cw := &stickyCountWriter{0, nil, g.Stdout}
	if g.file == nil || g.file.Tree == nil {
		return nil
	}
	r := &renderer{
		t:    g.file.Tree,
		w:    cw,
		c:    g.file.Context,
		runs: gen.Command{Ctx: g.ctx, Stderr: g.Stderr},
	}
	stack := []item{{id: r.t.Root()}}
	for len(stack) > 0 {
		select {
		case <-g.ctx.Done():
			return g.ctx.Err()
		default:
		}
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.id == ast.Nil {
			cw.WriteString(it.lit)
			continue
		}
		next, err := r.node(it.id)
		if err != nil {
			return err
		}
		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, next[i])
		}
		if cw.err != nil {
			return cw.err
		}
	}
	return cw.err
}

func lit(s string) item { return item{lit: s} }

// children returns the children of id as items.
func (r *renderer) children(id ast.ID) []item {
	var out []item
	for _, c := range r.t.Children(id) {
		out = append(out, item{id: c})
	}
	return out
}

// wrap surrounds the children of id with open and closing.
func (r *renderer) wrap(id ast.ID, open, closing string) []item {
	out := []item{lit(open)}
	out = append(out, r.children(id)...)
	return append(out, lit(closing))
}

func (r *renderer) loose(id ast.ID) bool {
	return r.t.IsText(id) || r.t.Kind(id) == ast.Inline
}

// container renders the children of a block container. Runs of loose
// inline content are wrapped in paragraphs unless wrapping is skipped.
func (r *renderer) container(id ast.ID) []item {
	skip := r.t.Resolve(id).SkipParagraphWrapping
	kids := r.t.Children(id)
	var out []item
	for i := 0; i < len(kids); {
		if !r.loose(kids[i]) {
			out = append(out, item{id: kids[i]})
			i++
			continue
		}
		j, blank := i, true
		for ; j < len(kids) && r.loose(kids[j]); j++ {
			if !r.t.IsText(kids[j]) || strings.TrimSpace(r.t.Text(kids[j])) != "" {
				blank = false
			}
		}
		if !blank {
			if !skip {
				out = append(out, lit("<p>"))
			}
			for _, k := range kids[i:j] {
				out = append(out, item{id: k})
			}
			if !skip {
				out = append(out, lit("</p>"))
			}
		}
		i = j
	}
	return out
}

func (r *renderer) text(id ast.ID) {
	s := r.t.Text(id)
	if r.c != nil {
		r.c.Words += len(strings.Fields(s))
	}
	s = html.EscapeString(s)
	if r.t.Resolve(id).LineBreak == ast.LineBreakSoft {
		s = strings.ReplaceAll(s, "\n", "<br />\n")
	}
	r.t.SetOutput(id, s)
	r.w.WriteString(s)
}

// plain returns the text below id, for attributes.
func (r *renderer) plain(id ast.ID) string {
	var b strings.Builder
	r.t.Walk(id, func(n ast.ID) bool {
		switch {
		case r.t.IsText(n):
			b.WriteString(r.t.Text(n))
		case r.t.Name(n) == syntax.NameEscape || r.t.Name(n) == syntax.NameCode:
			s, _ := r.t.Data(n).(string)
			b.WriteString(s)
		}
		return true
	})
	return b.String()
}

func attr(name, value string) string {
	return " " + name + `="` + html.EscapeString(value) + `"`
}

func (r *renderer) node(id ast.ID) ([]item, error) {
	t := r.t
	switch t.Type(id) {
	case ast.TypeText:
		r.text(id)
		return nil, nil
	case ast.TypeDocument:
		return r.container(id), nil
	case ast.TypeEmph:
		return r.wrap(id, "<em>", "</em>"), nil
	case ast.TypeStrong:
		return r.wrap(id, "<strong>", "</strong>"), nil
	case ast.TypeDel:
		return r.wrap(id, "<s>", "</s>"), nil
	case ast.TypeLink:
		ld, _ := t.Link(id)
		open := "<a" + attr("href", ld.Destination)
		if ld.Title != "" {
			open += attr("title", ld.Title)
		}
		return r.wrap(id, open+">", "</a>"), nil
	case ast.TypeImage:
		ld, _ := t.Link(id)
		s := "<img" + attr("src", ld.Destination) + attr("alt", r.plain(id))
		if ld.Title != "" {
			s += attr("title", ld.Title)
		}
		r.w.WriteString(s + " />")
		return nil, nil
	case ast.TypeParsed:
		return r.parsed(id)
	}
	return r.children(id), nil
}

func (r *renderer) parsed(id ast.ID) ([]item, error) {
	t := r.t
	switch t.Name(id) {
	case syntax.NameParagraph:
		return r.wrap(id, "<p>", "</p>"), nil
	case syntax.NameHeading:
		h, ok := t.Data(id).(*syntax.Header)
		if !ok {
			return r.children(id), nil
		}
		tag := "h" + strconv.Itoa(h.Level)
		open := "<" + tag
		if h.Anchor != "" {
			open += attr("id", h.Anchor)
		}
		return r.wrap(id, open+">", "</"+tag+">"), nil
	case syntax.NameQuote:
		out := []item{lit("<blockquote>")}
		out = append(out, r.container(id)...)
		return append(out, lit("</blockquote>")), nil
	case syntax.NameList:
		return r.list(id), nil
	case syntax.NameListItem:
		li, _ := t.Data(id).(*syntax.ListItem)
		open := `<li class="bullet">`
		if li != nil && li.Label != "" {
			open = "<li><span>" + html.EscapeString(li.Label) + "</span>"
		}
		return r.wrap(id, open, "</li>"), nil
	case syntax.NameDirective:
		return nil, r.directive(id)
	case syntax.NameDefinition:
		return nil, nil
	case syntax.NameEscape, syntax.NameCode:
		s, _ := t.Data(id).(string)
		if r.c != nil {
			r.c.Words += len(strings.Fields(s))
		}
		s = html.EscapeString(s)
		if t.Name(id) == syntax.NameCode {
			s = "<code>" + s + "</code>"
		}
		t.SetOutput(id, s)
		r.w.WriteString(s)
		return nil, nil
	case syntax.NameHardBreak:
		r.w.WriteString("<br />\n")
		return nil, nil
	}
	if t.Kind(id) == ast.Block {
		return r.container(id), nil
	}
	return r.children(id), nil
}

// list opens and closes a <ul> whenever the depth of consecutive items
// changes.
func (r *renderer) list(id ast.ID) []item {
	out := []item{lit("<ul>")}
	cur := 0
	for _, c := range r.t.Children(id) {
		depth := cur
		if li, ok := r.t.Data(c).(*syntax.ListItem); ok {
			depth = li.Depth
		}
		for ; cur < depth; cur++ {
			out = append(out, lit("<ul>"))
		}
		for ; cur > depth; cur-- {
			out = append(out, lit("</ul>"))
		}
		out = append(out, item{id: c})
	}
	for ; cur >= 0; cur-- {
		out = append(out, lit("</ul>"))
	}
	return out
}

func (r *renderer) directive(id ast.ID) error {
	d, ok := r.t.Data(id).(*syntax.Directive)
	if !ok {
		return nil
	}
	if d.Command == "" {
		s := "<pre>" + html.EscapeString(d.Body) + "</pre>"
		r.t.SetOutput(id, s)
		r.w.WriteString(s)
		return nil
	}
	var out syncBuffer
	if err := r.runs.Gen(d, &out); err != nil {
		return fmt.Errorf("directive %q: %w", d.Command, err)
	}
	r.t.SetOutput(id, out.String())
	_, err := out.WriteTo(r.w)
	return err
}
