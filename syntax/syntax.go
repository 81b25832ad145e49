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

// Package syntax provides the built-in markup constructs of quill as parser
// plugins, and assembles them into a ready Engine.
//
// Block constructs, each starting at the beginning of a line:
//
//	---            YAML front matter, first thing in the file only
//	# Heading      one to six octothorpes followed by a space
//	> quote        consecutive lines; the content is parsed again as blocks
//	```cmd args    a directive; the body up to the closing fence is kept raw
//	- item         a list item; tabs before the hyphen nest the item
//	-[label] item  a labelled list item
//	[label]: /dest "title"
//	               a link reference definition
//	paragraph      consecutive non-blank lines
//
// Inline constructs:
//
//	\*             a backslash escape of ASCII punctuation
//	`code`         a code span
//	two spaces or a backslash before a newline is a hard break
//
// Emphasis, strikethrough, links and images are resolved by package delim.
package syntax // import "akhil.cc/quill/syntax"

import (
	"context"
	"strings"

	"akhil.cc/quill/ast"
	"akhil.cc/quill/delim"
	"akhil.cc/quill/parser"
)

// Node names of the built-in constructs.
const (
	NameHeading    = "heading"
	NameQuote      = "blockquote"
	NameDirective  = "directive"
	NameList       = "list"
	NameListItem   = "list_item"
	NameDefinition = "definition"
	NameParagraph  = "paragraph"
	NameEscape     = delim.EscapeName
	NameCode       = "code_span"
	NameHardBreak  = "hard_break"
)

// Options configure Default.
type Options struct {
	Parser parser.Options
	Delim  delim.Options
}

// Default returns an Engine with every built-in construct registered.
func Default(opts Options) *parser.Engine {
	e := parser.New(opts.Parser)
	e.SetFrontMatter(YAML{})
	e.AddMatcher(
		DirectiveMatcher(),
		HeadingMatcher(),
		QuoteMatcher(),
		ListMatcher(),
		DefinitionMatcher(),
		ParagraphMatcher(),
		CodeMatcher(),
		HardBreakMatcher(),
		EscapeMatcher(),
	)
	e.AddPlugin(References{}, Headings{}, delim.New(opts.Delim))
	return e
}

// Parse parses src with the default engine.
func Parse(ctx context.Context, src string) (*parser.File, error) {
	return Default(Options{}).ParseString(ctx, src)
}

// lines returns a Start that finds the first line at or after from that
// satisfies ok. from is a line start.
func lines(ok func(line string) bool) parser.ProbeFunc {
	return func(_ context.Context, _ *parser.Context, src string, from int) (int, *parser.Match, error) {
		for i := from; i < len(src); {
			line, next := lineAt(src, i)
			if ok(line) {
				return i, nil, nil
			}
			i = next
		}
		return -1, nil, nil
	}
}

// lineAt returns the line starting at i without its newline, and the offset
// of the next line.
func lineAt(src string, i int) (line string, next int) {
	j := strings.IndexByte(src[i:], '\n')
	if j < 0 {
		return src[i:], len(src)
	}
	return src[i : i+j], i + j + 1
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// indent strips up to three leading spaces. ok is false when line is
// indented further.
func indent(line string) (string, bool) {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	if n > 3 {
		return line, false
	}
	return line[n:], true
}

func inlineText(s string) *parser.Match {
	return &parser.Match{Raw: s, Text: true, MaxLevel: ast.Inline}
}
