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

	"akhil.cc/quill/ast"
	"akhil.cc/quill/delim"
	"akhil.cc/quill/parser"
	"akhil.cc/quill/refmap"
	sq "github.com/kballard/go-shellquote"
)

// Header is the data of a heading node. Anchor is assigned once the block
// pass is done.
type Header struct {
	Level  int
	Text   string
	Anchor string
}

// Directive is the data of a directive node. Command is the text after the
// opening fence and Args its shell words.
type Directive struct {
	Command string
	Args    []string
	Body    string
}

// ListItem is the data of a list item node.
type ListItem struct {
	Depth int
	Label string
}

func headingLevel(line string) int {
	l, ok := indent(line)
	if !ok {
		return 0
	}
	n := 0
	for n < len(l) && l[n] == '#' {
		n++
	}
	if n == 0 || n > 6 || (n < len(l) && l[n] != ' ' && l[n] != '\t') {
		return 0
	}
	return n
}

func isHeading(line string) bool { return headingLevel(line) > 0 }

// HeadingMatcher matches ATX headings.
func HeadingMatcher() *parser.Matcher {
	return &parser.Matcher{
		Name:     NameHeading,
		Kind:     ast.Block,
		Priority: 40,
		Start:    lines(isHeading),
		Parse: func(_ context.Context, _ *parser.Context, src string, at int) (*parser.Match, error) {
			line, next := lineAt(src, at)
			n := headingLevel(line)
			if n == 0 {
				return nil, nil
			}
			l, _ := indent(line)
			text := strings.TrimSpace(l[n:])
			if t := strings.TrimRight(text, "#"); t == "" || strings.HasSuffix(t, " ") {
				text = strings.TrimSpace(t)
			}
			m := &parser.Match{Raw: src[at:next], Data: &Header{Level: n, Text: text}}
			if text != "" {
				m.Children = []*parser.Match{inlineText(text)}
			}
			return m, nil
		},
	}
}

func quoteContent(line string) (string, bool) {
	l, ok := indent(line)
	if !ok || !strings.HasPrefix(l, ">") {
		return "", false
	}
	l = l[1:]
	if strings.HasPrefix(l, " ") || strings.HasPrefix(l, "\t") {
		l = l[1:]
	}
	return l, true
}

func isQuote(line string) bool {
	_, ok := quoteContent(line)
	return ok
}

// QuoteMatcher matches block quotes. The content is parsed as blocks again,
// so quotes nest.
func QuoteMatcher() *parser.Matcher {
	return &parser.Matcher{
		Name:     NameQuote,
		Kind:     ast.Block,
		Priority: 40,
		Start:    lines(isQuote),
		Parse: func(_ context.Context, _ *parser.Context, src string, at int) (*parser.Match, error) {
			var b strings.Builder
			end := at
			for end < len(src) {
				line, next := lineAt(src, end)
				content, ok := quoteContent(line)
				if !ok {
					break
				}
				b.WriteString(content)
				b.WriteByte('\n')
				end = next
			}
			if end == at {
				return nil, nil
			}
			return &parser.Match{
				Raw:      src[at:end],
				Children: []*parser.Match{{Raw: b.String(), Text: true}},
			}, nil
		},
	}
}

func fence(line string) string {
	l, ok := indent(line)
	if !ok {
		return ""
	}
	n := 0
	for n < len(l) && l[n] == '`' {
		n++
	}
	if n < 3 {
		return ""
	}
	return l[:n]
}

func isFence(line string) bool { return fence(line) != "" }

// DirectiveMatcher matches fenced directives. The body is not parsed.
func DirectiveMatcher() *parser.Matcher {
	return &parser.Matcher{
		Name:     NameDirective,
		Kind:     ast.Block,
		Priority: 50,
		Start:    lines(isFence),
		Parse: func(_ context.Context, c *parser.Context, src string, at int) (*parser.Match, error) {
			line, next := lineAt(src, at)
			prefix := fence(line)
			if prefix == "" {
				return nil, nil
			}
			l, _ := indent(line)
			d := &Directive{Command: strings.TrimSpace(l[len(prefix):])}
			if d.Command != "" {
				args, err := sq.Split(d.Command)
				if err != nil {
					c.Log.Warn("cannot split directive command", "command", d.Command, "error", err)
				}
				d.Args = args
			}
			var body strings.Builder
			end, closed := next, false
			for end < len(src) {
				line, next := lineAt(src, end)
				end = next
				if l, ok := indent(line); ok && strings.HasPrefix(l, prefix) {
					if rest := strings.TrimSpace(l[len(prefix):]); rest != "" {
						c.Log.Warn("text after the closing fence of a directive", "text", rest)
					}
					closed = true
					break
				}
				body.WriteString(line)
				body.WriteByte('\n')
			}
			if !closed {
				c.Log.Warn("directive is not terminated", "command", d.Command)
			}
			d.Body = body.String()
			return &parser.Match{Raw: src[at:end], Data: d}, nil
		},
	}
}

// listItem splits a list item line into its depth, label and text.
func listItem(line string) (depth int, label, text string, ok bool) {
	for depth < len(line) && line[depth] == '\t' {
		depth++
	}
	l := line[depth:]
	if len(l) < 2 || l[0] != '-' || (l[1] != ' ' && l[1] != '[') {
		return 0, "", "", false
	}
	l = l[1:]
	if l[0] == '[' {
		if i := strings.IndexByte(l, ']'); i > 0 && (i+1 == len(l) || l[i+1] == ' ') {
			label, l = l[1:i], l[i+1:]
		}
	}
	return depth, label, strings.TrimSpace(l), true
}

func isListItem(line string) bool {
	_, _, _, ok := listItem(line)
	return ok
}

// ListMatcher matches lists of hyphen items. Each leading tab nests an item
// one level deeper. Lines that continue an item are joined to it.
func ListMatcher() *parser.Matcher {
	return &parser.Matcher{
		Name:     NameList,
		Kind:     ast.Block,
		Priority: 30,
		Start:    lines(isListItem),
		Parse: func(_ context.Context, _ *parser.Context, src string, at int) (*parser.Match, error) {
			list := &parser.Match{}
			end := at
			for end < len(src) {
				line, next := lineAt(src, end)
				depth, label, text, ok := listItem(line)
				if !ok {
					break
				}
				start := end
				end = next
				for end < len(src) {
					line, next := lineAt(src, end)
					if isBlank(line) || isListItem(line) || interrupts(line) {
						break
					}
					text += " " + strings.TrimSpace(line)
					end = next
				}
				item := &parser.Match{
					Raw:      src[start:end],
					Name:     NameListItem,
					Data:     &ListItem{Depth: depth, Label: label},
					MaxLevel: ast.Inline,
				}
				if text != "" {
					item.Children = []*parser.Match{inlineText(text)}
				}
				list.Children = append(list.Children, item)
			}
			if len(list.Children) == 0 {
				return nil, nil
			}
			list.Raw = src[at:end]
			return list, nil
		},
	}
}

func isDefinition(line string) bool {
	l, ok := indent(line)
	return ok && strings.HasPrefix(l, "[")
}

// definition parses a link reference definition line.
func definition(line string) (*refmap.Entry, bool) {
	l, _ := indent(line)
	label, i, ok := delim.ParseLinkLabel(l, 0)
	if !ok || i >= len(l) || l[i] != ':' {
		return nil, false
	}
	i = skipBlank(l, i+1)
	var dest string
	if strings.HasPrefix(l[i:], "<>") {
		i += 2
	} else if dest, i, ok = delim.ParseLinkDest(l, i); !ok {
		return nil, false
	}
	e := &refmap.Entry{Label: label, Destination: dest}
	j := skipBlank(l, i)
	if j < len(l) {
		if j == i {
			return nil, false
		}
		title, k, ok := delim.ParseLinkTitle(l, j)
		if !ok || !isBlank(l[k:]) {
			return nil, false
		}
		e.Title = title
	}
	return e, true
}

func skipBlank(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

// DefinitionMatcher matches link reference definitions. They are registered
// by the References plugin.
func DefinitionMatcher() *parser.Matcher {
	return &parser.Matcher{
		Name:     NameDefinition,
		Kind:     ast.Block,
		Priority: 20,
		Start:    lines(isDefinition),
		Parse: func(_ context.Context, _ *parser.Context, src string, at int) (*parser.Match, error) {
			line, next := lineAt(src, at)
			e, ok := definition(line)
			if !ok {
				return nil, nil
			}
			return &parser.Match{Raw: src[at:next], Data: e}, nil
		},
	}
}

// interrupts reports whether line starts a block that ends a paragraph.
func interrupts(line string) bool {
	return isHeading(line) || isFence(line) || isQuote(line) || isListItem(line)
}

// ParagraphMatcher matches runs of non-blank lines. The leading whitespace
// of each line is dropped.
func ParagraphMatcher() *parser.Matcher {
	return &parser.Matcher{
		Name:  NameParagraph,
		Kind:  ast.Block,
		Start: lines(func(line string) bool { return !isBlank(line) }),
		Parse: func(_ context.Context, _ *parser.Context, src string, at int) (*parser.Match, error) {
			var content []string
			end := at
			for end < len(src) {
				line, next := lineAt(src, end)
				if isBlank(line) || (len(content) > 0 && interrupts(line)) {
					break
				}
				content = append(content, strings.TrimLeft(line, " \t"))
				end = next
			}
			if len(content) == 0 {
				return nil, nil
			}
			return &parser.Match{
				Raw:      src[at:end],
				Children: []*parser.Match{inlineText(strings.Join(content, "\n"))},
			}, nil
		},
	}
}
