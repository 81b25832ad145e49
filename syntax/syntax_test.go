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

package syntax_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"akhil.cc/quill/ast"
	"akhil.cc/quill/parser"
	"akhil.cc/quill/syntax"
	"github.com/sanity-io/litter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type smallcase struct {
	in   string
	want string
}

var litCfg = litter.Options{
	Compact:           true,
	StripPackageNames: true,
}

func parse(t *testing.T, opts syntax.Options, in string) *parser.File {
	t.Helper()
	f, err := syntax.Default(opts).ParseString(context.Background(), in)
	require.NoError(t, err)
	return f
}

// find returns the nodes named name in document order.
func find(tree *ast.Tree, name string) []ast.ID {
	var ids []ast.ID
	tree.Walk(tree.Root(), func(id ast.ID) bool {
		if tree.Name(id) == name {
			ids = append(ids, id)
		}
		return true
	})
	return ids
}

var blockSmall = []smallcase{
	{"# Heading 1\n\nThis is a paragraph.\n", "document\n  heading\n    text \"Heading 1\"\n  paragraph\n    text \"This is a paragraph.\"\n"},
	{"para\n# H\n", "document\n  paragraph\n    text \"para\"\n  heading\n    text \"H\"\n"},
	{"#hashtag\n", "document\n  paragraph\n    text \"#hashtag\"\n"},
	{"## Closed ##\n", "document\n  heading\n    text \"Closed\"\n"},
	{"> a\n> > b\n", "document\n  blockquote\n    paragraph\n      text \"a\"\n    blockquote\n      paragraph\n        text \"b\"\n"},
	{"- a\n\t- b\n-[x] c\n", "document\n  list\n    list_item\n      text \"a\"\n    list_item\n      text \"b\"\n    list_item\n      text \"c\"\n"},
	{"- a\n  more\n", "document\n  list\n    list_item\n      text \"a more\"\n"},
	{"one\n  two\n\nthree\n", "document\n  paragraph\n    text \"one\\ntwo\"\n  paragraph\n    text \"three\"\n"},
	{"*a\n\nb*\n", "document\n  paragraph\n    text \"*a\"\n  paragraph\n    text \"b*\"\n"},
	{"\n\n", "document\n"},
}

func TestBlocks(t *testing.T) {
	for i, test := range blockSmall {
		f := parse(t, syntax.Options{}, test.in)
		got := ast.Sprint(f.Tree, f.Root())
		if test.want != got {
			t.Errorf("case %d, in %q,\nwant %s,\ngot %s", i, test.in, test.want, got)
		}
	}
}

var inlineSmall = []smallcase{
	{"a `n >= 3` b", "document\n  paragraph\n    text \"a \"\n    code_span \"`n >= 3`\"\n    text \" b\"\n"},
	{"`*x*` *y*", "document\n  paragraph\n    code_span \"`*x*`\"\n    text \" \"\n    emph\n      text \"y\"\n"},
	{"``a ` b``", "document\n  paragraph\n    code_span \"``a ` b``\"\n"},
	{"`unclosed", "document\n  paragraph\n    text \"`unclosed\"\n"},
	{`\*a*`, "document\n  paragraph\n    escape \"\\\\*\"\n    text \"a*\"\n"},
	{`\a`, "document\n  paragraph\n    text \"\\\\a\"\n"},
	{"a  \nb", "document\n  paragraph\n    text \"a\"\n    hard_break \"  \\n\"\n    text \"b\"\n"},
	{"a\\\nb", "document\n  paragraph\n    text \"a\"\n    hard_break \"\\\\\\n\"\n    text \"b\"\n"},
	{"# *Go* [home](/)", "document\n  heading\n    emph\n      text \"Go\"\n    text \" \"\n    link \"/\"\n      text \"home\"\n"},
	{"- **a**\n", "document\n  list\n    list_item\n      strong\n        text \"a\"\n"},
}

func TestInline(t *testing.T) {
	for i, test := range inlineSmall {
		f := parse(t, syntax.Options{}, test.in)
		got := ast.Sprint(f.Tree, f.Root())
		if test.want != got {
			t.Errorf("case %d, in %q,\nwant %s,\ngot %s", i, test.in, test.want, got)
		}
	}
}

func TestCodeData(t *testing.T) {
	f := parse(t, syntax.Options{}, "`` `x` `` and `a\nb`")
	ids := find(f.Tree, syntax.NameCode)
	require.Len(t, ids, 2)
	assert.Equal(t, "`x`", f.Tree.Data(ids[0]))
	assert.Equal(t, "a b", f.Tree.Data(ids[1]))
}

func TestHeadings(t *testing.T) {
	f := parse(t, syntax.Options{}, "# Intro\n## Getting Started!\n# Intro\n#\n")
	var anchors []string
	for _, id := range find(f.Tree, syntax.NameHeading) {
		h, ok := f.Tree.Data(id).(*syntax.Header)
		require.True(t, ok)
		anchors = append(anchors, h.Anchor)
	}
	assert.Equal(t, []string{"intro", "getting-started", "intro-1", "section"}, anchors)

	want := []parser.TOCEntry{
		{Level: 1, Text: "Intro", Anchor: "intro"},
		{Level: 2, Text: "Getting Started!", Anchor: "getting-started"},
		{Level: 1, Text: "Intro", Anchor: "intro-1"},
		{Level: 1, Text: "", Anchor: "section"},
	}
	if !assert.Equal(t, want, f.Context.TOC) {
		t.Logf("toc %s", litCfg.Sdump(f.Context.TOC))
	}
}

func TestDirective(t *testing.T) {
	src := "```sh -c 'echo hi'\nbody\n  indented\n```\nafter\n"
	f := parse(t, syntax.Options{}, src)
	ids := find(f.Tree, syntax.NameDirective)
	require.Len(t, ids, 1)
	d, ok := f.Tree.Data(ids[0]).(*syntax.Directive)
	require.True(t, ok)
	assert.Equal(t, &syntax.Directive{
		Command: "sh -c 'echo hi'",
		Args:    []string{"sh", "-c", "echo hi"},
		Body:    "body\n  indented\n",
	}, d)
	assert.Len(t, find(f.Tree, syntax.NameParagraph), 1)
}

func TestDirectiveWarnings(t *testing.T) {
	var logs bytes.Buffer
	e := syntax.Default(syntax.Options{})
	e.SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))

	f, err := e.ParseString(context.Background(), "```\nx\n")
	require.NoError(t, err)
	ids := find(f.Tree, syntax.NameDirective)
	require.Len(t, ids, 1)
	assert.Equal(t, "x\n", f.Tree.Data(ids[0]).(*syntax.Directive).Body)
	assert.Contains(t, logs.String(), "directive is not terminated")

	logs.Reset()
	_, err = e.ParseString(context.Background(), "```\nx\n``` trailing\n")
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "text after the closing fence of a directive")
}

func TestListItems(t *testing.T) {
	f := parse(t, syntax.Options{}, "- a\n\t- [note] b\n\t\t-[x] c\n")
	var items []syntax.ListItem
	for _, id := range find(f.Tree, syntax.NameListItem) {
		items = append(items, *f.Tree.Data(id).(*syntax.ListItem))
	}
	assert.Equal(t, []syntax.ListItem{
		{Depth: 0},
		{Depth: 1},
		{Depth: 2, Label: "x"},
	}, items)
}

func TestReferences(t *testing.T) {
	f := parse(t, syntax.Options{}, "[foo]: /url \"t\"\n\n[foo][]\n")
	want := strings.Join([]string{
		"document",
		`  definition "[foo]: /url \"t\"\n"`,
		"  paragraph",
		`    link "/url" title="t" label="FOO"`,
		`      text "foo"`,
		"",
	}, "\n")
	assert.Equal(t, want, ast.Sprint(f.Tree, f.Root()))
	assert.Equal(t, 1, f.Context.Refs.Len())
}

func TestDuplicateReference(t *testing.T) {
	var logs bytes.Buffer
	e := syntax.Default(syntax.Options{})
	e.SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))
	f, err := e.ParseString(context.Background(), "[a]: /1\n[A]: /2\n[a]\n")
	require.NoError(t, err)
	links := []ast.ID{}
	f.Tree.Walk(f.Root(), func(id ast.ID) bool {
		if f.Tree.Type(id) == ast.TypeLink {
			links = append(links, id)
		}
		return true
	})
	require.Len(t, links, 1)
	ld, ok := f.Tree.Link(links[0])
	require.True(t, ok)
	assert.Equal(t, "/1", ld.Destination)
	assert.Contains(t, logs.String(), "duplicate link reference definition")
}

func TestFrontMatter(t *testing.T) {
	opts := syntax.Options{Parser: parser.Options{FrontMatter: true}}
	f := parse(t, opts, "---\ntitle: Hi\ntags: [a, b]\n---\nbody\n")
	assert.Equal(t, map[string]any{"title": "Hi", "tags": []any{"a", "b"}}, f.Meta)
	assert.Equal(t, "document\n  paragraph\n    text \"body\"\n", ast.Sprint(f.Tree, f.Root()))

	f = parse(t, opts, "---\ntitle: x\n")
	assert.Nil(t, f.Meta)

	f = parse(t, syntax.Options{}, "---\ntitle: Hi\n---\n")
	assert.Nil(t, f.Meta)

	_, err := syntax.Default(opts).ParseString(context.Background(), "---\ntitle: [unclosed\n---\n")
	assert.ErrorContains(t, err, "front matter: yaml:")
}

func TestOptions(t *testing.T) {
	var opts syntax.Options
	opts.Parser.DisableBlock = true
	f := parse(t, opts, "# *a*")
	assert.Equal(t, "document\n  text \"# \"\n  emph\n    text \"a\"\n", ast.Sprint(f.Tree, f.Root()))

	opts = syntax.Options{}
	opts.Delim.DisableTilde = true
	f = parse(t, opts, "~~a~~")
	assert.Equal(t, "document\n  paragraph\n    text \"~~a~~\"\n", ast.Sprint(f.Tree, f.Root()))
}

func TestConcurrentParses(t *testing.T) {
	e := syntax.Default(syntax.Options{})
	src := "# Title\n\n*a* [b](/c) `d`\n"
	first := parse(t, syntax.Options{}, src)
	want := ast.Sprint(first.Tree, first.Root())
	done := make(chan string)
	for i := 0; i < 8; i++ {
		go func() {
			f, err := e.ParseString(context.Background(), src)
			if err != nil {
				done <- err.Error()
				return
			}
			done <- ast.Sprint(f.Tree, f.Root())
		}()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, want, <-done)
	}
}

func TestOrderCleared(t *testing.T) {
	f := parse(t, syntax.Options{}, "x *a* b [c](/d) e")
	f.Tree.Walk(f.Root(), func(id ast.ID) bool {
		assert.Zero(t, f.Tree.Order(id), "node %s", ast.Sprint(f.Tree, id))
		return true
	})
}

func TestLargeParagraph(t *testing.T) {
	const n = 2000
	inputs := []string{
		strings.Repeat("[", n) + strings.Repeat("]", n) + "\n",
		strings.Repeat("*a [b](/c) ", n) + strings.Repeat("d* ", n) + "\n",
		strings.Repeat("[a](", n) + "\n",
	}
	for i, in := range inputs {
		start := time.Now()
		f := parse(t, syntax.Options{}, in)
		elapsed := time.Since(start)
		assert.Less(t, elapsed, 5*time.Second, "case %d", i)
		assert.Equal(t, 1, f.Tree.ChildCount(f.Root()), "case %d", i)
	}
}
