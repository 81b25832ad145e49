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

package delim_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"akhil.cc/quill/ast"
	"akhil.cc/quill/delim"
	"akhil.cc/quill/parser"
	"akhil.cc/quill/refmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type smallcase struct {
	in   string
	want string
}

// resolve places in as the only text of a fresh document and resolves its
// delimiters.
func resolve(t *testing.T, opts delim.Options, refs map[string]refmap.Entry, in string) (*ast.Tree, string) {
	t.Helper()
	tree := resolveTree(t, opts, refs, in)
	return tree, ast.Sprint(tree, tree.Root())
}

func resolveTree(t *testing.T, opts delim.Options, refs map[string]refmap.Entry, in string) *ast.Tree {
	t.Helper()
	tree := ast.New()
	require.True(t, tree.Append(tree.Root(), tree.NewText(ast.Inline, in)))
	c := parser.NewContext(nil)
	for label, e := range refs {
		c.Refs.Set(label, e)
	}
	require.NoError(t, delim.New(opts).Parse(context.Background(), c, tree, tree.Root()))
	tree.Normalize(tree.Root(), ast.NormalizeOptions{})
	return tree
}

var emphasisSmall = []smallcase{
	{"*a*", "document\n  emph\n    text \"a\"\n"},
	{"_a_", "document\n  emph\n    text \"a\"\n"},
	{"**a**", "document\n  strong\n    text \"a\"\n"},
	{"__a__", "document\n  strong\n    text \"a\"\n"},
	{"***a***", "document\n  emph\n    strong\n      text \"a\"\n"},
	{"*a*b*c*", "document\n  emph\n    text \"a\"\n  text \"b\"\n  emph\n    text \"c\"\n"},
	{"*foo**bar*", "document\n  emph\n    text \"foo**bar\"\n"},
	{"snake_case_name", "document\n  text \"snake_case_name\"\n"},
	{"a * b *", "document\n  text \"a * b *\"\n"},
	{"*unclosed", "document\n  text \"*unclosed\"\n"},
	{`\*a*`, "document\n  text \"\\\\*a*\"\n"},
	{"~~a~~", "document\n  del\n    text \"a\"\n"},
	{"~a~", "document\n  del\n    text \"a\"\n"},
	{"~a~~", "document\n  text \"~a~~\"\n"},
	{"~~~a~~~", "document\n  text \"~~~a~~~\"\n"},
}

func TestEmphasis(t *testing.T) {
	for i, test := range emphasisSmall {
		_, got := resolve(t, delim.Options{}, nil, test.in)
		if test.want != got {
			t.Errorf("case %d, in %q,\nwant %s,\ngot %s", i, test.in, test.want, got)
		}
	}
}

var linkSmall = []smallcase{
	{"[a](/u)", "document\n  link \"/u\"\n    text \"a\"\n"},
	{`[a](/u "t")`, "document\n  link \"/u\" title=\"t\"\n    text \"a\"\n"},
	{"[a](<x y>)", "document\n  link \"x y\"\n    text \"a\"\n"},
	{"[a]()", "document\n  link \"\"\n    text \"a\"\n"},
	{"[*a*](/u)", "document\n  link \"/u\"\n    emph\n      text \"a\"\n"},
	{"**a[b**](/u)", "document\n  text \"**a\"\n  link \"/u\"\n    text \"b**\"\n"},
	{"[a [b](/b)](/a)", "document\n  text \"[a \"\n  link \"/b\"\n    text \"b\"\n  text \"](/a)\"\n"},
	{`![alt *x*](/i.png "T")`, "document\n  image \"/i.png\" title=\"T\"\n    text \"alt \"\n    emph\n      text \"x\"\n"},
	{"[a](/u", "document\n  text \"[a](/u\"\n"},
	{"[a] (/u)", "document\n  text \"[a] (/u)\"\n"},
	{"a]b", "document\n  text \"a]b\"\n"},
}

func TestLinks(t *testing.T) {
	for i, test := range linkSmall {
		_, got := resolve(t, delim.Options{}, nil, test.in)
		if test.want != got {
			t.Errorf("case %d, in %q,\nwant %s,\ngot %s", i, test.in, test.want, got)
		}
	}
}

var referenceSmall = []smallcase{
	{"[foo][]", "document\n  link \"/url\" title=\"t\" label=\"FOO\"\n    text \"foo\"\n"},
	{"[Foo]", "document\n  link \"/url\" title=\"t\" label=\"FOO\"\n    text \"Foo\"\n"},
	{"[text][ FOO ]", "document\n  link \"/url\" title=\"t\" label=\"FOO\"\n    text \"text\"\n"},
	{"[bar]", "document\n  text \"[bar]\"\n"},
	{"[text][bar]", "document\n  text \"[text][bar]\"\n"},
	{"![foo]", "document\n  image \"/url\" title=\"t\" label=\"FOO\"\n    text \"foo\"\n"},
}

func TestReferences(t *testing.T) {
	refs := map[string]refmap.Entry{"foo": {Destination: "/url", Title: "t"}}
	for i, test := range referenceSmall {
		_, got := resolve(t, delim.Options{}, refs, test.in)
		if test.want != got {
			t.Errorf("case %d, in %q,\nwant %s,\ngot %s", i, test.in, test.want, got)
		}
	}
}

func TestRawText(t *testing.T) {
	tree, _ := resolve(t, delim.Options{}, nil, "**a** and [b *c*](/u)")
	var raws []string
	tree.Walk(tree.Root(), func(id ast.ID) bool {
		switch tree.Type(id) {
		case ast.TypeStrong, ast.TypeEmph, ast.TypeLink:
			raw, ok := tree.Raw(id)
			require.True(t, ok)
			raws = append(raws, raw)
		}
		return true
	})
	assert.Equal(t, []string{"**a**", "[b *c*](/u)", "*c*"}, raws)
}

func TestRawReparse(t *testing.T) {
	// Resolving the raw text of any produced node again yields the same
	// subtree.
	refs := map[string]refmap.Entry{"foo": {Destination: "/url", Title: "t"}}
	inputs := []string{
		"**a** and [b *c*](/u)",
		"*foo**bar*",
		`![alt *x*](/i.png "T")`,
		"~~a~~ *b [c](/d)*",
		"[foo][] and [*foo*]",
		"***a* b** _c_",
	}
	for _, in := range inputs {
		tree, _ := resolve(t, delim.Options{}, refs, in)
		tree.Walk(tree.Root(), func(id ast.ID) bool {
			switch tree.Type(id) {
			case ast.TypeEmph, ast.TypeStrong, ast.TypeDel, ast.TypeLink, ast.TypeImage:
			default:
				return true
			}
			raw, ok := tree.Raw(id)
			require.True(t, ok, "in %q", in)
			again, _ := resolve(t, delim.Options{}, refs, raw)
			require.Equal(t, 1, again.ChildCount(again.Root()), "in %q, raw %q", in, raw)
			assert.Equal(t, ast.Sprint(tree, id), ast.Sprint(again, again.FirstChild(again.Root())), "in %q, raw %q", in, raw)
			return true
		})
	}
}

func TestLargeInput(t *testing.T) {
	const n = 4000
	tests := []struct {
		name  string
		in    string
		check func(t *testing.T, tree *ast.Tree)
	}{
		{"nested brackets", strings.Repeat("[", n) + strings.Repeat("]", n), func(t *testing.T, tree *ast.Tree) {
			assert.Equal(t, 1, tree.ChildCount(tree.Root()))
		}},
		{"nested emphasis", strings.Repeat("*a ", n) + strings.Repeat("a* ", n), func(t *testing.T, tree *ast.Tree) {
			emph := 0
			tree.Walk(tree.Root(), func(id ast.ID) bool {
				if tree.Is(id, ast.TypeEmph) {
					emph++
				}
				return true
			})
			assert.Equal(t, n, emph)
		}},
		{"open destinations", strings.Repeat("[a](", n), func(t *testing.T, tree *ast.Tree) {
			assert.Equal(t, 1, tree.ChildCount(tree.Root()))
		}},
		{"shortcut runs", strings.Repeat("[x]", n) + strings.Repeat("*", n), func(t *testing.T, tree *ast.Tree) {
			assert.Equal(t, 1, tree.ChildCount(tree.Root()))
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			start := time.Now()
			tree := resolveTree(t, delim.Options{}, nil, test.in)
			elapsed := time.Since(start)
			assert.Less(t, elapsed, 5*time.Second, "resolution should stay near linear")
			test.check(t, tree)
		})
	}
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tree := ast.New()
	require.True(t, tree.Append(tree.Root(), tree.NewText(ast.Inline, "*a* [b](/c)")))
	err := delim.New(delim.Options{}).Parse(ctx, parser.NewContext(nil), tree, tree.Root())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDisabled(t *testing.T) {
	opts := delim.Options{DisableAsterisk: true, DisableTilde: true}
	_, got := resolve(t, opts, nil, "*a* ~~b~~ _c_")
	want := "document\n  text \"*a* ~~b~~ \"\n  emph\n    text \"c\"\n"
	assert.Equal(t, want, got)
}

func TestBlockBoundary(t *testing.T) {
	tree := ast.New()
	root := tree.Root()
	require.True(t, tree.Append(root,
		tree.NewText(ast.Inline, "*a"),
		tree.NewParsed(ast.Block, "rule", "---", nil),
		tree.NewText(ast.Inline, "b*"),
	))
	require.NoError(t, delim.New(delim.Options{}).Parse(context.Background(), parser.NewContext(nil), tree, root))
	tree.Normalize(root, ast.NormalizeOptions{})
	want := "document\n  text \"*a\"\n  rule \"---\"\n  text \"b*\"\n"
	assert.Equal(t, want, ast.Sprint(tree, root))
}

func TestEscapeNeighbour(t *testing.T) {
	// The run before the escape is flanked by letters on both sides.
	tree := ast.New()
	root := tree.Root()
	require.True(t, tree.Append(root,
		tree.NewText(ast.Inline, "a*"),
		tree.NewParsed(ast.Inline, delim.EscapeName, `\*`, "*"),
		tree.NewText(ast.Inline, "b*"),
	))
	require.NoError(t, delim.New(delim.Options{}).Parse(context.Background(), parser.NewContext(nil), tree, root))
	tree.Normalize(root, ast.NormalizeOptions{})
	want := "document\n  text \"a\"\n  emph\n    escape \"\\\\*\"\n    text \"b\"\n"
	assert.Equal(t, want, ast.Sprint(tree, root))
}

func TestDeterministic(t *testing.T) {
	in := "***a* b** [c _d_](/e) ~~f~~ *g"
	_, first := resolve(t, delim.Options{}, nil, in)
	for i := 0; i < 10; i++ {
		_, got := resolve(t, delim.Options{}, nil, in)
		require.Equal(t, first, got)
	}
}

func TestParseLinkParts(t *testing.T) {
	dest, n, ok := delim.ParseLinkDest(`/a\(b(c) rest`, 0)
	require.True(t, ok)
	assert.Equal(t, "/a(b(c)", dest)
	assert.Equal(t, 8, n)

	_, _, ok = delim.ParseLinkDest("/a(b", 0)
	assert.False(t, ok)

	title, n, ok := delim.ParseLinkTitle(`'it\'s' x`, 0)
	require.True(t, ok)
	assert.Equal(t, "it's", title)
	assert.Equal(t, 7, n)

	label, n, ok := delim.ParseLinkLabel("[ Foo  Bar ]:", 0)
	require.True(t, ok)
	assert.Equal(t, "Foo  Bar", label)
	assert.Equal(t, 12, n)

	_, _, ok = delim.ParseLinkLabel("[  ]", 0)
	assert.False(t, ok)
	_, _, ok = delim.ParseLinkLabel("[a[b]", 0)
	assert.False(t, ok)
}
