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

package html

import (
	"context"
	"testing"

	"akhil.cc/quill/ast"
	"akhil.cc/quill/parser"
	"akhil.cc/quill/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type smallcase struct {
	in   string
	want string
}

func render(t *testing.T, opts syntax.Options, in string) (*parser.File, string) {
	t.Helper()
	f, err := syntax.Default(opts).ParseString(context.Background(), in)
	require.NoError(t, err)
	b, err := Gen(f).Output()
	require.NoError(t, err)
	return f, string(b)
}

var escapeSmall = []smallcase{
	{"`n >= 3`", "<p><code>n &gt;= 3</code></p>"},
	{"*`n >= 3`*", "<p><em><code>n &gt;= 3</code></em></p>"},
	{"**`n >= 3`**", "<p><strong><code>n &gt;= 3</code></strong></p>"},
	{"**`n`**", "<p><strong><code>n</code></strong></p>"},
	{"A **`n >= 3`** B", "<p>A <strong><code>n &gt;= 3</code></strong> B</p>"},
	{`"quoted" & <tagged>`, "<p>&#34;quoted&#34; &amp; &lt;tagged&gt;</p>"},
	{`\*not\*`, "<p>*not*</p>"},
}

func TestEscape(t *testing.T) {
	for i, test := range escapeSmall {
		_, got := render(t, syntax.Options{}, test.in)
		if test.want != got {
			t.Errorf("case %d, in %q,\nwant %s, \ngot %s", i, test.in, test.want, got)
		}
	}
}

var nodeSmall = []smallcase{
	{"# Title\n\nSome *text* and [a link](/x \"T\").\n", `<h1 id="title">Title</h1><p>Some <em>text</em> and <a href="/x" title="T">a link</a>.</p>`},
	{"###### Six\n", `<h6 id="six">Six</h6>`},
	{"> quoted\n", "<blockquote><p>quoted</p></blockquote>"},
	{"- a\n\t- b\n-[x] c\n", `<ul><li class="bullet">a</li><ul><li class="bullet">b</li></ul><li><span>x</span>c</li></ul>`},
	{"```\na < b\n```\n", "<pre>a &lt; b\n</pre>"},
	{"[r]: /u\n\n[r]\n", `<p><a href="/u">r</a></p>`},
	{"![alt *x*](/i.png)", `<p><img src="/i.png" alt="alt x" /></p>`},
	{"~~gone~~", "<p><s>gone</s></p>"},
	{"a  \nb", "<p>a<br />\nb</p>"},
	{"a\nb", "<p>a\nb</p>"},
}

func TestNodes(t *testing.T) {
	for i, test := range nodeSmall {
		_, got := render(t, syntax.Options{}, test.in)
		if test.want != got {
			t.Errorf("case %d, in %q,\nwant %s, \ngot %s", i, test.in, test.want, got)
		}
	}
}

func TestOptions(t *testing.T) {
	var opts syntax.Options
	opts.Parser.LineBreak = ast.LineBreakSoft
	_, got := render(t, opts, "a\nb")
	assert.Equal(t, "<p>a<br />\nb</p>", got)

	opts = syntax.Options{}
	opts.Parser.DisableBlock = true
	_, got = render(t, opts, "*a*")
	assert.Equal(t, "<p><em>a</em></p>", got)

	opts.Parser.SkipParagraphWrapping = true
	_, got = render(t, opts, "*a*")
	assert.Equal(t, "<em>a</em>", got)
}

func TestWordsAndOutput(t *testing.T) {
	f, _ := render(t, syntax.Options{}, "# One two\n\nthree `four five`\n")
	assert.Equal(t, 5, f.Context.Words)

	var code ast.ID
	f.Tree.Walk(f.Root(), func(id ast.ID) bool {
		if f.Tree.Name(id) == syntax.NameCode {
			code = id
		}
		return true
	})
	require.NotEqual(t, ast.Nil, code)
	assert.Equal(t, "<code>four five</code>", f.Tree.Output(code))
}

func TestDirectiveCommand(t *testing.T) {
	f, got := render(t, syntax.Options{}, "```cat\nbody & soul\n```\n")
	assert.Equal(t, "body & soul\n", got)
	assert.Equal(t, "body & soul\n", f.Tree.Output(f.Tree.FirstChild(f.Root())))

	f, err := syntax.Default(syntax.Options{}).ParseString(context.Background(), "```quill-no-such-command\n```\n")
	require.NoError(t, err)
	_, err = Gen(f).Output()
	assert.ErrorContains(t, err, `directive "quill-no-such-command"`)
}

func TestCancel(t *testing.T) {
	f, err := syntax.Default(syntax.Options{}).ParseString(context.Background(), "text")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = GenContext(ctx, f).Output()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLifecycle(t *testing.T) {
	f, err := syntax.Default(syntax.Options{}).ParseString(context.Background(), "text")
	require.NoError(t, err)
	g := Gen(f)
	assert.EqualError(t, g.Wait(), "not started")
	require.NoError(t, g.Run())
	assert.EqualError(t, g.Start(), "already started")

	g = Gen(f)
	_, err = g.StdoutPipe()
	require.NoError(t, err)
	_, err = g.StdoutPipe()
	assert.EqualError(t, err, "Stdout already set")
}
