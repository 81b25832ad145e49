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
	"akhil.cc/quill/parser"
)

func isPunct(c byte) bool {
	return '!' <= c && c <= '/' || ':' <= c && c <= '@' || '[' <= c && c <= '`' || '{' <= c && c <= '~'
}

// EscapeMatcher matches a backslash before ASCII punctuation. The node's
// data is the escaped character.
func EscapeMatcher() *parser.Matcher {
	return &parser.Matcher{
		Name:     NameEscape,
		Kind:     ast.Inline,
		Priority: 10,
		Start:    parser.Literal(`\`),
		Parse: func(_ context.Context, _ *parser.Context, src string, at int) (*parser.Match, error) {
			if at+1 >= len(src) || !isPunct(src[at+1]) {
				return nil, nil
			}
			return &parser.Match{Raw: src[at : at+2], Data: src[at+1 : at+2]}, nil
		},
	}
}

// HardBreakMatcher matches two or more spaces, or a backslash, before a
// newline.
func HardBreakMatcher() *parser.Matcher {
	return &parser.Matcher{
		Name:     NameHardBreak,
		Kind:     ast.Inline,
		Priority: 20,
		Start:    parser.Regexp(`(?: {2,}|\\)\n`),
		Parse: func(_ context.Context, _ *parser.Context, src string, at int) (*parser.Match, error) {
			if strings.HasPrefix(src[at:], "\\\n") {
				return &parser.Match{Raw: src[at : at+2]}, nil
			}
			i := at
			for i < len(src) && src[i] == ' ' {
				i++
			}
			if i-at < 2 || i >= len(src) || src[i] != '\n' {
				return nil, nil
			}
			return &parser.Match{Raw: src[at : i+1]}, nil
		},
	}
}

// CodeMatcher matches code spans: a run of backticks up to the next run of
// the same length. The node's data is the code, with newlines turned into
// spaces and one surrounding space stripped.
func CodeMatcher() *parser.Matcher {
	return &parser.Matcher{
		Name:     NameCode,
		Kind:     ast.Inline,
		Priority: 30,
		Start:    parser.ProbeFunc(findCode),
	}
}

func backticks(s string, i int) int {
	j := i
	for j < len(s) && s[j] == '`' {
		j++
	}
	return j - i
}

// findCode returns the first code span at or after from. A run with no
// closing run is skipped as a whole.
func findCode(_ context.Context, _ *parser.Context, src string, from int) (int, *parser.Match, error) {
	for i := from; i < len(src); {
		k := strings.IndexByte(src[i:], '`')
		if k < 0 {
			break
		}
		start := i + k
		n := backticks(src, start)
		for j := start + n; j < len(src); {
			k := strings.IndexByte(src[j:], '`')
			if k < 0 {
				break
			}
			end := j + k
			m := backticks(src, end)
			if m == n {
				code := strings.ReplaceAll(src[start+n:end], "\n", " ")
				if len(code) > 2 && code[0] == ' ' && code[len(code)-1] == ' ' && strings.Trim(code, " ") != "" {
					code = code[1 : len(code)-1]
				}
				return start, &parser.Match{Raw: src[start : end+m], Data: code}, nil
			}
			j = end + m
		}
		i = start + n
	}
	return -1, nil, nil
}
