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

package delim

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"akhil.cc/quill/ast"
)

func isPunct(c byte) bool {
	return '!' <= c && c <= '/' || ':' <= c && c <= '@' || '[' <= c && c <= '`' || '{' <= c && c <= '~'
}

func isUnicodeSpace(r rune) bool {
	if r < 0x80 {
		return r == ' ' || r == '\t' || r == '\n' || r == '\f' || r == '\r'
	}
	return unicode.In(r, unicode.Zs)
}

func isUnicodePunct(r rune) bool {
	if r < 0x80 {
		return isPunct(byte(r))
	}
	return unicode.In(r, unicode.Punct, unicode.S)
}

// neighbour returns the rune bordering id on one side. A missing neighbour,
// a block node and a node without raw text read as whitespace; an escape
// reads as a letter.
func (s *scope) neighbour(id ast.ID, before bool) rune {
	t := s.t
	step := t.Next
	if before {
		step = t.Prev
	}
	for n := step(id); n != ast.Nil; n = step(n) {
		if !t.IsText(n) {
			if t.Kind(n) == ast.Block {
				return ' '
			}
			if t.Name(n) == EscapeName {
				return 'a'
			}
		}
		raw, ok := t.Raw(n)
		if !ok {
			return ' '
		}
		if raw == "" {
			if t.IsText(n) {
				continue
			}
			return ' '
		}
		if before {
			r, _ := utf8.DecodeLastRuneInString(raw)
			return r
		}
		r, _ := utf8.DecodeRuneInString(raw)
		return r
	}
	return ' '
}

// classify decides which emphasis runs may open and close.
func (s *scope) classify() {
	for _, d := range s.ds {
		if d.kind != emphasis {
			continue
		}
		before, after := s.neighbour(d.node, true), s.neighbour(d.node, false)
		left := !isUnicodeSpace(after) &&
			(!isUnicodePunct(after) || isUnicodeSpace(before) || isUnicodePunct(before))
		right := !isUnicodeSpace(before) &&
			(!isUnicodePunct(before) || isUnicodeSpace(after) || isUnicodePunct(after))
		if d.char == '_' {
			d.canOpen = left && (!right || isUnicodePunct(before))
			d.canClose = right && (!left || isUnicodePunct(after))
		} else {
			d.canOpen, d.canClose = left, right
		}
	}
}

var unescaper = func() *strings.Replacer {
	var list []string
	for c := byte('!'); c <= '~'; c++ {
		if isPunct(c) {
			list = append(list, `\`+string(c), string(c))
		}
	}
	return strings.NewReplacer(list...)
}()
