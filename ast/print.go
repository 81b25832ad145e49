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

package ast

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes an indented dump of the subtree rooted at id to w, one node
// per line.
func Fprint(w io.Writer, t *Tree, id ID) error {
	type item struct {
		id    ID
		depth int
	}
	stack := []item{{id, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, err := io.WriteString(w, strings.Repeat("  ", it.depth)+describe(t, it.id)+"\n"); err != nil {
			return err
		}
		for i := t.ChildCount(it.id) - 1; i >= 0; i-- {
			stack = append(stack, item{t.Child(it.id, i), it.depth + 1})
		}
	}
	return nil
}

// Sprint is like Fprint but returns the dump as a string.
func Sprint(t *Tree, id ID) string {
	var b strings.Builder
	Fprint(&b, t, id)
	return b.String()
}

func describe(t *Tree, id ID) string {
	switch typ := t.Type(id); typ {
	case TypeText:
		return fmt.Sprintf("text %q", t.Text(id))
	case TypeParsed:
		if t.ChildCount(id) > 0 {
			return t.Name(id)
		}
		return fmt.Sprintf("%s %q", t.Name(id), t.Text(id))
	case TypeLink, TypeImage:
		ld, _ := t.Link(id)
		s := fmt.Sprintf("%s %q", typ, ld.Destination)
		if ld.Title != "" {
			s += fmt.Sprintf(" title=%q", ld.Title)
		}
		if ld.Label != "" {
			s += fmt.Sprintf(" label=%q", ld.Label)
		}
		return s
	default:
		return typ.String()
	}
}
