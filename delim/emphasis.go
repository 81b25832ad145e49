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

import "akhil.cc/quill/ast"

type bottomKey struct {
	char    byte
	canOpen bool
	mod     int
}

// resolveEmphasis pairs the emphasis runs strictly between the stack indices
// lo and hi, then drops every delimiter in that range.
func (s *scope) resolveEmphasis(lo, hi int) {
	bottoms := make(map[bottomKey]int)
	for ci := s.liveAt(lo + 1); ci < hi; ci = s.liveAt(ci + 1) {
		cl := s.ds[ci]
		if cl.kind != emphasis || !cl.canClose {
			continue
		}
		if s.cancelled() {
			return
		}
		for !cl.removed && cl.length > 0 {
			key := bottomKey{cl.char, cl.canOpen, cl.orig % 3}
			bottom := lo
			if b, ok := bottoms[key]; ok && b > bottom {
				bottom = b
			}
			oi := s.emphasisOpener(ci, bottom)
			if oi < 0 {
				bottoms[key] = ci - 1
				if !cl.canOpen {
					s.drop(cl)
				}
				break
			}
			o := s.ds[oi]
			s.wrap(o, cl)
			s.dropRange(oi+1, ci)
			if o.length == 0 {
				s.t.Remove(o.node)
				s.drop(o)
			}
			if cl.length == 0 {
				s.t.Remove(cl.node)
				s.drop(cl)
			}
		}
	}
	s.dropRange(lo+1, hi)
}

// dropRange drops the live delimiters with indices in [from, to).
func (s *scope) dropRange(from, to int) {
	for k := s.liveAt(from); k < to; k = s.liveAt(k + 1) {
		s.drop(s.ds[k])
	}
}

// emphasisOpener finds the nearest opener above bottom that pairs with the
// closer at ci.
func (s *scope) emphasisOpener(ci, bottom int) int {
	cl := s.ds[ci]
	for k := s.liveBefore(ci - 1); k > bottom; k = s.liveBefore(k - 1) {
		o := s.ds[k]
		if o.kind != emphasis || o.char != cl.char || !o.canOpen || o.length == 0 {
			continue
		}
		if cl.char == '~' {
			if o.length != cl.length {
				continue
			}
		} else if (cl.canOpen || o.canClose) && cl.orig%3 != 0 && (o.orig+cl.orig)%3 == 0 {
			// A run that can both open and close only pairs when the sum of
			// the original lengths is not a multiple of three.
			continue
		}
		return k
	}
	return -1
}

// wrap moves the nodes between o and cl into a new emphasis node and takes
// the markers it uses off both runs.
func (s *scope) wrap(o, cl *delimiter) {
	t := s.t
	typ, use := ast.TypeEmph, 1
	switch {
	case cl.char == '~':
		typ, use = ast.TypeDel, cl.length
	case o.length >= 2 && cl.length >= 2:
		typ, use = ast.TypeStrong, 2
	}
	parent := t.Parent(o.node)
	inner := t.Slice(parent, t.Index(o.node)+1, t.Index(cl.node))

	oraw, craw := t.Text(o.node), t.Text(cl.node)
	open, closing := oraw[len(oraw)-use:], craw[:use]
	t.SetRaw(o.node, oraw[:len(oraw)-use])
	t.SetRaw(cl.node, craw[use:])
	o.length -= use
	cl.length -= use
	o.end -= use
	cl.start += use

	id := t.NewNode(typ, ast.Inline, "")
	t.After(o.node, id)
	t.Append(id, inner...)
	s.setRaw(id, open, closing)
}
