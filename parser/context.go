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

package parser

import (
	"io"
	"log/slog"
	"strconv"

	"akhil.cc/quill/refmap"
)

// Context is the state shared by every matcher and plugin call of a single
// parse. Nothing in it is safe for concurrent use; a parse runs on one
// goroutine.
type Context struct {
	// Refs holds the link reference definitions seen so far.
	Refs *refmap.Map
	// Anchors hands out unique anchor slugs.
	Anchors *Anchors
	// TOC accumulates headings in document order.
	TOC []TOCEntry
	// Words counts rendered words.
	Words int
	// Meta holds the parsed front matter, if any.
	Meta map[string]any
	// Log receives warnings about malformed input.
	Log *slog.Logger

	store map[string]any
}

// TOCEntry is one table-of-contents line.
type TOCEntry struct {
	Level  int
	Text   string
	Anchor string
}

// NewContext returns an empty Context logging to log. A nil log discards.
func NewContext(log *slog.Logger) *Context {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Context{
		Refs:    refmap.New(),
		Anchors: NewAnchors(),
		Log:     log,
		store:   make(map[string]any),
	}
}

// Get returns the value stored under key by some plugin.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.store[key]
	return v, ok
}

// Set stores v under key for other plugins to see.
func (c *Context) Set(key string, v any) {
	c.store[key] = v
}

// Anchors is a registry of anchor slugs.
type Anchors struct {
	used map[string]int
}

// NewAnchors returns an empty registry.
func NewAnchors() *Anchors {
	return &Anchors{used: make(map[string]int)}
}

// Register returns slug, or slug with a numeric suffix when slug was
// already handed out.
func (a *Anchors) Register(slug string) string {
	n, ok := a.used[slug]
	a.used[slug] = n + 1
	if !ok {
		return slug
	}
	for {
		cand := slug + "-" + strconv.Itoa(n)
		if _, taken := a.used[cand]; !taken {
			a.used[cand] = 1
			return cand
		}
		n++
	}
}
