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

package refmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"foo", "FOO"},
		{"  Foo \t Bar\n", "FOO BAR"},
		{"foo   bar", "FOO BAR"},
		{"ẞ", "SS"},
		{"ΑΓΩ", "ΑΓΩ"},
		{" \n ", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Normalize(c.in), "in %q", c.in)
	}
}

func TestFirstWriteWins(t *testing.T) {
	m := New()
	require.True(t, m.Set("Foo Bar", Entry{Destination: "/first", Title: "one"}))
	assert.False(t, m.Set("foo   bar", Entry{Destination: "/second"}))
	assert.False(t, m.Set("   ", Entry{Destination: "/empty"}))

	e, ok := m.Get("FOO BAR")
	require.True(t, ok)
	assert.Equal(t, Entry{Label: "FOO BAR", Destination: "/first", Title: "one"}, e)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, []string{"FOO BAR"}, m.Labels())

	_, ok = m.Get("foo")
	assert.False(t, ok)
}

func TestGetReturnsCopy(t *testing.T) {
	m := New()
	m.Set("x", Entry{Destination: "/x"})
	e, _ := m.Get("x")
	e.Destination = "/changed"
	again, _ := m.Get("X")
	assert.Equal(t, "/x", again.Destination)
}
