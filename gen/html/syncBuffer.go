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
	"bytes"
	"io"
	"sync"
)

// syncBuffer is a buffer that may be written by several goroutines.
type syncBuffer struct {
	m sync.RWMutex
	b bytes.Buffer
}

func (s *syncBuffer) WriteTo(w io.Writer) (n int64, err error) {
	s.m.Lock()
	defer s.m.Unlock()
	return s.b.WriteTo(w)
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.m.Lock()
	defer s.m.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.m.RLock()
	defer s.m.RUnlock()
	return s.b.String()
}

func (s *syncBuffer) Bytes() []byte {
	s.m.RLock()
	defer s.m.RUnlock()
	return append([]byte(nil), s.b.Bytes()...)
}
