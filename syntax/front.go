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
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontDelim = "---"

// YAML recognizes a YAML header fenced by --- lines at the very start of
// the source.
type YAML struct{}

// Extract returns the header including both fences, and its decoded
// content. A header that is opened but never closed is not a header.
func (YAML) Extract(src string) (string, map[string]any, error) {
	if !strings.HasPrefix(src, frontDelim+"\n") {
		return "", nil, nil
	}
	for i := len(frontDelim) + 1; i < len(src); {
		line, next := lineAt(src, i)
		if strings.TrimRight(line, " \t") == frontDelim {
			meta := make(map[string]any)
			if err := yaml.Unmarshal([]byte(src[len(frontDelim)+1:i]), &meta); err != nil {
				return "", nil, fmt.Errorf("yaml: %w", err)
			}
			return src[:next], meta, nil
		}
		i = next
	}
	return "", nil, nil
}
