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

// Package pqmarkup converts pqmarkup-lite source text to an HTML
// fragment in a single streaming pass. See convert.Convert for the
// underlying engine; this package is a thin, stable entry point over it.
package pqmarkup

import "github.com/pqmarkup/pqmarkup/convert"

// Convert turns src into an HTML fragment. decorate selects whether bare
// square/curly brackets are wrapped in stylable spans (true, the normal
// rendering mode) or emitted literally (false).
func Convert(src string, decorate bool) (string, error) {
	return convert.Convert(src, decorate)
}

// MustConvert is like Convert but panics on error; useful for embedding
// known-good literal markup.
func MustConvert(src string, decorate bool) string {
	out, err := Convert(src, decorate)
	if err != nil {
		panic(err)
	}
	return out
}
