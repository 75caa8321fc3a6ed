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

package convert_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pqmarkup/pqmarkup/convert"
	"github.com/sanity-io/litter"
)

type smallcase struct {
	in   string
	want string
	werr string
}

var decoratedOff = []smallcase{
	{"*‘bold’", "<b>bold</b>", ""},
	{"_‘under’", "<u>under</u>", ""},
	{"-‘strike’", "<s>strike</s>", ""},
	{"~‘italic’", "<i>italic</i>", ""},
	{"H‘Title’\n", "<h3>Title</h3>\n", ""},
	{"H(-1)‘Deeper’\n", "<h4>Deeper</h4>\n", ""},
	{"H(+2)‘Shallower’\n", "<h1>Shallower</h1>\n", ""},
	{"‘x’[http://a.test]", `<a href="http://a.test">x</a>`, ""},
	{"‘x’[http://a.test ‘My Title’]", `<a href="http://a.test" title="My Title">x</a>`, ""},
	{"‘x’[http://a.test My Title]", `<a href="http://a.test" title="My Title">x</a>`, ""},
	{"‘x’[http://a.test][-1]", `<a href="http://a.test">x</a>`, ""},
	{"word[http://a.test]", `word<a href="http://a.test">word</a>`, ""},
	{"word[‘tooltip’]", `word<abbr title="tooltip">word</abbr>`, ""},
	{">‘Einstein’:‘E=mc^2’", "<blockquote><i>Einstein</i>:<br />\nE=mc^2</blockquote>", ""},
	{"‘unterminated", "", "Unpaired left single quotation mark at line 1, column 1"},
	{"plain text", "plain text", ""},
	{"a & b < c", "a &amp; b &lt; c", ""},
	{". bullet\n", "• bullet<br />\n", ""},
	{"/\\‘sup’", "<sup>sup</sup>", ""},
	{"\\/‘sub’", "<sub>sub</sub>", ""},
	{"``plain code`` ", "<pre class=\"inline_code\">plain code</pre> ", ""},
	{"0‘text’", "text", ""},
}

func runCases(t *testing.T, decorate bool, cases []smallcase) {
	litCfg := litter.Options{Compact: true, Separator: " "}
	for i, tc := range cases {
		got, err := convert.Convert(tc.in, decorate)
		gotErr := ""
		if err != nil {
			gotErr = err.Error()
		}
		if gotErr != tc.werr || (tc.werr == "" && got != tc.want) {
			t.Errorf("case %d, in %s,\nwant %s,\ngot %s,\nwant err %q,\ngot err %q",
				i, litCfg.Sdump(tc.in), litCfg.Sdump(tc.want), litCfg.Sdump(got), tc.werr, gotErr)
		}
	}
}

func TestDecoratedOff(t *testing.T) {
	runCases(t, false, decoratedOff)
}

func TestDecorationWrapsBrackets(t *testing.T) {
	got, err := convert.Convert("[x]", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, `class="sq"`) || !strings.Contains(got, `class="sq_brackets"`) {
		t.Errorf("expected decorated brackets, got %s", got)
	}
}

func TestNestedQuotesBalance(t *testing.T) {
	got, err := convert.Convert("*‘outer _‘inner’ still’*", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "<b>outer <u>inner</u> still</b>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEveryAmpersandAndLessThanEscaped(t *testing.T) {
	in := "A & B < C & D < E"
	got, err := convert.Convert(in, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.ContainsAny(got, "&") && strings.Count(got, "&amp;") != strings.Count(in, "&") {
		t.Errorf("not every & was escaped: %s", got)
	}
	if strings.Contains(got, "< ") {
		t.Errorf("raw < leaked into output: %s", got)
	}
}

func TestUnclosedQuoteReportsPosition(t *testing.T) {
	_, err := convert.Convert("line one\n*‘unterminated", false)
	if err == nil {
		t.Fatal("expected an error")
	}
	ce, ok := err.(*convert.Error)
	if !ok {
		t.Fatalf("expected *convert.Error, got %T", err)
	}
	if ce.Kind != convert.UnpairedLeftQuote {
		t.Errorf("got kind %v, want UnpairedLeftQuote", ce.Kind)
	}
	if ce.Line != 2 {
		t.Errorf("got line %d, want 2", ce.Line)
	}
}

func ExampleConvert() {
	out, err := convert.Convert("*‘bold’", false)
	if err != nil {
		panic(err)
	}
	fmt.Println(out)
	// Output: <b>bold</b>
}
