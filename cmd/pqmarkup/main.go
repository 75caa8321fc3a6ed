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

// This CLI utility converts pqmarkup-lite source files to standalone
// HTML documents, and can run the bundled self-test corpus.
//
// Usage:
//   pqmarkup [command]
//
// Available Commands:
//   convert     Convert a pqmarkup-lite source file to an HTML document
//   test        Run the bundled input/output self-test corpus
//   help        Help about any command
//
// Flags:
//   -h, --help   help for pqmarkup
//
// Use "pqmarkup [command] --help" for more information about a command.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pqmarkup/pqmarkup/convert"
	"github.com/spf13/cobra"
)

func prefix(msg string, err error) error {
	return errors.New(msg + err.Error())
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const htmlPrologue = `<html>
<head>
<meta charset="utf-8" />
<base target="_blank">
<script type="text/javascript">
function spoiler(element, event)
{
    if (event.target.nodeName == 'A' || event.target.parentNode.nodeName == 'A' || event.target.onclick)
        return;
    var e = element.firstChild.nextSibling.nextSibling;
    e.previousSibling.style.display = e.style.display;
    e.style.display = (e.style.display == "none" ? "" : "none");
    element.firstChild.style.fontWeight =
    element. lastChild.style.fontWeight = (e.style.display == "" ? "normal" : "bold");
    event.stopPropagation();
}
</script>
<style type="text/css">
div#main, td {
    font-size: 14px;
    font-family: Verdana, sans-serif;
    line-height: 160%;
    text-align: justify;
}
span.cu_brackets_b {
    font-size: initial;
    font-family: initial;
    font-weight: bold;
}
a {
    text-decoration: none;
    color: #6da3bd;
}
a:hover {
    text-decoration: underline;
    color: #4d7285;
}
h1, h2, h3, h4, h5, h6 {
    margin: 0;
    font-weight: 400;
}
h1 {font-size: 200%; line-height: 130%;}
h2 {font-size: 180%; line-height: 135%;}
h3 {font-size: 160%; line-height: 140%;}
h4 {font-size: 145%; line-height: 145%;}
h5 {font-size: 130%; line-height: 140%;}
h6 {font-size: 120%; line-height: 140%;}
span.sq {color: gray; font-size: 0.8rem; font-weight: normal;}
span.sq_brackets {color: #BFBFBF;}
span.cu_brackets {cursor: pointer;}
span.cu {background-color: #F7F7FF;}
abbr {text-decoration: none; border-bottom: 1px dotted;}
pre {margin: 0;}
pre, code {font-family: 'Courier New'; line-height: normal}
ul, ol {margin: 11px 0 7px 0;}
ul li, ol li {padding: 7px 0;}
ul li:first-child, ol li:first-child {padding-top   : 0;}
ul  li:last-child, ol  li:last-child {padding-bottom: 0;}
table {margin: 9px 0; border-collapse: collapse;}
table th, table td {padding: 6px 13px; border: 1px solid #BFBFBF;}
span.spoiler_title {
    color: #548eaa;
    cursor: pointer;
    border-bottom: 1px dotted;
}
div.spoiler_text {
    margin: 5px;
    padding: 3px;
}
blockquote {
    margin: 0 0 7px 0;
    padding: 7px 12px;
}
blockquote:not(.re) {border-left:  0.2em solid #C7EED4; background-color: #FCFFFC;}
blockquote.re       {border-right: 0.2em solid #C7EED4; background-color: #F9FFFB;}
div.note {
    padding: 18px 20px;
    background: #ffffd7;
}
pre.code_block {padding: 6px 0;}
pre.inline_code {
    display: inline;
    padding: 0px 3px;
    border: 1px solid #E5E5E5;
    background-color: #FAFAFA;
    border-radius: 3px;
}
img {vertical-align: middle;}

div#main {width: 100%;}
@media screen and (min-width: 750px) {
    div#main {width: 724px;}
}
</style>
</head>
<body>
<div id="main" style="margin: 0 auto">
`

const htmlEpilogue = `</div>
</body>
</html>`

func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, utf8BOM) {
		return b[len(utf8BOM):]
	}
	return b
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "pqmarkup",
		Short: "conversion and self-test utilities for pqmarkup-lite source files",
		Long: `This CLI utility converts pqmarkup-lite source files to standalone
HTML documents, and can run the bundled self-test corpus.`,
	}

	var outputfile string
	prefixConvert := "(convert) "
	convertCmd := &cobra.Command{
		Use:   "convert [input] [-o output]",
		Short: "Convert a pqmarkup-lite source file to an HTML document",
		Long: `This command wraps a pqmarkup-lite source file's converted HTML
fragment in a standalone HTML document with the reference stylesheet
and spoiler script.

If no input file is specified, input is read from standard input.
Similarly, if no output argument is specified, output is written to
standard output.`,
		Args:                  cobra.MaximumNArgs(1),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			var err error
			if len(args) != 0 {
				raw, err = os.ReadFile(args[0])
			} else {
				raw, err = readAll(os.Stdin)
			}
			if err != nil {
				return prefix(prefixConvert, err)
			}
			raw = stripBOM(raw)

			out := os.Stdout
			if len(outputfile) != 0 {
				out, err = os.Create(outputfile)
				if err != nil {
					return prefix(prefixConvert, err)
				}
				defer out.Close()
			}

			html, err := convert.Convert(string(raw), true)
			if err != nil {
				return prefix(prefixConvert, err)
			}
			fmt.Fprint(out, htmlPrologue)
			fmt.Fprint(out, html)
			fmt.Fprint(out, htmlEpilogue)
			return nil
		},
	}
	convertCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		if err != nil {
			return prefix(prefixConvert, err)
		}
		return nil
	})
	convertCmd.Flags().StringVarP(&outputfile, "output", "o", "", "``name of the output file")

	var testsFile string
	testCmd := &cobra.Command{
		Use:   "test [-f tests.txt]",
		Short: "Run the bundled input/output self-test corpus",
		Long: `This command reads a corpus file of "input (()) expected-html" cases
separated by "|\n\n|", converts each input with decoration disabled, and
reports the first mismatch.`,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(testsFile)
			if err != nil {
				return prefix("(test) ", err)
			}
			cases := strings.Split(string(raw), "|\n\n|")
			const delim = " (()) "
			for i, c := range cases {
				pos := strings.Index(c, delim)
				if pos < 0 {
					return prefix("(test) ", fmt.Errorf("test #%d: missing %q delimiter", i+1, delim))
				}
				in := c[:pos]
				want := c[pos+len(delim):]
				got, err := convert.Convert(in, false)
				if err != nil {
					return fmt.Errorf("(test) error in test #%d: %w", i+1, err)
				}
				if got != want {
					return fmt.Errorf("(test) mismatch in test #%d:\n got:  %q\n want: %q", i+1, got, want)
				}
			}
			fmt.Printf("All of %d tests passed!\n", len(cases))
			return nil
		},
	}
	testCmd.Flags().StringVarP(&testsFile, "file", "f", "testdata/tests.txt", "``path to the test corpus")

	rootCmd.AddCommand(convertCmd, testCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func readAll(f *os.File) ([]byte, error) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(f)
	return buf.Bytes(), err
}
