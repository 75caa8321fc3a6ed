// Package convert implements the streaming single-pass pqmarkup-lite
// engine described in spec.md §4.5: it walks a document exactly once,
// classifying each rune by the context around it, dispatching to the
// handful of block/inline construct handlers, and recursing on inner
// text (link titles, blockquote bodies, alignment divs) with position
// tracking so that an error raised at any recursion depth can still be
// reported in top-level (line, column) coordinates.
//
// Positions throughout this package are byte offsets into the relevant
// source string, not rune counts; every handler advances the cursor by
// whole runes, so offsets always land on rune boundaries.
package convert

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pqmarkup/pqmarkup/bracket"
	"github.com/pqmarkup/pqmarkup/buffer"
	"github.com/pqmarkup/pqmarkup/cursor"
	"github.com/pqmarkup/pqmarkup/escape"
)

// nullTag is the new-line-tag register's UNSET sentinel (spec.md §3):
// distinct from both "" (absorb the newline silently) and any real
// closer string.
const nullTag = "\x00"

// Converter runs the engine over a document. A single instance processes
// one top-level call to ToHTML plus whatever recursive calls it makes on
// inner text; create a fresh Converter per document (spec.md §5: all
// state is reset per top-level call, there is nothing to share across
// documents).
type Converter struct {
	decorate bool
	topSrc   string
	// outer is the outer-position stack (spec.md §3): the byte offset,
	// within its immediate caller's source, at which each currently
	// active recursive call's substring began. Summing it up translates
	// a position local to the innermost call into a top-level offset.
	outer []int
}

// New creates a Converter. decorate selects decoration mode (spec.md §6):
// true wraps bare brackets/braces in stylable spans (normal rendering);
// false emits them literally (the self-test corpus's expected mode).
func New(decorate bool) *Converter {
	return &Converter{decorate: decorate}
}

// Convert runs a fresh Converter over src once and returns the resulting
// HTML fragment.
func Convert(src string, decorate bool) (string, error) {
	return New(decorate).ToHTML(src, 0)
}

// ToHTML converts src, returning the HTML fragment it produces. outerPos
// is the byte offset of src within whatever source invoked this call (0
// for the initial, top-level call); every recursive call pushes its own
// outerPos so error positions can be summed back to top-level
// coordinates (spec.md §4.5.3).
func (c *Converter) ToHTML(src string, outerPos int) (string, error) {
	if len(c.outer) == 0 {
		c.topSrc = src
	}
	c.outer = append(c.outer, outerPos)
	defer func() { c.outer = c.outer[:len(c.outer)-1] }()

	p := &pass{
		conv:       c,
		cur:        cursor.New(src),
		buf:        buffer.New(src),
		newLineTag: nullTag,
	}
	if err := p.run(); err != nil {
		return "", err
	}
	return p.buf.String(), nil
}

// exitWithError sums the outer-position stack to translate pos (local to
// whichever recursive call is currently raising the error) into an
// absolute position in the top-level document, then derives line/column
// from it (spec.md §7).
func (c *Converter) exitWithError(kind Kind, pos int) error {
	abs := pos
	for _, o := range c.outer {
		abs += o
	}
	line, col := cursor.LineColumn(c.topSrc, abs)
	return newError(kind, line, col, abs)
}

// pass holds the mutable state of a single (possibly recursive) call to
// ToHTML: the scan cursor, the output buffer with its writepos watermark,
// the ending-tags stack, and the new-line-tag register (spec.md §3).
type pass struct {
	conv       *Converter
	cur        *cursor.Cursor
	buf        *buffer.Buffer
	endingTags []string
	newLineTag string
}

func (p *pass) emit(s string) { p.buf.Emit(s) }

// writeToI flushes verbatim through the single-byte ASCII character at
// the cursor and appends add in its place; it does not move the cursor.
func (p *pass) writeToI(add string) {
	i := p.cur.Pos()
	p.buf.FlushVerbatim(i, i+1)
	if add != "" {
		p.buf.Emit(add)
	}
}

func (p *pass) stripComments(text string, base int) (string, error) {
	out, err := bracket.StripComments(text, base, 3)
	if err != nil {
		be := err.(*bracket.Error)
		return "", p.conv.exitWithError(UnterminatedComment, be.Pos)
	}
	return out, nil
}

// run walks the source exactly once, dispatching each position to its
// construct handler. Every handler leaves the cursor at the exact byte
// offset scanning should resume from; run never advances the cursor
// itself except for ordinary, unremarkable characters.
func (p *pass) run() error {
	for !p.cur.AtEOF() {
		i := p.cur.Pos()
		ch := p.cur.Current()

		if p.atBlockStart(i) {
			consumed, err := p.tryBlockStart(i, ch)
			if err != nil {
				return err
			}
			if consumed {
				continue
			}
		}

		switch ch {
		case '‘':
			if err := p.leftQuote(i); err != nil {
				return err
			}
			continue
		case '’':
			if err := p.rightQuote(i); err != nil {
				return err
			}
			continue
		case '`':
			if err := p.backtick(i); err != nil {
				return err
			}
			continue
		case '[':
			if err := p.leftBracket(i); err != nil {
				return err
			}
			continue
		case ']':
			p.bracketClose(i)
			continue
		case '{':
			p.spoilerOpen(i)
			continue
		case '}':
			p.spoilerClose(i)
			continue
		case '\n':
			p.newline(i)
			continue
		}
		p.cur.Advance()
	}

	p.buf.FlushVerbatim(len(p.cur.Source()), 0)
	if len(p.endingTags) > 0 {
		return p.conv.exitWithError(UnclosedLeftQuote, len(p.cur.Source()))
	}
	return nil
}

// atBlockStart reports whether position i sits where a bullet or
// blockquote marker is allowed to open: the very first character, right
// after a newline, or right at the content start of a blockquote/div
// that was just opened by '>‘', '<‘' or '!‘' (spec.md §4.5.A).
func (p *pass) atBlockStart(i int) bool {
	if p.cur.AtStart() {
		return true
	}
	if p.cur.PrevRune() == '\n' {
		return true
	}
	if i == p.buf.WritePos() && len(p.endingTags) > 0 {
		top := p.endingTags[len(p.endingTags)-1]
		if top != "</blockquote>" && top != "</div>" {
			return false
		}
		if p.cur.PrevRune() != '‘' {
			return false
		}
		switch p.cur.PrevRuneBefore() {
		case '>', '<', '!':
			return true
		}
	}
	return false
}

func (p *pass) tryBlockStart(i int, ch rune) (consumed bool, err error) {
	if ch == '.' && p.cur.Peek(1) == ' ' {
		p.writeToI("•")
		p.cur.Seek(i + 1)
		return true, nil
	}
	if (ch == '>' || ch == '<') &&
		(p.cur.Peek(1) == ' ' || p.cur.Peek(1) == '[' || p.cur.StartsWithAt(1, "‘")) {
		return true, p.blockquoteOpen(i, ch)
	}
	return false, nil
}

// blockquoteOpen implements the three blockquote-opening forms of
// spec.md §4.5.A: a single-line form ending at the next '\n', a URL
// citation source, and a quoted-title or quoted-author-name citation
// source, the latter two always followed by a mandatory ':‘body’'.
func (p *pass) blockquoteOpen(i int, ch rune) error {
	src := p.cur.Source()
	cls := ""
	if ch == '<' {
		cls = ` class="re"`
	}
	p.buf.FlushVerbatim(i, i+1)
	p.emit("<blockquote" + cls + ">")

	switch {
	case p.cur.Peek(1) == ' ':
		p.newLineTag = "</blockquote>"
		p.buf.SetWritePos(i + 2)
		p.cur.Seek(i + 2)
		return nil

	case p.cur.Peek(1) == '[':
		bstart := i + 1
		if p.cur.Peek(2) == '-' && isDigitRune(p.cur.Peek(3)) {
			rel := strings.IndexByte(src[bstart:], ']')
			if rel < 0 {
				return p.conv.exitWithError(UnterminatedComment, bstart)
			}
			end := bstart + rel + 1
			if !strings.HasPrefix(src[end:], ":‘") {
				return p.conv.exitWithError(QuotationWithURLMalformed, end)
			}
			return p.blockquoteBody(end + 1)
		}
		endb, err := bracket.FindMatchingRBracket(src, bstart)
		if err != nil {
			be := err.(*bracket.Error)
			return p.conv.exitWithError(UnterminatedComment, be.Pos)
		}
		link := src[bstart+1 : endb]
		if sp := strings.IndexByte(link, ' '); sp >= 0 {
			link = link[:sp]
		}
		p.emit("<i>" + truncateDisplayURL(link) + "</i>")
		after := endb + 1
		if !strings.HasPrefix(src[after:], ":‘") {
			return p.conv.exitWithError(QuotationWithURLMalformed, after)
		}
		p.emit(":<br />\n")
		return p.blockquoteBody(after + 1)

	default: // '‘' follows the marker
		qstart := i + 1
		endq, err := bracket.FindMatchingRQuote(src, qstart)
		if err != nil {
			be := err.(*bracket.Error)
			return p.conv.exitWithError(UnpairedLeftQuote, be.Pos)
		}
		after := endq + len("’")
		title := src[qstart+len("‘") : endq]

		switch {
		case strings.HasPrefix(src[after:], "["):
			html, err1 := p.conv.ToHTML(title, qstart+len("‘"))
			if err1 != nil {
				return err1
			}
			_, _, linkAfter, err2 := p.parseLinkTarget(after)
			if err2 != nil {
				return err2
			}
			p.emit("<i>" + html + "</i>")
			if !strings.HasPrefix(src[linkAfter:], ":‘") {
				return p.conv.exitWithError(QuotationWithURLMalformed, linkAfter)
			}
			p.emit(":<br />\n")
			return p.blockquoteBody(linkAfter + 1)

		case strings.HasPrefix(src[after:], ":‘"):
			p.emit("<i>" + escape.Text(title) + "</i>")
			p.emit(":<br />\n")
			return p.blockquoteBody(after + 1)
		}
		return p.conv.exitWithError(QuotationWithAuthorMalformed, after)
	}
}

// blockquoteBody consumes the mandatory '‘body’' quotation that
// terminates a URL/title/author blockquote-open form, recursively
// converts it, and emits </blockquote> as the construct's own closer
// (absorbing one trailing newline the same way a popped ending tag
// would, per spec.md §4.5.C).
func (p *pass) blockquoteBody(quoteStart int) error {
	src := p.cur.Source()
	if !strings.HasPrefix(src[quoteStart:], "‘") {
		return p.conv.exitWithError(QuotationWithURLMalformed, quoteStart)
	}
	textStart := quoteStart + len("‘")
	endq, err := bracket.FindMatchingRQuote(src, quoteStart)
	if err != nil {
		be := err.(*bracket.Error)
		return p.conv.exitWithError(UnpairedLeftQuote, be.Pos)
	}
	body, err1 := p.conv.ToHTML(src[textStart:endq], textStart)
	if err1 != nil {
		return err1
	}
	p.emit(body)
	resume := endq + len("’")
	if resume < len(src) && src[resume] == '\n' {
		p.emit("</blockquote>\n")
		resume++
	} else {
		p.emit("</blockquote>")
	}
	p.buf.SetWritePos(resume)
	p.cur.Seek(resume)
	return nil
}

// leftQuote dispatches a '‘' by the context immediately preceding it
// (spec.md §4.5.B).
func (p *pass) leftQuote(i int) error {
	src := p.cur.Source()
	startq := i
	endq, err := bracket.FindMatchingRQuote(src, startq)
	if err != nil {
		be := err.(*bracket.Error)
		return p.conv.exitWithError(UnpairedLeftQuote, be.Pos)
	}
	afterQ := endq + len("’")
	textStart := startq + len("‘")

	prevRune := p.cur.PrevRune()
	prevWidth := p.cur.PrevRuneWidth()
	prevPos := startq - prevWidth
	prevRuneBefore := p.cur.PrevRuneBefore()
	strInP := ""

	// A right paren just before '‘' means a "(...)‘...’" parenthetical
	// annotation (e.g. heading level): pull it out and look one rune
	// further back for the real triggering context (spec.md §4.5.B,
	// heading row).
	if prevRune == ')' && prevPos > 0 {
		if openIdx := strings.LastIndexByte(src[:prevPos], '('); openIdx >= 0 {
			strInP = src[openIdx+1 : prevPos]
			if openIdx > 0 {
				r, w := utf8.DecodeLastRuneInString(src[:openIdx])
				prevRune = r
				prevPos = openIdx - w
				if prevPos > 0 {
					r2, _ := utf8.DecodeLastRuneInString(src[:prevPos])
					prevRuneBefore = r2
				} else {
					prevRuneBefore = 0
				}
			} else {
				prevRune, prevPos, prevRuneBefore = 0, 0, 0
			}
		}
	}

	switch {
	case strings.HasPrefix(src[afterQ:], "[http") || strings.HasPrefix(src[afterQ:], "[./"):
		return p.quotedHyperlink(startq, textStart, endq)

	case strings.HasPrefix(src[afterQ:], "[‘"):
		return p.quotedAbbr(startq, textStart, endq)

	case prevRune == '0' || prevRune == 'O' || prevRune == 'О':
		inner := src[textStart:endq]
		p.buf.FlushVerbatim(prevPos, afterQ)
		p.emit(strings.ReplaceAll(escape.Text(inner), "\n", "<br />\n"))
		p.cur.Seek(afterQ)
		return nil

	case (prevRune == '<' || prevRune == '>') && (prevRuneBefore == '<' || prevRuneBefore == '>'):
		align := alignFor(prevRuneBefore, prevRune)
		body, berr := p.conv.ToHTML(src[textStart:endq], textStart)
		if berr != nil {
			return berr
		}
		beforePair := prevPos - runeWidth(prevRuneBefore)
		p.buf.FlushVerbatim(beforePair, afterQ)
		p.emit(`<div align="` + align + `">` + body + "</div>\n")
		p.newLineTag = ""
		p.cur.Seek(afterQ)
		return nil

	case strings.HasPrefix(src[afterQ:], ":‘"):
		innerStart := afterQ + 1
		if endrq, e := bracket.FindMatchingRQuote(src, innerStart); e == nil &&
			strings.HasPrefix(src[endrq+len("’"):], "<") {
			quoteBody, err1 := p.conv.ToHTML(src[textStart:endq], textStart)
			if err1 != nil {
				return err1
			}
			author := src[innerStart+len("‘") : endrq]
			resume := endrq + len("’") + len("<")
			p.buf.FlushVerbatim(startq, resume)
			p.emit("<blockquote>" + quoteBody + "<br />\n<div align='right'><i>" + escape.Text(author) + "</i></div></blockquote>")
			p.newLineTag = ""
			p.cur.Seek(resume)
			return nil
		}
		return p.plainOrStyled(startq, prevRune, prevPos, strInP)

	default:
		return p.plainOrStyled(startq, prevRune, prevPos, strInP)
	}
}

// plainOrStyled implements the remaining rows of spec.md §4.5.B's
// dispatch table: the inline style marks, headings, sup/sub, the note
// div, and the fallback plain grouping.
func (p *pass) plainOrStyled(startq int, prevRune rune, prevPos int, strInP string) error {
	src := p.cur.Source()
	textStart := startq + len("‘")

	switch {
	case prevRune == '*' || prevRune == '_' || prevRune == '-' || prevRune == '~':
		tag := styleTag(prevRune)
		p.buf.FlushVerbatim(prevPos, textStart)
		p.emit("<" + tag + ">")
		p.endingTags = append(p.endingTags, "</"+tag+">")

	case prevRune == 'H' || prevRune == 'Н':
		p.buf.FlushVerbatim(prevPos, textStart)
		tag := fmt.Sprintf("h%d", headingLevel(strInP))
		p.emit("<" + tag + ">")
		p.endingTags = append(p.endingTags, "</"+tag+">")

	case startq >= 2 && (src[startq-2:startq] == "/\\" || src[startq-2:startq] == "\\/"):
		two := src[startq-2 : startq]
		p.buf.FlushVerbatim(startq-2, textStart)
		tag := "sup"
		if two == "\\/" {
			tag = "sub"
		}
		p.emit("<" + tag + ">")
		p.endingTags = append(p.endingTags, "</"+tag+">")

	case prevRune == '!':
		p.buf.FlushVerbatim(prevPos, textStart)
		p.emit(`<div class="note">`)
		p.endingTags = append(p.endingTags, "</div>")

	default:
		p.endingTags = append(p.endingTags, "’")
	}
	p.cur.Seek(textStart)
	return nil
}

// rightQuote pops the ending-tags stack and emits the popped closer
// (spec.md §4.5.C). If the closer is a heading, blockquote, or div and
// the very next character is '\n', that newline is folded into this
// emission instead of being left for the '\n' handler.
func (p *pass) rightQuote(i int) error {
	if len(p.endingTags) == 0 {
		return p.conv.exitWithError(UnpairedRightQuote, i)
	}
	afterQ := i + len("’")
	p.buf.FlushVerbatim(i, afterQ)
	last := p.endingTags[len(p.endingTags)-1]
	p.endingTags = p.endingTags[:len(p.endingTags)-1]

	src := p.cur.Source()
	if afterQ < len(src) && src[afterQ] == '\n' &&
		(strings.HasPrefix(last, "</h") || last == "</blockquote>" || last == "</div>") {
		p.emit(last)
		p.emit("\n")
		p.cur.Seek(afterQ + 1)
		p.buf.SetWritePos(afterQ + 1)
		return nil
	}
	p.emit(last)
	p.cur.Seek(afterQ)
	return nil
}

// backtick implements the run-delimited code span/block of spec.md
// §4.5.D: n consecutive backticks open a span closed by the next run of
// exactly n backticks.
func (p *pass) backtick(i int) error {
	src := p.cur.Source()
	j := i
	for j < len(src) && src[j] == '`' {
		j++
	}
	n := j - i
	run := strings.Repeat("`", n)
	rel := strings.Index(src[j:], run)
	if rel < 0 {
		return p.conv.exitWithError(UnterminatedCode, i)
	}
	end := j + rel
	inner := src[j:end]

	delta := 0
	for _, r := range inner {
		switch r {
		case '‘':
			delta++
		case '’':
			delta--
		}
	}
	if delta > 0 {
		for k := 0; k < delta; k++ {
			p.endingTags = append(p.endingTags, "’")
		}
	} else {
		for k := 0; k < -delta; k++ {
			if len(p.endingTags) == 0 || p.endingTags[len(p.endingTags)-1] != "’" {
				return p.conv.exitWithError(UnpairedQuoteInsideCode, i)
			}
			p.endingTags = p.endingTags[:len(p.endingTags)-1]
		}
	}

	p.buf.FlushVerbatim(i, end+n)
	escaped := escape.Text(inner)
	if !strings.Contains(escaped, "\n") {
		p.emit(`<pre class="inline_code">` + escaped + `</pre>`)
	} else {
		p.emit("<pre>" + escaped + "</pre>\n")
		p.newLineTag = ""
	}
	p.cur.Seek(end + n)
	return nil
}

// leftBracket implements spec.md §4.5.E: a suffix-attached link/abbr, a
// [[[ ... ]]] comment, or a literal (optionally decorated) bracket.
func (p *pass) leftBracket(i int) error {
	src := p.cur.Source()
	tail := src[i+1:]
	if strings.HasPrefix(tail, "http") || strings.HasPrefix(tail, "./") ||
		(strings.HasPrefix(tail, "‘") && !isWhitespaceOrNull(p.cur.PrevRune())) {
		const stop = "\r\n\t [{("
		s := i - 1
		for s >= p.buf.WritePos() && !strings.ContainsRune(stop, rune(src[s])) {
			s--
		}
		wordStart := s + 1
		if strings.HasPrefix(tail, "‘") {
			return p.suffixAbbr(wordStart, i)
		}
		return p.suffixHyperlink(wordStart, i)
	}
	if strings.HasPrefix(tail, "[") {
		end, err := bracket.FindMatchingRBracket(src, i)
		if err != nil {
			be := err.(*bracket.Error)
			return p.conv.exitWithError(UnterminatedComment, be.Pos)
		}
		p.buf.FlushVerbatim(i, end+1)
		p.cur.Seek(end + 1)
		return nil
	}
	add := "["
	if p.conv.decorate {
		add = `<span class="sq"><span class="sq_brackets">[</span>`
	}
	p.writeToI(add)
	p.cur.Seek(i + 1)
	return nil
}

func (p *pass) bracketClose(i int) {
	add := "]"
	if p.conv.decorate {
		add = `<span class="sq_brackets">]</span></span>`
	}
	p.writeToI(add)
	p.cur.Seek(i + 1)
}

func (p *pass) spoilerOpen(i int) {
	add := "{"
	if p.conv.decorate {
		add = `<span class="cu_brackets" onclick="return spoiler(this, event)"><span class="cu_brackets_b">{</span><span>…</span><span class="cu" style="display: none">`
	}
	p.writeToI(add)
	p.cur.Seek(i + 1)
}

func (p *pass) spoilerClose(i int) {
	add := "}"
	if p.conv.decorate {
		add = `</span><span class="cu_brackets_b">}</span></span>`
	}
	p.writeToI(add)
	p.cur.Seek(i + 1)
}

// newline implements spec.md §4.5.H: emit whatever the new-line-tag
// register holds (defaulting to "<br />"), then reset it.
func (p *pass) newline(i int) {
	switch p.newLineTag {
	case nullTag:
		p.writeToI("<br />\n")
	case "":
		p.writeToI("")
	default:
		p.writeToI(p.newLineTag + "\n")
	}
	p.newLineTag = nullTag
	p.cur.Seek(i + 1)
}

// parseLinkTarget implements spec.md §4.5.1 steps 1-4: it reads a URL
// starting right after the '[' at bracketStart, an optional title, and
// an optional trailing [-N] backreference, returning the opening <a ...>
// tag (without its '>'), the raw URL (used as link text when none was
// supplied), and the byte offset just past everything consumed.
func (p *pass) parseLinkTarget(bracketStart int) (tagOpen, url string, after int, err error) {
	src := p.cur.Source()
	j := bracketStart + 1
	urlEnd := j
	depth := 0
	stoppedBySpace := false
loop:
	for urlEnd < len(src) {
		switch src[urlEnd] {
		case '[':
			depth++
		case ']':
			if depth == 0 {
				break loop
			}
			depth--
		case ' ':
			stoppedBySpace = true
			break loop
		}
		urlEnd++
	}
	if urlEnd >= len(src) {
		return "", "", 0, p.conv.exitWithError(UnterminatedLink, bracketStart)
	}
	url = src[j:urlEnd]
	tagOpen = `<a href="` + escape.Attr(url) + `"`
	if strings.HasPrefix(url, "./") {
		tagOpen += ` target="_self"`
	}

	// closePos always ends up at the byte offset of the ']' that closes
	// this whole "[url]" or "[url title]" construct.
	closePos := urlEnd
	if stoppedBySpace {
		tagOpen += ` title="`
		if strings.HasPrefix(src[urlEnd+1:], "‘") {
			qstart := urlEnd + 1
			endq, e := bracket.FindMatchingRQuote(src, qstart)
			if e != nil {
				be := e.(*bracket.Error)
				return "", "", 0, p.conv.exitWithError(UnpairedLeftQuote, be.Pos)
			}
			afterQ := endq + len("’")
			if afterQ >= len(src) || src[afterQ] != ']' {
				return "", "", 0, p.conv.exitWithError(AbbrBracketExpected, afterQ)
			}
			title, e2 := p.stripComments(src[qstart+len("‘"):endq], qstart+len("‘"))
			if e2 != nil {
				return "", "", 0, e2
			}
			tagOpen += escape.Attr(title)
			closePos = afterQ
		} else {
			// A literal "[title]" may itself contain brackets, so its
			// close is found by re-walking nesting from the link's own
			// opening '[', not from the title's start.
			endb, e := bracket.FindMatchingRBracket(src, bracketStart)
			if e != nil {
				be := e.(*bracket.Error)
				return "", "", 0, p.conv.exitWithError(UnterminatedLink, be.Pos)
			}
			title, e2 := p.stripComments(src[urlEnd+1:endb], urlEnd+1)
			if e2 != nil {
				return "", "", 0, e2
			}
			tagOpen += escape.Attr(title)
			closePos = endb
		}
		tagOpen += `"`
	}

	if strings.HasPrefix(src[closePos+1:], "[-") {
		k := closePos + 3
		for k < len(src) {
			if src[k] == ']' {
				closePos = k
				break
			}
			if !isDigit(src[k]) {
				break
			}
			k++
		}
	}
	return tagOpen, url, closePos + 1, nil
}

// parseAbbrTarget implements spec.md §4.5.2: bracketStart must be
// immediately followed by '‘tooltip’]'.
func (p *pass) parseAbbrTarget(bracketStart int) (tooltipEsc string, after int, err error) {
	src := p.cur.Source()
	qstart := bracketStart + 1
	endq, e := bracket.FindMatchingRQuote(src, qstart)
	if e != nil {
		be := e.(*bracket.Error)
		return "", 0, p.conv.exitWithError(UnpairedLeftQuote, be.Pos)
	}
	afterQ := endq + len("’")
	if afterQ >= len(src) || src[afterQ] != ']' {
		return "", 0, p.conv.exitWithError(AbbrBracketExpected, afterQ)
	}
	raw := src[qstart+len("‘") : endq]
	stripped, e2 := p.stripComments(raw, qstart+len("‘"))
	if e2 != nil {
		return "", 0, e2
	}
	return escape.Attr(stripped), afterQ + 1, nil
}

// quotedHyperlink implements the inline '‘text’[url ...]' form of
// spec.md §4.5.B. A blockquote citation's '‘title’[url]' form does not
// go through here; blockquoteOpen calls parseLinkTarget itself.
func (p *pass) quotedHyperlink(openQuote, textStart, textEnd int) error {
	bracketStart := textEnd + len("’")
	tagOpen, url, after, err := p.parseLinkTarget(bracketStart)
	if err != nil {
		return err
	}
	p.buf.FlushVerbatim(openQuote, after)
	text := p.cur.Source()[textStart:textEnd]
	inner := url
	if text != "" {
		inner, err = p.conv.ToHTML(text, textStart)
		if err != nil {
			return err
		}
	}
	p.emit(tagOpen + ">" + inner + "</a>")
	p.cur.Seek(after)
	return nil
}

// suffixHyperlink implements the suffix-attached link form of spec.md
// §4.5.E: [wordStart, bracketStart) is the word the link attaches to.
func (p *pass) suffixHyperlink(wordStart, bracketStart int) error {
	tagOpen, url, after, err := p.parseLinkTarget(bracketStart)
	if err != nil {
		return err
	}
	p.buf.FlushVerbatim(bracketStart, after)
	word := p.cur.Source()[wordStart:bracketStart]
	inner := url
	if word != "" {
		inner, err = p.conv.ToHTML(word, wordStart)
		if err != nil {
			return err
		}
	}
	p.emit(tagOpen + ">" + inner + "</a>")
	p.cur.Seek(after)
	return nil
}

// quotedAbbr implements the '‘text’[‘tooltip’]' form.
func (p *pass) quotedAbbr(openQuote, textStart, textEnd int) error {
	bracketStart := textEnd + len("’")
	tooltip, after, err := p.parseAbbrTarget(bracketStart)
	if err != nil {
		return err
	}
	text, err1 := p.stripComments(p.cur.Source()[textStart:textEnd], textStart)
	if err1 != nil {
		return err1
	}
	p.buf.FlushVerbatim(openQuote, after)
	p.emit(`<abbr title="` + tooltip + `">` + escape.Text(text) + "</abbr>")
	p.cur.Seek(after)
	return nil
}

// suffixAbbr implements the suffix-attached abbreviation form
// word[‘tooltip’].
func (p *pass) suffixAbbr(wordStart, bracketStart int) error {
	tooltip, after, err := p.parseAbbrTarget(bracketStart)
	if err != nil {
		return err
	}
	word, err1 := p.stripComments(p.cur.Source()[wordStart:bracketStart], wordStart)
	if err1 != nil {
		return err1
	}
	p.buf.FlushVerbatim(bracketStart, after)
	p.emit(`<abbr title="` + tooltip + `">` + escape.Text(word) + "</abbr>")
	p.cur.Seek(after)
	return nil
}

func styleTag(r rune) string {
	switch r {
	case '*':
		return "b"
	case '_':
		return "u"
	case '-':
		return "s"
	default: // '~'
		return "i"
	}
}

// headingLevel implements spec.md §4.5.B's heading row: level =
// clamp(3-n, 1, 6) where n is the signed digit inside the heading's
// optional "(±N)" parenthetical (default n=0).
func headingLevel(strInP string) int {
	n := 0
	if strInP != "" {
		switch strInP[0] {
		case '-':
			if len(strInP) > 1 {
				n = -int(strInP[1] - '0')
			}
		case '+':
			if len(strInP) > 1 {
				n = int(strInP[1] - '0')
			}
		default:
			n = int(strInP[0] - '0')
		}
	}
	return clamp(3-n, 1, 6)
}

func alignFor(first, second rune) string {
	switch string(first) + string(second) {
	case "<<":
		return "left"
	case ">>":
		return "right"
	case "><":
		return "center"
	default: // "<>"
		return "justify"
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func runeWidth(r rune) int {
	if r == 0 {
		return 0
	}
	return utf8.RuneLen(r)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isDigitRune(r rune) bool { return r >= '0' && r <= '9' }

func isWhitespaceOrNull(r rune) bool {
	switch r {
	case '\r', '\n', '\t', ' ', 0:
		return true
	}
	return false
}

// truncateDisplayURL implements spec.md §4.5.A's blockquote-citation URL
// truncation: when the URL is longer than 57 display characters, it is
// cut back to (and including) the last '/' within its first 46
// characters, with "..." appended.
func truncateDisplayURL(link string) string {
	runes := []rune(link)
	if len(runes) <= 57 {
		return link
	}
	limit := 46
	if limit > len(runes) {
		limit = len(runes)
	}
	prefix := string(runes[:limit])
	idx := strings.LastIndexByte(prefix, '/')
	if idx < 0 {
		return "..."
	}
	return prefix[:idx+1] + "..."
}
