// Package cursor provides a position-tracked view over the input
// document; it classifies and peeks at characters by Unicode scalar
// value while keeping positions as byte offsets, so that slicing the
// source is always safe and every peek past either end of the document
// is well-defined (the null rune) rather than a panic.
package cursor

import "unicode/utf8"

// Cursor walks a UTF-8 string one scalar at a time. Its position i is a
// byte offset, matching the invariant that writepos/i comparisons and
// slicing both operate in the same coordinate space.
type Cursor struct {
	src string
	i   int
}

// New builds a Cursor over src, starting at byte offset 0.
func New(src string) *Cursor { return &Cursor{src: src} }

// Pos returns the current byte offset.
func (c *Cursor) Pos() int { return c.i }

// Seek moves the cursor to an absolute byte offset.
func (c *Cursor) Seek(i int) { c.i = i }

// Source returns the underlying string.
func (c *Cursor) Source() string { return c.src }

func runeAt(src string, i int) rune {
	if i < 0 || i >= len(src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(src[i:])
	return r
}

// Current returns the rune starting at the cursor's byte position, or the
// null rune at EOF.
func (c *Cursor) Current() rune { return runeAt(c.src, c.i) }

// CurrentWidth returns the byte width of the rune at the cursor, or 0 at
// EOF.
func (c *Cursor) CurrentWidth() int {
	if c.i >= len(c.src) {
		return 0
	}
	_, w := utf8.DecodeRuneInString(c.src[c.i:])
	return w
}

// Peek returns the rune starting at byte offset i+offset. A peek past
// either end of the source is well-defined: it returns the null rune.
func (c *Cursor) Peek(offset int) rune { return runeAt(c.src, c.i+offset) }

// PrevRune returns the logical character immediately before the cursor
// (i.e. the rune ending at the cursor's byte position), or the null rune
// at the beginning of the source.
func (c *Cursor) PrevRune() rune {
	if c.i <= 0 {
		return 0
	}
	r, _ := utf8.DecodeLastRuneInString(c.src[:c.i])
	return r
}

// PrevRuneWidth returns the byte width of PrevRune(), or 0 at the start.
func (c *Cursor) PrevRuneWidth() int {
	if c.i <= 0 {
		return 0
	}
	_, w := utf8.DecodeLastRuneInString(c.src[:c.i])
	return w
}

// PrevRuneBefore returns the character immediately before PrevRune (two
// logical characters back), or the null rune if there is no such
// character.
func (c *Cursor) PrevRuneBefore() rune {
	w := c.PrevRuneWidth()
	if w == 0 {
		return 0
	}
	j := c.i - w
	if j <= 0 {
		return 0
	}
	r, _ := utf8.DecodeLastRuneInString(c.src[:j])
	return r
}

// StartsWithAt bounded-compares literal against src[i+offset:].
func (c *Cursor) StartsWithAt(offset int, literal string) bool {
	j := c.i + offset
	if j < 0 || j+len(literal) > len(c.src) {
		return false
	}
	return c.src[j:j+len(literal)] == literal
}

// Advance moves the cursor forward by exactly one scalar (one byte for
// ASCII, more for multi-byte runes) and returns the new position.
func (c *Cursor) Advance() int {
	w := c.CurrentWidth()
	if w == 0 {
		w = 1
	}
	c.i += w
	return c.i
}

// AtStart reports whether the cursor sits at byte offset 0.
func (c *Cursor) AtStart() bool { return c.i == 0 }

// AtEOF reports whether the cursor has consumed the whole source.
func (c *Cursor) AtEOF() bool { return c.i >= len(c.src) }

// LineColumn converts an absolute byte offset into a 1-based (line,
// column) pair, counting newlines strictly before bytePos.
func LineColumn(src string, bytePos int) (line, col int) {
	line = 1
	lastNL := -1
	for i, r := range src {
		if i >= bytePos {
			break
		}
		if r == '\n' {
			line++
			lastNL = i
		}
	}
	return line, bytePos - lastNL
}
