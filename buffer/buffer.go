// Package buffer implements the converter's append-only output sink: a
// sequence of fragments plus a writepos watermark so that unconverted
// spans of the source are flushed verbatim (escaped) up to wherever the
// scan cursor currently sits.
package buffer

import "github.com/pqmarkup/pqmarkup/escape"

// Buffer accumulates HTML fragments produced by the converter. It never
// mutates a fragment once appended (no destructive replace-in-place,
// unlike the original's std::string splicing); the final result is the
// concatenation of everything emitted.
type Buffer struct {
	src      string
	writepos int
	frags    []string
	size     int
}

// New creates a Buffer over src, sized with a hint proportional to the
// source so repeated small appends rarely trigger a reallocation.
func New(src string) *Buffer {
	return &Buffer{
		src:   src,
		frags: make([]string, 0, len(src)/4+8),
	}
}

// WritePos returns the first source byte offset not yet flushed.
func (b *Buffer) WritePos() int { return b.writepos }

// SetWritePos forces the watermark to an arbitrary byte offset; used when
// a handler has already consumed source text without flushing it
// (e.g. stripped comments, consumed suffixes).
func (b *Buffer) SetWritePos(pos int) { b.writepos = pos }

// Emit appends a pre-built fragment verbatim; it is never escaped.
func (b *Buffer) Emit(fragment string) {
	b.frags = append(b.frags, fragment)
	b.size += len(fragment)
}

// FlushVerbatim escapes and emits src[writepos:upto], then moves the
// watermark to resumeAt. upto and resumeAt are byte offsets; resumeAt is
// usually upto itself, but callers skip forward over a construct that
// doesn't want its source bytes to be re-flushed later.
func (b *Buffer) FlushVerbatim(upto, resumeAt int) {
	if upto > b.writepos {
		b.Emit(escape.Text(b.src[b.writepos:upto]))
	}
	b.writepos = resumeAt
}

// String returns the concatenation of every fragment emitted so far.
func (b *Buffer) String() string {
	out := make([]byte, 0, b.size)
	for _, f := range b.frags {
		out = append(out, f...)
	}
	return string(out)
}
