// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsontext

import "github.com/snargit/jsonsanitizer/internal/bufpools"

// Buffer implements the edit-buffer invariant the driver relies on:
// output equals the input copied verbatim up to a moving cursor, spliced
// with whatever elisions, insertions, and replacements have been applied
// at the points where the driver found the input needed repair.
//
// As long as no edit is ever applied, Finish returns the original input
// slice directly -- the zero-copy fast path for input that was already
// strict JSON.
type Buffer struct {
	input   []byte
	reader  *Reader
	cleaned int // input offset through which output has been materialized
	out     []byte
	dirty   bool
}

// NewBuffer wraps input for editing. input is never mutated.
func NewBuffer(input []byte) *Buffer {
	return &Buffer{input: input, reader: NewReader(input)}
}

func (b *Buffer) ensureDirty() {
	if !b.dirty {
		b.dirty = true
		b.out = bufpools.Get(len(b.input))
	}
}

// flushTo copies input[cleaned:pos] verbatim into the materialized output
// and advances cleaned to pos. It is a no-op once the buffer is already
// caught up to pos.
func (b *Buffer) flushTo(pos int) {
	if pos > b.cleaned {
		b.ensureDirty()
		b.out = append(b.out, b.input[b.cleaned:pos]...)
		b.cleaned = pos
	}
}

// Elide drops input[start:end] from the output entirely.
func (b *Buffer) Elide(start, end int) {
	b.flushTo(start)
	if end > start {
		// Even with nothing flushed yet, dropping bytes means the output
		// is no longer a plain view of the input.
		b.ensureDirty()
	}
	b.cleaned = end
}

// Insert splices s into the output at pos without consuming any input.
func (b *Buffer) Insert(pos int, s string) {
	b.Replace(pos, pos, s)
}

// Replace substitutes input[start:end] with s in the output.
func (b *Buffer) Replace(start, end int, s string) {
	b.flushTo(start)
	b.ensureDirty()
	b.out = append(b.out, s...)
	b.cleaned = end
}

// ElideTrailingComma walks backward from uptoPos over whitespace looking
// for a comma, and elides just that comma (the intervening whitespace is
// left untouched since it is syntactically harmless). The walk covers the
// unflushed input tail first and then, if the whole tail was whitespace,
// continues into the already-materialized output, since an intervening
// edit (eliding a comment, say) may have pushed the comma there already.
//
// The caller only asks for this from states that a comma necessarily led
// into; finding anything else first is an invariant violation, not an
// input condition, and panics rather than silently corrupting the output.
func (b *Buffer) ElideTrailingComma(uptoPos int) {
	if uptoPos > b.cleaned {
		i := b.reader.StepBack(uptoPos, b.cleaned)
		if i > b.cleaned {
			if b.input[i-1] != ',' {
				panic("jsontext: trailing comma walker found " + string(b.input[i-1:i]))
			}
			b.flushTo(i - 1)
			b.cleaned = i
			return
		}
	}
	j := len(b.out)
	for j > 0 && isWhitespace(b.out[j-1]) {
		j--
	}
	if j == 0 || b.out[j-1] != ',' {
		panic("jsontext: trailing comma not found")
	}
	b.out = append(b.out[:j-1], b.out[j:]...)
}

// Finish flushes the remaining input tail and returns the final output.
// When no edit was ever applied, this returns the original input slice
// unmodified -- the fast path described in the Buffer doc comment.
func (b *Buffer) Finish(end int) []byte {
	if !b.dirty {
		return b.input[:end]
	}
	b.flushTo(end)
	return b.out
}

// Release returns any pooled backing array to bufpools. The Buffer must
// not be used again afterward.
func (b *Buffer) Release() {
	if b.dirty && b.out != nil {
		bufpools.Put(b.out)
		b.out = nil
	}
}
