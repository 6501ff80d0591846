// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jsonwire implements the low-level rewrites applied to individual
// JSON scalars: numbers are recoded into strict decimal form (or, when a
// number becomes an object key, canonicalized per ECMAScript's
// ToString(Number)), and strings have their delimiters, escapes, and
// HTML-dangerous substrings normalized.
package jsonwire

import "unicode/utf8"

// asciiEscapeKind classifies how an ASCII control character below 0x20
// must be escaped: controlShort uses a two-character escape (\n, \t, \r),
// controlUnicode uses a full \u00XX sequence.
type asciiEscapeKind int8

const (
	noEscape       asciiEscapeKind = 0
	controlShort   asciiEscapeKind = -1
	controlUnicode asciiEscapeKind = +1
)

var controlEscapeCache = func() (cache [utf8.RuneSelf]asciiEscapeKind) {
	for i := 0; i < 0x20; i++ {
		cache[i] = controlUnicode
	}
	cache['\t'] = controlShort
	cache['\n'] = controlShort
	cache['\r'] = controlShort
	return cache
}()

// NeedsShortEscape reports whether c has a two-character escape sequence
// (\t, \n, or \r) rather than requiring the full \u00XX form.
func NeedsShortEscape(c byte) bool {
	return c < utf8.RuneSelf && controlEscapeCache[c] == controlShort
}

// AppendShortEscape appends the two-character escape for one of \t, \n, \r.
func AppendShortEscape(dst []byte, c byte) []byte {
	switch c {
	case '\t':
		return append(dst, '\\', 't')
	case '\n':
		return append(dst, '\\', 'n')
	case '\r':
		return append(dst, '\\', 'r')
	default:
		return AppendUnicodeEscape(dst, rune(c))
	}
}

// AppendUnicodeEscape appends the \uXXXX escape for a UTF-16 code unit.
// Supplementary-plane scalars must be split into a surrogate pair by the
// caller before calling this for each half.
func AppendUnicodeEscape(dst []byte, unit rune) []byte {
	const hex = "0123456789abcdef"
	x := uint32(unit)
	return append(dst, '\\', 'u', hex[(x>>12)&0xf], hex[(x>>8)&0xf], hex[(x>>4)&0xf], hex[(x>>0)&0xf])
}
