// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jsonsanitizer rewrites a byte sequence that merely purports to
// be JSON -- or some permissive JSON-like dialect with comments, bare
// identifiers, single-quoted strings, trailing commas, and the like --
// into a byte sequence that is well-formed, strict JSON and additionally
// safe to embed inside an HTML <script> block, an HTML attribute, or an
// XML document.
//
// Sanitize never rejects input. It repairs it: missing commas, missing
// colons, missing values, and unbalanced containers are all filled in or
// closed off, and the two kinds of malformed input it cannot locally
// repair -- a comma with nothing open to hold it, and nesting past the
// configured limit -- are handled by discarding the unrecoverable tail
// (the former) or failing outright (the latter), never by emitting
// something a JSON parser would reject.
package jsonsanitizer

import (
	"bytes"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/snargit/jsonsanitizer/internal/jsonwire"
	"github.com/snargit/jsonsanitizer/jsontext"
)

// sanitizer holds the mutable state of a single call to Sanitize: the
// container stack, the current parser state, and the edit buffer that
// accumulates repairs. A sync.Pool of these (pools.go) avoids allocating a
// fresh container stack on every call.
type sanitizer struct {
	cfg    config
	input  []byte
	reader *jsontext.Reader
	buf    *jsontext.Buffer
	stack  []frame
	state  parserState
	err    error
	halted bool // set once an UnbracketedComma has elided the remainder
}

func (s *sanitizer) reset() {
	s.cfg = config{}
	s.input = nil
	s.reader = nil
	s.buf = nil
	s.stack = s.stack[:0]
	s.state = startArray
	s.err = nil
	s.halted = false
}

// Sanitize rewrites input into strict, HTML-safe JSON. The returned slice
// is a borrowed view of input when nothing needed rewriting (the fast
// path), and an owned buffer otherwise; in either case the slice remains
// valid independently of the sanitizer instance, which this function does
// not expose.
//
// The only error Sanitize returns is *DepthOverflowError, raised when
// input nests containers deeper than WithMaximumNestingDepth allows.
// Every other kind of malformation -- unterminated strings, bad escapes,
// missing structure, an unbracketed comma -- is repaired in place rather
// than rejected.
func Sanitize(input []byte, opts ...Option) ([]byte, error) {
	cfg := newConfig(opts)
	s := getSanitizer()
	defer putSanitizer(s)

	s.cfg = cfg
	s.input = input
	s.reader = jsontext.NewReader(input)
	s.buf = jsontext.NewBuffer(input)
	s.state = startArray

	s.run()
	if s.err != nil {
		return nil, s.err
	}
	return s.buf.Finish(len(input)), nil
}

// run scans s.input once, dispatching each token to the appropriate
// handler, until either the input is exhausted, an UnbracketedComma
// halts the scan early, or a DepthOverflowError aborts it.
func (s *sanitizer) run() {
	pos := 0
	n := len(s.input)
	for pos < n && !s.halted {
		c := s.input[pos]
		s.logToken(pos, c)
		switch {
		case isJSONWhitespace(c):
			pos++
		case c == '"' || c == '\'':
			pos = s.handleString(pos)
		case c == '(' || c == ')':
			s.buf.Elide(pos, pos+1)
			pos++
		case c == '{' || c == '[':
			pos = s.handleOpener(pos, c)
		case c == '}' || c == ']':
			pos = s.handleCloser(pos, c)
		case c == ',':
			pos = s.handleComma(pos)
		case c == ':':
			pos = s.handleColon(pos)
		case c == '/':
			pos = s.handleComment(pos)
		default:
			pos = s.handleWord(pos)
		}
		if s.err != nil {
			return
		}
	}
	// Finalization runs even after an UnbracketedComma halt: the tail is
	// gone, but whatever was scanned before it still needs its closers --
	// and a halt before any token at all still yields a null.
	s.finish(pos)
}

func (s *sanitizer) logToken(pos int, c byte) {
	if !s.cfg.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	ch := rune(c)
	if c >= utf8.RuneSelf {
		ch, _ = s.reader.Decode(pos)
	}
	s.cfg.logger.Debug("token",
		zap.Int("i", pos),
		zap.Int("ch", int(ch)),
		zap.Int("state", int(s.state)),
		zap.Int("depth", len(s.stack)),
	)
}

// requireValue is the value-expected transition, run before every
// value-or-key token. canBeKey
// is true for every token kind that may stand in as an object key (quoted
// strings, bare words, numbers, keywords); only container openers pass
// false, since an opener can never itself serve as a key.
//
// It reports whether the current token must be discarded because it
// landed on an UnbracketedComma: a value was just completed at the top
// level (depth 0) and this token follows it with no comma between them,
// and the comma that would separate the two has no container to belong to.
func (s *sanitizer) requireValue(pos int, canBeKey bool) (abort bool) {
	switch s.state {
	case startMap, beforeKey:
		if !canBeKey {
			s.buf.Insert(pos, `"":`)
		}
		s.state = afterKey
	case afterKey:
		s.buf.Insert(pos, ":")
		s.state = afterValue
	case beforeValue:
		s.state = afterValue
	case afterValue:
		if canBeKey {
			s.buf.Insert(pos, ",")
			s.state = afterKey
		} else {
			s.buf.Insert(pos, `,"":`)
			s.state = afterValue
		}
	case afterElement:
		if len(s.stack) == 0 {
			s.elideUnbracketedComma(pos)
			return true
		}
		s.buf.Insert(pos, ",")
		s.state = afterElement
	default: // startArray, beforeElement
		s.state = afterElement
	}
	return false
}

// elideUnbracketedComma is the UnbracketedComma recovery: a result flag
// the caller checks rather than a raised error, with the tail from pos
// to end-of-input dropped from the output.
func (s *sanitizer) elideUnbracketedComma(pos int) {
	s.buf.Elide(pos, len(s.input))
	s.halted = true
}

func (s *sanitizer) handleString(pos int) int {
	if s.requireValue(pos, true) {
		return len(s.input)
	}
	quote := s.input[pos]
	end := pos + 1
	for end < len(s.input) {
		if s.input[end] == '\\' && end+1 < len(s.input) {
			end += 2
			continue
		}
		if s.input[end] == quote {
			break
		}
		end++
	}

	var raw []byte
	var next int
	if end < len(s.input) {
		raw = s.input[pos : end+1]
		next = end + 1
	} else {
		// Unterminated: synthesize the closing delimiter so the
		// normalizer still sees a well-formed [quote, body, quote] span.
		raw = append(append([]byte(nil), s.input[pos:end]...), quote)
		next = end
	}

	out, changed := jsonwire.NormalizeString(raw)
	if changed || next != end+1 {
		s.buf.Replace(pos, next, string(out))
	}
	return next
}

func (s *sanitizer) handleOpener(pos int, c byte) int {
	if s.requireValue(pos, false) {
		return len(s.input)
	}
	if len(s.stack) >= s.cfg.maximumNestingDepth {
		s.err = &DepthOverflowError{MaximumNestingDepth: s.cfg.maximumNestingDepth, Offset: pos}
		return pos
	}
	isObject := c == '{'
	s.stack = append(s.stack, frame{isObject: isObject})
	if isObject {
		s.state = startMap
	} else {
		s.state = startArray
	}
	return pos + 1
}

func (s *sanitizer) handleCloser(pos int, c byte) int {
	if len(s.stack) == 0 {
		s.buf.Elide(pos, len(s.input))
		return len(s.input)
	}
	switch s.state {
	case beforeValue:
		s.buf.Insert(pos, "null")
	case beforeElement, beforeKey:
		s.buf.ElideTrailingComma(pos)
	case afterKey:
		s.buf.Insert(pos, ":null")
	}

	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]

	want := byte('}')
	if !top.isObject {
		want = ']'
	}
	if c != want {
		s.buf.Replace(pos, pos+1, string(want))
	}

	if len(s.stack) > 0 && s.stack[len(s.stack)-1].isObject {
		s.state = afterValue
	} else {
		s.state = afterElement
	}
	return pos + 1
}

func (s *sanitizer) handleComma(pos int) int {
	if len(s.stack) == 0 {
		s.elideUnbracketedComma(pos)
		return len(s.input)
	}
	switch s.state {
	case afterElement:
		s.state = beforeElement
	case afterValue:
		s.state = beforeKey
	case startArray, beforeElement:
		s.buf.Insert(pos, "null")
		s.state = beforeElement
	case beforeValue:
		s.buf.Insert(pos, "null")
		s.state = beforeKey
	default: // startMap, beforeKey, afterKey
		s.buf.Elide(pos, pos+1)
	}
	return pos + 1
}

func (s *sanitizer) handleColon(pos int) int {
	if s.state == afterKey {
		s.state = beforeValue
	} else {
		s.buf.Elide(pos, pos+1)
	}
	return pos + 1
}

func (s *sanitizer) handleComment(pos int) int {
	n := len(s.input)
	if pos+1 < n && s.input[pos+1] == '/' {
		end := pos + 2
		for end < n && !isLineBreak(s.input, end) {
			end++
		}
		if end < n {
			// The terminating line break itself is part of the elided
			// comment.
			end += lineBreakLen(s.input, end)
		}
		s.buf.Elide(pos, end)
		return end
	}
	if pos+1 < n && s.input[pos+1] == '*' {
		end := pos + 2
		for end+1 < n && !(s.input[end] == '*' && s.input[end+1] == '/') {
			end++
		}
		if end+1 < n {
			end += 2
		} else {
			end = n
		}
		s.buf.Elide(pos, end)
		return end
	}
	// A lone '/' that starts neither a line comment nor a block comment
	// is not a recognized token; drop it like any other stray punctuation.
	s.buf.Elide(pos, pos+1)
	return pos + 1
}

// isLineBreak reports whether the scalar at pos is one of the four
// characters that end a line comment: \n, \r, U+2028, or U+2029.
func isLineBreak(input []byte, pos int) bool {
	switch input[pos] {
	case '\n', '\r':
		return true
	case 0xE2:
		return pos+2 < len(input) && input[pos+1] == 0x80 && (input[pos+2] == 0xA8 || input[pos+2] == 0xA9)
	default:
		return false
	}
}

// lineBreakLen reports the byte width of the line break recognized by
// isLineBreak at pos.
func lineBreakLen(input []byte, pos int) int {
	if input[pos] == 0xE2 {
		return 3
	}
	return 1
}

// handleWord is the fallback token handler: the maximal run of
// [A-Za-z0-9+\-._$] starting at pos is classified as a number, a keyword,
// a key, or a bare value, and rewritten accordingly.
//
// The classification of the run (number / keyword / neither) is decided
// once, from the unextended word-character run, before requireValue runs;
// whether the token ends up filling a key slot is decided only afterward,
// from the resulting state. A keyword used where a key is expected is
// therefore quoted as a plain string rather than passed through bare:
// the keyword-vs-string choice is only ever consulted outside the key
// branch.
func (s *sanitizer) handleWord(pos int) int {
	end := pos
	for end < len(s.input) && isWordByte(s.input[end]) {
		end++
	}
	if end == pos {
		// Not a recognized token class; drop the whole scalar, not just
		// one byte of a multi-byte encoding.
		n := s.reader.RuneLen(pos)
		s.buf.Elide(pos, pos+n)
		return pos + n
	}

	isNumberStart := isNumberLead(s.input[pos])
	keyword := !isNumberStart && isKeyword(s.input[pos:end])

	if s.requireValue(pos, true) {
		return len(s.input)
	}

	if !isNumberStart && !keyword {
		end = s.extendBareValue(end)
	}
	word := s.input[pos:end]

	if s.state == afterKey {
		if isNumberStart {
			s.replaceNumberAsKey(pos, end, word)
		} else {
			s.quoteBareWord(pos, end, word)
		}
		return end
	}

	switch {
	case isNumberStart:
		out := jsonwire.NormalizeNumber(word)
		if !bytes.Equal(out, word) {
			s.buf.Replace(pos, end, string(out))
		}
	case !keyword:
		s.quoteBareWord(pos, end, word)
	}
	return end
}

// extendBareValue absorbs additional bytes into a bare value token beyond
// its initial word-character run, stopping only at whitespace or a
// JSON-structural byte, and optionally swallowing one trailing '"' --
// the recovery for inputs like `{a: foo#bar"}` where a bareword value
// runs into stray punctuation before the next real delimiter.
func (s *sanitizer) extendBareValue(end int) int {
	for end < len(s.input) && !isJSONSpecial(s.input[end]) {
		end++
	}
	if end < len(s.input) && s.input[end] == '"' {
		end++
	}
	return end
}

// isJSONSpecial reports bytes that terminate a bare value token: any
// ASCII byte at or below space, plus the structural JSON punctuation.
// Multi-byte sequences are absorbed into the token.
func isJSONSpecial(c byte) bool {
	if c <= ' ' {
		return true
	}
	switch c {
	case '"', ',', ':', '[', ']', '{', '}':
		return true
	default:
		return false
	}
}

func (s *sanitizer) replaceNumberAsKey(start, end int, word []byte) {
	norm := jsonwire.NormalizeNumber(word)
	// The canonicalization flag is intentionally ignored: a number whose
	// exponent does not fit a native int is simply quoted in its
	// normalized form instead.
	canon, _ := jsonwire.CanonicalizeNumber(norm)
	out := make([]byte, 0, len(canon)+2)
	out = append(out, '"')
	out = append(out, canon...)
	out = append(out, '"')
	s.buf.Replace(start, end, string(out))
}

// quoteBareWord wraps word in quotes and runs it through the same
// string normalizer that handles quoted tokens, so an unquoted key or
// value gets the identical escape and HTML-trigram treatment as one that
// arrived already delimited.
func (s *sanitizer) quoteBareWord(start, end int, word []byte) {
	raw := make([]byte, 0, len(word)+2)
	raw = append(raw, '"')
	raw = append(raw, word...)
	raw = append(raw, '"')
	out, _ := jsonwire.NormalizeString(raw)
	s.buf.Replace(start, end, string(out))
}

// finish applies the end-of-input fixups: synthesize a lone top-level
// null for empty input, patch up whatever dangling comma or missing
// value the final state implies, and close every container still open
// on the stack.
func (s *sanitizer) finish(pos int) {
	if s.state == startArray && len(s.stack) == 0 {
		s.buf.Insert(pos, "null")
	}
	switch s.state {
	case beforeElement, beforeKey:
		s.buf.ElideTrailingComma(pos)
	case afterKey:
		s.buf.Insert(pos, ":null")
	case beforeValue:
		s.buf.Insert(pos, "null")
	}
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].isObject {
			s.buf.Insert(pos, "}")
		} else {
			s.buf.Insert(pos, "]")
		}
	}
	s.stack = s.stack[:0]
}

func isJSONWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

func isWordByte(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c == '+' || c == '-' || c == '.' || c == '_' || c == '$':
		return true
	default:
		return false
	}
}

func isNumberLead(c byte) bool {
	return (c >= '0' && c <= '9') || c == '+' || c == '-' || c == '.'
}

// isKeyword matches word against the three JSON literal keywords by
// exact, case-sensitive byte comparison. Nothing looser will do: a
// substring or length check would let words like nullx or Rue slip
// through unquoted.
func isKeyword(word []byte) bool {
	switch string(word) {
	case "true", "false", "null":
		return true
	default:
		return false
	}
}
