// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonsanitizer

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeConcreteScenarios(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty input", "", "null"},
		{"single-quoted string", "'foo'", "\"foo\""},
		{"trailing and double comma", "[1,,3,]", "[1,null,3]"},
		{"unterminated string and bare key", "{ foo: 'bar", "{ \"foo\": \"bar\"}"},
		{"script trigram", "\"<script>x</script>\"", "\"\\u003cscript>x\\u003c/script>\""},
		{"octal literal with 8/9 digits", "-016923547559", "-2035208041"},
		{"number key gets canonicalized", "{10e-100:0}", "{\"1e-99\":0}"},
		{"signed fraction key", "{+.5e-2:0}", "{\"0.005\":0}"},
		{"line comment", "//c\nfalse", "false"},
		{"missing comma between array elements", "[true false]", "[true ,false]"},
		{"cdata trigram", "']]>'", "\"\\u005d]>\""},
		{"stray closing angle bracket", "[[0]]>", "[[0]]"},
		{"unbracketed comma before any token", ",", "null"},
		{"surrounding parentheses", "(5)", "5"},
		{"bare html comment close", "-->", "-0"},
		{"bare html comment open", "<!--", "-0"},
		{"bare script tag", "<script", "\"script\""},
		{"quoted open script tag", "\"<script\"", "\"\\u003cscript\""},
		{"comment inside comment trigrams", "\"<!--<script>\"", "\"\\u003c!--\\u003cscript>\""},
		{"cdata inside brackets", "'<[[]]>'", "\"<[[\\u005d]>\""},
		{"html comment close in string", "\"-->\"", "\"--\\u005d\""},
		{"missing key and unterminated containers", "[{{},\xc3\xa4", "[{\"\":{}}]"},
		{"block comment before closer", "[1, /*c*/ ]", "[1  ]"},
		{"large exponent key", "{1e21:0}", "{\"1e+21\":0}"},
		{"negative zero key", "{-0:0}", "{\"0\":0}"},
		{"unparseable exponent key", "{1e0001234567890123456789123456789123456789:0}", "{\"1e0001234567890123456789123456789123456789\":0}"},
		{"hex literal", "0x1A", "26"},
		{"octal literals", "[012,018]", "[10,8]"},
		{"control characters", "'\x00\x08\x1f'", "\"\\u0000\\u0008\\u001f\""},
		{"supplementary plane and lone surrogates", "'\U00010000\xed\xb0\x80\xed\xa0\x80'", "\"\U00010000\\udc00\\ud800\""},
		{"bom noncharacters", "'\ufffd\ufffe\uffff'", "\"\ufffd\\ufffe\\uffff\""},
		{"double trailing comma in object", "{\"a\":1,,}", "{\"a\":1}"},
		{"legacy escapes", "\"\\x41\\101\\'\"", "\"\\u0041\\u0041'\""},
		{"already strict stays put", "[ { \"description\": \"aa##############aa\" }, 1 ]", "[ { \"description\": \"aa##############aa\" }, 1 ]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Sanitize([]byte(tc.in))
			require.NoError(t, err)
			require.Equal(t, tc.want, string(got))
		})
	}
}

func TestSanitizeDepthOverflow(t *testing.T) {
	input := []byte(strings.Repeat("{", 65) + strings.Repeat("}", 65))

	_, err := Sanitize(input, WithMaximumNestingDepth(64))
	var depthErr *DepthOverflowError
	require.ErrorAs(t, err, &depthErr)
	require.Equal(t, 64, depthErr.MaximumNestingDepth)
	require.ErrorIs(t, err, Error)

	// Each nested brace after the first fills a value slot in an object,
	// so it gets an empty key supplied for it.
	out, err := Sanitize(input, WithMaximumNestingDepth(65))
	require.NoError(t, err)
	want := "{" + strings.Repeat(`"":{`, 64) + strings.Repeat("}", 65)
	require.Equal(t, want, string(out))
}

func TestSanitizeUnbracketedComma(t *testing.T) {
	got, err := Sanitize([]byte(`1,2`))
	require.NoError(t, err)
	require.Equal(t, "1", string(got))
}

func TestSanitizeAlreadyStrictIsZeroCopy(t *testing.T) {
	input := []byte(`{"a":[1,2,3],"b":"c"}`)
	got, err := Sanitize(input)
	require.NoError(t, err)
	require.Equal(t, string(input), string(got))
	// Fast path returns a view into input itself, not a copy.
	require.Same(t, &input[0], &got[0])
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"'foo'",
		"[1,,3,]",
		"{ foo: 'bar",
		"\"<script>x</script>\"",
		"-016923547559",
		"{10e-100:0}",
		"//c\nfalse",
		"[true false]",
		"']]>'",
		"[[0]]>",
		"{{{}}}",
		",,,",
		",",
		"-->",
		"\"<!-->\"",
		"[1, /*c*/ ]",
		"{1e21:0}",
		"'a\"b'",
		"\"ab\\\"",
		"[{{},\xc3\xa4",
		"'\ufffe'",
		"'\xed\xb0\x80'",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			once, err := Sanitize([]byte(in))
			require.NoError(t, err)
			twice, err := Sanitize(once)
			require.NoError(t, err)
			require.Equal(t, string(once), string(twice))
		})
	}
}

func TestSanitizeDepthClampsToRange(t *testing.T) {
	input := []byte(`[1]`)
	out, err := Sanitize(input, WithMaximumNestingDepth(0))
	require.NoError(t, err)
	require.Equal(t, "[1]", string(out))

	out, err = Sanitize(input, WithMaximumNestingDepth(100000))
	require.NoError(t, err)
	require.Equal(t, "[1]", string(out))
}

func TestSanitizeNeverEmitsDangerousTrigrams(t *testing.T) {
	inputs := []string{
		`"<!-- comment -->"`,
		`"]]>"`,
		`"]]]>"`,
		`"<!-->"`,
		`"<script>alert(1)</script>"`,
		`"<ScRiPt>"`,
		`"</script src=x>"`,
		`'-->'`,
	}
	dangerous := []string{"<!--", "-->", "]]>", "<script", "</script"}
	for _, in := range inputs {
		out, err := Sanitize([]byte(in))
		require.NoError(t, err)
		for _, bad := range dangerous {
			require.NotContains(t, string(out), bad)
		}
	}
}

func TestSanitizeMismatchedClosers(t *testing.T) {
	got, err := Sanitize([]byte(`[1,2}`))
	require.NoError(t, err)
	require.Equal(t, "[1,2]", string(got))
}

func TestSanitizeStrayParenIsElided(t *testing.T) {
	got, err := Sanitize([]byte(`[1,2)]`))
	require.NoError(t, err)
	require.Equal(t, "[1,2]", string(got))
}

func TestSanitizeMissingColon(t *testing.T) {
	got, err := Sanitize([]byte(`{"a" 1}`))
	require.NoError(t, err)
	require.Equal(t, `{"a" :1}`, string(got))
}

func TestSanitizeNestedUnterminatedContainers(t *testing.T) {
	got, err := Sanitize([]byte(`{"a":[1,2`))
	require.NoError(t, err)
	require.Equal(t, `{"a":[1,2]}`, string(got))
}

func TestWithLoggerNilDisablesLogging(t *testing.T) {
	got, err := Sanitize([]byte(`[1]`), WithLogger(nil))
	require.NoError(t, err)
	require.Equal(t, "[1]", string(got))
}

func TestWithLoggerTracesTokens(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	_, err := Sanitize([]byte(`[1]`), WithLogger(zap.New(core)))
	require.NoError(t, err)
	// One record per dispatched token: '[', '1', ']'.
	require.Equal(t, 3, logs.Len())
	first := logs.All()[0].ContextMap()
	require.EqualValues(t, 0, first["i"])
	require.EqualValues(t, '[', first["ch"])
}

func FuzzSanitize(f *testing.F) {
	seeds := []string{
		"",
		"'foo'",
		"[1,,3,]",
		"{ foo: 'bar",
		"\"<script>x</script>\"",
		"-016923547559",
		"{10e-100:0}",
		"//c\nfalse",
		"[true false]",
		"']]>'",
		"[[0]]>",
		"{{{}}}",
		",,,",
		",",
		"-->",
		"\"<!-->\"",
		"[1, /*c*/ ]",
		"{1e21:0}",
		"'a\"b'",
		"\"ab\\\"",
		"[{{},\xc3\xa4",
		"'\ufffe'",
		"'\xed\xb0\x80'",
		"{\"a\":1,\"b\":[true,false,null]}",
		"{+.5e-2:0}",
		"'<[[]]>'",
		"0x1A",
		"[012,018]",
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}
	f.Fuzz(func(t *testing.T, in []byte) {
		once, err := Sanitize(in, WithMaximumNestingDepth(32))
		if err != nil {
			var depthErr *DepthOverflowError
			if !errors.As(err, &depthErr) {
				t.Fatalf("unexpected error: %v", err)
			}
			return
		}
		twice, err := Sanitize(once, WithMaximumNestingDepth(32))
		if err != nil {
			t.Fatalf("re-sanitize failed: %v", err)
		}
		if string(once) != string(twice) {
			t.Fatalf("not idempotent:\nonce:  %q\ntwice: %q", once, twice)
		}
	})
}
