// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func resetFlags() {
	maxDepth = 64
	verbose = false
	traceID = ""
	logger = nil
}

func TestRunSanitizeStdin(t *testing.T) {
	resetFlags()
	cmd := rootCmd
	cmd.SetArgs([]string{})
	cmd.SetIn(strings.NewReader(`{foo: 'bar'}`))
	out := &bytes.Buffer{}
	cmd.SetOut(out)

	require.NoError(t, cmd.Execute())
	require.Equal(t, `{"foo": "bar"}`, out.String())
}

func TestRunSanitizeFileArg(t *testing.T) {
	resetFlags()
	path := writeTempFile(t, `[1,,3,]`)

	cmd := rootCmd
	cmd.SetArgs([]string{path})
	out := &bytes.Buffer{}
	cmd.SetOut(out)

	require.NoError(t, cmd.Execute())
	require.Equal(t, `[1,null,3]`, out.String())
}

func TestRunSanitizeDepthOverflow(t *testing.T) {
	resetFlags()
	maxDepth = 2

	cmd := rootCmd
	cmd.SetArgs([]string{"--max-depth", "2"})
	cmd.SetIn(strings.NewReader(`[[[1]]]`))
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	err := cmd.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "maximum nesting depth")
}

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}
