// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/snargit/jsonsanitizer"
)

var (
	maxDepth int
	verbose  bool
	traceID  string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "jsonsanitize [file]",
	Short: "Rewrite permissive JSON-like input into strict, HTML-safe JSON",
	Long: `jsonsanitize reads JSON-like bytes -- possibly with comments, bare
identifiers, single-quoted strings, or trailing commas -- from a file
argument or from stdin, and writes well-formed, HTML/XML-safe JSON to
stdout.

It never rejects malformed input outright; it repairs what it can and
only fails when containers nest deeper than --max-depth allows.`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if traceID == "" {
			traceID = uuid.New().String()
		}
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
		}
		built, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		logger = built.With(zap.String("trace_id", traceID))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runSanitize,
}

func init() {
	rootCmd.Flags().IntVar(&maxDepth, "max-depth", 64, "maximum container nesting depth")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every parsed token at debug level")
	rootCmd.Flags().StringVar(&traceID, "trace-id", "", "trace id stamped on log lines (defaults to a generated UUID)")
}

func runSanitize(cmd *cobra.Command, args []string) error {
	input, err := readInput(cmd, args)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	out, err := jsonsanitizer.Sanitize(input,
		jsonsanitizer.WithMaximumNestingDepth(maxDepth),
		jsonsanitizer.WithLogger(logger),
	)
	if err != nil {
		var depthErr *jsonsanitizer.DepthOverflowError
		if errors.As(err, &depthErr) {
			return depthErr
		}
		return err
	}

	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(cmd.InOrStdin())
}
