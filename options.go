// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonsanitizer

import "go.uber.org/zap"

const (
	minMaximumNestingDepth     = 1
	maxMaximumNestingDepth     = 4096
	defaultMaximumNestingDepth = 64
)

// config holds the resolved set of Options for a single Sanitize call: a
// small, flat struct assembled by applying functional Options in order.
type config struct {
	maximumNestingDepth int
	logger              *zap.Logger
}

func newConfig(opts []Option) config {
	c := config{maximumNestingDepth: defaultMaximumNestingDepth, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&c)
	}
	if c.maximumNestingDepth < minMaximumNestingDepth {
		c.maximumNestingDepth = minMaximumNestingDepth
	}
	if c.maximumNestingDepth > maxMaximumNestingDepth {
		c.maximumNestingDepth = maxMaximumNestingDepth
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Option configures a call to Sanitize.
type Option func(*config)

// WithMaximumNestingDepth bounds how deeply arrays and objects may nest
// before sanitization gives up with a DepthOverflowError. Values outside
// [1, 4096] saturate to the nearest bound rather than producing an error.
func WithMaximumNestingDepth(n int) Option {
	return func(c *config) { c.maximumNestingDepth = n }
}

// WithLogger attaches a zap logger that receives one Debug record per
// token processed by the driver, carrying the byte offset, scalar value,
// parser state, and container depth. Passing nil disables logging, which
// is also the default.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) { c.logger = logger }
}
