// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonsanitizer

// parserState is one of the eight grammar positions the driver can be in
// while scanning a single container level. Knowing only "is a name
// expected next" would not be enough to repair: the driver must also
// distinguish the position immediately after an opener (where a bare
// closer is legal and no comma is expected) from the position after an
// element (where a missing comma must be inserted).
type parserState uint8

const (
	startArray parserState = iota
	beforeElement
	afterElement
	startMap
	beforeKey
	afterKey
	beforeValue
	afterValue
)

// frame is one entry in the container stack: whether the open container is
// an object (isObject) or an array.
type frame struct {
	isObject bool
}
