// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonsanitizer

import "sync"

// sanitizerPool recycles *sanitizer values across calls to Sanitize so
// that a call does not pay for a fresh container-stack allocation.
var sanitizerPool = sync.Pool{New: func() any { return new(sanitizer) }}

func getSanitizer() *sanitizer {
	return sanitizerPool.Get().(*sanitizer)
}

func putSanitizer(s *sanitizer) {
	s.reset()
	sanitizerPool.Put(s)
}
