// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buck

import (
	"sync"

	radix "github.com/armon/go-radix"
)

// packagePathIndex is a typed wrapper around a radix tree of every
// package path buildPackageMap has ever recorded a (possibly since
// tombstoned) entry for. It exists purely to make
// Index.GetTargetsUnderBasePath a radix prefix walk instead of a scan
// of every key buildPackageMap has ever seen, the same role the
// teacher's deducerTrie (gps/typed_radix.go) plays for import-path
// deduction: a thin, mutex-guarded radix.Tree with a value type this
// package actually cares about.
//
// Package paths are append-only (spec.md §3's "Lifecycles": generation
// map entries are append-only, a path is never un-recorded), so this
// index only ever grows; it never needs to delete.
type packagePathIndex struct {
	mu sync.RWMutex
	t  *radix.Tree
}

func newPackagePathIndex() *packagePathIndex {
	return &packagePathIndex{t: radix.New()}
}

// record ensures p is present in the index. Safe to call redundantly.
func (idx *packagePathIndex) record(p PackagePath) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.t.Insert(string(p), struct{}{})
}

// walkPrefix calls fn for every recorded package path that is base
// itself or lives under it (by path-segment prefix, not raw string
// prefix — see PackagePath.HasPrefix).
func (idx *packagePathIndex) walkPrefix(base PackagePath, fn func(PackagePath)) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	// WalkPrefix on the raw string prefix over-selects (e.g. "foo"
	// would also match "foo2"); radix.Tree doesn't know about our
	// '/'-segment semantics, so walk the raw string prefix and filter.
	idx.t.WalkPrefix(string(base), func(s string, _ interface{}) bool {
		p := PackagePath(s)
		if p.HasPrefix(base) {
			fn(p)
		}
		return false
	})
}
