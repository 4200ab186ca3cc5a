// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buck

import "sort"

// generationMap is a history-preserving K -> V dictionary: for every
// key it has ever seen it keeps the full ordered sequence of values
// that key has held, one per generation it changed at. It has no
// locking of its own — every method documents which of the Index's
// rwLock sections it must be called under, the same division of labor
// the teacher's singleSourceCacheMemory uses internally, just hoisted
// up to the caller since here two generationMaps must be mutated
// atomically as a unit (spec.md §5).
type generationMap[K comparable, V any] struct {
	timelines map[K][]genEntry[V]
}

type genEntry[V any] struct {
	generation uint32
	value      V
	present    bool
}

func newGenerationMap[K comparable, V any]() *generationMap[K, V] {
	return &generationMap[K, V]{timelines: make(map[K][]genEntry[V])}
}

// getVersion returns the value recorded for k at the latest generation
// <= g, or the zero value and false if k has no such entry (never
// seen, or tombstoned at or before g).
//
// Must be called while holding at least a read lock on the Index.
func (m *generationMap[K, V]) getVersion(k K, g uint32) (V, bool) {
	tl, ok := m.timelines[k]
	if !ok {
		var zero V
		return zero, false
	}
	e, ok := latestAt(tl, g)
	if !ok || !e.present {
		var zero V
		return zero, false
	}
	return e.value, true
}

// addVersion appends a new entry for k. g must be strictly greater
// than the generation of k's last entry, if any; callers within this
// package always arrange that by construction (a single commit never
// touches the same key twice), so a violation here is a programming
// error and panics rather than returning an error that would have to
// be threaded through every caller.
//
// Must be called while holding the Index's write lock.
func (m *generationMap[K, V]) addVersion(k K, v V, present bool, g uint32) {
	tl := m.timelines[k]
	if n := len(tl); n > 0 && tl[n-1].generation >= g {
		panic("generationMap: addVersion called with non-increasing generation")
	}
	m.timelines[k] = append(tl, genEntry[V]{generation: g, value: v, present: present})
}

// getEntries returns (k, v) for every key whose latest entry at or
// before g is present, optionally restricted to keys matching pred.
//
// Must be called while holding at least a read lock on the Index.
func (m *generationMap[K, V]) getEntries(g uint32, pred func(K) bool) []entry[K, V] {
	out := make([]entry[K, V], 0, len(m.timelines))
	for k, tl := range m.timelines {
		if pred != nil && !pred(k) {
			continue
		}
		e, ok := latestAt(tl, g)
		if !ok || !e.present {
			continue
		}
		out = append(out, entry[K, V]{Key: k, Value: e.value})
	}
	return out
}

// keys returns every key the map has ever recorded an entry for,
// including ones tombstoned at every generation since. Used only by
// Index's linear-scan fallback for GetTargetsUnderBasePath when the
// radix-backed packagePathIndex is disabled.
//
// Must be called while holding at least a read lock on the Index.
func (m *generationMap[K, V]) keys() []K {
	out := make([]K, 0, len(m.timelines))
	for k := range m.timelines {
		out = append(out, k)
	}
	return out
}

// len returns the number of distinct keys the map has ever recorded an
// entry for, tombstoned or not. Used by Index.Stats for its per-map key
// counts.
//
// Must be called while holding at least a read lock on the Index.
func (m *generationMap[K, V]) len() int {
	return len(m.timelines)
}

// entry is one resolved (key, value) pair returned by getEntries.
type entry[K comparable, V any] struct {
	Key   K
	Value V
}

// latestAt binary-searches tl (sorted ascending by generation, as
// addVersion guarantees) for the last entry with generation <= g.
func latestAt[V any](tl []genEntry[V], g uint32) (genEntry[V], bool) {
	i := sort.Search(len(tl), func(i int) bool { return tl[i].generation > g })
	if i == 0 {
		var zero genEntry[V]
		return zero, false
	}
	return tl[i-1], true
}
