// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buck

import (
	"reflect"
	"sort"

	"github.com/marcesengel/buck/target"
)

// internalRawBuildRule is the interned, dependency-sorted form of a
// BuildRule that the index actually stores in ruleMap. Deps are kept
// sorted ascending by handle so equality (used by diffRules) is a
// cheap slice comparison and so rendered dependency lists are
// deterministic.
type internalRawBuildRule struct {
	node node
	deps []target.Handle
}

// node pairs the host's opaque payload with the equality function used
// to compare it.
type node struct {
	value interface{}
	equal NodeEqual
}

func (n node) Equal(o node) bool {
	eq := n.equal
	if eq == nil {
		eq = reflect.DeepEqual
	}
	return eq(n.value, o.value)
}

func (r internalRawBuildRule) equal(o internalRawBuildRule) bool {
	if !r.node.Equal(o.node) {
		return false
	}
	if len(r.deps) != len(o.deps) {
		return false
	}
	for i := range r.deps {
		if r.deps[i] != o.deps[i] {
			return false
		}
	}
	return true
}

func sortHandles(hs []target.Handle) {
	sort.Slice(hs, func(i, j int) bool { return hs[i] < hs[j] })
}

// ruleNameSet is the value stored in buildPackageMap: the set of rule
// names declared in a package at some generation.
type ruleNameSet map[RuleName]struct{}

func newRuleNameSet(names ...RuleName) ruleNameSet {
	s := make(ruleNameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s ruleNameSet) sorted() []RuleName {
	out := make([]RuleName, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// internalChanges is Changes after packages have been grouped and
// their rules interned, but before deltas have been computed against
// any particular generation.
type internalChanges struct {
	added    []internalPackage
	modified []internalPackage
	removed  []PackagePath
}

type internalPackage struct {
	dir   PackagePath
	rules map[RuleName]internalNamedRule
}

type internalNamedRule struct {
	handle target.Handle
	rule   internalRawBuildRule
}

// packageDelta is the minimal update to buildPackageMap needed to move
// from generation g to g+1.
type packageDelta struct {
	dir     PackagePath
	removed bool
	names   ruleNameSet // only meaningful when !removed
}

// ruleDelta is the minimal update to ruleMap needed to move from
// generation g to g+1.
type ruleDelta struct {
	handle  target.Handle
	removed bool
	rule    internalRawBuildRule // only meaningful when !removed
}

// deltas is the output of the delta computer: the complete set of
// updates a commit requires, or an empty deltas if the commit is a
// semantic no-op.
type deltas struct {
	packages []packageDelta
	rules    []ruleDelta
}

func (d deltas) isEmpty() bool {
	return len(d.packages) == 0 && len(d.rules) == 0
}
