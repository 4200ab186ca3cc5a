// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buck

import (
	"testing"

	"github.com/marcesengel/buck/target"
)

func TestComputeDeltasNoOpModifiedEmitsNothing(t *testing.T) {
	bpm := newGenerationMap[PackagePath, ruleNameSet]()
	rm := newGenerationMap[target.Handle, internalRawBuildRule]()
	in := target.New[internalTarget]()

	a := internalTarget{pkg: "dir", name: "a"}
	h := in.Insert(a)
	bpm.addVersion("dir", newRuleNameSet("a"), true, 1)
	rm.addVersion(h, internalRawBuildRule{node: node{value: "a"}}, true, 1)

	changes := internalChanges{
		modified: []internalPackage{{
			dir: "dir",
			rules: map[RuleName]internalNamedRule{
				"a": {handle: h, rule: internalRawBuildRule{node: node{value: "a"}}},
			},
		}},
	}

	d, err := computeDeltas(bpm, rm, in, 1, changes)
	if err != nil {
		t.Fatalf("computeDeltas: %v", err)
	}
	if !d.isEmpty() {
		t.Fatalf("computeDeltas on an identical modified package = %+v, want empty", d)
	}
}

func TestComputeDeltasModifiedRuleChanged(t *testing.T) {
	bpm := newGenerationMap[PackagePath, ruleNameSet]()
	rm := newGenerationMap[target.Handle, internalRawBuildRule]()
	in := target.New[internalTarget]()

	a := internalTarget{pkg: "dir", name: "a"}
	h := in.Insert(a)
	bpm.addVersion("dir", newRuleNameSet("a"), true, 1)
	rm.addVersion(h, internalRawBuildRule{node: node{value: "v1"}}, true, 1)

	changes := internalChanges{
		modified: []internalPackage{{
			dir: "dir",
			rules: map[RuleName]internalNamedRule{
				"a": {handle: h, rule: internalRawBuildRule{node: node{value: "v2"}}},
			},
		}},
	}

	d, err := computeDeltas(bpm, rm, in, 1, changes)
	if err != nil {
		t.Fatalf("computeDeltas: %v", err)
	}
	if len(d.rules) != 1 || d.rules[0].handle != h || d.rules[0].removed {
		t.Fatalf("computeDeltas on a changed rule = %+v, want one Updated rule delta", d)
	}
}

func TestComputeDeltasAddedOverExisting(t *testing.T) {
	bpm := newGenerationMap[PackagePath, ruleNameSet]()
	rm := newGenerationMap[target.Handle, internalRawBuildRule]()
	in := target.New[internalTarget]()
	bpm.addVersion("dir", newRuleNameSet("a"), true, 1)

	changes := internalChanges{added: []internalPackage{{dir: "dir"}}}
	if _, err := computeDeltas(bpm, rm, in, 1, changes); err == nil {
		t.Fatalf("computeDeltas adding an already-present package succeeded, want PackageAlreadyPresentError")
	}
}

func TestComputeDeltasRemovedNeverAdded(t *testing.T) {
	bpm := newGenerationMap[PackagePath, ruleNameSet]()
	rm := newGenerationMap[target.Handle, internalRawBuildRule]()
	in := target.New[internalTarget]()

	changes := internalChanges{removed: []PackagePath{"dir"}}
	if _, err := computeDeltas(bpm, rm, in, 1, changes); err == nil {
		t.Fatalf("computeDeltas removing a never-added package succeeded, want PackageAbsentError")
	}
}

func TestDiffRulesIsEmptyIffSetsEqual(t *testing.T) {
	old := map[target.Handle]internalRawBuildRule{
		1: {node: node{value: "a"}},
		2: {node: node{value: "b"}},
	}
	same := map[target.Handle]internalRawBuildRule{
		1: {node: node{value: "a"}},
		2: {node: node{value: "b"}},
	}
	if diff := diffRules(old, same); len(diff) != 0 {
		t.Fatalf("diffRules of equal sets = %+v, want empty", diff)
	}

	changed := map[target.Handle]internalRawBuildRule{
		1: {node: node{value: "a"}},
		3: {node: node{value: "c"}},
	}
	diff := diffRules(old, changed)
	if len(diff) != 2 {
		t.Fatalf("diffRules(old, changed) = %+v, want 2 entries (remove 2, add 3)", diff)
	}
}
