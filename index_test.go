// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buck

import (
	"errors"
	"sort"
	"testing"

	fx "github.com/marcesengel/buck/buckfixture"
)

func sortedStrings(ts []ExternalTarget) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = fx.NewTarget(string(t.PackagePath()), string(t.Name())).String()
	}
	sort.Strings(out)
	return out
}

func assertStringsEqual(t *testing.T, got []string, want ...string) {
	t.Helper()
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// TestInitialCommit is scenario S1 of spec.md §8.
func TestInitialCommit(t *testing.T) {
	ix := fx.NewIndex()

	err := ix.AddCommit("c1", fx.Added(fx.Package("foo/bar", fx.Rule("foo/bar", "a"), fx.Rule("foo/bar", "b"))))
	if err != nil {
		t.Fatalf("AddCommit: %v", err)
	}

	g, ok := ix.GetGeneration("c1")
	if !ok || g != 1 {
		t.Fatalf("GetGeneration(c1) = %d, %v; want 1, true", g, ok)
	}

	assertStringsEqual(t, sortedStrings(ix.GetTargets(1)), "//foo/bar:a", "//foo/bar:b")
	assertStringsEqual(t, sortedStrings(ix.GetTargetsInBasePath(1, "foo/bar")), "//foo/bar:a", "//foo/bar:b")
	if got := ix.GetTargetsInBasePath(1, "nope"); len(got) != 0 {
		t.Fatalf("GetTargetsInBasePath(1, nope) = %v, want empty", got)
	}
}

// TestNoOpCommit is scenario S2.
func TestNoOpCommit(t *testing.T) {
	ix := fx.NewIndex()
	mustCommit(t, ix, "c1", fx.Added(fx.Package("foo/bar", fx.Rule("foo/bar", "a"))))

	if err := ix.AddCommit("c2", Changes{}); err != nil {
		t.Fatalf("AddCommit(empty changes): %v", err)
	}

	g, ok := ix.GetGeneration("c2")
	if !ok || g != 1 {
		t.Fatalf("GetGeneration(c2) = %d, %v; want 1, true", g, ok)
	}
	if got := ix.generation.Load(); got != 1 {
		t.Fatalf("generation counter = %d, want 1", got)
	}
}

// TestRuleAdded is scenario S3.
func TestRuleAdded(t *testing.T) {
	ix := fx.NewIndex()
	mustCommit(t, ix, "c1", fx.Added(fx.Package("foo/bar", fx.Rule("foo/bar", "a"), fx.Rule("foo/bar", "b"))))
	mustCommit(t, ix, "c3", fx.Modified(fx.Package("foo/bar",
		fx.Rule("foo/bar", "a"), fx.Rule("foo/bar", "b"), fx.Rule("foo/bar", "c"))))

	if g, _ := ix.GetGeneration("c3"); g != 2 {
		t.Fatalf("GetGeneration(c3) = %d, want 2", g)
	}
	assertStringsEqual(t, sortedStrings(ix.GetTargets(1)), "//foo/bar:a", "//foo/bar:b")
	assertStringsEqual(t, sortedStrings(ix.GetTargets(2)), "//foo/bar:a", "//foo/bar:b", "//foo/bar:c")
}

// TestTransitiveDeps is scenario S4.
func TestTransitiveDeps(t *testing.T) {
	ix := fx.NewIndex()
	err := ix.AddCommit("c1", fx.Added(
		fx.Package("x", fx.Rule("x", "p", "//y:q")),
		fx.Package("y", fx.Rule("y", "q", "//y:r"), fx.Rule("y", "r")),
	))
	if err != nil {
		t.Fatalf("AddCommit: %v", err)
	}

	g, _ := ix.GetGeneration("c1")
	deps := ix.GetTransitiveDeps(g, fx.NewTarget("x", "p"))
	assertStringsEqual(t, sortedStrings(deps), "//y:q", "//y:r")

	fwd := ix.GetFwdDeps(g, []ExternalTarget{fx.NewTarget("x", "p")}, nil)
	assertStringsEqual(t, sortedStrings(fwd), "//y:q")
}

// TestRemoval is scenario S5.
func TestRemoval(t *testing.T) {
	ix := fx.NewIndex()
	mustCommit(t, ix, "c1", fx.Added(
		fx.Package("x", fx.Rule("x", "p", "//y:q")),
		fx.Package("y", fx.Rule("y", "q", "//y:r"), fx.Rule("y", "r")),
	))
	prevGen, _ := ix.GetGeneration("c1")

	mustCommit(t, ix, "c2", fx.Removed("y"))
	newGen, _ := ix.GetGeneration("c2")
	if newGen != prevGen+1 {
		t.Fatalf("generation after removal = %d, want %d", newGen, prevGen+1)
	}

	got := ix.GetTargetNodes(newGen, []ExternalTarget{fx.NewTarget("y", "q"), fx.NewTarget("y", "r")})
	if got[0] != nil || got[1] != nil {
		t.Fatalf("GetTargetNodes(newGen, [y:q, y:r]) = %v, want [nil, nil]", got)
	}

	if _, ok := ix.GetTargetNode(prevGen, fx.NewTarget("y", "q")); !ok {
		t.Fatalf("GetTargetNode(prevGen, y:q) not found; historical reads must be unaffected by later commits")
	}
}

// TestWildcard is scenario S6.
func TestWildcard(t *testing.T) {
	ix := fx.NewIndex()
	mustCommit(t, ix, "c1", fx.Added(
		fx.Package("a", fx.Rule("a", "x")),
		fx.Package("a/b", fx.Rule("a/b", "y")),
		fx.Package("c", fx.Rule("c", "z")),
	))
	g, _ := ix.GetGeneration("c1")

	assertStringsEqual(t, sortedStrings(ix.GetTargetsUnderBasePath(g, "a")), "//a:x", "//a/b:y")
	assertStringsEqual(t, sortedStrings(ix.GetTargetsUnderBasePath(g, "")), "//a:x", "//a/b:y", "//c:z")
}

func TestDuplicateCommit(t *testing.T) {
	ix := fx.NewIndex()
	mustCommit(t, ix, "c1", fx.Added(fx.Package("a", fx.Rule("a", "x"))))

	err := ix.AddCommit("c1", Changes{})
	var dup *DuplicateCommitError
	if !errors.As(err, &dup) {
		t.Fatalf("AddCommit with a reused commit id = %v, want *DuplicateCommitError", err)
	}
}

func TestPackageAlreadyPresent(t *testing.T) {
	ix := fx.NewIndex()
	mustCommit(t, ix, "c1", fx.Added(fx.Package("a", fx.Rule("a", "x"))))

	err := ix.AddCommit("c2", fx.Added(fx.Package("a", fx.Rule("a", "y"))))
	var already *PackageAlreadyPresentError
	if !errors.As(err, &already) {
		t.Fatalf("AddCommit re-adding an existing package = %v, want *PackageAlreadyPresentError", err)
	}
}

func TestPackageAbsent(t *testing.T) {
	ix := fx.NewIndex()
	if err := ix.AddCommit("c1", fx.Removed("nope")); err == nil {
		t.Fatalf("AddCommit removing a never-added package succeeded, want PackageAbsentError")
	}
}

func TestHistoricalStability(t *testing.T) {
	ix := fx.NewIndex()
	mustCommit(t, ix, "c1", fx.Added(fx.Package("a", fx.Rule("a", "x"))))
	before := sortedStrings(ix.GetTargets(1))

	mustCommit(t, ix, "c2", fx.Added(fx.Package("b", fx.Rule("b", "y"))))
	mustCommit(t, ix, "c3", fx.Modified(fx.Package("a", fx.Rule("a", "x"), fx.Rule("a", "z"))))

	after := sortedStrings(ix.GetTargets(1))
	assertStringsEqual(t, after, before...)
}

func TestGenerationFromFutureClampsToCurrent(t *testing.T) {
	ix := fx.NewIndex()
	mustCommit(t, ix, "c1", fx.Added(fx.Package("a", fx.Rule("a", "x"))))

	got := ix.GetTargets(9999)
	assertStringsEqual(t, sortedStrings(got), "//a:x")
}

func mustCommit(t *testing.T, ix *Index, c Commit, changes Changes) {
	t.Helper()
	if err := ix.AddCommit(c, changes); err != nil {
		t.Fatalf("AddCommit(%v): %v", c, err)
	}
}
