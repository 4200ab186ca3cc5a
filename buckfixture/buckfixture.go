// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package buckfixture builds deterministic buck.Changes, buck.BuildPackage,
// and buck.BuildRule values for tests, the way the teacher's depspecSM /
// basicFixtures table builds dependency-graph fixtures for gps's solver
// tests without a mock framework: plain constructors over plain structs.
package buckfixture

import (
	"fmt"
	"strings"

	"github.com/marcesengel/buck"
)

// Target is the ExternalTarget every fixture-built value uses. Its
// identity is exactly its package and name, matching spec.md §4.1.
type Target struct {
	Pkg  buck.PackagePath
	Rule buck.RuleName
}

func (t Target) PackagePath() buck.PackagePath { return t.Pkg }
func (t Target) Name() buck.RuleName           { return t.Rule }
func (t Target) String() string                { return fmt.Sprintf("//%s:%s", t.Pkg, t.Rule) }

// NewTarget builds a Target from plain strings, e.g. NewTarget("foo/bar", "a").
func NewTarget(pkg, name string) Target {
	return Target{Pkg: buck.PackagePath(pkg), Rule: buck.RuleName(name)}
}

// ParseTarget is the buck.TargetParser every fixture Index is wired with.
// It round-trips exactly what Target.String produces.
func ParseTarget(s string) buck.ExternalTarget {
	s = strings.TrimPrefix(s, "//")
	parts := strings.SplitN(s, ":", 2)
	return NewTarget(parts[0], parts[1])
}

// NewIndex returns an Index wired with ParseTarget and buck.DefaultConfig,
// the zero-configuration starting point fixture-driven tests build on.
func NewIndex() *buck.Index {
	return buck.NewIndex(ParseTarget, buck.DefaultConfig())
}

// Rule builds a BuildRule named name in package pkgPath, depending on
// every //pkg:name string in deps. The rule name doubles as the opaque
// node payload, sufficient identity for tests that don't inspect it.
func Rule(pkgPath, name string, deps ...string) buck.BuildRule {
	ds := make([]buck.ExternalTarget, len(deps))
	for i, d := range deps {
		ds[i] = ParseTarget(d)
	}
	return buck.BuildRule{
		Target: NewTarget(pkgPath, name),
		Node:   name,
		Deps:   ds,
	}
}

// Package builds a BuildPackage from its directory and rules.
func Package(dir string, rules ...buck.BuildRule) buck.BuildPackage {
	return buck.BuildPackage{Dir: buck.PackagePath(dir), Rules: rules}
}

// Added builds a Changes whose Added list is pkgs.
func Added(pkgs ...buck.BuildPackage) buck.Changes {
	return buck.Changes{Added: pkgs}
}

// Modified builds a Changes whose Modified list is pkgs.
func Modified(pkgs ...buck.BuildPackage) buck.Changes {
	return buck.Changes{Modified: pkgs}
}

// Removed builds a Changes whose Removed list is dirs.
func Removed(dirs ...string) buck.Changes {
	ps := make([]buck.PackagePath, len(dirs))
	for i, d := range dirs {
		ps[i] = buck.PackagePath(d)
	}
	return buck.Changes{Removed: ps}
}
