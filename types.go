// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package buck implements a multi-tenant, multi-version index of a
// build graph: a versioned, concurrently-queried store that lets a
// build tool's server process hold the parsed rule graph for many
// revisions of a source tree at once, and answer dependency queries
// against any of them without reparsing.
//
// The package is a library. It parses nothing and talks to no version
// control system or network; build-file parsing, VCS integration, and
// the target-string grammar are the embedding host's job. The host
// hands the Index parsed packages through Changes, and queries it by
// Commit or by the Generation a Commit resolved to.
package buck

import "fmt"

// PackagePath is a filesystem-agnostic, normalized directory path: the
// directory containing a build file. The empty path denotes the
// repository root.
type PackagePath string

// HasPrefix reports whether p is base itself or lives under base,
// treating PackagePath as a sequence of '/'-separated segments rather
// than a raw string (so "foo2" is not considered under "foo").
func (p PackagePath) HasPrefix(base PackagePath) bool {
	if base == "" {
		return true
	}
	if p == base {
		return true
	}
	return len(p) > len(base) && p[:len(base)] == string(base) && p[len(base)] == '/'
}

// RuleName is a string unique within the BuildPackage that declares it.
type RuleName string

// ExternalTarget is the host's representation of a build target. A
// target's identity is exactly its (PackagePath, Name) pair; the index
// never compares ExternalTarget values itself, so the host's concrete
// type need not be comparable or stable across calls.
type ExternalTarget interface {
	PackagePath() PackagePath
	Name() RuleName
}

// internalTarget is the canonical (package, name) identity the index
// interns targets under, regardless of what concrete ExternalTarget
// type the host passed in: two host values with the same PackagePath
// and Name always collapse to the same internalTarget and thus the
// same handle, even if their dynamic types differ. What comes back out
// of queries is always whatever the host's TargetParser returns for
// that identity, not the original host value.
type internalTarget struct {
	pkg  PackagePath
	name RuleName
}

func (t internalTarget) PackagePath() PackagePath { return t.pkg }
func (t internalTarget) Name() RuleName           { return t.name }

// String renders t the way TargetParser expects to parse it.
func (t internalTarget) String() string {
	return fmt.Sprintf("//%s:%s", t.pkg, t.name)
}

// TargetParser parses a //<package>:<name> string into the host's
// ExternalTarget type. It must be pure and safe for concurrent use; the
// Index calls it without holding any of its own locks.
type TargetParser func(s string) ExternalTarget

// BuildRule is a single rule declaration as supplied by the host: its
// identity (which fixes both its package and its name), an opaque
// payload describing the rule, and its declared dependencies.
type BuildRule struct {
	Target ExternalTarget
	Node   interface{}
	Deps   []ExternalTarget
}

// BuildPackage is everything a build file declared for one directory.
type BuildPackage struct {
	Dir   PackagePath
	Rules []BuildRule
}

// Changes describes the net effect of a commit on the set of build
// packages: which directories gained a build file, which had their
// build file's contents change, and which lost their build file
// entirely. A directory must appear in at most one of the three lists.
type Changes struct {
	Added    []BuildPackage
	Modified []BuildPackage
	Removed  []PackagePath
}

// Commit is an opaque, hashable identifier supplied by the host for a
// point in its source-control history.
type Commit interface{}

// NodeEqual compares two rule payloads for semantic equality. It is
// used only to decide whether a modified package's rule actually
// changed; hosts whose Node values aren't safe to compare with
// reflect.DeepEqual (e.g. they embed funcs or unexported pointers with
// reference semantics) should supply their own via Config.
type NodeEqual func(a, b interface{}) bool
