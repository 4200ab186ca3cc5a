// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buck

import "fmt"

// PackageAlreadyPresentError is returned by AddCommit when an added
// package names a directory that already has build rules at the
// generation the commit was computed against.
type PackageAlreadyPresentError struct {
	Dir        PackagePath
	Generation uint32
}

func (e *PackageAlreadyPresentError) Error() string {
	return fmt.Sprintf("package %q already present at generation %d", e.Dir, e.Generation)
}

// PackageAbsentError is returned by AddCommit when a modified or
// removed package names a directory with no build rules at the
// generation the commit was computed against.
type PackageAbsentError struct {
	Dir        PackagePath
	Generation uint32
}

func (e *PackageAbsentError) Error() string {
	return fmt.Sprintf("package %q absent at generation %d", e.Dir, e.Generation)
}

// InternalInconsistencyError indicates the index's two generation maps
// have drifted out of the relationship invariant 1/2 of spec.md §3
// requires: a rule name recorded in buildPackageMap had no
// corresponding entry in ruleMap. It is unrecoverable; it means a
// prior AddCommit left the maps in a state this implementation cannot
// have produced if its invariants held.
type InternalInconsistencyError struct {
	Dir        PackagePath
	Name       RuleName
	Generation uint32
}

func (e *InternalInconsistencyError) Error() string {
	return fmt.Sprintf("internal inconsistency: rule %q in package %q has no entry in the rule map at generation %d", e.Name, e.Dir, e.Generation)
}

// DuplicateCommitError is returned by AddCommit when called twice with
// the same commit identifier.
type DuplicateCommitError struct {
	Commit Commit
}

func (e *DuplicateCommitError) Error() string {
	return fmt.Sprintf("commit %v already recorded", e.Commit)
}
