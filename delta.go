// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buck

import "github.com/marcesengel/buck/target"

// computeDeltas implements spec.md §4.3. It must be called while
// holding at least a read lock on the Index: it resolves every
// existing package/rule it touches against buildPackageMap and
// ruleMap at generation g, and the caller commits whatever it returns
// at g or g+1 without re-deriving it.
//
// interner resolves a (dir, name) pair the old side of a modified or
// removed package names back to the target.Handle ruleMap stores it
// under; it is only ever used for lookups here; targets in changes
// are interned by the caller before computeDeltas runs.
func computeDeltas(
	buildPackageMap *generationMap[PackagePath, ruleNameSet],
	ruleMap *generationMap[target.Handle, internalRawBuildRule],
	interner *target.Interner[internalTarget],
	g uint32,
	changes internalChanges,
) (deltas, error) {
	var d deltas

	for _, pkg := range changes.added {
		if _, present := buildPackageMap.getVersion(pkg.dir, g); present {
			return deltas{}, &PackageAlreadyPresentError{Dir: pkg.dir, Generation: g}
		}
		names := make(ruleNameSet, len(pkg.rules))
		for name, r := range pkg.rules {
			names[name] = struct{}{}
			d.rules = append(d.rules, ruleDelta{handle: r.handle, rule: r.rule})
		}
		d.packages = append(d.packages, packageDelta{dir: pkg.dir, names: names})
	}

	for _, dir := range changes.removed {
		oldNames, present := buildPackageMap.getVersion(dir, g)
		if !present {
			return deltas{}, &PackageAbsentError{Dir: dir, Generation: g}
		}
		d.packages = append(d.packages, packageDelta{dir: dir, removed: true})
		for name := range oldNames {
			h, ok := interner.Handle(internalTarget{pkg: dir, name: name})
			if !ok {
				return deltas{}, &InternalInconsistencyError{Dir: dir, Name: name, Generation: g}
			}
			d.rules = append(d.rules, ruleDelta{handle: h, removed: true})
		}
	}

	for _, pkg := range changes.modified {
		oldNames, present := buildPackageMap.getVersion(pkg.dir, g)
		if !present {
			return deltas{}, &PackageAbsentError{Dir: pkg.dir, Generation: g}
		}

		old := make(map[target.Handle]internalRawBuildRule, len(oldNames))
		for name := range oldNames {
			h, ok := interner.Handle(internalTarget{pkg: pkg.dir, name: name})
			if !ok {
				return deltas{}, &InternalInconsistencyError{Dir: pkg.dir, Name: name, Generation: g}
			}
			rule, present := ruleMap.getVersion(h, g)
			if !present {
				return deltas{}, &InternalInconsistencyError{Dir: pkg.dir, Name: name, Generation: g}
			}
			old[h] = rule
		}

		newRules := make(map[target.Handle]internalRawBuildRule, len(pkg.rules))
		newNames := make(ruleNameSet, len(pkg.rules))
		for name, r := range pkg.rules {
			newNames[name] = struct{}{}
			newRules[r.handle] = r.rule
		}

		ruleChanges := diffRules(old, newRules)
		if len(ruleChanges) == 0 {
			continue
		}

		d.packages = append(d.packages, packageDelta{dir: pkg.dir, names: newNames})
		d.rules = append(d.rules, ruleChanges...)
	}

	return d, nil
}

// diffRules implements spec.md §4.3's diffRules: emit Updated for
// every target in newRules whose rule is absent from old or differs
// from it, and Removed for every target in old that's absent from
// newRules.
func diffRules(old, newRules map[target.Handle]internalRawBuildRule) []ruleDelta {
	var out []ruleDelta
	for h, nr := range newRules {
		or, inOld := old[h]
		if !inOld || !or.equal(nr) {
			out = append(out, ruleDelta{handle: h, rule: nr})
		}
	}
	for h := range old {
		if _, inNew := newRules[h]; !inNew {
			out = append(out, ruleDelta{handle: h, removed: true})
		}
	}
	return out
}
