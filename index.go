// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buck

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/marcesengel/buck/target"
)

// Index is the facade described in spec.md §4.4: it holds the two
// generation maps, the target interner, the current-generation
// counter, and the commit->generation table, and exposes every query
// plus the single AddCommit mutator under a fair reader/writer lock.
//
// The zero Index is not usable; construct with NewIndex.
type Index struct {
	parser TargetParser
	logger *zap.Logger
	cfg    Config

	interner *target.Interner[internalTarget]

	// rw guards buildPackageMap and ruleMap as a single unit, per
	// spec.md §5: a reader sees either all of a commit's effects or
	// none of them, never a partial one.
	rw              sync.RWMutex
	buildPackageMap *generationMap[PackagePath, ruleNameSet]
	ruleMap         *generationMap[target.Handle, internalRawBuildRule]
	pkgIndex        *packagePathIndex

	generation atomic.Uint32

	commitToGeneration sync.Map // Commit -> uint32

	// commitMu enforces the serial-commit contract defensively (Open
	// Question 1 in spec.md §9): the spec documents AddCommit as
	// single-caller, and notes an implementation MAY add a mutex to
	// make that cheap to guarantee rather than trust every embedder.
	commitMu sync.Mutex
}

// NewIndex returns an empty Index at generation 0. parser is the
// injected buildTargetParser of spec.md §6, used to turn //<dir>:<name>
// strings back into the host's ExternalTarget whenever a query returns
// targets (including the deps of rules returned by GetTargetNodes).
func NewIndex(parser TargetParser, cfg Config) *Index {
	logger := buildLogger(cfg)
	ix := &Index{
		parser:          parser,
		logger:          logger,
		cfg:             cfg,
		interner:        target.NewWithCapacity[internalTarget](cfg.InternerCapacityHint),
		buildPackageMap: newGenerationMap[PackagePath, ruleNameSet](),
		ruleMap:         newGenerationMap[target.Handle, internalRawBuildRule](),
	}
	if !cfg.DisablePrefixIndex {
		ix.pkgIndex = newPackagePathIndex()
		ix.pkgIndex.record("") // the repository root always exists as a base path
	}
	return ix
}

// keyOf extracts a target's (package, name) identity for interning.
// The interner is keyed on this canonical internalTarget rather than on
// whatever concrete ExternalTarget type the host passes in, since two
// host values with identical PackagePath/Name but different dynamic
// types would otherwise compare unequal as map keys and defeat lookups
// like delta.go's resolution of a removed rule's old handle.
func keyOf(t ExternalTarget) internalTarget {
	return internalTarget{pkg: t.PackagePath(), name: t.Name()}
}

func buildLogger(cfg Config) *zap.Logger {
	zc := zap.NewProductionConfig()
	if cfg.LogLevel != "" {
		if lvl, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
			zc.Level = lvl
		}
	}
	logger, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// GetGeneration returns the generation commit resolved to, and whether
// it has been recorded at all.
func (ix *Index) GetGeneration(commit Commit) (uint32, bool) {
	v, ok := ix.commitToGeneration.Load(commit)
	if !ok {
		return 0, false
	}
	return v.(uint32), true
}

// clampToCurrent implements Open Question 2 of spec.md §9: a
// generation argument from the future is treated as "read at the
// current generation" rather than as an error, consistent with
// spec.md §7's "queries never fail" contract.
func (ix *Index) clampToCurrent(g uint32) uint32 {
	if cur := ix.generation.Load(); g > cur {
		return cur
	}
	return g
}

// GetTargetNode returns the rule recorded for t at generation g, and
// whether it exists there at all.
func (ix *Index) GetTargetNode(g uint32, t ExternalTarget) (*BuildRule, bool) {
	out := ix.GetTargetNodes(g, []ExternalTarget{t})
	if out[0] == nil {
		return nil, false
	}
	return out[0], true
}

// GetTargetNodes returns one *BuildRule per element of ts, preserving
// order, with nil standing in for a target absent at g.
func (ix *Index) GetTargetNodes(g uint32, ts []ExternalTarget) []*BuildRule {
	g = ix.clampToCurrent(g)

	handles := make([]target.Handle, len(ts))
	known := make([]bool, len(ts))
	for i, t := range ts {
		if h, ok := ix.interner.Handle(keyOf(t)); ok {
			handles[i] = h
			known[i] = true
		}
	}

	type resolved struct {
		rule internalRawBuildRule
		ok   bool
	}
	results := make([]resolved, len(ts))

	ix.rw.RLock()
	for i := range ts {
		if !known[i] {
			continue
		}
		rule, ok := ix.ruleMap.getVersion(handles[i], g)
		results[i] = resolved{rule: rule, ok: ok}
	}
	ix.rw.RUnlock()

	out := make([]*BuildRule, len(ts))
	for i, r := range results {
		if !r.ok {
			continue
		}
		deps := make([]ExternalTarget, 0, len(r.rule.deps))
		for _, h := range r.rule.deps {
			if it, ok := ix.interner.Lookup(h); ok {
				deps = append(deps, ix.parser(it.String()))
			}
		}
		out[i] = &BuildRule{Target: ts[i], Node: r.rule.node.value, Deps: deps}
	}
	return out
}

// GetTransitiveDeps returns the BFS closure of t's outgoing edges at
// generation g, excluding t itself.
func (ix *Index) GetTransitiveDeps(g uint32, t ExternalTarget) []ExternalTarget {
	g = ix.clampToCurrent(g)

	root, ok := ix.interner.Handle(keyOf(t))
	if !ok {
		return nil
	}

	visited := map[target.Handle]struct{}{root: {}}
	frontier := []target.Handle{root}

	ix.rw.RLock()
	for len(frontier) > 0 {
		h := frontier[0]
		frontier = frontier[1:]

		rule, ok := ix.ruleMap.getVersion(h, g)
		if !ok {
			continue
		}
		for _, dh := range rule.deps {
			if _, seen := visited[dh]; seen {
				continue
			}
			visited[dh] = struct{}{}
			frontier = append(frontier, dh)
		}
	}
	ix.rw.RUnlock()

	delete(visited, root)
	out := make([]ExternalTarget, 0, len(visited))
	for h := range visited {
		if it, ok := ix.interner.Lookup(h); ok {
			out = append(out, ix.parser(it.String()))
		}
	}
	return out
}

// GetFwdDeps looks up each target in ts at generation g and appends
// its direct dependencies to out, skipping targets missing at g. It
// follows the append-to-out convention of e.g. strconv.AppendInt so
// callers can accumulate forward deps of many targets without
// reallocating per call.
func (ix *Index) GetFwdDeps(g uint32, ts []ExternalTarget, out []ExternalTarget) []ExternalTarget {
	g = ix.clampToCurrent(g)

	handles := make([]target.Handle, 0, len(ts))
	for _, t := range ts {
		if h, ok := ix.interner.Handle(keyOf(t)); ok {
			handles = append(handles, h)
		}
	}

	var depHandles []target.Handle
	ix.rw.RLock()
	for _, h := range handles {
		rule, ok := ix.ruleMap.getVersion(h, g)
		if !ok {
			continue
		}
		depHandles = append(depHandles, rule.deps...)
	}
	ix.rw.RUnlock()

	for _, dh := range depHandles {
		if it, ok := ix.interner.Lookup(dh); ok {
			out = append(out, ix.parser(it.String()))
		}
	}
	return out
}

// GetTargets returns every target that exists at generation g.
func (ix *Index) GetTargets(g uint32) []ExternalTarget {
	g = ix.clampToCurrent(g)

	ix.rw.RLock()
	entries := ix.ruleMap.getEntries(g, nil)
	ix.rw.RUnlock()

	out := make([]ExternalTarget, 0, len(entries))
	for _, e := range entries {
		if it, ok := ix.interner.Lookup(e.Key); ok {
			out = append(out, ix.parser(it.String()))
		}
	}
	return out
}

// GetTargetsInBasePath returns every target declared directly in base
// at generation g (none from subdirectories).
func (ix *Index) GetTargetsInBasePath(g uint32, base PackagePath) []ExternalTarget {
	g = ix.clampToCurrent(g)

	ix.rw.RLock()
	names, ok := ix.buildPackageMap.getVersion(base, g)
	ix.rw.RUnlock()
	if !ok {
		return nil
	}

	out := make([]ExternalTarget, 0, len(names))
	for _, n := range names.sorted() {
		out = append(out, ix.parser(internalTarget{pkg: base, name: n}.String()))
	}
	return out
}

// GetTargetsUnderBasePath returns every target declared in base or any
// package nested under it at generation g. An empty base is equivalent
// to GetTargets.
func (ix *Index) GetTargetsUnderBasePath(g uint32, base PackagePath) []ExternalTarget {
	if base == "" {
		return ix.GetTargets(g)
	}
	g = ix.clampToCurrent(g)

	var dirs []PackagePath
	if ix.pkgIndex != nil {
		ix.pkgIndex.walkPrefix(base, func(p PackagePath) { dirs = append(dirs, p) })
	} else {
		// Config.DisablePrefixIndex: fall back to a linear scan of
		// every package path the map has ever recorded.
		ix.rw.RLock()
		for _, dir := range ix.buildPackageMap.keys() {
			if dir.HasPrefix(base) {
				dirs = append(dirs, dir)
			}
		}
		ix.rw.RUnlock()
	}

	var out []ExternalTarget
	ix.rw.RLock()
	for _, dir := range dirs {
		names, ok := ix.buildPackageMap.getVersion(dir, g)
		if !ok {
			continue
		}
		for _, n := range names.sorted() {
			out = append(out, ix.parser(internalTarget{pkg: dir, name: n}.String()))
		}
	}
	ix.rw.RUnlock()
	return out
}

// AddCommit applies commit's effect on the build graph and implements
// spec.md §4.4's seven-step algorithm. Callers must invoke AddCommit
// serially across commits; the internal commitMu turns a caller that
// violates this into lock contention rather than a data race, but the
// documented contract remains the caller's to uphold (see spec.md §9,
// Open Question 1).
func (ix *Index) AddCommit(commit Commit, changes Changes) error {
	ix.commitMu.Lock()
	defer ix.commitMu.Unlock()

	if _, dup := ix.commitToGeneration.Load(commit); dup {
		return &DuplicateCommitError{Commit: commit}
	}

	g := ix.generation.Load()
	internal := ix.internChanges(changes)

	ix.rw.RLock()
	d, err := computeDeltas(ix.buildPackageMap, ix.ruleMap, ix.interner, g, internal)
	ix.rw.RUnlock()
	if err != nil {
		ix.logger.Warn("commit rejected", zap.Any("commit", commit), zap.Uint32("generation", g), zap.Error(err))
		return err
	}

	if d.isEmpty() {
		if _, loaded := ix.commitToGeneration.LoadOrStore(commit, g); loaded {
			return &DuplicateCommitError{Commit: commit}
		}
		ix.logger.Debug("no-op commit", zap.Any("commit", commit), zap.Uint32("generation", g))
		return nil
	}

	newGen := g + 1
	ix.rw.Lock()
	for _, pd := range d.packages {
		ix.buildPackageMap.addVersion(pd.dir, pd.names, !pd.removed, newGen)
		if ix.pkgIndex != nil {
			ix.pkgIndex.record(pd.dir)
		}
	}
	for _, rd := range d.rules {
		ix.ruleMap.addVersion(rd.handle, rd.rule, !rd.removed, newGen)
	}
	ix.rw.Unlock()

	if _, loaded := ix.commitToGeneration.LoadOrStore(commit, newGen); loaded {
		ix.logger.Error("commit applied but already recorded", zap.Any("commit", commit), zap.Uint32("generation", newGen))
		return &DuplicateCommitError{Commit: commit}
	}
	ix.generation.Store(newGen)
	ix.logger.Info("commit applied", zap.Any("commit", commit), zap.Uint32("generation", newGen),
		zap.Int("package_deltas", len(d.packages)), zap.Int("rule_deltas", len(d.rules)))
	return nil
}

// internChanges translates a host-facing Changes into internal form:
// every touched target is interned and every rule's deps are sorted by
// handle. This happens outside both locks, per spec.md §4.4 step 2 —
// the interner manages its own concurrency independent of rw.
func (ix *Index) internChanges(changes Changes) internalChanges {
	toInternal := func(pkg BuildPackage) internalPackage {
		rules := make(map[RuleName]internalNamedRule, len(pkg.Rules))
		for _, r := range pkg.Rules {
			h := ix.interner.Insert(keyOf(r.Target))
			deps := make([]target.Handle, len(r.Deps))
			for i, d := range r.Deps {
				deps[i] = ix.interner.Insert(keyOf(d))
			}
			sortHandles(deps)
			rules[r.Target.Name()] = internalNamedRule{
				handle: h,
				rule: internalRawBuildRule{
					node: node{value: r.Node, equal: ix.cfg.NodeEqual},
					deps: deps,
				},
			}
		}
		return internalPackage{dir: pkg.Dir, rules: rules}
	}

	out := internalChanges{removed: changes.Removed}
	for _, p := range changes.Added {
		out.added = append(out.added, toInternal(p))
	}
	for _, p := range changes.Modified {
		out.modified = append(out.modified, toInternal(p))
	}
	return out
}

// IndexStats is a point-in-time, read-only snapshot of the index's
// size, for an embedding host's own metrics or health endpoints. It is
// not part of the versioned history: it always reflects the current
// generation at the moment Stats is called.
type IndexStats struct {
	Generation    uint32
	CommitCount   int
	InternedCount int

	// PackageKeyCount and RuleKeyCount are the number of distinct keys
	// buildPackageMap and ruleMap have ever recorded an entry for
	// (tombstoned or not) — the per-map key counts a host's metrics or
	// health endpoint would want alongside the generation/commit/interned
	// totals above.
	PackageKeyCount int
	RuleKeyCount    int
}

// Stats returns a snapshot described by IndexStats.
func (ix *Index) Stats() IndexStats {
	var commitCount int
	ix.commitToGeneration.Range(func(_, _ interface{}) bool {
		commitCount++
		return true
	})

	ix.rw.RLock()
	packageKeyCount := ix.buildPackageMap.len()
	ruleKeyCount := ix.ruleMap.len()
	ix.rw.RUnlock()

	return IndexStats{
		Generation:      ix.generation.Load(),
		CommitCount:     commitCount,
		InternedCount:   ix.interner.Len(),
		PackageKeyCount: packageKeyCount,
		RuleKeyCount:    ruleKeyCount,
	}
}
