// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buck

import (
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Config tunes the index's internal sizing and logging, the way the
// teacher's Gopkg.toml tunes dep's solver. Apart from NodeEqual, which
// decides whether a modified rule counts as changed (and so whether a
// commit advances the generation), none of it affects query or commit
// semantics.
type Config struct {
	// InternerCapacityHint preallocates the target interner for this
	// many distinct targets, avoiding rehashing during an initial
	// bulk load of a large existing tree.
	InternerCapacityHint int `toml:"interner_capacity_hint"`

	// LogLevel is a zap level name ("debug", "info", "warn", "error").
	// Empty means "info".
	LogLevel string `toml:"log_level"`

	// DisablePrefixIndex turns off the auxiliary package-path radix tree
	// (packagePathIndex) that backs GetTargetsUnderBasePath's prefix
	// walk. Set for hosts whose package tree is small enough, or queried
	// rarely enough, that the radix tree's memory isn't worth it;
	// GetTargetsUnderBasePath falls back to a linear scan of every known
	// package path. Zero value (false) keeps the radix index on.
	DisablePrefixIndex bool `toml:"disable_prefix_index"`

	// NodeEqual overrides how two rule payloads are compared when
	// deciding whether a modified package's rule actually changed. If
	// nil, reflect.DeepEqual is used. Not a TOML field: set after
	// loading, for hosts whose Node type needs custom comparison.
	NodeEqual NodeEqual `toml:"-"`
}

// DefaultConfig returns the Config an Index uses when none is given.
func DefaultConfig() Config {
	return Config{LogLevel: "info"}
}

// LoadConfig reads a TOML-encoded Config from path, the way the
// teacher's readManifest reads Gopkg.toml with the same library.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "opening index config %q", path)
	}
	defer f.Close()

	d := toml.NewDecoder(f)
	if err := d.Decode(&cfg); err != nil {
		return Config{}, errors.Wrapf(err, "decoding index config %q", path)
	}
	return cfg, nil
}
