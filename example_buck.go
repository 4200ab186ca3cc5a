//go:build ignore

// This file demonstrates wiring an Index into a host process. It is
// not part of the buck package (build-ignored, same convention the
// teacher's example.go uses) and is not compiled by `go build ./...`.
package main

import (
	"fmt"
	"strings"

	"github.com/marcesengel/buck"
)

// exampleTarget is a minimal ExternalTarget a host might use.
type exampleTarget struct {
	pkg  buck.PackagePath
	name buck.RuleName
}

func (t exampleTarget) PackagePath() buck.PackagePath { return t.pkg }
func (t exampleTarget) Name() buck.RuleName           { return t.name }

func parseTarget(s string) buck.ExternalTarget {
	s = strings.TrimPrefix(s, "//")
	parts := strings.SplitN(s, ":", 2)
	return exampleTarget{pkg: buck.PackagePath(parts[0]), name: buck.RuleName(parts[1])}
}

func main() {
	ix := buck.NewIndex(parseTarget, buck.DefaultConfig())

	err := ix.AddCommit("deadbeef", buck.Changes{
		Added: []buck.BuildPackage{{
			Dir: "services/frontend",
			Rules: []buck.BuildRule{{
				Target: exampleTarget{pkg: "services/frontend", name: "server"},
				Node:   map[string]string{"kind": "go_binary"},
				Deps:   []buck.ExternalTarget{exampleTarget{pkg: "lib/http", name: "router"}},
			}},
		}},
	})
	if err != nil {
		panic(err)
	}

	g, _ := ix.GetGeneration("deadbeef")
	for _, t := range ix.GetTargetsUnderBasePath(g, "services") {
		fmt.Println(t.PackagePath(), t.Name())
	}
}
