// Copyright (C) 2025 puppet-dependency-resolver contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package diagnostic implements the on-failure diagnostic dump
// (spec.md §5, §6, §9): a snapshot of the forge cache and dependency
// graph written to errorDump.js when resolution fails fatally.
//
// Modules are referenced from both graph nodes and requirement edges;
// naively encoding *module.Module values inline would duplicate every
// shared module once per reference and, should a future field ever
// introduce a back-reference, risk an unbounded encoding loop. Instead
// every module is assigned a stable reference id (a hashstructure hash
// of its identity) the first time it is seen, and is serialized once;
// every other occurrence emits only the id.
package diagnostic

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/pkg/errors"

	"github.com/dodevops/puppet-dependency-resolver/internal/graph"
	"github.com/dodevops/puppet-dependency-resolver/internal/module"
)

// DefaultDumpFile is the file written to the current directory on
// fatal resolution failure.
const DefaultDumpFile = "errorDump.js"

// Dump is the top-level diagnostic snapshot, per spec.md §6
// "{forgeCache, dependencyGraph}".
type Dump struct {
	ForgeCache      map[string]any   `json:"forgeCache"`
	DependencyGraph graphSnapshot    `json:"dependencyGraph"`
}

type graphSnapshot struct {
	Nodes   map[string]moduleRef `json:"nodes"`
	Edges   []edgeSnapshot       `json:"edges"`
	Modules map[string]moduleSnapshot `json:"modules"`
}

// moduleRef is what a node/edge emits for a module: just its
// reference id, or an empty object (no ref) for the manifest root / an
// unresolved target.
type moduleRef struct {
	Ref string `json:"ref,omitempty"`
}

type edgeSnapshot struct {
	Source       string    `json:"source"`
	Target       string    `json:"target"`
	Kind         string    `json:"kind"`
	Range        string    `json:"range"`
	SourceModule moduleRef `json:"sourceModule,omitempty"`
	TargetModule moduleRef `json:"targetModule"`
}

type moduleSnapshot struct {
	Slug    string  `json:"slug"`
	Kind    string  `json:"kind"`
	Version *string `json:"version,omitempty"`
	RepoURL string  `json:"repoUrl,omitempty"`
}

// refTable assigns and remembers reference ids for module pointers.
type refTable struct {
	ids     map[*module.Module]string
	modules map[string]moduleSnapshot
}

func newRefTable() *refTable {
	return &refTable{ids: make(map[*module.Module]string), modules: make(map[string]moduleSnapshot)}
}

func (t *refTable) ref(m *module.Module) moduleRef {
	if m == nil {
		return moduleRef{}
	}
	if id, ok := t.ids[m]; ok {
		return moduleRef{Ref: id}
	}

	id, err := hashModuleIdentity(m)
	if err != nil {
		// Fall back to a pointer-derived id; the dump is best-effort
		// diagnostics, not a contract consumers parse programmatically.
		id = fmt.Sprintf("mod-%p", m)
	}

	t.ids[m] = id
	t.modules[id] = moduleSnapshot{Slug: m.Slug.String(), Kind: string(m.Kind), Version: m.Version, RepoURL: m.RepoURL}
	return moduleRef{Ref: id}
}

func hashModuleIdentity(m *module.Module) (string, error) {
	h, err := hashstructure.Hash(struct {
		Slug string
		Kind string
	}{Slug: m.Slug.String(), Kind: string(m.Kind)}, hashstructure.FormatV2, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash module identity")
	}
	return fmt.Sprintf("mod-%x", h), nil
}

// Build assembles a Dump from the live cache and graph.
func Build(cacheInfo map[string]any, g *graph.Graph) Dump {
	rt := newRefTable()

	nodes := make(map[string]moduleRef)
	for _, slug := range g.Nodes() {
		m, _ := g.Node(slug)
		nodes[slug] = rt.ref(m)
	}

	var edges []edgeSnapshot
	seen := make(map[string]bool)
	for _, slug := range g.Nodes() {
		for _, r := range g.OutEdges(slug) {
			key := r.EdgeKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			edges = append(edges, edgeSnapshot{
				Source:       r.SourceSlug(),
				Target:       r.TargetSlug(),
				Kind:         string(r.Source),
				Range:        r.Range,
				SourceModule: rt.ref(r.SourceModule),
				TargetModule: rt.ref(r.TargetModule),
			})
		}
	}

	return Dump{
		ForgeCache: cacheInfo,
		DependencyGraph: graphSnapshot{
			Nodes:   nodes,
			Edges:   edges,
			Modules: rt.modules,
		},
	}
}

// WriteFile encodes d as indented JSON and writes it to path.
func WriteFile(path string, d Dump) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode diagnostic dump")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write diagnostic dump to %s", path)
	}
	return nil
}
