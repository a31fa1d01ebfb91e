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

// Package graph implements the Dependency Graph: a singleton directed
// multigraph of modules and version-constrained edges (spec.md §3,
// §4.5). No generic graph library appears in use anywhere in the
// example corpus, so this is a small hand-rolled adjacency-map
// structure, the same shape the teacher uses for its own in-memory
// module indices.
package graph

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/dodevops/puppet-dependency-resolver/internal/module"
	"github.com/dodevops/puppet-dependency-resolver/internal/requirement"
)

// ManifestNode is the slug of the synthetic root node every top-level
// module requirement is anchored to.
const ManifestNode = "manifest"

// Graph is a directed multigraph: nodes are module slugs (plus the
// synthetic "manifest" root), edges are Requirements keyed by their
// EdgeKey. It is not safe for concurrent use; the resolver drives it
// from a single logical task (spec.md §4.1).
type Graph struct {
	nodes map[string]*module.Module // nil for the manifest node
	edges map[string]requirement.Requirement
	out   map[string][]string // node slug -> edge keys
	in    map[string][]string
}

// New returns an empty graph with the manifest root node already
// present.
func New() *Graph {
	g := &Graph{
		nodes: make(map[string]*module.Module),
		edges: make(map[string]requirement.Requirement),
		out:   make(map[string][]string),
		in:    make(map[string][]string),
	}
	g.nodes[ManifestNode] = nil
	return g
}

// HasNode reports whether slug has a node in the graph.
func (g *Graph) HasNode(slug string) bool {
	_, ok := g.nodes[slug]
	return ok
}

// AddNode creates a node for slug if it does not already exist, with
// attribute m (the Module Declaration it names). Re-adding an existing
// slug updates its attribute.
func (g *Graph) AddNode(slug string, m *module.Module) {
	g.nodes[slug] = m
}

// Node returns the module attribute for slug, and whether the node
// exists.
func (g *Graph) Node(slug string) (*module.Module, bool) {
	m, ok := g.nodes[slug]
	return m, ok
}

// HasEdge reports whether an edge with r's identity already exists.
func (g *Graph) HasEdge(r requirement.Requirement) bool {
	_, ok := g.edges[r.EdgeKey()]
	return ok
}

// AddEdge records r as an edge, keyed by its EdgeKey (spec.md §3: "at
// most one edge per identity exists in the graph" — adding again with
// the same identity overwrites). Both endpoints must already be nodes
// (spec.md §3 invariant: "the node for a slug is created before any
// edge touching it").
func (g *Graph) AddEdge(r requirement.Requirement) error {
	source, target := r.SourceSlug(), r.TargetSlug()
	if !g.HasNode(source) {
		return fmt.Errorf("graph: no node for source slug %q", source)
	}
	if !g.HasNode(target) {
		return fmt.Errorf("graph: no node for target slug %q", target)
	}

	key := r.EdgeKey()
	if _, exists := g.edges[key]; !exists {
		g.out[source] = append(g.out[source], key)
		g.in[target] = append(g.in[target], key)
	}
	g.edges[key] = r
	return nil
}

// InEdges returns every requirement whose target is slug.
func (g *Graph) InEdges(slug string) []requirement.Requirement {
	keys := g.in[slug]
	reqs := make([]requirement.Requirement, 0, len(keys))
	for _, k := range keys {
		reqs = append(reqs, g.edges[k])
	}
	return reqs
}

// OutEdges returns every requirement whose source is slug.
func (g *Graph) OutEdges(slug string) []requirement.Requirement {
	keys := g.out[slug]
	reqs := make([]requirement.Requirement, 0, len(keys))
	for _, k := range keys {
		reqs = append(reqs, g.edges[k])
	}
	return reqs
}

// DropNode removes slug and every edge touching it.
func (g *Graph) DropNode(slug string) {
	for _, k := range g.out[slug] {
		r := g.edges[k]
		g.in[r.TargetSlug()] = removeKey(g.in[r.TargetSlug()], k)
		delete(g.edges, k)
	}
	for _, k := range g.in[slug] {
		r := g.edges[k]
		g.out[r.SourceSlug()] = removeKey(g.out[r.SourceSlug()], k)
		delete(g.edges, k)
	}
	delete(g.out, slug)
	delete(g.in, slug)
	delete(g.nodes, slug)
}

// Clear resets the graph to empty, re-adding only the manifest root.
func (g *Graph) Clear() {
	g.nodes = map[string]*module.Module{ManifestNode: nil}
	g.edges = make(map[string]requirement.Requirement)
	g.out = make(map[string][]string)
	g.in = make(map[string][]string)
}

// Nodes returns every node slug currently present, including the
// manifest root.
func (g *Graph) Nodes() []string {
	slugs := make([]string, 0, len(g.nodes))
	for s := range g.nodes {
		slugs = append(slugs, s)
	}
	return slugs
}

// IsValid reports whether slug's current version satisfies every
// incoming edge's range (spec.md §4.5). A node with no version, or no
// Module attribute (the manifest root), is trivially valid.
func (g *Graph) IsValid(slug string) (bool, error) {
	m, ok := g.nodes[slug]
	if !ok || m == nil || m.Version == nil {
		return true, nil
	}

	for _, r := range g.in[slug] {
		req := g.edges[r]
		ok, err := req.Satisfies(*m.Version)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Validate checks IsValid for every node currently present and
// aggregates every failure, instead of stopping at the first (spec.md
// §4.5 "the overall graph is considered satisfied ... iff is_valid
// holds for every node currently present").
func (g *Graph) Validate() error {
	var result *multierror.Error
	for slug := range g.nodes {
		ok, err := g.IsValid(slug)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", slug, err))
			continue
		}
		if !ok {
			result = multierror.Append(result, fmt.Errorf("%s: unsatisfied by current version", slug))
		}
	}
	return result.ErrorOrNil()
}

func removeKey(keys []string, target string) []string {
	out := keys[:0]
	for _, k := range keys {
		if k != target {
			out = append(out, k)
		}
	}
	return out
}
