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

package graph_test

import (
	"testing"

	"github.com/dodevops/puppet-dependency-resolver/internal/graph"
	"github.com/dodevops/puppet-dependency-resolver/internal/module"
	"github.com/dodevops/puppet-dependency-resolver/internal/requirement"
	"github.com/dodevops/puppet-dependency-resolver/internal/slug"
	"gotest.tools/v3/assert"
)

func version(v string) *string { return &v }

func TestAddEdgeRequiresBothNodes(t *testing.T) {
	g := graph.New()
	target := &module.Module{Slug: slug.MustParse("test-default"), Version: version("1.0.0")}
	req := requirement.Requirement{Source: requirement.SourceManifest, TargetModule: target}

	err := g.AddEdge(req)
	assert.ErrorContains(t, err, "no node for target slug")

	g.AddNode("test-default", target)
	assert.NilError(t, g.AddEdge(req))
	assert.Equal(t, g.HasEdge(req), true)
}

func TestInOutEdges(t *testing.T) {
	g := graph.New()
	dep := &module.Module{Slug: slug.MustParse("test-dependency"), Version: version("1.0.0")}
	top := &module.Module{Slug: slug.MustParse("test-default"), Version: version("1.0.0")}

	g.AddNode("test-default", top)
	g.AddNode("test-dependency", dep)

	topReq := requirement.Requirement{Source: requirement.SourceManifest, TargetModule: top}
	assert.NilError(t, g.AddEdge(topReq))

	depReq := requirement.Requirement{Source: requirement.SourceDependency, SourceModule: top, TargetModule: dep, Range: ">= 1.0.0"}
	assert.NilError(t, g.AddEdge(depReq))

	assert.Equal(t, len(g.OutEdges("test-default")), 1)
	assert.Equal(t, len(g.InEdges("test-dependency")), 1)
	assert.Equal(t, len(g.InEdges("test-default")), 1)
}

func TestIsValidDetectsUnsatisfiedRange(t *testing.T) {
	g := graph.New()
	top := &module.Module{Slug: slug.MustParse("test-default"), Version: version("1.0.0")}
	dep := &module.Module{Slug: slug.MustParse("test-dependency"), Version: version("1.0.0")}

	g.AddNode("test-default", top)
	g.AddNode("test-dependency", dep)

	req := requirement.Requirement{Source: requirement.SourceDependency, SourceModule: top, TargetModule: dep, Range: ">= 2.0.0"}
	assert.NilError(t, g.AddEdge(req))

	ok, err := g.IsValid("test-dependency")
	assert.NilError(t, err)
	assert.Equal(t, ok, false)

	err = g.Validate()
	assert.ErrorContains(t, err, "test-dependency")
}

func TestIsValidTrueWhenNoVersion(t *testing.T) {
	g := graph.New()
	dep := &module.Module{Slug: slug.MustParse("test-dependency")}
	g.AddNode("test-dependency", dep)

	ok, err := g.IsValid("test-dependency")
	assert.NilError(t, err)
	assert.Equal(t, ok, true)
}

func TestDropNodeRemovesTouchingEdges(t *testing.T) {
	g := graph.New()
	top := &module.Module{Slug: slug.MustParse("test-default"), Version: version("1.0.0")}
	dep := &module.Module{Slug: slug.MustParse("test-dependency"), Version: version("1.0.0")}

	g.AddNode("test-default", top)
	g.AddNode("test-dependency", dep)
	req := requirement.Requirement{Source: requirement.SourceDependency, SourceModule: top, TargetModule: dep, Range: ">= 1.0.0"}
	assert.NilError(t, g.AddEdge(req))

	g.DropNode("test-dependency")
	assert.Equal(t, g.HasNode("test-dependency"), false)
	assert.Equal(t, len(g.OutEdges("test-default")), 0)
}

func TestClearKeepsManifestRoot(t *testing.T) {
	g := graph.New()
	g.AddNode("test-default", &module.Module{Slug: slug.MustParse("test-default")})
	g.Clear()

	assert.Equal(t, g.HasNode(graph.ManifestNode), true)
	assert.Equal(t, g.HasNode("test-default"), false)
}
