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

package diagnostic_test

import (
	"encoding/json"
	"testing"

	"github.com/dodevops/puppet-dependency-resolver/internal/graph"
	"github.com/dodevops/puppet-dependency-resolver/internal/module"
	"github.com/dodevops/puppet-dependency-resolver/internal/requirement"
	"github.com/dodevops/puppet-dependency-resolver/internal/slug"
	"github.com/dodevops/puppet-dependency-resolver/pkg/diagnostic"
	"gotest.tools/v3/assert"
)

func TestBuildProducesEncodableSnapshot(t *testing.T) {
	g := graph.New()
	v := "1.0.0"
	top := &module.Module{Slug: slug.MustParse("test-default"), Kind: module.ForgeModule, Version: &v}
	g.AddNode("test-default", top)
	assert.NilError(t, g.AddEdge(requirement.Requirement{Source: requirement.SourceManifest, TargetModule: top, Range: "= 1.0.0"}))

	dump := diagnostic.Build(map[string]any{"moduleData": map[string]any{}}, g)

	data, err := json.Marshal(dump)
	assert.NilError(t, err)
	assert.Assert(t, len(data) > 0)

	var roundTrip map[string]any
	assert.NilError(t, json.Unmarshal(data, &roundTrip))
	assert.Assert(t, roundTrip["dependencyGraph"] != nil)
}

func TestBuildDedupesSharedModule(t *testing.T) {
	g := graph.New()
	v := "1.0.0"
	shared := &module.Module{Slug: slug.MustParse("test-shared"), Kind: module.ForgeModule, Version: &v}
	s1 := &module.Module{Slug: slug.MustParse("test-s1"), Kind: module.ForgeModule, Version: &v}
	s2 := &module.Module{Slug: slug.MustParse("test-s2"), Kind: module.ForgeModule, Version: &v}

	g.AddNode("test-shared", shared)
	g.AddNode("test-s1", s1)
	g.AddNode("test-s2", s2)
	assert.NilError(t, g.AddEdge(requirement.Requirement{Source: requirement.SourceDependency, SourceModule: s1, TargetModule: shared, Range: ">= 1.0.0"}))
	assert.NilError(t, g.AddEdge(requirement.Requirement{Source: requirement.SourceDependency, SourceModule: s2, TargetModule: shared, Range: ">= 1.0.0"}))

	dump := diagnostic.Build(map[string]any{}, g)
	assert.Equal(t, len(dump.DependencyGraph.Modules), 3)
}
