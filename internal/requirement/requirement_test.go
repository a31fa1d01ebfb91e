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

package requirement_test

import (
	"context"
	"testing"

	"github.com/dodevops/puppet-dependency-resolver/internal/forge"
	"github.com/dodevops/puppet-dependency-resolver/internal/forge/forgetest"
	"github.com/dodevops/puppet-dependency-resolver/internal/module"
	"github.com/dodevops/puppet-dependency-resolver/internal/requirement"
	"github.com/dodevops/puppet-dependency-resolver/internal/slug"
	"gotest.tools/v3/assert"
)

func TestIsValidRequiresSourceModuleForDependency(t *testing.T) {
	target := &module.Module{Slug: slug.MustParse("test-default")}

	r := requirement.Requirement{Source: requirement.SourceDependency, TargetModule: target, Range: ""}
	assert.Equal(t, r.IsValid(), false)

	r.SourceModule = &module.Module{Slug: slug.MustParse("test-dependency")}
	assert.Equal(t, r.IsValid(), true)
}

func TestIsValidRequiresTargetModule(t *testing.T) {
	r := requirement.Requirement{Source: requirement.SourceManifest}
	assert.Equal(t, r.IsValid(), false)
}

func TestEdgeKeyUsesManifestForNoSourceModule(t *testing.T) {
	target := &module.Module{Slug: slug.MustParse("test-default")}
	r := requirement.Requirement{Source: requirement.SourceManifest, TargetModule: target}
	assert.Equal(t, r.EdgeKey(), "manifest.test-default")
}

func TestEdgeKeyUsesSourceSlugForDependency(t *testing.T) {
	source := &module.Module{Slug: slug.MustParse("test-dependency")}
	target := &module.Module{Slug: slug.MustParse("test-default")}
	r := requirement.Requirement{Source: requirement.SourceDependency, SourceModule: source, TargetModule: target}
	assert.Equal(t, r.EdgeKey(), "test-dependency.test-default")
}

func TestSatisfiesEmptyRangeIsAnyVersion(t *testing.T) {
	target := &module.Module{Slug: slug.MustParse("test-default")}
	r := requirement.Requirement{TargetModule: target}

	ok, err := r.Satisfies("1.0.0")
	assert.NilError(t, err)
	assert.Equal(t, ok, true)
}

func TestSatisfiesChecksConstraint(t *testing.T) {
	r := requirement.Requirement{Range: ">= 2.0.0"}

	ok, err := r.Satisfies("1.0.0")
	assert.NilError(t, err)
	assert.Equal(t, ok, false)

	ok, err = r.Satisfies("2.1.0")
	assert.NilError(t, err)
	assert.Equal(t, ok, true)
}

func TestHashIsStableAndDistinguishesRange(t *testing.T) {
	target := &module.Module{Slug: slug.MustParse("test-default")}
	a := requirement.Requirement{Source: requirement.SourceManifest, TargetModule: target, Range: "= 1.0.0"}
	b := requirement.Requirement{Source: requirement.SourceManifest, TargetModule: target, Range: "= 2.0.0"}

	ha, err := a.Hash()
	assert.NilError(t, err)
	ha2, err := a.Hash()
	assert.NilError(t, err)
	assert.Equal(t, ha, ha2)

	hb, err := b.Hash()
	assert.NilError(t, err)
	assert.Assert(t, ha != hb)
}

func TestMaterializeDependenciesForgeModule(t *testing.T) {
	ctx := context.Background()
	client := forgetest.New().
		Add(&forgetest.Module{
			Author:   "test",
			Name:     "default",
			Versions: []string{"1.0.0"},
			Dependencies: map[string][]forge.DependencySpec{
				"1.0.0": {{Name: "test-dependency", VersionRequirement: ">= 1.0.0"}},
			},
		}).
		Add(&forgetest.Module{Author: "test", Name: "dependency", Versions: []string{"1.2.0"}})
	cache := forge.NewCache(client)

	source, err := module.NewForge(ctx, cache, module.NewForgeOpts{
		Author: "test", Name: "default", Version: "1.0.0", ForgeEndpoint: forge.DefaultEndpoint,
	})
	assert.NilError(t, err)

	reqs, err := requirement.MaterializeDependencies(ctx, cache, source)
	assert.NilError(t, err)
	assert.Equal(t, len(reqs), 1)
	assert.Equal(t, reqs[0].Source, requirement.SourceDependency)
	assert.Equal(t, reqs[0].TargetModule.Slug.String(), "test-dependency")
	assert.Equal(t, *reqs[0].TargetModule.Version, "1.2.0")
	assert.Equal(t, reqs[0].Range, ">= 1.0.0")
}

func TestMaterializeDependenciesRepoModule(t *testing.T) {
	source := &module.Module{
		Slug: slug.MustParse("test-repo"),
		Kind: module.RepoModule,
	}

	reqs, err := requirement.MaterializeDependencies(context.Background(), nil, source)
	assert.NilError(t, err)
	assert.Equal(t, len(reqs), 0)
}
