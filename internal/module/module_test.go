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

package module_test

import (
	"context"
	"testing"

	"github.com/dodevops/puppet-dependency-resolver/internal/forge"
	"github.com/dodevops/puppet-dependency-resolver/internal/forge/forgetest"
	"github.com/dodevops/puppet-dependency-resolver/internal/module"
	"gotest.tools/v3/assert"
)

func newFixtureCache() *forge.Cache {
	client := forgetest.New().Add(&forgetest.Module{
		Author:   "test",
		Name:     "default",
		Versions: []string{"2.0.0", "1.0.0"},
	})
	return forge.NewCache(client)
}

func TestNewForgeResolvesNewestWhenVersionOmitted(t *testing.T) {
	ctx := context.Background()
	cache := newFixtureCache()

	m, err := module.NewForge(ctx, cache, module.NewForgeOpts{
		Author:        "test",
		Name:          "default",
		ForgeEndpoint: forge.DefaultEndpoint,
	})
	assert.NilError(t, err)
	assert.Equal(t, *m.Version, "2.0.0")
}

func TestNewForgeKeepsLiteralVersion(t *testing.T) {
	ctx := context.Background()
	cache := newFixtureCache()

	m, err := module.NewForge(ctx, cache, module.NewForgeOpts{
		Author:        "test",
		Name:          "default",
		Version:       "1.0.0",
		ForgeEndpoint: forge.DefaultEndpoint,
	})
	assert.NilError(t, err)
	assert.Equal(t, *m.Version, "1.0.0")
}

func TestNewForgeRequiresEndpoint(t *testing.T) {
	ctx := context.Background()
	cache := newFixtureCache()

	_, err := module.NewForge(ctx, cache, module.NewForgeOpts{Author: "test", Name: "default"})
	assert.ErrorContains(t, err, "forge endpoint must be set")
}

func TestNextAndPushAvailableVersionRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := newFixtureCache()

	m, err := module.NewForge(ctx, cache, module.NewForgeOpts{
		Author: "test", Name: "default", Version: "2.0.0", ForgeEndpoint: forge.DefaultEndpoint,
	})
	assert.NilError(t, err)

	v, err := m.NextAvailableVersion(ctx, cache)
	assert.NilError(t, err)
	assert.Equal(t, v, "2.0.0")

	remaining, err := m.AvailableVersions(ctx, cache)
	assert.NilError(t, err)
	assert.DeepEqual(t, remaining, []string{"1.0.0"})

	assert.NilError(t, m.PushAvailableVersion(ctx, cache, v))
	restored, err := m.AvailableVersions(ctx, cache)
	assert.NilError(t, err)
	assert.DeepEqual(t, restored, []string{"2.0.0", "1.0.0"})
}

func TestHasAvailableVersionBecomesFalseWhenExhausted(t *testing.T) {
	ctx := context.Background()
	cache := newFixtureCache()

	m, err := module.NewForge(ctx, cache, module.NewForgeOpts{
		Author: "test", Name: "default", Version: "2.0.0", ForgeEndpoint: forge.DefaultEndpoint,
	})
	assert.NilError(t, err)

	for i := 0; i < 2; i++ {
		_, err := m.NextAvailableVersion(ctx, cache)
		assert.NilError(t, err)
	}

	has, err := m.HasAvailableVersion(ctx, cache)
	assert.NilError(t, err)
	assert.Equal(t, has, false)

	_, err = m.NextAvailableVersion(ctx, cache)
	assert.ErrorContains(t, err, "no available version")
}

func TestDeprecationStatusIsNilForRepoModule(t *testing.T) {
	ctx := context.Background()
	cache := newFixtureCache()

	m := &module.Module{Kind: module.RepoModule}
	status, err := m.DeprecationStatus(ctx, cache)
	assert.NilError(t, err)
	assert.Assert(t, status == nil)
}

func TestNewRepoRequiresURL(t *testing.T) {
	ctx := context.Background()
	_, err := module.NewRepo(ctx, module.NewRepoOpts{Author: "test", Name: "repo"})
	assert.ErrorContains(t, err, "repo_url must be set")
}

