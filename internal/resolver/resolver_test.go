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

package resolver_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dodevops/puppet-dependency-resolver/internal/forge"
	"github.com/dodevops/puppet-dependency-resolver/internal/forge/forgetest"
	"github.com/dodevops/puppet-dependency-resolver/internal/resolver"
	"gotest.tools/v3/assert"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "Puppetfile")
	assert.NilError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const forgeLine = "forge 'https://forgeapi.puppetlabs.com'\n"

func TestResolveBasicDependency(t *testing.T) {
	client := forgetest.New().
		Add(&forgetest.Module{
			Author: "test", Name: "default", Versions: []string{"1.0.0"},
			Dependencies: map[string][]forge.DependencySpec{
				"1.0.0": {{Name: "test-dependency", VersionRequirement: ">= 1.0.0"}},
			},
		}).
		Add(&forgetest.Module{Author: "test", Name: "dependency", Versions: []string{"1.0.0"}})

	path := writeManifest(t, forgeLine+"mod 'test-default', '1.0.0'\n")

	r := resolver.New(resolver.Config{Client: client})
	assert.NilError(t, r.Resolve(context.Background(), path))

	out, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(string(out), "mod 'test-dependency', '1.0.0'"))
	assert.Assert(t, strings.Contains(string(out), "## dependencies"))
}

func TestResolveUnsatisfiableDependencyFails(t *testing.T) {
	client := forgetest.New().
		Add(&forgetest.Module{
			Author: "test", Name: "default", Versions: []string{"1.0.0"},
			Dependencies: map[string][]forge.DependencySpec{
				"1.0.0": {{Name: "test-dependency", VersionRequirement: ">= 2.0.0"}},
			},
		}).
		Add(&forgetest.Module{Author: "test", Name: "dependency", Versions: []string{"1.0.0"}})

	path := writeManifest(t, forgeLine+"mod 'test-default', '1.0.0'\n")

	r := resolver.New(resolver.Config{Client: client, DumpFile: filepath.Join(t.TempDir(), "errorDump.js")})
	err := r.Resolve(context.Background(), path)
	assert.ErrorContains(t, err, "no version found")
}

func TestResolveUnsatisfiableDependencyIgnored(t *testing.T) {
	client := forgetest.New().
		Add(&forgetest.Module{
			Author: "test", Name: "default", Versions: []string{"1.0.0"},
			Dependencies: map[string][]forge.DependencySpec{
				"1.0.0": {{Name: "test-dependency", VersionRequirement: ">= 2.0.0"}},
			},
		}).
		Add(&forgetest.Module{Author: "test", Name: "dependency", Versions: []string{"1.0.0"}})

	path := writeManifest(t, forgeLine+"mod 'test-default', '1.0.0'\n")

	r := resolver.New(resolver.Config{Client: client, IgnoreList: []string{"test-dependency"}})
	assert.NilError(t, r.Resolve(context.Background(), path))
}

func TestResolveDeprecatedModuleFails(t *testing.T) {
	client := forgetest.New().
		Add(&forgetest.Module{
			Author: "test", Name: "default", Versions: []string{"1.0.0"},
			DeprecatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), DeprecatedFor: "no longer maintained",
		})

	path := writeManifest(t, forgeLine+"mod 'test-default', '1.0.0'\n")

	r := resolver.New(resolver.Config{Client: client, DumpFile: filepath.Join(t.TempDir(), "errorDump.js")})
	err := r.Resolve(context.Background(), path)
	assert.ErrorContains(t, err, "deprecated")
}

func TestResolveDeprecatedModuleIgnored(t *testing.T) {
	client := forgetest.New().
		Add(&forgetest.Module{
			Author: "test", Name: "default", Versions: []string{"1.0.0"},
			DeprecatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), DeprecatedFor: "no longer maintained",
		})

	path := writeManifest(t, forgeLine+"mod 'test-default', '1.0.0'\n")

	r := resolver.New(resolver.Config{Client: client, IgnoreList: []string{"test-default"}})
	assert.NilError(t, r.Resolve(context.Background(), path))
}

func TestResolveBacktracksSharedDependencyToCanonicalVersion(t *testing.T) {
	client := forgetest.New().
		Add(&forgetest.Module{
			Author: "test", Name: "s1", Versions: []string{"1.0.0"},
			Dependencies: map[string][]forge.DependencySpec{
				"1.0.0": {{Name: "test-target", VersionRequirement: ">= 0.9.0"}},
			},
		}).
		Add(&forgetest.Module{
			Author: "test", Name: "s2", Versions: []string{"1.0.0"},
			Dependencies: map[string][]forge.DependencySpec{
				"1.0.0": {{Name: "test-target", VersionRequirement: "< 1.0.0"}},
			},
		}).
		Add(&forgetest.Module{Author: "test", Name: "target", Versions: []string{"1.0.0", "0.9.0"}})

	path := writeManifest(t, forgeLine+"mod 'test-s1', '1.0.0'\nmod 'test-s2', '1.0.0'\n")

	r := resolver.New(resolver.Config{Client: client})
	assert.NilError(t, r.Resolve(context.Background(), path))

	out, err := os.ReadFile(path)
	assert.NilError(t, err)
	// S1 alone is satisfied by the default newest release (1.0.0); only
	// once S2's "< 1.0.0" requirement is discovered against the same
	// target slug must the resolver downgrade to the one version both
	// sources actually agree on.
	assert.Assert(t, strings.Contains(string(out), "mod 'test-target', '0.9.0'"))
	assert.Assert(t, !strings.Contains(string(out), "mod 'test-target', '1.0.0'"))
}

func TestResolveBacktracksToSatisfyingVersion(t *testing.T) {
	client := forgetest.New().
		Add(&forgetest.Module{
			Author: "test", Name: "default", Versions: []string{"1.0.0"},
			Dependencies: map[string][]forge.DependencySpec{
				"1.0.0": {{Name: "test-target", VersionRequirement: "< 2.0.0"}},
			},
		}).
		Add(&forgetest.Module{Author: "test", Name: "target", Versions: []string{"2.0.0", "1.5.0", "1.0.0"}})

	path := writeManifest(t, forgeLine+"mod 'test-default', '1.0.0'\n")

	r := resolver.New(resolver.Config{Client: client})
	assert.NilError(t, r.Resolve(context.Background(), path))

	out, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(string(out), "mod 'test-target', '1.5.0'"))
}
