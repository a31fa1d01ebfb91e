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

// Package requirement implements the Requirement value: a directed
// edge "source needs target within range" (spec.md §3), and the
// materialization of a module's dependencies into requirements.
package requirement

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/pkg/errors"

	"github.com/dodevops/puppet-dependency-resolver/internal/forge"
	"github.com/dodevops/puppet-dependency-resolver/internal/module"
	"github.com/dodevops/puppet-dependency-resolver/internal/slug"
)

// Source distinguishes a requirement seeded from the manifest's
// top-level module list from one discovered via another module's
// dependencies.
type Source string

const (
	// SourceManifest requirements are seeded directly from the
	// manifest's top-level mod declarations.
	SourceManifest Source = "manifest"
	// SourceDependency requirements are discovered from another
	// module's declared dependencies.
	SourceDependency Source = "dependency"
)

// IsValid reports whether s is one of the known requirement sources.
func (s Source) IsValid() bool {
	return s == SourceManifest || s == SourceDependency
}

// Requirement is a 4-tuple {source, source_module, target_module,
// range}, per spec.md §3. SourceModule is nil iff Source ==
// SourceManifest.
type Requirement struct {
	Source       Source
	SourceModule *module.Module
	TargetModule *module.Module
	Range        string
}

// IsValid reports whether the requirement's own shape is internally
// consistent, independent of the graph: TargetModule is set, Source is
// a known source, and SourceModule is set for a SourceDependency
// requirement. Range is not checked, since an empty range means any
// version (see Satisfies).
func (r Requirement) IsValid() bool {
	if r.TargetModule == nil {
		return false
	}
	if !r.Source.IsValid() {
		return false
	}
	if r.Source == SourceDependency && r.SourceModule == nil {
		return false
	}
	return true
}

// SourceSlug returns the requirement's source node slug, or
// "manifest" for a manifest-sourced requirement, per the edge identity
// rule in spec.md §3.
func (r Requirement) SourceSlug() string {
	if r.Source == SourceManifest || r.SourceModule == nil {
		return "manifest"
	}
	return r.SourceModule.Slug.String()
}

// TargetSlug returns the requirement's target node slug.
func (r Requirement) TargetSlug() string {
	if r.TargetModule == nil {
		return "<nil>"
	}
	return r.TargetModule.Slug.String()
}

// EdgeKey returns the requirement's edge identity,
// "(source_slug).(target_slug)". At most one edge per identity exists
// in the graph (spec.md §3).
func (r Requirement) EdgeKey() string {
	return fmt.Sprintf("%s.%s", r.SourceSlug(), r.TargetSlug())
}

// Hash returns a stable identity hash of the requirement over its
// source kind, edge identity and range. The dependency graph keys
// edges by EdgeKey, not by this hash, and the diagnostic dump derives
// its own module reference ids. Grounded on the teacher's use of hashstructure for content hashing
// in internal/codegen/shared_state.go.
func (r Requirement) Hash() (uint64, error) {
	h, err := hashstructure.Hash(struct {
		Source      string
		SourceSlug  string
		Target      string
		Range       string
	}{
		Source:     string(r.Source),
		SourceSlug: r.SourceSlug(),
		Target:     r.EdgeKey(),
		Range:      r.Range,
	}, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to hash requirement")
	}
	return h, nil
}

// Satisfies reports whether version satisfies the requirement's
// range. An empty range is "any version" (spec.md §4.3: "A missing
// version_requirement maps to an empty range, treated as 'any
// version'"). A nil/empty version is trivially valid, mirroring the
// Dependency Graph's "a module with no version is trivially valid"
// rule (spec.md §4.5).
func (r Requirement) Satisfies(version string) (bool, error) {
	if version == "" {
		return true, nil
	}
	if r.Range == "" {
		return true, nil
	}

	c, err := semver.NewConstraint(r.Range)
	if err != nil {
		return false, errors.Wrapf(err, "invalid version range %q", r.Range)
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return false, errors.Wrapf(err, "invalid version %q", version)
	}

	return c.Check(v), nil
}

// MaterializeDependencies builds the requirements a module declares,
// per spec.md §4.3 "dependencies()". For a ForgeModule, each of the
// cache's release dependencies becomes a SourceDependency requirement
// whose target is a freshly constructed ForgeModule with no literal
// version (so it resolves to the newest release). For a RepoModule,
// the same is built from metadata.json's dependencies array.
//
// source must already have its Version set; its own declaration is
// not re-fetched.
func MaterializeDependencies(ctx context.Context, cache *forge.Cache, source *module.Module) ([]Requirement, error) {
	switch source.Kind {
	case module.ForgeModule:
		return materializeForgeDependencies(ctx, cache, source)
	case module.RepoModule:
		return materializeRepoDependencies(source)
	default:
		return nil, fmt.Errorf("module %s: unknown kind %q", source.Slug, source.Kind)
	}
}

func materializeForgeDependencies(ctx context.Context, cache *forge.Cache, source *module.Module) ([]Requirement, error) {
	if source.Version == nil {
		return nil, fmt.Errorf("module %s: cannot materialize dependencies before a version is resolved", source.Slug)
	}

	specs, err := cache.Dependencies(ctx, source.Slug.Author, source.Slug.Name, *source.Version)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch dependencies for %s@%s", source.Slug, *source.Version)
	}

	reqs := make([]Requirement, 0, len(specs))
	for _, spec := range specs {
		target, err := targetFromSpec(ctx, cache, source, spec)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, Requirement{
			Source:       SourceDependency,
			SourceModule: source,
			TargetModule: target,
			Range:        spec.VersionRequirement,
		})
	}
	return reqs, nil
}

func materializeRepoDependencies(source *module.Module) ([]Requirement, error) {
	deps := source.RepoDependencies()
	reqs := make([]Requirement, 0, len(deps))
	for _, d := range deps {
		s, err := parseTargetSlug(d.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "module %s: invalid dependency name %q", source.Slug, d.Name)
		}

		target := &module.Module{
			Slug:          s,
			Kind:          module.ForgeModule,
			ForgeEndpoint: source.ForgeEndpoint,
		}
		reqs = append(reqs, Requirement{
			Source:       SourceDependency,
			SourceModule: source,
			TargetModule: target,
			Range:        d.VersionRequirement,
		})
	}
	return reqs, nil
}

func targetFromSpec(ctx context.Context, cache *forge.Cache, source *module.Module, spec forge.DependencySpec) (*module.Module, error) {
	s, err := parseTargetSlug(spec.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "module %s: invalid dependency name %q", source.Slug, spec.Name)
	}

	return module.NewForge(ctx, cache, module.NewForgeOpts{
		Author:        s.Author,
		Name:          s.Name,
		ForgeEndpoint: source.ForgeEndpoint,
	})
}

// parseTargetSlug parses a dependency name (which may use either
// separator, per spec.md §4.1) into a Slug.
func parseTargetSlug(name string) (slug.Slug, error) {
	return slug.Parse(name)
}
