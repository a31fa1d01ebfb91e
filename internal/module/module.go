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

// Package module implements the Module Declaration: a single module's
// identity, version state, and (for repo modules) its on-disk
// metadata. It deliberately knows nothing about requirements or the
// dependency graph; internal/requirement builds those from a Module.
package module

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	giturls "github.com/whilp/git-urls"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/pkg/errors"

	"github.com/dodevops/puppet-dependency-resolver/internal/forge"
	"github.com/dodevops/puppet-dependency-resolver/internal/git"
	"github.com/dodevops/puppet-dependency-resolver/internal/slug"
)

// Kind distinguishes a forge-hosted module from a git-repository
// module.
type Kind string

const (
	// ForgeModule is resolved against a forge registry endpoint.
	ForgeModule Kind = "forge"
	// RepoModule is cloned from a git repository and versioned from
	// its own metadata.json.
	RepoModule Kind = "repo"
)

// IsValid reports whether k is one of the known module kinds.
func (k Kind) IsValid() bool {
	return k == ForgeModule || k == RepoModule
}

// MetadataFile is the file a RepoModule reads its version and
// dependencies from.
const MetadataFile = "metadata.json"

// repoMetadata is the subset of metadata.json this resolver consumes.
type repoMetadata struct {
	Version      string `json:"version"`
	Dependencies []struct {
		Name               string `json:"name"`
		VersionRequirement string `json:"version_requirement"`
	} `json:"dependencies"`
}

// decodeRepoMetadata parses a metadata.json body. Split out from
// NewRepo so the grammar can be exercised without a real clone.
func decodeRepoMetadata(r io.Reader) (repoMetadata, error) {
	var meta repoMetadata
	if err := json.NewDecoder(r).Decode(&meta); err != nil {
		return repoMetadata{}, err
	}
	return meta, nil
}

// Module is one parsed module declaration, per spec.md §3 "Module
// Declaration".
type Module struct {
	Slug slug.Slug
	Kind Kind

	// Version is nil until resolved. For a ForgeModule it is set
	// either from a literal manifest version or, on construction, from
	// the newest forge release. For a RepoModule it is always set on
	// construction, from metadata.json.
	Version *string

	// RepoURL and RepoRef are set only for RepoModule.
	RepoURL string
	RepoRef string

	// Comment is the comment block that preceded this declaration in
	// the manifest, preserved verbatim for emission.
	Comment []string

	// ForgeEndpoint is the endpoint this module's forge lookups use.
	// Required for ForgeModule before any version or dependency query.
	ForgeEndpoint string

	// repoDeps caches the parsed metadata.json dependency list for a
	// RepoModule, since cloning happens once at construction.
	repoDeps []RepoDependency
}

// RepoDependency is one entry from a RepoModule's metadata.json
// dependencies array.
type RepoDependency struct {
	Name               string
	VersionRequirement string
}

// NewForgeOpts configures NewForge.
type NewForgeOpts struct {
	Author, Name  string
	Version       string // literal version from the manifest; empty if unset
	Comment       []string
	ForgeEndpoint string
}

// NewForge constructs a ForgeModule declaration. If opts.Version is
// empty, it resolves to the newest release reported by the forge
// cache (spec.md §4.3 "For a ForgeModule with no literal version, set
// version to the highest version reported by the forge").
func NewForge(ctx context.Context, cache *forge.Cache, opts NewForgeOpts) (*Module, error) {
	if opts.ForgeEndpoint == "" {
		return nil, fmt.Errorf("module %s-%s: forge endpoint must be set before construction", opts.Author, opts.Name)
	}

	m := &Module{
		Slug:          slug.Slug{Author: opts.Author, Name: opts.Name},
		Kind:          ForgeModule,
		Comment:       opts.Comment,
		ForgeEndpoint: opts.ForgeEndpoint,
	}

	if opts.Version != "" {
		v := opts.Version
		m.Version = &v
		return m, nil
	}

	versions, err := cache.Releases(ctx, opts.Author, opts.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to look up releases for %s-%s", opts.Author, opts.Name)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("module %s-%s: forge reports no releases", opts.Author, opts.Name)
	}

	v := versions[0]
	m.Version = &v
	return m, nil
}

// NewRepoOpts configures NewRepo.
type NewRepoOpts struct {
	Author, Name string
	RepoURL      string
	RepoRef      string
	Comment      []string
}

// NewRepo constructs a RepoModule declaration: clones the repository
// into a scoped temporary directory, optionally checks out RepoRef,
// reads metadata.json, and sets Version from it (spec.md §4.3).
func NewRepo(ctx context.Context, opts NewRepoOpts) (*Module, error) {
	if opts.RepoURL == "" {
		return nil, fmt.Errorf("module %s-%s: repo_url must be set", opts.Author, opts.Name)
	}
	if _, err := giturls.Parse(opts.RepoURL); err != nil {
		return nil, errors.Wrapf(err, "module %s-%s: invalid repo_url %q", opts.Author, opts.Name, opts.RepoURL)
	}

	dir, err := git.Clone(ctx, opts.RepoURL, opts.RepoRef)
	if err != nil {
		return nil, errors.Wrapf(err, "module %s-%s: failed to clone %q", opts.Author, opts.Name, opts.RepoURL)
	}
	defer func() { _ = git.Cleanup(dir) }()

	fs := osfs.New(dir)
	f, err := fs.Open(MetadataFile)
	if err != nil {
		return nil, errors.Wrapf(err, "module %s-%s: missing %s", opts.Author, opts.Name, MetadataFile)
	}
	defer f.Close()

	meta, err := decodeRepoMetadata(f)
	if err != nil {
		return nil, errors.Wrapf(err, "module %s-%s: unparsable %s", opts.Author, opts.Name, MetadataFile)
	}
	if meta.Version == "" {
		return nil, fmt.Errorf("module %s-%s: %s has no version", opts.Author, opts.Name, MetadataFile)
	}

	m := &Module{
		Slug:    slug.Slug{Author: opts.Author, Name: opts.Name},
		Kind:    RepoModule,
		Version: &meta.Version,
		RepoURL: opts.RepoURL,
		RepoRef: opts.RepoRef,
		Comment: opts.Comment,
	}
	for _, d := range meta.Dependencies {
		m.repoDeps = append(m.repoDeps, RepoDependency{Name: d.Name, VersionRequirement: d.VersionRequirement})
	}
	return m, nil
}

// RepoDependencies returns the dependencies declared in a RepoModule's
// metadata.json. Empty for a ForgeModule.
func (m *Module) RepoDependencies() []RepoDependency {
	return m.repoDeps
}

// AvailableVersions returns the cached release list for a ForgeModule
// (descending semver). Fails for a RepoModule or if no forge endpoint
// is set.
func (m *Module) AvailableVersions(ctx context.Context, cache *forge.Cache) ([]string, error) {
	if m.Kind != ForgeModule {
		return nil, fmt.Errorf("module %s: available_versions is only defined for forge modules", m.Slug)
	}
	if m.ForgeEndpoint == "" {
		return nil, fmt.Errorf("module %s: no forge endpoint set", m.Slug)
	}
	return cache.Releases(ctx, m.Slug.Author, m.Slug.Name)
}

// HasAvailableVersion reports whether the release list is non-empty.
func (m *Module) HasAvailableVersion(ctx context.Context, cache *forge.Cache) (bool, error) {
	versions, err := m.AvailableVersions(ctx, cache)
	if err != nil {
		return false, err
	}
	return len(versions) > 0, nil
}

// NextAvailableVersion removes and returns the head of the release
// list, updating the cache so subsequent calls see the shortened
// list (spec.md §4.3 next_available_version).
func (m *Module) NextAvailableVersion(ctx context.Context, cache *forge.Cache) (string, error) {
	versions, err := m.AvailableVersions(ctx, cache)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("module %s: no available version", m.Slug)
	}

	next := versions[0]
	cache.UpdateAvailableReleases(m.Slug.Author, m.Slug.Name, versions[1:])
	return next, nil
}

// PushAvailableVersion reinserts v at the head of the release list,
// used to re-commit a chosen candidate (spec.md §4.3
// push_available_version).
func (m *Module) PushAvailableVersion(ctx context.Context, cache *forge.Cache, v string) error {
	versions, err := m.AvailableVersions(ctx, cache)
	if err != nil {
		return err
	}
	cache.UpdateAvailableReleases(m.Slug.Author, m.Slug.Name, append([]string{v}, versions...))
	return nil
}

// DeprecationStatus returns the forge's deprecation record for a
// ForgeModule, or nil. A RepoModule is never deprecated.
func (m *Module) DeprecationStatus(ctx context.Context, cache *forge.Cache) (*forge.DeprecationStatus, error) {
	if m.Kind != ForgeModule {
		return nil, nil
	}
	return cache.DeprecationStatus(ctx, m.Slug.Author, m.Slug.Name)
}
