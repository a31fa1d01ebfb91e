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

package forge

import (
	"context"
	"fmt"
	"sync"
)

// Cache memoizes registry lookups for the lifetime of a single
// resolution run. It is safe for concurrent use, but the resolver
// itself drives everything from a single logical task (spec.md §5).
//
// Grounded on the teacher's internal/modules/resolver.Resolver, which
// memoizes git tag lists behind a mutex-guarded map the same way.
type Cache struct {
	client Client

	mu          sync.Mutex
	moduleData  map[string]*ModuleData
	releases    map[string][]string
	releaseDeps map[string][]DependencySpec
}

// NewCache returns a Cache backed by client.
func NewCache(client Client) *Cache {
	return &Cache{client: client}
}

// Reset clears every memoized value. Called once at the start of each
// resolution run (spec.md §4.4 "Lifecycle").
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.moduleData = nil
	c.releases = nil
	c.releaseDeps = nil
}

func (c *Cache) moduleKey(author, name string) string {
	return author + "-" + name
}

// ModuleData returns the cached module record, fetching it if this is
// the first request for (author, name).
func (c *Cache) ModuleData(ctx context.Context, author, name string) (*ModuleData, error) {
	key := c.moduleKey(author, name)

	c.mu.Lock()
	if c.moduleData == nil {
		c.moduleData = make(map[string]*ModuleData)
	}
	if md, ok := c.moduleData[key]; ok {
		c.mu.Unlock()
		return md, nil
	}
	c.mu.Unlock()

	md, err := c.client.ModuleData(ctx, author, name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.moduleData[key] = md
	c.mu.Unlock()
	return md, nil
}

// Releases returns the ordered (descending-semver) release list for a
// module, fetching it if necessary.
func (c *Cache) Releases(ctx context.Context, author, name string) ([]string, error) {
	key := c.moduleKey(author, name)

	c.mu.Lock()
	if c.releases == nil {
		c.releases = make(map[string][]string)
	}
	if r, ok := c.releases[key]; ok {
		c.mu.Unlock()
		return r, nil
	}
	c.mu.Unlock()

	md, err := c.ModuleData(ctx, author, name)
	if err != nil {
		return nil, err
	}

	versions := make([]string, 0, len(md.Releases))
	for _, r := range md.Releases {
		versions = append(versions, r.Version)
	}

	c.mu.Lock()
	c.releases[key] = versions
	c.mu.Unlock()
	return versions, nil
}

// UpdateAvailableReleases atomically replaces the cached release list
// for a module. Used by the resolver to consume/re-commit candidates
// (spec.md §4.3 next_available_version/push_available_version).
func (c *Cache) UpdateAvailableReleases(author, name string, releases []string) {
	key := c.moduleKey(author, name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.releases == nil {
		c.releases = make(map[string][]string)
	}
	c.releases[key] = releases
}

// DeprecationStatus returns the deprecation record for a module, or
// nil if it is not deprecated.
func (c *Cache) DeprecationStatus(ctx context.Context, author, name string) (*DeprecationStatus, error) {
	md, err := c.ModuleData(ctx, author, name)
	if err != nil {
		return nil, err
	}
	return FromModuleData(md), nil
}

// Dependencies returns the dependency specs for one release, fetching
// them if necessary.
func (c *Cache) Dependencies(ctx context.Context, author, name, version string) ([]DependencySpec, error) {
	key := c.moduleKey(author, name) + "@" + version

	c.mu.Lock()
	if c.releaseDeps == nil {
		c.releaseDeps = make(map[string][]DependencySpec)
	}
	if d, ok := c.releaseDeps[key]; ok {
		c.mu.Unlock()
		return d, nil
	}
	c.mu.Unlock()

	rm, err := c.client.ReleaseMetadata(ctx, author, name, version)
	if err != nil {
		return nil, err
	}

	deps := rm.Metadata.Dependencies
	if deps == nil {
		deps = []DependencySpec{}
	}

	c.mu.Lock()
	c.releaseDeps[key] = deps
	c.mu.Unlock()
	return deps, nil
}

// ErrorInformation returns a diagnostic snapshot of everything the
// cache currently holds, for the error dump (spec.md §5, §6).
func (c *Cache) ErrorInformation() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := make(map[string]any, 3)
	info["moduleData"] = c.moduleData
	info["releases"] = c.releases
	info["releaseDependencies"] = c.releaseDeps
	return info
}

// String implements fmt.Stringer for debug logging.
func (c *Cache) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("forge.Cache{modules=%d releases=%d releaseDeps=%d}",
		len(c.moduleData), len(c.releases), len(c.releaseDeps))
}
