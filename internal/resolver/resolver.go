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

// Package resolver drives the backtracking resolution loop (spec.md
// §4.7): drain the Requirements Store one requirement at a time,
// maintain the Dependency Graph's validity with single-step version
// backtracking, and emit the resolved manifest.
package resolver

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/dodevops/puppet-dependency-resolver/internal/forge"
	"github.com/dodevops/puppet-dependency-resolver/internal/graph"
	"github.com/dodevops/puppet-dependency-resolver/internal/manifest"
	"github.com/dodevops/puppet-dependency-resolver/internal/module"
	"github.com/dodevops/puppet-dependency-resolver/internal/requirement"
	"github.com/dodevops/puppet-dependency-resolver/internal/slicesext"
	"github.com/dodevops/puppet-dependency-resolver/internal/store"
	"github.com/dodevops/puppet-dependency-resolver/pkg/diagnostic"
	"github.com/dodevops/puppet-dependency-resolver/pkg/slogext"
)

// Config configures a resolution run.
type Config struct {
	// HideList names slugs that are never emitted into the output
	// manifest (but are still resolved and validated).
	HideList []string
	// IgnoreList names slugs whose NoVersionFoundError/
	// ModuleDeprecatedError are demoted to a logged warning instead of
	// aborting the run.
	IgnoreList []string

	// Client is the forge transport. Defaults to an HTTPClient against
	// the manifest's declared endpoint if nil.
	Client forge.Client

	// DumpFile is where the diagnostic dump is written on fatal
	// failure. Defaults to diagnostic.DefaultDumpFile.
	DumpFile string

	Log slogext.Logger
}

// Resolver holds the state of one resolution run (spec.md §5): the
// forge cache, dependency graph, and requirements store are singletons
// for the run's lifetime.
type Resolver struct {
	cfg   Config
	log   slogext.Logger
	cache *forge.Cache
	graph *graph.Graph
	store *store.Store

	hide   map[string]bool
	ignore map[string]bool
}

// New returns a Resolver ready to run a single resolution.
func New(cfg Config) *Resolver {
	log := cfg.Log
	if log == nil {
		log = slogext.New()
	}

	r := &Resolver{
		cfg:    cfg,
		log:    log,
		graph:  graph.New(),
		store:  store.New(),
		hide:   toSet(cfg.HideList),
		ignore: toSet(cfg.IgnoreList),
	}
	return r
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}

// Resolve reads the manifest at manifestPath, resolves its transitive
// dependency graph (spec.md §4.7), and writes the resolved manifest
// back to manifestPath. On fatal failure it writes a diagnostic dump
// to cfg.DumpFile before returning the error.
func (r *Resolver) Resolve(ctx context.Context, manifestPath string) error {
	f, err := os.Open(manifestPath)
	if err != nil {
		r.dump()
		return &ManifestSyntaxError{Err: errors.Wrapf(err, "failed to open %s", manifestPath)}
	}

	parsed, err := manifest.Parse(f, manifest.DefaultDependencySentinel)
	_ = f.Close()
	if err != nil {
		r.dump()
		return &ManifestSyntaxError{Err: err}
	}

	client := r.cfg.Client
	if client == nil {
		client = forge.NewHTTPClient(parsed.ForgeEndpoint)
	}
	r.cache = forge.NewCache(client)
	r.cache.Reset()
	r.graph.Clear()

	topLevel, dependent, err := manifest.Construct(ctx, r.cache, parsed)
	if err != nil {
		r.dump()
		return &ManifestSyntaxError{Err: err}
	}

	if err := r.seed(topLevel); err != nil {
		r.dump()
		return err
	}

	if err := r.drain(ctx); err != nil {
		r.dump()
		return err
	}

	if err := r.emit(manifestPath, parsed, topLevel, dependent); err != nil {
		r.dump()
		return err
	}
	return nil
}

// seed enqueues one SourceManifest requirement per top-level module,
// in declaration order (spec.md §4.7 step 1).
func (r *Resolver) seed(topLevel []*module.Module) error {
	r.graph.AddNode(graph.ManifestNode, nil)

	for _, m := range topLevel {
		if m.Version == nil {
			return &StateInvariantError{Detail: "top-level module " + m.Slug.String() + " has no version"}
		}
		r.store.Add(requirement.Requirement{
			Source:       requirement.SourceManifest,
			TargetModule: m,
			Range:        "= " + *m.Version,
		})
	}
	return nil
}

// drain is the main loop (spec.md §4.7 step 2): dequeue a requirement,
// check deprecation, insert into the graph, resolve/backtrack its
// target's version, and re-enqueue consequences.
func (r *Resolver) drain(ctx context.Context) error {
	for r.store.HasNext() {
		req := r.store.Next()

		if !req.IsValid() {
			r.log.Debugf("dropping malformed requirement %+v", req)
			continue
		}

		log := r.log.With("source", req.SourceSlug(), "target", req.TargetSlug(), "range", req.Range)
		log.Debug("dequeued")

		if err := r.checkDeprecation(ctx, req, log); err != nil {
			if ok, recovered := r.recoverable(err); ok {
				log.Warn(recovered.Error())
				continue
			}
			return err
		}

		req, err := r.insert(req, log)
		if err != nil {
			return err
		}

		if err := r.resolveVersion(ctx, req, log); err != nil {
			if ok, recovered := r.recoverable(err); ok {
				log.Warn(recovered.Error())
				continue
			}
			return err
		}
	}
	return nil
}

// checkDeprecation raises ModuleDeprecatedError for a deprecated
// source or target module (spec.md §4.7: "if source_module or
// target_module is deprecated, raise ModuleDeprecated").
func (r *Resolver) checkDeprecation(ctx context.Context, req requirement.Requirement, log slogext.Logger) error {
	for _, m := range []*module.Module{req.SourceModule, req.TargetModule} {
		if m == nil {
			continue
		}
		status, err := m.DeprecationStatus(ctx, r.cache)
		if err != nil {
			return &ForgeUnavailableError{Slug: m.Slug.String(), Err: err}
		}
		if status != nil {
			return &ModuleDeprecatedError{
				Slug:          m.Slug.String(),
				DeprecatedAt:  status.DeprecatedAt.Format("2006-01-02"),
				DeprecatedFor: status.DeprecatedFor,
				SupersededBy:  status.SupersededBy,
			}
		}
	}
	log.Debug("deprecation checked")
	return nil
}

// insert records req's endpoints and edge in the graph (spec.md §4.7
// step 2c). A node is only ever created for a slug once; every later
// requirement touching that slug is rebound to the node's existing
// canonical *module.Module instead of the fresh object its own
// materialization built (spec.md §9's "already in graph" Design Note:
// exactly one Module instance per slug, so backtracking's version
// mutation always lands on the same object graph.IsValid reads, no
// matter which requirement happened to trigger it). Edges, unlike
// nodes, are always (re-)recorded: AddEdge is idempotent on identity,
// and a requirement re-derived with a different range must still
// overwrite the stale one.
func (r *Resolver) insert(req requirement.Requirement, log slogext.Logger) (requirement.Requirement, error) {
	if req.SourceModule != nil {
		if existing, ok := r.graph.Node(req.SourceSlug()); ok && existing != nil {
			req.SourceModule = existing
		} else {
			r.graph.AddNode(req.SourceSlug(), req.SourceModule)
		}
	}

	if existing, ok := r.graph.Node(req.TargetSlug()); ok && existing != nil {
		req.TargetModule = existing
	} else {
		r.graph.AddNode(req.TargetSlug(), req.TargetModule)
	}

	if err := r.graph.AddEdge(req); err != nil {
		return req, &StateInvariantError{Detail: err.Error()}
	}
	log.Debug("graph inserted")
	return req, nil
}

// resolveVersion keeps the target's current version if the graph
// already validates it there; otherwise it walks the release list
// looking for a version that does, applying whichever is found
// (spec.md §4.7 step 2 "compute new_version" / "apply new_version").
func (r *Resolver) resolveVersion(ctx context.Context, req requirement.Requirement, log slogext.Logger) error {
	target := req.TargetModule
	targetSlug := req.TargetSlug()

	valid, err := r.graph.IsValid(targetSlug)
	if err != nil {
		return &StateInvariantError{Detail: err.Error()}
	}
	if valid {
		log.Debug("version selected (kept)")
		return r.applySameVersion(ctx, target, log)
	}

	if target.Kind != module.ForgeModule {
		// A RepoModule's version comes from metadata.json and cannot be
		// changed by backtracking.
		return r.noVersionFound(req)
	}

	for {
		has, err := target.HasAvailableVersion(ctx, r.cache)
		if err != nil {
			return &ForgeUnavailableError{Slug: targetSlug, Err: err}
		}
		if !has {
			return r.noVersionFound(req)
		}

		candidate, err := target.NextAvailableVersion(ctx, r.cache)
		if err != nil {
			return &ForgeUnavailableError{Slug: targetSlug, Err: err}
		}

		old := target.Version
		target.Version = &candidate

		valid, err := r.graph.IsValid(targetSlug)
		if err != nil {
			return &StateInvariantError{Detail: err.Error()}
		}
		if valid {
			if err := target.PushAvailableVersion(ctx, r.cache, candidate); err != nil {
				return &ForgeUnavailableError{Slug: targetSlug, Err: err}
			}
			log.Debugf("version selected (backtracked to %s)", candidate)
			return r.applyNewVersion(ctx, target, old, log)
		}
		// candidate still invalid; loop consumes the next one.
	}
}

func (r *Resolver) noVersionFound(req requirement.Requirement) error {
	return &NoVersionFoundError{SourceSlug: req.SourceSlug(), TargetSlug: req.TargetSlug(), Range: req.Range}
}

// applySameVersion enqueues target's still-applicable dependencies
// without disturbing any other node (spec.md §4.7: "if new_version ==
// old_version, enqueue each dependency requirement").
func (r *Resolver) applySameVersion(ctx context.Context, target *module.Module, log slogext.Logger) error {
	deps, err := requirement.MaterializeDependencies(ctx, r.cache, target)
	if err != nil {
		return &ForgeUnavailableError{Slug: target.Slug.String(), Err: err}
	}
	for _, d := range deps {
		r.store.Add(d)
	}
	log.Debugf("applied, %d dependencies enqueued", len(deps))
	return nil
}

// applyNewVersion handles a version change (spec.md §4.7: update the
// store's queued copies, drop now-orphaned descendants, delete the
// target's stale outgoing requirements, and re-enqueue one requirement
// per remaining in-edge so the target is re-processed against its new
// version).
func (r *Resolver) applyNewVersion(ctx context.Context, target *module.Module, old *string, log slogext.Logger) error {
	targetSlug := target.Slug.String()

	r.store.UpdateTargetVersion(targetSlug, *target.Version)
	r.store.DeleteSourceRequirements(targetSlug)
	r.dropOrphanedDescendants(targetSlug)

	inEdges := r.graph.InEdges(targetSlug)
	r.graph.DropNode(targetSlug)
	r.graph.AddNode(targetSlug, target)

	for _, in := range inEdges {
		r.store.Add(in)
	}

	log.Debugf("applied new version (was %v), %d in-edges re-enqueued", derefOrEmpty(old), len(inEdges))
	return nil
}

// dropOrphanedDescendants removes each direct child of targetSlug whose
// every incoming edge comes from targetSlug, so a dependency of the
// abandoned version does not linger in the graph (spec.md §4.7
// "invalidated nodes"). Only direct children are visited; nodes further
// down are not dropped.
func (r *Resolver) dropOrphanedDescendants(targetSlug string) {
	for _, out := range r.graph.OutEdges(targetSlug) {
		child := out.TargetSlug()
		remaining := r.graph.InEdges(child)
		onlyThis := true
		for _, e := range remaining {
			if e.SourceSlug() != targetSlug {
				onlyThis = false
				break
			}
		}
		if onlyThis {
			r.graph.DropNode(child)
		}
	}
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// recoverable reports whether err is a NoVersionFoundError or
// ModuleDeprecatedError naming a slug on the ignore list, returning
// the (possibly wrapped) error to log as a warning.
func (r *Resolver) recoverable(err error) (bool, error) {
	switch e := err.(type) {
	case *NoVersionFoundError:
		if r.ignore[e.TargetSlug] {
			return true, e
		}
	case *ModuleDeprecatedError:
		if r.ignore[e.Slug] {
			return true, e
		}
	}
	return false, err
}

// emit partitions the resolved graph into top-level and dependent
// modules and writes the final manifest (spec.md §4.7 step 3).
func (r *Resolver) emit(path string, parsed *manifest.Manifest, topLevel, _ []*module.Module) error {
	topSlugs := slicesext.Map(topLevel, func(m *module.Module) string { return m.Slug.String() })

	var top, dep []*module.Module
	for _, slug := range r.graph.Nodes() {
		if slug == graph.ManifestNode || r.hide[slug] {
			continue
		}
		m, ok := r.graph.Node(slug)
		if !ok || m == nil {
			continue
		}

		if _, isTopLevel := topSlugs[slug]; isTopLevel || hasManifestSource(r.graph.InEdges(slug)) {
			top = append(top, m)
		} else {
			dep = append(dep, m)
		}
	}

	manifest.Sort(top)
	manifest.Sort(dep)

	f, err := os.Create(path)
	if err != nil {
		return &StateInvariantError{Detail: errors.Wrapf(err, "failed to write resolved manifest to %s", path).Error()}
	}
	defer f.Close()

	return manifest.Emit(f, manifest.EmitOpts{
		ForgeEndpoint:      parsed.ForgeEndpoint,
		Preamble:           parsed.Preamble,
		DependencySentinel: parsed.DependencySentinel,
		TopLevel:           top,
		Dependent:          dep,
	})
}

func hasManifestSource(in []requirement.Requirement) bool {
	for _, r := range in {
		if r.Source == requirement.SourceManifest {
			return true
		}
	}
	return false
}

// dump writes a best-effort diagnostic snapshot on fatal failure
// (spec.md §5, §9). Failures writing the dump itself are logged and
// never mask the original resolution error.
func (r *Resolver) dump() {
	path := r.cfg.DumpFile
	if path == "" {
		path = diagnostic.DefaultDumpFile
	}

	cacheInfo := map[string]any{}
	if r.cache != nil {
		cacheInfo = r.cache.ErrorInformation()
	}
	d := diagnostic.Build(cacheInfo, r.graph)
	if err := diagnostic.WriteFile(path, d); err != nil {
		r.log.WithError(err).Error("failed to write diagnostic dump")
	}
}
