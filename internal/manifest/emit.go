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

package manifest

import (
	"fmt"
	"io"
	"sort"

	"github.com/dodevops/puppet-dependency-resolver/internal/module"
)

// EmitOpts configures Emit.
type EmitOpts struct {
	ForgeEndpoint      string
	Preamble           []string
	DependencySentinel string // defaults to DefaultDependencySentinel

	// TopLevel and Dependent are partitioned by the resolver. Emit
	// further splits TopLevel into repository modules sorted by name,
	// then forge modules sorted by name; Dependent is sorted by name
	// only, without a repo/forge split.
	TopLevel  []*module.Module
	Dependent []*module.Module
}

// Emit writes a manifest in canonical form: forge declaration,
// optional preamble, repository modules sorted by name, forge modules
// sorted by name, the dependency sentinel, then dependent modules
// sorted by name. Comment blocks are reproduced verbatim; inline
// comments from the input are not preserved (documented limitation,
// spec.md §4.2).
func Emit(w io.Writer, opts EmitOpts) error {
	sentinel := opts.DependencySentinel
	if sentinel == "" {
		sentinel = DefaultDependencySentinel
	}

	if _, err := fmt.Fprintf(w, "forge '%s'\n", opts.ForgeEndpoint); err != nil {
		return err
	}

	for _, line := range opts.Preamble {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	if err := emitGroup(w, opts.TopLevel); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\n%s\n", sentinel); err != nil {
		return err
	}

	return emitDependentGroup(w, opts.Dependent)
}

// emitGroup writes the top-level modules: repository modules sorted
// by name, then forge modules sorted by name.
func emitGroup(w io.Writer, modules []*module.Module) error {
	repo, forgeMods := partitionByKind(modules)
	for _, m := range repo {
		if err := emitOne(w, m); err != nil {
			return err
		}
	}
	for _, m := range forgeMods {
		if err := emitOne(w, m); err != nil {
			return err
		}
	}
	return nil
}

func emitDependentGroup(w io.Writer, modules []*module.Module) error {
	sorted := append([]*module.Module(nil), modules...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Slug.String() < sorted[j].Slug.String() })
	for _, m := range sorted {
		if err := emitOne(w, m); err != nil {
			return err
		}
	}
	return nil
}

func partitionByKind(modules []*module.Module) (repo, forgeMods []*module.Module) {
	for _, m := range modules {
		if m.Kind == module.RepoModule {
			repo = append(repo, m)
		} else {
			forgeMods = append(forgeMods, m)
		}
	}
	sort.Slice(repo, func(i, j int) bool { return repo[i].Slug.String() < repo[j].Slug.String() })
	sort.Slice(forgeMods, func(i, j int) bool { return forgeMods[i].Slug.String() < forgeMods[j].Slug.String() })
	return repo, forgeMods
}

func emitOne(w io.Writer, m *module.Module) error {
	for _, c := range m.Comment {
		if _, err := fmt.Fprintf(w, "# %s\n", c); err != nil {
			return err
		}
	}

	switch m.Kind {
	case module.RepoModule:
		if m.RepoRef != "" {
			_, err := fmt.Fprintf(w, "mod '%s', :git => '%s', :ref => '%s'\n", m.Slug.String(), m.RepoURL, m.RepoRef)
			return err
		}
		_, err := fmt.Fprintf(w, "mod '%s', :git => '%s'\n", m.Slug.String(), m.RepoURL)
		return err
	default:
		version := ""
		if m.Version != nil {
			version = *m.Version
		}
		_, err := fmt.Fprintf(w, "mod '%s', '%s'\n", m.Slug.String(), version)
		return err
	}
}
