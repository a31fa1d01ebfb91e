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

// Package manifest implements the Puppetfile-like manifest grammar's
// parser and emitter (spec.md §4.2): forge endpoint declarations,
// forge- and repo-module entries, comment blocks, and the dependency
// sentinel separating top-level modules from pre-resolved dependent
// modules.
//
// No parser-combinator or INI/DSL library appears anywhere in the
// example corpus for a grammar this small and line-oriented, so the
// parser is a bufio.Scanner + regexp state machine, grounded on the
// teacher's own line-shaped regexp parsing in internal/git/git.go and
// internal/modules/resolver/resolver.go (prerelease stripping).
package manifest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/dodevops/puppet-dependency-resolver/internal/forge"
	"github.com/dodevops/puppet-dependency-resolver/internal/module"
	"github.com/dodevops/puppet-dependency-resolver/internal/slug"
)

// DefaultDependencySentinel is the substring a line must contain to
// switch subsequent mod entries into the dependent-modules list.
const DefaultDependencySentinel = "## dependencies"

// state is the parser's small line-oriented state machine (spec.md
// §4.2).
type state int

const (
	stateIdle state = iota
	stateInModDeclaration
	stateAfterDependencySentinel
)

// rawDeclaration accumulates the text of one mod entry across
// continuation lines, plus the comment block that preceded it.
type rawDeclaration struct {
	text    strings.Builder
	comment []string
}

// Declaration is one parsed (but not yet constructed) mod entry.
type Declaration struct {
	Author, Name string
	Version      string // empty if omitted
	RepoURL      string // empty unless a :git => '...' entry
	RepoRef      string
	Comment      []string
	Dependent    bool // true if this entry followed the dependency sentinel
}

// Manifest is the parsed, pre-construction form of a manifest file:
// the forge endpoint plus the ordered top-level and dependent
// declarations.
type Manifest struct {
	ForgeEndpoint       string
	Preamble            []string
	TopLevel            []Declaration
	Dependent           []Declaration
	DependencySentinel  string
}

var (
	forgeLineRe  = regexp.MustCompile(`^forge\s+'([^']*)'\s*$`)
	modStartRe   = regexp.MustCompile(`^mod\s+`)
	slugLiteralRe = regexp.MustCompile(`'([^']*)'`)
	gitParamRe   = regexp.MustCompile(`:git\s*=>\s*'([^']*)'`)
	refParamRe   = regexp.MustCompile(`:ref\s*=>\s*'([^']*)'`)
)

// Parse reads a manifest document, per the grammar in spec.md §4.2.
// sentinel is the dependency-sentinel substring to look for; pass
// DefaultDependencySentinel when the manifest does not configure one.
func Parse(r io.Reader, sentinel string) (*Manifest, error) {
	if sentinel == "" {
		sentinel = DefaultDependencySentinel
	}

	m := &Manifest{ForgeEndpoint: forge.DefaultEndpoint, DependencySentinel: sentinel}

	var (
		st          = stateIdle
		pending     *rawDeclaration
		pendingComm []string
		errs        *multierror.Error
		lineNo      int
	)

	flush := func() {
		if pending == nil {
			return
		}
		decl, err := parseDeclarationText(pending.text.String(), pending.comment)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "line %d", lineNo))
		} else {
			decl.Dependent = st == stateAfterDependencySentinel
			if decl.Dependent {
				m.Dependent = append(m.Dependent, *decl)
			} else {
				m.TopLevel = append(m.TopLevel, *decl)
			}
		}
		pending = nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flush()
			pendingComm = nil
			continue

		case strings.Contains(trimmed, sentinel):
			flush()
			st = stateAfterDependencySentinel
			continue

		case strings.HasPrefix(trimmed, "#"):
			flush()
			pendingComm = append(pendingComm, strings.TrimSpace(strings.TrimPrefix(trimmed, "#")))
			continue

		case forgeLineRe.MatchString(trimmed):
			flush()
			m.ForgeEndpoint = forgeLineRe.FindStringSubmatch(trimmed)[1]
			continue

		case modStartRe.MatchString(trimmed):
			flush()
			pending = &rawDeclaration{comment: pendingComm}
			pending.text.WriteString(trimmed)
			pendingComm = nil
			if st == stateIdle {
				st = stateInModDeclaration
			}
			continue

		default:
			if pending != nil {
				// Continuation line: no mod/sentinel/forge at line start
				// and currently in a declaration (spec.md §4.2).
				pending.text.WriteString(" ")
				pending.text.WriteString(trimmed)
				continue
			}
			if st == stateIdle && len(m.TopLevel) == 0 && len(m.Dependent) == 0 {
				m.Preamble = append(m.Preamble, line)
				continue
			}
			errs = multierror.Append(errs, fmt.Errorf("line %d: unexpected text %q", lineNo, line))
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		errs = multierror.Append(errs, errors.Wrap(err, "failed to read manifest"))
	}

	return m, errs.ErrorOrNil()
}

// parseDeclarationText parses one complete (continuation-joined) mod
// entry body.
func parseDeclarationText(text string, comment []string) (*Declaration, error) {
	matches := slugLiteralRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("malformed mod declaration: %q", text)
	}

	s, err := slug.Parse(matches[0][1])
	if err != nil {
		return nil, errors.Wrapf(err, "malformed mod declaration: %q", text)
	}

	decl := &Declaration{Author: s.Author, Name: s.Name, Comment: comment}

	if gm := gitParamRe.FindStringSubmatch(text); gm != nil {
		decl.RepoURL = gm[1]
		if rm := refParamRe.FindStringSubmatch(text); rm != nil {
			decl.RepoRef = rm[1]
		}
		return decl, nil
	}

	// Not a repo module: a second quoted literal (if present and not a
	// :ref/:git value) is the version.
	if len(matches) > 1 {
		decl.Version = matches[1][1]
	}
	return decl, nil
}

// Construct materializes every declaration in m into module.Modules,
// in the order spec.md §4.3 requires (RepoModule clone before version
// queries; ForgeModule version resolution against cache).
func Construct(ctx context.Context, cache *forge.Cache, m *Manifest) (topLevel, dependent []*module.Module, err error) {
	build := func(decls []Declaration) ([]*module.Module, error) {
		out := make([]*module.Module, 0, len(decls))
		var errs *multierror.Error
		for _, d := range decls {
			mod, err := constructOne(ctx, cache, m.ForgeEndpoint, d)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			out = append(out, mod)
		}
		return out, errs.ErrorOrNil()
	}

	top, errTop := build(m.TopLevel)
	dep, errDep := build(m.Dependent)

	var errs *multierror.Error
	errs = multierror.Append(errs, errTop, errDep)
	return top, dep, errs.ErrorOrNil()
}

// constructOne builds a single module.Module from a parsed
// Declaration, dispatching to module.NewRepo or module.NewForge.
func constructOne(ctx context.Context, cache *forge.Cache, forgeEndpoint string, d Declaration) (*module.Module, error) {
	if d.RepoURL != "" {
		return module.NewRepo(ctx, module.NewRepoOpts{
			Author: d.Author, Name: d.Name, RepoURL: d.RepoURL, RepoRef: d.RepoRef, Comment: d.Comment,
		})
	}
	return module.NewForge(ctx, cache, module.NewForgeOpts{
		Author: d.Author, Name: d.Name, Version: d.Version, Comment: d.Comment, ForgeEndpoint: forgeEndpoint,
	})
}

// Sort orders modules by slug, matching the emitter's "sorted by
// name" rule.
func Sort(modules []*module.Module) {
	sort.Slice(modules, func(i, j int) bool {
		return modules[i].Slug.String() < modules[j].Slug.String()
	})
}
