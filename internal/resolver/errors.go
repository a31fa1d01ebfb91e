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

package resolver

import "fmt"

// ManifestSyntaxError wraps an unparsable manifest. Always fatal.
type ManifestSyntaxError struct{ Err error }

func (e *ManifestSyntaxError) Error() string { return fmt.Sprintf("manifest syntax: %s", e.Err) }
func (e *ManifestSyntaxError) Unwrap() error { return e.Err }

// MetadataMissingError means a RepoModule clone succeeded but
// metadata.json was absent or unparsable. Always fatal.
type MetadataMissingError struct {
	Slug string
	Err  error
}

func (e *MetadataMissingError) Error() string {
	return fmt.Sprintf("%s: metadata.json missing or unparsable: %s", e.Slug, e.Err)
}
func (e *MetadataMissingError) Unwrap() error { return e.Err }

// RepositoryUnavailableError means a clone or checkout failed. Always
// fatal.
type RepositoryUnavailableError struct {
	Slug string
	Err  error
}

func (e *RepositoryUnavailableError) Error() string {
	return fmt.Sprintf("%s: repository unavailable: %s", e.Slug, e.Err)
}
func (e *RepositoryUnavailableError) Unwrap() error { return e.Err }

// ForgeUnavailableError means a transport or HTTP error talking to the
// registry. Always fatal.
type ForgeUnavailableError struct {
	Slug string
	Err  error
}

func (e *ForgeUnavailableError) Error() string {
	return fmt.Sprintf("%s: forge unavailable: %s", e.Slug, e.Err)
}
func (e *ForgeUnavailableError) Unwrap() error { return e.Err }

// NoVersionFoundError means the release list for a target was
// exhausted without satisfying the graph. Demoted to a warning when
// the target slug is on the ignore list.
//
// The original design has two constructors for this error (one taking
// a requirement, one a bare string); this reimplementation fixes on
// the richer "source => target (range)" form (spec.md §9 Open
// Question).
type NoVersionFoundError struct {
	SourceSlug string // "manifest" for a top-level requirement
	TargetSlug string
	Range      string
}

func (e *NoVersionFoundError) Error() string {
	return fmt.Sprintf("no version found: %s => %s (%s)", e.SourceSlug, e.TargetSlug, e.Range)
}

// ModuleDeprecatedError means the target (or source) module is
// flagged deprecated. Demoted to a warning when on the ignore list.
type ModuleDeprecatedError struct {
	Slug          string
	DeprecatedAt  string
	DeprecatedFor string
	SupersededBy  string
}

func (e *ModuleDeprecatedError) Error() string {
	msg := fmt.Sprintf("%s is deprecated as of %s: %s", e.Slug, e.DeprecatedAt, e.DeprecatedFor)
	if e.SupersededBy != "" {
		msg += fmt.Sprintf(" (superseded by %s)", e.SupersededBy)
	}
	return msg
}

// StateInvariantError means required fields were missing at a point
// where they must be present; it indicates a programming error.
// Always fatal.
type StateInvariantError struct{ Detail string }

func (e *StateInvariantError) Error() string { return fmt.Sprintf("state invariant violated: %s", e.Detail) }
