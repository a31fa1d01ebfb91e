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

// Package forge implements the client and cache for the remote module
// registry ("the forge"): GET /v3/modules/{author}-{name} and
// GET /v3/releases/{author}-{name}-{version}.
package forge

import "time"

// DefaultEndpoint is the forge endpoint used when a manifest does not
// declare one explicitly.
const DefaultEndpoint = "https://forgeapi.puppetlabs.com"

// ModuleData is the subset of GET /v3/modules/{author}-{name} this
// resolver consumes.
type ModuleData struct {
	Slug     string          `json:"slug"`
	Releases []ModuleRelease `json:"releases"`

	DeprecatedAt  *time.Time      `json:"deprecated_at,omitempty"`
	DeprecatedFor string          `json:"deprecated_for,omitempty"`
	SupersededBy  *SupersededByRef `json:"superseded_by,omitempty"`
}

// SupersededByRef names the module a deprecated module was replaced by.
type SupersededByRef struct {
	Slug string `json:"slug"`
}

// ModuleRelease is one entry in ModuleData.Releases.
type ModuleRelease struct {
	Version string `json:"version"`
}

// ReleaseMetadata is the subset of GET /v3/releases/{author}-{name}-{version}
// this resolver consumes.
type ReleaseMetadata struct {
	Slug     string        `json:"slug"`
	Metadata releaseFields `json:"metadata"`
}

type releaseFields struct {
	Dependencies []DependencySpec `json:"dependencies"`
}

// DependencySpec is one dependency declared by a release's metadata.
type DependencySpec struct {
	Name               string `json:"name"`
	VersionRequirement string `json:"version_requirement"`
}

// DeprecationStatus describes a deprecated module, per spec.md §3.
type DeprecationStatus struct {
	DeprecatedAt   time.Time
	DeprecatedFor  string
	SupersededBy   string
}

// FromModuleData derives a DeprecationStatus from raw module data. It
// returns nil if the module is not deprecated.
func FromModuleData(m *ModuleData) *DeprecationStatus {
	if m == nil || m.DeprecatedAt == nil {
		return nil
	}

	status := &DeprecationStatus{
		DeprecatedAt:  *m.DeprecatedAt,
		DeprecatedFor: m.DeprecatedFor,
	}
	if m.SupersededBy != nil {
		status.SupersededBy = m.SupersededBy.Slug
	}
	return status
}
