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

// Package forgetest provides an in-memory forge.Client for tests,
// mirroring the role of the teacher's modulestest package but for the
// forge registry instead of git-hosted modules.
package forgetest

import (
	"context"
	"fmt"
	"time"

	"github.com/dodevops/puppet-dependency-resolver/internal/forge"
)

// Module is one fixture module registered with a Client.
type Module struct {
	Author   string
	Name     string
	Versions []string // descending semver order, as the registry would return them

	DeprecatedAt  time.Time
	DeprecatedFor string
	SupersededBy  string

	// Dependencies maps a version to the dependencies that release
	// declares.
	Dependencies map[string][]forge.DependencySpec
}

func (m *Module) key() string { return m.Author + "-" + m.Name }

// Client is an in-memory forge.Client backed by registered fixtures.
type Client struct {
	modules map[string]*Module
}

// New returns an empty Client. Use Add to register fixtures.
func New() *Client {
	return &Client{modules: make(map[string]*Module)}
}

// Add registers a fixture module and returns the client for chaining.
func (c *Client) Add(m *Module) *Client {
	c.modules[m.key()] = m
	return c
}

// ModuleData implements forge.Client.
func (c *Client) ModuleData(_ context.Context, author, name string) (*forge.ModuleData, error) {
	m, ok := c.modules[author+"-"+name]
	if !ok {
		return nil, fmt.Errorf("forgetest: no fixture registered for %s-%s", author, name)
	}

	md := &forge.ModuleData{Slug: m.key()}
	for _, v := range m.Versions {
		md.Releases = append(md.Releases, forge.ModuleRelease{Version: v})
	}
	if !m.DeprecatedAt.IsZero() {
		t := m.DeprecatedAt
		md.DeprecatedAt = &t
		md.DeprecatedFor = m.DeprecatedFor
		if m.SupersededBy != "" {
			md.SupersededBy = &forge.SupersededByRef{Slug: m.SupersededBy}
		}
	}
	return md, nil
}

// ReleaseMetadata implements forge.Client.
func (c *Client) ReleaseMetadata(_ context.Context, author, name, version string) (*forge.ReleaseMetadata, error) {
	m, ok := c.modules[author+"-"+name]
	if !ok {
		return nil, fmt.Errorf("forgetest: no fixture registered for %s-%s", author, name)
	}

	rm := &forge.ReleaseMetadata{Slug: fmt.Sprintf("%s-%s", m.key(), version)}
	if deps, ok := m.Dependencies[version]; ok {
		rm.Metadata.Dependencies = deps
	}
	return rm, nil
}
