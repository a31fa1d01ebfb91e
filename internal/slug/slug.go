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

// Package slug implements the module identity used across the
// resolver: "author-name", case-sensitive, accepting either "-" or "/"
// as the author/name separator on input.
package slug

import (
	"fmt"
	"regexp"
)

// ValidNameRegexp restricts author and name segments to the
// characters Puppet module names are built from.
const ValidNameRegexp = `^[a-zA-Z0-9_]+$`

var validName = regexp.MustCompile(ValidNameRegexp)

// Slug is a parsed "author-name" module identity.
type Slug struct {
	Author string
	Name   string
}

// Parse parses raw into a Slug. Both "author-name" and "author/name"
// are accepted; the canonical separator is "-". Author and name
// segments cannot themselves contain "-" or "/" (see ValidNameRegexp),
// so the first occurrence of the separator is always the right split
// point.
func Parse(raw string) (Slug, error) {
	if raw == "" {
		return Slug{}, fmt.Errorf("empty module slug")
	}

	// Author and name segments never contain "-" or "/" themselves (see
	// ValidNameRegexp), so the first occurrence of either separator is
	// unambiguous.
	sep := "/"
	idx := firstIndex(raw, '/')
	if idx < 0 {
		sep = "-"
		idx = firstIndex(raw, '-')
	}
	if idx <= 0 || idx == len(raw)-1 {
		return Slug{}, fmt.Errorf("invalid module slug %q: expected author%sname", raw, sep)
	}

	author, name := raw[:idx], raw[idx+1:]
	if !validName.MatchString(author) || !validName.MatchString(name) {
		return Slug{}, fmt.Errorf("invalid module slug %q: author/name must match %s", raw, ValidNameRegexp)
	}

	return Slug{Author: author, Name: name}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// constants, never for user input.
func MustParse(raw string) Slug {
	s, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the canonical "author-name" form.
func (s Slug) String() string {
	return s.Author + "-" + s.Name
}

// IsZero reports whether this is the zero-value Slug.
func (s Slug) IsZero() bool {
	return s.Author == "" && s.Name == ""
}

// firstIndex returns the first index of b in s, or -1.
func firstIndex(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
