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

// Package store implements the Requirements Store: a FIFO queue of
// open requirements with the two bulk operations the resolver needs
// during backtracking (spec.md §4.6). Grounded on the teacher's
// resolveList []resolveModule FIFO slice in internal/modules/modules.go
// (resolveList[0] / resolveList[1:] consumption), generalized into its
// own type.
package store

import "github.com/dodevops/puppet-dependency-resolver/internal/requirement"

// Store is a FIFO queue of requirement.Requirement.
type Store struct {
	queue []requirement.Requirement
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Add appends r to the tail of the queue.
func (s *Store) Add(r requirement.Requirement) {
	s.queue = append(s.queue, r)
}

// HasNext reports whether the queue is non-empty.
func (s *Store) HasNext() bool {
	return len(s.queue) > 0
}

// Next dequeues and returns the head of the queue. Panics if the
// queue is empty; callers must check HasNext first, per the teacher's
// resolveList[0] convention.
func (s *Store) Next() requirement.Requirement {
	r := s.queue[0]
	s.queue = s.queue[1:]
	return r
}

// Len reports the number of requirements currently queued.
func (s *Store) Len() int {
	return len(s.queue)
}

// UpdateTargetVersion overwrites TargetModule.Version for every queued
// requirement whose target slug matches slug (spec.md §4.6
// update_target_version).
func (s *Store) UpdateTargetVersion(slug, version string) {
	for _, r := range s.queue {
		if r.TargetModule != nil && r.TargetModule.Slug.String() == slug {
			v := version
			r.TargetModule.Version = &v
		}
	}
}

// DeleteSourceRequirements drops every queued requirement whose
// *source* slug matches slug (spec.md §4.6
// delete_source_requirements), used when a module's version changes
// and its previously-enqueued dependency requirements must be
// invalidated before re-enqueuing fresh ones.
func (s *Store) DeleteSourceRequirements(slug string) {
	kept := s.queue[:0]
	for _, r := range s.queue {
		if r.SourceSlug() != slug {
			kept = append(kept, r)
		}
	}
	s.queue = kept
}
