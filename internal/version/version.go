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

// Package version contains the current version of the presolve CLI.
package version

// These variables are set at build time via ldflags.
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// Version is the version string reported by `presolve --version`.
var Version = buildVersion()

func buildVersion() string {
	if commit == "" {
		return version
	}
	if date == "" {
		return version + " (" + commit + ")"
	}
	return version + " (" + commit + ", built " + date + ")"
}
