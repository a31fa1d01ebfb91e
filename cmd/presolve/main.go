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

// Package main contains the implementation for the presolve CLI.
package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dodevops/puppet-dependency-resolver/internal/version"
	"github.com/dodevops/puppet-dependency-resolver/pkg/slogext"
)

// entrypoint is the main entrypoint for the presolve CLI. It is
// separated from main to allow for defers to run before exiting on
// error, which main handles.
func entrypoint(log slogext.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := &cli.App{
		Name:        "presolve",
		Version:     version.Version,
		Usage:       "resolve a Puppetfile-style manifest's transitive module dependencies",
		Description: "Reads a manifest, resolves every declared module's transitive dependencies against a forge registry, and writes the fully-pinned manifest back out.",
		Commands: []*cli.Command{
			NewResolveCommand(log),
		},
	}
	return app.RunContext(ctx, os.Args)
}

// main calls the entrypoint, logs errors, and exits with a non-zero
// status code if an error occurs. Logic should be in entrypoint.
func main() {
	log := slogext.New()

	if err := entrypoint(log); err != nil {
		//nolint:gocritic // Why: We're OK not canceling context in this case.
		log.WithError(err).Error("failed to run")
		os.Exit(1)
	}
}
