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

// Package git implements helpers for interacting with git, scoped to
// the anonymous clone + optional ref checkout that RepoModules need.
// Authenticated access is explicitly out of scope.
package git

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/dodevops/puppet-dependency-resolver/internal/testing/cmdexec"
)

// Clone clones a git repository anonymously into a fresh temporary
// directory and returns its path. If ref is empty, the remote's
// default branch is used. The caller owns the returned directory and
// must remove it (see Cleanup) once it is done reading from it.
func Clone(ctx context.Context, url, ref string) (string, error) {
	tempDir, err := os.MkdirTemp("", "puppet-resolver-"+strings.ReplaceAll(url, "/", "-"))
	if err != nil {
		return "", errors.Wrap(err, "failed to create temporary directory")
	}

	fetchRef := ref
	if fetchRef == "" {
		fetchRef = "HEAD"
	}

	cmds := [][]string{
		{"git", "init"},
		{"git", "remote", "add", "origin", url},
		{"git", "-c", "protocol.version=2", "fetch", "--depth=1", "origin", fetchRef},
		{"git", "reset", "--hard", "FETCH_HEAD"},
	}
	for _, args := range cmds {
		c := cmdexec.CommandContext(ctx, args[0], args[1:]...)
		c.SetDir(tempDir)
		if _, err := c.CombinedOutput(); err != nil {
			if rmErr := os.RemoveAll(tempDir); rmErr != nil {
				return "", errors.Wrapf(err, "failed to run %q, and failed to clean up %q: %s", args, tempDir, rmErr)
			}

			var execErr *exec.ExitError
			if errors.As(err, &execErr) {
				return "", errors.Wrapf(err, "failed to run %q: %s", args, string(execErr.Stderr))
			}
			return "", errors.Wrapf(err, "failed to run %q", args)
		}
	}

	return tempDir, nil
}

// Cleanup removes a directory previously returned by Clone. It is
// safe to call with an empty path.
func Cleanup(path string) error {
	if path == "" {
		return nil
	}
	return os.RemoveAll(path)
}
