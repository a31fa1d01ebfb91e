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

package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/dodevops/puppet-dependency-resolver/internal/resolver"
	"github.com/dodevops/puppet-dependency-resolver/internal/yaml"
	"github.com/dodevops/puppet-dependency-resolver/pkg/diagnostic"
	"github.com/dodevops/puppet-dependency-resolver/pkg/slogext"
)

// NewResolveCommand returns the urfave/cli.Command for `presolve
// resolve`, the single CLI action spec.md §6 describes.
func NewResolveCommand(log slogext.Logger) *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "resolve a manifest's transitive dependencies and rewrite it in place",
		ArgsUsage: "<manifest_path>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "hide-file",
				Usage: "path to a YAML list of module slugs to resolve but omit from the output manifest",
			},
			&cli.StringFlag{
				Name:  "ignore-file",
				Usage: "path to a YAML list of module slugs whose deprecation/no-version failures are demoted to warnings",
			},
			&cli.StringFlag{
				Name:  "dump-file",
				Value: diagnostic.DefaultDumpFile,
				Usage: "path to write the diagnostic dump to on fatal failure",
			},
			&cli.StringFlag{
				Name:  "loglevel",
				Value: "info",
				Usage: "log level: debug, info, warn, error",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("expected exactly one argument, path to manifest")
			}

			if err := setLogLevel(log, c.String("loglevel")); err != nil {
				return err
			}

			hideList, err := readSlugList(c.String("hide-file"))
			if err != nil {
				return errors.Wrap(err, "failed to read hide-file")
			}

			ignoreList, err := readSlugList(c.String("ignore-file"))
			if err != nil {
				return errors.Wrap(err, "failed to read ignore-file")
			}

			r := resolver.New(resolver.Config{
				HideList:   hideList,
				IgnoreList: ignoreList,
				DumpFile:   c.String("dump-file"),
				Log:        log,
			})

			return r.Resolve(c.Context, c.Args().First())
		},
	}
}

func setLogLevel(log slogext.Logger, level string) error {
	switch level {
	case "debug":
		log.SetLevel(slogext.DebugLevel)
	case "info":
		log.SetLevel(slogext.InfoLevel)
	case "warn":
		log.SetLevel(slogext.WarnLevel)
	case "error":
		log.SetLevel(slogext.ErrorLevel)
	default:
		return errors.Errorf("unknown loglevel %q", level)
	}
	return nil
}

// readSlugList reads a YAML list of module slugs from path. An empty
// path returns a nil (empty) list.
func readSlugList(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	var slugs []string
	if err := yaml.Unmarshal(data, &slugs); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return slugs, nil
}
