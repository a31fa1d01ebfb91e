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

// Package yaml implements a thin wrapper around YAML parsing, used by
// cmd/presolve for the hide-file/ignore-file slug lists.
package yaml

import stdyaml "gopkg.in/yaml.v3"

// Marshal is an alias to [stdyaml.Marshal].
var Marshal = stdyaml.Marshal

// Unmarshal is an alias to [stdyaml.Unmarshal].
var Unmarshal = stdyaml.Unmarshal
