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

package module

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func TestDecodeRepoMetadata(t *testing.T) {
	body := `{
		"version": "3.1.0",
		"dependencies": [
			{"name": "test-dependency", "version_requirement": ">= 1.0.0"}
		]
	}`

	meta, err := decodeRepoMetadata(strings.NewReader(body))
	assert.NilError(t, err)
	assert.Equal(t, meta.Version, "3.1.0")
	assert.Equal(t, len(meta.Dependencies), 1)
	assert.Equal(t, meta.Dependencies[0].Name, "test-dependency")
}

func TestDecodeRepoMetadataMissingVersion(t *testing.T) {
	meta, err := decodeRepoMetadata(strings.NewReader(`{"dependencies": []}`))
	assert.NilError(t, err)
	assert.Equal(t, meta.Version, "")
}
