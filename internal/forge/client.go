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

package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Client talks to a single forge endpoint over HTTP. It does not
// cache; use Cache to memoize lookups for a resolution run.
type Client interface {
	// ModuleData fetches GET /v3/modules/{author}-{name}.
	ModuleData(ctx context.Context, author, name string) (*ModuleData, error)

	// ReleaseMetadata fetches GET /v3/releases/{author}-{name}-{version}.
	ReleaseMetadata(ctx context.Context, author, name, version string) (*ReleaseMetadata, error)
}

// HTTPClient is the production Client, backed by [net/http.Client].
//
// No HTTP client library is exercised anywhere in the example corpus
// for a plain JSON-over-HTTPS registry like this one, so this wraps
// the standard library directly (see DESIGN.md).
type HTTPClient struct {
	// Endpoint is the base forge URL, e.g. "https://forgeapi.puppetlabs.com".
	Endpoint string

	// HTTP is the underlying HTTP client. Defaults to http.DefaultClient
	// when nil.
	HTTP *http.Client
}

// NewHTTPClient returns an HTTPClient for the given endpoint.
func NewHTTPClient(endpoint string) *HTTPClient {
	return &HTTPClient{Endpoint: endpoint, HTTP: http.DefaultClient}
}

func (c *HTTPClient) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// ModuleData implements Client.
func (c *HTTPClient) ModuleData(ctx context.Context, author, name string) (*ModuleData, error) {
	url := fmt.Sprintf("%s/v3/modules/%s-%s", c.Endpoint, author, name)

	var out ModuleData
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch module data for %s-%s", author, name)
	}
	return &out, nil
}

// ReleaseMetadata implements Client.
func (c *HTTPClient) ReleaseMetadata(ctx context.Context, author, name, version string) (*ReleaseMetadata, error) {
	url := fmt.Sprintf("%s/v3/releases/%s-%s-%s", c.Endpoint, author, name, version)

	var out ReleaseMetadata
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch release metadata for %s-%s-%s", author, name, version)
	}
	return &out, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to reach forge")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("forge returned status %d for %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode forge response")
	}
	return nil
}
