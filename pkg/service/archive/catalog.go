// Copyright 2025 Yaru Games
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package archive

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
)

// catalogURL is the public download page listing server archives.
// There is no structured upstream API; the page is scraped for archive
// links, the same way the server community tooling does it.
const catalogURL = "https://www.minecraft.net/en-us/download/server/bedrock/"

// archiveLinkPattern matches linux server archive links on the download page
var archiveLinkPattern = regexp.MustCompile(`https://www\.minecraft\.net/bedrockdedicatedserver/bin-linux/bedrock-server-([\d.]+)\.zip`)

// ListRemoteVersions queries the upstream catalog, newest release first
func (s *DefaultService) ListRemoteVersions(ctx context.Context) ([]ServerVersion, error) {
	resp, body, err := s.client.GetWithBody(ctx, catalogURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: catalog returned status %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	matches := archiveLinkPattern.FindAllStringSubmatch(string(body), -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no server archive links found on download page", ErrCatalogUnavailable)
	}

	seen := make(map[string]bool, len(matches))
	versions := make([]ServerVersion, 0, len(matches))
	for _, match := range matches {
		raw := match[1]
		if seen[raw] {
			continue
		}
		seen[raw] = true

		version, err := ParseVersion(raw)
		if err != nil {
			s.logger.Debugf("ignoring unparseable catalog version %q", raw)

			continue
		}

		versions = append(versions, ServerVersion{
			Version:    version,
			ArchiveURL: match[0],
		})
	}

	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: download page yielded no parseable versions", ErrCatalogUnavailable)
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[j].Version.LessThan(versions[i].Version)
	})

	return versions, nil
}

// LatestRemoteVersion returns the newest release listed in the catalog
func (s *DefaultService) LatestRemoteVersion(ctx context.Context) (*ServerVersion, error) {
	versions, err := s.ListRemoteVersions(ctx)
	if err != nil {
		return nil, err
	}

	return &versions[0], nil
}
