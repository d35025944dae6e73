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
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Upstream releases carry four dotted components (1.21.44.01). Semver has
// three, so the revision is folded into the prerelease slot for parsing and
// ordering, and unfolded again by VersionString for directories, URLs, and
// display.

// ParseVersion parses a server release version in upstream dotted form
func ParseVersion(raw string) (*semver.Version, error) {
	parts := strings.Split(raw, ".")
	if len(parts) == 4 && isDigits(parts[3]) {
		raw = strings.Join(parts[:3], ".") + "-" + parts[3]
	}

	version, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, raw)
	}

	return version, nil
}

// VersionString renders a parsed release version back in upstream dotted form
func VersionString(version *semver.Version) string {
	if pre := version.Prerelease(); pre != "" && isDigits(pre) {
		return strings.TrimSuffix(version.Original(), "-"+pre) + "." + pre
	}

	return version.Original()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
