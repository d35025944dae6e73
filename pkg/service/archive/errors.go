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

import "errors"

var (
	// ErrCatalogUnavailable indicates the remote version catalog could not be fetched or parsed
	ErrCatalogUnavailable = errors.New("server version catalog unavailable")

	// ErrEulaNotAccepted indicates the caller has not accepted the Minecraft EULA
	// and Privacy Policy; nothing is downloaded in that case
	ErrEulaNotAccepted = errors.New("Minecraft EULA and Privacy Policy not accepted")

	// ErrDownloadFailed indicates the server archive could not be downloaded
	ErrDownloadFailed = errors.New("server archive download failed")

	// ErrArchiveCorrupt indicates the downloaded archive is not a well-formed zip
	ErrArchiveCorrupt = errors.New("server archive corrupt")

	// ErrNotInstalled indicates the requested version is not present in the installation root
	ErrNotInstalled = errors.New("server version not installed")

	// ErrInvalidVersion indicates a version string not in the upstream dotted form
	ErrInvalidVersion = errors.New("invalid server version")
)
