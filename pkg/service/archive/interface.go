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

// Package archive manages locally installed Bedrock dedicated server
// binaries by version: listing the upstream catalog, downloading and
// extracting archives, and exposing completed installations.
package archive

import (
	"context"
	"time"

	"github.com/Masterminds/semver/v3"
)

const (
	// ServerBinaryName is the dedicated server executable inside an installation
	ServerBinaryName = "bedrock_server"

	// MarkerFileName is written into an installation directory only after
	// extraction finished; directories without it are treated as corrupt.
	MarkerFileName = ".bedrockci-complete"
)

// ServerVersion describes one downloadable server release
type ServerVersion struct {
	// Version is the release version
	Version *semver.Version
	// ArchiveURL is the upstream zip archive for this release
	ArchiveURL string
}

// Marker is the integrity marker persisted as JSON inside a completed installation
type Marker struct {
	// Version is the installed release version
	Version string `json:"version"`
	// ExtractedAt records when extraction completed
	ExtractedAt time.Time `json:"extracted_at"`
	// FileCount is the number of files extracted from the archive
	FileCount int `json:"file_count"`
}

// InstalledInstance is a completed server installation.
// Its files are shared read-only between sessions and never mutated.
type InstalledInstance struct {
	// Version is the installed release version
	Version *semver.Version
	// Path is the absolute installation directory
	Path string
	// Marker is the integrity marker read from the installation
	Marker Marker
}

// InstallOptions control EnsureInstalled
type InstallOptions struct {
	// AcceptEULA must be true before any download happens
	AcceptEULA bool
	// ForceReinstall removes an existing installation and installs again
	ForceReinstall bool
}

// Service manages the shared installation root.
// Only this service mutates the root, under a per-version lock; everything
// else reads it.
type Service interface {
	// ListRemoteVersions queries the upstream catalog, newest release first
	ListRemoteVersions(ctx context.Context) ([]ServerVersion, error)

	// LatestRemoteVersion returns the newest release listed in the catalog
	LatestRemoteVersion(ctx context.Context) (*ServerVersion, error)

	// ListInstalled scans the installation root, oldest version first.
	// Directories without an integrity marker are ignored.
	ListInstalled(ctx context.Context) ([]InstalledInstance, error)

	// LatestInstalled returns the newest completed installation, or
	// ErrNotInstalled when the root is empty
	LatestInstalled(ctx context.Context) (*InstalledInstance, error)

	// EnsureInstalled returns the installation for version, downloading and
	// extracting it first if necessary. Concurrent calls for the same
	// version serialize; different versions proceed independently.
	EnsureInstalled(ctx context.Context, version string, opts InstallOptions) (*InstalledInstance, error)

	// Remove deletes an installed version from the root
	Remove(ctx context.Context, version string) error
}
