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

// Package pack reads Minecraft Bedrock content pack manifests and turns
// them into immutable references the rest of the system passes around.
package pack

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/yarugames/bedrockci/pkg/service/filesystem"
)

// Kind distinguishes resource packs from behavior packs
type Kind string

const (
	// KindResource marks a resource pack (assets)
	KindResource Kind = "resource"
	// KindBehavior marks a behavior pack (gameplay logic, scripts)
	KindBehavior Kind = "behavior"
)

// ManifestFileName is the manifest every pack must carry at its root
const ManifestFileName = "manifest.json"

// Version is the three-component pack version declared in the manifest
// header, serialized as a JSON array ([1, 0, 0]).
type Version [3]int

// String renders the version in dotted form
func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}

	return strings.Join(parts, ".")
}

// Reference points at a pack on disk together with the identity its
// manifest declares. It is read once and never mutated afterwards.
type Reference struct {
	// Path is the absolute path of the pack directory
	Path string
	// Kind is the pack kind the caller declared
	Kind Kind
	// Name is the human-readable pack name from the manifest header
	Name string
	// UUID is the manifest header UUID
	UUID uuid.UUID
	// Version is the manifest header version
	Version Version
}

// manifest mirrors the subset of manifest.json this system reads
type manifest struct {
	Header struct {
		Name    string  `json:"name"`
		UUID    string  `json:"uuid"`
		Version Version `json:"version"`
	} `json:"header"`
	Modules []struct {
		Type string `json:"type"`
	} `json:"modules"`
}

// Load reads and validates the manifest of the pack at path.
// The declared kind is checked against the manifest's module types: a
// resource pack must carry a "resources" module, a behavior pack must not.
func Load(ctx context.Context, fs filesystem.Service, path string, kind Kind) (*Reference, error) {
	if kind != KindResource && kind != KindBehavior {
		return nil, fmt.Errorf("%w: unknown pack kind %q", ErrManifestInvalid, kind)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot resolve pack path %s: %v", ErrManifestInvalid, path, err)
	}

	manifestPath := filepath.Join(abs, ManifestFileName)
	exists, err := fs.PathExists(ctx, manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to check for %s: %w", manifestPath, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s not found in %s", ErrManifestInvalid, ManifestFileName, abs)
	}

	data, err := fs.ReadFile(ctx, manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", manifestPath, err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: cannot parse %s: %v", ErrManifestInvalid, manifestPath, err)
	}

	id, err := uuid.Parse(m.Header.UUID)
	if err != nil {
		return nil, fmt.Errorf("%w: header uuid %q is not a valid UUID", ErrManifestInvalid, m.Header.UUID)
	}

	if err := checkKind(kind, &m); err != nil {
		return nil, err
	}

	return &Reference{
		Path:    abs,
		Kind:    kind,
		Name:    m.Header.Name,
		UUID:    id,
		Version: m.Header.Version,
	}, nil
}

// checkKind verifies the declared kind against the manifest module types
func checkKind(kind Kind, m *manifest) error {
	hasResources := false
	for _, mod := range m.Modules {
		if mod.Type == "resources" {
			hasResources = true
		}
	}

	if kind == KindResource && len(m.Modules) > 0 && !hasResources {
		return fmt.Errorf("%w: declared as resource pack but manifest has no resources module", ErrKindMismatch)
	}
	if kind == KindBehavior && hasResources {
		return fmt.Errorf("%w: declared as behavior pack but manifest has a resources module", ErrKindMismatch)
	}

	return nil
}
