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

// Package workspace materializes an isolated working directory for one
// validation run: a private copy of an installed server with the caller's
// packs wired into the world's pack-activation lists. A workspace is owned
// by exactly one session and destroyed when that session ends.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yarugames/bedrockci/pkg/logger"
	"github.com/yarugames/bedrockci/pkg/pack"
	"github.com/yarugames/bedrockci/pkg/service/archive"
	"github.com/yarugames/bedrockci/pkg/service/filesystem"
)

const (
	// worldDirName is the default world the server binary creates and loads
	worldDirName = "worlds/Bedrock level"

	// behaviorPacksJSON activates behavior packs for the world
	behaviorPacksJSON = "world_behavior_packs.json"
	// resourcePacksJSON activates resource packs for the world
	resourcePacksJSON = "world_resource_packs.json"

	// eulaFileName marks EULA acceptance for the server binary
	eulaFileName = "eula.txt"
)

// Options configure workspace construction
type Options struct {
	// BaseDir is where workspace directories are created; the OS temp
	// directory when empty
	BaseDir string
	// LinkPacks symlinks pack directories instead of copying them, so
	// edits to the source packs are visible to a running server. Used by
	// interactive runs, never by CI validation.
	LinkPacks bool
}

// worldPackEntry is one element of a world pack-activation list
type worldPackEntry struct {
	PackID  string       `json:"pack_id"`
	Version pack.Version `json:"version"`
}

// Workspace owns one validation run's working directory
type Workspace struct {
	path  string
	packs []*pack.Reference
	fs    filesystem.Service

	logger *zap.SugaredLogger

	mu        sync.Mutex
	destroyed bool
}

// Create builds a workspace for the given server installation and packs.
// Pack order is preserved in the activation lists; the server enforces the
// resulting load and override order itself. On failure the partially built
// directory is removed and ErrSetup is returned.
func Create(ctx context.Context, fs filesystem.Service, instance *archive.InstalledInstance, packs []*pack.Reference, opts Options) (*Workspace, error) {
	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = os.TempDir()
	}

	path := filepath.Join(baseDir, "bedrockci-"+uuid.NewString())

	w := &Workspace{
		path:   path,
		packs:  packs,
		fs:     fs,
		logger: logger.For(logger.ComponentWorkspace),
	}

	if err := w.build(ctx, instance, opts); err != nil {
		if cleanupErr := fs.RemoveAll(context.WithoutCancel(ctx), path); cleanupErr != nil {
			w.logger.Warnf("failed to clean up partial workspace %s: %v", path, cleanupErr)
		}

		return nil, fmt.Errorf("%w: %v", ErrSetup, err)
	}

	w.logger.Debugf("workspace ready at %s with %d packs", path, len(packs))

	return w, nil
}

// build performs the actual construction steps
func (w *Workspace) build(ctx context.Context, instance *archive.InstalledInstance, opts Options) error {
	// Copy the shared installation; sessions never run inside it.
	if err := w.fs.CopyTree(ctx, instance.Path, w.path); err != nil {
		return fmt.Errorf("failed to copy server %s: %v", archive.VersionString(instance.Version), err)
	}

	if err := w.fs.EnsureDirectory(ctx, filepath.Join(w.path, worldDirName)); err != nil {
		return err
	}

	var behavior, resource []worldPackEntry
	for i, ref := range w.packs {
		staged, err := w.stagePack(ctx, i, ref, opts.LinkPacks)
		if err != nil {
			return err
		}
		w.logger.Debugf("staged %s pack %s as %s", ref.Kind, ref.Name, staged)

		entry := worldPackEntry{PackID: ref.UUID.String(), Version: ref.Version}
		if ref.Kind == pack.KindBehavior {
			behavior = append(behavior, entry)
		} else {
			resource = append(resource, entry)
		}
	}

	if err := w.writeActivationList(ctx, behaviorPacksJSON, behavior); err != nil {
		return err
	}
	if err := w.writeActivationList(ctx, resourcePacksJSON, resource); err != nil {
		return err
	}

	// The binary refuses to start without this on distributions that gate
	// on explicit acceptance.
	return w.fs.WriteFile(ctx, filepath.Join(w.path, eulaFileName), []byte("eula=true\n"), 0644)
}

// stagePack places one pack into the server's pack folder and returns the
// staged directory name
func (w *Workspace) stagePack(ctx context.Context, index int, ref *pack.Reference, link bool) (string, error) {
	folder := "resource_packs"
	name := fmt.Sprintf("bedrockci_rp_%d", index)
	if ref.Kind == pack.KindBehavior {
		folder = "behavior_packs"
		name = fmt.Sprintf("bedrockci_bp_%d", index)
	}

	parent := filepath.Join(w.path, folder)
	if err := w.fs.EnsureDirectory(ctx, parent); err != nil {
		return "", err
	}

	target := filepath.Join(parent, name)
	if link {
		if err := w.fs.Symlink(ctx, ref.Path, target); err != nil {
			return "", err
		}

		return name, nil
	}

	if err := w.fs.CopyTree(ctx, ref.Path, target); err != nil {
		return "", fmt.Errorf("failed to copy pack %s: %v", ref.Name, err)
	}

	return name, nil
}

// writeActivationList writes one world pack-activation list
func (w *Workspace) writeActivationList(ctx context.Context, file string, entries []worldPackEntry) error {
	if entries == nil {
		entries = []worldPackEntry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %v", file, err)
	}

	return w.fs.WriteFile(ctx, filepath.Join(w.path, worldDirName, file), data, 0644)
}

// Path returns the workspace directory
func (w *Workspace) Path() string {
	return w.path
}

// ServerBinary returns the path of the server executable inside the workspace
func (w *Workspace) ServerBinary() string {
	return filepath.Join(w.path, archive.ServerBinaryName)
}

// Packs returns the pack references wired into this workspace, in order
func (w *Workspace) Packs() []*pack.Reference {
	return w.packs
}

// Destroy removes the workspace directory tree. It is idempotent; a
// directory that is already gone is logged, not fatal.
func (w *Workspace) Destroy(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.destroyed {
		return nil
	}

	exists, err := w.fs.PathExists(ctx, w.path)
	if err == nil && !exists {
		w.logger.Debugf("workspace %s already gone", w.path)
		w.destroyed = true

		return nil
	}

	if err := w.fs.RemoveAll(ctx, w.path); err != nil {
		return fmt.Errorf("failed to destroy workspace %s: %w", w.path, err)
	}
	w.destroyed = true

	return nil
}
