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
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/yarugames/bedrockci/pkg/logger"
	"github.com/yarugames/bedrockci/pkg/service/filesystem"
	"github.com/yarugames/bedrockci/pkg/service/httpclient"
)

// archiveURLTemplate is the upstream location of linux server archives
const archiveURLTemplate = "https://www.minecraft.net/bedrockdedicatedserver/bin-linux/bedrock-server-%s.zip"

// DefaultService is the default implementation of the archive Service
type DefaultService struct {
	root   string
	fs     filesystem.Service
	client httpclient.HTTPClient
	logger *zap.SugaredLogger

	// versionLocks serializes installs of the same version within this
	// process; a flock file in the root covers other processes.
	mu           sync.Mutex
	versionLocks map[string]*sync.Mutex
}

// NewDefaultService creates an archive service rooted at root
func NewDefaultService(root string, fs filesystem.Service, client httpclient.HTTPClient) *DefaultService {
	return &DefaultService{
		root:         root,
		fs:           fs,
		client:       client,
		logger:       logger.For(logger.ComponentArchiveStore),
		versionLocks: make(map[string]*sync.Mutex),
	}
}

// Root returns the installation root directory
func (s *DefaultService) Root() string {
	return s.root
}

// ListInstalled scans the installation root, oldest version first
func (s *DefaultService) ListInstalled(ctx context.Context) ([]InstalledInstance, error) {
	exists, err := s.fs.PathExists(ctx, s.root)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	entries, err := s.fs.ReadDir(ctx, s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan installation root %s: %w", s.root, err)
	}

	instances := make([]InstalledInstance, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		version, err := ParseVersion(entry.Name())
		if err != nil {
			s.logger.Debugf("ignoring non-version directory %s", entry.Name())

			continue
		}

		instance, err := s.readInstance(ctx, version)
		if err != nil {
			// No marker means extraction never completed; treat the
			// directory as absent rather than failing the listing.
			s.logger.Warnf("ignoring incomplete installation %s: %v", entry.Name(), err)

			continue
		}

		instances = append(instances, *instance)
	}

	sort.Slice(instances, func(i, j int) bool {
		return instances[i].Version.LessThan(instances[j].Version)
	})

	return instances, nil
}

// LatestInstalled returns the newest completed installation
func (s *DefaultService) LatestInstalled(ctx context.Context) (*InstalledInstance, error) {
	instances, err := s.ListInstalled(ctx)
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return nil, fmt.Errorf("%w: no versions in %s", ErrNotInstalled, s.root)
	}

	return &instances[len(instances)-1], nil
}

// readInstance loads a completed installation, verifying its marker
func (s *DefaultService) readInstance(ctx context.Context, version *semver.Version) (*InstalledInstance, error) {
	name := VersionString(version)
	path := filepath.Join(s.root, name)

	data, err := s.fs.ReadFile(ctx, filepath.Join(path, MarkerFileName))
	if err != nil {
		return nil, fmt.Errorf("missing integrity marker: %w", err)
	}

	var marker Marker
	if err := json.Unmarshal(data, &marker); err != nil {
		return nil, fmt.Errorf("unreadable integrity marker: %w", err)
	}
	if marker.Version != name {
		return nil, fmt.Errorf("integrity marker names version %s, directory is %s", marker.Version, name)
	}

	return &InstalledInstance{
		Version: version,
		Path:    path,
		Marker:  marker,
	}, nil
}

// EnsureInstalled returns the installation for version, downloading and extracting it first if necessary
func (s *DefaultService) EnsureInstalled(ctx context.Context, version string, opts InstallOptions) (*InstalledInstance, error) {
	parsed, err := ParseVersion(version)
	if err != nil {
		return nil, err
	}

	// Fast path without the lock: a completed installation is immutable.
	if !opts.ForceReinstall {
		if instance, err := s.readInstance(ctx, parsed); err == nil {
			return instance, nil
		}
	}

	// The EULA gate comes before any network traffic.
	if !opts.AcceptEULA {
		return nil, ErrEulaNotAccepted
	}

	if err := s.fs.EnsureDirectory(ctx, s.root); err != nil {
		return nil, err
	}

	unlock, err := s.lockVersion(ctx, VersionString(parsed))
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Another caller may have finished the install while we waited.
	if !opts.ForceReinstall {
		if instance, err := s.readInstance(ctx, parsed); err == nil {
			return instance, nil
		}
	} else {
		if err := s.fs.RemoveAll(ctx, filepath.Join(s.root, VersionString(parsed))); err != nil {
			return nil, err
		}
	}

	return s.install(ctx, parsed)
}

// lockVersion serializes installs per version, both in-process and across
// processes sharing the installation root. Unrelated versions proceed
// independently.
func (s *DefaultService) lockVersion(ctx context.Context, version string) (func(), error) {
	s.mu.Lock()
	lock, ok := s.versionLocks[version]
	if !ok {
		lock = &sync.Mutex{}
		s.versionLocks[version] = lock
	}
	s.mu.Unlock()

	lock.Lock()

	fileLock := flock.New(filepath.Join(s.root, "."+version+".lock"))
	locked, err := fileLock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil || !locked {
		lock.Unlock()

		return nil, fmt.Errorf("failed to acquire install lock for %s: %w", version, err)
	}

	return func() {
		if err := fileLock.Unlock(); err != nil {
			s.logger.Warnf("failed to release install lock for %s: %v", version, err)
		}
		lock.Unlock()
	}, nil
}

// install downloads, verifies, and extracts one version, then renames the
// staged directory into place. On any failure the staging area is removed
// and nothing becomes visible in the root.
func (s *DefaultService) install(ctx context.Context, version *semver.Version) (*InstalledInstance, error) {
	name := VersionString(version)

	staging, err := s.fs.MkdirTemp(ctx, s.root, ".staging-"+name+"-")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.fs.RemoveAll(context.WithoutCancel(ctx), staging); err != nil {
			s.logger.Warnf("failed to clean staging directory %s: %v", staging, err)
		}
	}()

	url := fmt.Sprintf(archiveURLTemplate, name)
	zipPath := filepath.Join(staging, "server.zip")

	s.logger.Infof("downloading server %s", name)
	written, err := s.client.StreamToFile(ctx, url, zipPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	s.logger.Infof("downloaded %d bytes for %s", written, name)

	extracted := filepath.Join(staging, "server")
	fileCount, err := s.extract(ctx, zipPath, extracted)
	if err != nil {
		return nil, err
	}

	// The binary ships without the execute bit set.
	if err := s.fs.Chmod(ctx, filepath.Join(extracted, ServerBinaryName), 0755); err != nil {
		s.logger.Warnf("no %s in archive for %s: %v", ServerBinaryName, name, err)
	}

	marker := Marker{
		Version:     name,
		ExtractedAt: time.Now().UTC(),
		FileCount:   fileCount,
	}
	markerData, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode integrity marker: %w", err)
	}
	if err := s.fs.WriteFile(ctx, filepath.Join(extracted, MarkerFileName), markerData, 0644); err != nil {
		return nil, err
	}

	final := filepath.Join(s.root, name)
	if err := s.fs.Rename(ctx, extracted, final); err != nil {
		return nil, err
	}

	s.logger.Infof("installed server %s (%d files)", name, fileCount)

	return &InstalledInstance{
		Version: version,
		Path:    final,
		Marker:  marker,
	}, nil
}

// extract unpacks the zip archive at zipPath into dst and returns the file count
func (s *DefaultService) extract(ctx context.Context, zipPath, dst string) (int, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrArchiveCorrupt, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	if err := s.fs.EnsureDirectory(ctx, dst); err != nil {
		return 0, err
	}

	count := 0
	for _, file := range reader.File {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		default:
		}

		target, err := sanitizePath(dst, file.Name)
		if err != nil {
			return count, fmt.Errorf("%w: %v", ErrArchiveCorrupt, err)
		}

		if file.FileInfo().IsDir() {
			if err := s.fs.EnsureDirectory(ctx, target); err != nil {
				return count, err
			}

			continue
		}

		if err := s.fs.EnsureDirectory(ctx, filepath.Dir(target)); err != nil {
			return count, err
		}
		if err := extractFile(file, target); err != nil {
			return count, fmt.Errorf("%w: %v", ErrArchiveCorrupt, err)
		}
		count++
	}

	return count, nil
}

// sanitizePath rejects archive entries escaping the destination (zip slip)
func sanitizePath(dst, name string) (string, error) {
	target := filepath.Join(dst, name)
	if !strings.HasPrefix(target, filepath.Clean(dst)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}

	return target, nil
}

// extractFile writes one archive entry to disk
func extractFile(file *zip.File, target string) error {
	in, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}

// Remove deletes an installed version from the root
func (s *DefaultService) Remove(ctx context.Context, version string) error {
	parsed, err := ParseVersion(version)
	if err != nil {
		return err
	}

	path := filepath.Join(s.root, VersionString(parsed))
	exists, err := s.fs.PathExists(ctx, path)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotInstalled, version)
	}

	return s.fs.RemoveAll(ctx, path)
}
