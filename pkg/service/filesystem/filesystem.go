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

package filesystem

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultService is the default implementation of the filesystem Service
type DefaultService struct{}

// NewDefaultService creates a new DefaultService
func NewDefaultService() *DefaultService {
	return &DefaultService{}
}

// checkContext returns an error if the context is done
func (s *DefaultService) checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
		return nil
	}
}

// EnsureDirectory creates a directory if it doesn't exist
func (s *DefaultService) EnsureDirectory(ctx context.Context, path string) error {
	if err := s.checkContext(ctx); err != nil {
		return err
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}

	return nil
}

// MkdirTemp creates a new temporary directory in dir and returns its path
func (s *DefaultService) MkdirTemp(ctx context.Context, dir, pattern string) (string, error) {
	if err := s.checkContext(ctx); err != nil {
		return "", err
	}

	path, err := os.MkdirTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary directory in %s: %w", dir, err)
	}

	return path, nil
}

// ReadFile reads a file's contents respecting the context
func (s *DefaultService) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := s.checkContext(ctx); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return data, nil
}

// WriteFile writes data to a file respecting the context
func (s *DefaultService) WriteFile(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	if err := s.checkContext(ctx); err != nil {
		return err
	}

	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}

// PathExists checks if a file or directory exists at the given path
func (s *DefaultService) PathExists(ctx context.Context, path string) (bool, error) {
	if err := s.checkContext(ctx); err != nil {
		return false, err
	}

	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}

	return false, fmt.Errorf("failed to check if path %s exists: %w", path, err)
}

// Remove removes a file or directory
func (s *DefaultService) Remove(ctx context.Context, path string) error {
	if err := s.checkContext(ctx); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}

// RemoveAll removes a directory and all its contents
func (s *DefaultService) RemoveAll(ctx context.Context, path string) error {
	if err := s.checkContext(ctx); err != nil {
		return err
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove directory %s: %w", path, err)
	}

	return nil
}

// Stat returns file info
func (s *DefaultService) Stat(ctx context.Context, path string) (os.FileInfo, error) {
	if err := s.checkContext(ctx); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return info, nil
}

// Chmod changes the mode of the named file
func (s *DefaultService) Chmod(ctx context.Context, path string, mode os.FileMode) error {
	if err := s.checkContext(ctx); err != nil {
		return err
	}

	if err := os.Chmod(path, mode); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}

	return nil
}

// ReadDir reads a directory, returning all its directory entries
func (s *DefaultService) ReadDir(ctx context.Context, path string) ([]os.DirEntry, error) {
	if err := s.checkContext(ctx); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	return entries, nil
}

// Rename renames (moves) a file or directory from oldPath to newPath
func (s *DefaultService) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := s.checkContext(ctx); err != nil {
		return err
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", oldPath, newPath, err)
	}

	return nil
}

// Symlink creates a symbolic link at linkPath pointing to target
func (s *DefaultService) Symlink(ctx context.Context, target, linkPath string) error {
	if err := s.checkContext(ctx); err != nil {
		return err
	}

	if err := os.Symlink(target, linkPath); err != nil {
		return fmt.Errorf("failed to symlink %s -> %s: %w", linkPath, target, err)
	}

	return nil
}

// CopyTree recursively copies the directory tree at src into dst
func (s *DefaultService) CopyTree(ctx context.Context, src, dst string) error {
	if err := s.checkContext(ctx); err != nil {
		return err
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := s.checkContext(ctx); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		if d.Type()&os.ModeSymlink != 0 {
			linked, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("failed to read symlink %s: %w", path, err)
			}

			return os.Symlink(linked, target)
		}

		// Hard links are cheap and the sources are treated read-only, so
		// prefer them and fall back to a byte copy across filesystems.
		if err := os.Link(path, target); err == nil {
			return nil
		}

		return copyFile(path, target)
	})
}

// copyFile copies a single regular file preserving its mode
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()

		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	return out.Close()
}
