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
	"os"
	"sync"
)

// MockFileSystem is a mock implementation of the filesystem.Service interface.
// Each method delegates to the corresponding Func field when set and falls
// back to a success no-op otherwise. Calls are recorded for assertions.
type MockFileSystem struct {
	EnsureDirectoryFunc func(ctx context.Context, path string) error
	MkdirTempFunc       func(ctx context.Context, dir, pattern string) (string, error)
	ReadFileFunc        func(ctx context.Context, path string) ([]byte, error)
	WriteFileFunc       func(ctx context.Context, path string, data []byte, perm os.FileMode) error
	PathExistsFunc      func(ctx context.Context, path string) (bool, error)
	RemoveFunc          func(ctx context.Context, path string) error
	RemoveAllFunc       func(ctx context.Context, path string) error
	StatFunc            func(ctx context.Context, path string) (os.FileInfo, error)
	ChmodFunc           func(ctx context.Context, path string, mode os.FileMode) error
	ReadDirFunc         func(ctx context.Context, path string) ([]os.DirEntry, error)
	RenameFunc          func(ctx context.Context, oldPath, newPath string) error
	SymlinkFunc         func(ctx context.Context, target, linkPath string) error
	CopyTreeFunc        func(ctx context.Context, src, dst string) error

	mu    sync.Mutex
	calls map[string]int
}

// NewMockFileSystem creates a new MockFileSystem instance
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		calls: make(map[string]int),
	}
}

// Calls returns how many times the named operation was invoked
func (m *MockFileSystem) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls[op]
}

func (m *MockFileSystem) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[op]++
}

// EnsureDirectory creates a directory if it doesn't exist
func (m *MockFileSystem) EnsureDirectory(ctx context.Context, path string) error {
	m.record("EnsureDirectory")
	if m.EnsureDirectoryFunc != nil {
		return m.EnsureDirectoryFunc(ctx, path)
	}

	return nil
}

// MkdirTemp creates a new temporary directory in dir and returns its path
func (m *MockFileSystem) MkdirTemp(ctx context.Context, dir, pattern string) (string, error) {
	m.record("MkdirTemp")
	if m.MkdirTempFunc != nil {
		return m.MkdirTempFunc(ctx, dir, pattern)
	}

	return dir + "/" + pattern + "mock", nil
}

// ReadFile reads a file's contents respecting the context
func (m *MockFileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	m.record("ReadFile")
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(ctx, path)
	}

	return nil, os.ErrNotExist
}

// WriteFile writes data to a file respecting the context
func (m *MockFileSystem) WriteFile(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	m.record("WriteFile")
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(ctx, path, data, perm)
	}

	return nil
}

// PathExists checks if a file or directory exists at the given path
func (m *MockFileSystem) PathExists(ctx context.Context, path string) (bool, error) {
	m.record("PathExists")
	if m.PathExistsFunc != nil {
		return m.PathExistsFunc(ctx, path)
	}

	return false, nil
}

// Remove removes a file or directory
func (m *MockFileSystem) Remove(ctx context.Context, path string) error {
	m.record("Remove")
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, path)
	}

	return nil
}

// RemoveAll removes a directory and all its contents
func (m *MockFileSystem) RemoveAll(ctx context.Context, path string) error {
	m.record("RemoveAll")
	if m.RemoveAllFunc != nil {
		return m.RemoveAllFunc(ctx, path)
	}

	return nil
}

// Stat returns file info
func (m *MockFileSystem) Stat(ctx context.Context, path string) (os.FileInfo, error) {
	m.record("Stat")
	if m.StatFunc != nil {
		return m.StatFunc(ctx, path)
	}

	return nil, os.ErrNotExist
}

// Chmod changes the mode of the named file
func (m *MockFileSystem) Chmod(ctx context.Context, path string, mode os.FileMode) error {
	m.record("Chmod")
	if m.ChmodFunc != nil {
		return m.ChmodFunc(ctx, path, mode)
	}

	return nil
}

// ReadDir reads a directory, returning all its directory entries
func (m *MockFileSystem) ReadDir(ctx context.Context, path string) ([]os.DirEntry, error) {
	m.record("ReadDir")
	if m.ReadDirFunc != nil {
		return m.ReadDirFunc(ctx, path)
	}

	return nil, nil
}

// Rename renames (moves) a file or directory from oldPath to newPath
func (m *MockFileSystem) Rename(ctx context.Context, oldPath, newPath string) error {
	m.record("Rename")
	if m.RenameFunc != nil {
		return m.RenameFunc(ctx, oldPath, newPath)
	}

	return nil
}

// Symlink creates a symbolic link at linkPath pointing to target
func (m *MockFileSystem) Symlink(ctx context.Context, target, linkPath string) error {
	m.record("Symlink")
	if m.SymlinkFunc != nil {
		return m.SymlinkFunc(ctx, target, linkPath)
	}

	return nil
}

// CopyTree recursively copies the directory tree at src into dst
func (m *MockFileSystem) CopyTree(ctx context.Context, src, dst string) error {
	m.record("CopyTree")
	if m.CopyTreeFunc != nil {
		return m.CopyTreeFunc(ctx, src, dst)
	}

	return nil
}
