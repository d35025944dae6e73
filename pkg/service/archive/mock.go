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

import "context"

// MockService is a mock implementation of the archive Service interface
type MockService struct {
	ListRemoteVersionsFunc  func(ctx context.Context) ([]ServerVersion, error)
	LatestRemoteVersionFunc func(ctx context.Context) (*ServerVersion, error)
	ListInstalledFunc       func(ctx context.Context) ([]InstalledInstance, error)
	LatestInstalledFunc     func(ctx context.Context) (*InstalledInstance, error)
	EnsureInstalledFunc     func(ctx context.Context, version string, opts InstallOptions) (*InstalledInstance, error)
	RemoveFunc              func(ctx context.Context, version string) error
}

// NewMockService creates a new MockService
func NewMockService() *MockService {
	return &MockService{}
}

// ListRemoteVersions queries the upstream catalog
func (m *MockService) ListRemoteVersions(ctx context.Context) ([]ServerVersion, error) {
	if m.ListRemoteVersionsFunc != nil {
		return m.ListRemoteVersionsFunc(ctx)
	}

	return nil, nil
}

// LatestRemoteVersion returns the newest catalog release
func (m *MockService) LatestRemoteVersion(ctx context.Context) (*ServerVersion, error) {
	if m.LatestRemoteVersionFunc != nil {
		return m.LatestRemoteVersionFunc(ctx)
	}

	return nil, ErrCatalogUnavailable
}

// ListInstalled scans the installation root
func (m *MockService) ListInstalled(ctx context.Context) ([]InstalledInstance, error) {
	if m.ListInstalledFunc != nil {
		return m.ListInstalledFunc(ctx)
	}

	return nil, nil
}

// LatestInstalled returns the newest completed installation
func (m *MockService) LatestInstalled(ctx context.Context) (*InstalledInstance, error) {
	if m.LatestInstalledFunc != nil {
		return m.LatestInstalledFunc(ctx)
	}

	return nil, ErrNotInstalled
}

// EnsureInstalled returns the installation for version
func (m *MockService) EnsureInstalled(ctx context.Context, version string, opts InstallOptions) (*InstalledInstance, error) {
	if m.EnsureInstalledFunc != nil {
		return m.EnsureInstalledFunc(ctx, version, opts)
	}

	return nil, ErrNotInstalled
}

// Remove deletes an installed version
func (m *MockService) Remove(ctx context.Context, version string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, version)
	}

	return nil
}
