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

// Package config resolves the installation root and loads the optional
// per-project configuration file.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yarugames/bedrockci/pkg/service/filesystem"
)

const (
	// DefaultFileName is the per-project config file looked up in the working directory
	DefaultFileName = "bedrockci.yaml"

	// serverRootEnv overrides the default installation root
	serverRootEnv = "BEDROCK_SERVER_PATH"
)

// Config is the optional per-project configuration. CLI flags take
// precedence over every field.
type Config struct {
	// Version pins the server version used for validation; latest installed when empty
	Version string `yaml:"version,omitempty"`
	// BehaviorPack is the path of the behavior pack under test
	BehaviorPack string `yaml:"behavior_pack,omitempty"`
	// ResourcePack is the path of the resource pack under test
	ResourcePack string `yaml:"resource_pack,omitempty"`
	// TimeoutSeconds bounds the wait for the server to report ready
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
	// OnlyWarn demotes errors to warnings
	OnlyWarn bool `yaml:"only_warn,omitempty"`
	// FailOnWarn fails the run on warnings
	FailOnWarn bool `yaml:"fail_on_warn,omitempty"`
}

// Load reads the config file at path. A missing file is not an error; it
// yields the zero config.
func Load(ctx context.Context, fs filesystem.Service, path string) (*Config, error) {
	exists, err := fs.PathExists(ctx, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &Config{}, nil
	}

	data, err := fs.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &cfg, nil
}

// ServerRoot returns the installation root: the BEDROCK_SERVER_PATH
// environment variable when set, ~/.bedrockci/server otherwise.
func ServerRoot() (string, error) {
	if root := os.Getenv(serverRootEnv); root != "" {
		return root, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve home directory and %s is not set: %w", serverRootEnv, err)
	}

	return filepath.Join(home, ".bedrockci", "server"), nil
}
