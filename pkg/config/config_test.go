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

package config_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yarugames/bedrockci/pkg/config"
	"github.com/yarugames/bedrockci/pkg/service/filesystem"
)

var _ = Describe("Load", func() {
	var (
		ctx context.Context
		fs  filesystem.Service
		dir string
	)

	BeforeEach(func() {
		ctx = context.Background()
		fs = filesystem.NewDefaultService()
		dir = GinkgoT().TempDir()
	})

	It("returns the zero config when the file is missing", func() {
		cfg, err := config.Load(ctx, fs, filepath.Join(dir, config.DefaultFileName))
		Expect(err).NotTo(HaveOccurred())
		Expect(*cfg).To(Equal(config.Config{}))
	})

	It("reads all fields from the project file", func() {
		path := filepath.Join(dir, config.DefaultFileName)
		Expect(os.WriteFile(path, []byte(`
version: 1.21.44.01
behavior_pack: ./packs/bp
resource_pack: ./packs/rp
timeout_seconds: 120
fail_on_warn: true
`), 0644)).To(Succeed())

		cfg, err := config.Load(ctx, fs, path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Version).To(Equal("1.21.44.01"))
		Expect(cfg.BehaviorPack).To(Equal("./packs/bp"))
		Expect(cfg.ResourcePack).To(Equal("./packs/rp"))
		Expect(cfg.TimeoutSeconds).To(Equal(120))
		Expect(cfg.OnlyWarn).To(BeFalse())
		Expect(cfg.FailOnWarn).To(BeTrue())
	})

	It("fails on malformed yaml", func() {
		path := filepath.Join(dir, config.DefaultFileName)
		Expect(os.WriteFile(path, []byte("version: [\n"), 0644)).To(Succeed())

		_, err := config.Load(ctx, fs, path)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ServerRoot", func() {
	It("prefers the environment override", func() {
		GinkgoT().Setenv("BEDROCK_SERVER_PATH", "/srv/bedrock")

		root, err := config.ServerRoot()
		Expect(err).NotTo(HaveOccurred())
		Expect(root).To(Equal("/srv/bedrock"))
	})

	It("defaults to a dot directory under the home directory", func() {
		GinkgoT().Setenv("BEDROCK_SERVER_PATH", "")

		home, err := os.UserHomeDir()
		Expect(err).NotTo(HaveOccurred())

		root, err := config.ServerRoot()
		Expect(err).NotTo(HaveOccurred())
		Expect(root).To(Equal(filepath.Join(home, ".bedrockci", "server")))
	})
})
