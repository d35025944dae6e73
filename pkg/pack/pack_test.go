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

package pack_test

import (
	"context"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yarugames/bedrockci/pkg/pack"
	"github.com/yarugames/bedrockci/pkg/service/filesystem"
)

const behaviorManifest = `{
	"format_version": 2,
	"header": {
		"name": "My Behavior Pack",
		"uuid": "66c6e9a8-3093-462a-9c36-dbb052165726",
		"version": [1, 2, 3],
		"min_engine_version": [1, 20, 0]
	},
	"modules": [
		{"type": "data", "uuid": "ee649bcf-aa19-4e7c-a9e9-8f4b86e2b15c", "version": [1, 2, 3]}
	]
}`

const resourceManifest = `{
	"format_version": 2,
	"header": {
		"name": "My Resource Pack",
		"uuid": "aafebd30-73b4-4347-8c34-1c62fd896ab9",
		"version": [0, 0, 1]
	},
	"modules": [
		{"type": "resources", "uuid": "743f6949-53be-44b6-b326-398005028819", "version": [0, 0, 1]}
	]
}`

// manifestFS returns a mock filesystem that serves the given manifest.json
// contents for every pack directory.
func manifestFS(contents string) *filesystem.MockFileSystem {
	fs := filesystem.NewMockFileSystem()
	fs.PathExistsFunc = func(ctx context.Context, path string) (bool, error) {
		return strings.HasSuffix(path, pack.ManifestFileName), nil
	}
	fs.ReadFileFunc = func(ctx context.Context, path string) ([]byte, error) {
		return []byte(contents), nil
	}

	return fs
}

var _ = Describe("Load", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("reads a behavior pack manifest", func() {
		ref, err := pack.Load(ctx, manifestFS(behaviorManifest), "/packs/my-bp", pack.KindBehavior)
		Expect(err).NotTo(HaveOccurred())
		Expect(ref.Name).To(Equal("My Behavior Pack"))
		Expect(ref.UUID.String()).To(Equal("66c6e9a8-3093-462a-9c36-dbb052165726"))
		Expect(ref.Version).To(Equal(pack.Version{1, 2, 3}))
		Expect(ref.Kind).To(Equal(pack.KindBehavior))
		Expect(ref.Path).To(Equal("/packs/my-bp"))
	})

	It("reads a resource pack manifest", func() {
		ref, err := pack.Load(ctx, manifestFS(resourceManifest), "/packs/my-rp", pack.KindResource)
		Expect(err).NotTo(HaveOccurred())
		Expect(ref.Name).To(Equal("My Resource Pack"))
		Expect(ref.Version.String()).To(Equal("0.0.1"))
	})

	It("rejects a pack directory without a manifest", func() {
		fs := filesystem.NewMockFileSystem()
		fs.PathExistsFunc = func(ctx context.Context, path string) (bool, error) {
			return false, nil
		}

		_, err := pack.Load(ctx, fs, "/packs/empty", pack.KindBehavior)
		Expect(err).To(MatchError(pack.ErrManifestInvalid))
		Expect(fs.Calls("ReadFile")).To(BeZero())
	})

	It("rejects malformed manifest JSON", func() {
		_, err := pack.Load(ctx, manifestFS(`{"header": `), "/packs/bad", pack.KindBehavior)
		Expect(err).To(MatchError(pack.ErrManifestInvalid))
	})

	It("rejects a manifest with an invalid header uuid", func() {
		_, err := pack.Load(ctx, manifestFS(`{
			"header": {"name": "x", "uuid": "not-a-uuid", "version": [1, 0, 0]},
			"modules": [{"type": "data"}]
		}`), "/packs/bad", pack.KindBehavior)
		Expect(err).To(MatchError(pack.ErrManifestInvalid))
	})

	It("rejects a behavior pack whose manifest declares resources", func() {
		_, err := pack.Load(ctx, manifestFS(resourceManifest), "/packs/my-rp", pack.KindBehavior)
		Expect(err).To(MatchError(pack.ErrKindMismatch))
	})

	It("rejects a resource pack whose manifest has no resources module", func() {
		_, err := pack.Load(ctx, manifestFS(behaviorManifest), "/packs/my-bp", pack.KindResource)
		Expect(err).To(MatchError(pack.ErrKindMismatch))
	})

	It("propagates read failures without wrapping them as manifest errors", func() {
		fs := filesystem.NewMockFileSystem()
		fs.PathExistsFunc = func(ctx context.Context, path string) (bool, error) {
			return true, nil
		}
		fs.ReadFileFunc = func(ctx context.Context, path string) ([]byte, error) {
			return nil, os.ErrPermission
		}

		_, err := pack.Load(ctx, fs, "/packs/locked", pack.KindBehavior)
		Expect(err).To(MatchError(os.ErrPermission))
		Expect(err).NotTo(MatchError(pack.ErrManifestInvalid))
	})
})

var _ = DescribeTable("Version rendering",
	func(v pack.Version, expected string) {
		Expect(v.String()).To(Equal(expected))
	},
	Entry("release", pack.Version{1, 2, 3}, "1.2.3"),
	Entry("zero", pack.Version{}, "0.0.0"),
)
