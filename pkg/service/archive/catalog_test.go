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

package archive_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yarugames/bedrockci/pkg/service/archive"
	"github.com/yarugames/bedrockci/pkg/service/filesystem"
	"github.com/yarugames/bedrockci/pkg/service/httpclient"
)

const catalogURL = "https://www.minecraft.net/en-us/download/server/bedrock/"

const downloadPage = `<html><body>
<a href="https://www.minecraft.net/bedrockdedicatedserver/bin-win/bedrock-server-1.21.44.01.zip">Windows</a>
<a href="https://www.minecraft.net/bedrockdedicatedserver/bin-linux/bedrock-server-1.21.44.01.zip">Linux</a>
<a href="https://www.minecraft.net/bedrockdedicatedserver/bin-linux/bedrock-server-1.21.44.01.zip">Linux again</a>
<a href="https://www.minecraft.net/bedrockdedicatedserver/bin-linux/bedrock-server-1.21.50.07.zip">Linux preview</a>
</body></html>`

var _ = Describe("Catalog", func() {
	var (
		ctx    context.Context
		client *httpclient.MockHTTPClient
		store  *archive.DefaultService
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = httpclient.NewMockHTTPClient()
		store = archive.NewDefaultService(GinkgoT().TempDir(), filesystem.NewDefaultService(), client)
	})

	It("scrapes linux archive links, newest release first, without duplicates", func() {
		client.SetResponse(catalogURL, httpclient.MockResponse{StatusCode: 200, Body: []byte(downloadPage)})

		versions, err := store.ListRemoteVersions(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(versions).To(HaveLen(2))
		Expect(archive.VersionString(versions[0].Version)).To(Equal("1.21.50.07"))
		Expect(archive.VersionString(versions[1].Version)).To(Equal("1.21.44.01"))
		Expect(versions[1].ArchiveURL).To(Equal("https://www.minecraft.net/bedrockdedicatedserver/bin-linux/bedrock-server-1.21.44.01.zip"))
	})

	It("returns the newest release as the latest", func() {
		client.SetResponse(catalogURL, httpclient.MockResponse{StatusCode: 200, Body: []byte(downloadPage)})

		latest, err := store.LatestRemoteVersion(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(archive.VersionString(latest.Version)).To(Equal("1.21.50.07"))
	})

	It("fails when the download page has no archive links", func() {
		client.SetResponse(catalogURL, httpclient.MockResponse{StatusCode: 200, Body: []byte("<html></html>")})

		_, err := store.ListRemoteVersions(ctx)
		Expect(err).To(MatchError(archive.ErrCatalogUnavailable))
	})

	It("fails on a non-200 catalog response", func() {
		client.SetResponse(catalogURL, httpclient.MockResponse{StatusCode: 503})

		_, err := store.ListRemoteVersions(ctx)
		Expect(err).To(MatchError(archive.ErrCatalogUnavailable))
	})

	It("fails when the catalog cannot be reached", func() {
		_, err := store.ListRemoteVersions(ctx)
		Expect(err).To(MatchError(archive.ErrCatalogUnavailable))
	})
})
