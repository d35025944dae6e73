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

package httpclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yarugames/bedrockci/pkg/service/httpclient"
)

var _ = Describe("DefaultHTTPClient", func() {
	var (
		ctx    context.Context
		client *httpclient.DefaultHTTPClient
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = httpclient.NewDefaultHTTPClient()
	})

	It("sends a browser user agent by default", func() {
		var agent string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			agent = r.Header.Get("User-Agent")
		}))
		defer server.Close()

		_, _, err := client.GetWithBody(ctx, server.URL)
		Expect(err).NotTo(HaveOccurred())
		Expect(agent).To(ContainSubstring("Mozilla/5.0"))
	})

	It("returns the response body of a GET", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("download page"))
		}))
		defer server.Close()

		resp, body, err := client.GetWithBody(ctx, server.URL)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(body)).To(Equal("download page"))
	})

	Describe("StreamToFile", func() {
		It("writes the body to the target file", func() {
			payload := make([]byte, 256*1024)
			for i := range payload {
				payload[i] = byte(i)
			}
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(payload)
			}))
			defer server.Close()

			path := filepath.Join(GinkgoT().TempDir(), "server.zip")
			written, err := client.StreamToFile(ctx, server.URL, path)
			Expect(err).NotTo(HaveOccurred())
			Expect(written).To(Equal(int64(len(payload))))

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(payload))
		})

		It("fails on a non-200 response without creating the file", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			path := filepath.Join(GinkgoT().TempDir(), "server.zip")
			_, err := client.StreamToFile(ctx, server.URL, path)
			Expect(err).To(HaveOccurred())
			Expect(path).NotTo(BeAnExistingFile())
		})

		It("honors context cancellation", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				<-r.Context().Done()
			}))
			defer server.Close()

			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			path := filepath.Join(GinkgoT().TempDir(), "server.zip")
			_, err := client.StreamToFile(cancelled, server.URL, path)
			Expect(err).To(HaveOccurred())
		})
	})
})
