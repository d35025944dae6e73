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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yarugames/bedrockci/pkg/service/archive"
)

var _ = Describe("ParseVersion", func() {
	DescribeTable("round-trips upstream version strings",
		func(raw string) {
			version, err := archive.ParseVersion(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(archive.VersionString(version)).To(Equal(raw))
		},
		Entry("three components", "1.20.15"),
		Entry("four components", "1.21.44.01"),
		Entry("four components with long revision", "1.21.50.07"),
	)

	It("orders revisions of the same release numerically", func() {
		older, err := archive.ParseVersion("1.21.44.01")
		Expect(err).NotTo(HaveOccurred())
		newer, err := archive.ParseVersion("1.21.44.02")
		Expect(err).NotTo(HaveOccurred())
		Expect(older.LessThan(newer)).To(BeTrue())
	})

	It("orders releases across the revision boundary", func() {
		older, err := archive.ParseVersion("1.21.44.02")
		Expect(err).NotTo(HaveOccurred())
		newer, err := archive.ParseVersion("1.21.50.07")
		Expect(err).NotTo(HaveOccurred())
		Expect(older.LessThan(newer)).To(BeTrue())
	})

	DescribeTable("rejects unparseable versions",
		func(raw string) {
			_, err := archive.ParseVersion(raw)
			Expect(err).To(MatchError(archive.ErrInvalidVersion))
		},
		Entry("words", "latest"),
		Entry("empty", ""),
		Entry("five components", "1.2.3.4.5"),
	)
})
