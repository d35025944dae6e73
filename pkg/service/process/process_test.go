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

package process_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yarugames/bedrockci/pkg/service/process"
)

// fakeServer writes a shell script standing in for the server binary and
// returns its path together with the directory it runs in.
func fakeServer(script string) (string, string) {
	dir := GinkgoT().TempDir()
	path := filepath.Join(dir, "bedrock_server")
	Expect(os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755)).To(Succeed())

	return path, dir
}

// collect drains the line stream until it closes or the timeout hits
func collect(proc *process.Process, timeout time.Duration) []string {
	var lines []string
	deadline := time.After(timeout)
	for {
		select {
		case line, ok := <-proc.Lines():
			if !ok {
				return lines
			}
			lines = append(lines, line)
		case <-deadline:
			Fail("line stream did not close in time")
		}
	}
}

var _ = Describe("Launch", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("fails for a missing binary", func() {
		_, err := process.Launch(ctx, "/does/not/exist", "/tmp", nil)
		Expect(err).To(MatchError(process.ErrSpawn))
	})

	It("fails for a binary without the execute bit", func() {
		dir := GinkgoT().TempDir()
		binary := filepath.Join(dir, "bedrock_server")
		Expect(os.WriteFile(binary, []byte("#!/bin/sh\n"), 0644)).To(Succeed())

		_, err := process.Launch(ctx, binary, dir, nil)
		Expect(err).To(MatchError(process.ErrSpawn))
	})

	It("streams stdout and stderr as one ordered line stream", func() {
		binary, dir := fakeServer(`
echo "out one"
echo "err one" >&2
echo "out two"
`)
		proc, err := process.Launch(ctx, binary, dir, nil)
		Expect(err).NotTo(HaveOccurred())

		lines := collect(proc, 5*time.Second)
		Expect(lines).To(ConsistOf("out one", "err one", "out two"))

		Eventually(proc.Exited()).Should(BeClosed())
		Expect(proc.ExitErr()).NotTo(HaveOccurred())
	})

	It("strips carriage returns and skips blank lines", func() {
		binary, dir := fakeServer(`
printf 'windows line\r\n'
echo ""
echo "plain line"
`)
		proc, err := process.Launch(ctx, binary, dir, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(collect(proc, 5*time.Second)).To(Equal([]string{"windows line", "plain line"}))
	})

	It("flushes a trailing partial line", func() {
		binary, dir := fakeServer(`printf 'no trailing newline'`)
		proc, err := process.Launch(ctx, binary, dir, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(collect(proc, 5*time.Second)).To(Equal([]string{"no trailing newline"}))
	})

	It("passes extra arguments through to the binary", func() {
		binary, dir := fakeServer(`echo "args: $@"`)
		proc, err := process.Launch(ctx, binary, dir, []string{"--test-flag"})
		Expect(err).NotTo(HaveOccurred())

		Expect(collect(proc, 5*time.Second)).To(Equal([]string{"args: --test-flag"}))
	})

	It("surfaces a non-zero exit through ExitErr", func() {
		binary, dir := fakeServer(`
echo "going down"
exit 2
`)
		proc, err := process.Launch(ctx, binary, dir, nil)
		Expect(err).NotTo(HaveOccurred())

		collect(proc, 5*time.Second)
		Eventually(proc.Exited()).Should(BeClosed())

		var exitErr *exec.ExitError
		Expect(proc.ExitErr()).To(BeAssignableToTypeOf(exitErr))
	})

	Describe("NextLine", func() {
		It("returns lines until the stream is exhausted", func() {
			binary, dir := fakeServer(`echo "only line"`)
			proc, err := process.Launch(ctx, binary, dir, nil)
			Expect(err).NotTo(HaveOccurred())

			line, ok, err := proc.NextLine(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(line).To(Equal("only line"))

			Eventually(func() bool {
				_, ok, err := proc.NextLine(ctx)
				Expect(err).NotTo(HaveOccurred())

				return ok
			}).Should(BeFalse())
		})

		It("honors context cancellation", func() {
			// exec so the kill in Stop hits the process holding the pipes
			binary, dir := fakeServer(`exec sleep 30`)
			proc, err := process.Launch(ctx, binary, dir, nil)
			Expect(err).NotTo(HaveOccurred())
			defer func() {
				Expect(proc.Stop(context.Background(), 50*time.Millisecond)).To(Succeed())
			}()

			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, _, err = proc.NextLine(cancelled)
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("Stop", func() {
		It("stops gracefully when the binary honors the stop command", func() {
			binary, dir := fakeServer(`
echo "Server started."
while read cmd; do
  if [ "$cmd" = "stop" ]; then
    echo "Quit correctly"
    exit 0
  fi
done
`)
			proc, err := process.Launch(ctx, binary, dir, nil)
			Expect(err).NotTo(HaveOccurred())

			line, ok, err := proc.NextLine(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(line).To(Equal("Server started."))

			Expect(proc.Stop(ctx, 5*time.Second)).To(Succeed())
			Expect(proc.ExitErr()).NotTo(HaveOccurred())
		})

		It("kills the binary when the grace period elapses", func() {
			binary, dir := fakeServer(`
echo "Server started."
exec sleep 60
`)
			proc, err := process.Launch(ctx, binary, dir, nil)
			Expect(err).NotTo(HaveOccurred())

			start := time.Now()
			Expect(proc.Stop(ctx, 100*time.Millisecond)).To(Succeed())
			Expect(time.Since(start)).To(BeNumerically("<", 10*time.Second))

			Eventually(proc.Exited()).Should(BeClosed())
			Expect(proc.ExitErr()).To(HaveOccurred())
		})

		It("reaps a chatty server after the caller stops reading", func() {
			// Far more pending output than the line channel can buffer.
			binary, dir := fakeServer(`
echo "Server started."
i=0
while [ $i -lt 500 ]; do
  echo "[Scripting][error] spam $i"
  i=$((i+1))
done
exec sleep 60
`)
			proc, err := process.Launch(ctx, binary, dir, nil)
			Expect(err).NotTo(HaveOccurred())

			line, ok, err := proc.NextLine(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(line).To(Equal("Server started."))

			start := time.Now()
			Expect(proc.Stop(ctx, 200*time.Millisecond)).To(Succeed())
			Expect(time.Since(start)).To(BeNumerically("<", 5*time.Second))

			Eventually(proc.Exited()).Should(BeClosed())
			Expect(proc.ExitErr()).To(HaveOccurred())
		})

		It("is a no-op once the process has exited", func() {
			binary, dir := fakeServer(`exit 0`)
			proc, err := process.Launch(ctx, binary, dir, nil)
			Expect(err).NotTo(HaveOccurred())

			Eventually(proc.Exited()).Should(BeClosed())
			Expect(proc.Stop(ctx, time.Second)).To(Succeed())
		})
	})
})
