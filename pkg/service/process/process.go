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

// Package process spawns the dedicated server binary inside a workspace
// and exposes its combined stdout/stderr as a line stream, with graceful
// then forced termination.
package process

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yarugames/bedrockci/pkg/logger"
)

// stopCommand is the server's documented graceful shutdown instruction,
// written to its stdin.
const stopCommand = "stop\n"

// maxLineLength bounds a single log line; the server occasionally dumps
// long script stack traces on one line.
const maxLineLength = 1024 * 1024

// Process is a handle on a running server binary
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan string
	exited chan struct{}
	logger *zap.SugaredLogger

	drainOnce sync.Once
	waitErr   error
}

// Launch spawns the server binary at binary with its working directory set
// to dir. Stdout and stderr are pumped into a single line stream; per-stream
// ordering is preserved. Returns ErrSpawn when the binary is missing or not
// executable.
func Launch(ctx context.Context, binary, dir string, extraArgs []string) (*Process, error) {
	info, err := os.Stat(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	if info.Mode()&0111 == 0 {
		return nil, fmt.Errorf("%w: %s is not executable", ErrSpawn, binary)
	}

	cmd := exec.Command(binary, extraArgs...)
	cmd.Dir = dir
	// The binary resolves its bundled shared objects relative to cwd.
	cmd.Env = append(os.Environ(), "LD_LIBRARY_PATH=.")

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	p := &Process{
		cmd:    cmd,
		stdin:  stdin,
		lines:  make(chan string, 64),
		exited: make(chan struct{}),
		logger: logger.For(logger.ComponentServerProcess),
	}

	var pumps errgroup.Group
	pumps.Go(func() error { return p.pump(stdout) })
	pumps.Go(func() error { return p.pump(stderr) })

	go func() {
		// Both pipes hit EOF when the process ends; a scanner error only
		// means the stream ended early, the process still has to be reaped.
		if err := pumps.Wait(); err != nil {
			p.logger.Debugf("output pump ended: %v", err)
		}
		close(p.lines)

		p.waitErr = cmd.Wait()
		close(p.exited)
	}()

	p.logger.Infof("server process started (pid %d)", cmd.Process.Pid)

	return p, nil
}

// pump reads one output stream line by line into the shared channel.
// A trailing partial line without a newline is flushed as a final line.
func (p *Process) pump(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineLength)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		p.lines <- line
	}

	return scanner.Err()
}

// NextLine blocks until a new output line is available, the stream is
// exhausted, or ctx is done. The second return value is false once the
// stream is exhausted.
func (p *Process) NextLine(ctx context.Context) (string, bool, error) {
	select {
	case line, ok := <-p.lines:
		return line, ok, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// Lines exposes the raw line channel for select loops. The channel is
// closed once both output streams are exhausted.
func (p *Process) Lines() <-chan string {
	return p.lines
}

// Exited is closed after the process has been reaped
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

// ExitErr returns the error from reaping the process. Only valid after
// Exited is closed.
func (p *Process) ExitErr() error {
	select {
	case <-p.exited:
		return p.waitErr
	default:
		return nil
	}
}

// drain discards the remaining output stream. Once the caller stops
// reading, a chatty server would fill the line channel and block both
// pumps on the send, which in turn blocks reaping; draining keeps the
// pumps moving toward EOF.
func (p *Process) drain() {
	p.drainOnce.Do(func() {
		go func() {
			for range p.lines {
			}
		}()
	})
}

// Stop sends the graceful shutdown command and waits up to grace for the
// process to exit, force-killing it afterwards. The process is always
// reaped before Stop returns. Callers must not read Lines or NextLine
// concurrently with or after Stop; remaining output is discarded.
func (p *Process) Stop(ctx context.Context, grace time.Duration) error {
	select {
	case <-p.exited:
		return nil
	default:
	}

	p.drain()

	if _, err := io.WriteString(p.stdin, stopCommand); err != nil {
		p.logger.Debugf("stop command not delivered: %v", err)
	}
	_ = p.stdin.Close()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-p.exited:
		p.logger.Infof("server stopped gracefully")

		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	p.logger.Warnf("server did not stop within %s, killing", grace)
	if err := p.cmd.Process.Kill(); err != nil {
		p.logger.Warnf("kill failed: %v", err)
	}

	// Reaping happens in the pump goroutine; after SIGKILL it finishes
	// promptly.
	<-p.exited

	return nil
}
