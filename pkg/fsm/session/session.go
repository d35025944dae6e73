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

// Package session orchestrates one validation run: build a workspace,
// launch the server, consume classified log lines under a deadline, stop
// the server, and aggregate diagnostics into a verdict.
package session

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/yarugames/bedrockci/pkg/classify"
	"github.com/yarugames/bedrockci/pkg/logger"
	"github.com/yarugames/bedrockci/pkg/pack"
	"github.com/yarugames/bedrockci/pkg/service/archive"
	"github.com/yarugames/bedrockci/pkg/service/filesystem"
	"github.com/yarugames/bedrockci/pkg/service/process"
	"github.com/yarugames/bedrockci/pkg/service/workspace"
)

const (
	// DefaultDeadline bounds how long the server may take to report ready
	DefaultDeadline = 60 * time.Second

	// DefaultGracePeriod is how long a stopping server gets before SIGKILL
	DefaultGracePeriod = 5 * time.Second
)

// Options configure a validation session
type Options struct {
	// Deadline bounds the wait for a terminal signal; DefaultDeadline when zero
	Deadline time.Duration
	// GracePeriod for graceful shutdown; DefaultGracePeriod when zero
	GracePeriod time.Duration
	// Policy controls the verdict
	Policy Policy
	// Workspace options are passed through to workspace construction
	Workspace workspace.Options
	// ExtraArgs are appended to the server command line
	ExtraArgs []string
	// OnLine, when set, observes every raw output line (verbose mode)
	OnLine func(line string)
}

// Session drives a single validation run through its state machine.
// All state is owned by the goroutine calling Run; the line channel and
// the deadline timer are the only suspension points.
type Session struct {
	fs       filesystem.Service
	instance *archive.InstalledInstance
	packs    []*pack.Reference
	opts     Options

	machine *fsm.FSM
	logger  *zap.SugaredLogger

	diagnostics []Diagnostic
	spent       bool
}

// New creates a session for one run against instance with the given packs
func New(fs filesystem.Service, instance *archive.InstalledInstance, packs []*pack.Reference, opts Options) *Session {
	if opts.Deadline <= 0 {
		opts.Deadline = DefaultDeadline
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}

	log := logger.For(logger.ComponentSession)

	return &Session{
		fs:       fs,
		instance: instance,
		packs:    packs,
		opts:     opts,
		machine:  newMachine(log),
		logger:   log,
	}
}

// Validate is the single entry point surrounding tooling calls: it runs a
// fresh session to completion and returns its result.
func Validate(ctx context.Context, fs filesystem.Service, instance *archive.InstalledInstance, packs []*pack.Reference, opts Options) (*Result, error) {
	return New(fs, instance, packs, opts).Run(ctx)
}

// State returns the current state machine state
func (s *Session) State() string {
	return s.machine.Current()
}

// Run executes the session to its terminal state and computes the result.
// A session is single-use; calling Run twice returns ErrSessionSpent.
// Workspace and process are always torn down before Run returns, success
// or failure.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	if s.spent {
		return nil, ErrSessionSpent
	}
	s.spent = true

	// Teardown must happen even when the caller's context is already gone.
	cleanupCtx := context.WithoutCancel(ctx)

	ws, err := workspace.Create(ctx, s.fs, s.instance, s.packs, s.opts.Workspace)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := ws.Destroy(cleanupCtx); err != nil {
			s.logger.Warnf("workspace teardown: %v", err)
		}
	}()

	proc, err := process.Launch(ctx, ws.ServerBinary(), ws.Path(), s.opts.ExtraArgs)
	if err != nil {
		return nil, err
	}

	if err := s.machine.Event(cleanupCtx, EventStartDone); err != nil {
		return nil, err
	}

	reason := s.consume(ctx, cleanupCtx, proc)

	if err := proc.Stop(cleanupCtx, s.opts.GracePeriod); err != nil {
		s.logger.Warnf("server shutdown: %v", err)
	}

	if err := ws.Destroy(cleanupCtx); err != nil {
		s.logger.Warnf("workspace teardown: %v", err)
	}

	if err := s.machine.Event(cleanupCtx, EventClose); err != nil {
		return nil, err
	}

	result := computeResult(reason, s.diagnostics, s.opts.Policy)
	s.logger.Infof("session closed: reason=%s passed=%t diagnostics=%d",
		result.Reason, result.Passed, len(result.Diagnostics))

	return result, nil
}

// consume is the session event loop: a select between the next output
// line, the deadline, and external cancellation. Diagnostics are appended
// in the exact order their lines arrived; once a terminal signal is seen
// no further lines are classified.
func (s *Session) consume(ctx context.Context, cleanupCtx context.Context, proc *process.Process) TerminationReason {
	deadline := time.NewTimer(s.opts.Deadline)
	defer deadline.Stop()

	for {
		select {
		case line, ok := <-proc.Lines():
			if !ok {
				// Output ended with no ready or fatal marker: the server
				// exited on its own, which is itself the validation outcome.
				_ = s.machine.Event(cleanupCtx, EventProcessExited)

				return ReasonProcessCrashed
			}

			if s.opts.OnLine != nil {
				s.opts.OnLine(line)
			}

			res := classify.Classify(line)
			switch {
			case res.Signal == classify.SignalReady:
				_ = s.machine.Event(cleanupCtx, EventReadySeen)

				return ReasonReadyDetected
			case res.Signal == classify.SignalFatal:
				_ = s.machine.Event(cleanupCtx, EventFatalSeen)

				return ReasonProcessCrashed
			case res.Diagnostic != nil:
				s.diagnostics = append(s.diagnostics, Diagnostic{
					Kind:       res.Diagnostic.Kind,
					SourcePack: s.resolvePack(res.Diagnostic.PackHint),
					Message:    res.Diagnostic.Message,
					RawLine:    res.Diagnostic.RawLine,
				})
			}

		case <-deadline.C:
			_ = s.machine.Event(cleanupCtx, EventDeadline)

			return ReasonTimeout

		case <-ctx.Done():
			// External cancellation: same cleanup as a timeout, reported
			// honestly instead of fabricating a verdict.
			_ = s.machine.Event(cleanupCtx, EventCancel)

			return ReasonCancelled
		}
	}
}

// resolvePack maps a classifier pack hint (name, UUID, or staged folder
// name) to one of the session's pack references
func (s *Session) resolvePack(hint string) *pack.Reference {
	if hint == "" {
		return nil
	}

	for _, ref := range s.packs {
		if strings.EqualFold(ref.Name, hint) || strings.EqualFold(ref.UUID.String(), hint) {
			return ref
		}
	}

	// Staged folder names embed the pack's position in the session order.
	for _, prefix := range []string{"bedrockci_bp_", "bedrockci_rp_"} {
		if !strings.HasPrefix(hint, prefix) {
			continue
		}
		if i, err := strconv.Atoi(strings.TrimPrefix(hint, prefix)); err == nil && i >= 0 && i < len(s.packs) {
			return s.packs[i]
		}
	}

	return nil
}
