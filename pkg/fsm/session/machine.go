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

package session

import (
	"context"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// Session states. A session moves strictly forward: starting → running →
// one terminal state → closed.
const (
	// StateStarting means the workspace is built and the process launch is requested
	StateStarting = "starting"
	// StateRunning means classified lines are being consumed under the deadline
	StateRunning = "running"
	// StateCompleted means the ready marker was seen
	StateCompleted = "completed"
	// StateTimedOut means the deadline elapsed without a terminal signal
	StateTimedOut = "timed_out"
	// StateCrashed means the server hit a fatal signal or exited prematurely
	StateCrashed = "crashed"
	// StateCancelled means the caller aborted the session
	StateCancelled = "cancelled"
	// StateClosed means the result has been computed; the session is spent
	StateClosed = "closed"
)

// Session events
const (
	// EventStartDone fires once the process is launched
	EventStartDone = "start_done"
	// EventReadySeen fires on the ready marker
	EventReadySeen = "ready_seen"
	// EventFatalSeen fires on a fatal-crash marker
	EventFatalSeen = "fatal_seen"
	// EventProcessExited fires when the process ends before any terminal signal
	EventProcessExited = "process_exited"
	// EventDeadline fires when the configured deadline elapses
	EventDeadline = "deadline_elapsed"
	// EventCancel fires on an external cancel request
	EventCancel = "cancel"
	// EventClose fires after teardown, entering the final state
	EventClose = "close"
)

// newMachine builds the session state machine
func newMachine(log *zap.SugaredLogger) *fsm.FSM {
	return fsm.NewFSM(
		StateStarting,
		fsm.Events{
			{Name: EventStartDone, Src: []string{StateStarting}, Dst: StateRunning},

			{Name: EventReadySeen, Src: []string{StateRunning}, Dst: StateCompleted},
			{Name: EventFatalSeen, Src: []string{StateRunning}, Dst: StateCrashed},
			{Name: EventProcessExited, Src: []string{StateRunning}, Dst: StateCrashed},
			{Name: EventDeadline, Src: []string{StateRunning}, Dst: StateTimedOut},
			{Name: EventCancel, Src: []string{StateStarting, StateRunning}, Dst: StateCancelled},

			{Name: EventClose, Src: []string{
				StateCompleted, StateTimedOut, StateCrashed, StateCancelled,
			}, Dst: StateClosed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				log.Debugf("session %s -> %s on %s", e.Src, e.Dst, e.Event)
			},
		},
	)
}
