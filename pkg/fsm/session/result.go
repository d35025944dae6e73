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
	"github.com/yarugames/bedrockci/pkg/classify"
	"github.com/yarugames/bedrockci/pkg/pack"
)

// TerminationReason explains how a session reached its terminal state
type TerminationReason string

const (
	// ReasonReadyDetected means the server reported ready
	ReasonReadyDetected TerminationReason = "ready_detected"
	// ReasonTimeout means the deadline elapsed first
	ReasonTimeout TerminationReason = "timeout"
	// ReasonProcessCrashed means the server crashed or exited prematurely
	ReasonProcessCrashed TerminationReason = "process_crashed"
	// ReasonCancelled means the caller aborted the session
	ReasonCancelled TerminationReason = "cancelled"
)

// Diagnostic is one classified finding attributed, where possible, to a pack
type Diagnostic struct {
	// Kind is the (possibly demoted) severity
	Kind classify.Kind
	// SourcePack is the originating pack, when derivable from the line
	SourcePack *pack.Reference
	// Message is the human-readable finding
	Message string
	// RawLine is the unmodified server output line
	RawLine string
}

// Policy controls verdict computation
type Policy struct {
	// OnlyWarn demotes every error diagnostic to a warning
	OnlyWarn bool
	// FailOnWarn fails the run when any warning remains
	FailOnWarn bool
}

// Result is the outcome of one validation session, produced exactly once
// after the server process has fully stopped.
type Result struct {
	// Passed is the verdict
	Passed bool
	// Diagnostics in server output order, with demotion already applied
	Diagnostics []Diagnostic
	// Reason is the terminal condition that ended the run
	Reason TerminationReason
}

// Errors returns the error diagnostics
func (r *Result) Errors() []Diagnostic {
	return r.byKind(classify.KindError)
}

// Warnings returns the warning diagnostics
func (r *Result) Warnings() []Diagnostic {
	return r.byKind(classify.KindWarning)
}

func (r *Result) byKind(kind classify.Kind) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			out = append(out, d)
		}
	}

	return out
}

// computeResult applies the policy to the collected diagnostics.
// Demotion under OnlyWarn is applied to the returned diagnostics too, so
// downstream reporting matches the verdict.
func computeResult(reason TerminationReason, diagnostics []Diagnostic, policy Policy) *Result {
	out := make([]Diagnostic, len(diagnostics))
	copy(out, diagnostics)

	if policy.OnlyWarn {
		for i := range out {
			if out[i].Kind == classify.KindError {
				out[i].Kind = classify.KindWarning
			}
		}
	}

	result := &Result{
		Diagnostics: out,
		Reason:      reason,
	}

	// A server that crashed, hung, or was cancelled failed regardless of
	// what it logged; startup itself is the thing under test.
	if reason != ReasonReadyDetected {
		return result
	}

	errors := 0
	warnings := 0
	for _, d := range out {
		switch d.Kind {
		case classify.KindError:
			errors++
		case classify.KindWarning:
			warnings++
		}
	}

	result.Passed = errors == 0 && !(policy.FailOnWarn && warnings > 0)

	return result
}
