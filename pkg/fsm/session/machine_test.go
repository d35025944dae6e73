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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/yarugames/bedrockci/pkg/classify"
)

var _ = Describe("session state machine", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	DescribeTable("terminal transitions from running",
		func(event, terminal string) {
			m := newMachine(zap.NewNop().Sugar())
			Expect(m.Event(ctx, EventStartDone)).To(Succeed())
			Expect(m.Event(ctx, event)).To(Succeed())
			Expect(m.Current()).To(Equal(terminal))

			Expect(m.Event(ctx, EventClose)).To(Succeed())
			Expect(m.Current()).To(Equal(StateClosed))
		},
		Entry("ready", EventReadySeen, StateCompleted),
		Entry("fatal", EventFatalSeen, StateCrashed),
		Entry("early exit", EventProcessExited, StateCrashed),
		Entry("deadline", EventDeadline, StateTimedOut),
		Entry("cancel", EventCancel, StateCancelled),
	)

	It("starts in starting and rejects terminal events there", func() {
		m := newMachine(zap.NewNop().Sugar())
		Expect(m.Current()).To(Equal(StateStarting))
		Expect(m.Event(ctx, EventReadySeen)).NotTo(Succeed())
	})

	It("allows cancellation before the process is running", func() {
		m := newMachine(zap.NewNop().Sugar())
		Expect(m.Event(ctx, EventCancel)).To(Succeed())
		Expect(m.Current()).To(Equal(StateCancelled))
	})

	It("rejects further events once closed", func() {
		m := newMachine(zap.NewNop().Sugar())
		Expect(m.Event(ctx, EventStartDone)).To(Succeed())
		Expect(m.Event(ctx, EventReadySeen)).To(Succeed())
		Expect(m.Event(ctx, EventClose)).To(Succeed())
		Expect(m.Event(ctx, EventReadySeen)).NotTo(Succeed())
	})
})

var _ = Describe("computeResult", func() {
	errDiag := Diagnostic{Kind: classify.KindError, Message: "boom"}
	warnDiag := Diagnostic{Kind: classify.KindWarning, Message: "hmm"}

	DescribeTable("verdicts",
		func(reason TerminationReason, diagnostics []Diagnostic, policy Policy, passed bool) {
			result := computeResult(reason, diagnostics, policy)
			Expect(result.Passed).To(Equal(passed))
			Expect(result.Reason).To(Equal(reason))
		},
		Entry("clean ready run passes",
			ReasonReadyDetected, nil, Policy{}, true),
		Entry("errors fail a ready run",
			ReasonReadyDetected, []Diagnostic{errDiag}, Policy{}, false),
		Entry("warnings alone pass by default",
			ReasonReadyDetected, []Diagnostic{warnDiag}, Policy{}, true),
		Entry("warnings fail under fail-on-warn",
			ReasonReadyDetected, []Diagnostic{warnDiag}, Policy{FailOnWarn: true}, false),
		Entry("errors pass under only-warn",
			ReasonReadyDetected, []Diagnostic{errDiag}, Policy{OnlyWarn: true}, true),
		Entry("timeout fails even without diagnostics",
			ReasonTimeout, nil, Policy{}, false),
		Entry("crash fails even under only-warn",
			ReasonProcessCrashed, []Diagnostic{errDiag}, Policy{OnlyWarn: true}, false),
		Entry("cancellation never passes",
			ReasonCancelled, nil, Policy{}, false),
	)

	It("rewrites demoted diagnostics in the returned result", func() {
		result := computeResult(ReasonReadyDetected, []Diagnostic{errDiag, warnDiag}, Policy{OnlyWarn: true})
		Expect(result.Errors()).To(BeEmpty())
		Expect(result.Warnings()).To(HaveLen(2))
	})

	It("does not mutate the caller's diagnostics", func() {
		diags := []Diagnostic{errDiag}
		_ = computeResult(ReasonReadyDetected, diags, Policy{OnlyWarn: true})
		Expect(diags[0].Kind).To(Equal(classify.KindError))
	})
})
