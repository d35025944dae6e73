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

// Package classify maps dedicated server log lines to typed diagnostics
// and lifecycle signals. Classification is a pure function over an ordered
// rule table: first match wins, unmatched lines are discarded.
package classify

import (
	"regexp"
	"strings"
)

// Kind is the severity of a diagnostic
type Kind string

const (
	// KindError marks a diagnostic that fails validation by default
	KindError Kind = "error"
	// KindWarning marks a diagnostic that fails validation only under fail-on-warn
	KindWarning Kind = "warning"
)

// Signal is a lifecycle marker extracted from the log stream
type Signal int

const (
	// SignalNone means the line carries no lifecycle meaning
	SignalNone Signal = iota
	// SignalReady means the server finished loading the world and all packs
	SignalReady
	// SignalFatal means the server hit an unrecoverable startup failure
	SignalFatal
)

// Diagnostic is one classified error or warning line
type Diagnostic struct {
	// Kind is the severity
	Kind Kind
	// Message is the human-readable part of the line
	Message string
	// RawLine is the unmodified server output line
	RawLine string
	// PackHint is a pack name or UUID extracted from the line, when the
	// rule could derive one; the session resolves it to a PackReference.
	PackHint string
}

// Result of classifying a single line
type Result struct {
	// Signal is non-zero for lifecycle marker lines
	Signal Signal
	// Diagnostic is non-nil for matched error/warning lines
	Diagnostic *Diagnostic
}

// rule is one entry of the ordered classification table
type rule struct {
	pattern *regexp.Regexp
	signal  Signal
	kind    Kind
}

// readyMarker is the line the server emits once the world and all packs
// are loaded. This is the primary (and only) success signal; silence is
// never interpreted as readiness.
const readyMarker = "Server started."

// rules is evaluated top to bottom; the first matching entry decides the
// line. Patterns are built from real BDS output.
var rules = []rule{
	// Lifecycle markers first so they are never shadowed by the generic
	// severity rules below.
	{pattern: regexp.MustCompile(regexp.QuoteMeta(readyMarker)), signal: SignalReady},
	{pattern: regexp.MustCompile(`\bFATAL\b|Critical error|Segmentation fault|Aborted \(core dumped\)`), signal: SignalFatal},

	// Specific diagnostics carrying a pack hint.
	{pattern: regexp.MustCompile(`(?i)pack manifest (?:is )?invalid:?\s*(?P<pack>\S+)?`), kind: KindError},
	{pattern: regexp.MustCompile(`(?i)missing dependency(?: with ID '(?P<pack>[^']+)')?`), kind: KindError},
	{pattern: regexp.MustCompile(`(?i)failed to load pack:?\s*(?P<pack>\S+)?`), kind: KindError},
	{pattern: regexp.MustCompile(`\[Scripting\]\[error\]|(?i)scriptengine error`), kind: KindError},

	// Generic severities last.
	{pattern: regexp.MustCompile(`\bERROR\b`), kind: KindError},
	{pattern: regexp.MustCompile(`\bWARN(?:ING)?\b`), kind: KindWarning},
}

// levelPrefix strips the timestamp/level bracket BDS puts in front of the
// message, e.g. "[2024-05-01 12:00:00:000 ERROR] " or "[ERROR] ".
var levelPrefix = regexp.MustCompile(`^.*?\[[^\]]*(?:ERROR|WARN(?:ING)?|INFO)\]\s*`)

// Classify maps one output line to at most one diagnostic or lifecycle
// signal. It is deterministic and total: the same line always yields the
// same result, and lines matching no rule yield the zero Result.
func Classify(line string) Result {
	for _, r := range rules {
		match := r.pattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		if r.signal != SignalNone {
			return Result{Signal: r.signal}
		}

		diag := &Diagnostic{
			Kind:    r.kind,
			Message: extractMessage(line),
			RawLine: line,
		}
		if i := r.pattern.SubexpIndex("pack"); i >= 0 && i < len(match) {
			diag.PackHint = strings.Trim(match[i], `'"`)
		}

		return Result{Diagnostic: diag}
	}

	return Result{}
}

// extractMessage returns the line without its timestamp/level prefix
func extractMessage(line string) string {
	if loc := levelPrefix.FindStringIndex(line); loc != nil && loc[1] < len(line) {
		return strings.TrimSpace(line[loc[1]:])
	}

	return strings.TrimSpace(line)
}
