// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

import "time"

// PhaseMetrics is observational only: it never influences matching
// decisions. Each matcher phase accumulates its own PhaseMetrics as it
// runs.
type PhaseMetrics struct {
	// ComparisonsAttempted counts every candidate-pair similarity
	// evaluation the phase performed.
	ComparisonsAttempted int
	// CandidatesConsidered counts every candidate pair the phase looked at
	// before filtering by a threshold.
	CandidatesConsidered int
	// MappingsAdded counts the links this phase contributed to the
	// mapping store.
	MappingsAdded int
	// CharsCompared counts the total number of characters compared across
	// every label-similarity evaluation in this phase.
	CharsCompared int
}

func (m *PhaseMetrics) addComparison(chars int) {
	m.ComparisonsAttempted++
	m.CharsCompared += chars
}

// Timings records how long each phase of a diff took. Fields for phases
// that did not run (e.g. script generation when CalculateScript is false)
// are left at zero, never omitted, so a [Timings] value is always
// complete and comparable.
type Timings struct {
	Decompression     time.Duration
	Matching          map[string]time.Duration
	ScriptPreparation time.Duration
	ScriptGeneration  time.Duration
	Total             time.Duration
}

func newTimings() Timings {
	return Timings{Matching: make(map[string]time.Duration)}
}

func track(d *time.Duration) func() {
	start := time.Now()
	return func() { *d += time.Since(start) }
}

func trackPhase(m map[string]time.Duration, phase string) func() {
	start := time.Now()
	return func() { m[phase] += time.Since(start) }
}
