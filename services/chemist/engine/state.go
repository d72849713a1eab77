// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"fmt"

	"github.com/AleutianAI/AleutianChem/services/chemist/datatypes"
)

// =============================================================================
// Iteration State
// =============================================================================

// IterationState is the mutable, job-scoped record threaded through every
// cycle of one optimization run. Each job owns exactly one IterationState and
// mutates it in place; jobs share nothing, so no locking is needed.
//
// # Invariants
//
//   - Attempts increases by exactly one per designer call and never
//     decreases.
//   - History is append-only; entries are never truncated or reordered.
//   - Baseline is computed at most once and never recomputed after a
//     successful computation.
//   - Constraints only ever diverges from the request constraints by
//     similarity floor relaxations.
type IterationState struct {
	// OriginSMILES is the immutable starting molecule.
	OriginSMILES string

	// Goal is the parsed optimization goal.
	Goal Goal

	// Constraints is the live constraint set, possibly relaxed over time.
	Constraints ConstraintSet

	// Attempts counts designer calls made so far.
	Attempts int

	// MaxAttempts is the fixed attempt ceiling.
	MaxAttempts int

	// SimilarityFailures is the consecutive similarity-floor failure
	// streak.
	SimilarityFailures int

	// MaxSimilarityFailures is the streak limit that triggers relaxation.
	MaxSimilarityFailures int

	// History is the append-only event log of diagnostic strings.
	History []string

	// ProposedSMILES is the most recent sanitized candidate.
	ProposedSMILES string

	// LastProperties is the property vector of the most recent candidate.
	LastProperties datatypes.PropertyVector

	// Baseline is the cached property vector of the origin, nil until the
	// first successful computation.
	Baseline *datatypes.PropertyVector

	// MeetsConstraints is set true only by a successful terminal decision.
	MeetsConstraints bool
}

// NewIterationState builds the starting state for one optimization job.
// maxAttempts <= 0 selects the service default.
func NewIterationState(origin string, goal Goal, constraints ConstraintSet, maxAttempts int) *IterationState {
	if maxAttempts <= 0 {
		maxAttempts = datatypes.DefaultMaxAttempts
	}
	return &IterationState{
		OriginSMILES:          origin,
		Goal:                  goal,
		Constraints:           constraints,
		MaxAttempts:           maxAttempts,
		MaxSimilarityFailures: DefaultMaxSimilarityFailures,
		History:               []string{},
	}
}

// appendEvent appends one diagnostic line to the event log and returns its
// index, notifying the emit callback if one is registered.
func (st *IterationState) appendEvent(emit EmitFunc, message string, props *datatypes.ValidationRecord) int {
	index := len(st.History)
	st.History = append(st.History, message)
	if emit != nil {
		emit(StreamUpdate{
			Index:          index,
			Message:        message,
			ProposedSMILES: st.ProposedSMILES,
			Properties:     props,
		})
	}
	return index
}

// validationRecord snapshots the current candidate's properties with the
// baseline nested, for the report and for property-bearing stream events.
func (st *IterationState) validationRecord() datatypes.ValidationRecord {
	return datatypes.ValidationRecord{
		PropertyVector:   st.LastProperties,
		MeetsConstraints: st.MeetsConstraints,
		Baseline:         st.Baseline,
	}
}

// String summarizes the state for logs. Deliberately compact: the event log
// carries the detail.
func (st *IterationState) String() string {
	return fmt.Sprintf("attempts=%d/%d streak=%d/%d events=%d",
		st.Attempts, st.MaxAttempts, st.SimilarityFailures, st.MaxSimilarityFailures, len(st.History))
}
