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

import "github.com/AleutianAI/AleutianChem/services/chemist/datatypes"

// =============================================================================
// Constraint Sentinels
// =============================================================================

const (
	// UnconstrainedMWMin and UnconstrainedMWMax are the weight window
	// sentinels substituted when the request leaves the window open.
	UnconstrainedMWMin = 0.0
	UnconstrainedMWMax = 9999.0

	// UnconstrainedSAMax is the synthetic accessibility ceiling sentinel
	// (the maximum of the SA scale, so every molecule passes).
	UnconstrainedSAMax = 10.0

	// SimilarityFloorMin is the absolute minimum the similarity floor can
	// be relaxed to, no matter how many relaxations accumulate.
	SimilarityFloorMin = 0.4

	// SimilarityRelaxStep is the fixed decrement applied to the similarity
	// floor when the failure streak hits its limit.
	SimilarityRelaxStep = 0.1

	// DefaultMaxSimilarityFailures is the streak limit that triggers a
	// relaxation.
	DefaultMaxSimilarityFailures = 4
)

// =============================================================================
// Constraint Set
// =============================================================================

// ConstraintSet is the live set of hard numeric bounds for one job. It is a
// plain value: the controller copies the request constraints in at job start
// and replaces the live copy whenever a decision relaxes the floor.
//
// Only the similarity floor is ever mutated after job start, only downward,
// and never below SimilarityFloorMin. The weight window and SA ceiling are
// fixed for the life of the job.
type ConstraintSet struct {
	// SimilarityEnabled gates the similarity floor check. The floor value
	// is meaningless when disabled.
	SimilarityEnabled bool
	SimilarityFloor   float64

	// MWMin and MWMax always hold a usable window; unconstrained requests
	// get the sentinels, which pass every plausible molecule.
	MWMin float64
	MWMax float64

	// SAEnabled gates the synthetic accessibility ceiling check.
	SAEnabled bool
	SAMax     float64
}

// ConstraintsFromPayload resolves the wire payload into a full constraint
// set, substituting the documented sentinels for absent bounds.
func ConstraintsFromPayload(p datatypes.ConstraintsPayload) ConstraintSet {
	cs := ConstraintSet{
		MWMin: UnconstrainedMWMin,
		MWMax: UnconstrainedMWMax,
		SAMax: UnconstrainedSAMax,
	}
	if p.Similarity != nil {
		cs.SimilarityEnabled = true
		cs.SimilarityFloor = *p.Similarity
	}
	if p.MWMin != nil {
		cs.MWMin = *p.MWMin
	}
	if p.MWMax != nil {
		cs.MWMax = *p.MWMax
	}
	if p.SAMax != nil {
		cs.SAEnabled = true
		cs.SAMax = *p.SAMax
	}
	return cs
}

// RelaxSimilarity returns a copy with the similarity floor lowered by one
// step, clamped at SimilarityFloorMin. It never raises the floor: calling it
// on an already-clamped set returns the set unchanged.
func (c ConstraintSet) RelaxSimilarity() ConstraintSet {
	relaxed := c
	relaxed.SimilarityFloor = c.SimilarityFloor - SimilarityRelaxStep
	if relaxed.SimilarityFloor < SimilarityFloorMin {
		relaxed.SimilarityFloor = SimilarityFloorMin
	}
	if relaxed.SimilarityFloor > c.SimilarityFloor {
		relaxed.SimilarityFloor = c.SimilarityFloor
	}
	return relaxed
}
