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
// Decision
// =============================================================================

// DecisionTag is the per-cycle verdict.
type DecisionTag int

const (
	// DecisionRetry sends the controller back to the designing step.
	DecisionRetry DecisionTag = iota

	// DecisionSuccess terminates the run with a winning candidate.
	DecisionSuccess

	// DecisionFailure terminates the run without one (budget exhausted).
	DecisionFailure
)

// Decision is the evaluator's verdict for one cycle. Constraints and
// SimilarityFailures are the updated values the controller must apply to the
// iteration state before the next cycle; the evaluator itself mutates
// nothing.
type Decision struct {
	Tag                DecisionTag
	Constraints        ConstraintSet
	SimilarityFailures int
	Diagnostic         string
}

// Terminal reports whether the decision ends the run.
func (d Decision) Terminal() bool { return d.Tag != DecisionRetry }

// =============================================================================
// Evaluator Input
// =============================================================================

// EvalInput is everything Evaluate needs for one cycle. It is a plain value:
// two identical inputs always produce identical decisions, which is what
// makes the evaluator testable without a designer or an oracle.
type EvalInput struct {
	// Candidate is the property vector of the proposed molecule, similarity
	// populated when a reference was available.
	Candidate datatypes.PropertyVector

	// Baseline is the cached origin vector; nil when the first computation
	// has not succeeded yet.
	Baseline *datatypes.PropertyVector

	Constraints ConstraintSet
	Goal        Goal

	Attempts    int
	MaxAttempts int

	SimilarityFailures    int
	MaxSimilarityFailures int
}

// =============================================================================
// Evaluate
// =============================================================================

// Evaluate runs the ordered check chain for one cycle and produces a
// Decision. Checks short-circuit: the first failing check decides the cycle.
//
// The order is load-bearing and must not change:
//
//  1. Attempt budget. Overrides everything, including an otherwise winning
//     candidate: once the ceiling is reached the run fails, full stop.
//  2. Candidate validity. Not a similarity failure; the streak is untouched.
//  3. Similarity floor, with the adaptive relaxation bookkeeping. When the
//     floor check does not fail (disabled floor included) the streak resets
//     to zero before the remaining checks run, regardless of their outcome.
//  4. Molecular weight window.
//  5. Synthetic accessibility ceiling.
//  6. Goal comparison against the baseline.
//
// A fault inside any check (missing baseline, absent property) converts to
// DecisionRetry with an error diagnostic. Faults never terminate the run;
// the attempt budget is the single backstop bounding every retry source.
func Evaluate(in EvalInput) Decision {
	// 1. Attempt budget.
	if in.Attempts >= in.MaxAttempts {
		return Decision{
			Tag:                DecisionFailure,
			Constraints:        in.Constraints,
			SimilarityFailures: in.SimilarityFailures,
			Diagnostic:         "Failure: Max attempts reached.",
		}
	}

	// 2. Candidate validity.
	if !in.Candidate.Valid {
		return Decision{
			Tag:                DecisionRetry,
			Constraints:        in.Constraints,
			SimilarityFailures: in.SimilarityFailures,
			Diagnostic:         "Invalid SMILES. Retrying.",
		}
	}

	// 3. Similarity floor.
	streak := in.SimilarityFailures
	constraints := in.Constraints
	if constraints.SimilarityEnabled {
		// A candidate without a computed similarity passes the floor:
		// the check cannot condemn what it could not measure.
		similarity := 1.0
		if in.Candidate.Similarity != nil {
			similarity = *in.Candidate.Similarity
		}
		if similarity < constraints.SimilarityFloor {
			streak++
			if streak >= in.MaxSimilarityFailures {
				relaxed := constraints.RelaxSimilarity()
				diag := fmt.Sprintf(
					"Hit max similarity failures (%d). Temporarily reducing target minimum similarity from %.2f to %.2f to encourage exploration.",
					in.MaxSimilarityFailures, constraints.SimilarityFloor, relaxed.SimilarityFloor)
				return Decision{
					Tag:                DecisionRetry,
					Constraints:        relaxed,
					SimilarityFailures: 0,
					Diagnostic:         diag,
				}
			}
			return Decision{
				Tag:                DecisionRetry,
				Constraints:        constraints,
				SimilarityFailures: streak,
				Diagnostic: fmt.Sprintf("Similarity %.4f is below threshold %.2f. Retrying.",
					similarity, constraints.SimilarityFloor),
			}
		}
	}
	// The floor did not fail this cycle. The streak resets here,
	// unconditionally, even if a later check fails.
	streak = 0

	// 4. Molecular weight window.
	if in.Candidate.MW < constraints.MWMin || in.Candidate.MW > constraints.MWMax {
		return Decision{
			Tag:                DecisionRetry,
			Constraints:        constraints,
			SimilarityFailures: streak,
			Diagnostic: fmt.Sprintf("MW %.2f is outside allowed range (%.0f-%.0f). Retrying.",
				in.Candidate.MW, constraints.MWMin, constraints.MWMax),
		}
	}

	// 5. Synthetic accessibility ceiling.
	if constraints.SAEnabled && in.Candidate.SAScore > constraints.SAMax {
		return Decision{
			Tag:                DecisionRetry,
			Constraints:        constraints,
			SimilarityFailures: streak,
			Diagnostic: fmt.Sprintf("SA score %.2f exceeds ceiling %.2f. Retrying.",
				in.Candidate.SAScore, constraints.SAMax),
		}
	}

	// 6. Goal comparison.
	met, failDiag, err := checkGoal(in.Goal, in.Candidate, in.Baseline)
	if err != nil {
		return Decision{
			Tag:                DecisionRetry,
			Constraints:        constraints,
			SimilarityFailures: streak,
			Diagnostic:         fmt.Sprintf("Error during goal check: %v. Retrying.", err),
		}
	}
	if !met {
		return Decision{
			Tag:                DecisionRetry,
			Constraints:        constraints,
			SimilarityFailures: streak,
			Diagnostic:         fmt.Sprintf("Goal not met. %s Retrying.", failDiag),
		}
	}

	return Decision{
		Tag:                DecisionSuccess,
		Constraints:        constraints,
		SimilarityFailures: streak,
		Diagnostic:         "All constraints and goals met. Proceeding to final synthesis.",
	}
}

// =============================================================================
// Goal Checks
// =============================================================================

// checkGoal evaluates the goal criterion. A nil error with met=false means
// the goal genuinely failed (failDiag names both values); a non-nil error
// means the check could not be evaluated at all.
func checkGoal(goal Goal, candidate datatypes.PropertyVector, baseline *datatypes.PropertyVector) (met bool, failDiag string, err error) {
	if goal.Kind == GoalUnstructured {
		// Unrecognized goals are satisfied by hard constraints alone.
		return true, "", nil
	}
	if baseline == nil || !baseline.Valid {
		return false, "", fmt.Errorf("baseline properties unavailable")
	}

	switch goal.Kind {
	case GoalDirectional:
		newVal, err := scalarProperty(candidate, goal.Property)
		if err != nil {
			return false, "", err
		}
		origVal, err := scalarProperty(*baseline, goal.Property)
		if err != nil {
			return false, "", err
		}
		if goal.Direction == DirectionDecrease {
			if newVal < origVal {
				return true, "", nil
			}
			return false, fmt.Sprintf("New %s %.4f is not less than original %.4f.",
				goal.Property, newVal, origVal), nil
		}
		if newVal > origVal {
			return true, "", nil
		}
		return false, fmt.Sprintf("New %s %.4f is not greater than original %.4f.",
			goal.Property, newVal, origVal), nil

	case GoalRingDelta:
		origRings := baseline.AromaticRings
		newRings := candidate.AromaticRings
		if newRings == origRings+goal.RingDelta && newRings >= 0 {
			return true, "", nil
		}
		relation := "one more"
		if goal.RingDelta < 0 {
			relation = "one less"
		}
		return false, fmt.Sprintf("New aromatic ring count %d is not %s than original %d.",
			newRings, relation, origRings), nil

	case GoalDrugLikeness:
		violationsImproved := candidate.LipinskiViolations < baseline.LipinskiViolations
		qedImproved := candidate.QED > baseline.QED
		alreadyGood := candidate.QED > 0.9 && candidate.LipinskiViolations <= 1
		if violationsImproved || qedImproved || alreadyGood {
			return true, "", nil
		}
		return false, fmt.Sprintf(
			"Lipinski violations (%d) did not decrease from original (%d). QED score (%.4f) did not improve from original (%.4f).",
			candidate.LipinskiViolations, baseline.LipinskiViolations, candidate.QED, baseline.QED), nil

	default:
		return false, "", fmt.Errorf("unhandled goal kind %d", goal.Kind)
	}
}

// scalarProperty extracts the named scalar from a property vector. Integer
// counts are widened to float64 for uniform comparison.
func scalarProperty(v datatypes.PropertyVector, p Property) (float64, error) {
	switch p {
	case PropLogP:
		return v.LogP, nil
	case PropTPSA:
		return v.TPSA, nil
	case PropMW:
		return v.MW, nil
	case PropRotatableBonds:
		return float64(v.RotatableBonds), nil
	case PropHBD:
		return float64(v.HBD), nil
	case PropHBA:
		return float64(v.HBA), nil
	default:
		return 0, fmt.Errorf("unknown property %q", p)
	}
}
