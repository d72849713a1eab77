// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine implements the optimization control loop of the chemist
// service: goal parsing, constraint bookkeeping, the per-cycle decision
// evaluator, the controller state machine, and final report assembly.
//
// The engine never talks to a model or computes chemistry itself. The
// designer (generative model) and the descriptor oracle are injected behind
// small interfaces so the whole loop is testable with deterministic fakes.
package engine

import "strings"

// =============================================================================
// Goal Model
// =============================================================================

// GoalKind discriminates the closed set of recognized goal shapes.
type GoalKind int

const (
	// GoalDirectional compares one scalar property between candidate and
	// origin with a strict inequality.
	GoalDirectional GoalKind = iota

	// GoalRingDelta requires the aromatic ring count to change by exactly
	// +1 or -1, with a non-negative result.
	GoalRingDelta

	// GoalDrugLikeness is the composite Lipinski/QED improvement criterion.
	GoalDrugLikeness

	// GoalUnstructured is the fallback for unrecognized goal text. It is
	// treated as trivially satisfied once hard constraints pass; see the
	// ParseGoal doc for why this is deliberate.
	GoalUnstructured
)

// Property names the scalar properties a directional goal can target.
type Property string

const (
	PropLogP           Property = "logp"
	PropTPSA           Property = "tpsa"
	PropMW             Property = "mw"
	PropRotatableBonds Property = "rotatable_bonds"
	PropHBD            Property = "hbd"
	PropHBA            Property = "hba"
)

// Direction is the comparison direction of a directional goal.
type Direction int

const (
	DirectionDecrease Direction = iota
	DirectionIncrease
)

// Goal is the parsed optimization goal: a tagged variant rather than raw
// text, so the evaluator dispatches on structure instead of substring
// matching.
//
// Raw always preserves the original request text for logging and for the
// unstructured fallback.
type Goal struct {
	Kind      GoalKind
	Property  Property
	Direction Direction

	// RingDelta is +1 or -1 for GoalRingDelta, 0 otherwise.
	RingDelta int

	Raw string
}

// Recognized returns false only for the unstructured fallback.
func (g Goal) Recognized() bool { return g.Kind != GoalUnstructured }

// goalPhrases maps recognized goal phrases to their structured form. The
// phrases match what the request UI sends and what earlier deployments
// accepted, so substring matching below stays compatible with both.
var goalPhrases = []struct {
	phrase string
	goal   Goal
}{
	{"Decrease LogP", Goal{Kind: GoalDirectional, Property: PropLogP, Direction: DirectionDecrease}},
	{"Increase LogP", Goal{Kind: GoalDirectional, Property: PropLogP, Direction: DirectionIncrease}},
	{"Decrease TPSA", Goal{Kind: GoalDirectional, Property: PropTPSA, Direction: DirectionDecrease}},
	{"Increase TPSA", Goal{Kind: GoalDirectional, Property: PropTPSA, Direction: DirectionIncrease}},
	{"Decrease MW", Goal{Kind: GoalDirectional, Property: PropMW, Direction: DirectionDecrease}},
	{"Increase MW", Goal{Kind: GoalDirectional, Property: PropMW, Direction: DirectionIncrease}},
	{"Add Aromatic Ring", Goal{Kind: GoalRingDelta, RingDelta: 1}},
	{"Remove Aromatic Ring", Goal{Kind: GoalRingDelta, RingDelta: -1}},
	{"Increase HBD", Goal{Kind: GoalDirectional, Property: PropHBD, Direction: DirectionIncrease}},
	{"Decrease HBD", Goal{Kind: GoalDirectional, Property: PropHBD, Direction: DirectionDecrease}},
	{"Increase HBA", Goal{Kind: GoalDirectional, Property: PropHBA, Direction: DirectionIncrease}},
	{"Decrease HBA", Goal{Kind: GoalDirectional, Property: PropHBA, Direction: DirectionDecrease}},
	{"Decrease Rotatable Bonds", Goal{Kind: GoalDirectional, Property: PropRotatableBonds, Direction: DirectionDecrease}},
	{"Increase Rotatable Bonds", Goal{Kind: GoalDirectional, Property: PropRotatableBonds, Direction: DirectionIncrease}},
	{"Improve Lipinski", Goal{Kind: GoalDrugLikeness}},
	{"Decrease Toxicity", Goal{Kind: GoalDrugLikeness}},
}

// ParseGoal parses free goal text into the closed tagged variant.
//
// Unrecognized text yields GoalUnstructured, which the evaluator treats as
// satisfied by hard constraints alone. That policy is deliberate: a request
// with a meaningless goal still produces a constraint-checked molecule
// rather than a hard error. Whether it should instead be rejected at
// request time is an open product question; the parser keeps the ambiguity
// explicit instead of hiding it in a catch-all.
func ParseGoal(text string) Goal {
	for _, entry := range goalPhrases {
		if strings.Contains(text, entry.phrase) {
			g := entry.goal
			g.Raw = text
			return g
		}
	}
	return Goal{Kind: GoalUnstructured, Raw: text}
}
