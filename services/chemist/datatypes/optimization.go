// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides request, response, and property types for the
// chemist service.
//
// This file contains the optimization request surface: the incoming job
// description (origin molecule, goal, hard constraints) and the property
// vector shape shared between the descriptor oracle and the engine.
package datatypes

import (
	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxSMILESBytes is the maximum accepted length of a SMILES string.
	// Real drug-like molecules encode well under 1KB; anything larger is
	// either garbage or an attempted memory exhaustion payload.
	MaxSMILESBytes = 4 * 1024

	// MaxGoalBytes caps the free-text goal field.
	MaxGoalBytes = 2 * 1024

	// DefaultMaxAttempts is the attempt ceiling applied when a request does
	// not specify one.
	DefaultMaxAttempts = 5

	// MaxMaxAttempts bounds caller-supplied attempt ceilings. Every attempt
	// is at least one model inference, so this is a cost control as much as
	// a sanity check.
	MaxMaxAttempts = 25
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// optimizeValidate is the validator instance for optimization datatypes.
var optimizeValidate *validator.Validate

func init() {
	optimizeValidate = validator.New()
	_ = optimizeValidate.RegisterValidation("smilesbytes", validateSMILESBytes)
}

// validateSMILESBytes checks byte length (not rune count) so multi-byte
// payloads cannot dodge the cap.
func validateSMILESBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxSMILESBytes
}

// =============================================================================
// Request Types
// =============================================================================

// ConstraintsPayload carries the hard numeric bounds of an optimization
// request. Every field is optional; a nil field means the bound is
// unconstrained and the engine substitutes its documented sentinel
// (MW [0, 9999], SA ceiling 10, similarity floor 0).
type ConstraintsPayload struct {
	// Similarity is the minimum Tanimoto similarity to the origin, in [0,1].
	Similarity *float64 `json:"similarity,omitempty" validate:"omitempty,gte=0,lte=1"`

	// MWMin and MWMax bound the molecular weight window in Daltons.
	MWMin *float64 `json:"mw_min,omitempty" validate:"omitempty,gte=0"`
	MWMax *float64 `json:"mw_max,omitempty" validate:"omitempty,gte=0"`

	// SAMax is the maximum synthetic accessibility score (1 = trivial,
	// 10 = infeasible).
	SAMax *float64 `json:"sa_max,omitempty" validate:"omitempty,gte=1,lte=10"`
}

// OptimizeRequest is the body of POST /v1/optimize.
//
// # Fields
//
//   - SMILES: Required. The origin molecule the search starts from.
//   - Goal: Required. Free text; recognized phrases ("Decrease LogP",
//     "Add Aromatic Ring", ...) are parsed into a structured goal, anything
//     else falls back to the unstructured variant and is satisfied by hard
//     constraints alone.
//   - Constraints: Optional hard bounds, see ConstraintsPayload.
//   - MaxAttempts: Optional attempt ceiling override (1-25, default 5).
//   - Annotate: Optional. When true, the service asks the narrator model for
//     a one-paragraph critique of each validated candidate and appends it to
//     the event log. Doubles inference cost per cycle; off by default.
type OptimizeRequest struct {
	SMILES      string             `json:"smiles" validate:"required,smilesbytes"`
	Goal        string             `json:"goal" validate:"required,max=2048"`
	Constraints ConstraintsPayload `json:"constraints"`
	MaxAttempts int                `json:"max_attempts,omitempty" validate:"omitempty,gte=1,lte=25"`
	Annotate    bool               `json:"annotate,omitempty"`
}

// Validate runs struct validation plus the cross-field checks the validator
// tags cannot express.
func (r *OptimizeRequest) Validate() error {
	if err := optimizeValidate.Struct(r); err != nil {
		return err
	}
	if r.Constraints.MWMin != nil && r.Constraints.MWMax != nil &&
		*r.Constraints.MWMin > *r.Constraints.MWMax {
		return &ConstraintWindowError{Min: *r.Constraints.MWMin, Max: *r.Constraints.MWMax}
	}
	return nil
}

// ScoreRequest is the body of POST /v1/score.
type ScoreRequest struct {
	SMILES string `json:"smiles" validate:"required,smilesbytes"`
}

// Validate runs struct validation on the score request.
func (r *ScoreRequest) Validate() error {
	return optimizeValidate.Struct(r)
}

// =============================================================================
// Property Types
// =============================================================================

// PropertyVector is the descriptor oracle's fixed-shape output for one
// molecule. When Valid is false no other field is populated.
//
// Similarity is only present when the vector was computed against a
// reference molecule.
type PropertyVector struct {
	Valid              bool     `json:"is_valid"`
	LogP               float64  `json:"logp"`
	TPSA               float64  `json:"tpsa"`
	MW                 float64  `json:"mw"`
	AromaticRings      int      `json:"aromatic_rings"`
	HBD                int      `json:"hbd"`
	HBA                int      `json:"hba"`
	RotatableBonds     int      `json:"rotatable_bonds"`
	LipinskiViolations int      `json:"lipinski_violations"`
	QED                float64  `json:"qed"`
	SAScore            float64  `json:"sa_score"`
	Similarity         *float64 `json:"similarity,omitempty"`
}

// ScoreResponse is the body returned by POST /v1/score.
type ScoreResponse struct {
	Valid   bool    `json:"valid"`
	SAScore float64 `json:"sa_score,omitempty"`
	Error   string  `json:"error,omitempty"`
}
