// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func validOptimizeRequest() OptimizeRequest {
	return OptimizeRequest{
		SMILES: "c1ccccc1O",
		Goal:   "Decrease LogP",
	}
}

// =============================================================================
// OptimizeRequest Validation
// =============================================================================

func TestOptimizeRequest_ValidMinimal(t *testing.T) {
	req := validOptimizeRequest()
	assert.NoError(t, req.Validate())
}

func TestOptimizeRequest_ValidFull(t *testing.T) {
	req := validOptimizeRequest()
	req.Constraints = ConstraintsPayload{
		Similarity: f(0.7),
		MWMin:      f(150.0),
		MWMax:      f(450.0),
		SAMax:      f(5.0),
	}
	req.MaxAttempts = 10
	req.Annotate = true

	assert.NoError(t, req.Validate())
}

func TestOptimizeRequest_RequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*OptimizeRequest)
	}{
		{"missing smiles", func(r *OptimizeRequest) { r.SMILES = "" }},
		{"missing goal", func(r *OptimizeRequest) { r.Goal = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validOptimizeRequest()
			tt.mutate(&req)
			assert.Error(t, req.Validate())
		})
	}
}

func TestOptimizeRequest_SMILESByteCap(t *testing.T) {
	req := validOptimizeRequest()
	req.SMILES = strings.Repeat("C", MaxSMILESBytes)
	assert.NoError(t, req.Validate())

	req.SMILES = strings.Repeat("C", MaxSMILESBytes+1)
	assert.Error(t, req.Validate())
}

func TestOptimizeRequest_ConstraintBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*OptimizeRequest)
		valid  bool
	}{
		{"similarity at one", func(r *OptimizeRequest) { r.Constraints.Similarity = f(1.0) }, true},
		{"similarity above one", func(r *OptimizeRequest) { r.Constraints.Similarity = f(1.1) }, false},
		{"similarity negative", func(r *OptimizeRequest) { r.Constraints.Similarity = f(-0.1) }, false},
		{"sa at scale top", func(r *OptimizeRequest) { r.Constraints.SAMax = f(10.0) }, true},
		{"sa above scale", func(r *OptimizeRequest) { r.Constraints.SAMax = f(10.5) }, false},
		{"sa below scale", func(r *OptimizeRequest) { r.Constraints.SAMax = f(0.5) }, false},
		{"negative mw min", func(r *OptimizeRequest) { r.Constraints.MWMin = f(-10.0) }, false},
		{"max attempts at cap", func(r *OptimizeRequest) { r.MaxAttempts = MaxMaxAttempts }, true},
		{"max attempts above cap", func(r *OptimizeRequest) { r.MaxAttempts = MaxMaxAttempts + 1 }, false},
		{"max attempts zero is default", func(r *OptimizeRequest) { r.MaxAttempts = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validOptimizeRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestOptimizeRequest_InvertedWeightWindow(t *testing.T) {
	req := validOptimizeRequest()
	req.Constraints.MWMin = f(500.0)
	req.Constraints.MWMax = f(300.0)

	err := req.Validate()
	require.Error(t, err)

	var windowErr *ConstraintWindowError
	require.True(t, errors.As(err, &windowErr))
	assert.InDelta(t, 500.0, windowErr.Min, 1e-9)
	assert.InDelta(t, 300.0, windowErr.Max, 1e-9)
	assert.Contains(t, windowErr.Error(), "mw_min")
}

func TestOptimizeRequest_EqualWindowBoundsAllowed(t *testing.T) {
	req := validOptimizeRequest()
	req.Constraints.MWMin = f(300.0)
	req.Constraints.MWMax = f(300.0)

	assert.NoError(t, req.Validate())
}

// =============================================================================
// ScoreRequest Validation
// =============================================================================

func TestScoreRequest_Validate(t *testing.T) {
	assert.NoError(t, (&ScoreRequest{SMILES: "CCO"}).Validate())
	assert.Error(t, (&ScoreRequest{}).Validate())
	assert.Error(t, (&ScoreRequest{SMILES: strings.Repeat("C", MaxSMILESBytes+1)}).Validate())
}

// =============================================================================
// Wire Shapes
// =============================================================================

func TestPropertyVector_JSONFieldNames(t *testing.T) {
	sim := 0.85
	v := PropertyVector{Valid: true, LogP: 1.2, Similarity: &sim}

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Contains(t, m, "is_valid")
	assert.Contains(t, m, "logp")
	assert.Contains(t, m, "similarity")
	assert.Contains(t, m, "lipinski_violations")
}

func TestValidationRecord_NestsBaselineAsOriginalProps(t *testing.T) {
	rec := ValidationRecord{
		PropertyVector:   PropertyVector{Valid: true},
		MeetsConstraints: true,
		Baseline:         &PropertyVector{Valid: true, MW: 94.11},
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"original_props"`)
	assert.Contains(t, string(data), `"meets_constraints":true`)
}

func TestFinalReport_JSONFieldNames(t *testing.T) {
	r := FinalReport{
		Status:           StatusSuccess,
		FinalSMILES:      "CCO",
		History:          []string{"one"},
		Attempts:         1,
		ExecutiveSummary: "done",
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"final_smiles":"CCO"`)
	assert.Contains(t, string(data), `"executive_summary":"done"`)
}
