// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/AleutianAI/AleutianChem/services/chemist/datatypes"
	"github.com/AleutianAI/AleutianChem/services/chemist/handlers"
)

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write scenario file: %v", err)
	}
	return path
}

func TestLoadScenarios_FullFile(t *testing.T) {
	path := writeScenarioFile(t, `
defaults:
  goal: Decrease LogP
  max_attempts: 10
  constraints:
    similarity: 0.6
scenarios:
  - name: aspirin
    smiles: CC(=O)OC1=CC=CC=C1C(=O)O
  - name: ibuprofen
    smiles: CC(C)CC1=CC=C(C=C1)C(C)C(=O)O
    goal: Increase Solubility
    max_attempts: 3
    constraints:
      similarity: 0.8
      mw_max: 400
`)

	scenarios, err := loadScenarios(path)
	if err != nil {
		t.Fatalf("loadScenarios() error: %v", err)
	}
	if len(scenarios) != 2 {
		t.Fatalf("len = %d, want 2", len(scenarios))
	}

	// Defaults fill the first scenario
	if scenarios[0].Goal != "Decrease LogP" {
		t.Errorf("goal = %q", scenarios[0].Goal)
	}
	if scenarios[0].MaxAttempts != 10 {
		t.Errorf("max_attempts = %d", scenarios[0].MaxAttempts)
	}
	if scenarios[0].Constraints.Similarity == nil || *scenarios[0].Constraints.Similarity != 0.6 {
		t.Errorf("similarity = %v", scenarios[0].Constraints.Similarity)
	}

	// Explicit fields win over defaults
	if scenarios[1].Goal != "Increase Solubility" {
		t.Errorf("goal = %q", scenarios[1].Goal)
	}
	if scenarios[1].MaxAttempts != 3 {
		t.Errorf("max_attempts = %d", scenarios[1].MaxAttempts)
	}
	if *scenarios[1].Constraints.Similarity != 0.8 {
		t.Errorf("similarity = %v", *scenarios[1].Constraints.Similarity)
	}
	if scenarios[1].Constraints.MWMax == nil || *scenarios[1].Constraints.MWMax != 400 {
		t.Errorf("mw_max = %v", scenarios[1].Constraints.MWMax)
	}
}

func TestLoadScenarios_NamesScenariosWithoutNames(t *testing.T) {
	path := writeScenarioFile(t, `
scenarios:
  - smiles: CCO
    goal: Decrease LogP
`)

	scenarios, err := loadScenarios(path)
	if err != nil {
		t.Fatalf("loadScenarios() error: %v", err)
	}
	if scenarios[0].Name != "scenario-1" {
		t.Errorf("name = %q", scenarios[0].Name)
	}
}

func TestLoadScenarios_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "empty file",
			content: "scenarios: []",
			wantErr: "no scenarios",
		},
		{
			name: "missing smiles",
			content: `
scenarios:
  - name: broken
    goal: Decrease LogP
`,
			wantErr: "missing a smiles",
		},
		{
			name: "missing goal with no default",
			content: `
scenarios:
  - name: broken
    smiles: CCO
`,
			wantErr: "missing a goal",
		},
		{
			name: "garbage smiles",
			content: `
scenarios:
  - name: broken
    smiles: "CC O; rm -rf /"
    goal: Decrease LogP
`,
			wantErr: "invalid SMILES",
		},
		{
			name:    "invalid yaml",
			content: "scenarios: [{{",
			wantErr: "parse scenario file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadScenarios(writeScenarioFile(t, tt.content))
			if err == nil {
				t.Fatal("loadScenarios() returned nil error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadScenarios_MissingFile(t *testing.T) {
	_, err := loadScenarios(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("loadScenarios() returned nil error for missing file")
	}
}

func TestScenario_Request(t *testing.T) {
	similarity := 0.7
	s := Scenario{
		Name:        "test",
		SMILES:      "CCO",
		Goal:        "Decrease LogP",
		Constraints: ScenarioConstraints{Similarity: &similarity},
		MaxAttempts: 7,
		Annotate:    true,
	}

	req := s.request()
	if req.SMILES != "CCO" || req.Goal != "Decrease LogP" {
		t.Errorf("req = %+v", req)
	}
	if req.Constraints.Similarity == nil || *req.Constraints.Similarity != 0.7 {
		t.Errorf("similarity = %v", req.Constraints.Similarity)
	}
	if req.MaxAttempts != 7 || !req.Annotate {
		t.Errorf("req = %+v", req)
	}
}

func TestRunScenarios_KeepsOrderAndIsolatesFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req datatypes.OptimizeRequest
		json.NewDecoder(r.Body).Decode(&req)

		// One scenario is rejected outright
		if req.SMILES == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "validation failed"})
			return
		}

		handlers.SetSSEHeaders(w)
		writer, err := handlers.NewSSEWriter(w)
		if err != nil {
			t.Fatalf("NewSSEWriter: %v", err)
		}
		writer.WriteThought(0, "Designer (Attempt 1): Proposed "+req.SMILES, req.SMILES, nil)
		writer.WriteReport(&datatypes.FinalReport{
			Status:      datatypes.StatusSuccess,
			FinalSMILES: req.SMILES,
			Attempts:    1,
		})
		writer.WriteStreamEnd()
	}))
	defer server.Close()

	scenarios := []Scenario{
		{Name: "one", SMILES: "CCO", Goal: "Decrease LogP"},
		{Name: "two", SMILES: "bad", Goal: "Decrease LogP"},
		{Name: "three", SMILES: "CCN", Goal: "Decrease LogP"},
	}

	results := runScenarios(context.Background(), newChemistClient(server.URL), scenarios, 2)

	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if results[0].scenario.Name != "one" || results[2].scenario.Name != "three" {
		t.Error("results out of order")
	}
	if results[0].err != nil || results[0].report.FinalSMILES != "CCO" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].err == nil {
		t.Error("results[1].err = nil, want rejection")
	}
	if results[2].err != nil || results[2].report.FinalSMILES != "CCN" {
		t.Errorf("results[2] = %+v", results[2])
	}
}
