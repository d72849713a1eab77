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
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianChem/pkg/ux"
	"github.com/AleutianAI/AleutianChem/services/chemist/datatypes"
	"github.com/AleutianAI/AleutianChem/services/chemist/handlers"
)

func TestNewChemistClient_URLResolution(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		t.Setenv("CHEMIST_URL", "http://env:9000")
		client := newChemistClient("http://flag:8000/")
		if client.baseURL != "http://flag:8000" {
			t.Errorf("baseURL = %q", client.baseURL)
		}
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv("CHEMIST_URL", "http://env:9000")
		client := newChemistClient("")
		if client.baseURL != "http://env:9000" {
			t.Errorf("baseURL = %q", client.baseURL)
		}
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv("CHEMIST_URL", "")
		client := newChemistClient("")
		if client.baseURL != defaultServerURL {
			t.Errorf("baseURL = %q", client.baseURL)
		}
	})
}

func TestScore_ValidMolecule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/score" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req datatypes.ScoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.SMILES != "CCO" {
			t.Errorf("smiles = %q", req.SMILES)
		}
		json.NewEncoder(w).Encode(datatypes.ScoreResponse{Valid: true, SAScore: 1.61})
	}))
	defer server.Close()

	resp, err := newChemistClient(server.URL).Score(context.Background(), "CCO")
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if !resp.Valid || resp.SAScore != 1.61 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestScore_InvalidMoleculeIsAResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(datatypes.ScoreResponse{Valid: false, Error: "Invalid SMILES string"})
	}))
	defer server.Close()

	resp, err := newChemistClient(server.URL).Score(context.Background(), "not-a-molecule")
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if resp.Valid {
		t.Error("Valid = true for unparseable molecule")
	}
	if resp.Error != "Invalid SMILES string" {
		t.Errorf("Error = %q", resp.Error)
	}
}

func TestScore_TransportFailureIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": "descriptor service unavailable"})
	}))
	defer server.Close()

	_, err := newChemistClient(server.URL).Score(context.Background(), "CCO")
	if err == nil {
		t.Fatal("Score() returned nil error on HTTP 502")
	}
	if !strings.Contains(err.Error(), "descriptor service unavailable") {
		t.Errorf("error = %v", err)
	}
}

func TestOptimize_StreamsEndToEnd(t *testing.T) {
	report := &datatypes.FinalReport{
		Status:           datatypes.StatusSuccess,
		FinalSMILES:      "CCO",
		History:          []string{"Designer (Attempt 1): Proposed CCO"},
		Attempts:         1,
		ExecutiveSummary: "Shortened the chain.",
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req datatypes.OptimizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Goal != "Decrease LogP" {
			t.Errorf("goal = %q", req.Goal)
		}

		handlers.SetSSEHeaders(w)
		writer, err := handlers.NewSSEWriter(w)
		if err != nil {
			t.Fatalf("NewSSEWriter: %v", err)
		}
		writer.WriteThought(0, "Designer (Attempt 1): Proposed CCO", "CCO", nil)
		writer.WriteKeepAlive()
		writer.WriteThought(1, "Router: Success: All constraints met.", "CCO", nil)
		writer.WriteReport(report)
		writer.WriteStreamEnd()
	}))
	defer server.Close()

	body, err := newChemistClient(server.URL).Optimize(context.Background(), datatypes.OptimizeRequest{
		SMILES: "CCCO",
		Goal:   "Decrease LogP",
	})
	if err != nil {
		t.Fatalf("Optimize() error: %v", err)
	}
	defer body.Close()

	result, err := ux.NewStreamProcessorWithWriter(io.Discard, ux.PersonalityMachine).Process(body)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if result.Report == nil || result.Report.FinalSMILES != "CCO" {
		t.Fatalf("report = %+v", result.Report)
	}
	if result.Thoughts != 2 {
		t.Errorf("Thoughts = %d, want 2", result.Thoughts)
	}
	if result.ChainBroken {
		t.Error("ChainBroken = true for a stream written by the service writer")
	}
}

func TestOptimize_RejectedRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "mw_min 500.00 is greater than mw_max 100.00"})
	}))
	defer server.Close()

	_, err := newChemistClient(server.URL).Optimize(context.Background(), datatypes.OptimizeRequest{
		SMILES: "CCO",
		Goal:   "Decrease LogP",
	})
	if err == nil {
		t.Fatal("Optimize() returned nil error on HTTP 422")
	}
	if !strings.Contains(err.Error(), "mw_min") {
		t.Errorf("error = %v", err)
	}
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				t.Errorf("path = %q", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		}))
		defer server.Close()

		if err := newChemistClient(server.URL).Health(context.Background()); err != nil {
			t.Errorf("Health() error: %v", err)
		}
	})

	t.Run("unhealthy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		if err := newChemistClient(server.URL).Health(context.Background()); err == nil {
			t.Error("Health() returned nil error on HTTP 503")
		}
	})
}
