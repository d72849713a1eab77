// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianChem/services/chemist/datatypes"
	"github.com/AleutianAI/AleutianChem/services/llm"
)

// ============================================================================
// Test Setup
// ============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

// mockLLMClient is a minimal mock for llm.LLMClient
type mockLLMClient struct{}

func (m *mockLLMClient) Generate(_ context.Context, _ string, _ llm.GenerationParams) (string, error) {
	return "mock response", nil
}

// mockOracle is a minimal mock for engine.Oracle
type mockOracle struct{}

func (m *mockOracle) Properties(_ context.Context, _ string) (datatypes.PropertyVector, error) {
	return datatypes.PropertyVector{Valid: true}, nil
}

func (m *mockOracle) Similarity(_ context.Context, _, _ string) (float64, error) {
	return 1.0, nil
}

// ============================================================================
// SetupRoutes Tests
// ============================================================================

func TestSetupRoutes_RegistersCoreRoutes(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, &mockLLMClient{}, &mockOracle{})

	coreRoutes := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"POST", "/v1/optimize"},
		{"POST", "/v1/score"},
	}

	routes := router.Routes()
	for _, expected := range coreRoutes {
		found := false
		for _, r := range routes {
			if r.Method == expected.method && r.Path == expected.path {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected route %s %s not found", expected.method, expected.path)
		}
	}
}

func TestSetupRoutes_HealthEndpointResponds(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, &mockLLMClient{}, &mockOracle{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from /health, got %d", w.Code)
	}
}

func TestSetupRoutes_CORSHeadersAndPreflight(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, &mockLLMClient{}, &mockOracle{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("OPTIONS", "/v1/score", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected allow-all origin, got %q", got)
	}
}
