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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianChem/services/chemist/datatypes"
)

const defaultServerURL = "http://localhost:8000"

// chemistClient is a thin HTTP client for the chemist service.
//
// Optimization streams have no overall deadline; a run is bounded by the
// service's attempt ceiling, not by wall clock. Unary endpoints use a
// short per-request timeout.
type chemistClient struct {
	baseURL    string
	streamHTTP *http.Client
	unaryHTTP  *http.Client
}

// newChemistClient resolves the base URL from the --server flag, the
// CHEMIST_URL environment variable, or the local default, in that order.
func newChemistClient(flagURL string) *chemistClient {
	baseURL := flagURL
	if baseURL == "" {
		baseURL = os.Getenv("CHEMIST_URL")
	}
	if baseURL == "" {
		baseURL = defaultServerURL
	}
	return &chemistClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		streamHTTP: &http.Client{},
		unaryHTTP:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Optimize submits an optimization job and returns the raw SSE body.
//
// The caller owns the returned ReadCloser and must close it.
func (c *chemistClient) Optimize(ctx context.Context, req datatypes.OptimizeRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/optimize", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamHTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call chemist service: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp.Body, nil
}

// Score asks the service for validity and synthetic accessibility.
//
// A 422 response means the molecule could not be parsed; that is a result,
// not a transport error, so it is returned as a ScoreResponse.
func (c *chemistClient) Score(ctx context.Context, smiles string) (*datatypes.ScoreResponse, error) {
	payload, err := json.Marshal(datatypes.ScoreRequest{SMILES: smiles})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/score", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.unaryHTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call chemist service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnprocessableEntity {
		return nil, decodeAPIError(resp)
	}

	var scoreResp datatypes.ScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&scoreResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &scoreResp, nil
}

// Health checks the service liveness endpoint.
func (c *chemistClient) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.unaryHTTP.Do(httpReq)
	if err != nil {
		return fmt.Errorf("call chemist service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service unhealthy (HTTP %d)", resp.StatusCode)
	}
	return nil
}

// decodeAPIError turns a non-streaming error response into a readable error.
func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))

	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("chemist service rejected the request (HTTP %d): %s",
			resp.StatusCode, apiErr.Error)
	}
	return fmt.Errorf("chemist service returned HTTP %d: %s",
		resp.StatusCode, strings.TrimSpace(string(body)))
}
