// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package descriptor provides the molecular property oracle backed by the
// RDKit sidecar. The sidecar owns all cheminformatics (parsing, descriptors,
// fingerprints); this package is a thin typed HTTP client over it.
//
// The client is total on candidate text: a molecule the sidecar cannot parse
// comes back as a PropertyVector with Valid=false and a nil error. Errors are
// reserved for transport faults (sidecar unreachable, timeout, malformed
// response), which callers treat as retryable.
package descriptor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianChem/services/chemist/datatypes"
)

var tracer = otel.Tracer("aleutianchem.descriptor.rdkit")

// defaultTimeout bounds a single descriptor call. Property computation on a
// drug-like molecule is milliseconds; anything near this limit is a stuck
// sidecar.
const defaultTimeout = 30 * time.Second

// RDKitClient computes molecular properties and Tanimoto similarity by
// calling the RDKit descriptor sidecar.
type RDKitClient struct {
	httpClient *http.Client
	baseURL    string
}

type propertiesRequest struct {
	SMILES string `json:"smiles"`
}

type similarityRequest struct {
	SMILES    string `json:"smiles"`
	Reference string `json:"reference"`
}

type similarityResponse struct {
	Similarity float64 `json:"similarity"`
}

type sidecarError struct {
	Error string `json:"error"`
}

// NewRDKitClient builds a client for the sidecar at CHEM_DESCRIPTOR_URL.
func NewRDKitClient() (*RDKitClient, error) {
	baseURL := os.Getenv("CHEM_DESCRIPTOR_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("CHEM_DESCRIPTOR_URL environment variable not set")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	slog.Info("Initializing RDKit descriptor client", "base_url", baseURL)
	return &RDKitClient{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
	}, nil
}

// Properties computes the descriptor vector for one molecule.
//
// # Description
//
// Posts the SMILES to the sidecar's /properties endpoint. A 200 carries the
// full PropertyVector. A 422 means the sidecar could not parse the molecule;
// this returns a vector with Valid=false and no error, since an unparseable
// candidate is an ordinary loop outcome, not a fault.
//
// # Outputs
//
//   - datatypes.PropertyVector: populated on 200, Valid=false on 422.
//   - error: non-nil only on transport or protocol faults.
func (c *RDKitClient) Properties(ctx context.Context, smiles string) (datatypes.PropertyVector, error) {
	ctx, span := tracer.Start(ctx, "RDKitClient.Properties")
	defer span.End()
	span.SetAttributes(attribute.Int("chem.smiles_len", len(smiles)))

	body, status, err := c.post(ctx, "/properties", propertiesRequest{SMILES: smiles})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return datatypes.PropertyVector{}, err
	}

	if status == http.StatusUnprocessableEntity {
		slog.Debug("Descriptor sidecar rejected SMILES as unparseable")
		return datatypes.PropertyVector{Valid: false}, nil
	}
	if status != http.StatusOK {
		err := fmt.Errorf("descriptor sidecar failed with status %d: %s", status, string(body))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Descriptor sidecar returned an error", "status_code", status, "response", string(body))
		return datatypes.PropertyVector{}, err
	}

	var props datatypes.PropertyVector
	if err := json.Unmarshal(body, &props); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Failed to parse descriptor response", "error", err, "response", string(body))
		return datatypes.PropertyVector{}, fmt.Errorf("failed to parse descriptor response: %w", err)
	}
	return props, nil
}

// Similarity computes the Tanimoto similarity between a candidate and a
// reference molecule using the sidecar's Morgan fingerprints.
func (c *RDKitClient) Similarity(ctx context.Context, smiles string, reference string) (float64, error) {
	ctx, span := tracer.Start(ctx, "RDKitClient.Similarity")
	defer span.End()

	body, status, err := c.post(ctx, "/similarity", similarityRequest{SMILES: smiles, Reference: reference})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	if status != http.StatusOK {
		err := fmt.Errorf("similarity call failed with status %d: %s", status, string(body))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	var resp similarityResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to parse similarity response: %w", err)
	}
	return resp.Similarity, nil
}

// post sends one JSON request and returns the raw body and status code.
// Transport errors surface here; status handling stays with the caller.
func (c *RDKitClient) post(ctx context.Context, path string, payload any) ([]byte, int, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal descriptor request: %w", err)
	}

	// Use NewRequestWithContext to respect context cancellation/timeout
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create descriptor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Descriptor sidecar call failed", "path", path, "error", err)
		return nil, 0, fmt.Errorf("descriptor sidecar call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read descriptor response body: %w", err)
	}
	return body, resp.StatusCode, nil
}
