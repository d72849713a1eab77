// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianChem/services/chemist/datatypes"
	"github.com/AleutianAI/AleutianChem/services/chemist/engine"
	"github.com/AleutianAI/AleutianChem/services/chemist/observability"
)

var scoreTracer = otel.Tracer("aleutianchem.handlers.score")

// HandleScore computes a synthetic accessibility score for one molecule.
//
// # Description
//
// Handles POST /v1/score requests. This is the synchronous probe endpoint:
// no loop, no stream, just one oracle call.
//
// Status codes:
//   - 200: Molecule parsed, body carries valid=true and the SA score.
//   - 400: Malformed request body.
//   - 422: Molecule could not be parsed; body carries valid=false and a
//     diagnostic. An unparseable molecule is a client-data problem, not a
//     server fault.
//   - 502: Descriptor sidecar unreachable or failing.
//
// # Inputs
//
//   - oracle: Descriptor oracle for property computation.
//
// # Outputs
//
//   - gin.HandlerFunc: Handler writing a datatypes.ScoreResponse.
func HandleScore(oracle engine.Oracle) gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := observability.EndpointScore

		ctx, span := scoreTracer.Start(c.Request.Context(), "HandleScore")
		defer span.End()

		var req datatypes.ScoreRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid request body")
			slog.Error("Failed to parse score request", "error", err)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(endpoint, observability.ErrorCodeValidation)
				m.RecordRequest(endpoint, false)
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		if err := req.Validate(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "validation failed")
			slog.Error("Score request validation failed", "error", err)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(endpoint, observability.ErrorCodeValidation)
				m.RecordRequest(endpoint, false)
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: validation failed"})
			return
		}

		span.SetAttributes(attribute.Int("request.smiles_len", len(req.SMILES)))

		props, err := oracle.Properties(ctx, req.SMILES)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "oracle failed")
			slog.Error("Descriptor oracle failed", "error", err)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(endpoint, observability.ErrorCodeOracleError)
				m.RecordRequest(endpoint, false)
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "descriptor service unavailable"})
			return
		}

		if !props.Valid {
			if m := observability.DefaultMetrics; m != nil {
				m.RecordRequest(endpoint, true)
			}
			c.JSON(http.StatusUnprocessableEntity, datatypes.ScoreResponse{
				Valid: false,
				Error: "Invalid SMILES string",
			})
			return
		}

		if m := observability.DefaultMetrics; m != nil {
			m.RecordRequest(endpoint, true)
		}
		span.SetStatus(codes.Ok, "scored")
		c.JSON(http.StatusOK, datatypes.ScoreResponse{
			Valid:   true,
			SAScore: props.SAScore,
		})
	}
}
