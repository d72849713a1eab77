// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers provides the HTTP surface of the chemist service: the
// streaming optimization endpoint, the synchronous scorer, and the SSE
// writer shared between them.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianChem/services/chemist/datatypes"
	"github.com/AleutianAI/AleutianChem/services/chemist/engine"
	"github.com/AleutianAI/AleutianChem/services/chemist/observability"
	"github.com/AleutianAI/AleutianChem/services/llm"
)

var optimizeTracer = otel.Tracer("aleutianchem.handlers.optimize")

// =============================================================================
// Constants
// =============================================================================

const (
	// heartbeatInterval is the interval for sending keepalive pings.
	// Set to 15s to stay well under typical LB timeouts (60s for ALB/Nginx).
	heartbeatInterval = 15 * time.Second

	// designerCallsPerSecond throttles designer model inference per job.
	// One call per second is generous for a loop whose inference takes
	// seconds, but caps runaway retry storms against a fast local model.
	designerCallsPerSecond = 1.0
)

// =============================================================================
// Handler
// =============================================================================

// HandleOptimize runs one optimization job and streams its event log.
//
// # Description
//
// Handles POST /v1/optimize requests. The flow is:
//  1. Parse and validate the request body
//  2. Build the iteration state from the origin molecule, goal, and
//     constraint payload
//  3. Set SSE headers and create the writer
//  4. Start the heartbeat goroutine
//  5. Run the design/validate/decide loop, forwarding each event-log
//     append as a thought event
//  6. Emit final_report, then stream_end
//
// Client disconnect cancels the request context, which abandons the loop;
// no report is produced for an abandoned run.
//
// # Inputs
//
//   - llmClient: Backend for the designer and narrator models.
//   - oracle: Descriptor oracle for property and similarity computation.
//
// # Outputs
//
// SSE stream with events:
//   - thought: One event-log entry, indexed by log position
//   - final_report: The terminal run record (authoritative)
//   - stream_end: Stream terminator
//   - error: Stream-level fault before a report was produced
//
// # Limitations
//
//   - One job per request; there is no job store to resume from.
//
// # Assumptions
//
//   - Client supports SSE
func HandleOptimize(llmClient llm.LLMClient, oracle engine.Oracle) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		endpoint := observability.EndpointOptimize

		ctx, span := optimizeTracer.Start(c.Request.Context(), "HandleOptimize")
		defer span.End()

		// Track active job (for metrics)
		if m := observability.DefaultMetrics; m != nil {
			m.JobStarted()
			defer m.JobEnded()
		}

		success := false
		terminalStatus := "abandoned"
		defer func() {
			if m := observability.DefaultMetrics; m != nil {
				m.RecordRequest(endpoint, success)
				m.RecordJobDuration(terminalStatus, time.Since(startTime).Seconds())
			}
		}()

		// Step 1: Parse request body
		var req datatypes.OptimizeRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid request body")
			slog.Error("Failed to parse optimize request", "error", err)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(endpoint, observability.ErrorCodeValidation)
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		span.SetAttributes(
			attribute.Int("request.smiles_len", len(req.SMILES)),
			attribute.String("request.goal", req.Goal),
			attribute.Int("request.max_attempts", req.MaxAttempts),
			attribute.Bool("request.annotate", req.Annotate),
		)

		// Step 2: Validate request
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "validation failed")
			slog.Error("Optimize request validation failed", "error", err)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(endpoint, observability.ErrorCodeValidation)
			}
			var windowErr *datatypes.ConstraintWindowError
			if errors.As(err, &windowErr) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": windowErr.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: validation failed"})
			return
		}

		// Step 3: Build the job
		goal := engine.ParseGoal(req.Goal)
		st := engine.NewIterationState(
			req.SMILES,
			goal,
			engine.ConstraintsFromPayload(req.Constraints),
			req.MaxAttempts,
		)
		narrator := engine.NewLLMNarrator(llmClient)
		ctrl := &engine.Controller{
			Designer: engine.NewLLMDesigner(llmClient, designerCallsPerSecond),
			Oracle:   oracle,
			Narrator: narrator,
		}
		if req.Annotate {
			ctrl.Annotator = narrator
		}

		// Step 4: Set SSE headers and create writer
		SetSSEHeaders(c.Writer)
		sseWriter, err := NewSSEWriter(c.Writer)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "SSE setup failed")
			slog.Error("Failed to create SSE writer", "error", err)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(endpoint, observability.ErrorCodeInternal)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
			return
		}

		// Step 5: Start heartbeat goroutine to prevent connection timeouts
		heartbeatDone := make(chan struct{})
		go runHeartbeat(ctx, sseWriter, heartbeatDone)

		// Step 6: Run the loop. Each event-log append is forwarded as a
		// thought event; a write failure means the client is gone and the
		// context cancellation will abandon the loop on its next check.
		emit := func(u engine.StreamUpdate) {
			if werr := sseWriter.WriteThought(u.Index, u.Message, u.ProposedSMILES, u.Properties); werr != nil {
				slog.Debug("Failed to write thought event", "error", werr, "index", u.Index)
			}
		}

		report, runErr := ctrl.Run(ctx, st, emit)

		// Stop heartbeat
		close(heartbeatDone)

		if runErr != nil {
			span.RecordError(runErr)
			span.SetStatus(codes.Error, "optimization abandoned")
			slog.Info("Optimization job abandoned", "error", runErr, "attempts", st.Attempts)
			if m := observability.DefaultMetrics; m != nil {
				if errors.Is(runErr, context.Canceled) {
					m.RecordError(endpoint, observability.ErrorCodeClientDisconnect)
					m.RecordClientDisconnect()
				} else {
					m.RecordError(endpoint, observability.ErrorCodeTimeout)
				}
			}
			// Client is gone; nothing useful to write.
			return
		}

		terminalStatus = report.Status
		span.SetAttributes(
			attribute.String("job.status", report.Status),
			attribute.Int("job.attempts", report.Attempts),
		)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordAttempts(report.Status, report.Attempts)
		}

		// Step 7: Emit the terminal record, then the terminator
		if err := sseWriter.WriteReport(report); err != nil {
			span.RecordError(err)
			slog.Error("Failed to write final report event", "error", err)
			return
		}
		if err := sseWriter.WriteStreamEnd(); err != nil {
			span.RecordError(err)
			slog.Error("Failed to write stream_end event", "error", err)
			return
		}

		success = true
		span.SetStatus(codes.Ok, "optimization completed")
	}
}

// runHeartbeat sends periodic keepalive pings to prevent connection timeouts.
//
// # Description
//
// Runs in a separate goroutine, sending SSE comments every heartbeatInterval
// to keep the connection alive while the designer model is thinking. Stops
// when done channel is closed or context is cancelled.
//
// # Inputs
//
//   - ctx: Context for cancellation detection.
//   - writer: SSE writer to send keepalives.
//   - done: Channel to signal when to stop (close to stop).
//
// # Limitations
//
//   - Errors writing keepalives stop the heartbeat but not the job.
//
// # Assumptions
//
//   - Writer is thread-safe.
func runHeartbeat(ctx context.Context, writer SSEWriter, done <-chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := writer.WriteKeepAlive(); err != nil {
				slog.Debug("Failed to write keepalive", "error", err)
				return
			}
			if m := observability.DefaultMetrics; m != nil {
				m.RecordKeepAlive()
			}
		}
	}
}
