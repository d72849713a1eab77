// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/AleutianChem/services/chemist/datatypes"
)

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// Proposer generates the next candidate molecule from the current iteration
// state. Implementations are nondeterministic and slow (model inference);
// the controller treats the returned text as untrusted and sanitizes it.
type Proposer interface {
	Propose(ctx context.Context, st *IterationState) (string, error)
}

// Oracle computes molecular properties. It must be total on candidate text:
// malformed input yields a vector with Valid=false, not an error. Errors are
// reserved for transport-level faults (sidecar down, timeout).
type Oracle interface {
	Properties(ctx context.Context, smiles string) (datatypes.PropertyVector, error)
	Similarity(ctx context.Context, smiles string, reference string) (float64, error)
}

// Narrator turns the terminal state into the executive summary of the final
// report. A narrator fault degrades to a fixed fallback string; it never
// fails report assembly.
type Narrator interface {
	Narrate(ctx context.Context, st *IterationState, status string) (string, error)
}

// Annotator produces optional per-cycle commentary on a validated candidate.
// Only consulted when the request asked for annotation; its output goes into
// the event log and is never read by the evaluator.
type Annotator interface {
	Annotate(ctx context.Context, st *IterationState) (string, error)
}

// =============================================================================
// Event Feed
// =============================================================================

// StreamUpdate is one observable increment of the event log.
type StreamUpdate struct {
	// Index is the event-log position, starting at 0. Delivery to remote
	// consumers is at-least-once; they deduplicate by this index.
	Index int

	Message        string
	ProposedSMILES string

	// Properties is attached only on validation-producing steps.
	Properties *datatypes.ValidationRecord
}

// EmitFunc receives stream updates as the loop appends to the event log.
// A nil EmitFunc disables observation. Emit is called synchronously from the
// job's own goroutine, so implementations decide their own buffering.
type EmitFunc func(StreamUpdate)

// =============================================================================
// Controller
// =============================================================================

// phase is a controller state. The only back-edge in the machine is
// phaseDeciding -> phaseDesigning; together with the attempt budget check
// running first in every decision, it bounds the loop at ceiling+1 cycles.
type phase int

const (
	phaseDesigning phase = iota
	phaseValidating
	phaseDeciding
	phaseSynthesizing
	phaseDone
)

func (p phase) String() string {
	switch p {
	case phaseDesigning:
		return "designing"
	case phaseValidating:
		return "validating"
	case phaseDeciding:
		return "deciding"
	case phaseSynthesizing:
		return "synthesizing"
	default:
		return "done"
	}
}

// Controller drives one optimization job through the design/validate/decide
// loop until a terminal decision, then assembles the final report.
//
// A Controller is stateless and safe to share across jobs; all mutable state
// lives in the per-job IterationState.
type Controller struct {
	Designer Proposer
	Oracle   Oracle
	Narrator Narrator

	// Annotator is optional; nil disables per-cycle commentary.
	Annotator Annotator
}

// Run executes the job to completion and returns its final report.
//
// Cancellation abandons the loop: a half-finished job returns ctx.Err() and
// no report, so it can never be mistaken for a terminal outcome. Every other
// fault (designer failure, oracle transport error, narrator failure) is
// degraded into the loop's own retry/fallback machinery and cannot abort
// the run.
func (c *Controller) Run(ctx context.Context, st *IterationState, emit EmitFunc) (*datatypes.FinalReport, error) {
	var (
		report *datatypes.FinalReport
		status string
	)

	for ph := phaseDesigning; ph != phaseDone; {
		if err := ctx.Err(); err != nil {
			slog.Info("Optimization job abandoned", "phase", ph.String(), "state", st.String())
			return nil, err
		}

		switch ph {
		case phaseDesigning:
			c.design(ctx, st, emit)
			ph = phaseValidating

		case phaseValidating:
			if err := c.validate(ctx, st, emit); err != nil {
				return nil, err
			}
			ph = phaseDeciding

		case phaseDeciding:
			decision := Evaluate(EvalInput{
				Candidate:             st.LastProperties,
				Baseline:              st.Baseline,
				Constraints:           st.Constraints,
				Goal:                  st.Goal,
				Attempts:              st.Attempts,
				MaxAttempts:           st.MaxAttempts,
				SimilarityFailures:    st.SimilarityFailures,
				MaxSimilarityFailures: st.MaxSimilarityFailures,
			})
			st.Constraints = decision.Constraints
			st.SimilarityFailures = decision.SimilarityFailures
			st.appendEvent(emit, "Router: "+decision.Diagnostic, nil)

			switch decision.Tag {
			case DecisionRetry:
				ph = phaseDesigning
			case DecisionSuccess:
				st.MeetsConstraints = true
				status = datatypes.StatusSuccess
				ph = phaseSynthesizing
			case DecisionFailure:
				status = datatypes.StatusFailure
				ph = phaseSynthesizing
			}

		case phaseSynthesizing:
			report = c.synthesize(ctx, st, emit, status)
			ph = phaseDone
		}
	}

	return report, nil
}

// design asks the designer for the next candidate and records the attempt.
// Designer faults degrade to an empty candidate, which the oracle will mark
// invalid; the budget check keeps even a permanently broken designer
// bounded.
func (c *Controller) design(ctx context.Context, st *IterationState, emit EmitFunc) {
	text, err := c.Designer.Propose(ctx, st)
	if err != nil {
		slog.Error("Designer call failed", "error", err, "state", st.String())
		text = ""
	}

	st.ProposedSMILES = SanitizeSMILES(text)
	st.Attempts++
	st.appendEvent(emit,
		fmt.Sprintf("Designer (Attempt %d): Proposed %s", st.Attempts, st.ProposedSMILES), nil)
}

// validate computes the candidate's property vector, caching the origin
// baseline on first success. Oracle transport faults degrade to an invalid
// vector with an error diagnostic; only context cancellation escapes.
func (c *Controller) validate(ctx context.Context, st *IterationState, emit EmitFunc) error {
	if st.Baseline == nil {
		base, err := c.Oracle.Properties(ctx, st.OriginSMILES)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("Baseline property computation failed, will retry next cycle", "error", err)
			st.appendEvent(emit, fmt.Sprintf("Validator: error computing baseline properties: %v.", err), nil)
		} else {
			st.Baseline = &base
		}
	}

	props, err := c.Oracle.Properties(ctx, st.ProposedSMILES)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Error("Candidate property computation failed", "error", err)
		st.LastProperties = datatypes.PropertyVector{Valid: false}
		st.appendEvent(emit, fmt.Sprintf("Validator: error computing properties: %v. Retrying.", err), nil)
		return nil
	}

	if props.Valid {
		similarity, err := c.Oracle.Similarity(ctx, st.ProposedSMILES, st.OriginSMILES)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Left unset: the floor check passes what it cannot measure.
			slog.Warn("Similarity computation failed", "error", err)
		} else {
			props.Similarity = &similarity
		}
	}
	st.LastProperties = props

	record := st.validationRecord()
	st.appendEvent(emit, validationSummary(props), &record)

	if c.Annotator != nil && props.Valid {
		commentary, err := c.Annotator.Annotate(ctx, st)
		if err != nil {
			slog.Warn("Annotation failed, skipping", "error", err)
		} else if commentary != "" {
			st.appendEvent(emit, "Validator: "+commentary, nil)
		}
	}

	return nil
}

// synthesize builds the final report, degrading narrator faults to the
// fixed fallback summary.
func (c *Controller) synthesize(ctx context.Context, st *IterationState, emit EmitFunc, status string) *datatypes.FinalReport {
	statusMessage := "Research complete. Compiling final report."
	if status != datatypes.StatusSuccess {
		statusMessage = "Research failed. Compiling final report."
	}
	st.appendEvent(emit, "Synthesizer: "+statusMessage, nil)

	narrative := FallbackSummary
	if c.Narrator != nil {
		text, err := c.Narrator.Narrate(ctx, st, status)
		if err != nil || strings.TrimSpace(text) == "" {
			slog.Error("Narrator failed, using fallback summary", "error", err)
		} else {
			narrative = strings.TrimSpace(text)
		}
	}
	st.appendEvent(emit, "Synthesizer: Generated executive summary.", nil)

	report := AssembleReport(st, status, narrative)
	return &report
}

// validationSummary renders the oracle result as one event-log line.
func validationSummary(props datatypes.PropertyVector) string {
	if !props.Valid {
		return "Validator: proposed SMILES failed structure checks."
	}
	line := fmt.Sprintf("Validator: candidate is valid (MW %.2f, logP %.2f, TPSA %.2f, QED %.2f, SA %.2f",
		props.MW, props.LogP, props.TPSA, props.QED, props.SAScore)
	if props.Similarity != nil {
		line += fmt.Sprintf(", similarity %.4f", *props.Similarity)
	}
	return line + ")."
}

// =============================================================================
// Candidate Sanitation
// =============================================================================

// smilesNoise lists formatting artifacts models wrap answers in. Order
// matters: fence labels are stripped after the fences themselves.
var smilesNoise = []string{"```", "`", "python", "smiles", "SMILES:", "\n", "\r", "\t", " "}

// SanitizeSMILES strips model formatting artifacts from a proposed
// candidate. An unsanitizable proposal collapses to the empty string, which
// flows through the oracle as an invalid candidate; sanitation failures are
// never special-cased here.
func SanitizeSMILES(text string) string {
	cleaned := strings.TrimSpace(text)
	for _, noise := range smilesNoise {
		cleaned = strings.ReplaceAll(cleaned, noise, "")
	}
	return cleaned
}
