// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the chemist service.
//
// This file contains the terminal report shape and the SSE stream event
// wrapper. For the request surface see optimization.go.
package datatypes

// =============================================================================
// Report Status
// =============================================================================

const (
	// StatusSuccess marks a run that terminated with a candidate meeting
	// every hard constraint and the goal.
	StatusSuccess = "Success"

	// StatusFailure marks a run that exhausted its attempt ceiling.
	StatusFailure = "Failure"
)

// =============================================================================
// Final Report
// =============================================================================

// ValidationRecord is the property snapshot of the final (or current)
// candidate, carrying the origin's vector alongside for comparison charts.
//
// MeetsConstraints is only true when the deciding step accepted the
// candidate; it stays false on budget-exhausted runs even if the last
// candidate happened to be valid.
type ValidationRecord struct {
	PropertyVector
	MeetsConstraints bool            `json:"meets_constraints"`
	Baseline         *PropertyVector `json:"original_props,omitempty"`
}

// FinalReport is the single terminal record of an optimization run.
//
// # Fields
//
//   - Status: StatusSuccess or StatusFailure.
//   - FinalSMILES: The last proposed candidate (winning molecule on success).
//   - Validation: Final candidate properties with the origin baseline nested.
//   - History: The full append-only event log, in order.
//   - Attempts: Number of design attempts consumed.
//   - ExecutiveSummary: Narrator-generated free text. On narrator fault this
//     is the fixed fallback string, never empty.
type FinalReport struct {
	Status           string           `json:"status"`
	FinalSMILES      string           `json:"final_smiles"`
	Validation       ValidationRecord `json:"validation"`
	History          []string         `json:"history"`
	Attempts         int              `json:"attempts"`
	ExecutiveSummary string           `json:"executive_summary"`
}

// =============================================================================
// Stream Events
// =============================================================================

// Stream event types emitted over the optimization SSE channel.
const (
	// EventThought is one appended event-log entry (designer proposal,
	// validator diagnostic, router verdict, ...).
	EventThought = "thought"

	// EventFinalReport carries the terminal FinalReport. Receipt of this
	// event is authoritative: consumers may stop listening even if the
	// stream_end marker is lost.
	EventFinalReport = "final_report"

	// EventError reports a stream-level fault before a report was produced.
	EventError = "error"

	// EventStreamEnd is the terminator record closing every stream.
	EventStreamEnd = "stream_end"
)

// StreamEvent is the envelope for every SSE record on /v1/optimize.
//
// Delivery is at-least-once: consumers must deduplicate thought events by
// Index (the event-log position), not assume exactly-once arrival.
//
// Each event carries a SHA-256 hash chained to the previous event so a
// consumer can verify nothing was dropped or reordered in transit.
type StreamEvent struct {
	Id        string `json:"id"`
	Type      string `json:"type"`
	CreatedAt int64  `json:"created_at"`

	// Index is the event-log position for thought events. -1 on
	// non-thought events.
	Index int `json:"index"`

	// Message is the diagnostic text of a thought event.
	Message string `json:"message,omitempty"`

	// ProposedSMILES is the candidate under consideration when the event
	// was emitted.
	ProposedSMILES string `json:"proposed_smiles,omitempty"`

	// Properties is attached only on validation-producing steps.
	Properties *ValidationRecord `json:"properties,omitempty"`

	// Report is set only on final_report events.
	Report *FinalReport `json:"report,omitempty"`

	// Error is set only on error events.
	Error string `json:"error,omitempty"`

	// Hash chain for integrity verification.
	Hash     string `json:"hash"`
	PrevHash string `json:"prev_hash"`
}
