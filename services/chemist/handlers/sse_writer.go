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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianChem/services/chemist/datatypes"
)

// =============================================================================
// Interface Definition
// =============================================================================

// SSEWriter defines the contract for writing Server-Sent Events to HTTP
// responses.
//
// # Description
//
// SSEWriter abstracts SSE event serialization and writing, enabling
// testability and separation from HTTP response mechanics. Implementations
// handle the SSE wire format (event: type\ndata: json\n\n) internally.
//
// Each event is automatically assigned:
//   - Id: UUID v4 for ordering and deduplication
//   - CreatedAt: Unix timestamp in milliseconds
//   - Hash: SHA-256 hash of event content for integrity
//   - PrevHash: Hash of previous event for chain verification
//
// # Thread Safety
//
// Implementations must be safe for concurrent use by multiple goroutines.
// The optimization handler writes thought events from the job goroutine and
// keep-alives from a ticker goroutine concurrently.
//
// # Limitations
//
//   - Must be used with http.Flusher-compatible ResponseWriter
//   - Response headers must be set before first write
//
// # Assumptions
//
//   - Caller has set Content-Type: text/event-stream before writing
//   - Caller has disabled buffering (X-Accel-Buffering: no)
type SSEWriter interface {
	// WriteEvent writes a single SSE event to the response.
	//
	// # Inputs
	//
	//   - event: StreamEvent to write. Id, CreatedAt, Hash, PrevHash are
	//     auto-set.
	//
	// # Outputs
	//
	//   - error: Non-nil if JSON marshaling or writing failed.
	WriteEvent(event datatypes.StreamEvent) error

	// WriteThought writes one event-log entry as a thought event.
	//
	// # Description
	//
	// Convenience method for the per-cycle diagnostics (designer proposal,
	// validator summary, router verdict). Index is the event-log position;
	// consumers deduplicate on it.
	//
	// # Inputs
	//
	//   - index: Event-log position, starting at 0.
	//   - message: Diagnostic text.
	//   - smiles: Candidate under consideration, may be empty.
	//   - props: Validation snapshot, nil on non-validating steps.
	//
	// # Outputs
	//
	//   - error: Non-nil if writing failed.
	WriteThought(index int, message string, smiles string, props *datatypes.ValidationRecord) error

	// WriteReport writes the terminal final_report event.
	//
	// # Description
	//
	// Receipt of this event is authoritative for consumers; the stream_end
	// marker that follows is a courtesy terminator.
	//
	// # Inputs
	//
	//   - report: The terminal run record.
	//
	// # Outputs
	//
	//   - error: Non-nil if writing failed.
	WriteReport(report *datatypes.FinalReport) error

	// WriteError writes an error event and signals stream failure.
	//
	// # Inputs
	//
	//   - errMsg: Error message for the client (sanitized, no internal
	//     details)
	//
	// # Outputs
	//
	//   - error: Non-nil if writing failed.
	//
	// # Assumptions
	//
	//   - Stream will be closed after error event
	WriteError(errMsg string) error

	// WriteStreamEnd writes the terminator record closing the stream.
	//
	// # Limitations
	//
	//   - Should only be called once per stream
	//
	// # Assumptions
	//
	//   - No more events will be written after stream_end
	WriteStreamEnd() error

	// WriteKeepAlive sends a comment line to prevent connection timeouts.
	//
	// # Description
	//
	// Sends an SSE comment (": ping\n\n") to keep the connection alive while
	// the designer model is thinking. SSE comments are ignored by clients
	// but keep the TCP connection active, preventing timeout disconnections
	// from load balancers (AWS ALB, Nginx default 60s).
	//
	// # Outputs
	//
	//   - error: Non-nil if writing failed.
	//
	// # Limitations
	//
	//   - Does not update the hash chain (comments are not events)
	//
	// # Assumptions
	//
	//   - Connection is still open
	WriteKeepAlive() error
}

// =============================================================================
// Struct Definition
// =============================================================================

// sseWriter implements SSEWriter for HTTP SSE responses.
//
// # Description
//
// sseWriter wraps an http.ResponseWriter to emit SSE-formatted events.
// Each event is written in the format:
//
//	event: {type}
//	data: {json}
//
// The writer maintains a hash chain for integrity verification:
//   - Each event's Hash is SHA-256 of its content (including the report)
//   - Each event's PrevHash links to the previous event
//
// This provides chain of custody for diagnostics, candidates, and timestamps.
//
// # Fields
//
//   - writer: Underlying http.ResponseWriter
//   - flusher: http.Flusher interface for immediate send
//   - prevHash: Hash of the last written event (for chain)
//   - mu: Mutex for thread-safe writes
//
// # Thread Safety
//
// Thread-safe via mutex. Multiple goroutines can write events concurrently.
// Hash chain integrity is maintained across concurrent writes.
//
// # Limitations
//
//   - Cannot be reused across requests
//
// # Assumptions
//
//   - Response headers already set by caller
//   - ResponseWriter supports http.Flusher interface
type sseWriter struct {
	writer   http.ResponseWriter
	flusher  http.Flusher
	prevHash string
	mu       sync.Mutex
}

// =============================================================================
// Constructor
// =============================================================================

// NewSSEWriter creates a new SSEWriter for the given ResponseWriter.
//
// # Inputs
//
//   - w: HTTP ResponseWriter. Must implement http.Flusher.
//
// # Outputs
//
//   - SSEWriter: Ready to write SSE events.
//   - error: Non-nil if ResponseWriter doesn't support flushing.
//
// # Examples
//
//	SetSSEHeaders(w)
//	writer, err := NewSSEWriter(w)
//	if err != nil {
//	    http.Error(w, "Streaming not supported", http.StatusInternalServerError)
//	    return
//	}
//	writer.WriteThought(0, "Designer (Attempt 1): Proposed CCO", "CCO", nil)
//	writer.WriteStreamEnd()
//
// # Assumptions
//
//   - Caller has set SSE headers via SetSSEHeaders()
func NewSSEWriter(w http.ResponseWriter) (SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("ResponseWriter does not support http.Flusher")
	}

	return &sseWriter{
		writer:   w,
		flusher:  flusher,
		prevHash: "",
	}, nil
}

// =============================================================================
// Methods
// =============================================================================

// WriteEvent writes a single SSE event to the response.
//
// # Description
//
// Populates event metadata (Id, CreatedAt, Hash, PrevHash), serializes
// to JSON, and writes in SSE format. Flushes immediately after writing.
//
// The hash covers all content fields including the final report for
// complete chain of custody.
//
// # Inputs
//
//   - event: StreamEvent to write. Id, CreatedAt, Hash, PrevHash are auto-set.
//
// # Outputs
//
//   - error: Non-nil if JSON marshaling or writing failed.
//
// # Assumptions
//
//   - Connection is still open
func (w *sseWriter) WriteEvent(event datatypes.StreamEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Populate metadata
	event.Id = uuid.New().String()
	event.CreatedAt = time.Now().UnixMilli()
	event.PrevHash = w.prevHash

	// Compute hash of event content (before setting Hash field)
	event.Hash = w.computeEventHash(event)

	// Update chain for next event
	w.prevHash = event.Hash

	// Serialize to JSON
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// Write SSE format: event: type\ndata: json\n\n
	if _, err := fmt.Fprintf(w.writer, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	w.flusher.Flush()
	return nil
}

// computeEventHash computes SHA-256 hash of event content.
//
// # Description
//
// Hashes all content fields for complete chain of custody:
//   - Id, Type, CreatedAt, PrevHash (metadata)
//   - Index, Message, ProposedSMILES, Error (content fields)
//   - Properties and Report (serialized to JSON for consistent hashing)
//
// # Inputs
//
//   - event: Event to hash (Hash field should be empty when called).
//
// # Outputs
//
//   - string: Hex-encoded SHA-256 hash.
//
// # Assumptions
//
//   - Called before setting event.Hash field.
func (w *sseWriter) computeEventHash(event datatypes.StreamEvent) string {
	// Serialize structured payloads for consistent hashing
	propsJSON := ""
	if event.Properties != nil {
		if data, err := json.Marshal(event.Properties); err == nil {
			propsJSON = string(data)
		}
	}
	reportJSON := ""
	if event.Report != nil {
		if data, err := json.Marshal(event.Report); err == nil {
			reportJSON = string(data)
		}
	}

	hashInput := fmt.Sprintf("%s|%s|%d|%s|%d|%s|%s|%s|%s|%s",
		event.Id,
		event.Type,
		event.CreatedAt,
		event.PrevHash,
		event.Index,
		event.Message,
		event.ProposedSMILES,
		event.Error,
		propsJSON,
		reportJSON,
	)

	hash := sha256.Sum256([]byte(hashInput))
	return hex.EncodeToString(hash[:])
}

// WriteThought writes one event-log entry as a thought event.
func (w *sseWriter) WriteThought(index int, message string, smiles string, props *datatypes.ValidationRecord) error {
	return w.WriteEvent(datatypes.StreamEvent{
		Type:           datatypes.EventThought,
		Index:          index,
		Message:        message,
		ProposedSMILES: smiles,
		Properties:     props,
	})
}

// WriteReport writes the terminal final_report event.
func (w *sseWriter) WriteReport(report *datatypes.FinalReport) error {
	return w.WriteEvent(datatypes.StreamEvent{
		Type:   datatypes.EventFinalReport,
		Index:  -1,
		Report: report,
	})
}

// WriteError writes an error event.
//
// # Description
//
// Writes an error event to inform the client of a failure. Error messages
// must be sanitized before passing to this method; internal details stay in
// the server log.
//
// # Inputs
//
//   - errMsg: Sanitized error message for client display.
//
// # Outputs
//
//   - error: Non-nil if writing failed.
//
// # Assumptions
//
//   - Stream will be closed after this event.
func (w *sseWriter) WriteError(errMsg string) error {
	return w.WriteEvent(datatypes.StreamEvent{
		Type:  datatypes.EventError,
		Index: -1,
		Error: errMsg,
	})
}

// WriteStreamEnd writes the terminator record closing the stream.
func (w *sseWriter) WriteStreamEnd() error {
	return w.WriteEvent(datatypes.StreamEvent{
		Type:  datatypes.EventStreamEnd,
		Index: -1,
	})
}

// WriteKeepAlive sends a comment line to keep the connection alive.
//
// # Description
//
// Writes an SSE comment (": ping\n\n") to keep the TCP connection active
// during long operations. Comments are ignored by SSE clients but reset
// load balancer timeout counters.
//
// # Outputs
//
//   - error: Non-nil if writing failed.
//
// # Limitations
//
//   - Does not update the hash chain.
//
// # Assumptions
//
//   - Connection is still open.
func (w *sseWriter) WriteKeepAlive() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// SSE comment format: colon followed by text, then double newline
	if _, err := fmt.Fprintf(w.writer, ": ping\n\n"); err != nil {
		return fmt.Errorf("write keepalive: %w", err)
	}

	w.flusher.Flush()
	return nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// SetSSEHeaders configures HTTP response headers for SSE streaming.
//
// # Description
//
// Sets the required headers for Server-Sent Events:
//   - Content-Type: text/event-stream
//   - Cache-Control: no-cache
//   - Connection: keep-alive
//   - X-Accel-Buffering: no (disables nginx buffering)
//
// Must be called before writing any response body.
//
// # Inputs
//
//   - w: HTTP ResponseWriter to configure.
//
// # Outputs
//
// None.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// =============================================================================
// Compile-time Interface Check
// =============================================================================

var _ SSEWriter = (*sseWriter)(nil)
