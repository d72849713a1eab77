// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AleutianAI/AleutianChem/services/chemist/datatypes"
)

// StreamResult contains the complete result of processing an optimization
// stream.
type StreamResult struct {
	// Report is the terminal run record. Nil only if the stream ended
	// without a final_report event.
	Report *datatypes.FinalReport

	// Thoughts is the number of distinct event-log entries rendered.
	Thoughts int

	// Duplicates counts redelivered thought events that were suppressed.
	Duplicates int

	// ChainBroken is true if hash chain verification failed at any point.
	// The events are still rendered; the flag is surfaced as a warning.
	ChainBroken bool
}

// StreamProcessor defines the interface for processing optimization streams.
type StreamProcessor interface {
	// Process reads the SSE response body until the stream ends.
	// Returns the collected result and any stream-level error.
	Process(reader io.Reader) (*StreamResult, error)
}

// optimizeStreamProcessor implements StreamProcessor for the chemist
// service's Server-Sent Events protocol.
//
// Delivery is at-least-once, so thought events are deduplicated by Index
// (the event-log position). The hash chain is verified as events arrive;
// a break downgrades to a warning rather than aborting, since the payload
// may still be useful.
type optimizeStreamProcessor struct {
	writer      io.Writer
	personality PersonalityLevel
	verifier    *ChainVerifier
	seen        map[int]bool
}

// NewStreamProcessor creates a stream processor writing to stdout.
func NewStreamProcessor() StreamProcessor {
	return &optimizeStreamProcessor{
		writer:      os.Stdout,
		personality: GetPersonality().Level,
		verifier:    NewChainVerifier(),
		seen:        make(map[int]bool),
	}
}

// NewStreamProcessorWithWriter creates a stream processor with a custom
// writer (for testing).
func NewStreamProcessorWithWriter(w io.Writer, personality PersonalityLevel) StreamProcessor {
	return &optimizeStreamProcessor{
		writer:      w,
		personality: personality,
		verifier:    NewChainVerifier(),
		seen:        make(map[int]bool),
	}
}

// Process reads and processes an optimization stream.
//
// The final_report event is authoritative: once received, a missing
// stream_end marker is not an error.
func (p *optimizeStreamProcessor) Process(reader io.Reader) (*StreamResult, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	result := &StreamResult{}

	for scanner.Scan() {
		line := scanner.Text()

		// Keep-alive comments and blank separators carry no payload
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, ":") {
			continue
		}

		// The event: line is redundant with the JSON type field
		if strings.HasPrefix(line, "event: ") {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var event datatypes.StreamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			p.warn(result, fmt.Sprintf("skipping unparseable event: %v", err))
			continue
		}

		if _, err := p.verifier.Verify(event); err != nil && !result.ChainBroken {
			result.ChainBroken = true
			p.warn(result, fmt.Sprintf("integrity check failed: %v", err))
		}

		switch event.Type {
		case datatypes.EventThought:
			if p.seen[event.Index] {
				result.Duplicates++
				continue
			}
			p.seen[event.Index] = true
			result.Thoughts++
			p.renderThought(event)

		case datatypes.EventFinalReport:
			result.Report = event.Report

		case datatypes.EventError:
			return result, fmt.Errorf("%s", event.Error)

		case datatypes.EventStreamEnd:
			return result, nil
		}
	}

	if err := scanner.Err(); err != nil {
		if result.Report != nil {
			// Report already in hand; a torn terminator is survivable
			return result, nil
		}
		return result, err
	}

	if result.Report == nil {
		return result, fmt.Errorf("stream ended without a final report")
	}
	return result, nil
}

// renderThought prints one deduplicated event-log entry.
func (p *optimizeStreamProcessor) renderThought(event datatypes.StreamEvent) {
	if p.personality == PersonalityMachine {
		fmt.Fprintf(p.writer, "THOUGHT[%d]: %s\n", event.Index, event.Message)
		return
	}

	prefix := Styles.Muted.Render(fmt.Sprintf("%3d", event.Index))
	message := event.Message
	switch {
	case strings.HasPrefix(message, "Designer"):
		message = Styles.Subtitle.Render(message)
	case strings.HasPrefix(message, "Router: Success"):
		message = Styles.Success.Render(message)
	case strings.HasPrefix(message, "Router: Failure"):
		message = Styles.Error.Render(message)
	case strings.HasPrefix(message, "Error"):
		message = Styles.Warning.Render(message)
	}
	fmt.Fprintf(p.writer, "%s %s %s\n", prefix, Styles.Muted.Render("│"), message)
}

// warn prints a stream-level warning without interrupting processing.
func (p *optimizeStreamProcessor) warn(result *StreamResult, text string) {
	if p.personality == PersonalityMachine {
		fmt.Fprintf(p.writer, "WARN: %s\n", text)
		return
	}
	fmt.Fprintf(p.writer, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
}
