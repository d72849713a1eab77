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
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianChem/services/chemist/datatypes"
)

// parseSSEEvents splits a recorded SSE body into typed events, skipping
// comment lines.
func parseSSEEvents(t *testing.T, body string) []datatypes.StreamEvent {
	t.Helper()
	var events []datatypes.StreamEvent

	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" || strings.HasPrefix(block, ":") {
			continue
		}
		lines := strings.SplitN(block, "\n", 2)
		require.Len(t, lines, 2, "malformed SSE block: %q", block)
		require.True(t, strings.HasPrefix(lines[0], "event: "))
		require.True(t, strings.HasPrefix(lines[1], "data: "))

		var ev datatypes.StreamEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &ev))
		events = append(events, ev)
	}
	return events
}

func TestSSEWriter_WriteThoughtFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	writer, err := NewSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, writer.WriteThought(0, "Designer (Attempt 1): Proposed CCO", "CCO", nil))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: thought\ndata: "))
	assert.True(t, strings.HasSuffix(body, "\n\n"))

	events := parseSSEEvents(t, body)
	require.Len(t, events, 1)
	assert.Equal(t, datatypes.EventThought, events[0].Type)
	assert.Equal(t, 0, events[0].Index)
	assert.Equal(t, "Designer (Attempt 1): Proposed CCO", events[0].Message)
	assert.Equal(t, "CCO", events[0].ProposedSMILES)
	assert.NotEmpty(t, events[0].Id)
	assert.NotZero(t, events[0].CreatedAt)
}

func TestSSEWriter_HashChain(t *testing.T) {
	rec := httptest.NewRecorder()
	writer, err := NewSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, writer.WriteThought(0, "first", "", nil))
	require.NoError(t, writer.WriteThought(1, "second", "", nil))
	require.NoError(t, writer.WriteStreamEnd())

	events := parseSSEEvents(t, rec.Body.String())
	require.Len(t, events, 3)

	assert.Empty(t, events[0].PrevHash, "chain starts empty")
	assert.NotEmpty(t, events[0].Hash)
	assert.Equal(t, events[0].Hash, events[1].PrevHash)
	assert.Equal(t, events[1].Hash, events[2].PrevHash)
	assert.NotEqual(t, events[0].Hash, events[1].Hash)
}

func TestSSEWriter_WriteReport(t *testing.T) {
	rec := httptest.NewRecorder()
	writer, err := NewSSEWriter(rec)
	require.NoError(t, err)

	report := &datatypes.FinalReport{
		Status:           datatypes.StatusSuccess,
		FinalSMILES:      "CCO",
		Attempts:         2,
		ExecutiveSummary: "done",
	}
	require.NoError(t, writer.WriteReport(report))

	events := parseSSEEvents(t, rec.Body.String())
	require.Len(t, events, 1)
	assert.Equal(t, datatypes.EventFinalReport, events[0].Type)
	assert.Equal(t, -1, events[0].Index)
	require.NotNil(t, events[0].Report)
	assert.Equal(t, "CCO", events[0].Report.FinalSMILES)
}

func TestSSEWriter_WriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writer, err := NewSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, writer.WriteError("descriptor service unavailable"))

	events := parseSSEEvents(t, rec.Body.String())
	require.Len(t, events, 1)
	assert.Equal(t, datatypes.EventError, events[0].Type)
	assert.Equal(t, "descriptor service unavailable", events[0].Error)
}

func TestSSEWriter_KeepAliveIsCommentOutsideChain(t *testing.T) {
	rec := httptest.NewRecorder()
	writer, err := NewSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, writer.WriteThought(0, "first", "", nil))
	require.NoError(t, writer.WriteKeepAlive())
	require.NoError(t, writer.WriteThought(1, "second", "", nil))

	body := rec.Body.String()
	assert.Contains(t, body, ": ping\n\n")

	events := parseSSEEvents(t, body)
	require.Len(t, events, 2)
	// The keepalive did not break the chain.
	assert.Equal(t, events[0].Hash, events[1].PrevHash)
}

func TestSetSSEHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSSEHeaders(rec)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", rec.Header().Get("Connection"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
}
