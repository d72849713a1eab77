// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianChem/services/chemist/datatypes"
)

// chain builds a correctly linked sequence of events.
func chain(messages ...string) []datatypes.StreamEvent {
	events := make([]datatypes.StreamEvent, len(messages))
	prevHash := ""
	for i, msg := range messages {
		events[i] = datatypes.StreamEvent{
			Id:        "id-" + msg,
			Type:      datatypes.EventThought,
			CreatedAt: int64(1700000000000 + i),
			Index:     i,
			Message:   msg,
			PrevHash:  prevHash,
		}
		events[i].Hash = computeEventHash(events[i])
		prevHash = events[i].Hash
	}
	return events
}

func TestChainVerifier_AcceptsIntactChain(t *testing.T) {
	verifier := NewChainVerifier()
	for _, event := range chain("first", "second", "third") {
		advanced, err := verifier.Verify(event)
		if err != nil {
			t.Fatalf("Verify(%s) error: %v", event.Message, err)
		}
		if !advanced {
			t.Errorf("Verify(%s) did not advance the chain", event.Message)
		}
	}
	if verifier.Verified() != 3 {
		t.Errorf("Verified() = %d, want 3", verifier.Verified())
	}
}

func TestChainVerifier_DetectsContentTampering(t *testing.T) {
	events := chain("first", "second")
	events[1].Message = "altered"

	verifier := NewChainVerifier()
	if _, err := verifier.Verify(events[0]); err != nil {
		t.Fatalf("Verify(first) error: %v", err)
	}
	_, err := verifier.Verify(events[1])
	if err == nil {
		t.Fatal("Verify() accepted tampered content")
	}
	if !strings.Contains(err.Error(), "content hash mismatch") {
		t.Errorf("error = %v, want content hash mismatch", err)
	}
}

func TestChainVerifier_DetectsDroppedEvent(t *testing.T) {
	events := chain("first", "second", "third")

	verifier := NewChainVerifier()
	if _, err := verifier.Verify(events[0]); err != nil {
		t.Fatalf("Verify(first) error: %v", err)
	}
	// Skip events[1]
	_, err := verifier.Verify(events[2])
	if err == nil {
		t.Fatal("Verify() accepted a chain with a dropped event")
	}
	if !strings.Contains(err.Error(), "chain break") {
		t.Errorf("error = %v, want chain break", err)
	}
}

func TestChainVerifier_ToleratesRedelivery(t *testing.T) {
	events := chain("first", "second")

	verifier := NewChainVerifier()
	for _, event := range events {
		if _, err := verifier.Verify(event); err != nil {
			t.Fatalf("Verify error: %v", err)
		}
	}

	// The last event arrives again verbatim
	advanced, err := verifier.Verify(events[1])
	if err != nil {
		t.Fatalf("Verify(redelivered) error: %v", err)
	}
	if advanced {
		t.Error("redelivered event advanced the chain")
	}
	if verifier.Verified() != 2 {
		t.Errorf("Verified() = %d, want 2", verifier.Verified())
	}
}

func TestSecureHashEqual(t *testing.T) {
	if !secureHashEqual("abc", "abc") {
		t.Error("equal strings compared unequal")
	}
	if secureHashEqual("abc", "abd") {
		t.Error("different strings compared equal")
	}
	if secureHashEqual("abc", "abcd") {
		t.Error("different lengths compared equal")
	}
}
