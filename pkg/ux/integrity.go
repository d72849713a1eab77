// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file defines integrity verification for the optimization event
// stream's hash chain.
//
// Hash Chain Design:
//
//	Each StreamEvent has a Hash computed from its content and a PrevHash
//	linking to the previous event:
//
//	Event[0] → Event[1] → Event[2] → ... → Event[N]
//	  Hash₀     Hash₁     Hash₂           HashN
//	    ↑         ↑         ↑               ↑
//	    └─────────┴─────────┴───────────────┘
//	           Each PrevHash links to previous Hash
//
// If any event is modified, dropped, or reordered in transit, recomputing
// the chain on the consumer side detects the break.
package ux

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/AleutianAI/AleutianChem/services/chemist/datatypes"
)

// secureHashEqual performs constant-time comparison of two hash strings.
// This prevents timing attacks where an attacker could determine how many
// leading characters of a hash are correct by measuring response times.
func secureHashEqual(a, b string) bool {
	// subtle.ConstantTimeCompare returns 1 if equal, 0 if not
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ChainVerifier validates the hash chain of a single optimization stream.
//
// # Description
//
// The verifier recomputes every event's content hash and checks that its
// PrevHash links to the previously verified event. It must see events in
// arrival order; duplicate deliveries of an already-verified event are
// recognized by hash and accepted without advancing the chain.
//
// # Thread Safety
//
// Not safe for concurrent use. Use one verifier per stream.
type ChainVerifier struct {
	prevHash string
	verified int
}

// NewChainVerifier creates a verifier positioned before the first event.
func NewChainVerifier() *ChainVerifier {
	return &ChainVerifier{}
}

// Verified returns the number of chain-advancing events seen so far.
func (v *ChainVerifier) Verified() int {
	return v.verified
}

// Verify checks one event against the chain.
//
// # Inputs
//
//   - event: The event exactly as received, including Hash and PrevHash.
//
// # Outputs
//
//   - bool: True if the event advanced the chain, false if it was a
//     duplicate delivery of the previous event.
//   - error: Non-nil if the content hash does not match or the link to the
//     previous event is broken.
func (v *ChainVerifier) Verify(event datatypes.StreamEvent) (bool, error) {
	computed := computeEventHash(event)

	if !secureHashEqual(computed, event.Hash) {
		return false, fmt.Errorf("event %s: content hash mismatch", event.Id)
	}

	// At-least-once delivery can replay the last event verbatim.
	if v.verified > 0 && secureHashEqual(event.Hash, v.prevHash) {
		return false, nil
	}

	if !secureHashEqual(event.PrevHash, v.prevHash) {
		return false, fmt.Errorf("event %s: chain break (prev_hash does not match last verified event)", event.Id)
	}

	v.prevHash = event.Hash
	v.verified++
	return true, nil
}

// computeEventHash recomputes the content hash the service attached.
//
// The field order and separator must stay in lockstep with the service-side
// writer or every stream would fail verification.
func computeEventHash(event datatypes.StreamEvent) string {
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
