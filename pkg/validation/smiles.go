// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs before they are
// sent over the wire or embedded in prompts. These checks are surface-level:
// a string that passes may still be chemically meaningless, which only the
// descriptor sidecar can decide. The point is rejecting obvious garbage and
// injection payloads locally, before spending a network round trip.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// maxSMILESLength caps accepted input length in bytes. Real drug-like
// molecules encode well under 1KB.
const maxSMILESLength = 4 * 1024

// smilesPattern matches the SMILES surface alphabet: element symbols, ring
// closure digits, bond symbols, branches, brackets, charges, and
// stereochemistry markers.
var smilesPattern = regexp.MustCompile(`^[A-Za-z0-9@+\-\[\]\(\)=#$:/\\%.*]+$`)

// ValidateSMILES checks that a string is plausibly a SMILES encoding.
//
// Valid inputs:
//   - 1 to 4096 bytes
//   - Only characters from the SMILES alphabet (no whitespace, quotes,
//     or shell metacharacters)
//
// Returns an error describing the first problem found.
//
// Example:
//
//	if err := validation.ValidateSMILES(input); err != nil {
//	    return fmt.Errorf("invalid molecule: %w", err)
//	}
//	// Safe to embed in a request or prompt
func ValidateSMILES(smiles string) error {
	if smiles == "" {
		return fmt.Errorf("SMILES cannot be empty")
	}
	if len(smiles) > maxSMILESLength {
		return fmt.Errorf("SMILES exceeds %d bytes", maxSMILESLength)
	}
	if !smilesPattern.MatchString(smiles) {
		return fmt.Errorf("invalid SMILES characters in %q", smiles)
	}
	return nil
}

// SanitizeSMILES trims whitespace and validates the result.
// Returns the trimmed string if valid, or an error if invalid.
//
// Use this on user input that may carry copy-paste artifacts:
//
//	safe, err := validation.SanitizeSMILES(userInput)
//	if err != nil {
//	    return err
//	}
func SanitizeSMILES(smiles string) (string, error) {
	trimmed := strings.TrimSpace(smiles)
	if err := ValidateSMILES(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}
