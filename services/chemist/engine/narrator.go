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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianChem/services/llm"
)

// =============================================================================
// LLM Narrator / Annotator
// =============================================================================

var narratorTemperature = float32(0.4)
var narratorMaxTokens = 1024

// LLMNarrator implements Narrator and Annotator on top of a generative
// model backend. Faults propagate to the controller, which substitutes the
// fixed fallback; nothing here retries.
type LLMNarrator struct {
	client llm.LLMClient
}

// NewLLMNarrator wraps a model client.
func NewLLMNarrator(client llm.LLMClient) *LLMNarrator {
	return &LLMNarrator{client: client}
}

// Narrate implements Narrator: a multi-paragraph executive summary of the
// whole run, written from the terminal state.
func (n *LLMNarrator) Narrate(ctx context.Context, st *IterationState, status string) (string, error) {
	validation, err := json.MarshalIndent(st.validationRecord(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal validation record: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are the lead research analyst. Write a professional, multi-paragraph ")
	b.WriteString("executive summary (150-250 words) of the following R&D cycle:\n\n")
	fmt.Fprintf(&b, "1. Initial molecule (SMILES): %s\n", st.OriginSMILES)
	fmt.Fprintf(&b, "2. Optimization goal: %s\n", st.Goal.Raw)
	fmt.Fprintf(&b, "3. Final status: %s\n", status)
	fmt.Fprintf(&b, "4. Final proposed molecule (SMILES): %s\n", st.ProposedSMILES)
	fmt.Fprintf(&b, "5. Final validation data (JSON): %s\n\n", validation)
	b.WriteString("Cover the initial problem, the outcome, the key property changes, ")
	b.WriteString("and one concluding sentence on the significance of the result. ")
	b.WriteString("Output ONLY the executive summary text.")

	params := llm.GenerationParams{
		Temperature: &narratorTemperature,
		MaxTokens:   &narratorMaxTokens,
	}
	return n.client.Generate(ctx, b.String(), params)
}

// Annotate implements Annotator: a one-paragraph chemist-voice critique of
// the current candidate's measured properties.
func (n *LLMNarrator) Annotate(ctx context.Context, st *IterationState) (string, error) {
	props, err := json.Marshal(st.LastProperties)
	if err != nil {
		return "", fmt.Errorf("marshal properties: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a meticulous cheminformatics validator. ")
	fmt.Fprintf(&b, "Proposed SMILES: %s\n", st.ProposedSMILES)
	fmt.Fprintf(&b, "Original SMILES: %s\n", st.OriginSMILES)
	fmt.Fprintf(&b, "Measured properties (JSON): %s\n", props)
	b.WriteString("Write a clear, one-paragraph summary of these results and whether ")
	b.WriteString("they move toward the goal: ")
	b.WriteString(st.Goal.Raw)

	params := llm.GenerationParams{
		Temperature: &narratorTemperature,
		MaxTokens:   &narratorMaxTokens,
	}
	return n.client.Generate(ctx, b.String(), params)
}
