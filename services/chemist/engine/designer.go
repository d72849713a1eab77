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
	"strings"

	"github.com/AleutianAI/AleutianChem/services/llm"
	"golang.org/x/time/rate"
)

// =============================================================================
// LLM Designer
// =============================================================================

// designerTemperature keeps proposals exploratory; the hard constraints are
// enforced downstream, not in the prompt.
var designerTemperature = float32(0.8)

// designerMaxTokens bounds the proposal. A SMILES string needs far less;
// the headroom absorbs models that insist on code fences.
var designerMaxTokens = 256

// LLMDesigner implements Proposer on top of a generative model backend.
//
// Calls are rate limited so a tight retry loop cannot saturate a shared
// inference backend; the limiter blocks rather than rejects, which simply
// slows the loop down.
type LLMDesigner struct {
	client  llm.LLMClient
	limiter *rate.Limiter
}

// NewLLMDesigner wraps a model client. callsPerSecond <= 0 disables rate
// limiting.
func NewLLMDesigner(client llm.LLMClient, callsPerSecond float64) *LLMDesigner {
	var limiter *rate.Limiter
	if callsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(callsPerSecond), 1)
	}
	return &LLMDesigner{client: client, limiter: limiter}
}

// Propose implements Proposer.
func (d *LLMDesigner) Propose(ctx context.Context, st *IterationState) (string, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	params := llm.GenerationParams{
		Temperature: &designerTemperature,
		MaxTokens:   &designerMaxTokens,
	}
	return d.client.Generate(ctx, designerPrompt(st), params)
}

// designerPrompt renders the full design context: origin, goal, live
// constraints, and the event log so far. The history is what keeps the
// model from re-proposing rejected structures.
func designerPrompt(st *IterationState) string {
	var b strings.Builder
	b.WriteString("You are an expert medicinal chemist. Propose a modified molecule.\n\n")
	fmt.Fprintf(&b, "The user's original molecule is: %s\n", st.OriginSMILES)
	fmt.Fprintf(&b, "The user's goal is: %s\n", st.Goal.Raw)
	fmt.Fprintf(&b, "The constraints are: %s\n", describeConstraints(st.Constraints))
	if len(st.History) > 0 {
		b.WriteString("The conversation history is:\n")
		for _, line := range st.History {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	b.WriteString("\nBased on this, propose a new, valid SMILES string. Output ONLY the SMILES string.")
	return b.String()
}

// describeConstraints renders the live bounds for the prompt. Disabled
// bounds are stated as unconstrained so the model does not invent its own.
func describeConstraints(c ConstraintSet) string {
	parts := make([]string, 0, 3)
	if c.SimilarityEnabled {
		parts = append(parts, fmt.Sprintf("similarity to original >= %.2f", c.SimilarityFloor))
	}
	if c.MWMin > UnconstrainedMWMin || c.MWMax < UnconstrainedMWMax {
		parts = append(parts, fmt.Sprintf("molecular weight between %.0f and %.0f", c.MWMin, c.MWMax))
	}
	if c.SAEnabled {
		parts = append(parts, fmt.Sprintf("synthetic accessibility score <= %.1f", c.SAMax))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "; ")
}
