// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianChem/pkg/ux"
	"github.com/AleutianAI/AleutianChem/pkg/validation"
	"github.com/AleutianAI/AleutianChem/services/chemist/datatypes"
)

// runOptimizeCommand submits one optimization job and streams the design
// loop's event log until the final report arrives.
func runOptimizeCommand(cmd *cobra.Command, args []string) {
	smiles, err := validation.SanitizeSMILES(args[0])
	if err != nil {
		log.Fatalf("Invalid molecule: %v", err)
	}

	req := datatypes.OptimizeRequest{
		SMILES:      smiles,
		Goal:        goalText,
		Constraints: constraintsFromFlags(cmd),
		MaxAttempts: maxAttempts,
		Annotate:    annotate,
	}

	// Ctrl-C abandons the job; the service observes the disconnect
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newChemistClient(serverURL)
	logger.Debug("starting optimization",
		"server", client.baseURL,
		"smiles", req.SMILES,
		"goal", req.Goal,
	)

	body, err := client.Optimize(ctx, req)
	if err != nil {
		log.Fatalf("Failed to start optimization: %v", err)
	}
	defer body.Close()

	ux.Title(fmt.Sprintf("Optimizing %s", req.SMILES))
	ux.Muted(fmt.Sprintf("goal: %s", req.Goal))

	result, err := ux.NewStreamProcessor().Process(body)
	if err != nil {
		log.Fatalf("Optimization stream failed: %v", err)
	}

	if result.ChainBroken {
		ux.Warning("Event stream integrity could not be verified.")
	}
	ux.RenderReport(result.Report)

	if result.Report != nil && result.Report.Status != datatypes.StatusSuccess {
		os.Exit(1)
	}
}

// constraintsFromFlags builds the constraints payload, keeping untouched
// flags nil so the service applies its documented sentinels.
func constraintsFromFlags(cmd *cobra.Command) datatypes.ConstraintsPayload {
	var constraints datatypes.ConstraintsPayload
	if cmd.Flags().Changed("min-similarity") {
		v := similarityMin
		constraints.Similarity = &v
	}
	if cmd.Flags().Changed("mw-min") {
		v := mwMin
		constraints.MWMin = &v
	}
	if cmd.Flags().Changed("mw-max") {
		v := mwMax
		constraints.MWMax = &v
	}
	if cmd.Flags().Changed("max-sa") {
		v := saMax
		constraints.SAMax = &v
	}
	return constraints
}
