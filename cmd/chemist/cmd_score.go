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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianChem/pkg/ux"
	"github.com/AleutianAI/AleutianChem/pkg/validation"
)

// runScoreCommand checks a single SMILES string for validity and prints
// its synthetic accessibility score.
func runScoreCommand(cmd *cobra.Command, args []string) {
	smiles, err := validation.SanitizeSMILES(args[0])
	if err != nil {
		log.Fatalf("Invalid molecule: %v", err)
	}

	client := newChemistClient(serverURL)

	resp, err := client.Score(context.Background(), smiles)
	if err != nil {
		log.Fatalf("Failed to score molecule: %v", err)
	}

	if !resp.Valid {
		ux.Error(fmt.Sprintf("%s: %s", smiles, resp.Error))
		os.Exit(1)
	}
	ux.Success(fmt.Sprintf("%s is valid (SA score %.2f)", smiles, resp.SAScore))
}
