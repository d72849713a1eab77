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
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianChem/pkg/ux"
)

// runHealthCommand pings the service liveness endpoint.
func runHealthCommand(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := newChemistClient(serverURL)
	if err := client.Health(ctx); err != nil {
		ux.Error(fmt.Sprintf("Chemist service at %s is not reachable: %v", client.baseURL, err))
		os.Exit(1)
	}
	ux.Success(fmt.Sprintf("Chemist service at %s is up", client.baseURL))
}
