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
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianChem/pkg/logging"
	"github.com/AleutianAI/AleutianChem/pkg/ux"
)

// --- Global Command Variables ---
var (
	serverURL        string
	personalityLevel string // UX personality level (full/standard/minimal/machine)
	verbose          bool

	// logger is configured in PersistentPreRun before any command runs
	logger = logging.Default()

	goalText      string
	similarityMin float64
	mwMin         float64
	mwMax         float64
	saMax         float64
	maxAttempts   int
	annotate      bool

	batchConcurrency int

	rootCmd = &cobra.Command{
		Use:   "chem",
		Short: "A cli to run goal-directed molecule optimization against the chemist service",
		Long: `Chem drives the AleutianChem optimization service: submit an origin
				molecule and a goal, stream the design loop's diagnostics live, and
				collect the final report.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize UX personality from flag or environment
			if personalityLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			} else {
				ux.InitPersonality()
			}

			level := logging.LevelWarn
			if verbose {
				level = logging.LevelDebug
			}
			logger = logging.New(logging.Config{
				Level:   level,
				LogDir:  os.Getenv("CHEM_LOG_DIR"),
				Service: "chem",
			})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Close()
		},
	}

	optimizeCmd = &cobra.Command{
		Use:   "optimize [smiles]",
		Short: "Optimize a molecule toward a goal, streaming the design loop live",
		Args:  cobra.ExactArgs(1),
		Run:   runOptimizeCommand, // Defined in cmd_optimize.go
	}

	scoreCmd = &cobra.Command{
		Use:   "score [smiles]",
		Short: "Check a SMILES string for validity and synthetic accessibility",
		Args:  cobra.ExactArgs(1),
		Run:   runScoreCommand, // Defined in cmd_score.go
	}

	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check whether the chemist service is reachable",
		Run:   runHealthCommand, // Defined in cmd_health.go
	}

	batchCmd = &cobra.Command{
		Use:   "batch [scenarios.yaml]",
		Short: "Run a YAML file of optimization scenarios concurrently",
		Args:  cobra.ExactArgs(1),
		Run:   runBatchCommand, // Defined in scenarios.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"Chemist service base URL (default $CHEMIST_URL or http://localhost:8000)")
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full (default, rich), standard, minimal, or machine (scripting)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging on stderr")

	rootCmd.AddCommand(optimizeCmd)
	optimizeCmd.Flags().StringVarP(&goalText, "goal", "g", "",
		"Optimization goal, e.g. 'Decrease LogP' or 'Make more drug-like' (required)")
	optimizeCmd.Flags().Float64Var(&similarityMin, "min-similarity", 0,
		"Minimum Tanimoto similarity to the origin molecule [0,1]")
	optimizeCmd.Flags().Float64Var(&mwMin, "mw-min", 0, "Minimum molecular weight in Daltons")
	optimizeCmd.Flags().Float64Var(&mwMax, "mw-max", 0, "Maximum molecular weight in Daltons")
	optimizeCmd.Flags().Float64Var(&saMax, "max-sa", 0, "Maximum synthetic accessibility score [1,10]")
	optimizeCmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "Design attempt ceiling (1-25, default 5)")
	optimizeCmd.Flags().BoolVar(&annotate, "annotate", false,
		"Ask the narrator model to critique each validated candidate (doubles inference cost)")
	_ = optimizeCmd.MarkFlagRequired("goal")

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(healthCmd)

	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 2,
		"Number of scenarios to run in parallel")
}
