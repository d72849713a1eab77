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
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianChem/pkg/ux"
	"github.com/AleutianAI/AleutianChem/pkg/validation"
	"github.com/AleutianAI/AleutianChem/services/chemist/datatypes"
)

// =============================================================================
// Scenario File Format
// =============================================================================

// ScenarioConstraints mirrors the request constraints in YAML form.
type ScenarioConstraints struct {
	Similarity *float64 `yaml:"similarity"`
	MWMin      *float64 `yaml:"mw_min"`
	MWMax      *float64 `yaml:"mw_max"`
	SAMax      *float64 `yaml:"sa_max"`
}

// Scenario is one optimization job in a batch file.
type Scenario struct {
	Name        string              `yaml:"name"`
	SMILES      string              `yaml:"smiles"`
	Goal        string              `yaml:"goal"`
	Constraints ScenarioConstraints `yaml:"constraints"`
	MaxAttempts int                 `yaml:"max_attempts"`
	Annotate    bool                `yaml:"annotate"`
}

// ScenarioFile is the top-level batch file shape. Defaults apply to every
// scenario that leaves the corresponding field empty.
type ScenarioFile struct {
	Defaults  Scenario   `yaml:"defaults"`
	Scenarios []Scenario `yaml:"scenarios"`
}

// loadScenarios reads and validates a batch file, applying defaults.
func loadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var file ScenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scenario file: %w", err)
	}
	if len(file.Scenarios) == 0 {
		return nil, fmt.Errorf("scenario file %s contains no scenarios", path)
	}

	for i := range file.Scenarios {
		s := &file.Scenarios[i]
		applyDefaults(s, file.Defaults)
		if s.Name == "" {
			s.Name = fmt.Sprintf("scenario-%d", i+1)
		}
		if s.SMILES == "" {
			return nil, fmt.Errorf("scenario %q is missing a smiles field", s.Name)
		}
		if err := validation.ValidateSMILES(s.SMILES); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		if s.Goal == "" {
			return nil, fmt.Errorf("scenario %q is missing a goal field", s.Name)
		}
	}
	return file.Scenarios, nil
}

// applyDefaults fills empty scenario fields from the file-level defaults.
func applyDefaults(s *Scenario, defaults Scenario) {
	if s.Goal == "" {
		s.Goal = defaults.Goal
	}
	if s.MaxAttempts == 0 {
		s.MaxAttempts = defaults.MaxAttempts
	}
	if s.Constraints.Similarity == nil {
		s.Constraints.Similarity = defaults.Constraints.Similarity
	}
	if s.Constraints.MWMin == nil {
		s.Constraints.MWMin = defaults.Constraints.MWMin
	}
	if s.Constraints.MWMax == nil {
		s.Constraints.MWMax = defaults.Constraints.MWMax
	}
	if s.Constraints.SAMax == nil {
		s.Constraints.SAMax = defaults.Constraints.SAMax
	}
}

// request converts a scenario into the service request shape.
func (s Scenario) request() datatypes.OptimizeRequest {
	return datatypes.OptimizeRequest{
		SMILES: s.SMILES,
		Goal:   s.Goal,
		Constraints: datatypes.ConstraintsPayload{
			Similarity: s.Constraints.Similarity,
			MWMin:      s.Constraints.MWMin,
			MWMax:      s.Constraints.MWMax,
			SAMax:      s.Constraints.SAMax,
		},
		MaxAttempts: s.MaxAttempts,
		Annotate:    s.Annotate,
	}
}

// =============================================================================
// Batch Runner
// =============================================================================

// batchResult is the per-scenario outcome of a batch run.
type batchResult struct {
	scenario Scenario
	report   *datatypes.FinalReport
	err      error
}

// runBatchCommand runs every scenario in a YAML file against the service,
// bounded by the concurrency flag.
func runBatchCommand(cmd *cobra.Command, args []string) {
	scenarios, err := loadScenarios(args[0])
	if err != nil {
		log.Fatalf("Failed to load scenarios: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newChemistClient(serverURL)
	ux.Title(fmt.Sprintf("Running %d scenarios (concurrency %d)", len(scenarios), batchConcurrency))

	results := runScenarios(ctx, client, scenarios, batchConcurrency)

	failures := 0
	for _, r := range results {
		switch {
		case r.err != nil:
			failures++
			ux.Error(fmt.Sprintf("%s: %v", r.scenario.Name, r.err))
		case r.report.Status == datatypes.StatusSuccess:
			ux.Success(fmt.Sprintf("%s: %s (%d attempts)",
				r.scenario.Name, r.report.FinalSMILES, r.report.Attempts))
		default:
			failures++
			ux.Warning(fmt.Sprintf("%s: exhausted %d attempts without meeting the goal",
				r.scenario.Name, r.report.Attempts))
		}
	}

	ux.Info(fmt.Sprintf("%d/%d scenarios succeeded", len(results)-failures, len(results)))
	if failures > 0 {
		os.Exit(1)
	}
}

// runScenarios executes scenarios in parallel and returns results in the
// scenarios' original order.
func runScenarios(ctx context.Context, client *chemistClient, scenarios []Scenario, concurrency int) []batchResult {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]batchResult, len(scenarios))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, scenario := range scenarios {
		i, scenario := i, scenario
		g.Go(func() error {
			logger.Debug("running scenario", "name", scenario.Name, "smiles", scenario.SMILES)
			results[i] = batchResult{
				scenario: scenario,
			}
			results[i].report, results[i].err = runOneScenario(gCtx, client, scenario)
			// Scenario faults are reported per-row, not propagated, so
			// one failure does not cancel the rest of the batch.
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// runOneScenario runs a single scenario, discarding the thought stream and
// keeping only the final report.
func runOneScenario(ctx context.Context, client *chemistClient, scenario Scenario) (*datatypes.FinalReport, error) {
	body, err := client.Optimize(ctx, scenario.request())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	result, err := ux.NewStreamProcessorWithWriter(io.Discard, ux.PersonalityMachine).Process(body)
	if err != nil {
		return nil, err
	}
	return result.Report, nil
}
