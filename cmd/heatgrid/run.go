package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ijhewaratne/heatgrid/internal/server"
	"github.com/ijhewaratne/heatgrid/pkg/spec"
	"github.com/ijhewaratne/heatgrid/pkg/topology"
	"github.com/ijhewaratne/heatgrid/pkg/validation"
)

func runValidate(projectPath string) error {
	networkSpec, err := spec.LoadProject(projectPath)
	if err != nil {
		return fmt.Errorf("loading spec: %w", err)
	}

	report := validation.ValidateSchema(networkSpec)

	topoPath := filepath.Join(projectPath, "topology.yaml")
	if _, statErr := os.Stat(topoPath); statErr == nil {
		topo, err := topology.Load(topoPath)
		if err != nil {
			return fmt.Errorf("loading topology: %w", err)
		}
		topoReport, err := topo.Validate()
		report.Merge(topoReport)
		if err != nil {
			report.AddError(validation.Result{
				Level:   validation.LevelAnalytical,
				Message: err.Error(),
			})
		}
	}

	printValidationReport(report)

	if !report.Valid {
		os.Exit(1)
	}
	return nil
}

func runSolve(ctx context.Context, projectPath string) error {
	artifacts, err := server.Solve(ctx, projectPath)
	if err != nil {
		return err
	}
	if !artifacts.Validation.Valid {
		printValidationReport(artifacts.Validation)
		return fmt.Errorf("spec has validation errors")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(artifacts)
}

func runCost(ctx context.Context, projectPath string) error {
	artifacts, err := server.Solve(ctx, projectPath)
	if err != nil {
		return err
	}
	if !artifacts.Validation.Valid {
		printValidationReport(artifacts.Validation)
		return fmt.Errorf("spec has validation errors; fix before computing cost")
	}

	printCostBenefit(artifacts.CostBenefit)
	fmt.Println()
	printSizingReport(artifacts.SizingReport)

	if len(artifacts.Validation.Warnings) > 0 {
		fmt.Println()
		printValidationReport(artifacts.Validation)
	}
	return nil
}
