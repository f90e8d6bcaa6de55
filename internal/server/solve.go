package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ijhewaratne/heatgrid/pkg/analysis"
	"github.com/ijhewaratne/heatgrid/pkg/demand"
	"github.com/ijhewaratne/heatgrid/pkg/network"
	"github.com/ijhewaratne/heatgrid/pkg/resize"
	"github.com/ijhewaratne/heatgrid/pkg/sizing"
	"github.com/ijhewaratne/heatgrid/pkg/spec"
	"github.com/ijhewaratne/heatgrid/pkg/standards"
	"github.com/ijhewaratne/heatgrid/pkg/topology"
	"github.com/ijhewaratne/heatgrid/pkg/validation"
)

// Artifacts is everything one solver run produces, each part independently
// serializable for the downstream reporting collaborators.
type Artifacts struct {
	Spec         *spec.NetworkSpec                `json:"spec"`
	Validation   *validation.Report               `json:"validation"`
	Flows        map[string]demand.FlowRateResult `json:"flows,omitempty"`
	Network      *network.Network                 `json:"network,omitempty"`
	Resize       *resize.Result                   `json:"resize,omitempty"`
	SizingReport network.SizingReport             `json:"sizing_report"`
	Standards    []standards.ProfileResult        `json:"standards,omitempty"`
	CostBenefit  *analysis.CostBenefitResult      `json:"cost_benefit,omitempty"`
}

// Solve runs the full pipeline over a project directory: load and validate
// the spec, derive building flows, build the sized dual-pipe network, refine
// it through the resize loop, then validate against standards and analyze
// cost-benefit. A schema-invalid spec returns artifacts carrying the report
// with Validation.Valid=false and no network.
func Solve(ctx context.Context, projectPath string) (*Artifacts, error) {
	networkSpec, err := spec.LoadProject(projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading spec: %w", err)
	}

	report := validation.ValidateSchema(networkSpec)
	artifacts := &Artifacts{Spec: networkSpec, Validation: report}
	if !report.Valid {
		return artifacts, nil
	}

	topo, err := topology.Load(filepath.Join(projectPath, "topology.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading topology: %w", err)
	}

	series, err := loadOrSynthesizeDemand(projectPath, topo)
	if err != nil {
		return nil, err
	}

	calculator, err := demand.NewFlowCalculator(networkSpec.Design, networkSpec.Fluid, series)
	if err != nil {
		return nil, fmt.Errorf("constructing flow calculator: %w", err)
	}
	flows, flowReport := calculator.AllBuildingFlows()
	report.Merge(flowReport)
	artifacts.Flows = flows

	engine, err := sizing.NewEngine(networkSpec)
	if err != nil {
		return nil, fmt.Errorf("constructing sizing engine: %w", err)
	}

	builder := network.NewBuilder(engine, networkSpec.Design)
	net, buildReport, err := builder.Build(ctx, flows, topo)
	report.Merge(buildReport)
	if err != nil {
		return artifacts, fmt.Errorf("building network: %w", err)
	}
	artifacts.Network = net

	loop := resize.NewLoop(engine, &resize.AnalyticSimulator{Engine: engine}, networkSpec.Resize)
	resizeResult, err := loop.Run(ctx, net)
	if err != nil {
		return artifacts, fmt.Errorf("resize loop: %w", err)
	}
	artifacts.Resize = resizeResult

	artifacts.SizingReport = net.ValidateSizing(engine)

	validator := standards.NewValidator(engine, networkSpec.Profiles)
	artifacts.Standards = validator.EvaluateNetwork(net)

	analyzer := analysis.NewAnalyzer(engine, networkSpec.Fluid, networkSpec.Economics)
	costBenefit, err := analyzer.Comprehensive(ctx, net)
	if err != nil {
		return artifacts, fmt.Errorf("cost-benefit analysis: %w", err)
	}
	artifacts.CostBenefit = costBenefit

	return artifacts, nil
}

// loadOrSynthesizeDemand prefers the demand collaborator's export and falls
// back to deterministic synthetic profiles for the topology's buildings.
func loadOrSynthesizeDemand(projectPath string, topo *topology.Graph) ([]demand.HeatDemandSeries, error) {
	demandPath := filepath.Join(projectPath, "demand.yaml")
	if _, err := os.Stat(demandPath); err == nil {
		series, err := demand.LoadSeries(demandPath)
		if err != nil {
			return nil, fmt.Errorf("loading demand: %w", err)
		}
		return series, nil
	}

	defs := make([]demand.BuildingDef, 0, len(topo.Buildings()))
	for _, ref := range topo.Buildings() {
		defs = append(defs, demand.BuildingDef{
			ID:     ref.BuildingID,
			Type:   "residential",
			AreaM2: 400,
		})
	}
	return demand.Synthesize(defs), nil
}
