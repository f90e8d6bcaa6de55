package demand

import (
	"fmt"
	"sort"

	"github.com/ijhewaratne/heatgrid/pkg/spec"
	"github.com/ijhewaratne/heatgrid/pkg/validation"
)

// FlowCalculator converts hourly heat-demand series into design flow rates.
// It is constructed from an explicit configuration and holds no hidden state;
// the same inputs always produce the same results.
type FlowCalculator struct {
	design spec.DesignParams
	fluid  spec.FluidProps
	series map[string]HeatDemandSeries
}

// NewFlowCalculator validates the design point and indexes the given series.
// A non-positive temperature spread is rejected here so the flow formula can
// never divide by zero.
func NewFlowCalculator(design spec.DesignParams, fluid spec.FluidProps, series []HeatDemandSeries) (*FlowCalculator, error) {
	if design.DeltaT() <= 0 {
		return nil, fmt.Errorf("demand: delta-T must be > 0, got %.2f", design.DeltaT())
	}
	if fluid.SpecificHeatJKgK <= 0 || fluid.DensityKgM3 <= 0 {
		return nil, fmt.Errorf("demand: fluid properties must be > 0")
	}
	if design.SafetyFactor < 1 {
		return nil, fmt.Errorf("demand: safety_factor must be >= 1, got %.2f", design.SafetyFactor)
	}
	if design.DiversityFactor <= 0 || design.DiversityFactor > 1 {
		return nil, fmt.Errorf("demand: diversity_factor must be in (0, 1], got %.2f", design.DiversityFactor)
	}

	indexed := make(map[string]HeatDemandSeries, len(series))
	for _, s := range series {
		if len(s.ValuesW) != HoursPerYear {
			return nil, fmt.Errorf("%w: building %s has %d values", ErrSeriesLength, s.BuildingID, len(s.ValuesW))
		}
		indexed[s.BuildingID] = s
	}

	return &FlowCalculator{design: design, fluid: fluid, series: indexed}, nil
}

// BuildingFlow computes the design flow for one building at the given peak hour.
func (c *FlowCalculator) BuildingFlow(id string, peakHour int) (FlowRateResult, error) {
	s, ok := c.series[id]
	if !ok {
		return FlowRateResult{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if peakHour < 0 || peakHour >= len(s.ValuesW) {
		return FlowRateResult{}, fmt.Errorf("%w: hour %d for building %s", ErrPeakHourRange, peakHour, id)
	}
	return c.flowAt(s, peakHour, s.ValuesW[peakHour]), nil
}

// BuildingFlowAtPeak computes the design flow at the building's own peak hour.
func (c *FlowCalculator) BuildingFlowAtPeak(id string) (FlowRateResult, error) {
	s, ok := c.series[id]
	if !ok {
		return FlowRateResult{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	peakHour, peakW := s.Peak()
	return c.flowAt(s, peakHour, peakW), nil
}

// AllBuildingFlows computes design flows for every known building.
// Buildings are processed in sorted order; per-building failures are collected
// as warnings rather than aborting the batch.
func (c *FlowCalculator) AllBuildingFlows() (map[string]FlowRateResult, *validation.Report) {
	report := validation.NewReport()

	ids := make([]string, 0, len(c.series))
	for id := range c.series {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	flows := make(map[string]FlowRateResult, len(ids))
	for _, id := range ids {
		result, err := c.BuildingFlowAtPeak(id)
		if err != nil {
			report.AddWarning(validation.Result{
				Level:    validation.LevelAnalytical,
				Message:  fmt.Sprintf("flow calculation failed for building %s: %v", id, err),
				EntityID: id,
			})
			continue
		}
		flows[id] = result
	}

	report.AddInfo(validation.Result{
		Level:   validation.LevelAnalytical,
		Message: fmt.Sprintf("computed design flows for %d of %d buildings", len(flows), len(ids)),
	})
	return flows, report
}

// DiversityFactor exposes the configured merge factor for flow aggregation.
func (c *FlowCalculator) DiversityFactor() float64 {
	return c.design.DiversityFactor
}

// flowAt derives mass and volume flow from a peak demand.
// mass = peak / (cp * deltaT), scaled by the safety factor. A zero-demand
// building yields zero flow, not an error.
func (c *FlowCalculator) flowAt(s HeatDemandSeries, peakHour int, peakW float64) FlowRateResult {
	massFlow := peakW / (c.fluid.SpecificHeatJKgK * c.design.DeltaT()) * c.design.SafetyFactor
	return FlowRateResult{
		BuildingID:    s.BuildingID,
		PeakHour:      peakHour,
		PeakDemandW:   peakW,
		MassFlowKgS:   massFlow,
		VolumeFlowM3S: massFlow / c.fluid.DensityKgM3,
		AnnualKWh:     s.AnnualKWh(),
	}
}
