// Package resize iteratively refines pipe diameters using feedback from a
// hydraulic solver until the network satisfies its category bounds or the
// iteration budget runs out.
package resize

import (
	"context"
	"fmt"

	"github.com/ijhewaratne/heatgrid/internal/ctxlog"
	"github.com/ijhewaratne/heatgrid/pkg/network"
	"github.com/ijhewaratne/heatgrid/pkg/sizing"
	"github.com/ijhewaratne/heatgrid/pkg/spec"
)

// State of the resize loop.
type State string

const (
	StateSizing               State = "sizing"
	StateAwaitingSimulation   State = "awaiting_simulation"
	StateEvaluating           State = "evaluating"
	StateConverged            State = "converged"
	StateMaxIterationsReached State = "max_iterations_reached"
)

// Iteration is the recorded snapshot of one simulate-evaluate cycle.
type Iteration struct {
	Index     int                         `json:"index"`
	Segments  map[string]SimulatedSegment `json:"segments"`
	Changed   []string                    `json:"changed,omitempty"`
	Converged bool                        `json:"converged"`
}

// Result is the terminal outcome of a resize run. MaxIterationsReached is
// not an error: the network is returned best-effort with Converged=false
// and callers decide whether to accept it.
type Result struct {
	State      State            `json:"state"`
	Converged  bool             `json:"converged"`
	Iterations []Iteration      `json:"iterations"`
	Warnings   []string         `json:"warnings,omitempty"`
	Network    *network.Network `json:"-"`
}

// Loop drives the resize state machine. It mutates the network it is given;
// a fresh Loop per run keeps concurrent runs independent.
type Loop struct {
	engine        *sizing.Engine
	sim           Simulator
	maxIterations int
}

// NewLoop builds a resize loop with the configured iteration ceiling.
func NewLoop(engine *sizing.Engine, sim Simulator, params spec.ResizeParams) *Loop {
	maxIter := params.MaxIterations
	if maxIter <= 0 {
		maxIter = 5
	}
	return &Loop{engine: engine, sim: sim, maxIterations: maxIter}
}

// Run executes Sizing -> (AwaitingSimulation -> Evaluating)* until the
// network converges or the ceiling is reached.
//
// Guarantees: the loop never runs more than the configured number of
// cycles; a segment seen oscillating between two diameters is pinned to the
// larger one; cancellation or timeout during a pending simulation restores
// the diameters of the last complete iteration and terminates in
// MaxIterationsReached, never leaving the network half-resized.
func (l *Loop) Run(ctx context.Context, net *network.Network) (*Result, error) {
	log := ctxlog.FromContext(ctx)
	result := &Result{State: StateSizing, Network: net}

	// Diameters are already seeded analytically by the builder; the loop
	// owns refinement from here.
	history := make(map[string][]float64, len(net.SupplyPipes))
	pinned := make(map[string]bool)
	for _, p := range net.SupplyPipes {
		history[p.ID] = []float64{p.DiameterMM}
	}

	var prevSegments map[string]SimulatedSegment

	for iter := 0; iter < l.maxIterations; iter++ {
		snapshot := l.snapshotDiameters(net)

		result.State = StateAwaitingSimulation
		simResult, err := l.simulate(ctx, net)
		if err != nil {
			l.restoreDiameters(net, snapshot)
			result.State = StateMaxIterationsReached
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("simulation aborted at iteration %d: %v", iter, err))
			log.Warn("resize loop aborted", "iteration", iter, "error", err)
			return result, nil
		}

		segments := simResult.Segments
		if !simResult.Converged {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("solver did not converge at iteration %d, reusing previous values", iter))
			if prevSegments != nil {
				segments = prevSegments
			} else {
				segments = l.analyticSegments(net)
			}
		}
		prevSegments = segments

		result.State = StateEvaluating
		iteration := Iteration{Index: iter, Segments: segments}

		for i, p := range net.SupplyPipes {
			if pinned[p.ID] {
				continue
			}
			sim, ok := segments[p.ID]
			if !ok {
				continue
			}
			newDN, changed := l.proposeDiameter(p, sim)
			if !changed {
				continue
			}

			if prior := history[p.ID]; len(prior) >= 2 && prior[len(prior)-2] == newDN {
				// Oscillation: the segment flips between two sizes. Pin
				// the larger one and stop touching it so the loop is
				// guaranteed to terminate.
				larger := newDN
				if p.DiameterMM > larger {
					larger = p.DiameterMM
				}
				pinned[p.ID] = true
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("segment %s oscillates between %.0f and %.0f mm, pinned at %.0f mm",
						p.ID, newDN, p.DiameterMM, larger))
				if larger != p.DiameterMM {
					net.ApplyDiameter(l.engine, i, larger)
					history[p.ID] = append(history[p.ID], larger)
					iteration.Changed = append(iteration.Changed, p.ID)
				}
				continue
			}

			net.ApplyDiameter(l.engine, i, newDN)
			history[p.ID] = append(history[p.ID], newDN)
			iteration.Changed = append(iteration.Changed, p.ID)
		}

		if len(iteration.Changed) == 0 {
			iteration.Converged = true
			result.Iterations = append(result.Iterations, iteration)
			result.State = StateConverged
			result.Converged = true
			net.RecomputeStatistics(l.engine)
			log.Info("resize converged", "iterations", iter+1)
			return result, nil
		}

		net.RecomputeStatistics(l.engine)
		result.Iterations = append(result.Iterations, iteration)
	}

	result.State = StateMaxIterationsReached
	result.Warnings = append(result.Warnings,
		fmt.Sprintf("iteration ceiling of %d reached without convergence", l.maxIterations))
	log.Warn("resize reached iteration ceiling", "max_iterations", l.maxIterations)
	return result, nil
}

// simulate runs one Submit/Await round trip.
func (l *Loop) simulate(ctx context.Context, net *network.Network) (*SimulationResult, error) {
	handle, err := l.sim.Submit(ctx, net)
	if err != nil {
		return nil, err
	}
	return l.sim.Await(ctx, handle)
}

// proposeDiameter applies the evaluation rules to one segment: bump one
// standard size on a max-velocity or pressure violation, drop one size on a
// min-velocity undershoot, but never into a size that would itself violate
// the upper bounds and never below the floor of the standard set.
func (l *Loop) proposeDiameter(p *sizing.Pipe, sim SimulatedSegment) (float64, bool) {
	bounds, err := l.engine.CategoryBounds(p.Category)
	if err != nil {
		return 0, false
	}

	if sim.VelocityMS > bounds.MaxVelocityMS || sim.PressureDropPaM > bounds.MaxPressureDropPaM {
		if up, ok := l.engine.NextDiameterUp(p.DiameterMM); ok {
			return up, true
		}
		return 0, false
	}

	if sim.VelocityMS < bounds.MinVelocityMS {
		down, ok := l.engine.NextDiameterDown(p.DiameterMM)
		if !ok {
			return 0, false
		}
		// A drop must not push the segment over its upper bounds.
		v, grad, _, err := l.engine.Hydraulics(p.FlowKgS, down)
		if err != nil || v > bounds.MaxVelocityMS || grad > bounds.MaxPressureDropPaM {
			return 0, false
		}
		return down, true
	}
	return 0, false
}

func (l *Loop) snapshotDiameters(net *network.Network) []float64 {
	snap := make([]float64, len(net.SupplyPipes))
	for i, p := range net.SupplyPipes {
		snap[i] = p.DiameterMM
	}
	return snap
}

func (l *Loop) restoreDiameters(net *network.Network, snap []float64) {
	for i := range snap {
		if net.SupplyPipes[i].DiameterMM != snap[i] {
			net.ApplyDiameter(l.engine, i, snap[i])
		}
	}
	net.RecomputeStatistics(l.engine)
}

// analyticSegments recomputes per-segment hydraulics locally, used when the
// solver reports non-convergence before any prior snapshot exists.
func (l *Loop) analyticSegments(net *network.Network) map[string]SimulatedSegment {
	out := make(map[string]SimulatedSegment, len(net.SupplyPipes))
	for _, p := range net.SupplyPipes {
		v, grad, _, err := l.engine.Hydraulics(p.FlowKgS, p.DiameterMM)
		if err != nil {
			continue
		}
		out[p.ID] = SimulatedSegment{SegmentID: p.ID, VelocityMS: v, PressureDropPaM: grad}
	}
	return out
}
