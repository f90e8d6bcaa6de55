package resize

import (
	"context"
	"fmt"

	"github.com/ijhewaratne/heatgrid/pkg/network"
	"github.com/ijhewaratne/heatgrid/pkg/sizing"
)

// SimulatedSegment is the hydraulic solver's per-segment feedback, keyed by
// the supply pipe id.
type SimulatedSegment struct {
	SegmentID       string  `json:"segment_id"`
	VelocityMS      float64 `json:"velocity_m_s"`
	PressureDropPaM float64 `json:"pressure_drop_pa_m"`
}

// SimulationResult is one solver run over the whole network. Converged=false
// means the solver could not settle; the loop then reuses its previous
// snapshot rather than trusting these values.
type SimulationResult struct {
	Segments  map[string]SimulatedSegment `json:"segments"`
	Converged bool                        `json:"converged"`
}

// Handle identifies a pending simulation submission.
type Handle any

// Simulator is the capability boundary to the external hydraulic solver.
// Submit hands over the current diameters; Await blocks for the result.
// Synchronous and task-based implementations are interchangeable; the loop
// never depends on which one it is given.
type Simulator interface {
	Submit(ctx context.Context, net *network.Network) (Handle, error)
	Await(ctx context.Context, h Handle) (*SimulationResult, error)
}

// AnalyticSimulator recomputes velocities and pressure gradients from first
// principles, synchronously. It stands in for the external solver in tests
// and CLI runs without a solver attachment.
type AnalyticSimulator struct {
	Engine *sizing.Engine
}

// Submit computes the result immediately and returns it as the handle.
func (s *AnalyticSimulator) Submit(_ context.Context, net *network.Network) (Handle, error) {
	result := &SimulationResult{
		Segments:  make(map[string]SimulatedSegment, len(net.SupplyPipes)),
		Converged: true,
	}
	for _, p := range net.SupplyPipes {
		v, grad, _, err := s.Engine.Hydraulics(p.FlowKgS, p.DiameterMM)
		if err != nil {
			return nil, fmt.Errorf("resize: analytic simulation of %s: %w", p.ID, err)
		}
		result.Segments[p.ID] = SimulatedSegment{
			SegmentID:       p.ID,
			VelocityMS:      v,
			PressureDropPaM: grad,
		}
	}
	return result, nil
}

// Await unwraps the precomputed result.
func (s *AnalyticSimulator) Await(_ context.Context, h Handle) (*SimulationResult, error) {
	result, ok := h.(*SimulationResult)
	if !ok {
		return nil, fmt.Errorf("resize: foreign handle %T", h)
	}
	return result, nil
}

type funcOutcome struct {
	result *SimulationResult
	err    error
}

// FuncSimulator adapts a plain function into a task-based Simulator: Submit
// launches the call, Await selects on completion or context cancellation.
type FuncSimulator struct {
	Fn func(ctx context.Context, net *network.Network) (*SimulationResult, error)
}

// Submit starts the simulation asynchronously.
func (s *FuncSimulator) Submit(ctx context.Context, net *network.Network) (Handle, error) {
	ch := make(chan funcOutcome, 1)
	go func() {
		result, err := s.Fn(ctx, net)
		ch <- funcOutcome{result: result, err: err}
	}()
	return ch, nil
}

// Await blocks until the simulation completes or the context is done.
func (s *FuncSimulator) Await(ctx context.Context, h Handle) (*SimulationResult, error) {
	ch, ok := h.(chan funcOutcome)
	if !ok {
		return nil, fmt.Errorf("resize: foreign handle %T", h)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-ch:
		return out.result, out.err
	}
}
