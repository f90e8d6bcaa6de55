// Package network builds sized dual-pipe (supply/return) networks from
// building design flows and a validated topology.
package network

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ijhewaratne/heatgrid/internal/ctxlog"
	"github.com/ijhewaratne/heatgrid/pkg/demand"
	"github.com/ijhewaratne/heatgrid/pkg/sizing"
	"github.com/ijhewaratne/heatgrid/pkg/spec"
	"github.com/ijhewaratne/heatgrid/pkg/topology"
	"github.com/ijhewaratne/heatgrid/pkg/validation"
)

// Network is a fully sized dual-pipe network. SupplyPipes and ReturnPipes
// are parallel slices: index i of both describes the two legs of the same
// route segment. ServiceConnections references the supply legs of service
// category segments.
type Network struct {
	PlantNodeID        string         `json:"plant_node_id"`
	SupplyPipes        []*sizing.Pipe `json:"supply_pipes"`
	ReturnPipes        []*sizing.Pipe `json:"return_pipes"`
	ServiceConnections []*sizing.Pipe `json:"service_connections"`
	Statistics         Statistics     `json:"statistics"`
	SizingSummary      SizingSummary  `json:"sizing_summary"`
}

// Pipes returns supply and return legs interleaved, supply first.
func (n *Network) Pipes() []*sizing.Pipe {
	out := make([]*sizing.Pipe, 0, len(n.SupplyPipes)*2)
	for i := range n.SupplyPipes {
		out = append(out, n.SupplyPipes[i], n.ReturnPipes[i])
	}
	return out
}

// Builder sizes networks. It holds no per-build state; concurrent builds
// over different topologies are independent.
type Builder struct {
	engine  *sizing.Engine
	design  spec.DesignParams
	workers int
}

// NewBuilder creates a builder sizing with the given engine and design
// parameters. Worker count defaults to GOMAXPROCS.
func NewBuilder(engine *sizing.Engine, design spec.DesignParams) *Builder {
	return &Builder{
		engine:  engine,
		design:  design,
		workers: runtime.GOMAXPROCS(0),
	}
}

// sizedSegment is the per-edge outcome of the parallel sizing pass.
type sizedSegment struct {
	supply *sizing.Pipe
	ret    *sizing.Pipe
	err    error
}

// Build aggregates building flows bottom-up over the topology and sizes a
// supply and a return pipe for every carrying segment.
//
// The aggregation is a single pass in reverse topological order, so every
// node's flow is computed exactly once. Diversity is applied once per
// junction where two or more contributions merge; single-branch segments
// carry the raw flow. Segments with no resolvable downstream demand are
// dropped with a warning. Cyclic topologies are rejected by Validate before
// any aggregation happens.
func (b *Builder) Build(ctx context.Context, flows map[string]demand.FlowRateResult, topo *topology.Graph) (*Network, *validation.Report, error) {
	report, err := topo.Validate()
	if err != nil {
		return nil, report, fmt.Errorf("network: invalid topology: %w", err)
	}

	summary := SizingSummary{}
	nodeFlow := b.aggregateFlows(flows, topo, report)

	// Collect carrying segments in deterministic order.
	var carrying []topology.SegmentDef
	for _, seg := range topo.Segments {
		flow := nodeFlow[seg.ToNode]
		if flow <= 0 {
			summary.DroppedSegments++
			report.AddWarning(validation.Result{
				Level:    validation.LevelAnalytical,
				Message:  fmt.Sprintf("segment %s has no resolvable downstream demand, dropped", seg.ID),
				EntityID: seg.ID,
			})
			continue
		}
		carrying = append(carrying, seg)
	}

	// Per-segment sizing is pure over independent inputs; run it across a
	// bounded worker pool and assemble results by index so output order
	// never depends on scheduling.
	results := make([]sizedSegment, len(carrying))
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(b.workers)
	for i := range carrying {
		i := i
		grp.Go(func() error {
			results[i] = b.sizeSegment(grpCtx, carrying[i], nodeFlow[carrying[i].ToNode])
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, report, err
	}

	net := &Network{PlantNodeID: topo.PlantNodeID}
	for i, res := range results {
		seg := carrying[i]
		if res.err != nil {
			summary.FailedSegments++
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("segment %s: %v", seg.ID, res.err))
			report.AddWarning(validation.Result{
				Level:    validation.LevelHydraulic,
				Message:  fmt.Sprintf("sizing failed for segment %s: %v", seg.ID, res.err),
				EntityID: seg.ID,
			})
			continue
		}
		summary.SizedSegments++
		if res.supply.SizingFallback {
			summary.Fallbacks++
		}
		net.SupplyPipes = append(net.SupplyPipes, res.supply)
		net.ReturnPipes = append(net.ReturnPipes, res.ret)
		if seg.Category == spec.CategoryService {
			net.ServiceConnections = append(net.ServiceConnections, res.supply)
		}
	}

	net.SizingSummary = summary
	net.RecomputeStatistics(b.engine)

	ctxlog.FromContext(ctx).Info("network built",
		"segments", summary.SizedSegments,
		"dropped", summary.DroppedSegments,
		"failed", summary.FailedSegments,
		"total_cost", net.Statistics.TotalCost)

	report.AddInfo(validation.Result{
		Level: validation.LevelHydraulic,
		Message: fmt.Sprintf("sized %d segments (%d dropped, %d failed, %d fallbacks), total cost %.0f",
			summary.SizedSegments, summary.DroppedSegments, summary.FailedSegments, summary.Fallbacks,
			net.Statistics.TotalCost),
	})
	return net, report, nil
}

// aggregateFlows computes the design mass flow entering every node, walking
// the topology leaves-to-root.
func (b *Builder) aggregateFlows(flows map[string]demand.FlowRateResult, topo *topology.Graph, report *validation.Report) map[string]float64 {
	order, err := topo.TopoOrder()
	if err != nil {
		// Validate has already rejected cyclic graphs.
		return nil
	}

	nodeFlow := make(map[string]float64, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		node := order[i]

		var contributions []float64
		if buildingID, ok := topo.BuildingAt(node); ok {
			flow, found := flows[buildingID]
			if !found {
				report.AddWarning(validation.Result{
					Level:    validation.LevelAnalytical,
					Message:  fmt.Sprintf("%v: building %s at node %s", demand.ErrMissingData, buildingID, node),
					EntityID: buildingID,
				})
			} else if flow.MassFlowKgS > 0 {
				contributions = append(contributions, flow.MassFlowKgS)
			}
		}
		for _, seg := range topo.Children(node) {
			if f := nodeFlow[seg.ToNode]; f > 0 {
				contributions = append(contributions, f)
			}
		}

		sum := 0.0
		for _, c := range contributions {
			sum += c
		}
		// Diversity applies once where independent peaks merge.
		if len(contributions) >= 2 {
			sum *= b.design.DiversityFactor
		}
		nodeFlow[node] = sum
	}
	return nodeFlow
}

// sizeSegment sizes the supply leg and mirrors it onto the return leg.
// The two legs share the diameter but keep independent cost and pressure
// bookkeeping.
func (b *Builder) sizeSegment(ctx context.Context, seg topology.SegmentDef, flowKgS float64) sizedSegment {
	supply, err := b.engine.SizePipe(ctx, flowKgS, seg.LengthM, seg.Category)
	if err != nil {
		return sizedSegment{err: err}
	}
	supply.ID = seg.ID
	supply.FromNode = seg.FromNode
	supply.ToNode = seg.ToNode

	ret := *supply
	ret.ID = seg.ID + "_ret"
	ret.FromNode = seg.ToNode
	ret.ToNode = seg.FromNode
	ret.Direction = sizing.DirectionReturn
	ret.Violations = append([]string(nil), supply.Violations...)

	return sizedSegment{supply: supply, ret: &ret}
}

// ApplyDiameter sets a new diameter on both legs of the segment at index i
// and re-derives their velocity, pressure drop, cost and compliance.
func (n *Network) ApplyDiameter(e *sizing.Engine, i int, diameterMM float64) {
	n.SupplyPipes[i].DiameterMM = diameterMM
	n.ReturnPipes[i].DiameterMM = diameterMM
	e.Refresh(n.SupplyPipes[i])
	e.Refresh(n.ReturnPipes[i])
}

// SegmentIndex returns the index of the supply pipe with the given id.
func (n *Network) SegmentIndex(id string) (int, bool) {
	for i, p := range n.SupplyPipes {
		if p.ID == id {
			return i, true
		}
	}
	return 0, false
}

// SortPipes orders both legs by supply pipe id, keeping the pairing intact.
func (n *Network) SortPipes() {
	idx := make([]int, len(n.SupplyPipes))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return n.SupplyPipes[idx[a]].ID < n.SupplyPipes[idx[b]].ID })

	supply := make([]*sizing.Pipe, len(idx))
	ret := make([]*sizing.Pipe, len(idx))
	for i, j := range idx {
		supply[i] = n.SupplyPipes[j]
		ret[i] = n.ReturnPipes[j]
	}
	n.SupplyPipes, n.ReturnPipes = supply, ret
}
