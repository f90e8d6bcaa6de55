package network

import (
	"context"
	"math"
	"testing"

	"github.com/ijhewaratne/heatgrid/pkg/demand"
	"github.com/ijhewaratne/heatgrid/pkg/sizing"
	"github.com/ijhewaratne/heatgrid/pkg/spec"
	"github.com/ijhewaratne/heatgrid/pkg/topology"
)

func testSpec() *spec.NetworkSpec {
	var s spec.NetworkSpec
	s.ApplyDefaults()
	return &s
}

func testBuilder(t *testing.T) (*Builder, *sizing.Engine) {
	t.Helper()
	s := testSpec()
	engine, err := sizing.NewEngine(s)
	if err != nil {
		t.Fatal(err)
	}
	return NewBuilder(engine, s.Design), engine
}

// twoBuildingTopo: plant --m1--> j1, j1 --s1--> b1, j1 --s2--> b2.
func twoBuildingTopo(t *testing.T) *topology.Graph {
	t.Helper()
	g, err := topology.New(topology.Def{
		PlantNodeID: "plant",
		Segments: []topology.SegmentDef{
			{ID: "m1", FromNode: "plant", ToNode: "j1", LengthM: 200, Category: spec.CategoryMain},
			{ID: "s1", FromNode: "j1", ToNode: "b1", LengthM: 20, Category: spec.CategoryService},
			{ID: "s2", FromNode: "j1", ToNode: "b2", LengthM: 30, Category: spec.CategoryService},
		},
		Buildings: []topology.BuildingRef{
			{NodeID: "b1", BuildingID: "bldg-1"},
			{NodeID: "b2", BuildingID: "bldg-2"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func flowsOf(kgs map[string]float64) map[string]demand.FlowRateResult {
	out := make(map[string]demand.FlowRateResult, len(kgs))
	for id, f := range kgs {
		out[id] = demand.FlowRateResult{BuildingID: id, MassFlowKgS: f}
	}
	return out
}

func TestBuildAppliesDiversityAtJunction(t *testing.T) {
	b, _ := testBuilder(t)
	topo := twoBuildingTopo(t)

	net, report, err := b.Build(context.Background(), flowsOf(map[string]float64{"bldg-1": 1.0, "bldg-2": 1.0}), topo)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Valid {
		t.Fatalf("unexpected errors: %+v", report.Errors)
	}
	net.SortPipes()

	i, ok := net.SegmentIndex("m1")
	if !ok {
		t.Fatal("main segment not sized")
	}
	// Two 1.0 kg/s services merging at diversity 0.8: 0.8 * 2.0 = 1.6.
	if math.Abs(net.SupplyPipes[i].FlowKgS-1.6) > 1e-9 {
		t.Errorf("main flow = %.3f kg/s, want 1.6", net.SupplyPipes[i].FlowKgS)
	}

	// Single-branch service legs carry the raw building flow.
	for _, id := range []string{"s1", "s2"} {
		j, ok := net.SegmentIndex(id)
		if !ok {
			t.Fatalf("service segment %s not sized", id)
		}
		if net.SupplyPipes[j].FlowKgS != 1.0 {
			t.Errorf("%s flow = %.3f kg/s, want 1.0", id, net.SupplyPipes[j].FlowKgS)
		}
	}
}

func TestBuildDualPipePairing(t *testing.T) {
	b, _ := testBuilder(t)
	topo := twoBuildingTopo(t)

	net, _, err := b.Build(context.Background(), flowsOf(map[string]float64{"bldg-1": 0.5, "bldg-2": 0.5}), topo)
	if err != nil {
		t.Fatal(err)
	}

	if len(net.SupplyPipes) != len(net.ReturnPipes) {
		t.Fatalf("legs out of step: %d supply, %d return", len(net.SupplyPipes), len(net.ReturnPipes))
	}
	for i, sp := range net.SupplyPipes {
		rp := net.ReturnPipes[i]
		if rp.ID != sp.ID+"_ret" {
			t.Errorf("return id = %q, want %q", rp.ID, sp.ID+"_ret")
		}
		if rp.FromNode != sp.ToNode || rp.ToNode != sp.FromNode {
			t.Errorf("return leg %s nodes not mirrored", rp.ID)
		}
		if rp.DiameterMM != sp.DiameterMM {
			t.Errorf("legs of %s disagree on diameter", sp.ID)
		}
		if rp.Direction != sizing.DirectionReturn || sp.Direction != sizing.DirectionSupply {
			t.Errorf("legs of %s have wrong directions", sp.ID)
		}
	}

	if len(net.ServiceConnections) != 2 {
		t.Errorf("got %d service connections, want 2", len(net.ServiceConnections))
	}
}

func TestBuildDropsZeroFlowSegments(t *testing.T) {
	b, _ := testBuilder(t)
	topo := twoBuildingTopo(t)

	// bldg-2 has no demand: s2 carries nothing and is dropped with a warning.
	net, report, err := b.Build(context.Background(), flowsOf(map[string]float64{"bldg-1": 1.0}), topo)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := net.SegmentIndex("s2"); ok {
		t.Error("zero-flow segment s2 should have been dropped")
	}
	if net.SizingSummary.DroppedSegments != 1 {
		t.Errorf("dropped = %d, want 1", net.SizingSummary.DroppedSegments)
	}
	// No merge at j1 anymore: the main carries bldg-1's raw flow.
	i, ok := net.SegmentIndex("m1")
	if !ok {
		t.Fatal("main segment not sized")
	}
	if net.SupplyPipes[i].FlowKgS != 1.0 {
		t.Errorf("main flow = %.3f kg/s, want 1.0 (no diversity on single branch)", net.SupplyPipes[i].FlowKgS)
	}

	found := false
	for _, w := range report.Warnings {
		if w.EntityID == "s2" {
			found = true
		}
	}
	if !found {
		t.Error("expected a dropped-segment warning for s2")
	}
}

func TestBuildMissingBuildingFlowWarns(t *testing.T) {
	b, _ := testBuilder(t)
	topo := twoBuildingTopo(t)

	_, report, err := b.Build(context.Background(), flowsOf(map[string]float64{"bldg-1": 1.0}), topo)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, w := range report.Warnings {
		if w.EntityID == "bldg-2" {
			found = true
		}
	}
	if !found {
		t.Error("expected a missing-data warning for bldg-2")
	}
}

func TestBuildRejectsInvalidTopology(t *testing.T) {
	b, _ := testBuilder(t)
	g, err := topology.New(topology.Def{
		PlantNodeID: "plant",
		Segments: []topology.SegmentDef{
			{ID: "a", FromNode: "plant", ToNode: "j1", LengthM: 10},
			{ID: "b", FromNode: "j1", ToNode: "plant", LengthM: 10},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := b.Build(context.Background(), nil, g); err == nil {
		t.Fatal("expected error for cyclic topology")
	}
}

func TestBuildDeterministic(t *testing.T) {
	b, _ := testBuilder(t)
	topo := twoBuildingTopo(t)
	flows := flowsOf(map[string]float64{"bldg-1": 0.8, "bldg-2": 1.2})

	first, _, err := b.Build(context.Background(), flows, topo)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := b.Build(context.Background(), flows, topo)
	if err != nil {
		t.Fatal(err)
	}

	if len(first.SupplyPipes) != len(second.SupplyPipes) {
		t.Fatal("builds disagree on segment count")
	}
	for i := range first.SupplyPipes {
		a, c := first.SupplyPipes[i], second.SupplyPipes[i]
		if a.ID != c.ID || a.DiameterMM != c.DiameterMM || a.FlowKgS != c.FlowKgS {
			t.Errorf("builds disagree at index %d: %s/%.0f vs %s/%.0f", i, a.ID, a.DiameterMM, c.ID, c.DiameterMM)
		}
	}
}

func TestStatisticsCountBothLegsOnceTrench(t *testing.T) {
	b, _ := testBuilder(t)
	topo := twoBuildingTopo(t)

	net, _, err := b.Build(context.Background(), flowsOf(map[string]float64{"bldg-1": 1.0, "bldg-2": 1.0}), topo)
	if err != nil {
		t.Fatal(err)
	}

	routeLen := 200.0 + 20 + 30
	if net.Statistics.TrenchLengthM != routeLen {
		t.Errorf("trench length = %.0f, want %.0f", net.Statistics.TrenchLengthM, routeLen)
	}
	if net.Statistics.TotalPipeLengthM != 2*routeLen {
		t.Errorf("pipe length = %.0f, want %.0f", net.Statistics.TotalPipeLengthM, 2*routeLen)
	}
	if net.Statistics.TotalCost != net.Statistics.TotalPipeCost+net.Statistics.TrenchCost {
		t.Error("total cost does not decompose into pipe + trench")
	}
	if len(net.Statistics.DiameterHistogram) == 0 {
		t.Error("diameter histogram is empty")
	}
}

func TestApplyDiameterRefreshesBothLegs(t *testing.T) {
	b, engine := testBuilder(t)
	topo := twoBuildingTopo(t)

	net, _, err := b.Build(context.Background(), flowsOf(map[string]float64{"bldg-1": 1.0, "bldg-2": 1.0}), topo)
	if err != nil {
		t.Fatal(err)
	}
	net.SortPipes()

	i, _ := net.SegmentIndex("m1")
	vBefore := net.SupplyPipes[i].VelocityMS
	up, ok := engine.NextDiameterUp(net.SupplyPipes[i].DiameterMM)
	if !ok {
		t.Fatal("no larger diameter")
	}

	net.ApplyDiameter(engine, i, up)
	if net.SupplyPipes[i].VelocityMS >= vBefore {
		t.Error("supply velocity did not drop after upsizing")
	}
	if net.ReturnPipes[i].DiameterMM != up {
		t.Error("return leg diameter not updated")
	}
	if net.ReturnPipes[i].VelocityMS != net.SupplyPipes[i].VelocityMS {
		t.Error("legs disagree on velocity after refresh")
	}
}

func TestBuildCountsFallbacks(t *testing.T) {
	s := testSpec()
	s.Pipes.RoughnessMM = 1e9 // friction solve cannot converge; velocity bound governs
	engine, err := sizing.NewEngine(s)
	if err != nil {
		t.Fatal(err)
	}
	b := NewBuilder(engine, s.Design)

	net, _, err := b.Build(context.Background(), flowsOf(map[string]float64{"bldg-1": 1.0, "bldg-2": 1.0}), twoBuildingTopo(t))
	if err != nil {
		t.Fatal(err)
	}
	if net.SizingSummary.Fallbacks != 3 {
		t.Errorf("fallbacks = %d, want 3 (one per sized segment)", net.SizingSummary.Fallbacks)
	}
	for _, p := range net.SupplyPipes {
		if !p.SizingFallback {
			t.Errorf("segment %s missing fallback flag", p.ID)
		}
	}
}

func TestValidateSizingEmptyNetwork(t *testing.T) {
	_, engine := testBuilder(t)
	net := &Network{}
	report := net.ValidateSizing(engine)
	if report.ComplianceRate != 1 {
		t.Errorf("empty network compliance = %.2f, want 1", report.ComplianceRate)
	}
}
