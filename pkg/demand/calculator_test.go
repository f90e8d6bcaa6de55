package demand

import (
	"errors"
	"math"
	"testing"

	"github.com/ijhewaratne/heatgrid/pkg/spec"
)

func testDesign() spec.DesignParams {
	return spec.DesignParams{
		SupplyTempC:     80,
		ReturnTempC:     50,
		SafetyFactor:    1.0,
		DiversityFactor: 0.8,
	}
}

func testFluid() spec.FluidProps {
	return spec.FluidProps{
		SpecificHeatJKgK: 4180,
		DensityKgM3:      977,
		KinViscosityM2S:  4.1e-7,
	}
}

// flatSeries builds a series with the given peak at hour 400 and half the
// peak everywhere else.
func flatSeries(id string, peakW float64) HeatDemandSeries {
	values := make([]float64, HoursPerYear)
	for i := range values {
		values[i] = peakW / 2
	}
	values[400] = peakW
	return HeatDemandSeries{BuildingID: id, BuildingType: "residential", ValuesW: values}
}

func TestBuildingFlowReferenceExample(t *testing.T) {
	// 15 kW peak at delta-T 30 K: 15000 / (4180 * 30) = 0.1196 kg/s.
	calc, err := NewFlowCalculator(testDesign(), testFluid(), []HeatDemandSeries{flatSeries("b1", 15000)})
	if err != nil {
		t.Fatal(err)
	}

	result, err := calc.BuildingFlowAtPeak("b1")
	if err != nil {
		t.Fatal(err)
	}
	if result.PeakHour != 400 {
		t.Errorf("peak hour = %d, want 400", result.PeakHour)
	}
	if math.Abs(result.MassFlowKgS-0.1196) > 0.0005 {
		t.Errorf("mass flow = %.4f kg/s, want ~0.1196", result.MassFlowKgS)
	}
	wantVolume := result.MassFlowKgS / 977
	if math.Abs(result.VolumeFlowM3S-wantVolume) > 1e-9 {
		t.Errorf("volume flow = %.6g, want %.6g", result.VolumeFlowM3S, wantVolume)
	}
}

func TestBuildingFlowSafetyScaling(t *testing.T) {
	design := testDesign()
	design.SafetyFactor = 1.2
	calc, err := NewFlowCalculator(design, testFluid(), []HeatDemandSeries{flatSeries("b1", 15000)})
	if err != nil {
		t.Fatal(err)
	}

	result, err := calc.BuildingFlowAtPeak("b1")
	if err != nil {
		t.Fatal(err)
	}
	want := 15000 / (4180 * 30.0) * 1.2
	if math.Abs(result.MassFlowKgS-want) > 1e-6 {
		t.Errorf("mass flow = %.5f, want %.5f", result.MassFlowKgS, want)
	}
}

func TestBuildingFlowUnknownID(t *testing.T) {
	calc, _ := NewFlowCalculator(testDesign(), testFluid(), []HeatDemandSeries{flatSeries("b1", 15000)})

	_, err := calc.BuildingFlow("ghost", 0)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestBuildingFlowPeakHourOutOfRange(t *testing.T) {
	calc, _ := NewFlowCalculator(testDesign(), testFluid(), []HeatDemandSeries{flatSeries("b1", 15000)})

	for _, hour := range []int{-1, HoursPerYear, HoursPerYear + 10} {
		if _, err := calc.BuildingFlow("b1", hour); !errors.Is(err, ErrPeakHourRange) {
			t.Errorf("hour %d: error = %v, want ErrPeakHourRange", hour, err)
		}
	}
}

func TestZeroDemandYieldsZeroFlow(t *testing.T) {
	zero := HeatDemandSeries{BuildingID: "empty", ValuesW: make([]float64, HoursPerYear)}
	calc, err := NewFlowCalculator(testDesign(), testFluid(), []HeatDemandSeries{zero})
	if err != nil {
		t.Fatal(err)
	}

	result, err := calc.BuildingFlowAtPeak("empty")
	if err != nil {
		t.Fatalf("zero demand must not error: %v", err)
	}
	if result.MassFlowKgS != 0 || result.AnnualKWh != 0 {
		t.Errorf("zero series produced flow %.4f, annual %.1f", result.MassFlowKgS, result.AnnualKWh)
	}
}

func TestNewFlowCalculatorGuards(t *testing.T) {
	design := testDesign()
	design.ReturnTempC = design.SupplyTempC // delta-T = 0
	if _, err := NewFlowCalculator(design, testFluid(), nil); err == nil {
		t.Error("expected error for zero delta-T")
	}

	design = testDesign()
	design.SafetyFactor = 0.9
	if _, err := NewFlowCalculator(design, testFluid(), nil); err == nil {
		t.Error("expected error for safety factor below 1")
	}

	short := HeatDemandSeries{BuildingID: "short", ValuesW: make([]float64, 24)}
	if _, err := NewFlowCalculator(testDesign(), testFluid(), []HeatDemandSeries{short}); !errors.Is(err, ErrSeriesLength) {
		t.Error("expected ErrSeriesLength for 24-value series")
	}
}

func TestAllBuildingFlowsDeterministic(t *testing.T) {
	series := []HeatDemandSeries{
		flatSeries("b2", 10000),
		flatSeries("b1", 15000),
		flatSeries("b3", 5000),
	}
	calc, _ := NewFlowCalculator(testDesign(), testFluid(), series)

	first, report := calc.AllBuildingFlows()
	if !report.Valid {
		t.Fatalf("unexpected errors: %+v", report.Errors)
	}
	if len(first) != 3 {
		t.Fatalf("got %d flows, want 3", len(first))
	}

	second, _ := calc.AllBuildingFlows()
	for id, f := range first {
		if second[id] != f {
			t.Errorf("recomputation changed result for %s", id)
		}
	}
}

func TestAnnualDemand(t *testing.T) {
	s := flatSeries("b1", 10000)
	// 8759 hours at 5 kW plus one hour at 10 kW.
	want := (8759*5000 + 10000) / 1000.0
	if math.Abs(s.AnnualKWh()-want) > 0.001 {
		t.Errorf("annual = %.1f kWh, want %.1f", s.AnnualKWh(), want)
	}
}

func TestSynthesizeShape(t *testing.T) {
	series := Synthesize([]BuildingDef{
		{ID: "b1", Type: "residential", AreaM2: 400},
		{ID: "b2", Type: "office", AreaM2: 1000},
	})
	if len(series) != 2 {
		t.Fatalf("got %d series, want 2", len(series))
	}
	for _, s := range series {
		if len(s.ValuesW) != HoursPerYear {
			t.Fatalf("series %s has %d values", s.BuildingID, len(s.ValuesW))
		}
		_, peak := s.Peak()
		if peak <= 0 {
			t.Errorf("series %s has non-positive peak", s.BuildingID)
		}
		// Winter demand must exceed summer demand.
		if s.ValuesW[100] <= s.ValuesW[4380] {
			t.Errorf("series %s: winter %.0f <= summer %.0f", s.BuildingID, s.ValuesW[100], s.ValuesW[4380])
		}
	}
}
