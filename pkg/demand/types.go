package demand

import "errors"

// HoursPerYear is the required length of an hourly demand series.
const HoursPerYear = 8760

var (
	// ErrNotFound indicates the referenced building has no demand series.
	ErrNotFound = errors.New("demand: building not found")
	// ErrPeakHourRange indicates a peak-hour index outside the series bounds.
	ErrPeakHourRange = errors.New("demand: peak hour out of series range")
	// ErrMissingData indicates a referenced input file or series is absent.
	ErrMissingData = errors.New("demand: missing demand data")
	// ErrSeriesLength indicates a series that is not one value per hour of the year.
	ErrSeriesLength = errors.New("demand: series must contain 8760 hourly values")
)

// HeatDemandSeries is the immutable per-building hourly demand input.
// Values are demand in watts, one per hour of the design year.
type HeatDemandSeries struct {
	BuildingID   string     `yaml:"building_id" json:"building_id"`
	BuildingType string     `yaml:"building_type" json:"building_type"`
	AreaM2       float64    `yaml:"area_m2" json:"area_m2"`
	Coordinate   [2]float64 `yaml:"coordinate" json:"coordinate"`
	ValuesW      []float64  `yaml:"values_w" json:"values_w"`
}

// Peak returns the index and value of the maximum demand hour.
// A zero-demand series peaks at hour 0 with value 0.
func (s HeatDemandSeries) Peak() (int, float64) {
	peakHour := 0
	peakW := 0.0
	for i, v := range s.ValuesW {
		if v > peakW {
			peakHour = i
			peakW = v
		}
	}
	return peakHour, peakW
}

// AnnualKWh returns the total demand over the series in kilowatt-hours.
func (s HeatDemandSeries) AnnualKWh() float64 {
	sum := 0.0
	for _, v := range s.ValuesW {
		sum += v
	}
	return sum / 1000
}

// FlowRateResult is the derived design flow for one building.
type FlowRateResult struct {
	BuildingID    string  `json:"building_id"`
	PeakHour      int     `json:"peak_hour"`
	PeakDemandW   float64 `json:"peak_demand_w"`
	MassFlowKgS   float64 `json:"mass_flow_kg_s"`
	VolumeFlowM3S float64 `json:"volume_flow_m3_s"`
	AnnualKWh     float64 `json:"annual_kwh"`
}
