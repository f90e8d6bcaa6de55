package demand

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// seriesFile is the on-disk shape of the demand collaborator's export.
type seriesFile struct {
	Buildings []HeatDemandSeries `yaml:"buildings"`
}

// LoadSeries reads per-building demand series from a YAML file.
func LoadSeries(path string) ([]HeatDemandSeries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingData, path)
		}
		return nil, fmt.Errorf("reading demand file: %w", err)
	}

	var file seriesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing demand YAML: %w", err)
	}
	for _, s := range file.Buildings {
		if len(s.ValuesW) != HoursPerYear {
			return nil, fmt.Errorf("%w: building %s has %d values", ErrSeriesLength, s.BuildingID, len(s.ValuesW))
		}
	}
	return file.Buildings, nil
}

// BuildingDef describes a building for synthetic demand generation.
type BuildingDef struct {
	ID     string
	Type   string
	AreaM2 float64
}

// Peak specific demand by building type, W/m2. Unknown types fall back to
// the residential value.
var peakDemandWM2 = map[string]float64{
	"residential": 60,
	"office":      80,
	"commercial":  90,
	"industrial":  120,
	"school":      70,
}

// Synthesize produces deterministic degree-day shaped hourly series for the
// given buildings, for running the solver without a demand collaborator
// export. The profile peaks in the coldest winter hours and bottoms out in
// summer; a daily cycle adds morning and evening shoulders.
func Synthesize(defs []BuildingDef) []HeatDemandSeries {
	sorted := make([]BuildingDef, len(defs))
	copy(sorted, defs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	series := make([]HeatDemandSeries, 0, len(sorted))
	for _, def := range sorted {
		peakW := peakDemandWM2["residential"] * def.AreaM2
		if w, ok := peakDemandWM2[def.Type]; ok {
			peakW = w * def.AreaM2
		}

		values := make([]float64, HoursPerYear)
		for h := range values {
			day := h / 24
			hour := h % 24
			// Seasonal factor: 1.0 at new year, ~0.1 at midsummer.
			seasonal := 0.55 + 0.45*math.Cos(2*math.Pi*float64(day)/365)
			// Daily factor: shoulders at 07:00 and 19:00.
			daily := 0.85 + 0.15*math.Cos(2*math.Pi*float64(hour-7)/24)
			values[h] = peakW * seasonal * daily
		}

		series = append(series, HeatDemandSeries{
			BuildingID:   def.ID,
			BuildingType: def.Type,
			AreaM2:       def.AreaM2,
			ValuesW:      values,
		})
	}
	return series
}
