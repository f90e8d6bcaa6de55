package spec

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Load reads a network spec from a YAML file and fills defaults.
func Load(path string) (*NetworkSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec file: %w", err)
	}

	var spec NetworkSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing spec YAML: %w", err)
	}

	spec.ApplyDefaults()
	restoreExplicitZeros(data, &spec)
	return &spec, nil
}

// restoreExplicitZeros re-applies zero values the document sets explicitly.
// ApplyDefaults cannot tell an absent key from a written zero, but for these
// fields the two mean different things: a written zero is either a user error
// schema validation must reject (temperatures, factors, iteration ceiling) or
// a legitimate value (a zero discount rate).
func restoreExplicitZeros(data []byte, s *NetworkSpec) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return
	}
	if explicitZero(doc, "design", "supply_temp_c") {
		s.Design.SupplyTempC = 0
	}
	if explicitZero(doc, "design", "return_temp_c") {
		s.Design.ReturnTempC = 0
	}
	if explicitZero(doc, "design", "safety_factor") {
		s.Design.SafetyFactor = 0
	}
	if explicitZero(doc, "design", "diversity_factor") {
		s.Design.DiversityFactor = 0
	}
	if explicitZero(doc, "resize", "max_iterations") {
		s.Resize.MaxIterations = 0
	}
	if explicitZero(doc, "economics", "discount_rate") {
		s.Economics.DiscountRate = 0
	}
}

// explicitZero reports whether the document sets section.key to a zero value.
func explicitZero(doc map[string]any, section, key string) bool {
	m, ok := doc[section].(map[string]any)
	if !ok {
		return false
	}
	v, ok := m[key]
	if !ok {
		return false
	}
	switch n := v.(type) {
	case int:
		return n == 0
	case float64:
		return n == 0
	}
	return false
}

// LoadProject loads a network spec from a project directory.
// It looks for network.yaml in the given directory.
func LoadProject(projectDir string) (*NetworkSpec, error) {
	specPath := filepath.Join(projectDir, "network.yaml")
	return Load(specPath)
}

// Category names used throughout the engine.
const (
	CategoryService      = "service"
	CategoryDistribution = "distribution"
	CategoryMain         = "main"
)

// ApplyDefaults fills any zero-valued field with the baseline design values
// so a minimal spec file still yields a runnable configuration.
func (s *NetworkSpec) ApplyDefaults() {
	if s.Design.SupplyTempC == 0 {
		s.Design.SupplyTempC = 80
	}
	if s.Design.ReturnTempC == 0 {
		s.Design.ReturnTempC = 50
	}
	if s.Design.SafetyFactor == 0 {
		s.Design.SafetyFactor = 1.15
	}
	if s.Design.DiversityFactor == 0 {
		s.Design.DiversityFactor = 0.8
	}

	if s.Fluid.SpecificHeatJKgK == 0 {
		s.Fluid.SpecificHeatJKgK = 4180
	}
	if s.Fluid.DensityKgM3 == 0 {
		s.Fluid.DensityKgM3 = 977
	}
	if s.Fluid.KinViscosityM2S == 0 {
		s.Fluid.KinViscosityM2S = 4.1e-7
	}

	if len(s.Pipes.StandardDiametersMM) == 0 {
		s.Pipes.StandardDiametersMM = []float64{
			25, 32, 40, 50, 63, 80, 100, 125, 150, 200, 250, 300, 400, 500,
		}
	}
	sort.Float64s(s.Pipes.StandardDiametersMM)
	if s.Pipes.RoughnessMM == 0 {
		s.Pipes.RoughnessMM = 0.05
	}
	if s.Pipes.DefaultMaterial == "" {
		s.Pipes.DefaultMaterial = "steel"
	}

	if len(s.Categories) == 0 {
		s.Categories = map[string]CategoryDef{
			CategoryService:      {MaxVelocityMS: 1.5, MinVelocityMS: 0.1, MaxPressureDropPaM: 300},
			CategoryDistribution: {MaxVelocityMS: 2.0, MinVelocityMS: 0.2, MaxPressureDropPaM: 200},
			CategoryMain:         {MaxVelocityMS: 3.0, MinVelocityMS: 0.3, MaxPressureDropPaM: 150},
		}
	}

	if s.Cost.BasePerM == 0 {
		s.Cost.BasePerM = 80
	}
	if s.Cost.PerMMPerM == 0 {
		s.Cost.PerMMPerM = 2.5
	}
	if s.Cost.TrenchPerM == 0 {
		s.Cost.TrenchPerM = 250
	}
	if s.Cost.InstallFactor == 0 {
		s.Cost.InstallFactor = 1.3
	}
	if s.Cost.InsulationFactor == 0 {
		s.Cost.InsulationFactor = 1.25
	}
	if len(s.Cost.MaterialFactors) == 0 {
		s.Cost.MaterialFactors = map[string]float64{
			"steel": 1.0,
			"pex":   0.85,
		}
	}

	if len(s.Profiles) == 0 {
		// Baseline mirrors the design bounds so a bare spec still has one
		// named standard to validate against; en13941 carries the looser
		// district-heating norm limits.
		s.Profiles = map[string]ConstraintProfile{
			"baseline": {
				CategoryService:      s.Categories[CategoryService],
				CategoryDistribution: s.Categories[CategoryDistribution],
				CategoryMain:         s.Categories[CategoryMain],
			},
			"en13941": {
				CategoryService:      {MaxVelocityMS: 2.0, MinVelocityMS: 0, MaxPressureDropPaM: 250},
				CategoryDistribution: {MaxVelocityMS: 2.5, MinVelocityMS: 0, MaxPressureDropPaM: 200},
				CategoryMain:         {MaxVelocityMS: 3.5, MinVelocityMS: 0, MaxPressureDropPaM: 150},
			},
		}
	}

	if s.Resize.MaxIterations == 0 {
		s.Resize.MaxIterations = 5
	}

	if s.Economics.ProjectLifetimeYears == 0 {
		s.Economics.ProjectLifetimeYears = 30
	}
	if s.Economics.DiscountRate == 0 {
		s.Economics.DiscountRate = 0.04
	}
	if s.Economics.ElectricityPriceKWh == 0 {
		s.Economics.ElectricityPriceKWh = 0.25
	}
	if s.Economics.PumpEfficiency == 0 {
		s.Economics.PumpEfficiency = 0.7
	}
	if s.Economics.FullLoadHours == 0 {
		s.Economics.FullLoadHours = 1800
	}
	if s.Economics.UniformDiameterMM == 0 {
		s.Economics.UniformDiameterMM = 100
	}
}
