package spec

// NetworkSpec is the top-level specification for a heat-distribution network
// design project. Every tunable the engines consume lives here; packages do
// not carry their own scattered defaults.
type NetworkSpec struct {
	SpecVersion string                       `yaml:"spec_version" json:"spec_version"`
	Plant       PlantDef                     `yaml:"plant" json:"plant"`
	Design      DesignParams                 `yaml:"design" json:"design"`
	Fluid       FluidProps                   `yaml:"fluid" json:"fluid"`
	Pipes       PipeCatalog                  `yaml:"pipes" json:"pipes"`
	Categories  map[string]CategoryDef       `yaml:"categories" json:"categories"`
	Cost        CostModel                    `yaml:"cost" json:"cost"`
	Profiles    map[string]ConstraintProfile `yaml:"constraint_profiles" json:"constraint_profiles"`
	Resize      ResizeParams                 `yaml:"resize" json:"resize"`
	Economics   Economics                    `yaml:"economics" json:"economics"`
}

// PlantDef identifies the heat plant feeding the network.
type PlantDef struct {
	NodeID     string  `yaml:"node_id" json:"node_id"`
	CapacityMW float64 `yaml:"capacity_mw" json:"capacity_mw"`
}

// DesignParams holds the thermal design point and flow design factors.
type DesignParams struct {
	SupplyTempC     float64 `yaml:"supply_temp_c" json:"supply_temp_c"`
	ReturnTempC     float64 `yaml:"return_temp_c" json:"return_temp_c"`
	SafetyFactor    float64 `yaml:"safety_factor" json:"safety_factor"`
	DiversityFactor float64 `yaml:"diversity_factor" json:"diversity_factor"`
}

// DeltaT returns the design temperature spread in kelvin.
func (d DesignParams) DeltaT() float64 {
	return d.SupplyTempC - d.ReturnTempC
}

// FluidProps describes the heat-carrier fluid at design temperature.
type FluidProps struct {
	SpecificHeatJKgK float64 `yaml:"specific_heat_j_kg_k" json:"specific_heat_j_kg_k"`
	DensityKgM3      float64 `yaml:"density_kg_m3" json:"density_kg_m3"`
	KinViscosityM2S  float64 `yaml:"kinematic_viscosity_m2_s" json:"kinematic_viscosity_m2_s"`
}

// PipeCatalog is the manufacturable pipe series available to the sizer.
type PipeCatalog struct {
	// StandardDiametersMM is the ascending set of inner diameters.
	StandardDiametersMM []float64 `yaml:"standard_diameters_mm" json:"standard_diameters_mm"`
	RoughnessMM         float64   `yaml:"roughness_mm" json:"roughness_mm"`
	DefaultMaterial     string    `yaml:"default_material" json:"default_material"`
	Insulated           bool      `yaml:"insulated" json:"insulated"`
}

// SmallestDiameterMM returns the floor of the standard set, or 0 when empty.
func (pc PipeCatalog) SmallestDiameterMM() float64 {
	if len(pc.StandardDiametersMM) == 0 {
		return 0
	}
	return pc.StandardDiametersMM[0]
}

// LargestDiameterMM returns the ceiling of the standard set, or 0 when empty.
func (pc PipeCatalog) LargestDiameterMM() float64 {
	if len(pc.StandardDiametersMM) == 0 {
		return 0
	}
	return pc.StandardDiametersMM[len(pc.StandardDiametersMM)-1]
}

// CategoryDef holds the hydraulic design bounds for one pipe category
// (service, distribution, main).
type CategoryDef struct {
	MaxVelocityMS      float64 `yaml:"max_velocity_m_s" json:"max_velocity_m_s"`
	MinVelocityMS      float64 `yaml:"min_velocity_m_s" json:"min_velocity_m_s"`
	MaxPressureDropPaM float64 `yaml:"max_pressure_drop_pa_m" json:"max_pressure_drop_pa_m"`
}

// ConstraintProfile is a named engineering-standard profile: per-category
// hydraulic bounds evaluated independently of the design bounds.
type ConstraintProfile map[string]CategoryDef

// CostModel holds the construction cost coefficients.
// Pipe cost per meter grows linearly with nominal diameter; trench cost is
// counted once per route meter (supply and return share the trench).
type CostModel struct {
	BasePerM         float64            `yaml:"base_per_m" json:"base_per_m"`
	PerMMPerM        float64            `yaml:"per_mm_per_m" json:"per_mm_per_m"`
	TrenchPerM       float64            `yaml:"trench_per_m" json:"trench_per_m"`
	InstallFactor    float64            `yaml:"install_factor" json:"install_factor"`
	InsulationFactor float64            `yaml:"insulation_factor" json:"insulation_factor"`
	MaterialFactors  map[string]float64 `yaml:"material_factors" json:"material_factors"`
}

// ResizeParams bounds the simulation-feedback resize loop.
type ResizeParams struct {
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`
}

// Economics holds the parameters for the cost-benefit analysis.
type Economics struct {
	ProjectLifetimeYears int     `yaml:"project_lifetime_years" json:"project_lifetime_years"`
	DiscountRate         float64 `yaml:"discount_rate" json:"discount_rate"`
	ElectricityPriceKWh  float64 `yaml:"electricity_price_kwh" json:"electricity_price_kwh"`
	PumpEfficiency       float64 `yaml:"pump_efficiency" json:"pump_efficiency"`
	FullLoadHours        float64 `yaml:"full_load_hours" json:"full_load_hours"`
	UniformDiameterMM    float64 `yaml:"uniform_diameter_mm" json:"uniform_diameter_mm"`
}
