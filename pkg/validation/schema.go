package validation

import (
	"fmt"
	"sort"

	"github.com/ijhewaratne/heatgrid/pkg/spec"
)

// ValidateSchema performs Level 1 (schema) validation on a parsed NetworkSpec.
// It checks structural correctness before any computation.
func ValidateSchema(s *spec.NetworkSpec) *Report {
	r := NewReport()

	validateDesign(s, r)
	validateFluid(s, r)
	validatePipes(s, r)
	validateCategories(s, r)
	validateProfiles(s, r)
	validateCost(s, r)
	validateResize(s, r)
	validateEconomics(s, r)

	return r
}

func validateDesign(s *spec.NetworkSpec, r *Report) {
	if s.Design.DeltaT() <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("supply temperature (%.1f) must exceed return temperature (%.1f)", s.Design.SupplyTempC, s.Design.ReturnTempC),
			SpecPath:    "design",
			ActualValue: s.Design.DeltaT(),
			Expected:    "delta-T > 0",
		})
	}
	if s.Design.SafetyFactor < 1 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("safety_factor %.2f must be at least 1.0", s.Design.SafetyFactor),
			SpecPath:    "design.safety_factor",
			ActualValue: s.Design.SafetyFactor,
			Expected:    ">= 1.0",
		})
	}
	if s.Design.DiversityFactor <= 0 || s.Design.DiversityFactor > 1 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("diversity_factor %.2f must be in (0, 1]", s.Design.DiversityFactor),
			SpecPath:    "design.diversity_factor",
			ActualValue: s.Design.DiversityFactor,
			Expected:    "0 < factor <= 1",
		})
	}
}

func validateFluid(s *spec.NetworkSpec, r *Report) {
	checks := []struct {
		name  string
		value float64
	}{
		{"specific_heat_j_kg_k", s.Fluid.SpecificHeatJKgK},
		{"density_kg_m3", s.Fluid.DensityKgM3},
		{"kinematic_viscosity_m2_s", s.Fluid.KinViscosityM2S},
	}
	for _, c := range checks {
		if c.value <= 0 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("fluid.%s must be > 0", c.name),
				SpecPath:    "fluid." + c.name,
				ActualValue: c.value,
				Expected:    "> 0",
			})
		}
	}
}

func validatePipes(s *spec.NetworkSpec, r *Report) {
	dns := s.Pipes.StandardDiametersMM
	if len(dns) == 0 {
		r.AddError(Result{
			Level:    LevelSchema,
			Message:  "pipes.standard_diameters_mm must contain at least one diameter",
			SpecPath: "pipes.standard_diameters_mm",
			Expected: "at least 1 entry",
		})
		return
	}
	for i, dn := range dns {
		if dn <= 0 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("pipes.standard_diameters_mm[%d] must be > 0", i),
				SpecPath:    fmt.Sprintf("pipes.standard_diameters_mm[%d]", i),
				ActualValue: dn,
				Expected:    "> 0",
			})
		}
		if i > 0 && dn <= dns[i-1] {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("standard diameters must be strictly ascending: %.0f follows %.0f", dn, dns[i-1]),
				SpecPath:    fmt.Sprintf("pipes.standard_diameters_mm[%d]", i),
				ActualValue: dn,
			})
		}
	}
	if s.Pipes.RoughnessMM <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "pipes.roughness_mm must be > 0",
			SpecPath:    "pipes.roughness_mm",
			ActualValue: s.Pipes.RoughnessMM,
			Expected:    "> 0",
		})
	}
	if _, ok := s.Cost.MaterialFactors[s.Pipes.DefaultMaterial]; !ok {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("pipes.default_material %q has no entry in cost.material_factors", s.Pipes.DefaultMaterial),
			SpecPath:    "pipes.default_material",
			ActualValue: s.Pipes.DefaultMaterial,
			Suggestions: []string{"add a material factor or pick one of the configured materials"},
		})
	}
}

func validateCategories(s *spec.NetworkSpec, r *Report) {
	for _, name := range []string{spec.CategoryService, spec.CategoryDistribution, spec.CategoryMain} {
		if _, ok := s.Categories[name]; !ok {
			r.AddError(Result{
				Level:    LevelSchema,
				Message:  fmt.Sprintf("categories must define %q", name),
				SpecPath: "categories." + name,
			})
		}
	}
	names := make([]string, 0, len(s.Categories))
	for name := range s.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		validateBounds(r, "categories."+name, s.Categories[name])
	}
}

func validateProfiles(s *spec.NetworkSpec, r *Report) {
	names := make([]string, 0, len(s.Profiles))
	for name := range s.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		profile := s.Profiles[name]
		if len(profile) == 0 {
			r.AddWarning(Result{
				Level:    LevelSchema,
				Message:  fmt.Sprintf("constraint profile %q defines no category bounds", name),
				SpecPath: "constraint_profiles." + name,
			})
			continue
		}
		cats := make([]string, 0, len(profile))
		for cat := range profile {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			validateBounds(r, fmt.Sprintf("constraint_profiles.%s.%s", name, cat), profile[cat])
		}
	}
}

func validateBounds(r *Report, path string, def spec.CategoryDef) {
	if def.MaxVelocityMS <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("%s: max_velocity_m_s must be > 0", path),
			SpecPath:    path + ".max_velocity_m_s",
			ActualValue: def.MaxVelocityMS,
			Expected:    "> 0",
		})
	}
	if def.MinVelocityMS < 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("%s: min_velocity_m_s must be >= 0", path),
			SpecPath:    path + ".min_velocity_m_s",
			ActualValue: def.MinVelocityMS,
			Expected:    ">= 0",
		})
	}
	if def.MinVelocityMS >= def.MaxVelocityMS && def.MaxVelocityMS > 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("%s: min velocity (%.2f) must be below max velocity (%.2f)", path, def.MinVelocityMS, def.MaxVelocityMS),
			SpecPath:    path,
			ActualValue: def.MinVelocityMS,
		})
	}
	if def.MaxPressureDropPaM <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("%s: max_pressure_drop_pa_m must be > 0", path),
			SpecPath:    path + ".max_pressure_drop_pa_m",
			ActualValue: def.MaxPressureDropPaM,
			Expected:    "> 0",
		})
	}
}

func validateCost(s *spec.NetworkSpec, r *Report) {
	if s.Cost.BasePerM < 0 || s.Cost.PerMMPerM < 0 || s.Cost.TrenchPerM < 0 {
		r.AddError(Result{
			Level:    LevelSchema,
			Message:  "cost coefficients must be non-negative",
			SpecPath: "cost",
		})
	}
	if s.Cost.InstallFactor < 1 {
		r.AddWarning(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("cost.install_factor %.2f is below 1.0; installed cost will undercut material cost", s.Cost.InstallFactor),
			SpecPath:    "cost.install_factor",
			ActualValue: s.Cost.InstallFactor,
		})
	}
}

func validateResize(s *spec.NetworkSpec, r *Report) {
	if s.Resize.MaxIterations <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "resize.max_iterations must be > 0",
			SpecPath:    "resize.max_iterations",
			ActualValue: s.Resize.MaxIterations,
			Expected:    "> 0",
		})
	}
}

func validateEconomics(s *spec.NetworkSpec, r *Report) {
	e := s.Economics
	if e.ProjectLifetimeYears <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "economics.project_lifetime_years must be > 0",
			SpecPath:    "economics.project_lifetime_years",
			ActualValue: e.ProjectLifetimeYears,
			Expected:    "> 0",
		})
	}
	if e.DiscountRate < 0 || e.DiscountRate >= 1 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("economics.discount_rate %.4f must be >= 0 and < 1", e.DiscountRate),
			SpecPath:    "economics.discount_rate",
			ActualValue: e.DiscountRate,
			Expected:    "0 <= rate < 1",
		})
	}
	if e.PumpEfficiency <= 0 || e.PumpEfficiency > 1 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("economics.pump_efficiency %.2f must be in (0, 1]", e.PumpEfficiency),
			SpecPath:    "economics.pump_efficiency",
			ActualValue: e.PumpEfficiency,
			Expected:    "0 < efficiency <= 1",
		})
	}
	if e.UniformDiameterMM <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "economics.uniform_diameter_mm must be > 0",
			SpecPath:    "economics.uniform_diameter_mm",
			ActualValue: e.UniformDiameterMM,
			Expected:    "> 0",
		})
	}
}
