package sizing

import (
	"context"
	"fmt"
	"math"

	"github.com/ijhewaratne/heatgrid/internal/ctxlog"
	"github.com/ijhewaratne/heatgrid/pkg/spec"
)

// Engine sizes pipes against the configured standard diameter set and
// category bounds. It is pure over its inputs: independent calls never
// interfere, so per-segment sizing is safe to run concurrently.
type Engine struct {
	fluid      spec.FluidProps
	pipes      spec.PipeCatalog
	categories map[string]spec.CategoryDef
	cost       spec.CostModel
}

// NewEngine builds a sizing engine from the network spec.
func NewEngine(s *spec.NetworkSpec) (*Engine, error) {
	if len(s.Pipes.StandardDiametersMM) == 0 {
		return nil, fmt.Errorf("sizing: standard diameter set is empty")
	}
	if len(s.Categories) == 0 {
		return nil, fmt.Errorf("sizing: no pipe categories configured")
	}
	if s.Fluid.DensityKgM3 <= 0 || s.Fluid.KinViscosityM2S <= 0 {
		return nil, fmt.Errorf("sizing: fluid properties must be > 0")
	}
	return &Engine{
		fluid:      s.Fluid,
		pipes:      s.Pipes,
		categories: s.Categories,
		cost:       s.Cost,
	}, nil
}

// CategoryBounds returns the design bounds for a category.
func (e *Engine) CategoryBounds(category string) (spec.CategoryDef, error) {
	def, ok := e.categories[category]
	if !ok {
		return spec.CategoryDef{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return def, nil
}

// StandardDiameters exposes the ascending standard set.
func (e *Engine) StandardDiameters() []float64 {
	return e.pipes.StandardDiametersMM
}

// Hydraulics derives velocity and pressure gradient from flow and diameter.
// The returned fallback flag is true when the friction-factor iteration did
// not converge and the last iterate was used.
func (e *Engine) Hydraulics(flowKgS, diameterMM float64) (velocityMS, gradPaM float64, fallback bool, err error) {
	if flowKgS <= 0 {
		return 0, 0, false, fmt.Errorf("%w: %.3g kg/s", ErrInvalidFlow, flowKgS)
	}
	d := diameterMM / mmPerM
	if d <= 0 {
		return 0, 0, false, fmt.Errorf("sizing: diameter must be > 0, got %.3g mm", diameterMM)
	}

	area := math.Pi * d * d / 4
	v := flowKgS / (e.fluid.DensityKgM3 * area)
	re := v * d / e.fluid.KinViscosityM2S
	relRough := (e.pipes.RoughnessMM / mmPerM) / d

	f, ferr := frictionFactor(re, relRough)
	grad := f * e.fluid.DensityKgM3 * v * v / (2 * d)
	if ferr != nil {
		return v, grad, true, nil
	}
	return v, grad, false, nil
}

// RequiredDiameter computes the velocity-bound and pressure-bound diameters
// for the given flow and returns the governing (larger) one.
//
// The pressure bound couples friction factor, Reynolds number and diameter,
// so it is solved by bounded fixed-point iteration on the Darcy-Weisbach
// relation. Non-convergence falls back to the velocity bound with an
// explicit flag and a logged warning; it is never silently wrong and never
// an error to the caller.
func (e *Engine) RequiredDiameter(ctx context.Context, flowKgS float64, category string) (DiameterResult, error) {
	if flowKgS <= 0 {
		return DiameterResult{}, fmt.Errorf("%w: %.3g kg/s", ErrInvalidFlow, flowKgS)
	}
	bounds, err := e.CategoryBounds(category)
	if err != nil {
		return DiameterResult{}, err
	}

	// Velocity bound: d = sqrt(4 m / (rho pi v_max)).
	dVel := math.Sqrt(4 * flowKgS / (e.fluid.DensityKgM3 * math.Pi * bounds.MaxVelocityMS))

	dPress, converged := e.pressureBoundDiameter(flowKgS, bounds.MaxPressureDropPaM, dVel)
	result := DiameterResult{
		VelocityBoundMM: dVel * mmPerM,
		PressureBoundMM: dPress * mmPerM,
	}
	if !converged {
		ctxlog.FromContext(ctx).Warn("pressure-bound diameter iteration did not converge, using velocity bound",
			"flow_kg_s", flowKgS, "category", category)
		result.PressureBoundMM = dVel * mmPerM
		result.Fallback = true
		dPress = dVel
	}

	if dPress > dVel {
		result.RequiredMM = dPress * mmPerM
		result.GoverningBound = "pressure"
	} else {
		result.RequiredMM = dVel * mmPerM
		result.GoverningBound = "velocity"
	}
	return result, nil
}

// pressureBoundDiameter solves d such that the Darcy-Weisbach gradient
// equals maxGrad:
//
//	grad = 8 f m^2 / (rho pi^2 d^5)  =>  d = (8 f m^2 / (rho pi^2 grad))^(1/5)
//
// with f itself a function of d through Re and relative roughness.
func (e *Engine) pressureBoundDiameter(flowKgS, maxGradPaM, seedM float64) (float64, bool) {
	d := seedM
	rho := e.fluid.DensityKgM3
	roughM := e.pipes.RoughnessMM / mmPerM

	for i := 0; i < maxDiameterIter; i++ {
		area := math.Pi * d * d / 4
		v := flowKgS / (rho * area)
		re := v * d / e.fluid.KinViscosityM2S

		f, err := frictionFactor(re, roughM/d)
		if err != nil {
			return d, false
		}

		next := math.Pow(8*f*flowKgS*flowKgS/(rho*math.Pi*math.Pi*maxGradPaM), 0.2)
		if math.Abs(next-d) < diameterTolM {
			return next, true
		}
		d = next
	}
	return d, false
}

// SelectStandardDiameter returns the smallest standard diameter that is at
// least the required diameter.
func (e *Engine) SelectStandardDiameter(requiredMM float64) (float64, error) {
	for _, dn := range e.pipes.StandardDiametersMM {
		if dn >= requiredMM {
			return dn, nil
		}
	}
	return 0, fmt.Errorf("%w: required %.1f mm, largest standard %.0f mm",
		ErrOutOfRange, requiredMM, e.pipes.LargestDiameterMM())
}

// NextDiameterUp returns the next larger standard diameter, or false at the
// ceiling of the set.
func (e *Engine) NextDiameterUp(currentMM float64) (float64, bool) {
	for _, dn := range e.pipes.StandardDiametersMM {
		if dn > currentMM {
			return dn, true
		}
	}
	return currentMM, false
}

// NextDiameterDown returns the next smaller standard diameter, or false at
// the floor of the set.
func (e *Engine) NextDiameterDown(currentMM float64) (float64, bool) {
	dns := e.pipes.StandardDiametersMM
	for i := len(dns) - 1; i >= 0; i-- {
		if dns[i] < currentMM {
			return dns[i], true
		}
	}
	return currentMM, false
}

// ValidateConstraints recomputes the pipe's hydraulics from first principles
// and flags category-specific violations. The pipe is not mutated.
func (e *Engine) ValidateConstraints(p *Pipe) ConstraintCheck {
	bounds, err := e.CategoryBounds(p.Category)
	if err != nil {
		return ConstraintCheck{Violations: []string{err.Error()}}
	}

	v, grad, _, err := e.Hydraulics(p.FlowKgS, p.DiameterMM)
	if err != nil {
		return ConstraintCheck{Violations: []string{err.Error()}}
	}

	check := ConstraintCheck{VelocityMS: v, PressureDropPaM: grad, Compliant: true}
	if v > bounds.MaxVelocityMS {
		check.Compliant = false
		check.Violations = append(check.Violations,
			fmt.Sprintf("pipe %s: velocity %.2f m/s exceeds max %.2f m/s", p.ID, v, bounds.MaxVelocityMS))
	}
	if v < bounds.MinVelocityMS {
		check.Compliant = false
		check.Violations = append(check.Violations,
			fmt.Sprintf("pipe %s: velocity %.2f m/s below min %.2f m/s", p.ID, v, bounds.MinVelocityMS))
	}
	if grad > bounds.MaxPressureDropPaM {
		check.Compliant = false
		check.Violations = append(check.Violations,
			fmt.Sprintf("pipe %s: pressure drop %.1f Pa/m exceeds max %.1f Pa/m", p.ID, grad, bounds.MaxPressureDropPaM))
	}
	return check
}

// SizePipe produces a fully sized pipe for the given flow, length and
// category. Identity fields (ID, nodes, direction) are left for the caller.
func (e *Engine) SizePipe(ctx context.Context, flowKgS, lengthM float64, category string) (*Pipe, error) {
	if lengthM <= 0 {
		return nil, fmt.Errorf("%w: %.3g m", ErrInvalidLength, lengthM)
	}

	required, err := e.RequiredDiameter(ctx, flowKgS, category)
	if err != nil {
		return nil, err
	}
	dn, err := e.SelectStandardDiameter(required.RequiredMM)
	if err != nil {
		return nil, err
	}

	p := &Pipe{
		LengthM:        lengthM,
		Category:       category,
		Direction:      DirectionSupply,
		FlowKgS:        flowKgS,
		DiameterMM:     dn,
		Material:       e.pipes.DefaultMaterial,
		Insulated:      e.pipes.Insulated,
		SizingFallback: required.Fallback,
	}
	e.Refresh(p)
	return p, nil
}

// Refresh re-derives velocity, pressure drop, cost and compliance after the
// pipe's diameter changed. This is the single mutation path for derived
// fields.
func (e *Engine) Refresh(p *Pipe) {
	v, grad, fallback, err := e.Hydraulics(p.FlowKgS, p.DiameterMM)
	if err == nil {
		p.VelocityMS = v
		p.PressureDropPaM = grad
		if fallback {
			p.SizingFallback = true
		}
	}
	p.Cost = e.PipeCost(p.DiameterMM, p.LengthM, p.Material, p.Insulated)

	check := e.ValidateConstraints(p)
	p.Compliant = check.Compliant
	p.Violations = check.Violations
}

// PipeCost computes installed cost for one pipe leg. Trench cost is a
// network-level quantity (supply and return share the trench) and is not
// included here.
func (e *Engine) PipeCost(diameterMM, lengthM float64, material string, insulated bool) float64 {
	factor, ok := e.cost.MaterialFactors[material]
	if !ok {
		factor = 1.0
	}
	c := lengthM * (e.cost.BasePerM + e.cost.PerMMPerM*diameterMM) * factor * e.cost.InstallFactor
	if insulated {
		c *= e.cost.InsulationFactor
	}
	return c
}

// TrenchCost computes the shared civil cost for one route meter times length.
func (e *Engine) TrenchCost(lengthM float64) float64 {
	return lengthM * e.cost.TrenchPerM
}
