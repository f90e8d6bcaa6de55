// Package standards evaluates sized pipes and networks against named
// engineering-standard constraint profiles. Profiles are independent: a
// failing profile never blocks evaluation of the others.
package standards

import (
	"fmt"
	"sort"

	"github.com/ijhewaratne/heatgrid/pkg/network"
	"github.com/ijhewaratne/heatgrid/pkg/sizing"
	"github.com/ijhewaratne/heatgrid/pkg/spec"
)

// Violation names one exceeded bound on one pipe.
type Violation struct {
	PipeID   string  `json:"pipe_id"`
	Quantity string  `json:"quantity"` // "velocity" or "pressure_drop"
	Actual   float64 `json:"actual"`
	Bound    float64 `json:"bound"`
	Message  string  `json:"message"`
}

// ProfileResult is one profile's verdict over a pipe or network.
type ProfileResult struct {
	Profile    string      `json:"profile"`
	Compliant  bool        `json:"compliant"`
	Checked    int         `json:"checked"`
	Violations []Violation `json:"violations,omitempty"`
}

// Validator checks pipes against configured constraint profiles using
// first-principles hydraulics from the sizing engine.
type Validator struct {
	engine   *sizing.Engine
	profiles map[string]spec.ConstraintProfile
}

// NewValidator builds a validator over the spec's constraint profiles.
func NewValidator(engine *sizing.Engine, profiles map[string]spec.ConstraintProfile) *Validator {
	return &Validator{engine: engine, profiles: profiles}
}

// ProfileNames returns the configured profile names in sorted order.
func (v *Validator) ProfileNames() []string {
	names := make([]string, 0, len(v.profiles))
	for name := range v.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EvaluatePipe checks one pipe against every configured profile.
func (v *Validator) EvaluatePipe(p *sizing.Pipe) []ProfileResult {
	results := make([]ProfileResult, 0, len(v.profiles))
	for _, name := range v.ProfileNames() {
		result := ProfileResult{Profile: name, Compliant: true}
		v.checkPipe(v.profiles[name], p, &result)
		results = append(results, result)
	}
	return results
}

// EvaluateNetwork checks every pipe of the network against every profile.
func (v *Validator) EvaluateNetwork(net *network.Network) []ProfileResult {
	results := make([]ProfileResult, 0, len(v.profiles))
	for _, name := range v.ProfileNames() {
		result := ProfileResult{Profile: name, Compliant: true}
		for _, p := range net.Pipes() {
			v.checkPipe(v.profiles[name], p, &result)
		}
		results = append(results, result)
	}
	return results
}

// checkPipe evaluates one pipe against one profile. Categories the profile
// does not constrain are skipped, not failed.
func (v *Validator) checkPipe(profile spec.ConstraintProfile, p *sizing.Pipe, result *ProfileResult) {
	bounds, ok := profile[p.Category]
	if !ok {
		return
	}
	result.Checked++

	velocity, grad, _, err := v.engine.Hydraulics(p.FlowKgS, p.DiameterMM)
	if err != nil {
		result.Compliant = false
		result.Violations = append(result.Violations, Violation{
			PipeID:  p.ID,
			Message: fmt.Sprintf("pipe %s: %v", p.ID, err),
		})
		return
	}

	if velocity > bounds.MaxVelocityMS {
		result.Compliant = false
		result.Violations = append(result.Violations, Violation{
			PipeID:   p.ID,
			Quantity: "velocity",
			Actual:   velocity,
			Bound:    bounds.MaxVelocityMS,
			Message: fmt.Sprintf("pipe %s: velocity %.2f m/s exceeds max %.2f m/s",
				p.ID, velocity, bounds.MaxVelocityMS),
		})
	}
	if velocity < bounds.MinVelocityMS {
		result.Compliant = false
		result.Violations = append(result.Violations, Violation{
			PipeID:   p.ID,
			Quantity: "velocity",
			Actual:   velocity,
			Bound:    bounds.MinVelocityMS,
			Message: fmt.Sprintf("pipe %s: velocity %.2f m/s below min %.2f m/s",
				p.ID, velocity, bounds.MinVelocityMS),
		})
	}
	if grad > bounds.MaxPressureDropPaM {
		result.Compliant = false
		result.Violations = append(result.Violations, Violation{
			PipeID:   p.ID,
			Quantity: "pressure_drop",
			Actual:   grad,
			Bound:    bounds.MaxPressureDropPaM,
			Message: fmt.Sprintf("pipe %s: pressure drop %.1f Pa/m exceeds max %.1f Pa/m",
				p.ID, grad, bounds.MaxPressureDropPaM),
		})
	}
}
