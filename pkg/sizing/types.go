package sizing

import "errors"

var (
	// ErrInvalidFlow indicates a non-positive design flow.
	ErrInvalidFlow = errors.New("sizing: flow rate must be > 0")
	// ErrInvalidLength indicates a non-positive pipe length.
	ErrInvalidLength = errors.New("sizing: pipe length must be > 0")
	// ErrUnknownCategory indicates a category with no configured bounds.
	ErrUnknownCategory = errors.New("sizing: unknown pipe category")
	// ErrConvergence indicates an iterative solver exhausted its step budget.
	ErrConvergence = errors.New("sizing: iteration did not converge")
	// ErrOutOfRange indicates a required diameter beyond the standard set.
	ErrOutOfRange = errors.New("sizing: required diameter exceeds largest standard diameter")
)

// Flow direction of a pipe in the dual network.
const (
	DirectionSupply = "supply"
	DirectionReturn = "return"
)

// Pipe is the core sized-segment record. It is created by the network
// builder, sized here, refined by the resize loop, and read-only afterwards.
// Velocity and pressure drop are always derived from (flow, diameter, fluid);
// they are never set independently.
type Pipe struct {
	ID              string   `json:"id"`
	FromNode        string   `json:"from_node"`
	ToNode          string   `json:"to_node"`
	LengthM         float64  `json:"length_m"`
	Category        string   `json:"category"`
	Direction       string   `json:"direction"`
	FlowKgS         float64  `json:"flow_kg_s"`
	DiameterMM      float64  `json:"diameter_mm"`
	VelocityMS      float64  `json:"velocity_m_s"`
	PressureDropPaM float64  `json:"pressure_drop_pa_m"`
	Material        string   `json:"material"`
	Insulated       bool     `json:"insulated"`
	Cost            float64  `json:"cost"`
	Compliant       bool     `json:"compliant"`
	Violations      []string `json:"violations,omitempty"`
	SizingFallback  bool     `json:"sizing_fallback,omitempty"`
}

// DiameterResult reports the required diameter and which bound governed.
type DiameterResult struct {
	RequiredMM      float64 `json:"required_mm"`
	VelocityBoundMM float64 `json:"velocity_bound_mm"`
	PressureBoundMM float64 `json:"pressure_bound_mm"`
	GoverningBound  string  `json:"governing_bound"` // "velocity" or "pressure"
	Fallback        bool    `json:"fallback"`
}

// ConstraintCheck is the result of recomputing a pipe's hydraulics from
// first principles and comparing against its category bounds.
type ConstraintCheck struct {
	Compliant       bool     `json:"compliant"`
	VelocityMS      float64  `json:"velocity_m_s"`
	PressureDropPaM float64  `json:"pressure_drop_pa_m"`
	Violations      []string `json:"violations,omitempty"`
}
