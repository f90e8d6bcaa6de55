package sizing

// Solver bounds and unit conversions for the hydraulic relations.
const (
	// Friction-factor fixed point (Colebrook-White).
	maxFrictionIter = 25
	frictionTol     = 1e-6

	// Pressure-bound diameter fixed point.
	maxDiameterIter = 30
	diameterTolM    = 1e-5

	// Below this Reynolds number the flow is laminar and f = 64/Re.
	laminarReLimit = 2300.0

	mmPerM = 1000.0
)
