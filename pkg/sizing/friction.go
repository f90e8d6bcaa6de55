package sizing

import (
	"fmt"
	"math"
)

// frictionFactor solves the Darcy friction factor for the given Reynolds
// number and relative roughness (epsilon/D).
//
// Laminar flow uses f = 64/Re directly. Turbulent flow solves the
// Colebrook-White relation
//
//	1/sqrt(f) = -2 log10(rel/3.7 + 2.51/(Re sqrt(f)))
//
// by fixed-point iteration on x = 1/sqrt(f), seeded with the closed-form
// Swamee-Jain approximation. The iteration is bounded; exhausting the step
// budget, or an iterate leaving the positive domain, returns ErrConvergence
// with the last valid iterate so callers can fall back explicitly instead of
// using a silently wrong value.
func frictionFactor(re, relRough float64) (float64, error) {
	if re <= 0 {
		return 0, fmt.Errorf("%w: Reynolds number %.3g", ErrInvalidFlow, re)
	}
	if re < laminarReLimit {
		return 64 / re, nil
	}

	// Swamee-Jain seed.
	f := 0.25 / math.Pow(math.Log10(relRough/3.7+5.74/math.Pow(re, 0.9)), 2)
	x := 1 / math.Sqrt(f)

	for i := 0; i < maxFrictionIter; i++ {
		next := -2 * math.Log10(relRough/3.7+2.51*x/re)
		if next <= 0 || math.IsNaN(next) {
			// x = 1/sqrt(f) must stay positive; an iterate at or below zero
			// means the relation has no physical root for these inputs.
			return 1 / (x * x), fmt.Errorf("%w: friction iterate %.3g outside physical range (Re=%.3g, relative roughness %.3g)",
				ErrConvergence, next, re, relRough)
		}
		if math.Abs(next-x) < frictionTol {
			return 1 / (next * next), nil
		}
		x = next
	}
	return 1 / (x * x), fmt.Errorf("%w: friction factor after %d steps (Re=%.3g)", ErrConvergence, maxFrictionIter, re)
}
