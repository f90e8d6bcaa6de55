package analysis

import "math"

// Metric is a numeric result that may be undefined (IRR with no bracketing
// root, payback never reached). Undefined is a value, not an error.
type Metric struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// IRR solver bounds. Rates are searched in [-0.99, 10] (i.e. -99% to
// 1000% annual return); anything outside is economically meaningless here.
const (
	irrRateLow  = -0.99
	irrRateHigh = 10.0
	irrMaxIter  = 100
	irrTol      = 1e-7
)

// npv discounts a cash-flow series: flows[0] at year 0 (undiscounted),
// flows[t] at the end of year t.
func npv(rate float64, flows []float64) float64 {
	total := 0.0
	for t, f := range flows {
		total += f / math.Pow(1+rate, float64(t))
	}
	return total
}

// irr finds the discount rate at which the series' NPV is zero, by bounded
// bisection. If the NPV does not change sign across the search interval the
// result is reported undefined rather than raised as an error.
func irr(flows []float64) Metric {
	lo, hi := irrRateLow, irrRateHigh
	fLo, fHi := npv(lo, flows), npv(hi, flows)
	if fLo == 0 {
		return Metric{Value: lo, Defined: true}
	}
	if fHi == 0 {
		return Metric{Value: hi, Defined: true}
	}
	if fLo*fHi > 0 {
		return Metric{}
	}

	for i := 0; i < irrMaxIter; i++ {
		mid := (lo + hi) / 2
		fMid := npv(mid, flows)
		if math.Abs(fMid) < irrTol || (hi-lo)/2 < irrTol {
			return Metric{Value: mid, Defined: true}
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo = mid
			fLo = fMid
		}
	}
	return Metric{Value: (lo + hi) / 2, Defined: true}
}

// payback returns the first year in which the cumulative series reaches
// zero or better, undefined if it never does.
func payback(flows []float64) Metric {
	cumulative := 0.0
	for t, f := range flows {
		cumulative += f
		if cumulative >= 0 {
			return Metric{Value: float64(t), Defined: true}
		}
	}
	return Metric{}
}
