package network

import (
	"sort"

	"github.com/ijhewaratne/heatgrid/pkg/sizing"
)

// CategoryStats aggregates one pipe category across both legs.
type CategoryStats struct {
	Count   int     `json:"count"`
	LengthM float64 `json:"length_m"`
	Cost    float64 `json:"cost"`
}

// Statistics summarizes a sized network. Pipe quantities count both legs;
// trench quantities count the shared route once.
type Statistics struct {
	PerCategory       map[string]CategoryStats `json:"per_category"`
	DiameterHistogram map[int]int              `json:"diameter_histogram_mm"`
	TotalPipeLengthM  float64                  `json:"total_pipe_length_m"`
	TrenchLengthM     float64                  `json:"trench_length_m"`
	TotalPipeCost     float64                  `json:"total_pipe_cost"`
	TrenchCost        float64                  `json:"trench_cost"`
	TotalCost         float64                  `json:"total_cost"`
}

// SizingSummary collects the per-entity outcomes of a build.
type SizingSummary struct {
	SizedSegments   int      `json:"sized_segments"`
	DroppedSegments int      `json:"dropped_segments"`
	FailedSegments  int      `json:"failed_segments"`
	Fallbacks       int      `json:"fallbacks"`
	Warnings        []string `json:"warnings,omitempty"`
}

// RecomputeStatistics rebuilds the aggregate statistics from the current
// pipe set. Call after any diameter change.
func (n *Network) RecomputeStatistics(e *sizing.Engine) {
	stats := Statistics{
		PerCategory:       make(map[string]CategoryStats),
		DiameterHistogram: make(map[int]int),
	}

	for _, p := range n.Pipes() {
		cs := stats.PerCategory[p.Category]
		cs.Count++
		cs.LengthM += p.LengthM
		cs.Cost += p.Cost
		stats.PerCategory[p.Category] = cs

		stats.DiameterHistogram[int(p.DiameterMM)]++
		stats.TotalPipeLengthM += p.LengthM
		stats.TotalPipeCost += p.Cost
	}

	// Supply and return share the trench: count route meters once.
	for _, p := range n.SupplyPipes {
		stats.TrenchLengthM += p.LengthM
	}
	stats.TrenchCost = e.TrenchCost(stats.TrenchLengthM)
	stats.TotalCost = stats.TotalPipeCost + stats.TrenchCost

	n.Statistics = stats
}

// SizingReport is the aggregate compliance view over a sized network.
type SizingReport struct {
	TotalPipes     int      `json:"total_pipes"`
	CompliantPipes int      `json:"compliant_pipes"`
	ComplianceRate float64  `json:"compliance_rate"`
	ViolatingIDs   []string `json:"violating_ids,omitempty"`
	Violations     []string `json:"violations,omitempty"`
}

// ValidateSizing recomputes compliance for every pipe from first principles
// and reports the fraction compliant plus the violating pipe ids.
func (n *Network) ValidateSizing(e *sizing.Engine) SizingReport {
	report := SizingReport{}
	for _, p := range n.Pipes() {
		report.TotalPipes++
		check := e.ValidateConstraints(p)
		if check.Compliant {
			report.CompliantPipes++
			continue
		}
		report.ViolatingIDs = append(report.ViolatingIDs, p.ID)
		report.Violations = append(report.Violations, check.Violations...)
	}
	if report.TotalPipes > 0 {
		report.ComplianceRate = float64(report.CompliantPipes) / float64(report.TotalPipes)
	} else {
		report.ComplianceRate = 1
	}
	sort.Strings(report.ViolatingIDs)
	return report
}
