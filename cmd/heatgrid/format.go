package main

import (
	"fmt"

	"github.com/ijhewaratne/heatgrid/pkg/analysis"
	"github.com/ijhewaratne/heatgrid/pkg/network"
	"github.com/ijhewaratne/heatgrid/pkg/validation"
)

func printValidationReport(r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Printf("ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Printf("  [%s] %s\n", e.Level, e.Message)
			if e.SpecPath != "" {
				fmt.Printf("    -> %s = %v\n", e.SpecPath, e.ActualValue)
			}
			if e.Expected != "" {
				fmt.Printf("    expected: %s\n", e.Expected)
			}
			for _, s := range e.Suggestions {
				fmt.Printf("    * %s\n", s)
			}
		}
		fmt.Println()
	}

	if len(r.Warnings) > 0 {
		fmt.Printf("WARNINGS (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Printf("  [%s] %s\n", w.Level, w.Message)
			if w.SpecPath != "" {
				fmt.Printf("    -> %s = %v\n", w.SpecPath, w.ActualValue)
			}
			for _, s := range w.Suggestions {
				fmt.Printf("    * %s\n", s)
			}
		}
		fmt.Println()
	}

	if len(r.Info) > 0 {
		fmt.Printf("INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Printf("  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Println()
	}

	if r.Valid {
		fmt.Printf("Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Printf("Result: INVALID (%s)\n", r.Summary)
	}
}

func printCostBenefit(r *analysis.CostBenefitResult) {
	fmt.Println("Cost-Benefit Analysis (sized vs uniform baseline)")
	fmt.Println("=================================================")
	fmt.Println()

	fmt.Printf("  CAPEX sized:            %s\n", formatMoney(r.Impact.CapexSized))
	fmt.Printf("  CAPEX uniform (DN%.0f):  %s\n", r.Impact.UniformDiamMM, formatMoney(r.Impact.CapexUniform))
	fmt.Printf("  CAPEX delta:            %s (%.1f%%)  [%s]\n",
		formatMoney(r.Impact.Delta), r.Impact.DeltaPct, r.Impact.Verdict)
	fmt.Println()
	fmt.Printf("  Pump energy sized:      %.0f kWh/a\n", r.PumpEnergySizedKWh)
	fmt.Printf("  Pump energy uniform:    %.0f kWh/a\n", r.PumpEnergyUniformKWh)
	fmt.Printf("  OPEX savings:           %s/a\n", formatMoney(r.OpexSavingsAnnual))
	fmt.Println()
	fmt.Printf("  NPV:                    %s\n", formatMoney(r.NPV))
	fmt.Printf("  IRR:                    %s\n", formatMetric(r.IRR, "%.1f%%", 100))
	fmt.Printf("  Payback:                %s\n", formatMetric(r.PaybackYears, "year %.0f", 1))
	fmt.Printf("  Benefit-cost ratio:     %s\n", formatMetric(r.BenefitCostRatio, "%.2f", 1))
	fmt.Printf("  Hydraulic score:        %+.0f pp\n", r.HydraulicScore)

	if len(r.Recommendations) > 0 {
		fmt.Println()
		fmt.Println("Recommendations")
		fmt.Println("---------------")
		for _, rec := range r.Recommendations {
			fmt.Printf("  * %s\n", rec)
		}
	}
}

func printSizingReport(r network.SizingReport) {
	fmt.Println("Compliance")
	fmt.Println("----------")
	fmt.Printf("  Pipes compliant:        %d of %d (%.0f%%)\n",
		r.CompliantPipes, r.TotalPipes, r.ComplianceRate*100)
	for _, v := range r.Violations {
		fmt.Printf("  ! %s\n", v)
	}
}

func formatMetric(m analysis.Metric, format string, scale float64) string {
	if !m.Defined {
		return "undefined"
	}
	return fmt.Sprintf(format, m.Value*scale)
}

func formatMoney(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if v >= 1_000_000_000 {
		return fmt.Sprintf("%s%.2fB", sign, v/1_000_000_000)
	}
	if v >= 1_000_000 {
		return fmt.Sprintf("%s%.2fM", sign, v/1_000_000)
	}
	if v >= 1_000 {
		return fmt.Sprintf("%s%.0fK", sign, v/1_000)
	}
	return fmt.Sprintf("%s%.0f", sign, v)
}
