package validation

import (
	"testing"

	"github.com/ijhewaratne/heatgrid/pkg/spec"
)

func defaultSpec() *spec.NetworkSpec {
	var s spec.NetworkSpec
	s.ApplyDefaults()
	return &s
}

func TestValidateSchemaDefaultSpec(t *testing.T) {
	report := ValidateSchema(defaultSpec())
	if !report.Valid {
		t.Fatalf("default spec should validate, got: %+v", report.Errors)
	}
}

func TestValidateSchemaInvertedTemperatures(t *testing.T) {
	s := defaultSpec()
	s.Design.SupplyTempC = 50
	s.Design.ReturnTempC = 80

	report := ValidateSchema(s)
	if report.Valid {
		t.Fatal("expected invalid report for negative delta-T")
	}
	if !hasErrorAt(report, "design") {
		t.Errorf("expected error at design, got %+v", report.Errors)
	}
}

func TestValidateSchemaUnsortedDiameters(t *testing.T) {
	s := defaultSpec()
	s.Pipes.StandardDiametersMM = []float64{50, 40, 80}

	report := ValidateSchema(s)
	if report.Valid {
		t.Fatal("expected invalid report for non-ascending diameters")
	}
}

func TestValidateSchemaMissingCategory(t *testing.T) {
	s := defaultSpec()
	delete(s.Categories, spec.CategoryMain)

	report := ValidateSchema(s)
	if report.Valid {
		t.Fatal("expected invalid report for missing main category")
	}
}

func TestValidateSchemaBadEconomics(t *testing.T) {
	s := defaultSpec()
	s.Economics.PumpEfficiency = 1.5
	s.Economics.DiscountRate = 1.2

	report := ValidateSchema(s)
	if report.Valid {
		t.Fatal("expected invalid report for bad economics")
	}
	if len(report.Errors) < 2 {
		t.Errorf("expected both economics errors, got %d", len(report.Errors))
	}
}

func TestValidateSchemaBadProfileBounds(t *testing.T) {
	s := defaultSpec()
	s.Profiles["strict"] = spec.ConstraintProfile{
		spec.CategoryService: {MaxVelocityMS: 1.0, MinVelocityMS: 2.0, MaxPressureDropPaM: 100},
	}

	report := ValidateSchema(s)
	if report.Valid {
		t.Fatal("expected invalid report for min velocity above max")
	}
}

func TestReportMerge(t *testing.T) {
	a := NewReport()
	a.AddWarning(Result{Level: LevelSchema, Message: "w"})

	b := NewReport()
	b.AddError(Result{Level: LevelAnalytical, Message: "e"})

	a.Merge(b)
	if a.Valid {
		t.Error("merged report should be invalid")
	}
	if len(a.Warnings) != 1 || len(a.Errors) != 1 {
		t.Errorf("merge lost results: %d warnings, %d errors", len(a.Warnings), len(a.Errors))
	}
	if a.Summary != "1 errors, 1 warnings, 0 info" {
		t.Errorf("summary = %q", a.Summary)
	}
}

func hasErrorAt(r *Report, specPath string) bool {
	for _, e := range r.Errors {
		if e.SpecPath == specPath {
			return true
		}
	}
	return false
}
