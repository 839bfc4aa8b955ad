package validation

import (
	"testing"

	"go-nutrition-scanner/pkg/models"
)

func TestRecordValidatorAcceptsInRangeValues(t *testing.T) {
	validator := NewRecordValidator()

	var record models.NutritionRecord
	record.Set("calories", 120)
	record.Set("trans_fat", 0)
	record.Set("sodium", 1000)

	if issues := validator.Validate(&record); len(issues) != 0 {
		t.Errorf("Validate() = %v, want no issues", issues)
	}
}

func TestRecordValidatorIgnoresAbsentFields(t *testing.T) {
	validator := NewRecordValidator()

	var record models.NutritionRecord
	if issues := validator.Validate(&record); len(issues) != 0 {
		t.Errorf("Validate(empty) = %v, want no issues", issues)
	}
}

func TestRecordValidatorFlagsOutOfRange(t *testing.T) {
	validator := NewRecordValidator()

	var record models.NutritionRecord
	record.Set("sugar", 5000)
	record.Set("protein", -1)

	issues := validator.Validate(&record)
	if len(issues) != 2 {
		t.Fatalf("Validate() found %d issues, want 2: %v", len(issues), issues)
	}
}

func TestRecordValidatorSanitizeDropsBadValues(t *testing.T) {
	validator := NewRecordValidator()

	var record models.NutritionRecord
	record.Set("calories", 120)
	record.Set("sugar", 5000)

	issues := validator.Sanitize(&record)
	if len(issues) != 1 {
		t.Fatalf("Sanitize() found %d issues, want 1", len(issues))
	}
	if _, ok := record.Get("sugar"); ok {
		t.Error("out-of-range value should have been dropped")
	}
	if got, _ := record.Get("calories"); got != 120 {
		t.Errorf("calories = %v, in-range value must survive", got)
	}
}

func TestRecordValidatorCustomThresholds(t *testing.T) {
	validator := NewRecordValidatorWithThresholds(RecordThresholds{
		MinNutrientValue: 0,
		MaxNutrientValue: 100,
	})

	var record models.NutritionRecord
	record.Set("calories", 120)

	if issues := validator.Validate(&record); len(issues) != 1 {
		t.Errorf("Validate() = %v, want the tighter bound to flag calories", issues)
	}
}
