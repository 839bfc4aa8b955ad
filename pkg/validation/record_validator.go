package validation

import (
	"go-nutrition-scanner/pkg/models"
)

// RecordThresholds defines the acceptable value ranges for extracted nutrients
type RecordThresholds struct {
	// Nutrient value bounds (per-serving, label units)
	MinNutrientValue float64
	MaxNutrientValue float64
}

// DefaultRecordThresholds returns the default thresholds. The bounds match
// the range filter applied during extraction, so a record that passed
// extraction always validates cleanly.
func DefaultRecordThresholds() RecordThresholds {
	return RecordThresholds{
		MinNutrientValue: 0,
		MaxNutrientValue: 1000,
	}
}

// RecordIssue represents one problem found in a nutrition record
type RecordIssue struct {
	Field       string  `json:"field"`
	Message     string  `json:"message"`
	ActualValue float64 `json:"actual_value"`
}

// RecordValidator checks extracted or manually entered nutrition records
type RecordValidator struct {
	thresholds RecordThresholds
}

// NewRecordValidator creates a record validator with default thresholds
func NewRecordValidator() *RecordValidator {
	return &RecordValidator{
		thresholds: DefaultRecordThresholds(),
	}
}

// NewRecordValidatorWithThresholds creates a record validator with custom thresholds
func NewRecordValidatorWithThresholds(thresholds RecordThresholds) *RecordValidator {
	return &RecordValidator{
		thresholds: thresholds,
	}
}

// Validate returns the out-of-range fields of a record. Absent fields are
// fine; only present values are checked.
func (v *RecordValidator) Validate(record *models.NutritionRecord) []RecordIssue {
	var issues []RecordIssue
	for _, key := range models.NutrientKeys {
		if key == "serving_size_unit" {
			continue
		}
		value, ok := record.Get(key)
		if !ok {
			continue
		}
		if value < v.thresholds.MinNutrientValue {
			issues = append(issues, RecordIssue{
				Field:       key,
				Message:     "value below allowed minimum",
				ActualValue: value,
			})
		} else if value > v.thresholds.MaxNutrientValue {
			issues = append(issues, RecordIssue{
				Field:       key,
				Message:     "value above allowed maximum",
				ActualValue: value,
			})
		}
	}
	return issues
}

// Sanitize drops out-of-range values from a record and returns the issues
// that were found. Used for manual entry, where a typo should not poison the
// scoring features.
func (v *RecordValidator) Sanitize(record *models.NutritionRecord) []RecordIssue {
	issues := v.Validate(record)
	for _, issue := range issues {
		record.Clear(issue.Field)
	}
	return issues
}
