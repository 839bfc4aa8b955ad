package models

import "time"

// ServingUnit is the normalized unit for serving sizes.
type ServingUnit string

const (
	UnitGrams       ServingUnit = "g"
	UnitMilliliters ServingUnit = "ml"
	UnitOunces      ServingUnit = "oz"
)

// NutritionRecord holds the values extracted from a nutrition-facts panel.
// Fields are pointers so that "not found on the label" is distinguishable
// from a genuine zero (e.g. trans fat 0g).
type NutritionRecord struct {
	Calories        *float64 `json:"calories,omitempty"`
	Protein         *float64 `json:"protein,omitempty"`
	Fats            *float64 `json:"fats,omitempty"`
	Carbohydrates   *float64 `json:"carbohydrates,omitempty"`
	Sugar           *float64 `json:"sugar,omitempty"`
	Sodium          *float64 `json:"sodium,omitempty"`
	Fiber           *float64 `json:"fiber,omitempty"`
	ServingSize     *float64 `json:"serving_size,omitempty"`
	ServingSizeUnit string   `json:"serving_size_unit,omitempty"`
	Energy          *float64 `json:"energy,omitempty"`
	SaturatedFat    *float64 `json:"saturated_fat,omitempty"`
	TransFat        *float64 `json:"trans_fat,omitempty"`
	Calcium         *float64 `json:"calcium,omitempty"`
	Iron            *float64 `json:"iron,omitempty"`
	VitaminA        *float64 `json:"vitamin_a,omitempty"`
	VitaminC        *float64 `json:"vitamin_c,omitempty"`
	Cholesterol     *float64 `json:"cholesterol,omitempty"`
}

// NutrientKeys is the closed set of nutrient keys the record schema knows about.
var NutrientKeys = []string{
	"calories", "protein", "fats", "carbohydrates", "sugar", "sodium", "fiber",
	"serving_size", "serving_size_unit", "energy", "saturated_fat", "trans_fat",
	"calcium", "iron", "vitamin_a", "vitamin_c", "cholesterol",
}

// Set assigns a value to the named nutrient. Unknown keys are ignored, which
// is what keeps noisy LLM output from growing the schema at runtime.
func (r *NutritionRecord) Set(key string, value float64) bool {
	v := value
	switch key {
	case "calories":
		r.Calories = &v
	case "protein":
		r.Protein = &v
	case "fats":
		r.Fats = &v
	case "carbohydrates":
		r.Carbohydrates = &v
	case "sugar":
		r.Sugar = &v
	case "sodium":
		r.Sodium = &v
	case "fiber":
		r.Fiber = &v
	case "serving_size":
		r.ServingSize = &v
	case "energy":
		r.Energy = &v
	case "saturated_fat":
		r.SaturatedFat = &v
	case "trans_fat":
		r.TransFat = &v
	case "calcium":
		r.Calcium = &v
	case "iron":
		r.Iron = &v
	case "vitamin_a":
		r.VitaminA = &v
	case "vitamin_c":
		r.VitaminC = &v
	case "cholesterol":
		r.Cholesterol = &v
	default:
		return false
	}
	return true
}

// Get returns the value for the named nutrient and whether it is present.
func (r *NutritionRecord) Get(key string) (float64, bool) {
	var p *float64
	switch key {
	case "calories":
		p = r.Calories
	case "protein":
		p = r.Protein
	case "fats":
		p = r.Fats
	case "carbohydrates":
		p = r.Carbohydrates
	case "sugar":
		p = r.Sugar
	case "sodium":
		p = r.Sodium
	case "fiber":
		p = r.Fiber
	case "serving_size":
		p = r.ServingSize
	case "energy":
		p = r.Energy
	case "saturated_fat":
		p = r.SaturatedFat
	case "trans_fat":
		p = r.TransFat
	case "calcium":
		p = r.Calcium
	case "iron":
		p = r.Iron
	case "vitamin_a":
		p = r.VitaminA
	case "vitamin_c":
		p = r.VitaminC
	case "cholesterol":
		p = r.Cholesterol
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Clear removes the named nutrient from the record.
func (r *NutritionRecord) Clear(key string) {
	switch key {
	case "calories":
		r.Calories = nil
	case "protein":
		r.Protein = nil
	case "fats":
		r.Fats = nil
	case "carbohydrates":
		r.Carbohydrates = nil
	case "sugar":
		r.Sugar = nil
	case "sodium":
		r.Sodium = nil
	case "fiber":
		r.Fiber = nil
	case "serving_size":
		r.ServingSize = nil
	case "serving_size_unit":
		r.ServingSizeUnit = ""
	case "energy":
		r.Energy = nil
	case "saturated_fat":
		r.SaturatedFat = nil
	case "trans_fat":
		r.TransFat = nil
	case "calcium":
		r.Calcium = nil
	case "iron":
		r.Iron = nil
	case "vitamin_a":
		r.VitaminA = nil
	case "vitamin_c":
		r.VitaminC = nil
	case "cholesterol":
		r.Cholesterol = nil
	}
}

// ValueOrZero returns the recorded value, or 0 when the nutrient is absent.
func (r *NutritionRecord) ValueOrZero(key string) float64 {
	v, _ := r.Get(key)
	return v
}

// IsEmpty reports whether no numeric nutrient was extracted at all.
func (r *NutritionRecord) IsEmpty() bool {
	for _, key := range NutrientKeys {
		if key == "serving_size_unit" {
			continue
		}
		if _, ok := r.Get(key); ok {
			return false
		}
	}
	return true
}

// ScoreBundle holds the two model scores. TotalScore is derived, never stored.
type ScoreBundle struct {
	IngredientsScore float64 `json:"ingredients_score"`
	NutritionScore   float64 `json:"nutrition_score"`
}

// TotalScore is the fixed combination rule for the two model outputs.
// The nutrition model's native scale is intentionally not capped before
// halving; see the scoring engine docs before changing this.
func (s ScoreBundle) TotalScore() float64 {
	return s.IngredientsScore + s.NutritionScore/2
}

// HistoryRecord is one persisted pipeline run.
type HistoryRecord struct {
	ID              int64           `json:"id"`
	UserID          string          `json:"user_id"`
	Scores          ScoreBundle     `json:"scores"`
	TotalScore      float64         `json:"total_score"`
	Nutrition       NutritionRecord `json:"nutrition_data"`
	Ingredients     []string        `json:"ingredients_data"`
	AnalysisSummary string          `json:"analysis_summary,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
