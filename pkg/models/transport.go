package models

// IngredientsPayload is the ingredients half of an analysis response.
type IngredientsPayload struct {
	RawData []string `json:"raw_data"`
	Score   float64  `json:"score"`
}

// NutritionPayload is the nutrition half of an analysis response.
type NutritionPayload struct {
	Data  NutritionRecord `json:"data"`
	Score float64         `json:"score"`
}

// AnalysisResponse is the wire shape returned for a successful scoring run.
// HistoryID is null when persistence failed; the computed result is still
// returned in that case.
type AnalysisResponse struct {
	Success         bool               `json:"success"`
	HistoryID       *int64             `json:"history_id"`
	Ingredients     IngredientsPayload `json:"ingredients"`
	Nutrition       NutritionPayload   `json:"nutrition"`
	TotalScore      float64            `json:"total_score"`
	AnalysisSummary string             `json:"analysis_summary"`
	Timestamp       string             `json:"timestamp"`
}

// ManualEntryRequest is the OCR-bypassing input path: a comma-separated
// ingredients string plus nutrient values entered directly.
type ManualEntryRequest struct {
	IngredientsText string          `json:"ingredients_text" binding:"required"`
	NutritionData   NutritionRecord `json:"nutrition_data"`
}

// HistoryResponse wraps a history query result.
type HistoryResponse struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	History []HistoryRecord `json:"history"`
}

// ErrorResponse is the uniform failure shape.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
