// Package scoring applies the two pretrained models to extracted label data.
// Unlike extraction, scoring has no fallback: a model that cannot load fails
// startup, and a failed inference fails the request.
package scoring

import (
	"fmt"
	"os"
	"strings"
	"sync"

	onnxrt "github.com/yalue/onnxruntime_go"

	apperrors "go-nutrition-scanner/internal/errors"
	"go-nutrition-scanner/internal/logger"
	"go-nutrition-scanner/pkg/models"
)

// ingredientScoreScale maps the raw model output onto the 0-10 scale. The
// result is deliberately not clamped; a model output outside [0,1] will
// exceed 10.
const ingredientScoreScale = 10.0

// nutritionFeatureOrder is the fixed feature vector layout the nutrition
// model was trained on. Absent nutrients contribute zero.
var nutritionFeatureOrder = []string{
	"calories", "protein", "fats", "carbohydrates", "sugar",
	"sodium", "saturated_fat", "trans_fat", "cholesterol",
}

// Config holds artifact paths for the scoring engine.
type Config struct {
	VectorizerPath      string
	IngredientModelPath string
	NutritionModelPath  string
}

type modelSession struct {
	session    *onnxrt.DynamicAdvancedSession
	inputInfo  onnxrt.InputOutputInfo
	outputInfo onnxrt.InputOutputInfo
}

// Engine scores ingredient lists and nutrition records with two
// independently trained models, loaded once at startup. Sessions are
// read-only after construction and safe for concurrent use.
type Engine struct {
	vectorizer      *Vectorizer
	ingredientModel *modelSession
	nutritionModel  *modelSession
	mu              sync.Mutex
	closed          bool
}

// NewEngine loads all three artifacts. Any failure is a ModelUnavailable
// error; the caller is expected to abort startup.
func NewEngine(cfg Config) (*Engine, error) {
	vectorizer, err := LoadVectorizer(cfg.VectorizerPath)
	if err != nil {
		return nil, err
	}

	if err := initRuntime(); err != nil {
		return nil, apperrors.NewModelUnavailableError("ONNX runtime unavailable", err)
	}

	ingredientModel, err := openModel(cfg.IngredientModelPath)
	if err != nil {
		return nil, apperrors.NewModelUnavailableError("ingredient model failed to load", err)
	}
	nutritionModel, err := openModel(cfg.NutritionModelPath)
	if err != nil {
		ingredientModel.close()
		return nil, apperrors.NewModelUnavailableError("nutrition model failed to load", err)
	}

	logger.WithField("vocabulary_size", vectorizer.Size()).
		Info("Scoring models loaded")

	return &Engine{
		vectorizer:      vectorizer,
		ingredientModel: ingredientModel,
		nutritionModel:  nutritionModel,
	}, nil
}

func initRuntime() error {
	if path := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); path != "" {
		onnxrt.SetSharedLibraryPath(path)
	}
	if !onnxrt.IsInitialized() {
		if err := onnxrt.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}
	return nil
}

func openModel(path string) (*modelSession, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", path)
	}

	inputs, outputs, err := onnxrt.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("expected 1 input, got %d", len(inputs))
	}
	if len(outputs) < 1 {
		return nil, fmt.Errorf("expected at least 1 output, got %d", len(outputs))
	}

	sessionOptions, err := onnxrt.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() { _ = sessionOptions.Destroy() }()

	session, err := onnxrt.NewDynamicAdvancedSession(
		path,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		sessionOptions,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &modelSession{
		session:    session,
		inputInfo:  inputs[0],
		outputInfo: outputs[0],
	}, nil
}

func (m *modelSession) close() {
	if m.session != nil {
		_ = m.session.Destroy()
		m.session = nil
	}
}

// run feeds one feature vector through the model and returns the flat output.
func (m *modelSession) run(features []float32) ([]float32, error) {
	inputTensor, err := onnxrt.NewTensor(onnxrt.NewShape(1, int64(len(features))), features)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer func() { _ = inputTensor.Destroy() }()

	outputs := []onnxrt.Value{nil}
	if err := m.session.Run([]onnxrt.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				_ = o.Destroy()
			}
		}
	}()

	floatTensor, ok := outputs[0].(*onnxrt.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("expected float32 output tensor, got %T", outputs[0])
	}
	data := append([]float32(nil), floatTensor.GetData()...)
	if len(data) == 0 {
		return nil, fmt.Errorf("model returned empty output")
	}
	return data, nil
}

// ScoreIngredients joins the list into one string, vectorizes it, and runs
// the ingredient model. The raw output is scaled by 10.
func (e *Engine) ScoreIngredients(ingredients []string) (float64, error) {
	text := strings.Join(ingredients, " ")
	features := e.vectorizer.Transform(text)

	output, err := e.ingredientModel.run(features)
	if err != nil {
		return 0, apperrors.NewInferenceError("ingredient model inference failed", err)
	}
	return float64(output[0]) * ingredientScoreScale, nil
}

// ScoreNutrition builds the fixed 9-feature vector and runs the nutrition
// model. Multi-output models return (health_class, score); only the score,
// the last element, is retained.
func (e *Engine) ScoreNutrition(record models.NutritionRecord) (float64, error) {
	features := NutritionFeatures(record)

	output, err := e.nutritionModel.run(features)
	if err != nil {
		return 0, apperrors.NewInferenceError("nutrition model inference failed", err)
	}
	return float64(output[len(output)-1]), nil
}

// NutritionFeatures flattens a record into the model's training layout.
func NutritionFeatures(record models.NutritionRecord) []float32 {
	features := make([]float32, len(nutritionFeatureOrder))
	for i, key := range nutritionFeatureOrder {
		features[i] = float32(record.ValueOrZero(key))
	}
	return features
}

// Close releases the model sessions.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.ingredientModel.close()
	e.nutritionModel.close()
	return nil
}
