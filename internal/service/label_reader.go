package service

import (
	apperrors "go-nutrition-scanner/internal/errors"
	"go-nutrition-scanner/internal/ocr"
	"go-nutrition-scanner/internal/preprocess"
)

// LabelReader turns raw label photo bytes into recognized text.
type LabelReader interface {
	// ReadIngredients runs a single full-frame OCR pass.
	ReadIngredients(data []byte) (string, error)

	// ReadNutrition runs a full-frame pass plus a bottom-half pass and
	// merges them, full frame first. Nutrition tables usually sit in the
	// lower half of packaging photos and the crop often recovers rows the
	// full pass misses.
	ReadNutrition(data []byte) (string, error)
}

// OCRLabelReader is the production LabelReader: decode, sharpness check,
// enhancement pipeline, Tesseract.
type OCRLabelReader struct {
	engine *ocr.Engine
}

// NewOCRLabelReader creates a label reader over the given OCR engine.
func NewOCRLabelReader(engine *ocr.Engine) *OCRLabelReader {
	return &OCRLabelReader{engine: engine}
}

func (r *OCRLabelReader) ReadIngredients(data []byte) (string, error) {
	src, err := preprocess.Decode(data)
	if err != nil {
		return "", err
	}
	defer src.Close()

	preprocess.CheckFocus(src, "ingredients")

	processed, err := preprocess.Run(src)
	if err != nil {
		return "", err
	}
	defer processed.Close()

	result, err := r.engine.Recognize(processed, ocr.RegionFull)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

func (r *OCRLabelReader) ReadNutrition(data []byte) (string, error) {
	src, err := preprocess.Decode(data)
	if err != nil {
		return "", err
	}
	defer src.Close()

	preprocess.CheckFocus(src, "nutrition")

	processed, err := preprocess.Run(src)
	if err != nil {
		return "", err
	}
	defer processed.Close()

	full, fullErr := r.engine.Recognize(processed, ocr.RegionFull)

	crop := preprocess.BottomHalf(processed)
	defer crop.Close()
	bottom, bottomErr := r.engine.Recognize(crop, ocr.RegionBottomCrop)

	// Either pass alone is enough; empty is fatal only when both are.
	switch {
	case fullErr == nil && bottomErr == nil:
		return ocr.Merge(full, bottom).Text, nil
	case fullErr == nil:
		if !apperrors.IsType(bottomErr, apperrors.ErrorTypeOCREmpty) {
			return "", bottomErr
		}
		return full.Text, nil
	case bottomErr == nil:
		if !apperrors.IsType(fullErr, apperrors.ErrorTypeOCREmpty) {
			return "", fullErr
		}
		return bottom.Text, nil
	default:
		if apperrors.IsType(fullErr, apperrors.ErrorTypeOCREmpty) && apperrors.IsType(bottomErr, apperrors.ErrorTypeOCREmpty) {
			return "", apperrors.NewOCREmptyError("no text detected in nutrition image")
		}
		return "", fullErr
	}
}
