// Package preprocess turns a raw packaging photo into a binary image
// optimized for text detection.
package preprocess

import (
	"image"

	"gocv.io/x/gocv"

	apperrors "go-nutrition-scanner/internal/errors"
)

// Decode decodes raw image bytes into a color Mat. The caller owns the Mat.
func Decode(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.NewMat(), apperrors.NewImageDecodeError("empty image payload", nil)
	}
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.NewMat(), apperrors.NewImageDecodeError("unable to decode image", err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), apperrors.NewImageDecodeError("unable to decode image", nil)
	}
	return mat, nil
}

// Run applies the fixed enhancement pipeline: grayscale, non-local-means
// denoise, CLAHE contrast equalization, Otsu AND adaptive thresholding,
// then a morphological closing to reconnect broken glyph strokes.
// The caller owns the returned binary Mat.
func Run(src gocv.Mat) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.NewMat(), apperrors.NewImageDecodeError("empty source image", nil)
	}

	gray := gocv.NewMat()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	defer gray.Close()

	denoised := gocv.NewMat()
	gocv.FastNlMeansDenoising(gray, &denoised)
	defer denoised.Close()

	clahe := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
	defer clahe.Close()
	enhanced := gocv.NewMat()
	clahe.Apply(denoised, &enhanced)
	defer enhanced.Close()

	// Global-optimal and local-adaptive thresholds disagree on uneven
	// lighting; ANDing them keeps only pixels both consider foreground.
	otsu := gocv.NewMat()
	gocv.Threshold(enhanced, &otsu, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	defer otsu.Close()

	adaptive := gocv.NewMat()
	gocv.AdaptiveThreshold(enhanced, &adaptive, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, 11, 2)
	defer adaptive.Close()

	combined := gocv.NewMat()
	gocv.BitwiseAnd(otsu, adaptive, &combined)
	defer combined.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(2, 2))
	defer kernel.Close()
	closed := gocv.NewMat()
	gocv.MorphologyEx(combined, &closed, gocv.MorphClose, kernel)

	return closed, nil
}

// BottomHalf returns a copy of the lower half of the image. Nutrition tables
// are conventionally printed there, so the OCR adapter runs a second pass
// over this crop. The caller owns the returned Mat.
func BottomHalf(src gocv.Mat) gocv.Mat {
	rect := bottomHalfRect(src.Cols(), src.Rows())
	region := src.Region(rect)
	defer region.Close()
	return region.Clone()
}

func bottomHalfRect(cols, rows int) image.Rectangle {
	return image.Rect(0, rows/2, cols, rows)
}

// EncodePNG serializes a Mat for engines that consume image bytes.
func EncodePNG(m gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, m)
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, nil
}
