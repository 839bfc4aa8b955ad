package preprocess

import (
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"go-nutrition-scanner/internal/logger"
)

// blurThreshold is the Laplacian variance below which a label photo is
// unlikely to OCR well.
const blurThreshold = 100.0

// Exposure bounds on mean gray level. Outside them the thresholding stage
// tends to wash out either the text or the background.
const (
	minBrightness = 40.0
	maxBrightness = 220.0
)

// laplacianResponses convolves the 3x3 Laplacian kernel over a grayscale
// buffer. Strong responses mean sharp edges.
func laplacianResponses(gray []uint8, width, height int) []float64 {
	if width < 3 || height < 3 || len(gray) < width*height {
		return nil
	}

	kernel := [3][3]int{{0, 1, 0}, {1, -4, 1}, {0, 1, 0}}
	responses := make([]float64, 0, (width-2)*(height-2))

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			var val int
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					pixel := int(gray[(y+ky)*width+(x+kx)])
					val += pixel * kernel[ky+1][kx+1]
				}
			}
			responses = append(responses, float64(val))
		}
	}
	return responses
}

// LaplacianVariance measures focus on a grayscale buffer. Low variance means
// few sharp edges, i.e. a blurry photo.
func LaplacianVariance(gray []uint8, width, height int) float64 {
	responses := laplacianResponses(gray, width, height)
	if len(responses) == 0 {
		return 0
	}
	return stat.Variance(responses, nil)
}

// Brightness is the mean gray level of a buffer.
func Brightness(gray []uint8) float64 {
	if len(gray) == 0 {
		return 0
	}
	values := make([]float64, len(gray))
	for i, p := range gray {
		values[i] = float64(p)
	}
	return stat.Mean(values, nil)
}

// CheckFocus logs warnings for blurry or badly exposed input so degraded
// extractions can be traced back to the photo rather than the pipeline.
// It never fails the run.
func CheckFocus(src gocv.Mat, branch string) float64 {
	gray := gocv.NewMat()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	defer gray.Close()

	data, err := gray.DataPtrUint8()
	if err != nil {
		return 0
	}

	variance := LaplacianVariance(data, gray.Cols(), gray.Rows())
	if variance < blurThreshold {
		logger.WithField("branch", branch).
			WithField("laplacian_variance", variance).
			Warn("Input image appears blurry; OCR accuracy may degrade")
	}

	brightness := Brightness(data)
	if brightness < minBrightness || brightness > maxBrightness {
		logger.WithField("branch", branch).
			WithField("brightness", brightness).
			Warn("Input image appears badly exposed; OCR accuracy may degrade")
	}

	return variance
}
