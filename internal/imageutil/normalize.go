package imageutil

import (
	"bytes"
	"image"
	"log"

	"github.com/disintegration/imaging"
)

// Enhancement tuning for printed-document scans. Contrast and sharpening
// are aimed at text edges; color carries no signal for recognition.
const (
	contrastBoost    = 30
	sharpenSigma     = 1.5
	brightnessAdjust = 10
)

// Normalize prepares raw image bytes for recognition: rescale to the
// recognition bounds, then grayscale, contrast and a sharpening pass tuned
// for text edges.
//
// Normalization is a best-effort optimization, not a correctness
// requirement: on any failure (malformed image, unsupported codec) the
// original bytes are returned unmodified so the pipeline can still attempt
// recognition.
func Normalize(data []byte) []byte {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Printf("Image normalization skipped: %v", err)
		return data
	}

	img = resizeImage(img)
	enhanced := enhanceForRecognition(img)

	out, err := encodeImage(enhanced, format)
	if err != nil {
		log.Printf("Image normalization skipped: %v", err)
		return data
	}
	return out
}

// enhanceForRecognition applies the document enhancement chain: grayscale
// first so the later passes operate on luminance only
func enhanceForRecognition(img image.Image) image.Image {
	enhanced := imaging.Grayscale(img)
	enhanced = imaging.AdjustContrast(enhanced, contrastBoost)
	enhanced = imaging.Sharpen(enhanced, sharpenSigma)
	return imaging.AdjustBrightness(enhanced, brightnessAdjust)
}
