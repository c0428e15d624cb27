package imageutil

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// Recognition bounds. Oversized scans blow out recognition latency;
// undersized ones lose glyph detail the recognizer needs.
const (
	// MaxDimension is the largest width or height passed to recognition
	MaxDimension = 3000

	// MinDimension marks an undersized scan when both sides are below it
	MinDimension = 800

	// UpscaleTarget is the longer-side target when enlarging an undersized scan
	UpscaleTarget = 1200
)

// fitDimensions computes the target size for a decoded image, preserving
// aspect ratio. Returns the original size when no resize is needed.
func fitDimensions(width, height int) (int, int) {
	if width > MaxDimension || height > MaxDimension {
		if width > height {
			return MaxDimension, height * MaxDimension / width
		}
		return width * MaxDimension / height, MaxDimension
	}

	if width < MinDimension && height < MinDimension {
		if width > height {
			return UpscaleTarget, height * UpscaleTarget / width
		}
		return width * UpscaleTarget / height, UpscaleTarget
	}

	return width, height
}

// resizeImage rescales a decoded image to the recognition bounds using
// high-quality CatmullRom resampling. Returns the input unchanged when it
// is already within bounds.
func resizeImage(img image.Image) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	newWidth, newHeight := fitDimensions(width, height)
	if newWidth == width && newHeight == height {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// encodeImage writes an image back out in the given source format
func encodeImage(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg", "jpg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
