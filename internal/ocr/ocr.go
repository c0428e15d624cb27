package ocr

import (
	"context"
	"errors"
	"time"
)

// Provider identifiers carried on RecognitionResult so downstream code can
// tell which confidence scale it is looking at
const (
	ProviderAzure        = "azure-vision"
	ProviderTesseract    = "tesseract"
	ProviderEmbeddedText = "embedded-text"
)

// Sentinel errors. Timeout is distinct from other recognition failures so
// callers can tell "too slow" from "unreadable".
var (
	ErrRecognitionFailed   = errors.New("recognition failed")
	ErrTimeout             = errors.New("recognition timed out")
	ErrNoExtractableText   = errors.New("no extractable text")
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// RecognitionResult is the outcome of one recognition attempt. Confidence
// semantics differ per provider: the remote provider reports a fixed
// high-trust score while the local engine computes its own, which callers
// should treat with more skepticism.
type RecognitionResult struct {
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
	Provider   string        `json:"provider"`
	Elapsed    time.Duration `json:"elapsed"`
	Warning    string        `json:"warning,omitempty"`
}

// Provider is a single text-recognition backend for images
type Provider interface {
	// Name identifies the provider on results and in logs
	Name() string

	// Recognize extracts text from image bytes
	Recognize(ctx context.Context, image []byte) (*RecognitionResult, error)
}

// clampConfidence bounds a score to the [0,100] scale every result promises
func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
