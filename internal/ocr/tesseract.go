package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/otiai10/gosseract/v2"
)

// localTimeout is the hard wall-clock bound on a local recognition run.
// Tesseract can degenerate badly on noisy scans; past this point the result
// is reported as a timeout rather than left dangling.
const localTimeout = 60 * time.Second

// TesseractEngine is the local fallback recognition engine
type TesseractEngine struct {
	language string
	timeout  time.Duration
}

// NewTesseractEngine creates a local engine with the default language and
// timeout
func NewTesseractEngine(language string) *TesseractEngine {
	if language == "" {
		language = "eng"
	}
	return &TesseractEngine{
		language: language,
		timeout:  localTimeout,
	}
}

// Name identifies the provider on results and in logs
func (e *TesseractEngine) Name() string {
	return ProviderTesseract
}

// Recognize runs Tesseract on the image bytes under the engine's wall-clock
// timeout. A timeout is returned as ErrTimeout, distinct from other
// failures which wrap ErrRecognitionFailed.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) (*RecognitionResult, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		text, err := e.runTesseract(image)
		done <- outcome{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("local engine after %s: %w", e.timeout, ErrTimeout)
		}
		return nil, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return nil, fmt.Errorf("local engine: %v: %w", out.err, ErrRecognitionFailed)
		}
		return &RecognitionResult{
			Text:       out.text,
			Confidence: estimateConfidence(out.text),
			Provider:   ProviderTesseract,
			Elapsed:    time.Since(start),
		}, nil
	}
}

// runTesseract performs one synchronous recognition pass. gosseract wants a
// file path, so the bytes go through a temp file that is removed before
// returning.
func (e *TesseractEngine) runTesseract(image []byte) (string, error) {
	tmpFile, err := os.CreateTemp("", "ocr-image-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(image); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	tmpFile.Close()

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImage(tmpFile.Name()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// estimateConfidence scores local output from its character makeup on the
// 0-100 scale. Garbled recognition produces a high share of non-printable
// or symbol characters; clean text scores near the top. The score is a
// heuristic and callers should treat low values (<30) as a quality warning.
func estimateConfidence(text string) float64 {
	if len(text) == 0 {
		return 0
	}

	var letters, digits, spaces, other int
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		case unicode.IsSpace(r):
			spaces++
		default:
			other++
		}
	}

	total := letters + digits + spaces + other
	readable := float64(letters+digits+spaces) / float64(total)
	return clampConfidence(readable * 90)
}
