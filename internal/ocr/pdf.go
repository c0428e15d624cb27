package ocr

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// pdfTextThreshold separates a real text layer from the few stray
// characters a scanned PDF sometimes carries
const pdfTextThreshold = 50

// pdfScanWarning suggests the likely fix when a PDF yields almost no text
const pdfScanWarning = "document appears to be a scan with little embedded text; resubmitting it as an image may recognize more"

// embeddedTextConfidence is the score for a PDF with a proper text layer:
// no recognition ran, so the text is as printed
const embeddedTextConfidence = 95

// lowYieldConfidence is the score for a PDF whose text layer is present
// but suspiciously short
const lowYieldConfidence = 40

// ExtractPDFText reads the embedded text layer of a PDF. No recognition is
// involved; this is the cheap first attempt for PDF uploads.
//
// A text layer longer than pdfTextThreshold returns confidence 95 under the
// embedded-text provider. A short but non-empty layer returns confidence 40
// with a warning that the document is probably a scan. An empty layer
// returns ErrNoExtractableText.
func ExtractPDFText(data []byte) (*RecognitionResult, error) {
	start := time.Now()

	text, err := readPDFTextLayer(data)
	if err != nil {
		return nil, fmt.Errorf("pdf text layer: %v: %w", err, ErrNoExtractableText)
	}

	result, err := classifyTextLayer(text)
	if err != nil {
		return nil, err
	}
	result.Elapsed = time.Since(start)
	return result, nil
}

// classifyTextLayer scores an extracted text layer: a substantial layer is
// trusted as printed, a short one is flagged as a probable scan, an empty
// one is an error
func classifyTextLayer(text string) (*RecognitionResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("pdf has no text layer: %w", ErrNoExtractableText)
	}

	result := &RecognitionResult{
		Text:     text,
		Provider: ProviderEmbeddedText,
	}
	if len(text) > pdfTextThreshold {
		result.Confidence = embeddedTextConfidence
	} else {
		result.Confidence = lowYieldConfidence
		result.Warning = pdfScanWarning
	}
	return result, nil
}

// readPDFTextLayer walks every page and concatenates its plain text.
// Individual page failures are skipped; partial text beats none.
func readPDFTextLayer(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(content)
		text.WriteString("\n\n")
	}

	return strings.TrimSpace(text.String()), nil
}
