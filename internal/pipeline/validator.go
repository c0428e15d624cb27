package pipeline

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/medstack/pharmacy-doc-service/internal/domain"
	"github.com/medstack/pharmacy-doc-service/internal/extract"
)

// Sufficiency thresholds for post-recognition text. OCR on blank or
// near-blank scans still returns a non-empty but meaningless string, so the
// validator fails fast instead of handing garbage to the extractors.
const (
	minTextLength     = 10
	minBillTextLength = 20

	minBillLines         = 5
	minPrescriptionLines = 3
)

// pdfMagic is the signature every well-formed PDF starts with
var pdfMagic = []byte("%PDF-")

// Validator rejects documents the pipeline cannot usefully process
type Validator struct{}

// NewValidator creates a document validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks the raw upload before any recognition work is spent on it
func (v *Validator) Validate(doc *domain.SourceDocument) error {
	switch doc.MediaType {
	case domain.MediaTypeJPEG, domain.MediaTypePNG, domain.MediaTypePDF:
	default:
		return newError("validate", KindUnsupportedMediaType,
			fmt.Errorf("media type %q is not supported", doc.MediaType))
	}

	if doc.Size() == 0 {
		return newError("validate", KindEmptyOrCorrupt, fmt.Errorf("document is empty"))
	}

	if doc.IsPDF() && !bytes.HasPrefix(doc.Data, pdfMagic) {
		return newError("validate", KindEmptyOrCorrupt,
			fmt.Errorf("missing PDF signature in leading bytes"))
	}

	return nil
}

// ValidateText checks that the recognized text carries enough structure for
// the selected extractor. Bills need more text and more lines than
// prescriptions to be worth parsing.
func (v *Validator) ValidateText(text string, kind domain.DocumentKind) error {
	trimmed := strings.TrimSpace(text)

	minLength := minTextLength
	if kind == domain.DocumentKindBill {
		minLength = minBillTextLength
	}
	if len(trimmed) < minLength {
		return newError("validate_text", KindInsufficientText,
			fmt.Errorf("recognized text is %d characters, need at least %d", len(trimmed), minLength))
	}

	minLines := minPrescriptionLines
	if kind == domain.DocumentKindBill {
		minLines = minBillLines
	}
	if got := len(extract.SplitLines(text)); got < minLines {
		return newError("validate_text", KindTooFewLines,
			fmt.Errorf("recognized text has %d non-empty lines, need at least %d", got, minLines))
	}

	return nil
}
