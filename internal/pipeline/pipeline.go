package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/medstack/pharmacy-doc-service/internal/domain"
	"github.com/medstack/pharmacy-doc-service/internal/extract"
	"github.com/medstack/pharmacy-doc-service/internal/imageutil"
	"github.com/medstack/pharmacy-doc-service/internal/ocr"
	"github.com/medstack/pharmacy-doc-service/internal/reconcile"
)

// Recognizer is the provider-chained recognition stage. Satisfied by
// *ocr.Chain; tests substitute fakes.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (*ocr.RecognitionResult, error)
	RecognizeDocumentText(ctx context.Context, pdfData []byte) (*ocr.RecognitionResult, error)
}

// NormalizeFunc prepares image bytes for recognition. Best-effort: it must
// return usable bytes even when it cannot improve them.
type NormalizeFunc func(data []byte) []byte

// RecognitionSummary is the caller-facing slice of the recognition result.
// Raw text stays internal; the caller gets provenance and quality signals.
type RecognitionSummary struct {
	Confidence float64       `json:"confidence"`
	Provider   string        `json:"provider"`
	Elapsed    time.Duration `json:"elapsed"`
	Warning    string        `json:"warning,omitempty"`
}

// ProcessResult merges extraction, reconciliation and validation warnings
// into the single response object returned to the caller. Exactly one of
// Bill and Prescription is set, matching the requested document kind.
type ProcessResult struct {
	Recognition  RecognitionSummary                 `json:"recognition"`
	Bill         *domain.BillRecord                 `json:"bill,omitempty"`
	Prescription *domain.PrescriptionRecord         `json:"prescription,omitempty"`
	Matches      map[string][]domain.MatchCandidate `json:"matches,omitempty"`
}

// Pipeline runs one document through validation, normalization,
// recognition, extraction and reconciliation. It is stateless across
// invocations; the only process-wide state is the recognizer's circuit
// breaker.
type Pipeline struct {
	validator  *Validator
	recognizer Recognizer
	normalize  NormalizeFunc
	reconciler *reconcile.Reconciler
}

// NewPipeline assembles a pipeline. reconciler may be nil when no catalog
// is configured; extraction then runs without entity matching.
func NewPipeline(recognizer Recognizer, reconciler *reconcile.Reconciler) *Pipeline {
	return &Pipeline{
		validator:  NewValidator(),
		recognizer: recognizer,
		normalize:  imageutil.Normalize,
		reconciler: reconciler,
	}
}

// Process runs the full pipeline on one document. storeID scopes catalog
// reconciliation and may be empty to skip it. Fatal failures return a
// *PipelineError carrying the taxonomy kind and a user-facing message;
// extraction shortfalls are warnings on the returned record, never errors.
func (p *Pipeline) Process(ctx context.Context, doc *domain.SourceDocument, storeID string) (*ProcessResult, error) {
	if err := p.validator.Validate(doc); err != nil {
		return nil, err
	}

	recognition, err := p.recognize(ctx, doc)
	if err != nil {
		return nil, err
	}

	if err := p.validator.ValidateText(recognition.Text, doc.Kind); err != nil {
		return nil, err
	}

	lines := extract.SplitLines(recognition.Text)
	result := &ProcessResult{
		Recognition: RecognitionSummary{
			Confidence: recognition.Confidence,
			Provider:   recognition.Provider,
			Elapsed:    recognition.Elapsed,
			Warning:    recognition.Warning,
		},
	}

	switch doc.Kind {
	case domain.DocumentKindBill:
		result.Bill = extract.ExtractBill(lines)
	case domain.DocumentKindPrescription:
		result.Prescription = extract.ExtractPrescription(lines)
	}

	p.reconcileEntities(ctx, storeID, result)
	return result, nil
}

// recognize dispatches to the PDF text-layer path or the image recognition
// chain, normalizing images first, and maps recognition failures onto the
// pipeline error taxonomy
func (p *Pipeline) recognize(ctx context.Context, doc *domain.SourceDocument) (*ocr.RecognitionResult, error) {
	var result *ocr.RecognitionResult
	var err error

	switch {
	case doc.IsPDF():
		result, err = p.recognizer.RecognizeDocumentText(ctx, doc.Data)
	case doc.IsImage():
		result, err = p.recognizer.Recognize(ctx, p.normalize(doc.Data))
	default:
		// Validation rejects anything else before recognition runs.
		return nil, newError("recognize", KindUnsupportedMediaType, fmt.Errorf("media type %q", doc.MediaType))
	}
	if err != nil {
		return nil, p.mapRecognitionError(err)
	}
	return result, nil
}

// mapRecognitionError translates recognizer sentinels into taxonomy kinds
func (p *Pipeline) mapRecognitionError(err error) error {
	switch {
	case errors.Is(err, ocr.ErrTimeout):
		return newError("recognize", KindTimeout, err)
	case errors.Is(err, ocr.ErrNoExtractableText):
		return newError("recognize", KindNoExtractableText, err)
	default:
		return newError("recognize", KindRecognitionFailed, err)
	}
}

// reconcileEntities fuzzy-matches extracted supplier and medicine names
// against the catalog. Lookup failures degrade to missing matches; a
// catalog outage must not discard a successful extraction.
func (p *Pipeline) reconcileEntities(ctx context.Context, storeID string, result *ProcessResult) {
	if p.reconciler == nil || storeID == "" {
		return
	}

	matches := make(map[string][]domain.MatchCandidate)

	addMedicine := func(name string) {
		if name == "" {
			return
		}
		if _, seen := matches["medicine:"+name]; seen {
			return
		}
		candidates, err := p.reconciler.ReconcileMedicine(ctx, storeID, name)
		if err != nil {
			log.Printf("Medicine reconciliation failed for %q: %v", name, err)
			return
		}
		if len(candidates) > 0 {
			matches["medicine:"+name] = candidates
		}
	}

	if result.Bill != nil {
		if name := result.Bill.Supplier.Name; name != "" {
			candidates, err := p.reconciler.ReconcileSupplier(ctx, storeID, name)
			if err != nil {
				log.Printf("Supplier reconciliation failed for %q: %v", name, err)
			} else if len(candidates) > 0 {
				matches["supplier:"+name] = candidates
			}
		}
		for _, item := range result.Bill.LineItems {
			addMedicine(item.Name)
		}
	}

	if result.Prescription != nil {
		for _, med := range result.Prescription.Medicines {
			addMedicine(med.Name)
		}
	}

	if len(matches) > 0 {
		result.Matches = matches
	}
}
