package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/medstack/pharmacy-doc-service/internal/domain"
	"github.com/medstack/pharmacy-doc-service/internal/ocr"
	"github.com/medstack/pharmacy-doc-service/internal/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRecognizer returns canned recognition results without touching any
// real provider
type fakeRecognizer struct {
	result    *ocr.RecognitionResult
	err       error
	pdfResult *ocr.RecognitionResult
	pdfErr    error
	pdfCalled bool
}

func (f *fakeRecognizer) Recognize(ctx context.Context, image []byte) (*ocr.RecognitionResult, error) {
	return f.result, f.err
}

func (f *fakeRecognizer) RecognizeDocumentText(ctx context.Context, pdfData []byte) (*ocr.RecognitionResult, error) {
	f.pdfCalled = true
	return f.pdfResult, f.pdfErr
}

// fakeCatalog serves canned catalog entities keyed by nothing in
// particular; every query returns the same rows
type fakeCatalog struct {
	medicines []domain.CatalogEntity
	suppliers []domain.CatalogEntity
}

func (f *fakeCatalog) FindMedicinesByName(ctx context.Context, storeID, query string) ([]domain.CatalogEntity, error) {
	return f.medicines, nil
}

func (f *fakeCatalog) FindSuppliersByName(ctx context.Context, storeID, query string) ([]domain.CatalogEntity, error) {
	return f.suppliers, nil
}

const billText = "ABC PHARMACEUTICALS\n" +
	"Phone: 9876543210\n" +
	"Bill No: INV-2024-001\n" +
	"Paracetamol 500mg 10 12.50\n" +
	"Total: 125.00\n"

func billDocument() *domain.SourceDocument {
	return &domain.SourceDocument{
		Data:      []byte{0xff, 0xd8, 0xff},
		MediaType: domain.MediaTypeJPEG,
		Kind:      domain.DocumentKindBill,
	}
}

func TestProcessBill(t *testing.T) {
	recognizer := &fakeRecognizer{
		result: &ocr.RecognitionResult{
			Text:       billText,
			Confidence: 95,
			Provider:   ocr.ProviderAzure,
		},
	}
	p := NewPipeline(recognizer, nil)

	result, err := p.Process(context.Background(), billDocument(), "")
	require.NoError(t, err)

	assert.Equal(t, ocr.ProviderAzure, result.Recognition.Provider)
	assert.InDelta(t, 95, result.Recognition.Confidence, 0.001)

	require.NotNil(t, result.Bill)
	assert.Nil(t, result.Prescription)
	assert.Equal(t, "ABC PHARMACEUTICALS", result.Bill.Supplier.Name)
	require.Len(t, result.Bill.LineItems, 1)
	assert.Equal(t, "Paracetamol 500", result.Bill.LineItems[0].Name)
}

func TestProcessPrescription(t *testing.T) {
	recognizer := &fakeRecognizer{
		result: &ocr.RecognitionResult{
			Text:       "Dr. Sharma\nPatient: Ravi Kumar\nParacetamol 500mg - twice daily",
			Confidence: 70,
			Provider:   ocr.ProviderTesseract,
		},
	}
	p := NewPipeline(recognizer, nil)

	doc := &domain.SourceDocument{
		Data:      []byte{0x89, 0x50},
		MediaType: domain.MediaTypePNG,
		Kind:      domain.DocumentKindPrescription,
	}
	result, err := p.Process(context.Background(), doc, "")
	require.NoError(t, err)

	require.NotNil(t, result.Prescription)
	assert.Nil(t, result.Bill)
	assert.Equal(t, "Sharma", result.Prescription.Doctor)
	require.Len(t, result.Prescription.Medicines, 1)
	assert.Equal(t, 2, result.Prescription.Medicines[0].InferredQuantity)
}

func TestProcessRoutesPDFToTextLayer(t *testing.T) {
	recognizer := &fakeRecognizer{
		pdfResult: &ocr.RecognitionResult{
			Text:       billText,
			Confidence: 95,
			Provider:   ocr.ProviderEmbeddedText,
		},
	}
	p := NewPipeline(recognizer, nil)

	doc := &domain.SourceDocument{
		Data:      []byte("%PDF-1.7 content"),
		MediaType: domain.MediaTypePDF,
		Kind:      domain.DocumentKindBill,
	}
	result, err := p.Process(context.Background(), doc, "")
	require.NoError(t, err)

	assert.True(t, recognizer.pdfCalled)
	assert.Equal(t, ocr.ProviderEmbeddedText, result.Recognition.Provider)
}

func TestProcessMapsRecognitionErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind ErrorKind
	}{
		{"timeout", fmt.Errorf("local engine: %w", ocr.ErrTimeout), KindTimeout},
		{"no text layer", fmt.Errorf("pdf: %w", ocr.ErrNoExtractableText), KindNoExtractableText},
		{"generic failure", fmt.Errorf("engine crashed: %w", ocr.ErrRecognitionFailed), KindRecognitionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(&fakeRecognizer{err: tt.err}, nil)
			_, err := p.Process(context.Background(), billDocument(), "")

			var pErr *PipelineError
			require.ErrorAs(t, err, &pErr)
			assert.Equal(t, tt.wantKind, pErr.Kind)
			assert.NotEmpty(t, pErr.UserMessage())
		})
	}
}

func TestProcessInsufficientTextFails(t *testing.T) {
	recognizer := &fakeRecognizer{
		result: &ocr.RecognitionResult{Text: "a b c", Confidence: 95, Provider: ocr.ProviderAzure},
	}
	p := NewPipeline(recognizer, nil)

	_, err := p.Process(context.Background(), billDocument(), "")

	var pErr *PipelineError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, KindInsufficientText, pErr.Kind)
}

func TestProcessReconcilesExtractedEntities(t *testing.T) {
	recognizer := &fakeRecognizer{
		result: &ocr.RecognitionResult{Text: billText, Confidence: 95, Provider: ocr.ProviderAzure},
	}
	lookup := &fakeCatalog{
		medicines: []domain.CatalogEntity{
			{ID: "m1", Type: domain.CatalogMedicine, Name: "Paracetamol 500"},
		},
		suppliers: []domain.CatalogEntity{
			{ID: "s1", Type: domain.CatalogSupplier, Name: "ABC Pharmaceuticals"},
		},
	}
	p := NewPipeline(recognizer, reconcile.NewReconciler(lookup))

	result, err := p.Process(context.Background(), billDocument(), "store-1")
	require.NoError(t, err)

	require.NotNil(t, result.Matches)
	medMatches := result.Matches["medicine:Paracetamol 500"]
	require.Len(t, medMatches, 1)
	assert.Equal(t, "m1", medMatches[0].Entity.ID)
	assert.Equal(t, domain.MatchExact, medMatches[0].Rank)

	supMatches := result.Matches["supplier:ABC PHARMACEUTICALS"]
	require.Len(t, supMatches, 1)
	assert.Equal(t, domain.MatchExact, supMatches[0].Rank)
}

func TestProcessSkipsReconciliationWithoutStore(t *testing.T) {
	recognizer := &fakeRecognizer{
		result: &ocr.RecognitionResult{Text: billText, Confidence: 95, Provider: ocr.ProviderAzure},
	}
	p := NewPipeline(recognizer, reconcile.NewReconciler(&fakeCatalog{}))

	result, err := p.Process(context.Background(), billDocument(), "")
	require.NoError(t, err)
	assert.Nil(t, result.Matches)
}
