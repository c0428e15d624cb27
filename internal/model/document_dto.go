package model

import (
	"github.com/medstack/pharmacy-doc-service/internal/domain"
	"github.com/medstack/pharmacy-doc-service/internal/pipeline"
)

// DocumentProcessingRequest represents an incoming document processing
// request. TempPath points at the spooled upload; the processing service
// owns its cleanup.
type DocumentProcessingRequest struct {
	TempPath  string
	Filename  string
	MediaType string
	Kind      domain.DocumentKind
	StoreID   string
}

// RecognitionDTO summarizes the recognition stage for the API response
type RecognitionDTO struct {
	Confidence float64 `json:"confidence"`
	Provider   string  `json:"provider"`
	ElapsedMs  int64   `json:"elapsed_ms"`
	Warning    string  `json:"warning,omitempty"`
}

// DocumentProcessingResponse represents the response to a document
// processing request. Record holds either a bill or a prescription,
// matching the requested document kind.
type DocumentProcessingResponse struct {
	Recognition RecognitionDTO                     `json:"recognition"`
	Record      interface{}                        `json:"record"`
	Matches     map[string][]domain.MatchCandidate `json:"matches,omitempty"`
}

// FromPipeline converts a pipeline result into the API response shape
func (dto *DocumentProcessingResponse) FromPipeline(result *pipeline.ProcessResult) {
	dto.Recognition = RecognitionDTO{
		Confidence: result.Recognition.Confidence,
		Provider:   result.Recognition.Provider,
		ElapsedMs:  result.Recognition.Elapsed.Milliseconds(),
		Warning:    result.Recognition.Warning,
	}
	if result.Bill != nil {
		dto.Record = result.Bill
	} else if result.Prescription != nil {
		dto.Record = result.Prescription
	}
	dto.Matches = result.Matches
}

// DocumentErrorResponse represents a failed document processing request.
// Message is user-facing; Kind carries the machine-readable failure class.
type DocumentErrorResponse struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// ErrorDetail provides details about a specific error field
type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// DocumentBatchItem holds the outcome for one document in a batch
type DocumentBatchItem struct {
	Filename string                      `json:"filename"`
	Result   *DocumentProcessingResponse `json:"result,omitempty"`
	Error    *DocumentErrorResponse      `json:"error,omitempty"`
}

// DocumentBatchResponse represents the response to a batch processing
// request; results are in upload order
type DocumentBatchResponse struct {
	Results []DocumentBatchItem `json:"results"`
}
