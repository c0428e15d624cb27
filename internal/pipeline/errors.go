package pipeline

import "fmt"

// ErrorKind classifies fatal pipeline failures so callers can map them to
// distinct user-facing responses
type ErrorKind string

// Fatal error kinds; each aborts the pipeline
const (
	KindUnsupportedMediaType ErrorKind = "unsupported_media_type"
	KindEmptyOrCorrupt       ErrorKind = "empty_or_corrupt"
	KindNoExtractableText    ErrorKind = "no_extractable_text"
	KindInsufficientText     ErrorKind = "insufficient_text"
	KindTooFewLines          ErrorKind = "too_few_lines"
	KindRecognitionFailed    ErrorKind = "recognition_failed"
	KindTimeout              ErrorKind = "timeout"
)

// userMessages maps error kinds to the message shown to the uploader.
// Internal diagnostics stay in Err; these are actionable instructions.
var userMessages = map[ErrorKind]string{
	KindUnsupportedMediaType: "Unsupported file type. Upload a JPEG, PNG or PDF document.",
	KindEmptyOrCorrupt:       "The uploaded file is empty or corrupt. Re-export or re-scan it and try again.",
	KindNoExtractableText:    "No text could be read from this PDF. If it is a scan, upload it as an image instead.",
	KindInsufficientText:     "Too little text was recognized to extract anything useful. Try a clearer photo.",
	KindTooFewLines:          "The document does not contain enough lines for this document type. Try a clearer photo.",
	KindRecognitionFailed:    "Text recognition failed for this document. Try a clearer photo.",
	KindTimeout:              "Recognition took too long. Try a smaller or clearer document.",
}

// PipelineError represents a fatal failure in the extraction pipeline
type PipelineError struct {
	// Op is the pipeline stage that failed
	Op string

	// Kind classifies the failure
	Kind ErrorKind

	// Err is the underlying error, if any
	Err error
}

// Error returns a string representation of the error
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// UserMessage returns the uploader-facing message for this failure,
// never the internal diagnostic
func (e *PipelineError) UserMessage() string {
	if msg, ok := userMessages[e.Kind]; ok {
		return msg
	}
	return "Failed to process the document."
}

// newError builds a PipelineError for the given stage and kind
func newError(op string, kind ErrorKind, err error) *PipelineError {
	return &PipelineError{Op: op, Kind: kind, Err: err}
}
