package domain

// Supported media types for uploaded documents
const (
	MediaTypeJPEG = "image/jpeg"
	MediaTypePNG  = "image/png"
	MediaTypePDF  = "application/pdf"
)

// DocumentKind selects which structured extractor runs on the recognized text
type DocumentKind string

// Document kinds accepted by the pipeline
const (
	DocumentKindBill         DocumentKind = "bill"
	DocumentKindPrescription DocumentKind = "prescription"
)

// Valid reports whether the kind is one of the accepted selectors
func (k DocumentKind) Valid() bool {
	return k == DocumentKindBill || k == DocumentKindPrescription
}

// SourceDocument is the raw uploaded file handed to the pipeline.
// It is immutable and lives only for the duration of one invocation.
type SourceDocument struct {
	Data      []byte
	MediaType string
	Kind      DocumentKind
}

// Size returns the byte length of the document payload
func (d *SourceDocument) Size() int {
	return len(d.Data)
}

// IsPDF reports whether the declared media type is PDF
func (d *SourceDocument) IsPDF() bool {
	return d.MediaType == MediaTypePDF
}

// IsImage reports whether the declared media type is a supported image format
func (d *SourceDocument) IsImage() bool {
	return d.MediaType == MediaTypeJPEG || d.MediaType == MediaTypePNG
}
