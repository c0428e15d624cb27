package handler

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/medstack/pharmacy-doc-service/internal/domain"
	"github.com/medstack/pharmacy-doc-service/internal/model"
	"github.com/medstack/pharmacy-doc-service/internal/pipeline"
	"github.com/medstack/pharmacy-doc-service/internal/service"
)

// maxBatchFiles caps how many documents one batch request may carry
const maxBatchFiles = 10

// DocumentHandler handles HTTP requests for document processing
type DocumentHandler struct {
	processor   service.DocumentProcessor
	maxFileSize int64
}

// NewDocumentHandler creates a new document processing handler
func NewDocumentHandler(processor service.DocumentProcessor) *DocumentHandler {
	return &DocumentHandler{
		processor:   processor,
		maxFileSize: 10 * 1024 * 1024, // 10MB default
	}
}

// RegisterRoutes registers the handler's routes with the given router
func (h *DocumentHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/v1/documents/process", h.ProcessDocument)
	router.POST("/v1/documents/batch", h.ProcessDocumentBatch)
}

// ProcessDocument handles a request to process a single document
// @Summary Process a pharmacy document
// @Description Upload a bill or prescription as JPEG, PNG or PDF and extract structured data from it
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file"
// @Param document_type formData string true "Document type: bill or prescription"
// @Param store_id formData string false "Store whose catalog matches are resolved against"
// @Success 200 {object} model.DocumentProcessingResponse "Successfully processed document"
// @Failure 400 {object} model.DocumentErrorResponse "Bad request"
// @Failure 422 {object} model.DocumentErrorResponse "Document could not be processed"
// @Failure 500 {object} model.DocumentErrorResponse "Internal server error"
// @Router /v1/documents/process [post]
func (h *DocumentHandler) ProcessDocument(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(h.maxFileSize); err != nil {
		respondBadRequest(c, "Failed to parse form data: "+err.Error())
		return
	}

	file, header, err := getFormFile(c, "file")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		respondBadRequest(c, "File size exceeds limit")
		return
	}

	kind := domain.DocumentKind(strings.ToLower(strings.TrimSpace(c.PostForm("document_type"))))
	if !kind.Valid() {
		respondBadRequest(c, "document_type must be 'bill' or 'prescription'")
		return
	}

	request, err := h.spoolUpload(file, header, kind, c.PostForm("store_id"))
	if err != nil {
		respondInternalServerError(c, "Failed to store upload: "+err.Error())
		return
	}

	log.Printf("Processing %s document: %s (%d bytes)", kind, header.Filename, header.Size)
	response, err := h.processor.ProcessDocument(c.Request.Context(), request)
	if err != nil {
		respondProcessingError(c, err)
		return
	}

	respondOK(c, response)
}

// ProcessDocumentBatch handles a request to process multiple documents of
// the same type in one call
// @Summary Process a batch of pharmacy documents
// @Description Upload up to 10 documents of the same type and extract structured data from each
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Document files"
// @Param document_type formData string true "Document type: bill or prescription"
// @Param store_id formData string false "Store whose catalog matches are resolved against"
// @Success 200 {object} model.DocumentBatchResponse "Per-document results"
// @Failure 400 {object} model.DocumentErrorResponse "Bad request"
// @Router /v1/documents/batch [post]
func (h *DocumentHandler) ProcessDocumentBatch(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(h.maxFileSize * maxBatchFiles); err != nil {
		respondBadRequest(c, "Failed to parse form data: "+err.Error())
		return
	}

	form := c.Request.MultipartForm
	if form == nil || len(form.File["files"]) == 0 {
		respondBadRequest(c, "no files provided")
		return
	}
	headers := form.File["files"]
	if len(headers) > maxBatchFiles {
		respondBadRequest(c, "too many files in batch")
		return
	}

	kind := domain.DocumentKind(strings.ToLower(strings.TrimSpace(c.PostForm("document_type"))))
	if !kind.Valid() {
		respondBadRequest(c, "document_type must be 'bill' or 'prescription'")
		return
	}
	storeID := c.PostForm("store_id")

	// Spooled files belong to the handler until the whole batch is handed
	// to the processor; a failure on a later file must not leak the
	// earlier ones.
	requests := make([]*model.DocumentProcessingRequest, 0, len(headers))
	handedOff := false
	defer func() {
		if handedOff {
			return
		}
		for _, request := range requests {
			os.Remove(request.TempPath)
		}
	}()

	for _, header := range headers {
		if header.Size > h.maxFileSize {
			respondBadRequest(c, "File size exceeds limit: "+header.Filename)
			return
		}
		file, err := header.Open()
		if err != nil {
			respondBadRequest(c, "Failed to open upload: "+header.Filename)
			return
		}
		request, err := h.spoolUpload(file, header, kind, storeID)
		file.Close()
		if err != nil {
			respondInternalServerError(c, "Failed to store upload: "+err.Error())
			return
		}
		requests = append(requests, request)
	}

	log.Printf("Processing batch of %d %s documents", len(requests), kind)
	handedOff = true
	responses, errs := h.processor.ProcessDocumentBatch(c.Request.Context(), requests)

	results := make([]model.DocumentBatchItem, len(responses))
	for i := range responses {
		results[i] = model.DocumentBatchItem{
			Filename: headers[i].Filename,
			Result:   responses[i],
		}
		if errs[i] != nil {
			results[i].Error = batchItemError(errs[i])
		}
	}

	respondOK(c, model.DocumentBatchResponse{Results: results})
}

// spoolUpload copies the multipart file to a temp file owned by the
// processing request; the service removes it when processing ends.
func (h *DocumentHandler) spoolUpload(file multipart.File, header *multipart.FileHeader, kind domain.DocumentKind, storeID string) (*model.DocumentProcessingRequest, error) {
	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}

	return &model.DocumentProcessingRequest{
		TempPath:  tmp.Name(),
		Filename:  header.Filename,
		MediaType: detectMediaType(header),
		Kind:      kind,
		StoreID:   storeID,
	}, nil
}

// detectMediaType prefers the declared Content-Type and falls back to the
// file extension
func detectMediaType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".jpg", ".jpeg":
		return domain.MediaTypeJPEG
	case ".png":
		return domain.MediaTypePNG
	case ".pdf":
		return domain.MediaTypePDF
	default:
		return ""
	}
}

// respondProcessingError maps pipeline failures to HTTP responses. Input
// problems are 400, documents we understood but could not extract from
// are 422, everything else is 500. The uploader only ever sees the
// user-facing message; diagnostics stay in the logs.
func respondProcessingError(c *gin.Context, err error) {
	var pErr *pipeline.PipelineError
	if errors.As(err, &pErr) {
		log.Printf("Pipeline failure: %v", pErr)
		status := http.StatusUnprocessableEntity
		switch pErr.Kind {
		case pipeline.KindUnsupportedMediaType, pipeline.KindEmptyOrCorrupt:
			status = http.StatusBadRequest
		}
		c.JSON(status, model.DocumentErrorResponse{
			Success: false,
			Kind:    string(pErr.Kind),
			Message: pErr.UserMessage(),
		})
		return
	}

	log.Printf("Processing failure: %v", err)
	respondInternalServerError(c, ErrFileProcessing)
}

// batchItemError renders a per-document failure for the batch response
func batchItemError(err error) *model.DocumentErrorResponse {
	var pErr *pipeline.PipelineError
	if errors.As(err, &pErr) {
		return &model.DocumentErrorResponse{
			Success: false,
			Kind:    string(pErr.Kind),
			Message: pErr.UserMessage(),
		}
	}
	return &model.DocumentErrorResponse{
		Success: false,
		Kind:    "internal",
		Message: ErrFileProcessing,
	}
}
