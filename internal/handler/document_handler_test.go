package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/medstack/pharmacy-doc-service/internal/model"
	"github.com/medstack/pharmacy-doc-service/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProcessor records the requests it receives and returns canned output
type stubProcessor struct {
	response *model.DocumentProcessingResponse
	err      error
	requests []*model.DocumentProcessingRequest
}

func (s *stubProcessor) ProcessDocument(ctx context.Context, request *model.DocumentProcessingRequest) (*model.DocumentProcessingResponse, error) {
	s.requests = append(s.requests, request)
	// The handler hands temp-file ownership to the processor.
	os.Remove(request.TempPath)
	return s.response, s.err
}

func (s *stubProcessor) ProcessDocumentBatch(ctx context.Context, requests []*model.DocumentProcessingRequest) ([]*model.DocumentProcessingResponse, []error) {
	responses := make([]*model.DocumentProcessingResponse, len(requests))
	errs := make([]error, len(requests))
	for i, request := range requests {
		responses[i], errs[i] = s.ProcessDocument(ctx, request)
	}
	return responses, errs
}

func (s *stubProcessor) Shutdown() {}

func newTestRouter(processor *stubProcessor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewDocumentHandler(processor).RegisterRoutes(router)
	return router
}

// multipartUpload builds a request body with one file field plus form values
func multipartUpload(t *testing.T, fileField, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(fileField, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestProcessDocumentEndpoint(t *testing.T) {
	processor := &stubProcessor{
		response: &model.DocumentProcessingResponse{
			Recognition: model.RecognitionDTO{Confidence: 95, Provider: "azure-vision"},
		},
	}
	router := newTestRouter(processor)

	body, contentType := multipartUpload(t, "file", "bill.jpg", []byte{0xff, 0xd8, 0xff},
		map[string]string{"document_type": "bill", "store_id": "store-1"})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/process", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, processor.requests, 1)
	got := processor.requests[0]
	assert.Equal(t, "bill.jpg", got.Filename)
	assert.Equal(t, "bill", string(got.Kind))
	assert.Equal(t, "store-1", got.StoreID)
	assert.Equal(t, "image/jpeg", got.MediaType)

	var parsed model.DocumentProcessingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	assert.Equal(t, "azure-vision", parsed.Recognition.Provider)
}

func TestProcessDocumentRejectsBadDocumentType(t *testing.T) {
	router := newTestRouter(&stubProcessor{})

	tests := []map[string]string{
		{},                              // missing
		{"document_type": "invoice"},    // unknown
		{"document_type": "bill bills"}, // junk
	}

	for _, fields := range tests {
		body, contentType := multipartUpload(t, "file", "doc.jpg", []byte{0xff}, fields)
		req := httptest.NewRequest(http.MethodPost, "/v1/documents/process", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestProcessDocumentRejectsMissingFile(t *testing.T) {
	router := newTestRouter(&stubProcessor{})

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("document_type", "bill"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/process", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessDocumentMapsPipelineErrors(t *testing.T) {
	tests := []struct {
		kind       pipeline.ErrorKind
		wantStatus int
	}{
		{pipeline.KindUnsupportedMediaType, http.StatusBadRequest},
		{pipeline.KindEmptyOrCorrupt, http.StatusBadRequest},
		{pipeline.KindInsufficientText, http.StatusUnprocessableEntity},
		{pipeline.KindTooFewLines, http.StatusUnprocessableEntity},
		{pipeline.KindRecognitionFailed, http.StatusUnprocessableEntity},
		{pipeline.KindTimeout, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			processor := &stubProcessor{
				err: &pipeline.PipelineError{Op: "recognize", Kind: tt.kind, Err: errors.New("diagnostic detail")},
			}
			router := newTestRouter(processor)

			body, contentType := multipartUpload(t, "file", "bill.jpg", []byte{0xff},
				map[string]string{"document_type": "bill"})
			req := httptest.NewRequest(http.MethodPost, "/v1/documents/process", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var errResp model.DocumentErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.False(t, errResp.Success)
			assert.Equal(t, string(tt.kind), errResp.Kind)
			// The uploader sees the actionable message, never the diagnostic.
			assert.NotContains(t, errResp.Message, "diagnostic detail")
			assert.NotEmpty(t, errResp.Message)
		})
	}
}

func TestProcessDocumentBatchEndpoint(t *testing.T) {
	processor := &stubProcessor{
		response: &model.DocumentProcessingResponse{
			Recognition: model.RecognitionDTO{Confidence: 95, Provider: "azure-vision"},
		},
	}
	router := newTestRouter(processor)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range []string{"one.jpg", "two.jpg"} {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte{0xff, 0xd8})
		require.NoError(t, err)
	}
	require.NoError(t, writer.WriteField("document_type", "prescription"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/batch", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var parsed model.DocumentBatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	require.Len(t, parsed.Results, 2)
	assert.Equal(t, "one.jpg", parsed.Results[0].Filename)
	assert.Equal(t, "two.jpg", parsed.Results[1].Filename)
	require.Len(t, processor.requests, 2)
	assert.Equal(t, "prescription", string(processor.requests[0].Kind))
}

func TestProcessDocumentBatchCleansUpOnOversizeFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	processor := &stubProcessor{}
	router := gin.New()
	h := NewDocumentHandler(processor)
	h.maxFileSize = 64
	h.RegisterRoutes(router)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "small.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte{0xff, 0xd8})
	require.NoError(t, err)
	part, err = writer.CreateFormFile("files", "huge.jpg")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0xff}, 256))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("document_type", "bill"))
	require.NoError(t, writer.Close())

	before := spooledUploads(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/batch", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// The first file was already spooled when the second was rejected;
	// its temp file must not outlive the request.
	assert.Empty(t, processor.requests)
	assert.ElementsMatch(t, before, spooledUploads(t))
}

// spooledUploads lists the upload temp files currently in the temp dir
func spooledUploads(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "upload-*"))
	require.NoError(t, err)
	return matches
}

func TestDetectMediaType(t *testing.T) {
	tests := []struct {
		filename string
		declared string
		want     string
	}{
		{"bill.jpg", "", "image/jpeg"},
		{"bill.JPEG", "", "image/jpeg"},
		{"scan.png", "", "image/png"},
		{"doc.pdf", "", "application/pdf"},
		{"doc.pdf", "application/octet-stream", "application/pdf"},
		{"upload.bin", "image/png", "image/png"},
		{"upload.bin", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename+"/"+tt.declared, func(t *testing.T) {
			header := &multipart.FileHeader{Filename: tt.filename}
			header.Header = map[string][]string{}
			if tt.declared != "" {
				header.Header.Set("Content-Type", tt.declared)
			}
			assert.Equal(t, tt.want, detectMediaType(header))
		})
	}
}
