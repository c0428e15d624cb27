package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/medstack/pharmacy-doc-service/internal/domain"
	"github.com/medstack/pharmacy-doc-service/internal/model"
	"github.com/medstack/pharmacy-doc-service/internal/pipeline"
	"github.com/medstack/pharmacy-doc-service/internal/storage"
)

// DocumentProcessor defines the interface for document processing services
type DocumentProcessor interface {
	// ProcessDocument runs one uploaded document through the extraction
	// pipeline and returns the structured result
	ProcessDocument(ctx context.Context, request *model.DocumentProcessingRequest) (*model.DocumentProcessingResponse, error)

	// ProcessDocumentBatch processes multiple documents in parallel,
	// bounded by the worker pool
	ProcessDocumentBatch(ctx context.Context, requests []*model.DocumentProcessingRequest) ([]*model.DocumentProcessingResponse, []error)

	// Shutdown gracefully shuts down the service
	Shutdown()
}

// ProcessingError represents an error that occurred during document
// processing
type ProcessingError struct {
	// Op is the operation that failed
	Op string

	// Err is the underlying error
	Err error
}

// Error returns a string representation of the error
func (e *ProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

// Unwrap returns the underlying error
func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// DocumentProcessorService implements DocumentProcessor over the
// extraction pipeline
type DocumentProcessorService struct {
	pipeline    *pipeline.Pipeline
	archiver    *storage.S3Uploader
	maxWorkers  int
	workerQueue chan struct{}
}

// NewDocumentProcessorService creates a document processor with a bounded
// worker pool. archiver may be nil; archival is then skipped.
func NewDocumentProcessorService(p *pipeline.Pipeline, archiver *storage.S3Uploader, maxWorkers int) *DocumentProcessorService {
	if maxWorkers <= 0 {
		maxWorkers = 5 // Default to 5 workers
	}

	return &DocumentProcessorService{
		pipeline:    p,
		archiver:    archiver,
		maxWorkers:  maxWorkers,
		workerQueue: make(chan struct{}, maxWorkers),
	}
}

// ProcessDocument runs one uploaded document through the extraction
// pipeline. The spooled upload named by request.TempPath is removed on
// every exit path: success, validation failure or unexpected error.
func (s *DocumentProcessorService) ProcessDocument(ctx context.Context, request *model.DocumentProcessingRequest) (*model.DocumentProcessingResponse, error) {
	// The upload is a scoped resource owned by this invocation.
	defer func() {
		if request.TempPath == "" {
			return
		}
		if err := os.Remove(request.TempPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("Failed to remove temp upload %s: %v", request.TempPath, err)
		}
	}()

	// Acquire a worker from the pool
	select {
	case s.workerQueue <- struct{}{}:
		defer func() {
			<-s.workerQueue
		}()
	case <-ctx.Done():
		return nil, &ProcessingError{Op: "acquire_worker", Err: ctx.Err()}
	}

	data, err := os.ReadFile(request.TempPath)
	if err != nil {
		return nil, &ProcessingError{Op: "read_upload", Err: err}
	}

	doc := &domain.SourceDocument{
		Data:      data,
		MediaType: request.MediaType,
		Kind:      request.Kind,
	}

	result, err := s.pipeline.Process(ctx, doc, request.StoreID)
	if err != nil {
		return nil, err
	}

	// Archival is best-effort; a storage outage never fails a processed
	// document.
	if s.archiver != nil {
		if _, err := s.archiver.UploadDocument(data, request.Filename, request.MediaType); err != nil {
			log.Printf("Failed to archive document %s: %v", request.Filename, err)
		}
	}

	response := &model.DocumentProcessingResponse{}
	response.FromPipeline(result)
	return response, nil
}

// ProcessDocumentBatch processes multiple documents in parallel. Each
// document acquires its own worker, so concurrency stays bounded by the
// pool regardless of batch size.
func (s *DocumentProcessorService) ProcessDocumentBatch(ctx context.Context, requests []*model.DocumentProcessingRequest) ([]*model.DocumentProcessingResponse, []error) {
	var wg sync.WaitGroup
	responses := make([]*model.DocumentProcessingResponse, len(requests))
	errs := make([]error, len(requests))

	for i, request := range requests {
		wg.Add(1)
		go func(idx int, req *model.DocumentProcessingRequest) {
			defer wg.Done()
			responses[idx], errs[idx] = s.ProcessDocument(ctx, req)
		}(i, request)
	}

	wg.Wait()
	return responses, errs
}

// Shutdown implements the shutdown method from the DocumentProcessor
// interface
func (s *DocumentProcessorService) Shutdown() {
	close(s.workerQueue)
}
