package main

import (
	"context"
	"fmt"
	"log"

	"github.com/medstack/pharmacy-doc-service/internal/catalog"
	"github.com/medstack/pharmacy-doc-service/internal/config"
	"github.com/medstack/pharmacy-doc-service/internal/database"
	"github.com/medstack/pharmacy-doc-service/internal/handler"
	"github.com/medstack/pharmacy-doc-service/internal/ocr"
	"github.com/medstack/pharmacy-doc-service/internal/pipeline"
	"github.com/medstack/pharmacy-doc-service/internal/reconcile"
	"github.com/medstack/pharmacy-doc-service/internal/server"
	"github.com/medstack/pharmacy-doc-service/internal/service"
	"github.com/medstack/pharmacy-doc-service/internal/storage"
)

func main() {
	// Load configuration
	log.Println("Loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Build the recognition chain: remote Azure provider when configured,
	// local Tesseract always available as fallback
	var remote ocr.Provider
	if cfg.AzureEndpoint != "" && cfg.AzureAPIKey != "" {
		log.Println("Configuring Azure Computer Vision provider...")
		remote = ocr.NewAzureProvider(cfg.AzureEndpoint, cfg.AzureAPIKey)
	}
	local := ocr.NewTesseractEngine(cfg.TesseractLanguage)
	chain := ocr.NewChain(remote, local, ocr.NewCircuitBreaker())

	// Connect the catalog database when configured
	var reconciler *reconcile.Reconciler
	if cfg.DatabaseURL != "" {
		log.Println("Connecting to catalog database...")
		db, err := database.NewPostgresDB(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		reconciler = reconcile.NewReconciler(catalog.NewPostgresCatalog(db.GetPool()))
	}

	// Connect archival storage when configured
	var archiver *storage.S3Uploader
	if cfg.S3Endpoint != "" {
		log.Println("Configuring document archival storage...")
		archiver, err = storage.NewS3Uploader(&storage.Config{
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			AccessKeySecret: cfg.S3AccessKeySecret,
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
		})
		if err != nil {
			log.Fatalf("Failed to configure archival storage: %v", err)
		}
	}

	// Create the extraction pipeline and processing service
	log.Println("Creating document processing service...")
	docPipeline := pipeline.NewPipeline(chain, reconciler)
	processorService := service.NewDocumentProcessorService(docPipeline, archiver, cfg.MaxWorkers)

	// Create handler
	documentHandler := handler.NewDocumentHandler(processorService)

	// Create and configure server
	log.Println("Configuring server...")
	appServer := server.NewServer(cfg)
	appServer.SetDocumentHandler(documentHandler)
	appServer.SetProcessor(processorService)

	// Start server (blocking call)
	log.Printf("Starting server on port %d...", cfg.Port)
	if err := appServer.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server shutdown complete")
}
