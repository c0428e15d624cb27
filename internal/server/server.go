package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medstack/pharmacy-doc-service/internal/config"
	"github.com/medstack/pharmacy-doc-service/internal/handler"
	"github.com/medstack/pharmacy-doc-service/internal/middleware"
	"github.com/medstack/pharmacy-doc-service/internal/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Server represents the HTTP server for the document processing service
type Server struct {
	router          *gin.Engine
	httpServer      *http.Server
	documentHandler *handler.DocumentHandler
	processor       service.DocumentProcessor
	config          *config.Config
}

// NewServer creates and configures a new server instance
func NewServer(cfg *config.Config) *Server {
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(middleware.LoggerConfig{
		Format: cfg.LogFormat,
		Level:  cfg.LogLevel,
	}))

	server := &Server{
		router: router,
		config: cfg,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}

	server.setupRoutes()

	return server
}

// SetDocumentHandler sets the document handler and registers its routes
func (s *Server) SetDocumentHandler(documentHandler *handler.DocumentHandler) {
	s.documentHandler = documentHandler
	documentHandler.RegisterRoutes(s.router)
}

// SetProcessor sets the document processor so shutdown can reach it
func (s *Server) SetProcessor(processor service.DocumentProcessor) {
	s.processor = processor
}

// GetRouter returns the gin router instance
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// setupRoutes configures all application routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// API documentation endpoints
	// Access the Swagger UI at http://localhost:8080/api-docs/index.html
	swaggerHandler := ginSwagger.WrapHandler(swaggerFiles.Handler)
	s.router.GET("/api-docs/*any", swaggerHandler)

	s.router.GET("/api-docs", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/api-docs/index.html")
	})
}

// Start begins listening for requests and handles graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("Server listening on port %d", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down server...")

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.processor != nil {
		s.processor.Shutdown()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server exited gracefully")
	return nil
}
