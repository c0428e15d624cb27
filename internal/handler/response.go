package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medstack/pharmacy-doc-service/internal/model"
)

// HTTP status codes as constants for consistency
const (
	StatusOK                  = http.StatusOK
	StatusBadRequest          = http.StatusBadRequest
	StatusInternalServerError = http.StatusInternalServerError
)

// Common error messages
const (
	ErrInvalidInput   = "Invalid input format"
	ErrInternalServer = "Internal server error"
	ErrFileUpload     = "Failed to upload file"
	ErrFileProcessing = "Failed to process file"
)

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, message string, details ...model.ErrorDetail) {
	response := model.ErrorResponse{
		Status:  http.StatusText(statusCode),
		Message: message,
		Details: details,
	}
	c.JSON(statusCode, response)
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...model.ErrorDetail) {
	respondWithError(c, StatusBadRequest, message, details...)
}

// respondInternalServerError sends a 500 Internal Server Error response
func respondInternalServerError(c *gin.Context, message string) {
	respondWithError(c, StatusInternalServerError, message)
}

// respondOK sends a 200 OK response with data
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(StatusOK, data)
}
