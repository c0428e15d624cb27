package handler

import (
	"fmt"
	"mime/multipart"

	"github.com/gin-gonic/gin"
)

// getFormFile retrieves a file from multipart form data
func getFormFile(c *gin.Context, fieldName string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := c.Request.FormFile(fieldName)
	if err != nil {
		return nil, nil, fmt.Errorf("no %s provided", fieldName)
	}
	return file, header, nil
}
