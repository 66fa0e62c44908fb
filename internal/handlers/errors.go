package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"
	code := "INTERNAL_ERROR"

	switch {
	case errors.Is(err, domain.ErrValidation):
		statusCode = http.StatusBadRequest
	case errors.Is(err, domain.ErrAuthenticity):
		statusCode = http.StatusUnauthorized
	case errors.Is(err, domain.ErrDataIntegrity):
		statusCode = http.StatusBadRequest
	case errors.Is(err, domain.ErrOrderNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		statusCode = http.StatusConflict
	case errors.Is(err, domain.ErrUpstream):
		statusCode = http.StatusBadGateway
	case errors.Is(err, domain.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
	}

	if statusCode != http.StatusInternalServerError {
		message = err.Error()
		if ec := domain.ErrorCode(err); ec != "" {
			code = ec
		}
	} else {
		log.Printf("Unhandled error on %s %s: %v", c.Request.Method, c.FullPath(), err)
	}

	c.JSON(statusCode, ErrorResponse{Success: false, Error: message, Code: code})
}
