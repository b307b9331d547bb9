package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes returned in the "code" field of error responses.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CodeForStatus maps an HTTP status to its machine-readable error code.
func CodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
		return CodeValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return CodeUnauthorized
	case http.StatusNotFound:
		return CodeNotFound
	default:
		return CodeInternal
	}
}

func RespondWithError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": ErrorBody{Code: CodeForStatus(status), Message: message}})
}
