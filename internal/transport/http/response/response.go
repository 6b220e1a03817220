// Package response defines the JSON envelope shared by every API handler.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Application error codes. The first three digits mirror the HTTP status
// class, the rest disambiguate within it.
const (
	CodeOK                 = 0
	CodeBadRequest         = 40000
	CodeUsernameExists     = 40001
	CodeEmailExists        = 40002
	CodeUnauthorized       = 40100
	CodeInvalidCredentials = 40101
	CodeDownloadInvalid    = 40301
	CodeSessionNotFound    = 40401
	CodeProjectNotFound    = 40402
	CodeSessionNotActive   = 40901
	CodeQuotaExceeded      = 42901
	CodeRateLimited        = 42902
	CodeInternalServer     = 50000
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
