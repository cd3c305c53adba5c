package utils

import (
	"errors"
	"log"
	"net/http"

	"lifeloop/model"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  int         `json:"-"`                 // HTTP status code
	Code    string      `json:"code,omitempty"`    // Machine-readable error kind
	Reason  string      `json:"reason,omitempty"`  // Error sub-reason
	Message string      `json:"message,omitempty"` // Optional message
	Error   string      `json:"error,omitempty"`   // Error message
	Data    interface{} `json:"data,omitempty"`    // Response data
}

// Success responses
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, &Response{
		Status: http.StatusOK,
		Data:   data,
	})
}

func Accepted(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusAccepted, &Response{
		Status:  http.StatusAccepted,
		Message: message,
		Data:    data,
	})
}

// Error responses
func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, &Response{
		Status: http.StatusUnauthorized,
		Code:   string(model.KindUnauthorized),
		Error:  message,
	})
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, &Response{
		Status: http.StatusBadRequest,
		Code:   string(model.KindValidation),
		Error:  message,
	})
}

func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, &Response{
		Status: http.StatusNotFound,
		Code:   string(model.KindNotFound),
		Error:  message,
	})
}

func InternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, &Response{
		Status: http.StatusInternalServerError,
		Error:  message,
	})
}

// StatusFor maps an engine error kind to its HTTP status.
func StatusFor(err error) int {
	switch model.KindOf(err) {
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindUnauthorized:
		return http.StatusForbidden
	case model.KindInvalidStateTransition:
		return http.StatusConflict
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindPartialBatchFailure:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as a JSON response. Errors that are not engine errors are
// logged and reported without detail.
func Error(c *gin.Context, err error, data ...interface{}) {
	status := StatusFor(err)
	response := &Response{Status: status}
	if len(data) > 0 {
		response.Data = data[0]
	}

	var engineErr *model.Error
	if errors.As(err, &engineErr) {
		response.Code = string(engineErr.Kind)
		response.Reason = string(engineErr.Reason)
		response.Error = engineErr.Message
	} else {
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		response.Error = "Internal server error"
	}
	c.JSON(status, response)
}
