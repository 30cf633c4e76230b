package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"doorstep/internal/middleware"
	"doorstep/internal/service"
)

const internalErrorMessage = "something went wrong, please try again"

func init() {
	// Report request fields by their JSON names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	OK        bool              `json:"ok"`
	Reason    service.Reason    `json:"reason"`
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Internal errors are logged and answered with a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	reason := service.ReasonOf(err)
	resp := ErrorResponse{
		OK:        false,
		Reason:    reason,
		Error:     err.Error(),
		RequestID: middleware.GetRequestID(c),
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		resp.Error = service.ErrValidation.Error()
		resp.Fields = verr.Fields
	}

	if reason == service.ReasonInternal {
		logger.Error("request failed",
			zap.String("request_id", resp.RequestID),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		resp.Error = internalErrorMessage
	}

	c.JSON(mapReasonToHTTPStatus(reason), resp)
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapReasonToHTTPStatus maps error reasons to HTTP status codes.
func mapReasonToHTTPStatus(reason service.Reason) int {
	switch reason {
	case service.ReasonValidation, service.ReasonOutOfArea:
		return http.StatusBadRequest
	case service.ReasonRateLimit:
		return http.StatusTooManyRequests
	case service.ReasonNotFound:
		return http.StatusNotFound
	case service.ReasonConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// bindJSON decodes and validates the request body into dst. Failures come
// back as a *service.ValidationError.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return bindingError(err)
	}
	return nil
}

func bindingError(err error) error {
	verr := service.NewValidationError()

	var fieldErrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			verr.Add(fe.Field(), describeFieldError(fe))
		}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		verr.Add(typeErr.Field, "has the wrong type")
	case errors.Is(err, io.EOF):
		verr.Add("body", "is required")
	default:
		verr.Add("body", "could not be parsed")
	}
	return verr
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
