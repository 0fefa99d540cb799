package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/matreq/backend/internal/interfaces/http/dto"
)

// SetupValidator makes validation errors report JSON field names
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
	}
}

// ValidationDetails converts binding errors into field details. It returns
// nil when err is not a validation error, for example malformed JSON.
func ValidationDetails(err error) []dto.ValidationDetail {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	details := make([]dto.ValidationDetail, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, dto.ValidationDetail{
			Field:   fieldPath(e),
			Message: getValidationMessage(e),
		})
	}
	return details
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	return dto.NewValidationErrorResponse("Request validation failed", requestID, ValidationDetails(err))
}

// HandleValidationError writes a 400 validation response and stops the chain
func HandleValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(dto.GetHTTPStatus(dto.ErrCodeValidation), FormatValidationErrors(err, GetRequestID(c)))
}

// fieldPath drops the request struct name, so rows[2].rowNumber rather than
// CreateOrdersRequest.rows[2].rowNumber
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "alphanum":
		return "Must be alphanumeric"
	case "numeric":
		return "Must be numeric"
	default:
		return "Invalid value"
	}
}
