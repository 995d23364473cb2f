package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fakturownik/fakturownik/internal/model"
)

// APIResponse is the standard envelope for all JSON responses.
type APIResponse struct {
	Success  bool      `json:"success"`
	Data     any       `json:"data,omitempty"`
	Error    *APIError `json:"error,omitempty"`
	Warnings []string  `json:"warnings,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data any, warnings ...error) {
	resp := APIResponse{Success: true, Data: data}
	for _, w := range warnings {
		resp.Warnings = append(resp.Warnings, w.Error())
	}
	c.JSON(http.StatusOK, resp)
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapError translates engine errors to HTTP status codes and error codes.
func MapError(err error) (status int, code, msg string) {
	var genErr *model.GenerationError
	if errors.As(err, &genErr) {
		msg = genErr.UserMessage()
	} else {
		msg = err.Error()
	}

	switch {
	case errors.Is(err, model.ErrInvalidLineItem):
		return http.StatusBadRequest, "INVALID_LINE_ITEM", msg
	case errors.Is(err, model.ErrInvalidVatRate):
		return http.StatusBadRequest, "INVALID_VAT_RATE", msg
	case errors.Is(err, model.ErrInvalidDocument):
		return http.StatusBadRequest, "INVALID_DOCUMENT", msg
	case errors.Is(err, model.ErrMissingProfile):
		return http.StatusUnprocessableEntity, "MISSING_PROFILE", msg
	case errors.Is(err, model.ErrIncompleteDeclaration):
		return http.StatusUnprocessableEntity, "INCOMPLETE_DECLARATION", msg
	case errors.Is(err, model.ErrUnsupportedRegime), errors.Is(err, model.ErrMissingRegimeParameter):
		return http.StatusUnprocessableEntity, "INVALID_TAX_SETTINGS", msg
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps err and sends the matching error response. Server
// errors are logged with the request ID.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapError(err)
	if status >= http.StatusInternalServerError {
		l := requestLogger(c)
		l.Error().Err(err).Msg("request failed")
	}
	RespondError(c, status, code, msg)
}
