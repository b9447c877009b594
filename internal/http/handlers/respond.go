package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/yardsale/internal/actorctx"
	"github.com/geocoder89/yardsale/internal/apperr"
)

// requestTimeout bounds storage calls made on behalf of a single request.
const requestTimeout = 3 * time.Second

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

// ErrorDetail is one business rule violation inside a validation_error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

// requestContext keeps the request context, and with it the actor and the
// trace span, while bounding the work done for it.
func requestContext(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), requestTimeout)
}

func actorFrom(ctx *gin.Context) actorctx.Actor {
	return actorctx.ActorFrom(ctx.Request.Context())
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

// RespondAppError maps a service error onto the HTTP error envelope. Errors
// that carry no business kind are logged and hidden behind a 500.
func RespondAppError(ctx *gin.Context, err error) {
	items := apperr.Errors(err)

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		details := make([]ErrorDetail, 0, len(items))
		for _, it := range items {
			details = append(details, ErrorDetail{Code: it.Code, Message: it.Message})
		}
		RespondError(ctx, http.StatusBadRequest, "validation_error", "Request failed validation", details)
	case apperr.KindNotFound:
		RespondError(ctx, http.StatusNotFound, items[0].Code, items[0].Message, nil)
	case apperr.KindConflict:
		RespondError(ctx, http.StatusConflict, items[0].Code, items[0].Message, nil)
	case apperr.KindUnauthorized:
		RespondError(ctx, http.StatusUnauthorized, items[0].Code, items[0].Message, nil)
	case apperr.KindForbidden:
		RespondError(ctx, http.StatusForbidden, items[0].Code, items[0].Message, nil)
	default:
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
			"route", ctx.FullPath(),
			"request_id", requestIDFrom(ctx),
			"err", err,
		)
		RespondInternal(ctx, "Something went wrong")
	}
}
