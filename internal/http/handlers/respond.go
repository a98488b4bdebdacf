package handlers

import (
	"errors"
	"net/http"

	"github.com/geocoder89/postboard/internal/auth"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if v, ok := ctx.Get("request_id"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.AbortWithStatusJSON(status, gin.H{
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

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// AuthErrorCode returns the wire code for an auth sentinel, or "" when err is
// not one.
func AuthErrorCode(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissing):
		return "missing_token"
	case errors.Is(err, auth.ErrMalformed):
		return "malformed_token"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, auth.ErrExpired):
		return "token_expired"
	case errors.Is(err, auth.ErrUnknownSubject):
		return "unknown_subject"
	case errors.Is(err, auth.ErrForbidden):
		return "forbidden"
	default:
		return ""
	}
}

// RespondAuthError writes 401 for credential failures, 403 for ownership
// failures and 500 for anything else.
func RespondAuthError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		RespondForbidden(ctx, "You do not own this resource.")
	case auth.IsAuthError(err):
		ctx.Header("WWW-Authenticate", "Bearer")
		RespondUnAuthorized(ctx, AuthErrorCode(err), authMessage(err))
	default:
		RespondInternal(ctx, "Could not authenticate request")
	}
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissing):
		return "Missing or invalid Authorization header"
	case errors.Is(err, auth.ErrExpired):
		return "Access token expired"
	case errors.Is(err, auth.ErrUnknownSubject):
		return "Token subject no longer exists"
	default:
		return "Could not validate credentials"
	}
}
