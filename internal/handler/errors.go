package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"lounge/backend/internal/apperror"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error   string `json:"error" example:"An error message"`
	Kind    string `json:"kind,omitempty" example:"conflict"`
	Partial bool   `json:"partial,omitempty"`
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict, apperror.KindInvalidOperation:
		return http.StatusBadRequest
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status of its kind.
func respondError(c *gin.Context, err error) {
	respondErrorStatus(c, statusFor(apperror.KindOf(err)), err)
}

func respondErrorStatus(c *gin.Context, status int, err error) {
	kind := apperror.KindOf(err)
	body := ErrorResponse{Error: err.Error(), Kind: string(kind), Partial: apperror.IsPartial(err)}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		body.Error = appErr.Message
	} else {
		// Never leak driver errors to the caller.
		body.Error = "internal error"
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "kind", kind, "partial", body.Partial, "error", err)
		_ = c.Error(err)
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: string(apperror.KindInvalidOperation)})
}
