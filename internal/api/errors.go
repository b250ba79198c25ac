package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/set-night/lexmind/internal/domain"
	"github.com/set-night/lexmind/internal/observability"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindModelUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindModelError:
		return http.StatusBadGateway
	case domain.KindNotSupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorResponse{
			Error: err.Error(),
			Kind:  string(domain.KindInvalidInput),
		})
		return
	}

	kind := domain.Kind(err)
	status := statusFor(kind)
	log := observability.LoggerFromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "kind", kind, "error", err)
	} else {
		log.Warn("request rejected", "path", c.FullPath(), "kind", kind, "error", err)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error(), Kind: string(kind)})
}
