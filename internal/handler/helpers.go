package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/clipserve/clipserve/internal/pkg/errors"
	"github.com/clipserve/clipserve/internal/pkg/response"
)

// handleError maps the core error taxonomy onto HTTP. Cache failures never
// get here; they are absorbed inside the cache layer.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrDimensionMismatch):
		response.Error(c, http.StatusBadRequest, "dimension_mismatch", err.Error())
	case errors.Is(err, appErr.ErrDegenerateVector):
		response.Error(c, http.StatusBadRequest, "degenerate_vector", err.Error())
	case errors.Is(err, appErr.ErrValidation):
		response.Error(c, http.StatusBadRequest, "invalid", err.Error())
	case errors.Is(err, appErr.ErrEncoding):
		response.Error(c, http.StatusInternalServerError, "encoding_failed", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
