package gateway

import (
	"errors"
	"net/http"

	"github.com/example/perfumery/pkg/auth"
	"github.com/example/perfumery/pkg/repository"
	"github.com/example/perfumery/pkg/service"
	"github.com/example/perfumery/pkg/validation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// envelope is the body of every successful API response.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type errorEnvelope struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func fail(c *gin.Context, status int, msg string, details interface{}) {
	c.AbortWithStatusJSON(status, errorEnvelope{Success: false, Error: msg, Details: details})
}

func deny(c *gin.Context, status int, msg string) {
	fail(c, status, msg, nil)
}

// handleError logs err and writes the matching error response. Errors
// without a more specific mapping are reported as 500 with their message.
func (g *Gateway) handleError(c *gin.Context, err error) {
	status, msg, details := classify(err)

	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", c.GetString(requestIDHeader)),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		g.logger.Error("Request failed", fields...)
	} else {
		g.logger.Warn("Request rejected", fields...)
	}

	fail(c, status, msg, details)
}

func classify(err error) (int, string, interface{}) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation failed", verr.Fields
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "resource not found", nil
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error(), nil
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token", nil
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, err.Error(), nil
	default:
		return http.StatusInternalServerError, err.Error(), nil
	}
}

func (g *Gateway) badRequest(c *gin.Context, msg string, err error) {
	g.logger.Warn("Bad request",
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(requestIDHeader)),
		zap.Error(err))
	var details interface{}
	if err != nil {
		details = err.Error()
	}
	fail(c, http.StatusBadRequest, msg, details)
}
