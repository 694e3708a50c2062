package rest

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/siherrmann/chronosatlas/api"
	"github.com/siherrmann/chronosatlas/helper"
)

// RequestLogger logs one line per request
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "Request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}

// Recovery turns panics into an INTERNAL error response
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				writeError(c, logger, helper.NewError("panic", fmt.Errorf("%v", p)))
			}
		}()
		c.Next()
	}
}

// AllowedHosts rejects requests whose Host header is not in the allow-list
func AllowedHosts(config *helper.ServerConfiguration) gin.HandlerFunc {
	return func(c *gin.Context) {
		host := c.Request.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}

		if !config.HostAllowed(host) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": &api.Problem{
				Code:    api.CodeValidation,
				Message: fmt.Sprintf("host %q is not allowed", host),
				Field:   "host",
			}})
			return
		}
		c.Next()
	}
}
