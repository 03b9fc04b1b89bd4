package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestLogging logs every HTTP request with timing and outcome.
func RequestLogging(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		var err error
		if len(c.Errors) > 0 {
			err = c.Errors.Last().Err
		}

		logLevel := zapcore.InfoLevel
		if status >= 500 {
			logLevel = zapcore.ErrorLevel
		}

		logger.Check(logLevel, "http request").Write(
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", GetRequestID(c)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	}
}
