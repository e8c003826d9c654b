package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	headerAPIKey    = "x-api-key"
	headerRequestID = "x-request-id"
)

// requestLogger logs one line per request and echoes or assigns x-request-id.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		requestID := strings.TrimSpace(ctx.GetHeader(headerRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Header(headerRequestID, requestID)
		started := time.Now()
		ctx.Next()
		logger.Info("http request",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("duration", time.Since(started)),
			zap.String("request_id", requestID),
		)
	}
}

// bodyLimit caps request bodies, using a per-route override when one matches.
func bodyLimit(defaultLimit int64, overrides map[string]int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		limit := defaultLimit
		if override, ok := overrides[ctx.FullPath()]; ok {
			limit = override
		}
		if ctx.Request.ContentLength > limit {
			ctx.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorResponse(errorCodePayloadTooLarge, messagePayloadTooLarge))
			return
		}
		if ctx.Request.Body != nil {
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)
		}
		ctx.Next()
	}
}

// requireAPIKey guards a route group with a static key. An unset key makes the group unavailable.
func requireAPIKey(expected string, settingName string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if expected == "" {
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, errorResponse(errorCodeNotConfigured, settingName+" is not configured"))
			return
		}
		provided := ctx.GetHeader(headerAPIKey)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, messageInvalidAPIKey))
			return
		}
		ctx.Next()
	}
}
