package tracing

import (
	"context"

	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/common/logger"
)

// GetTraceID extracts the TraceID from gin context using gin-middlewares.
func GetTraceID(c *gin.Context) string {
	traceID, err := gmw.TraceID(c)
	if err != nil {
		gmw.GetLogger(c).Warn("failed to get trace ID from gin-middlewares", zap.Error(err))
		return ""
	}
	return traceID.String()
}

// GetTraceIDFromContext extracts the TraceID from a standard context.Context,
// for call sites downstream of the gin handler that only carry ctx.
func GetTraceIDFromContext(ctx context.Context) string {
	if ginCtx, ok := gmw.GetGinCtxFromStdCtx(ctx); ok {
		return GetTraceID(ginCtx)
	}
	logger.Logger.Warn("no gin context in standard context, cannot resolve trace ID")
	return ""
}

// WithTraceID prepends a trace_id field to fields, for call sites that build
// their zap.Field slice ad hoc rather than via a tagged logger.
func WithTraceID(c *gin.Context, fields ...zap.Field) []zap.Field {
	traceID := GetTraceID(c)
	if traceID == "" {
		return fields
	}
	return append([]zap.Field{zap.String("trace_id", traceID)}, fields...)
}

// WithTraceIDFromContext mirrors WithTraceID for plain context.Context call sites.
func WithTraceIDFromContext(ctx context.Context, fields ...zap.Field) []zap.Field {
	traceID := GetTraceIDFromContext(ctx)
	if traceID == "" {
		return fields
	}
	return append([]zap.Field{zap.String("trace_id", traceID)}, fields...)
}
