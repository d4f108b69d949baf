package middleware

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/pkg/httpcontext"
)

// AccessLog writes one line per request and turns handler panics into 500s.
func AccessLog(log *zap.Logger) Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			reqID := httpcontext.RequestID(ctx)
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("handler panic",
						zap.String("request_id", reqID),
						zap.ByteString("path", ctx.Path()),
						zap.Any("panic", rec),
						zap.Stack("stack"))
					writeError(ctx, fasthttp.StatusInternalServerError, domain.ErrCodeInternal, "internal server error")
				}
				fields := []zap.Field{
					zap.String("request_id", reqID),
					zap.ByteString("method", ctx.Method()),
					zap.ByteString("path", ctx.Path()),
					zap.Int("status", ctx.Response.StatusCode()),
					zap.Duration("duration", time.Since(start)),
				}
				if id := httpcontext.Identity(ctx); id != nil {
					fields = append(fields, zap.String("actor", id.Email))
				}
				log.Info("request", fields...)
			}()
			next(ctx)
		}
	}
}
