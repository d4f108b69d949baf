package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/api/transport"
	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/pkg/httpcontext"
	"github.com/fastygo/energy-backoffice/pkg/logger"
	"github.com/fastygo/energy-backoffice/usecase/session"
)

// Middleware wraps a fasthttp handler.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// Session opens a session context for the bearer token, resolves it and binds it to the request.
// Missing or stale tokens leave the context unauthenticated; only unexpected lookup failures abort.
func Session(manager *session.Manager, adapter *httpcontext.Adapter, log *zap.Logger) Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			sc := manager.Open(httpcontext.BearerToken(ctx))
			stdCtx, cancel := adapter.Attach(ctx)
			err := sc.Resolve(stdCtx)
			if err != nil {
				logger.WithRequestID(stdCtx, log).Error("session resolution failed", zap.Error(err))
			}
			cancel()
			if err != nil {
				writeError(ctx, http.StatusInternalServerError, domain.ErrCodeInternal, "internal server error")
				return
			}
			httpcontext.SetSession(ctx, sc)
			next(ctx)
		}
	}
}

// RequireAuth answers 401 unless the bound session is authenticated.
func RequireAuth(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if httpcontext.Identity(ctx) == nil {
			writeError(ctx, http.StatusUnauthorized, domain.ErrCodeUnauthorized, domain.ErrNotAuthenticated.Message)
			return
		}
		next(ctx)
	}
}

// RequireRole answers 401 for anonymous callers and 403 for callers outside roles.
func RequireRole(roles ...domain.Role) Middleware {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			id := httpcontext.Identity(ctx)
			if id == nil {
				writeError(ctx, http.StatusUnauthorized, domain.ErrCodeUnauthorized, domain.ErrNotAuthenticated.Message)
				return
			}
			if !id.HasRole(roles...) {
				writeError(ctx, http.StatusForbidden, domain.ErrCodeForbidden, domain.ErrForbidden.Message)
				return
			}
			next(ctx)
		}
	}
}

// Chain applies middlewares so the first one listed runs first.
func Chain(h fasthttp.RequestHandler, mws ...Middleware) fasthttp.RequestHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func writeError(ctx *fasthttp.RequestCtx, status int, code domain.ErrorCode, message string) {
	body, _ := json.Marshal(transport.NewError(string(code), message, nil))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
