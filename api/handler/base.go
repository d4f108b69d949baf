package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/api/transport"
	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/pkg/httpcontext"
	"github.com/fastygo/energy-backoffice/pkg/logger"
)

const msgValidationFailed = "validation failed"

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondList(ctx *fasthttp.RequestCtx, data interface{}, page transport.Page) {
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(data, page))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	h.respondErrorMessage(ctx, err, err.Error())
}

// respondErrorMessage keeps the status and code of err but shows message to the client.
func (h baseHandler) respondErrorMessage(ctx *fasthttp.RequestCtx, err error, message string) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		h.respondJSON(ctx, http.StatusBadRequest,
			transport.NewError(string(domain.ErrCodeInvalid), msgValidationFailed, verr.Fields))
		return
	}
	status, code := mapError(err)
	if status >= http.StatusInternalServerError {
		stdCtx, cancel := h.requestContext(ctx)
		logger.WithRequestID(stdCtx, h.logger).Error("request failed",
			zap.ByteString("path", ctx.Path()), zap.Error(err))
		cancel()
	}
	h.respondJSON(ctx, status, transport.NewError(code, message, nil))
}

func (h baseHandler) respondInvalidPayload(ctx *fasthttp.RequestCtx) {
	h.respondJSON(ctx, http.StatusBadRequest,
		transport.NewError(string(domain.ErrCodeInvalid), domain.ErrInvalidPayload.Message, nil))
}

// decode unmarshals the body into v and answers 400 itself on failure.
func (h baseHandler) decode(ctx *fasthttp.RequestCtx, v interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		h.respondInvalidPayload(ctx)
		return false
	}
	return true
}

// identity returns the caller or answers 401 itself.
func (h baseHandler) identity(ctx *fasthttp.RequestCtx) (*domain.Identity, bool) {
	id := httpcontext.Identity(ctx)
	if id == nil {
		h.respondError(ctx, domain.ErrNotAuthenticated)
		return nil, false
	}
	return id, true
}

func pathParam(ctx *fasthttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return v
}

func queryInt(ctx *fasthttp.RequestCtx, name string) int {
	n, err := strconv.Atoi(string(ctx.QueryArgs().Peek(name)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func queryMulti(ctx *fasthttp.RequestCtx, name string) []string {
	var out []string
	for _, v := range ctx.QueryArgs().PeekMulti(name) {
		if len(v) > 0 {
			out = append(out, string(v))
		}
	}
	return out
}

func mapError(err error) (int, string) {
	switch domain.CodeOf(err) {
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.ErrCodeForbidden:
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.ErrCodeInvalid:
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.ErrCodeNotFound:
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.ErrCodeConflict:
		return http.StatusConflict, string(domain.ErrCodeConflict)
	case domain.ErrCodeRateLimited:
		return http.StatusTooManyRequests, string(domain.ErrCodeRateLimited)
	case domain.ErrCodeEmailUnconfirm:
		return http.StatusForbidden, string(domain.ErrCodeEmailUnconfirm)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}
