package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/energy-backoffice/domain"
	appLogger "github.com/fastygo/energy-backoffice/pkg/logger"
	"github.com/fastygo/energy-backoffice/usecase/session"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
)

const (
	headerRequestID = "X-Request-ID"
	userValueSess   = "session_context"
)

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and request metadata.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach derives a context bounded by the adapter timeout. The request id is reused across
// calls for the same request so middleware and handler logs line up.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := RequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	if id := Identity(ctx); id != nil {
		stdCtx = appLogger.ContextWithActor(stdCtx, id.Email)
	}

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	return stdCtx, cancel
}

// RequestID returns the id of the request, taking it from the X-Request-ID header or minting one.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if id := string(ctx.Response.Header.Peek(headerRequestID)); id != "" {
		return id
	}
	id := strings.TrimSpace(string(ctx.Request.Header.Peek(headerRequestID)))
	if id == "" {
		id = uuid.NewString()
	}
	ctx.Response.Header.Set(headerRequestID, id)
	return id
}

// BearerToken extracts the access token from the Authorization header.
func BearerToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// SetSession binds the resolved session context to the request.
func SetSession(ctx *fasthttp.RequestCtx, sc *session.Context) {
	ctx.SetUserValue(userValueSess, sc)
}

// Session returns the session context bound to the request, or nil.
func Session(ctx *fasthttp.RequestCtx) *session.Context {
	sc, _ := ctx.UserValue(userValueSess).(*session.Context)
	return sc
}

// Identity is a shortcut for the current identity of the bound session.
func Identity(ctx *fasthttp.RequestCtx) *domain.Identity {
	if sc := Session(ctx); sc != nil {
		return sc.Current()
	}
	return nil
}
