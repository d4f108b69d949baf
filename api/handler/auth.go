package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/pkg/httpcontext"
	"github.com/fastygo/energy-backoffice/usecase/session"
	"github.com/fastygo/energy-backoffice/usecase/validation"
)

// SessionRefresher extends a live session and reissues its token.
type SessionRefresher interface {
	RefreshSession(ctx context.Context, token string) (*domain.AuthSession, error)
}

type AuthHandler struct {
	baseHandler
	sessions  *session.Manager
	refresher SessionRefresher
}

func NewAuthHandler(sessions *session.Manager, refresher SessionRefresher, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		sessions:    sessions,
		refresher:   refresher,
	}
}

// sessionFor returns the session bound by the middleware, or a fresh unauthenticated one.
func (h *AuthHandler) sessionFor(ctx *fasthttp.RequestCtx) *session.Context {
	if sc := httpcontext.Session(ctx); sc != nil {
		return sc
	}
	sc := h.sessions.Open(httpcontext.BearerToken(ctx))
	httpcontext.SetSession(ctx, sc)
	return sc
}

// @Summary Register a new account with the lowest role
// @Tags auth
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var form session.RegisterInput
	if !h.decode(ctx, &form) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.sessionFor(ctx).Register(stdCtx, form)
	if err != nil {
		h.respondErrorMessage(ctx, err, session.ClassifyRegisterError(err))
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, result)
}

// @Summary Sign in with email and password
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var form validation.LoginForm
	if !h.decode(ctx, &form) {
		return
	}
	if err := validation.Check(form); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.sessionFor(ctx).Login(stdCtx, form.Email, form.Password)
	if err != nil {
		h.respondErrorMessage(ctx, err, session.ClassifyLoginError(err))
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Sign out; succeeds without a session
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.sessionFor(ctx).Logout(stdCtx); err != nil {
		h.logger.Warn("remote sign-out failed", zap.Error(err))
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Current identity, null when signed out
// @Tags auth
// @Router /api/v1/auth/session [get]
func (h *AuthHandler) Session(ctx *fasthttp.RequestCtx) {
	sc := h.sessionFor(ctx)
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"state":    sc.State().String(),
		"identity": sc.Current(),
	})
}

// @Summary Extend the session and reissue the access token
// @Tags auth
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	token := httpcontext.BearerToken(ctx)
	if token == "" {
		h.respondError(ctx, domain.ErrSessionMissing)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	auth, err := h.refresher.RefreshSession(stdCtx, token)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, auth)
}

// @Summary Act as the admin_client of an organization
// @Tags auth
// @Router /api/v1/auth/act-as-client [post]
func (h *AuthHandler) ActAsClient(ctx *fasthttp.RequestCtx) {
	var form validation.ActAsClientForm
	if !h.decode(ctx, &form) {
		return
	}
	if err := validation.Check(form); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	identity, err := h.sessionFor(ctx).ActAsClient(stdCtx, form.OrganizationName)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, identity)
}

// @Summary Restore the original role
// @Tags auth
// @Router /api/v1/auth/return-to-admin [post]
func (h *AuthHandler) ReturnToAdmin(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	identity, err := h.sessionFor(ctx).ReturnToAdmin(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, identity)
}
