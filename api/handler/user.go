package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/api/transport"
	"github.com/fastygo/energy-backoffice/pkg/httpcontext"
	"github.com/fastygo/energy-backoffice/repository"
	userUC "github.com/fastygo/energy-backoffice/usecase/user"
	"github.com/fastygo/energy-backoffice/usecase/validation"
)

type UserHandler struct {
	baseHandler
	uc *userUC.UseCase
}

func NewUserHandler(uc *userUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List members with their role assignment
// @Tags users
// @Param organization query string false "organization filter (admins only)"
// @Param role query string false "role filter"
// @Router /api/v1/users [get]
func (h *UserHandler) List(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	filter := repository.MemberFilter{
		OrganizationName: string(ctx.QueryArgs().Peek("organization")),
		Role:             string(ctx.QueryArgs().Peek("role")),
		Limit:            queryInt(ctx, "limit"),
		Offset:           queryInt(ctx, "offset"),
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	members, err := h.uc.List(stdCtx, actor, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, members, transport.Page{Count: len(members), Limit: filter.Limit, Offset: filter.Offset})
}

// @Router /api/v1/users [post]
func (h *UserHandler) Create(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	var form validation.UserForm
	if !h.decode(ctx, &form) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	member, err := h.uc.Create(stdCtx, actor, form)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, member)
}

// @Router /api/v1/users/{email} [put]
func (h *UserHandler) Update(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	var form validation.UserForm
	if !h.decode(ctx, &form) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	member, err := h.uc.Update(stdCtx, actor, pathParam(ctx, "email"), form)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, member)
}

// @Router /api/v1/users/{email} [delete]
func (h *UserHandler) Delete(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, actor, pathParam(ctx, "email")); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}
