package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/api/transport"
	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/pkg/httpcontext"
	orgUC "github.com/fastygo/energy-backoffice/usecase/organization"
	"github.com/fastygo/energy-backoffice/usecase/validation"
)

type OrganizationHandler struct {
	baseHandler
	uc *orgUC.UseCase
}

func NewOrganizationHandler(uc *orgUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List organizations visible to the caller
// @Tags organizations
// @Router /api/v1/organizations [get]
func (h *OrganizationHandler) List(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	orgs, err := h.uc.List(stdCtx, actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, orgs, transport.Page{Count: len(orgs)})
}

// @Router /api/v1/organizations/{name} [get]
func (h *OrganizationHandler) Get(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	org, err := h.uc.Get(stdCtx, actor, pathParam(ctx, "name"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, org)
}

// @Router /api/v1/organizations [post]
func (h *OrganizationHandler) Create(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	var form validation.OrganizationForm
	if !h.decode(ctx, &form) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	org, err := h.uc.Create(stdCtx, actor, form)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, org)
}

// @Router /api/v1/organizations/{name} [put]
func (h *OrganizationHandler) Update(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	var form validation.OrganizationForm
	if !h.decode(ctx, &form) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	org, err := h.uc.Update(stdCtx, actor, pathParam(ctx, "name"), form)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, org)
}

// @Router /api/v1/organizations/{name} [delete]
func (h *OrganizationHandler) Delete(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, actor, pathParam(ctx, "name")); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary List the filières, filiales or sites of an organization
// @Tags organizations
// @Router /api/v1/organizations/{name}/{level} [get]
func (h *OrganizationHandler) ListUnits(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	level, ok := h.level(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	units, err := h.uc.ListUnits(stdCtx, actor, pathParam(ctx, "name"), level)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, units, transport.Page{Count: len(units)})
}

// @Router /api/v1/organizations/{name}/{level} [post]
func (h *OrganizationHandler) CreateUnit(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	level, ok := h.level(ctx)
	if !ok {
		return
	}
	var form validation.UnitForm
	if !h.decode(ctx, &form) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	unit, err := h.uc.CreateUnit(stdCtx, actor, pathParam(ctx, "name"), level, form)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, unit)
}

// @Router /api/v1/organizations/{name}/{level}/{unit} [put]
func (h *OrganizationHandler) UpdateUnit(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	level, ok := h.level(ctx)
	if !ok {
		return
	}
	var form validation.UnitForm
	if !h.decode(ctx, &form) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	unit, err := h.uc.UpdateUnit(stdCtx, actor, pathParam(ctx, "name"), level, pathParam(ctx, "unit"), form)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, unit)
}

// @Router /api/v1/organizations/{name}/{level}/{unit} [delete]
func (h *OrganizationHandler) DeleteUnit(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	level, ok := h.level(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteUnit(stdCtx, actor, pathParam(ctx, "name"), level, pathParam(ctx, "unit")); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

func (h *OrganizationHandler) level(ctx *fasthttp.RequestCtx) (domain.UnitLevel, bool) {
	level, ok := domain.ParseUnitLevel(pathParam(ctx, "level"))
	if !ok {
		h.respondError(ctx, domain.NewError(domain.ErrCodeNotFound, "unknown organization level"))
	}
	return level, ok
}
