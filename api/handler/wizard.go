package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/api/transport"
	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/pkg/httpcontext"
	wizardUC "github.com/fastygo/energy-backoffice/usecase/wizard"
)

type WizardHandler struct {
	baseHandler
	uc *wizardUC.UseCase
}

func NewWizardHandler(uc *wizardUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *WizardHandler {
	return &WizardHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Current wizard draft, step and options
// @Tags wizard
// @Router /api/v1/wizard [get]
func (h *WizardHandler) Get(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	state, err := h.uc.Get(stdCtx, actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, state)
}

// @Router /api/v1/wizard [delete]
func (h *WizardHandler) Reset(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Reset(stdCtx, actor); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Router /api/v1/wizard/selection [put]
func (h *WizardHandler) UpdateSelection(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	var sel domain.Selection
	if !h.decode(ctx, &sel) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	state, err := h.uc.UpdateSelection(stdCtx, actor, sel)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, state)
}

// @Router /api/v1/wizard/indicators [get]
func (h *WizardHandler) Indicators(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	records, err := h.uc.Indicators(stdCtx, actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, records, transport.Page{Count: len(records)})
}

// @Router /api/v1/wizard/indicators [put]
func (h *WizardHandler) SelectIndicators(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	var req transport.SelectIndicatorsRequest
	if !h.decode(ctx, &req) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	draft, err := h.uc.SelectIndicators(stdCtx, actor, req.Indicators)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, draft)
}

// @Summary Create an indicator and link it under the current selection
// @Tags wizard
// @Router /api/v1/wizard/indicators [post]
func (h *WizardHandler) CreateIndicator(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	var input wizardUC.NewIndicatorInput
	if !h.decode(ctx, &input) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	ind, err := h.uc.CreateIndicator(stdCtx, actor, input)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, ind)
}

// @Router /api/v1/wizard/complete [post]
func (h *WizardHandler) Complete(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	sel, err := h.uc.Complete(stdCtx, actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, sel)
}

// @Summary Completed wizard selections
// @Tags wizard
// @Param organization query string false "organization filter (admins only)"
// @Router /api/v1/selections [get]
func (h *WizardHandler) ListSelections(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	list, err := h.uc.ListSelections(stdCtx, actor, string(ctx.QueryArgs().Peek("organization")))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, list, transport.Page{Count: len(list)})
}
