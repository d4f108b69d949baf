package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/api/transport"
	"github.com/fastygo/energy-backoffice/pkg/httpcontext"
	"github.com/fastygo/energy-backoffice/repository"
	periodUC "github.com/fastygo/energy-backoffice/usecase/period"
	"github.com/fastygo/energy-backoffice/usecase/validation"
)

type PeriodHandler struct {
	baseHandler
	uc *periodUC.UseCase
}

func NewPeriodHandler(uc *periodUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *PeriodHandler {
	return &PeriodHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List collection periods
// @Tags periods
// @Param organization query string false "organization filter (admins only)"
// @Param year query int false "year"
// @Param period_type query string false "month, quarter, semester or year"
// @Param status query string false "open or closed"
// @Router /api/v1/periods [get]
func (h *PeriodHandler) List(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	args := ctx.QueryArgs()
	filter := repository.PeriodFilter{
		OrganizationName: string(args.Peek("organization")),
		Year:             queryInt(ctx, "year"),
		PeriodType:       string(args.Peek("period_type")),
		Status:           string(args.Peek("status")),
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	periods, err := h.uc.List(stdCtx, actor, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, periods, transport.Page{Count: len(periods)})
}

// @Summary Create or update a period on (organization, year, type, number)
// @Tags periods
// @Router /api/v1/periods [put]
func (h *PeriodHandler) Upsert(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	var form validation.PeriodForm
	if !h.decode(ctx, &form) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	period, err := h.uc.Upsert(stdCtx, actor, form)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, period)
}

// @Router /api/v1/periods/{id} [delete]
func (h *PeriodHandler) Delete(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, actor, pathParam(ctx, "id")); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}
