package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/api/transport"
	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/pkg/httpcontext"
	"github.com/fastygo/energy-backoffice/usecase/taxonomy"
	"github.com/fastygo/energy-backoffice/usecase/validation"
)

// TaxonomyHandler serves the cascading selector, the aggregation endpoint and the indicator catalog.
type TaxonomyHandler struct {
	baseHandler
	options    *taxonomy.Options
	aggregator *taxonomy.Aggregator
	catalog    *taxonomy.Catalog
}

func NewTaxonomyHandler(options *taxonomy.Options, aggregator *taxonomy.Aggregator, catalog *taxonomy.Catalog, adapter *httpcontext.Adapter, logger *zap.Logger) *TaxonomyHandler {
	return &TaxonomyHandler{
		baseHandler: newBaseHandler(adapter, logger),
		options:     options,
		aggregator:  aggregator,
		catalog:     catalog,
	}
}

// @Summary Selectable values for each level of the current selection
// @Tags taxonomy
// @Param sector query string false "sector"
// @Param energy_types query []string false "energy types" collectionFormat(multi)
// @Param standards query []string false "standards" collectionFormat(multi)
// @Param issues query []string false "issues" collectionFormat(multi)
// @Router /api/v1/taxonomy/options [get]
func (h *TaxonomyHandler) Options(ctx *fasthttp.RequestCtx) {
	sel := domain.Selection{
		Sector:      string(ctx.QueryArgs().Peek("sector")),
		EnergyTypes: queryMulti(ctx, "energy_types"),
		Standards:   queryMulti(ctx, "standards"),
		Issues:      queryMulti(ctx, "issues"),
		Criteria:    queryMulti(ctx, "criteria"),
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	set, err := h.options.Load(stdCtx, sel)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, set)
}

// @Summary Resolve the indicators of a complete selection
// @Tags taxonomy
// @Router /api/v1/taxonomy/indicators/resolve [post]
func (h *TaxonomyHandler) Resolve(ctx *fasthttp.RequestCtx) {
	var sel transport.ResolveRequest
	if !h.decode(ctx, &sel) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	records, err := h.aggregator.Resolve(stdCtx, sel)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, records, transport.Page{Count: len(records)})
}

// @Router /api/v1/indicators [get]
func (h *TaxonomyHandler) ListIndicators(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	list, err := h.catalog.ListIndicators(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, list, transport.Page{Count: len(list)})
}

// @Router /api/v1/indicators/{code} [get]
func (h *TaxonomyHandler) GetIndicator(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	ind, err := h.catalog.GetIndicator(stdCtx, pathParam(ctx, "code"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, ind)
}

// @Router /api/v1/indicators [post]
func (h *TaxonomyHandler) CreateIndicator(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	var form validation.IndicatorForm
	if !h.decode(ctx, &form) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	ind, err := h.catalog.CreateIndicator(stdCtx, actor, form)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, ind)
}

// @Router /api/v1/indicators/{code} [put]
func (h *TaxonomyHandler) UpdateIndicator(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	var form validation.IndicatorForm
	if !h.decode(ctx, &form) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	ind, err := h.catalog.UpdateIndicator(stdCtx, actor, pathParam(ctx, "code"), form)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, ind)
}

// @Router /api/v1/indicators/{code} [delete]
func (h *TaxonomyHandler) DeleteIndicator(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.catalog.DeleteIndicator(stdCtx, actor, pathParam(ctx, "code")); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Attach an existing indicator to a join row
// @Tags taxonomy
// @Router /api/v1/indicators/{code}/links [post]
func (h *TaxonomyHandler) LinkIndicator(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	var req transport.LinkIndicatorRequest
	if !h.decode(ctx, &req) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.catalog.LinkIndicator(stdCtx, actor, req.JoinKey, pathParam(ctx, "code"), req.Unit); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Insert or replace a join-table row
// @Tags taxonomy
// @Router /api/v1/taxonomy/join-rows [put]
func (h *TaxonomyHandler) UpsertJoinRow(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	var form validation.JoinRowForm
	if !h.decode(ctx, &form) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	rec, err := h.catalog.UpsertJoinRow(stdCtx, actor, form)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, rec)
}
