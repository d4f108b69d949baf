package handler

import (
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/api/transport"
	"github.com/fastygo/energy-backoffice/pkg/httpcontext"
	"github.com/fastygo/energy-backoffice/repository"
	journalUC "github.com/fastygo/energy-backoffice/usecase/journal"
)

type JournalHandler struct {
	baseHandler
	uc *journalUC.UseCase
}

func NewJournalHandler(uc *journalUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *JournalHandler {
	return &JournalHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Modification log, newest first
// @Tags journal
// @Param organization query string false "organization filter (admins only)"
// @Param entity query string false "entity filter"
// @Router /api/v1/modification-logs [get]
func (h *JournalHandler) List(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	filter := repository.LogFilter{
		OrganizationName: string(ctx.QueryArgs().Peek("organization")),
		Entity:           string(ctx.QueryArgs().Peek("entity")),
		Limit:            queryInt(ctx, "limit"),
		Offset:           queryInt(ctx, "offset"),
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	entries, err := h.uc.List(stdCtx, actor, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, entries, transport.Page{Count: len(entries), Limit: filter.Limit, Offset: filter.Offset})
}
