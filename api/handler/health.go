package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/api/transport"
	"github.com/fastygo/energy-backoffice/internal/infrastructure/monitor"
	"github.com/fastygo/energy-backoffice/pkg/httpcontext"
)

// StatusSource is satisfied by *monitor.Monitor.
type StatusSource interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
}

func NewHealthHandler(mon StatusSource, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"timestamp":       time.Now().UTC(),
		"last_check":      status.LastCheck,
		"services":        status.Checks,
		"journal_backlog": status.JournalBacklog,
	}

	// A postgres outage is survivable for a while: the journal buffers locally.
	if status.Healthy() {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "dependencies unhealthy", payload))
}
