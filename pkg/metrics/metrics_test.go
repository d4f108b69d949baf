package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.LoginAttempt("success")
		m.TaxonomyResolution("empty")
		m.JournalShipped("stored", 3)
		m.PeriodsClosed(2)
	})

	called := false
	h := m.Instrument("/x", func(ctx *fasthttp.RequestCtx) { called = true })
	h(&fasthttp.RequestCtx{})
	assert.True(t, called)
}

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.LoginAttempt("invalid_credentials")
	m.LoginAttempt("invalid_credentials")
	m.PeriodsClosed(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues("invalid_credentials")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.periodsClosed))

	instrumented := m.Instrument("/health", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
	})
	reqCtx := &fasthttp.RequestCtx{}
	reqCtx.Request.Header.SetMethod(fasthttp.MethodGet)
	instrumented(reqCtx)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/health", "200")))

	scrape := &fasthttp.RequestCtx{}
	scrape.Request.Header.SetMethod(fasthttp.MethodGet)
	scrape.Request.SetRequestURI("/metrics")
	m.Handler()(scrape)
	require.Equal(t, fasthttp.StatusOK, scrape.Response.StatusCode())
	assert.True(t, strings.Contains(string(scrape.Response.Body()), "backoffice_auth_login_attempts_total"))
}
