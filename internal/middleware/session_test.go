package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/energy-backoffice/api/transport"
	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/pkg/httpcontext"
	"github.com/fastygo/energy-backoffice/usecase/session"
)

type authStub struct {
	err   error
	calls int
}

func (a *authStub) SignUp(context.Context, string, string) (*domain.Credential, error) {
	return nil, errors.New("not used")
}

func (a *authStub) SignInWithPassword(context.Context, string, string) (*domain.AuthSession, error) {
	return nil, errors.New("not used")
}

func (a *authStub) SignOut(context.Context, string) error { return nil }

func (a *authStub) GetSession(_ context.Context, token string) (*domain.AuthSession, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	if token != "good" {
		return nil, domain.ErrSessionInvalid
	}
	return &domain.AuthSession{AccessToken: token, Email: "ada@acme.fr"}, nil
}

func (a *authStub) DeleteAccount(context.Context, string) error { return nil }

type profilesStub map[string]domain.Profile

func (p profilesStub) Get(_ context.Context, email string) (*domain.Profile, error) {
	prof, ok := p[email]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &prof, nil
}

func (p profilesStub) Upsert(_ context.Context, prof *domain.Profile) error {
	p[prof.Email] = *prof
	return nil
}

func newManager(auth *authStub) *session.Manager {
	profiles := profilesStub{"ada@acme.fr": {Email: "ada@acme.fr", Role: domain.RoleContributeur, OrganizationName: "acme"}}
	return session.NewManager(auth, profiles, nil, nil, nil)
}

func serve(h fasthttp.RequestHandler, token string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/api/v1/profile")
	if token != "" {
		ctx.Request.Header.Set("Authorization", "Bearer "+token)
	}
	h(ctx)
	return ctx
}

func decodeEnvelope(t *testing.T, ctx *fasthttp.RequestCtx) transport.Envelope {
	t.Helper()
	var env transport.Envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	return env
}

func TestSessionBindsIdentity(t *testing.T) {
	auth := &authStub{}
	var seen *domain.Identity
	h := Session(newManager(auth), httpcontext.NewAdapter(time.Second), nil)(func(ctx *fasthttp.RequestCtx) {
		seen = httpcontext.Identity(ctx)
	})

	serve(h, "good")
	require.NotNil(t, seen)
	assert.Equal(t, domain.RoleContributeur, seen.Role)
	assert.Equal(t, "acme", seen.OrganizationName)
}

func TestSessionAnonymousIsUnauthenticated(t *testing.T) {
	auth := &authStub{}
	called := false
	h := Session(newManager(auth), httpcontext.NewAdapter(time.Second), nil)(func(ctx *fasthttp.RequestCtx) {
		called = true
		require.NotNil(t, httpcontext.Session(ctx))
		assert.Equal(t, session.Unauthenticated, httpcontext.Session(ctx).State())
		assert.Nil(t, httpcontext.Identity(ctx))
	})

	serve(h, "")
	assert.True(t, called)
}

func TestSessionInvalidTokenIsAnonymous(t *testing.T) {
	h := Chain(func(ctx *fasthttp.RequestCtx) { ctx.SetStatusCode(http.StatusOK) },
		Session(newManager(&authStub{}), httpcontext.NewAdapter(time.Second), nil),
		RequireAuth,
	)

	ctx := serve(h, "stale")
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Equal(t, string(domain.ErrCodeUnauthorized), decodeEnvelope(t, ctx).Code)
}

func TestSessionUnexpectedErrorIs500(t *testing.T) {
	auth := &authStub{err: errors.New("redis: unknown command")}
	called := false
	h := Session(newManager(auth), httpcontext.NewAdapter(time.Second), nil)(func(*fasthttp.RequestCtx) { called = true })

	ctx := serve(h, "good")
	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, ctx.Response.StatusCode())
}

func TestRequireRole(t *testing.T) {
	mgr := newManager(&authStub{})
	ok := func(ctx *fasthttp.RequestCtx) { ctx.SetStatusCode(http.StatusNoContent) }
	adapter := httpcontext.NewAdapter(time.Second)

	adminOnly := Chain(ok, Session(mgr, adapter, nil), RequireRole(domain.RoleAdmin))
	ctx := serve(adminOnly, "good")
	assert.Equal(t, http.StatusForbidden, ctx.Response.StatusCode())

	contributors := Chain(ok, Session(mgr, adapter, nil), RequireRole(domain.RoleAdmin, domain.RoleContributeur))
	ctx = serve(contributors, "good")
	assert.Equal(t, http.StatusNoContent, ctx.Response.StatusCode())

	ctx = serve(contributors, "")
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestAccessLogRecoversPanic(t *testing.T) {
	h := AccessLog(nil)(func(*fasthttp.RequestCtx) { panic("boom") })
	ctx := serve(h, "")
	assert.Equal(t, http.StatusInternalServerError, ctx.Response.StatusCode())
	assert.NotEmpty(t, ctx.Response.Header.Peek("X-Request-ID"))
}
