package handler

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
	"github.com/fastygo/energy-backoffice/repository"
	orgUC "github.com/fastygo/energy-backoffice/usecase/organization"
	"github.com/fastygo/energy-backoffice/usecase/session"
)

type authStub struct{}

func (authStub) SignUp(context.Context, string, string) (*domain.Credential, error) {
	return nil, errors.New("not used")
}

func (authStub) SignInWithPassword(context.Context, string, string) (*domain.AuthSession, error) {
	return nil, domain.ErrInvalidCredentials
}

func (authStub) SignOut(context.Context, string) error { return nil }

func (authStub) GetSession(_ context.Context, token string) (*domain.AuthSession, error) {
	if token == "" {
		return nil, domain.ErrSessionMissing
	}
	// tokens are the email of the caller
	return &domain.AuthSession{AccessToken: token, Email: token}, nil
}

func (authStub) DeleteAccount(context.Context, string) error { return nil }

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

type orgStore struct {
	repository.OrganizationRepository
	orgs map[string]domain.Organization
}

func (s *orgStore) List(context.Context) ([]domain.Organization, error) {
	out := make([]domain.Organization, 0, len(s.orgs))
	for _, o := range s.orgs {
		out = append(out, o)
	}
	return out, nil
}

func (s *orgStore) Get(_ context.Context, name string) (*domain.Organization, error) {
	o, ok := s.orgs[name]
	if !ok {
		return nil, domain.ErrOrganizationMissing
	}
	return &o, nil
}

func (s *orgStore) Create(_ context.Context, org *domain.Organization) error {
	if _, ok := s.orgs[org.Name]; ok {
		return domain.NewError(domain.ErrCodeConflict, "organization already exists")
	}
	s.orgs[org.Name] = *org
	return nil
}

var testProfiles = profilesStub{
	"root@energy.fr": {Email: "root@energy.fr", Role: domain.RoleAdmin},
	"ada@acme.fr":    {Email: "ada@acme.fr", Role: domain.RoleGuest, OrganizationName: "acme"},
}

// request builds a RequestCtx; a non-empty token binds a resolved session like the middleware does.
func request(t *testing.T, method, path, token string, body interface{}) *fasthttp.RequestCtx {
	t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	switch b := body.(type) {
	case nil:
	case string:
		ctx.Request.SetBodyString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		ctx.Request.SetBody(raw)
	}
	if token != "" {
		mgr := session.NewManager(authStub{}, testProfiles, nil, nil, nil)
		sc := mgr.Open(token)
		require.NoError(t, sc.Resolve(context.Background()))
		httpcontext.SetSession(ctx, sc)
	}
	return ctx
}

func envelope(t *testing.T, ctx *fasthttp.RequestCtx) transport.Envelope {
	t.Helper()
	var env transport.Envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	return env
}

func newOrgHandler() *OrganizationHandler {
	store := &orgStore{orgs: map[string]domain.Organization{
		"acme":   {Name: "acme"},
		"globex": {Name: "globex"},
	}}
	return NewOrganizationHandler(orgUC.New(store, nil, nil), httpcontext.NewAdapter(time.Second), nil)
}

func TestOrganizationCreate(t *testing.T) {
	h := newOrgHandler()

	ctx := request(t, http.MethodPost, "/api/v1/organizations", "root@energy.fr", map[string]string{"name": "initech"})
	h.Create(ctx)
	assert.Equal(t, http.StatusCreated, ctx.Response.StatusCode())
	assert.Equal(t, "success", envelope(t, ctx).Status)

	ctx = request(t, http.MethodPost, "/api/v1/organizations", "root@energy.fr", map[string]string{"name": "acme"})
	h.Create(ctx)
	assert.Equal(t, http.StatusConflict, ctx.Response.StatusCode())
	assert.Equal(t, string(domain.ErrCodeConflict), envelope(t, ctx).Code)
}

func TestOrganizationCreateRejectsBadInput(t *testing.T) {
	h := newOrgHandler()

	ctx := request(t, http.MethodPost, "/api/v1/organizations", "root@energy.fr", "{not json")
	h.Create(ctx)
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())

	ctx = request(t, http.MethodPost, "/api/v1/organizations", "root@energy.fr", map[string]string{"city": "Lyon"})
	h.Create(ctx)
	require.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
	env := envelope(t, ctx)
	assert.Equal(t, msgValidationFailed, env.Error)
	fields, ok := env.Meta.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fields, "name")
}

func TestOrganizationCreateForbiddenForGuest(t *testing.T) {
	h := newOrgHandler()
	ctx := request(t, http.MethodPost, "/api/v1/organizations", "ada@acme.fr", map[string]string{"name": "initech"})
	h.Create(ctx)
	assert.Equal(t, http.StatusForbidden, ctx.Response.StatusCode())
}

func TestOrganizationListIsScoped(t *testing.T) {
	h := newOrgHandler()

	ctx := request(t, http.MethodGet, "/api/v1/organizations", "ada@acme.fr", nil)
	h.List(ctx)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	env := envelope(t, ctx)
	list, ok := env.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, list, 1)

	ctx = request(t, http.MethodGet, "/api/v1/organizations", "", nil)
	h.List(ctx)
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestUnknownUnitLevelIsNotFound(t *testing.T) {
	h := newOrgHandler()
	ctx := request(t, http.MethodGet, "/api/v1/organizations/acme/plants", "root@energy.fr", nil)
	ctx.SetUserValue("name", "acme")
	ctx.SetUserValue("level", "plants")
	h.ListUnits(ctx)
	assert.Equal(t, http.StatusNotFound, ctx.Response.StatusCode())
}

func TestAuthSessionReportsIdentity(t *testing.T) {
	mgr := session.NewManager(authStub{}, testProfiles, nil, nil, nil)
	h := NewAuthHandler(mgr, nil, httpcontext.NewAdapter(time.Second), nil)

	ctx := request(t, http.MethodGet, "/api/v1/auth/session", "ada@acme.fr", nil)
	h.Session(ctx)
	data, ok := envelope(t, ctx).Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "authenticated", data["state"])
	identity, ok := data["identity"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "guest", identity["role"])

	ctx = request(t, http.MethodGet, "/api/v1/auth/session", "", nil)
	h.Session(ctx)
	data, ok = envelope(t, ctx).Data.(map[string]interface{})
	require.True(t, ok)
	assert.Nil(t, data["identity"])
}

func TestAuthLoginClassifiesFailure(t *testing.T) {
	mgr := session.NewManager(authStub{}, testProfiles, nil, nil, nil)
	h := NewAuthHandler(mgr, nil, httpcontext.NewAdapter(time.Second), nil)

	ctx := request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "ada@acme.fr", "password": "wrong-pass"})
	h.Login(ctx)
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
	assert.NotEmpty(t, envelope(t, ctx).Error)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrNotAuthenticated, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrInvalidPayload, http.StatusBadRequest},
		{domain.ErrOrganizationMissing, http.StatusNotFound},
		{domain.NewError(domain.ErrCodeRateLimited, "slow down"), http.StatusTooManyRequests},
		{domain.NewError(domain.ErrCodeEmailUnconfirm, "confirm"), http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, _ := mapError(tc.err)
		assert.Equal(t, tc.want, status, tc.err.Error())
	}
}
