package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/pprofhandler"

	apiHandler "github.com/fastygo/energy-backoffice/api/handler"
	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/internal/middleware"
	"github.com/fastygo/energy-backoffice/pkg/metrics"
)

type Handlers struct {
	Auth         *apiHandler.AuthHandler
	Profile      *apiHandler.ProfileHandler
	Organization *apiHandler.OrganizationHandler
	User         *apiHandler.UserHandler
	Period       *apiHandler.PeriodHandler
	Taxonomy     *apiHandler.TaxonomyHandler
	Wizard       *apiHandler.WizardHandler
	Journal      *apiHandler.JournalHandler
	Health       *apiHandler.HealthHandler
}

type Options struct {
	// Session binds the caller's session context; it wraps every /api route.
	Session     middleware.Middleware
	Metrics     *metrics.Metrics
	EnablePprof bool
}

var (
	admin        = middleware.RequireRole(domain.RoleAdmin)
	orgManagers  = middleware.RequireRole(domain.RoleAdmin, domain.RoleAdminClient)
	contributors = middleware.RequireRole(domain.RoleAdmin, domain.RoleAdminClient, domain.RoleContributeur)
	signedIn     = middleware.RequireAuth
)

func New(h Handlers, opts Options) *router.Router {
	r := router.New()

	r.GET("/health", h.Health.Check)
	if opts.Metrics != nil {
		r.GET("/metrics", opts.Metrics.Handler())
	}
	if opts.EnablePprof {
		r.GET("/debug/pprof/{profile:*}", pprofhandler.PprofHandler)
	}

	api := func(method, path string, handler fasthttp.RequestHandler, guards ...middleware.Middleware) {
		mws := make([]middleware.Middleware, 0, len(guards)+1)
		if opts.Session != nil {
			mws = append(mws, opts.Session)
		}
		mws = append(mws, guards...)
		r.Handle(method, path, opts.Metrics.Instrument(path, middleware.Chain(handler, mws...)))
	}

	// Auth routes
	api(fasthttp.MethodPost, "/api/v1/auth/register", h.Auth.Register)
	api(fasthttp.MethodPost, "/api/v1/auth/login", h.Auth.Login)
	api(fasthttp.MethodPost, "/api/v1/auth/logout", h.Auth.Logout)
	api(fasthttp.MethodGet, "/api/v1/auth/session", h.Auth.Session)
	api(fasthttp.MethodPost, "/api/v1/auth/refresh", h.Auth.Refresh, signedIn)
	api(fasthttp.MethodPost, "/api/v1/auth/act-as-client", h.Auth.ActAsClient, admin)
	api(fasthttp.MethodPost, "/api/v1/auth/return-to-admin", h.Auth.ReturnToAdmin, signedIn)

	api(fasthttp.MethodGet, "/api/v1/profile", h.Profile.GetProfile, signedIn)
	api(fasthttp.MethodPut, "/api/v1/profile", h.Profile.UpdateProfile, signedIn)

	// Organization hierarchy
	api(fasthttp.MethodGet, "/api/v1/organizations", h.Organization.List, signedIn)
	api(fasthttp.MethodPost, "/api/v1/organizations", h.Organization.Create, admin)
	api(fasthttp.MethodGet, "/api/v1/organizations/{name}", h.Organization.Get, signedIn)
	api(fasthttp.MethodPut, "/api/v1/organizations/{name}", h.Organization.Update, admin)
	api(fasthttp.MethodDelete, "/api/v1/organizations/{name}", h.Organization.Delete, admin)
	api(fasthttp.MethodGet, "/api/v1/organizations/{name}/{level}", h.Organization.ListUnits, signedIn)
	api(fasthttp.MethodPost, "/api/v1/organizations/{name}/{level}", h.Organization.CreateUnit, orgManagers)
	api(fasthttp.MethodPut, "/api/v1/organizations/{name}/{level}/{unit}", h.Organization.UpdateUnit, orgManagers)
	api(fasthttp.MethodDelete, "/api/v1/organizations/{name}/{level}/{unit}", h.Organization.DeleteUnit, orgManagers)

	// Users and roles
	api(fasthttp.MethodGet, "/api/v1/users", h.User.List, orgManagers)
	api(fasthttp.MethodPost, "/api/v1/users", h.User.Create, orgManagers)
	api(fasthttp.MethodPut, "/api/v1/users/{email}", h.User.Update, orgManagers)
	api(fasthttp.MethodDelete, "/api/v1/users/{email}", h.User.Delete, orgManagers)

	// Collection periods
	api(fasthttp.MethodGet, "/api/v1/periods", h.Period.List, signedIn)
	api(fasthttp.MethodPut, "/api/v1/periods", h.Period.Upsert, orgManagers)
	api(fasthttp.MethodDelete, "/api/v1/periods/{id}", h.Period.Delete, orgManagers)

	// Taxonomy and indicator catalog
	api(fasthttp.MethodGet, "/api/v1/taxonomy/options", h.Taxonomy.Options, signedIn)
	api(fasthttp.MethodPost, "/api/v1/taxonomy/indicators/resolve", h.Taxonomy.Resolve, signedIn)
	api(fasthttp.MethodPut, "/api/v1/taxonomy/join-rows", h.Taxonomy.UpsertJoinRow, admin)
	api(fasthttp.MethodGet, "/api/v1/indicators", h.Taxonomy.ListIndicators, signedIn)
	api(fasthttp.MethodPost, "/api/v1/indicators", h.Taxonomy.CreateIndicator, contributors)
	api(fasthttp.MethodGet, "/api/v1/indicators/{code}", h.Taxonomy.GetIndicator, signedIn)
	api(fasthttp.MethodPut, "/api/v1/indicators/{code}", h.Taxonomy.UpdateIndicator, contributors)
	api(fasthttp.MethodDelete, "/api/v1/indicators/{code}", h.Taxonomy.DeleteIndicator, contributors)
	api(fasthttp.MethodPost, "/api/v1/indicators/{code}/links", h.Taxonomy.LinkIndicator, contributors)

	// Wizard
	api(fasthttp.MethodGet, "/api/v1/wizard", h.Wizard.Get, signedIn)
	api(fasthttp.MethodDelete, "/api/v1/wizard", h.Wizard.Reset, signedIn)
	api(fasthttp.MethodPut, "/api/v1/wizard/selection", h.Wizard.UpdateSelection, signedIn)
	api(fasthttp.MethodGet, "/api/v1/wizard/indicators", h.Wizard.Indicators, signedIn)
	api(fasthttp.MethodPut, "/api/v1/wizard/indicators", h.Wizard.SelectIndicators, signedIn)
	api(fasthttp.MethodPost, "/api/v1/wizard/indicators", h.Wizard.CreateIndicator, contributors)
	api(fasthttp.MethodPost, "/api/v1/wizard/complete", h.Wizard.Complete, signedIn)
	api(fasthttp.MethodGet, "/api/v1/selections", h.Wizard.ListSelections, signedIn)

	api(fasthttp.MethodGet, "/api/v1/modification-logs", h.Journal.List, orgManagers)

	return r
}
