package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/pkg/logger"
	"github.com/fastygo/energy-backoffice/repository"
	"github.com/fastygo/energy-backoffice/usecase/validation"
)

// State of a session context. Unresolved moves to Authenticated or Unauthenticated;
// Authenticated only moves to Unauthenticated.
type State int

const (
	Unresolved State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unresolved"
	}
}

// AuthAPI is the remote auth service the context talks to.
type AuthAPI interface {
	SignUp(ctx context.Context, email, password string) (*domain.Credential, error)
	SignInWithPassword(ctx context.Context, email, password string) (*domain.AuthSession, error)
	SignOut(ctx context.Context, token string) error
	GetSession(ctx context.Context, token string) (*domain.AuthSession, error)
	DeleteAccount(ctx context.Context, email string) error
}

// Manager holds the collaborators shared by every session context.
type Manager struct {
	auth          AuthAPI
	profiles      repository.ProfileRepository
	users         repository.UserRepository
	organizations repository.OrganizationRepository
	logger        *zap.Logger
}

func NewManager(
	auth AuthAPI,
	profiles repository.ProfileRepository,
	users repository.UserRepository,
	organizations repository.OrganizationRepository,
	logger *zap.Logger,
) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		auth:          auth,
		profiles:      profiles,
		users:         users,
		organizations: organizations,
		logger:        logger,
	}
}

// Open returns an unresolved context bound to token, which may be empty.
func (m *Manager) Open(token string) *Context {
	return &Context{m: m, token: strings.TrimSpace(token)}
}

// Context is the single source of truth for who is logged in on one client session.
type Context struct {
	m *Manager

	mu       sync.RWMutex
	state    State
	identity *domain.Identity
	token    string
}

type LoginResult struct {
	Role        domain.Role      `json:"role"`
	AccessToken string           `json:"access_token,omitempty"`
	TokenType   string           `json:"token_type,omitempty"`
	ExpiresAt   time.Time        `json:"expires_at,omitempty"`
	Identity    *domain.Identity `json:"identity,omitempty"`
}

type RegisterResult struct {
	LoginResult
	ConfirmationRequired bool `json:"confirmation_required"`
}

// RegisterInput has no role field: self-registered accounts always get the lowest role.
type RegisterInput = validation.RegistrationForm

// Current returns a copy of the identity, or nil when unauthenticated.
func (c *Context) Current() *domain.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.identity == nil {
		return nil
	}
	id := *c.identity
	return &id
}

func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Token is the access token the context is bound to.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Resolve looks up the remote session. Missing, expired or invalid sessions and transient
// network failures leave the context unauthenticated without an error; anything else is returned.
func (c *Context) Resolve(ctx context.Context) error {
	log := logger.WithRequestID(ctx, c.m.logger)

	auth, err := c.m.auth.GetSession(ctx, c.Token())
	if err == nil {
		var identity *domain.Identity
		identity, err = c.m.loadIdentity(ctx, auth.Email)
		if err == nil {
			c.authenticate(identity, auth.AccessToken)
			return nil
		}
	}

	c.clear()
	switch {
	case IsSessionError(err):
		return nil
	case IsTransient(err):
		log.Warn("session resolution skipped after network error", zap.Error(err))
		return nil
	default:
		return err
	}
}

// Login signs in and returns the raw remote error on failure so the caller can classify it.
func (c *Context) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	auth, err := c.m.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	identity, err := c.m.loadIdentity(ctx, auth.Email)
	if err != nil {
		_ = c.m.auth.SignOut(ctx, auth.AccessToken)
		return nil, err
	}
	c.authenticate(identity, auth.AccessToken)

	return &LoginResult{
		Role:        identity.Role,
		AccessToken: auth.AccessToken,
		TokenType:   auth.TokenType,
		ExpiresAt:   auth.ExpiresAt,
		Identity:    identity,
	}, nil
}

// Register creates the account with the lowest role. When the account is confirmed at once
// the context is signed in; otherwise it stays unauthenticated until the email is confirmed.
func (c *Context) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if err := validation.Check(input); err != nil {
		return nil, err
	}
	log := logger.WithRequestID(ctx, c.m.logger)

	credential, err := c.m.auth.SignUp(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	email := credential.Email

	user := &domain.User{
		Email:    email,
		FullName: strings.TrimSpace(input.FullName),
		Phone:    input.Phone,
		Position: input.Position,
	}
	profile := &domain.Profile{Email: email, Role: domain.LowestRole}
	if err := c.m.users.Upsert(ctx, user); err != nil {
		c.m.rollbackSignUp(ctx, email, log)
		return nil, err
	}
	if err := c.m.profiles.Upsert(ctx, profile); err != nil {
		c.m.rollbackSignUp(ctx, email, log)
		return nil, err
	}
	log.Info("account registered", zap.String("email", email))

	result := &RegisterResult{
		LoginResult: LoginResult{Role: profile.Role, Identity: profile.Identity()},
	}
	if !credential.Confirmed() {
		result.ConfirmationRequired = true
		return result, nil
	}

	login, err := c.Login(ctx, input.Email, input.Password)
	if err != nil {
		log.Warn("sign-in after registration failed", zap.String("email", email), zap.Error(err))
		result.ConfirmationRequired = domain.IsDomainError(err, domain.ErrCodeEmailUnconfirm)
		return result, nil
	}
	result.LoginResult = *login
	return result, nil
}

// Logout is idempotent. Local state is cleared even when the remote call fails.
func (c *Context) Logout(ctx context.Context) error {
	token := c.Token()
	c.clear()
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	if token == "" {
		return nil
	}
	return c.m.auth.SignOut(ctx, token)
}

// ActAsClient demotes an administrator to admin_client scoped to organization,
// remembering the role ReturnToAdmin restores.
func (c *Context) ActAsClient(ctx context.Context, organization string) (*domain.Identity, error) {
	current := c.Current()
	if current == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if !current.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if _, err := c.m.organizations.Get(ctx, organization); err != nil {
		return nil, err
	}

	profile, err := c.m.profiles.Get(ctx, current.Email)
	if err != nil {
		return nil, err
	}
	profile.OriginalRole = profile.Role
	profile.Role = domain.RoleAdminClient
	profile.ClearScope()
	profile.OrganizationName = organization
	profile.OrganizationLevel = string(domain.LevelOrganization)
	if err := c.m.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	identity := profile.Identity()
	c.setIdentity(identity)
	return identity, nil
}

// ReturnToAdmin restores the stored original role and drops the organization scope.
// Only an admin_client can return.
func (c *Context) ReturnToAdmin(ctx context.Context) (*domain.Identity, error) {
	current := c.Current()
	if current == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if current.Role != domain.RoleAdminClient {
		return nil, domain.ErrForbidden
	}
	profile, err := c.m.profiles.Get(ctx, current.Email)
	if err != nil {
		return nil, err
	}
	if profile.Role != domain.RoleAdminClient {
		return nil, domain.ErrForbidden
	}
	if profile.OriginalRole == "" {
		return nil, domain.ErrNoOriginalRole
	}

	profile.Role = profile.OriginalRole
	profile.OriginalRole = ""
	profile.ClearScope()
	if err := c.m.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	identity := profile.Identity()
	c.setIdentity(identity)
	return identity, nil
}

func (c *Context) authenticate(identity *domain.Identity, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = identity
	c.token = token
	c.state = Authenticated
}

func (c *Context) setIdentity(identity *domain.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = identity
}

func (c *Context) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = nil
	c.state = Unauthenticated
}

// loadIdentity reads the profile row; an account without one is a guest.
func (m *Manager) loadIdentity(ctx context.Context, email string) (*domain.Identity, error) {
	profile, err := m.profiles.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return &domain.Identity{Email: email, Role: domain.LowestRole}, nil
		}
		return nil, err
	}
	if profile.Email == "" {
		profile.Email = email
	}
	return profile.Identity(), nil
}

func (m *Manager) rollbackSignUp(ctx context.Context, email string, log *zap.Logger) {
	if err := m.auth.DeleteAccount(ctx, email); err != nil {
		log.Error("failed to roll back sign-up", zap.String("email", email), zap.Error(err))
	}
}
