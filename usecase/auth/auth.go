package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/pkg/metrics"
	"github.com/fastygo/energy-backoffice/repository"
)

const minPasswordLength = 6

// Config holds token and sign-in settings.
type Config struct {
	Secret      string
	Issuer      string
	TokenTTL    time.Duration
	AutoConfirm bool
	BcryptCost  int
}

// Limiters throttle sign-in and sign-up per email. A nil limiter disables the check.
type Limiters struct {
	Login  *limiter.Limiter
	Signup *limiter.Limiter
}

// UseCase is the auth API: sign-up, password sign-in, sign-out and session lookup.
// Errors carry the wording of the hosted auth service clients were written against.
type UseCase struct {
	credentials repository.CredentialRepository
	sessions    repository.SessionRepository
	limiters    Limiters
	metrics     *metrics.Metrics
	cfg         Config
	logger      *zap.Logger
	now         func() time.Time
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func New(
	credentials repository.CredentialRepository,
	sessions repository.SessionRepository,
	limiters Limiters,
	m *metrics.Metrics,
	cfg Config,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "energy-backoffice"
	}
	return &UseCase{
		credentials: credentials,
		sessions:    sessions,
		limiters:    limiters,
		metrics:     m,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// SignUp creates the credential record. The account is confirmed at once when AutoConfirm is set.
func (uc *UseCase) SignUp(ctx context.Context, email, password string) (*domain.Credential, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "Unable to validate email address: invalid format")
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewError(domain.ErrCodeInvalid,
			fmt.Sprintf("Password should be at least %d characters", minPasswordLength))
	}
	if err := uc.allow(ctx, uc.limiters.Signup, "signup:"+email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	credential := &domain.Credential{
		Email:        email,
		PasswordHash: string(hash),
	}
	if uc.cfg.AutoConfirm {
		confirmed := uc.now().UTC()
		credential.ConfirmedAt = &confirmed
	}
	if err := uc.credentials.Create(ctx, credential); err != nil {
		return nil, err
	}
	uc.logger.Info("account created", zap.String("email", email), zap.Bool("confirmed", credential.Confirmed()))
	return credential, nil
}

// SignInWithPassword checks the credentials and opens a session.
func (uc *UseCase) SignInWithPassword(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	email = normalizeEmail(email)
	if err := uc.allow(ctx, uc.limiters.Login, "login:"+email); err != nil {
		uc.metrics.LoginAttempt("rate_limited")
		return nil, err
	}

	credential, err := uc.credentials.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			uc.metrics.LoginAttempt("invalid_credentials")
			return nil, domain.ErrInvalidCredentials
		}
		uc.metrics.LoginAttempt("error")
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(password)); err != nil {
		uc.metrics.LoginAttempt("invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}
	if !credential.Confirmed() {
		uc.metrics.LoginAttempt("unconfirmed")
		return nil, domain.ErrEmailNotConfirmed
	}

	now := uc.now().UTC()
	session := &domain.Session{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.cfg.TokenTTL),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		uc.metrics.LoginAttempt("error")
		return nil, err
	}
	if err := uc.credentials.TouchSignIn(ctx, email); err != nil {
		uc.logger.Warn("failed to record sign-in", zap.String("email", email), zap.Error(err))
	}

	token, err := uc.sign(session)
	if err != nil {
		uc.metrics.LoginAttempt("error")
		return nil, err
	}
	uc.metrics.LoginAttempt("success")
	return &domain.AuthSession{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   session.ExpiresAt,
		Email:       email,
		SessionID:   session.ID,
	}, nil
}

// SignOut revokes the session behind token. Unknown, expired or malformed tokens are not an error.
func (uc *UseCase) SignOut(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	claims := &tokenClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, err := parser.ParseWithClaims(token, claims, uc.keyFunc); err != nil || claims.ID == "" {
		return nil
	}
	return uc.sessions.Delete(ctx, claims.ID)
}

// GetSession returns the live session behind token.
func (uc *UseCase) GetSession(ctx context.Context, token string) (*domain.AuthSession, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrSessionMissing
	}
	claims := &tokenClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, uc.keyFunc); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrSessionExpired
		}
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, domain.ErrSessionInvalid.Message, err)
	}

	session, err := uc.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrSessionMissing
		}
		return nil, err
	}
	if session.IsExpired(uc.now()) {
		_ = uc.sessions.Delete(ctx, session.ID)
		return nil, domain.ErrSessionExpired
	}
	if !strings.EqualFold(session.Email, claims.Email) {
		return nil, domain.ErrSessionInvalid
	}

	return &domain.AuthSession{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   session.ExpiresAt,
		Email:       session.Email,
		SessionID:   session.ID,
	}, nil
}

// RefreshSession extends a live session by the token TTL and issues a new token for it.
func (uc *UseCase) RefreshSession(ctx context.Context, token string) (*domain.AuthSession, error) {
	current, err := uc.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Extend(ctx, current.SessionID, int(uc.cfg.TokenTTL.Seconds())); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrSessionMissing
		}
		return nil, err
	}

	now := uc.now().UTC()
	session := &domain.Session{
		ID:        current.SessionID,
		Email:     current.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.cfg.TokenTTL),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	signed, err := uc.sign(session)
	if err != nil {
		return nil, err
	}
	return &domain.AuthSession{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresAt:   session.ExpiresAt,
		Email:       session.Email,
		SessionID:   session.ID,
	}, nil
}

// ConfirmEmail marks an account as confirmed, used when an administrator provisions it.
func (uc *UseCase) ConfirmEmail(ctx context.Context, email string) error {
	return uc.credentials.Confirm(ctx, normalizeEmail(email))
}

// DeleteAccount removes the credential record and revokes every session opened with it.
func (uc *UseCase) DeleteAccount(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := uc.sessions.DeleteByEmail(ctx, email); err != nil {
		return fmt.Errorf("revoke sessions of %s: %w", email, err)
	}
	err := uc.credentials.Delete(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil
	}
	return err
}

func (uc *UseCase) allow(ctx context.Context, l *limiter.Limiter, key string) error {
	if l == nil {
		return nil
	}
	lctx, err := l.Get(ctx, key)
	if err != nil {
		uc.logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
		return nil
	}
	if lctx.Reached {
		return domain.ErrTooManyRequests
	}
	return nil
}

func (uc *UseCase) sign(session *domain.Session) (string, error) {
	claims := tokenClaims{
		Email: session.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   session.Email,
			Issuer:    uc.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(uc.cfg.Secret))
}

func (uc *UseCase) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return []byte(uc.cfg.Secret), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
