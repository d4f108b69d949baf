package session

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/fastygo/energy-backoffice/domain"
)

// User-facing messages shown by the back-office.
const (
	MsgInvalidForm        = "Veuillez corriger les champs en erreur."
	MsgInvalidCredentials = "Email ou mot de passe incorrect."
	MsgEmailNotConfirmed  = "Veuillez confirmer votre adresse email avant de vous connecter."
	MsgRateLimited        = "Trop de tentatives. Veuillez patienter quelques minutes avant de réessayer."
	MsgAlreadyRegistered  = "Un compte existe déjà avec cette adresse email."
	MsgWeakPassword       = "Le mot de passe ne respecte pas les exigences de sécurité."
	MsgInvalidEmail       = "Adresse email invalide."
	MsgLoginFailed        = "Une erreur est survenue lors de la connexion. Veuillez réessayer."
	MsgRegisterFailed     = "Une erreur est survenue lors de l'inscription. Veuillez réessayer."
)

// rule matches on the domain code first and on fragments of the lower-cased message second.
type rule struct {
	codes     []domain.ErrorCode
	fragments []string
	message   string
}

func (r rule) match(code domain.ErrorCode, text string) bool {
	for _, c := range r.codes {
		if code == c {
			return true
		}
	}
	for _, f := range r.fragments {
		if strings.Contains(text, f) {
			return true
		}
	}
	return false
}

// Order matters: EMAIL_NOT_CONFIRMED and RATE_LIMITED must win over the generic
// UNAUTHORIZED code that also covers bad credentials.
var rules = []rule{
	{codes: []domain.ErrorCode{domain.ErrCodeEmailUnconfirm}, fragments: []string{"email not confirmed"}, message: MsgEmailNotConfirmed},
	{codes: []domain.ErrorCode{domain.ErrCodeRateLimited}, fragments: []string{"rate limit", "too many requests"}, message: MsgRateLimited},
	{codes: []domain.ErrorCode{domain.ErrCodeUnauthorized}, fragments: []string{"invalid login credentials"}, message: MsgInvalidCredentials},
	{codes: []domain.ErrorCode{domain.ErrCodeConflict}, fragments: []string{"already registered", "already exists"}, message: MsgAlreadyRegistered},
	{fragments: []string{"password should be", "weak password"}, message: MsgWeakPassword},
	{fragments: []string{"unable to validate email", "invalid email"}, message: MsgInvalidEmail},
}

// ClassifyLoginError maps a sign-in failure to the message shown to the user.
func ClassifyLoginError(err error) string {
	return classify(err, MsgLoginFailed)
}

// ClassifyRegisterError maps a registration failure to the message shown to the user.
func ClassifyRegisterError(err error) string {
	return classify(err, MsgRegisterFailed)
}

func classify(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return MsgInvalidForm
	}
	code := domain.CodeOf(err)
	text := strings.ToLower(err.Error())
	for _, r := range rules {
		if r.match(code, text) {
			return r.message
		}
	}
	return fallback
}

// IsSessionError reports a missing, expired or invalid auth session: the normal "not logged in" case.
func IsSessionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrSessionMissing) ||
		errors.Is(err, domain.ErrSessionExpired) ||
		errors.Is(err, domain.ErrSessionInvalid) ||
		errors.Is(err, domain.ErrSessionNotFound) ||
		domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		return true
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "auth session missing") ||
		strings.Contains(text, "invalid jwt") ||
		strings.Contains(text, "refresh token not found")
}

// IsTransient reports connectivity failures that should not block the user.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "failed to fetch") ||
		strings.Contains(text, "network error") ||
		strings.Contains(text, "connection refused")
}
