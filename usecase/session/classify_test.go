package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fastygo/energy-backoffice/domain"
)

func TestClassifyLoginError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{domain.ErrInvalidCredentials, MsgInvalidCredentials},
		{domain.ErrEmailNotConfirmed, MsgEmailNotConfirmed},
		{domain.ErrTooManyRequests, MsgRateLimited},
		{errors.New("Invalid login credentials"), MsgInvalidCredentials},
		{errors.New("email rate limit exceeded"), MsgRateLimited},
		{fmt.Errorf("sign in: %w", domain.ErrEmailNotConfirmed), MsgEmailNotConfirmed},
		{errors.New("boom"), MsgLoginFailed},
		{&domain.ValidationError{Fields: map[string]string{"email": "x"}}, MsgInvalidForm},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyLoginError(tc.err), tc.err.Error())
	}
	assert.Empty(t, ClassifyLoginError(nil))
}

func TestClassifyRegisterError(t *testing.T) {
	assert.Equal(t, MsgAlreadyRegistered, ClassifyRegisterError(domain.ErrEmailTaken))
	assert.Equal(t, MsgAlreadyRegistered, ClassifyRegisterError(errors.New("User already registered")))
	assert.Equal(t, MsgWeakPassword, ClassifyRegisterError(
		domain.NewError(domain.ErrCodeInvalid, "Password should be at least 6 characters")))
	assert.Equal(t, MsgInvalidEmail, ClassifyRegisterError(
		domain.NewError(domain.ErrCodeInvalid, "Unable to validate email address: invalid format")))
	assert.Equal(t, MsgRegisterFailed, ClassifyRegisterError(errors.New("unexpected")))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(errors.New("TypeError: Failed to fetch")))
	assert.False(t, IsTransient(domain.ErrSessionMissing))
	assert.False(t, IsTransient(nil))
}
