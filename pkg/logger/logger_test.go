package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)

	log, err := New(Config{Level: "debug", Encoding: "console", Service: "svc"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestWithRequestIDAddsContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithActor(ctx, "jane@acme.fr")
	WithRequestID(ctx, base).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "jane@acme.fr", fields["actor"])
	assert.Equal(t, "req-1", RequestID(ctx))
}

func TestWithRequestIDWithoutValues(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	WithRequestID(context.Background(), base).Info("plain")
	assert.Empty(t, logs.All()[0].ContextMap())
	assert.NotNil(t, WithRequestID(context.Background(), nil))
}
