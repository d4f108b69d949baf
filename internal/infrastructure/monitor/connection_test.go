package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type backlogStub struct {
	size int
	err  error
}

func (b backlogStub) Size() (int, error) { return b.size, b.err }

func TestRefreshCollectsProbes(t *testing.T) {
	m := New(map[string]Probe{
		"postgresql": func(context.Context) error { return nil },
		"redis":      func(context.Context) error { return errors.New("down") },
	}, backlogStub{size: 4}, 0, nil)

	m.Refresh(context.Background())
	status := m.GetStatus()

	assert.True(t, status.Checks["postgresql"])
	assert.False(t, status.Checks["redis"])
	assert.True(t, status.Checks["journal"])
	assert.Equal(t, 4, status.JournalBacklog)
	assert.True(t, m.IsOnline())
	assert.False(t, status.Healthy())
}

func TestOfflineWithoutPostgres(t *testing.T) {
	m := New(map[string]Probe{
		"postgresql": func(context.Context) error { return errors.New("refused") },
	}, backlogStub{err: errors.New("closed")}, 0, nil)

	m.Refresh(context.Background())

	assert.False(t, m.IsOnline())
	assert.False(t, m.GetStatus().Checks["journal"])
}

func TestGetStatusReturnsCopy(t *testing.T) {
	m := New(map[string]Probe{"postgresql": func(context.Context) error { return nil }}, nil, 0, nil)
	m.Refresh(context.Background())

	snapshot := m.GetStatus()
	snapshot.Checks["postgresql"] = false

	assert.True(t, m.IsOnline())
	m.Stop()
	m.Stop()
}
