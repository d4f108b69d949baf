package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closerStub struct {
	closed int64
	err    error
}

func (c closerStub) CloseEnded(context.Context) (int64, error) { return c.closed, c.err }

type closureCounter struct{ total int64 }

func (c *closureCounter) PeriodsClosed(n int64) { c.total += n }

func TestPeriodSchedulerRun(t *testing.T) {
	counter := &closureCounter{}
	ps, err := NewPeriodScheduler(closerStub{closed: 3}, counter, "0 5 0 * * *", nil)
	require.NoError(t, err)

	closed, err := ps.Run(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, closed)
	assert.EqualValues(t, 3, counter.total)
}

func TestPeriodSchedulerPropagatesError(t *testing.T) {
	ps, err := NewPeriodScheduler(closerStub{err: errors.New("boom")}, nil, "@daily", nil)
	require.NoError(t, err)

	_, err = ps.Run(context.Background())
	assert.Error(t, err)
}

func TestPeriodSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewPeriodScheduler(closerStub{}, nil, "not a cron", nil)
	assert.Error(t, err)
}
