package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_WaitPastDeadline(t *testing.T) {
	p := NewPacer(time.Hour)
	for i := 0; i < fanOut; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := p.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoError(t, ctx.Err(), "the wait gives up without sleeping")
}

func TestPacer_WaitCancelled(t *testing.T) {
	p := NewPacer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)
}

func TestPacer_UnlimitedInterval(t *testing.T) {
	p := NewPacer(0)
	for i := 0; i < 3*fanOut; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
}
