package hybrid

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalescerCollapsesBursts(t *testing.T) {
	var runs atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	c := NewCoalescer(func(context.Context) error {
		if runs.Add(1) == 1 {
			close(started)
			<-release
		}
		return nil
	}, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, c.Request(context.Background()))
	}()

	<-started
	for range 5 {
		assert.NoError(t, c.Request(context.Background()))
	}
	close(release)
	wg.Wait()

	// One run for the first request, one for the whole burst.
	assert.Equal(t, int32(2), runs.Load())

	assert.NoError(t, c.Request(context.Background()))
	assert.Equal(t, int32(3), runs.Load())
}

func TestCoalescerReturnsSaveError(t *testing.T) {
	boom := errors.New("boom")
	c := NewCoalescer(func(context.Context) error { return boom }, nil)

	assert.ErrorIs(t, c.Request(context.Background()), boom)
	// A failed save does not wedge the coalescer.
	assert.ErrorIs(t, c.Request(context.Background()), boom)
}
