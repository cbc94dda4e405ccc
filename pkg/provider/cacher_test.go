package provider

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCacher struct {
	Disabled
	sweeps atomic.Int32
}

func (c *countingCacher) CacheLen() int   { return 0 }
func (c *countingCacher) ClearCache() int { return 0 }
func (c *countingCacher) RemoveExpired() int {
	c.sweeps.Add(1)
	return 1
}

type wrapper struct {
	Disabled
	next Provider
}

func (w wrapper) Unwrap() Provider { return w.next }

func TestFindCacher(t *testing.T) {
	_, ok := FindCacher(Disabled{})
	assert.False(t, ok)

	_, ok = FindCacher(nil)
	assert.False(t, ok)

	cc := &countingCacher{}
	got, ok := FindCacher(wrapper{next: wrapper{next: cc}})
	require.True(t, ok)
	assert.Same(t, cc, got)

	_, ok = FindCacher(wrapper{next: Disabled{}})
	assert.False(t, ok)
}

func TestRunCacheSweep(t *testing.T) {
	cc := &countingCacher{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunCacheSweep(ctx, cc, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return cc.sweeps.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep did not stop")
	}

	// Non-positive interval returns immediately.
	RunCacheSweep(context.Background(), cc, 0)
}
