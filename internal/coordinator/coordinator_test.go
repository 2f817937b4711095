package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireSerializesSameMeeting(t *testing.T) {
	c := New()
	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, release := c.Acquire(context.Background(), "m1")
			defer release()
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			time.Sleep(time.Millisecond)
		}(i)
	}
	wg.Wait()
	assert.Len(t, order, 5)
}

func TestAcquireDifferentMeetingsRunConcurrently(t *testing.T) {
	c := New()
	started := make(chan struct{}, 2)
	release1Chan := make(chan struct{})

	go func() {
		_, release := c.Acquire(context.Background(), "m1")
		started <- struct{}{}
		<-release1Chan
		release()
	}()

	<-started
	done := make(chan struct{})
	go func() {
		_, release := c.Acquire(context.Background(), "m2")
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("meeting m2 should not be blocked by meeting m1's lock")
	}
	close(release1Chan)
}

func TestCancelAbortsInFlightContext(t *testing.T) {
	c := New()
	ctx, release := c.Acquire(context.Background(), "m1")
	defer release()

	c.Cancel("m1")

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("expected context to be cancelled")
	}
}

func TestChainDepthLimitEnforced(t *testing.T) {
	c := New()
	_, release := c.Acquire(context.Background(), "m1")
	defer release()

	for i := 0; i < DefaultMaxChainDepth; i++ {
		require.NoError(t, c.IncChainDepth("m1"))
	}
	assert.Error(t, c.IncChainDepth("m1"))
}

func TestReleaseResetsChainDepth(t *testing.T) {
	c := New()
	_, release := c.Acquire(context.Background(), "m1")
	require.NoError(t, c.IncChainDepth("m1"))
	require.NoError(t, c.IncChainDepth("m1"))
	release()

	_, release2 := c.Acquire(context.Background(), "m1")
	defer release2()
	for i := 0; i < DefaultMaxChainDepth; i++ {
		require.NoError(t, c.IncChainDepth("m1"))
	}
}
