package eventloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func start(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l := New(16)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(cancel)
	return l, cancel
}

func TestDoRunsInOrder(t *testing.T) {
	l, _ := start(t)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, l.Post(func() { got = append(got, i) }))
	}
	require.NoError(t, l.Do(func() { got = append(got, 99) }))

	assert.Equal(t, []int{0, 1, 2, 3, 4, 99}, got)
}

func TestSerializesConcurrentCallers(t *testing.T) {
	l, _ := start(t)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Do(func() { counter++ }))
		}()
	}
	wg.Wait()

	var final int
	require.NoError(t, l.Do(func() { final = counter }))
	assert.Equal(t, 50, final)
}

func TestStopped(t *testing.T) {
	l, cancel := start(t)
	cancel()

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	assert.ErrorIs(t, l.Post(func() {}), ErrStopped)
	assert.ErrorIs(t, l.Do(func() {}), ErrStopped)
}

func TestPing(t *testing.T) {
	l, _ := start(t)
	require.NoError(t, l.Ping(context.Background()))

	release := make(chan struct{})
	require.NoError(t, l.Post(func() { <-release }))
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Ping(ctx), context.DeadlineExceeded)
}
