package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_SerializesSameKey(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			release, err := locker.Acquire(ctx, "loyalty:profile:a")
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestLocalLocker_DifferentKeysDoNotBlock(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	releaseA, err := locker.Acquire(ctx, "a")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	releaseB, err := locker.Acquire(ctx, "b")
	require.NoError(t, err)
	releaseB()
}

func TestLocalLocker_TimeoutAndDoubleRelease(t *testing.T) {
	locker := NewLocalLocker()

	release, err := locker.Acquire(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locker.Acquire(ctx, "a")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release()

	again, err := locker.Acquire(context.Background(), "a")
	require.NoError(t, err)
	again()

	assert.Empty(t, locker.(*localLocker).slots)

	_, err = locker.Acquire(context.Background(), "")
	assert.Error(t, err)
}
