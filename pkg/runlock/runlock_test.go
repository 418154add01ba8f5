package runlock

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func exercise(t *testing.T, l Locker, name string) {
	t.Helper()
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), name)
			require.NoError(t, err)
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			require.NoError(t, release())
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), maxInside)
}

func TestLocalIsExclusive(t *testing.T) {
	exercise(t, NewLocal(), "output")
}

func TestLocalNamesAreIndependent(t *testing.T) {
	l := NewLocal()
	r1, err := l.Acquire(context.Background(), "a")
	require.NoError(t, err)
	r2, err := l.Acquire(context.Background(), "b")
	require.NoError(t, err)
	require.NoError(t, r1())
	require.NoError(t, r2())
}

func TestLocalAcquireHonoursContext(t *testing.T) {
	var l Local
	release, err := l.Acquire(context.Background(), "x")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "x")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, release())
	require.ErrorIs(t, release(), ErrNotHeld)
}

// Redis tests are opt-in: set REDIS_TEST_ADDR to a disposable instance.
func TestRedisIsExclusive(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("set REDIS_TEST_ADDR to run redis lock tests")
	}
	r, err := ConnectRedis(context.Background(), addr)
	require.NoError(t, err)
	defer r.Close()
	r.Poll = 2 * time.Millisecond
	exercise(t, r, "test-"+time.Now().Format("150405.000"))
}

func TestRedisReleaseAfterExpiry(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("set REDIS_TEST_ADDR to run redis lock tests")
	}
	r, err := ConnectRedis(context.Background(), addr)
	require.NoError(t, err)
	defer r.Close()
	r.TTL = 20 * time.Millisecond
	release, err := r.Acquire(context.Background(), "expiry-"+time.Now().Format("150405.000"))
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	require.ErrorIs(t, release(), ErrNotHeld)
}
