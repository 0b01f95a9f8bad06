package lock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestWithKey(t *testing.T) {
	t.Run(`serializes same key`, func(t *testing.T) {
		var inside, maxInside, failed int32
		wg := sync.WaitGroup{}
		for k := 0; k < 10; k++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := WithKey(context.Background(), "user-1", func() error {
					n := atomic.AddInt32(&inside, 1)
					if n > atomic.LoadInt32(&maxInside) {
						atomic.StoreInt32(&maxInside, n)
					}
					time.Sleep(time.Millisecond)
					atomic.AddInt32(&inside, -1)
					return nil
				})
				if err != nil {
					atomic.AddInt32(&failed, 1)
				}
			}()
		}
		wg.Wait()
		require.Zero(t, failed)
		require.Equal(t, int32(1), maxInside)
	})
	t.Run(`timeout while held`, func(t *testing.T) {
		held := make(chan struct{})
		unblock := make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = WithKey(context.Background(), "user-2", func() error {
				close(held)
				<-unblock
				return nil
			})
		}()
		<-held
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := WithKey(ctx, "user-2", func() error { return nil })
		require.True(t, errors.Is(err, context.DeadlineExceeded))
		close(unblock)
		<-done
	})
	t.Run(`error is returned`, func(t *testing.T) {
		err := WithKey(context.Background(), "user-3", func() error { return errors.New("boom") })
		require.EqualError(t, err, "boom")
	})
	t.Run(`entries are released`, func(t *testing.T) {
		wg := sync.WaitGroup{}
		for k := 0; k < 100; k++ {
			wg.Add(1)
			go func(k int) {
				defer wg.Done()
				_ = WithKey(context.Background(), fmt.Sprintf("user-%d", k%7), func() error {
					time.Sleep(time.Millisecond)
					return nil
				})
			}(k)
		}
		wg.Wait()
		require.Zero(t, size())
	})
	t.Run(`timed out waiter leaves no entry`, func(t *testing.T) {
		held := make(chan struct{})
		unblock := make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = WithKey(context.Background(), "user-4", func() error {
				close(held)
				<-unblock
				return nil
			})
		}()
		<-held
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		defer cancel()
		require.Error(t, WithKey(ctx, "user-4", func() error { return nil }))
		close(unblock)
		<-done
		require.Zero(t, size())
	})
}
