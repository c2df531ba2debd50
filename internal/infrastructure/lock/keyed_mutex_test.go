package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

func TestKeyedMutex_SameKeySerializes(t *testing.T) {
	m := NewKeyedMutex()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Acquire(context.Background(), "user:1")
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
	assert.Equal(t, 0, m.Len(), "释放后锁表应清空")
}

func TestKeyedMutex_DisjointKeysDoNotBlock(t *testing.T) {
	m := NewKeyedMutex()
	release, err := m.Acquire(context.Background(), "book:1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	other, err := m.Acquire(ctx, "book:2")
	require.NoError(t, err)
	other()
}

func TestKeyedMutex_ContextCancel(t *testing.T) {
	m := NewKeyedMutex()
	release, err := m.Acquire(context.Background(), "book:2")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// 已获取的book:1必须在失败时释放
	_, err = m.Acquire(ctx, "book:1", "book:2")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeLockTimeout, apperrors.CodeOf(err))

	release()
	assert.Equal(t, 0, m.Len())

	again, err := m.Acquire(context.Background(), "book:1", "book:2")
	require.NoError(t, err)
	again()
	again() // 重复调用无副作用
}
