// Package lock 进程内按key加锁
package lock

import (
	"context"
	"sync"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// KeyedMutex 按key互斥的锁表
// 设计说明:
// 1. 每个key对应一个容量为1的channel,可以随ctx取消而放弃等待
// 2. 引用计数归零时删除表项,锁表不会随用户和图书数量无限增长
// 3. Acquire按传入顺序逐个加锁,调用方负责保证全局一致的加锁顺序
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex 创建锁表
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slot)}
}

// Acquire 依次获取keys上的锁,返回的release按相反顺序释放
// ctx取消时释放已获取的锁并返回ErrLockTimeout
func (m *KeyedMutex) Acquire(ctx context.Context, keys ...string) (func(), error) {
	held := make([]string, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			m.unlock(held[i])
		}
	}

	for _, key := range keys {
		if err := m.lock(ctx, key); err != nil {
			release()
			return nil, err
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (m *KeyedMutex) lock(ctx context.Context, key string) error {
	m.mu.Lock()
	s, ok := m.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	m.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.mu.Lock()
		m.deref(key, s)
		m.mu.Unlock()
		return apperrors.WrapCode(ctx.Err(), apperrors.ErrCodeLockTimeout, "系统繁忙，请稍后重试")
	}
}

func (m *KeyedMutex) unlock(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[key]
	if !ok {
		return
	}
	<-s.ch
	m.deref(key, s)
}

// deref 调用方需持有m.mu
func (m *KeyedMutex) deref(key string, s *slot) {
	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
}

// Len 当前锁表大小(测试用)
func (m *KeyedMutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}
