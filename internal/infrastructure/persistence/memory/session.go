package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// SessionStore 会话和Token黑名单的内存实现(单实例开发环境,未配置Redis时使用)
type SessionStore struct {
	mu        sync.Mutex
	now       func() time.Time
	sessions  map[uint]sessionEntry
	blacklist map[string]time.Time
}

type sessionEntry struct {
	data     map[string]string
	expireAt time.Time
}

// NewSessionStore 创建内存会话存储
func NewSessionStore() *SessionStore {
	return &SessionStore{
		now:       time.Now,
		sessions:  make(map[uint]sessionEntry),
		blacklist: make(map[string]time.Time),
	}
}

// SaveSession 保存会话,值统一转成字符串(与Redis Hash一致)
func (s *SessionStore) SaveSession(_ context.Context, userID uint, data map[string]any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := make(map[string]string, len(data))
	for k, v := range data {
		fields[k] = fmt.Sprint(v)
	}
	s.sessions[userID] = sessionEntry{data: fields, expireAt: s.now().Add(ttl)}
	return nil
}

// GetSession 获取会话,不存在或已过期返回ErrUnauthorized
func (s *SessionStore) GetSession(_ context.Context, userID uint) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[userID]
	if !ok || !s.now().Before(e.expireAt) {
		delete(s.sessions, userID)
		return nil, apperrors.ErrUnauthorized
	}
	out := make(map[string]string, len(e.data))
	for k, v := range e.data {
		out[k] = v
	}
	return out, nil
}

// DeleteSession 删除会话
func (s *SessionStore) DeleteSession(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

// AddToBlacklist 拉黑Token,ttl<=0时忽略
func (s *SessionStore) AddToBlacklist(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	// 顺便清理已过期的条目
	for t, exp := range s.blacklist {
		if !now.Before(exp) {
			delete(s.blacklist, t)
		}
	}
	s.blacklist[token] = now.Add(ttl)
	return nil
}

// IsInBlacklist Token是否已被拉黑
func (s *SessionStore) IsInBlacklist(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.blacklist[token]
	return ok && s.now().Before(exp), nil
}
