package user

import (
	"context"
	"time"
)

// SessionStore 会话存储端口
// 实现:persistence/redis.SessionStore(生产)、persistence/memory.SessionStore(开发)
type SessionStore interface {
	SaveSession(ctx context.Context, userID uint, data map[string]any, ttl time.Duration) error
	GetSession(ctx context.Context, userID uint) (map[string]string, error)
	DeleteSession(ctx context.Context, userID uint) error
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error
}

// UserInfo 用户信息(不含密码)
type UserInfo struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}
