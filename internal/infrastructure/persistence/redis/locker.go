package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/logger"
)

// releaseScript 只删除自己持有的锁(value等于token时才DEL)
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker 基于Redis的分布式锁,多实例部署时替代进程内锁
// 设计说明:
// 1. 加锁:SET lock:{key} {token} NX PX ttl,token为uuid,标识持有者
// 2. 解锁:Lua脚本比较token后删除,不会误删其他实例在过期后重新获取的锁
// 3. 获取失败按RetryDelay重试,超过WaitTime或ctx取消返回ErrLockTimeout
type Locker struct {
	client     redis.Cmdable
	ttl        time.Duration
	retryDelay time.Duration
	waitTime   time.Duration
}

// NewLocker 创建分布式锁
func NewLocker(client redis.Cmdable, ttl, retryDelay, waitTime time.Duration) *Locker {
	return &Locker{client: client, ttl: ttl, retryDelay: retryDelay, waitTime: waitTime}
}

// Acquire 依次获取keys上的锁,返回的release按相反顺序释放
func (l *Locker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, l.waitTime)
	defer cancel()

	token := uuid.NewString()
	held := make([]string, 0, len(keys))
	release := func() {
		// 释放不受调用方ctx取消影响
		rctx, rcancel := context.WithTimeout(context.Background(), time.Second)
		defer rcancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := releaseScript.Run(rctx, l.client, []string{held[i]}, token).Err(); err != nil {
				logger.Warn().Err(err).Str("key", held[i]).Msg("释放分布式锁失败,等待过期")
			}
		}
	}

	for _, key := range keys {
		lockKey := "lock:" + key
		if err := l.lock(ctx, lockKey, token); err != nil {
			release()
			return nil, err
		}
		held = append(held, lockKey)
	}
	return release, nil
}

func (l *Locker) lock(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(l.retryDelay)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "获取分布式锁失败")
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return apperrors.WrapCode(ctx.Err(), apperrors.ErrCodeLockTimeout, "系统繁忙，请稍后重试")
		case <-ticker.C:
		}
	}
}
