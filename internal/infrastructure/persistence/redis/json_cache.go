package redis

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// JSONCache 以JSON存储任意值的缓存(推荐结果)
type JSONCache struct {
	client redis.Cmdable
	prefix string
}

// NewJSONCache 创建缓存,prefix作为所有key的前缀
func NewJSONCache(client redis.Cmdable, prefix string) *JSONCache {
	return &JSONCache{client: client, prefix: prefix}
}

// Get 读取缓存并解码到dst,未命中返回false
func (c *JSONCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "读取缓存失败")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, apperrors.Wrap(err, "解析缓存失败")
	}
	return true, nil
}

// Set 写入缓存
func (c *JSONCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperrors.Wrap(err, "序列化缓存失败")
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "写入缓存失败")
	}
	return nil
}
