package tx

import (
	"context"
	"strconv"
)

// Locker 按key加互斥锁
// Acquire一次获取多个key,全部成功才返回release;调用方负责传入固定顺序的key,
// 全局统一顺序(先用户后图书,图书按ID升序)可以避免死锁
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// UserKey 用户级锁:同一用户的购物车修改、结算串行执行
func UserKey(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}

// BookKey 图书级锁:涉及同一本书的结算串行执行
func BookKey(bookID uint) string {
	return "book:" + strconv.FormatUint(uint64(bookID), 10)
}

// BookKeys 按传入顺序生成图书锁key(调用方保证升序)
func BookKeys(ids []uint) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BookKey(id)
	}
	return keys
}
