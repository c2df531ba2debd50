package cart

import (
	"context"
)

// Repository 购物车仓储接口
// 说明:Save是整体替换语义,保存后存储中的内容与Cart.Items完全一致(含顺序)
type Repository interface {
	// Create 为新用户创建空购物车
	Create(ctx context.Context, cart *Cart) error

	// FindByUserID 查询购物车,不存在返回ErrCartNotFound
	FindByUserID(ctx context.Context, userID uint) (*Cart, error)

	// LockByUserID 加锁查询购物车(SELECT ... FOR UPDATE),必须在事务中调用
	LockByUserID(ctx context.Context, userID uint) (*Cart, error)

	// Save 保存购物车内容
	Save(ctx context.Context, cart *Cart) error

	// DeleteByUserID 删除购物车(注销账号时显式调用)
	DeleteByUserID(ctx context.Context, userID uint) error
}
