package purchase

import (
	"context"
)

// Repository 购买记录仓储接口
type Repository interface {
	// GetOrCreate 查询购买记录,不存在时创建一份空记录
	GetOrCreate(ctx context.Context, userID uint) (*History, error)

	// Save 保存购买记录(整体替换)
	Save(ctx context.Context, history *History) error

	// DeleteByUserID 删除购买记录(注销账号时显式调用)
	DeleteByUserID(ctx context.Context, userID uint) error
}
