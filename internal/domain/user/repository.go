package user

import (
	"context"
)

// Repository 用户仓储接口,mysql和memory各有一份实现
// 购物车、购买记录属于各自的聚合,删除用户不会级联删除它们,由注销用例统一编排
type Repository interface {
	// Create 创建用户,邮箱已存在返回ErrEmailDuplicate
	Create(ctx context.Context, user *User) error

	// FindByID 不存在返回ErrUserNotFound
	FindByID(ctx context.Context, id uint) (*User, error)

	// FindByEmail 按邮箱查找(大小写不敏感),不存在返回ErrUserNotFound
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Update 保存昵称、密码、角色
	Update(ctx context.Context, user *User) error

	// Delete 物理删除用户,不存在返回ErrUserNotFound
	Delete(ctx context.Context, id uint) error
}
