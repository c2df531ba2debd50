// Package tx 定义事务边界
package tx

import "context"

// Manager 事务管理器接口
// fn中使用传入的ctx调用仓储,所有操作加入同一事务;fn返回错误时全部回滚
type Manager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
