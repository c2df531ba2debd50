package book

import (
	"context"
)

// Repository 图书仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现(MySQL、内存)
// 2. 结算只依赖按ID查询、批量查询、行锁和原子扣减
// 3. 推荐只依赖按类型子串查询和按价格取前N本
//
// 排序约定:"按价格降序"时未定价的图书排在最后,价格相同按ID升序
type Repository interface {
	// Create 创建图书
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书,不存在返回ErrBookNotFound
	FindByID(ctx context.Context, id uint) (*Book, error)

	// FindByIDs 批量查询,不存在的ID直接缺席,不报错
	FindByIDs(ctx context.Context, ids []uint) ([]*Book, error)

	// FindByISBN 根据ISBN查找图书
	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	// Delete 下架图书,不存在返回ErrBookNotFound
	// 购物车、购买记录中的ID保留,之后按ID查询时缺席
	Delete(ctx context.Context, id uint) error

	// List 分页查询图书列表
	List(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// LockByIDs 悲观锁批量查询(SELECT ... FOR UPDATE ORDER BY id)
	// 必须在事务中调用,按ID升序加锁防止死锁
	LockByIDs(ctx context.Context, ids []uint) ([]*Book, error)

	// UpdateStock 更新库存(原子操作)
	// delta为正数表示增加,负数表示减少
	// 扣减后库存为负时返回ErrInsufficientStock,图书不存在返回ErrBookNotFound
	UpdateStock(ctx context.Context, id uint, delta int) error

	// FindByGenreSubstring 查询类型字段包含token的图书(大小写不敏感),按价格降序
	FindByGenreSubstring(ctx context.Context, token string) ([]*Book, error)

	// FindTopByPriceDesc 按价格降序取前limit本
	FindTopByPriceDesc(ctx context.Context, limit int) ([]*Book, error)
}

// ListParams 列表查询参数
type ListParams struct {
	Page     int    // 页码(从1开始)
	PageSize int    // 每页数量
	Keyword  string // 搜索关键词(标题、作者、出版社、类型)
	Genre    string // 类型过滤(子串匹配)
	MinPrice *int64 // 最低价格(分)
	MaxPrice *int64 // 最高价格(分)
	SortBy   string // 排序字段(price_asc, price_desc, created_at_desc)
}

// 排序方式
const (
	SortPriceAsc      = "price_asc"
	SortPriceDesc     = "price_desc"
	SortCreatedAtDesc = "created_at_desc"
)
