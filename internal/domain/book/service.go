package book

import (
	"context"
	"errors"

	"github.com/xiebiao/bookshelf/pkg/validator"
)

// Service 图书领域服务接口
// 设计说明:
// 1. 领域服务封装目录维护的业务规则校验(ISBN、价格、库存、ISBN唯一)
// 2. 权限(仅管理员可维护目录)由应用层在调用前校验,领域服务不感知用户
type Service interface {
	// PublishBook 发布图书(上架)
	// 业务规则:
	// - ISBN格式必须合法(10位或13位数字)
	// - 价格可以为空,不为空时必须在0-999999分之间
	// - 库存必须>=0,未指定时为DefaultStock
	// - ISBN不能重复
	PublishBook(ctx context.Context, b *Book) (*Book, error)

	// GetBookByID 根据ID获取图书详情
	GetBookByID(ctx context.Context, id uint) (*Book, error)

	// DeleteBook 下架图书,不存在返回ErrBookNotFound
	DeleteBook(ctx context.Context, id uint) error

	// ListBooks 分页查询图书列表
	ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error)
}

// service 领域服务实现
type service struct {
	repo Repository
}

// NewService 创建图书领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// MaxPrice 单本图书价格上限(分)
const MaxPrice int64 = 999999

// PublishBook 发布图书
func (s *service) PublishBook(ctx context.Context, b *Book) (*Book, error) {
	// 1. ISBN格式校验
	if !IsValidISBN(b.ISBN) {
		return nil, ErrInvalidISBN
	}

	// 2. 价格范围校验
	if b.Price != nil && (*b.Price < 0 || *b.Price > MaxPrice) {
		return nil, ErrInvalidPrice
	}

	// 3. 库存校验
	if b.Stock < 0 {
		return nil, ErrInvalidStock
	}

	// 4. 检查ISBN是否已存在(并发下由唯一索引兜底)
	existing, err := s.repo.FindByISBN(ctx, b.ISBN)
	if err == nil && existing != nil {
		return nil, ErrISBNDuplicate
	}
	if err != nil && !errors.Is(err, ErrBookNotFound) {
		return nil, err
	}

	// 5. 持久化
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetBookByID 根据ID获取图书
func (s *service) GetBookByID(ctx context.Context, id uint) (*Book, error) {
	return s.repo.FindByID(ctx, id)
}

// DeleteBook 下架图书
func (s *service) DeleteBook(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

// ListBooks 分页查询图书列表
func (s *service) ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	if params.MinPrice != nil && params.MaxPrice != nil && *params.MinPrice > *params.MaxPrice {
		return nil, 0, ErrInvalidPrice
	}
	return s.repo.List(ctx, params)
}

// IsValidISBN 校验ISBN格式(10位或13位,允许分隔符)
func IsValidISBN(isbn string) bool {
	return validator.IsISBN(isbn)
}
