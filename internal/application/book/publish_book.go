package book

import (
	"context"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/pkg/logger"
)

// PublishBookUseCase 图书上架用例
// 设计说明:
// 1. 只有管理员可以维护目录,角色校验放在应用层(路由上的角色中间件是第一道防线)
// 2. ISBN格式、价格范围、ISBN唯一由领域服务校验
type PublishBookUseCase struct {
	bookService book.Service
}

// NewPublishBookUseCase 创建上架用例
func NewPublishBookUseCase(bookService book.Service) *PublishBookUseCase {
	return &PublishBookUseCase{bookService: bookService}
}

// PublishBookRequest 上架请求
type PublishBookRequest struct {
	OperatorID   uint   // 操作人ID(从认证中间件获取)
	OperatorRole string // 操作人角色
	ISBN         string
	Title        string
	Author       string
	Publisher    string
	Genre        string
	Category     string
	Price        *int64 // 价格(分),nil表示未定价
	Stock        *int   // 初始库存,nil时使用默认库存
	CoverURL     string
	Description  string
}

// Execute 执行上架
func (uc *PublishBookUseCase) Execute(ctx context.Context, req PublishBookRequest) (*BookDetail, error) {
	// 1. 权限校验
	if user.Role(req.OperatorRole) != user.RoleAdmin {
		return nil, book.ErrForbidden
	}

	// 2. 构造实体并交给领域服务
	b := book.NewBook(req.ISBN, req.Title, req.Author, req.Publisher, req.Genre, req.Price, req.Stock)
	b.Category = req.Category
	b.CoverURL = req.CoverURL
	b.Description = req.Description

	created, err := uc.bookService.PublishBook(ctx, b)
	if err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Info().
		Uint("book_id", created.ID).
		Str("isbn", created.ISBN).
		Uint("operator_id", req.OperatorID).
		Msg("图书上架")
	return toDetail(created), nil
}
