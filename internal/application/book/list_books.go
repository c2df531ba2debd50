package book

import (
	"context"

	"github.com/xiebiao/bookshelf/internal/domain/book"
)

// 分页参数
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListBooksUseCase 图书列表查询用例
// 列表不返回description,详情走GetBookUseCase
type ListBooksUseCase struct {
	bookService book.Service
}

// NewListBooksUseCase 创建列表查询用例
func NewListBooksUseCase(bookService book.Service) *ListBooksUseCase {
	return &ListBooksUseCase{bookService: bookService}
}

// ListBooksRequest 列表查询请求
type ListBooksRequest struct {
	Page     int
	PageSize int
	Keyword  string // 搜索标题、作者、出版社、类型(大小写不敏感)
	Genre    string // 类型子串过滤
	MinPrice *int64
	MaxPrice *int64
	SortBy   string // price_asc, price_desc, created_at_desc
}

// ListBooksResponse 列表查询响应
type ListBooksResponse struct {
	List       []BookListItem `json:"list"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// Execute 执行列表查询
func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) (*ListBooksResponse, error) {
	// 1. 参数默认值与范围限制
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = DefaultPageSize
	}
	if req.PageSize > MaxPageSize {
		req.PageSize = MaxPageSize
	}
	switch req.SortBy {
	case book.SortPriceAsc, book.SortPriceDesc, book.SortCreatedAtDesc:
	default:
		req.SortBy = book.SortCreatedAtDesc
	}

	// 2. 查询
	books, total, err := uc.bookService.ListBooks(ctx, book.ListParams{
		Page:     req.Page,
		PageSize: req.PageSize,
		Keyword:  req.Keyword,
		Genre:    req.Genre,
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		SortBy:   req.SortBy,
	})
	if err != nil {
		return nil, err
	}

	// 3. 转换为DTO
	list := make([]BookListItem, len(books))
	for i, b := range books {
		list[i] = toListItem(b)
	}

	totalPages := int(total) / req.PageSize
	if int(total)%req.PageSize != 0 {
		totalPages++
	}

	return &ListBooksResponse{
		List:       list,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}, nil
}
