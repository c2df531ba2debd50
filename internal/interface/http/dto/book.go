package dto

import (
	"fmt"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
)

// PublishBookRequest HTTP上架请求
// validator tag说明:
// - isbn: 自定义ISBN格式校验(pkg/validator中注册)
// - genres: 逗号分隔的类型列表
// - price/stock可以省略:price省略表示未定价,stock省略使用默认库存
type PublishBookRequest struct {
	ISBN        string `json:"isbn" binding:"required,isbn" example:"9787115428028"`
	Title       string `json:"title" binding:"required,max=200" example:"Go语言实战"`
	Author      string `json:"author" binding:"required,max=100" example:"威廉·肯尼迪"`
	Publisher   string `json:"publisher" binding:"omitempty,max=100" example:"人民邮电出版社"`
	Genre       string `json:"genre" binding:"omitempty,max=255,genres" example:"Programming, Computer Science"`
	Category    string `json:"category" binding:"omitempty,max=50" example:"计算机"`
	Price       *int64 `json:"price" binding:"omitempty,min=0,max=999999" example:"5900"` // 价格(分)
	Stock       *int   `json:"stock" binding:"omitempty,min=0" example:"5"`
	CoverURL    string `json:"cover_url" binding:"omitempty,url,max=500" example:"https://example.com/cover.jpg"`
	Description string `json:"description" binding:"max=5000" example:"这是一本关于Go语言的实战书籍"`
}

// BookResponse HTTP图书详情响应
type BookResponse struct {
	appbook.BookDetail
	PriceYuan string `json:"price_yuan" example:"59.00"` // 价格(元),未定价为空串
}

// BookListItem HTTP图书列表项
type BookListItem struct {
	appbook.BookListItem
	PriceYuan string `json:"price_yuan" example:"59.00"`
}

// ListBooksRequest HTTP图书列表请求
type ListBooksRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Keyword  string `form:"keyword" binding:"omitempty,max=100" example:"Go"`
	Genre    string `form:"genre" binding:"omitempty,max=50" example:"fiction"`
	MinPrice *int64 `form:"min_price" binding:"omitempty,min=0" example:"1000"`
	MaxPrice *int64 `form:"max_price" binding:"omitempty,min=0" example:"9900"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=price_asc price_desc created_at_desc" example:"price_desc"`
}

// NewBookResponse 应用层详情 → HTTP响应
func NewBookResponse(d *appbook.BookDetail) *BookResponse {
	return &BookResponse{BookDetail: *d, PriceYuan: FormatPriceYuan(d.Price)}
}

// NewBookListItems 列表项附带元单位价格
func NewBookListItems(items []appbook.BookListItem) []BookListItem {
	list := make([]BookListItem, len(items))
	for i, item := range items {
		list[i] = BookListItem{BookListItem: item, PriceYuan: FormatPriceYuan(item.Price)}
	}
	return list
}

// FormatPriceYuan 格式化价格(分→元),例如5900 → "59.00",未定价返回空串
func FormatPriceYuan(priceFen *int64) string {
	if priceFen == nil {
		return ""
	}
	return fmt.Sprintf("%d.%02d", *priceFen/100, *priceFen%100)
}
