package book

import (
	"github.com/xiebiao/bookshelf/internal/domain/book"
)

const timeLayout = "2006-01-02 15:04:05"

// BookListItem 列表项DTO(不含description)
type BookListItem struct {
	ID        uint   `json:"id"`
	ISBN      string `json:"isbn"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Publisher string `json:"publisher"`
	Genre     string `json:"genre"`
	Price     *int64 `json:"price"` // 价格(分),未定价为null
	Stock     int    `json:"stock"`
	CoverURL  string `json:"cover_url"`
	CreatedAt string `json:"created_at"`
}

// BookDetail 图书详情DTO
type BookDetail struct {
	BookListItem
	Category    string `json:"category"`
	Description string `json:"description"`
	UpdatedAt   string `json:"updated_at"`
}

func toListItem(b *book.Book) BookListItem {
	return BookListItem{
		ID:        b.ID,
		ISBN:      b.ISBN,
		Title:     b.Title,
		Author:    b.Author,
		Publisher: b.Publisher,
		Genre:     b.Genre,
		Price:     b.Price,
		Stock:     b.Stock,
		CoverURL:  b.CoverURL,
		CreatedAt: b.CreatedAt.Format(timeLayout),
	}
}

func toDetail(b *book.Book) *BookDetail {
	return &BookDetail{
		BookListItem: toListItem(b),
		Category:     b.Category,
		Description:  b.Description,
		UpdatedAt:    b.UpdatedAt.Format(timeLayout),
	}
}
