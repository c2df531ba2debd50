// Package purchase 购买记录用例
package purchase

import (
	"context"

	"github.com/xiebiao/bookshelf/internal/domain/cart"
	"github.com/xiebiao/bookshelf/internal/domain/purchase"
)

// ItemView 购买记录中的一行(同一本书合并)
type ItemView struct {
	BookID   uint   `json:"book_id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Genre    string `json:"genre"`
	Price    *int64 `json:"price"`
	Quantity int    `json:"quantity"`
	Removed  bool   `json:"removed"`
}

// HistoryView 购买记录视图
type HistoryView struct {
	UserID uint       `json:"user_id"`
	Items  []ItemView `json:"items"`
	Count  int        `json:"count"`
}

// ListHistoryUseCase 查看购买记录
type ListHistoryUseCase struct {
	purchaseRepo purchase.Repository
}

// NewListHistoryUseCase 创建查看购买记录用例
func NewListHistoryUseCase(purchaseRepo purchase.Repository) *ListHistoryUseCase {
	return &ListHistoryUseCase{purchaseRepo: purchaseRepo}
}

// Execute 按首次购买顺序返回购买记录
func (uc *ListHistoryUseCase) Execute(ctx context.Context, userID uint) (*HistoryView, error) {
	h, err := uc.purchaseRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newHistoryView(h), nil
}

func newHistoryView(h *purchase.History) *HistoryView {
	lines := cart.GroupLines(h.Items)
	v := &HistoryView{
		UserID: h.UserID,
		Items:  make([]ItemView, 0, len(lines)),
		Count:  len(h.Items),
	}
	for _, l := range lines {
		v.Items = append(v.Items, ItemView{
			BookID:   l.Book.ID,
			Title:    l.Book.Title,
			Author:   l.Book.Author,
			Genre:    l.Book.Genre,
			Price:    l.Book.Price,
			Quantity: l.Quantity,
			Removed:  l.Book.IsPlaceholder(),
		})
	}
	return v
}
