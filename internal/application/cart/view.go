// Package cart 购物车用例:加购、移除一本、查看
package cart

import (
	"github.com/xiebiao/bookshelf/internal/domain/cart"
)

// LineView 购物车中的一行(同一本书合并)
type LineView struct {
	BookID   uint   `json:"book_id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Price    *int64 `json:"price"`
	Quantity int    `json:"quantity"`
	Subtotal int64  `json:"subtotal"`
	Removed  bool   `json:"removed"` // 图书已下架,结算会失败
}

// View 购物车视图
type View struct {
	UserID uint       `json:"user_id"`
	Lines  []LineView `json:"lines"`
	Count  int        `json:"count"` // 总本数
	Total  int64      `json:"total"` // 总价(分),未定价的图书按0计
}

// NewView 由购物车实体构造视图,行按首次加入的顺序排列
func NewView(c *cart.Cart) *View {
	lines := c.Lines()
	v := &View{
		UserID: c.UserID,
		Lines:  make([]LineView, 0, len(lines)),
		Count:  c.Len(),
		Total:  c.Total(),
	}
	for _, l := range lines {
		v.Lines = append(v.Lines, LineView{
			BookID:   l.Book.ID,
			Title:    l.Book.Title,
			Author:   l.Book.Author,
			Price:    l.Book.Price,
			Quantity: l.Quantity,
			Subtotal: l.Book.PriceOrZero() * int64(l.Quantity),
			Removed:  l.Book.IsPlaceholder(),
		})
	}
	return v
}
