package cart

import (
	"slices"
	"time"

	"github.com/xiebiao/bookshelf/internal/domain/book"
)

// Cart 购物车实体(聚合根)
// 设计说明:
// 1. 每个用户有且只有一个购物车,注册时创建,注销时删除
// 2. Items按加入顺序保存,每个元素代表一本(一个单位),同一本书出现多次即表示数量
// 3. 购物车中的图书引用目录中的图书,不复制价格,合计时读取当前价格
type Cart struct {
	UserID    uint
	Items     []*book.Book
	UpdatedAt time.Time
}

// NewCart 创建空购物车
func NewCart(userID uint) *Cart {
	return &Cart{UserID: userID, UpdatedAt: time.Now()}
}

// Add 加入一本图书,重复加入合法
func (c *Cart) Add(b *book.Book) {
	c.Items = append(c.Items, b)
	c.UpdatedAt = time.Now()
}

// RemoveOne 移除一本匹配的图书(最早加入的那一本)
// 购物车中没有该图书时返回false
func (c *Cart) RemoveOne(bookID uint) bool {
	for i, b := range c.Items {
		if b.ID == bookID {
			c.Items = slices.Delete(c.Items, i, i+1)
			c.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// Total 合计金额(分),未定价的图书按0计
func (c *Cart) Total() int64 {
	var total int64
	for _, b := range c.Items {
		total += b.PriceOrZero()
	}
	return total
}

// Clear 清空购物车,仅在结算成功的最后一步调用
func (c *Cart) Clear() {
	c.Items = nil
	c.UpdatedAt = time.Now()
}

// IsEmpty 是否为空
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Len 图书总本数
func (c *Cart) Len() int {
	return len(c.Items)
}

// Count 某本图书的数量
func (c *Cart) Count(bookID uint) int {
	n := 0
	for _, b := range c.Items {
		if b.ID == bookID {
			n++
		}
	}
	return n
}

// Quantities 按图书ID分组的数量
func (c *Cart) Quantities() map[uint]int {
	q := make(map[uint]int, len(c.Items))
	for _, b := range c.Items {
		q[b.ID]++
	}
	return q
}

// DistinctIDs 去重后的图书ID(升序),结算按此顺序加锁
func (c *Cart) DistinctIDs() []uint {
	q := c.Quantities()
	ids := make([]uint, 0, len(q))
	for id := range q {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Lines 按首次加入顺序分组的购物车行
func (c *Cart) Lines() []Line {
	return GroupLines(c.Items)
}

// Line 分组后的一行(图书+数量)
type Line struct {
	Book     *book.Book
	Quantity int
}

// GroupLines 按图书ID分组,保持首次出现的顺序
func GroupLines(items []*book.Book) []Line {
	index := make(map[uint]int, len(items))
	lines := make([]Line, 0, len(items))
	for _, b := range items {
		if i, ok := index[b.ID]; ok {
			lines[i].Quantity++
			continue
		}
		index[b.ID] = len(lines)
		lines = append(lines, Line{Book: b, Quantity: 1})
	}
	return lines
}
