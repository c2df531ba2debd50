package book

import (
	"strings"
	"time"
)

// DefaultStock 新上架图书的默认库存
const DefaultStock = 5

// Book 图书实体(聚合根)
// DDD设计说明:
// 1. Book是图书聚合的根实体,包含图书的核心属性
// 2. 价格使用int64存储"分"为单位,可以为空(未定价的图书)
// 3. Genre是自由文本,一个字段可以用逗号分隔多个类型,如"Fantasy, Adventure"
// 4. 库存永远不能为负数,只能通过结算扣减或管理员补货增加
type Book struct {
	ID          uint
	ISBN        string // ISBN号(国际标准书号)
	Title       string // 书名
	Author      string // 作者
	Publisher   string // 出版社
	Genre       string // 类型标签(逗号分隔)
	Category    string // 分类
	Price       *int64 // 价格(单位:分),nil表示未定价
	Stock       int    // 库存数量
	CoverURL    string // 封面图片URL
	Description string // 图书描述
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewBook 创建新图书(工厂方法)
// 参数说明:
// - price: 价格(分),可以为nil
// - stock: 初始库存,传入nil时使用DefaultStock
func NewBook(isbn, title, author, publisher, genre string, price *int64, stock *int) *Book {
	now := time.Now()
	b := &Book{
		ISBN:      isbn,
		Title:     title,
		Author:    author,
		Publisher: publisher,
		Genre:     genre,
		Price:     price,
		Stock:     DefaultStock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if stock != nil {
		b.Stock = *stock
	}
	return b
}

// Placeholder 已下架图书的占位实体
// 购物车和购买记录只保存图书ID,图书被删除后用占位实体保留这一项
func Placeholder(id uint) *Book {
	return &Book{ID: id}
}

// IsPlaceholder 是否为已下架图书的占位实体
func (b *Book) IsPlaceholder() bool {
	return b.ISBN == "" && b.CreatedAt.IsZero()
}

// HasPrice 是否已定价
func (b *Book) HasPrice() bool {
	return b.Price != nil
}

// PriceOrZero 返回价格,未定价时返回0
func (b *Book) PriceOrZero() int64 {
	if b.Price == nil {
		return 0
	}
	return *b.Price
}

// HasStock 库存是否足够购买quantity本
func (b *Book) HasStock(quantity int) bool {
	return b.Stock >= quantity
}

// GenreTokens 返回规范化后的类型标签
// 规则:按逗号拆分、去除首尾空白、转小写、丢弃空串,保留原始顺序和重复
func (b *Book) GenreTokens() []string {
	return SplitGenres(b.Genre)
}

// MatchesGenre 类型字段是否包含token(大小写不敏感的子串匹配)
func (b *Book) MatchesGenre(token string) bool {
	token = NormalizeGenre(token)
	if token == "" {
		return false
	}
	return strings.Contains(strings.ToLower(b.Genre), token)
}

// SplitGenres 拆分逗号分隔的类型字段
func SplitGenres(genre string) []string {
	if genre == "" {
		return nil
	}
	parts := strings.Split(genre, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := NormalizeGenre(p); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// NormalizeGenre 去空白并转小写
func NormalizeGenre(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}

// ComparePriceDesc 按价格降序比较,未定价的排在最后,价格相同时按ID升序(上架顺序)
// 返回负数表示a排在b前面
func ComparePriceDesc(a, b *Book) int {
	switch {
	case a.HasPrice() && !b.HasPrice():
		return -1
	case !a.HasPrice() && b.HasPrice():
		return 1
	case a.HasPrice() && b.HasPrice() && *a.Price != *b.Price:
		if *a.Price > *b.Price {
			return -1
		}
		return 1
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}
