package purchase

import (
	"encoding/binary"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/xiebiao/bookshelf/internal/domain/book"
)

// History 购买记录(聚合根)
// 设计说明:
// 1. 每个用户有且只有一份购买记录,注册时创建
// 2. 只有结算可以追加记录,用户可以删除单条记录
// 3. 按购买顺序保存,同一本书可以出现多次
type History struct {
	UserID    uint
	Items     []*book.Book
	UpdatedAt time.Time
}

// NewHistory 创建空购买记录
func NewHistory(userID uint) *History {
	return &History{UserID: userID, UpdatedAt: time.Now()}
}

// Add 追加一本
func (h *History) Add(b *book.Book) {
	h.Items = append(h.Items, b)
	h.UpdatedAt = time.Now()
}

// AddAll 按顺序追加多本
func (h *History) AddAll(books []*book.Book) {
	h.Items = append(h.Items, books...)
	h.UpdatedAt = time.Now()
}

// RemoveOne 删除一本匹配的记录,没有时返回false
func (h *History) RemoveOne(bookID uint) bool {
	for i, b := range h.Items {
		if b.ID == bookID {
			h.Items = slices.Delete(h.Items, i, i+1)
			h.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// IsEmpty 是否为空
func (h *History) IsEmpty() bool {
	return len(h.Items) == 0
}

// GenresOwned 已购图书的类型标签
// 按购买顺序展开每本书的类型字段,去空白、转小写、丢弃空串,重复保留(用于统计频次)
func (h *History) GenresOwned() []string {
	var tokens []string
	for _, b := range h.Items {
		tokens = append(tokens, b.GenreTokens()...)
	}
	return tokens
}

// Owns 是否已购买过
func (h *History) Owns(bookID uint) bool {
	for _, b := range h.Items {
		if b.ID == bookID {
			return true
		}
	}
	return false
}

// OwnedIDs 已购图书ID集合
func (h *History) OwnedIDs() map[uint]struct{} {
	owned := make(map[uint]struct{}, len(h.Items))
	for _, b := range h.Items {
		owned[b.ID] = struct{}{}
	}
	return owned
}

// Fingerprint 购买记录指纹
// 对记录中的图书ID序列做xxhash,任何追加或删除都会改变指纹,用作推荐缓存key的一部分
func (h *History) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, b := range h.Items {
		binary.BigEndian.PutUint64(buf[:], uint64(b.ID))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
