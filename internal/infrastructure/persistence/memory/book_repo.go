package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/xiebiao/bookshelf/internal/domain/book"
)

// BookRepository 图书仓储的内存实现
type BookRepository struct {
	store *Store
}

var _ book.Repository = (*BookRepository)(nil)

// NewBookRepository 创建图书仓储
func NewBookRepository(store *Store) *BookRepository {
	return &BookRepository{store: store}
}

// Create 创建图书,ISBN重复时返回ErrISBNDuplicate
func (r *BookRepository) Create(ctx context.Context, b *book.Book) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	for _, existing := range r.store.books {
		if existing.ISBN == b.ISBN {
			return book.ErrISBNDuplicate
		}
	}

	b.ID = r.store.nextBookID
	r.store.nextBookID++
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	b.UpdatedAt = b.CreatedAt
	r.store.books[b.ID] = *b
	return nil
}

// FindByID 根据ID查询图书
func (r *BookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	b, ok := r.store.books[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	return &b, nil
}

// FindByIDs 批量查询,按ID升序返回,不存在的ID缺席
func (r *BookRepository) FindByIDs(ctx context.Context, ids []uint) ([]*book.Book, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	return r.findByIDs(ids), nil
}

func (r *BookRepository) findByIDs(ids []uint) []*book.Book {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	books := make([]*book.Book, 0, len(sorted))
	for _, id := range sorted {
		if b, ok := r.store.books[id]; ok {
			cp := b
			books = append(books, &cp)
		}
	}
	return books
}

// FindByISBN 根据ISBN查询图书
func (r *BookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	for _, b := range r.store.books {
		if b.ISBN == isbn {
			cp := b
			return &cp, nil
		}
	}
	return nil, book.ErrBookNotFound
}

// Delete 删除图书
func (r *BookRepository) Delete(ctx context.Context, id uint) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	if _, ok := r.store.books[id]; !ok {
		return book.ErrBookNotFound
	}
	delete(r.store.books, id)
	return nil
}

// LockByIDs 内存实现中事务本身已串行化,等价于FindByIDs
func (r *BookRepository) LockByIDs(ctx context.Context, ids []uint) ([]*book.Book, error) {
	return r.FindByIDs(ctx, ids)
}

// UpdateStock 原子增减库存
func (r *BookRepository) UpdateStock(ctx context.Context, id uint, delta int) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	b, ok := r.store.books[id]
	if !ok {
		return book.ErrBookNotFound
	}
	if b.Stock+delta < 0 {
		return book.ErrInsufficientStock
	}
	b.Stock += delta
	b.UpdatedAt = time.Now()
	r.store.books[id] = b
	return nil
}

// FindByGenreSubstring 类型字段包含token的图书,按价格降序
func (r *BookRepository) FindByGenreSubstring(ctx context.Context, token string) ([]*book.Book, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	var books []*book.Book
	for _, b := range r.store.books {
		if b.MatchesGenre(token) {
			cp := b
			books = append(books, &cp)
		}
	}
	slices.SortFunc(books, book.ComparePriceDesc)
	return books, nil
}

// FindTopByPriceDesc 按价格降序取前limit本
func (r *BookRepository) FindTopByPriceDesc(ctx context.Context, limit int) ([]*book.Book, error) {
	if limit <= 0 {
		return nil, nil
	}

	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	books := r.all()
	slices.SortFunc(books, book.ComparePriceDesc)
	if len(books) > limit {
		books = books[:limit]
	}
	return books, nil
}

// List 分页查询
func (r *BookRepository) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	keyword := strings.ToLower(strings.TrimSpace(params.Keyword))
	var matched []*book.Book
	for _, b := range r.all() {
		if keyword != "" && !matchesKeyword(b, keyword) {
			continue
		}
		if params.Genre != "" && !b.MatchesGenre(params.Genre) {
			continue
		}
		if params.MinPrice != nil && (!b.HasPrice() || *b.Price < *params.MinPrice) {
			continue
		}
		if params.MaxPrice != nil && (!b.HasPrice() || *b.Price > *params.MaxPrice) {
			continue
		}
		matched = append(matched, b)
	}

	switch params.SortBy {
	case book.SortPriceDesc:
		slices.SortFunc(matched, book.ComparePriceDesc)
	case book.SortPriceAsc:
		slices.SortFunc(matched, comparePriceAsc)
	default:
		slices.SortFunc(matched, func(a, b *book.Book) int { return int(b.ID) - int(a.ID) })
	}

	total := int64(len(matched))
	offset := (params.Page - 1) * params.PageSize
	if params.PageSize <= 0 || offset < 0 {
		return matched, total, nil
	}
	if offset >= len(matched) {
		return []*book.Book{}, total, nil
	}
	end := min(offset+params.PageSize, len(matched))
	return matched[offset:end], total, nil
}

// all 按ID升序返回全部图书的副本,调用方需持有锁
func (r *BookRepository) all() []*book.Book {
	books := make([]*book.Book, 0, len(r.store.books))
	for _, b := range r.store.books {
		cp := b
		books = append(books, &cp)
	}
	slices.SortFunc(books, func(a, b *book.Book) int { return int(a.ID) - int(b.ID) })
	return books
}

func matchesKeyword(b *book.Book, keyword string) bool {
	for _, field := range []string{b.Title, b.Author, b.Publisher, b.Genre} {
		if strings.Contains(strings.ToLower(field), keyword) {
			return true
		}
	}
	return false
}

// comparePriceAsc 价格升序,未定价的排在最后
func comparePriceAsc(a, b *book.Book) int {
	switch {
	case a.HasPrice() && !b.HasPrice():
		return -1
	case !a.HasPrice() && b.HasPrice():
		return 1
	case a.HasPrice() && b.HasPrice() && *a.Price != *b.Price:
		if *a.Price < *b.Price {
			return -1
		}
		return 1
	}
	return int(a.ID) - int(b.ID)
}
