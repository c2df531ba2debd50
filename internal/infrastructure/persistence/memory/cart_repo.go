package memory

import (
	"context"
	"slices"
	"time"

	"github.com/xiebiao/bookshelf/internal/domain/cart"
)

// CartRepository 购物车仓储的内存实现
type CartRepository struct {
	store *Store
}

var _ cart.Repository = (*CartRepository)(nil)

// NewCartRepository 创建购物车仓储
func NewCartRepository(store *Store) *CartRepository {
	return &CartRepository{store: store}
}

// Create 创建空购物车,已存在时不覆盖
func (r *CartRepository) Create(ctx context.Context, c *cart.Cart) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	if _, ok := r.store.carts[c.UserID]; !ok {
		r.store.carts[c.UserID] = bookIDs(c.Items)
	}
	return nil
}

// FindByUserID 查询购物车
func (r *CartRepository) FindByUserID(ctx context.Context, userID uint) (*cart.Cart, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	ids, ok := r.store.carts[userID]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	return &cart.Cart{UserID: userID, Items: r.store.resolveBooks(ids), UpdatedAt: time.Now()}, nil
}

// LockByUserID 事务已串行化,等价于FindByUserID
func (r *CartRepository) LockByUserID(ctx context.Context, userID uint) (*cart.Cart, error) {
	return r.FindByUserID(ctx, userID)
}

// Save 整体替换购物车内容
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	if _, ok := r.store.carts[c.UserID]; !ok {
		return cart.ErrCartNotFound
	}
	r.store.carts[c.UserID] = slices.Clip(bookIDs(c.Items))
	return nil
}

// DeleteByUserID 删除购物车
func (r *CartRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	delete(r.store.carts, userID)
	return nil
}
