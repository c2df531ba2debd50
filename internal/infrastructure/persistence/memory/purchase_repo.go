package memory

import (
	"context"
	"time"

	"github.com/xiebiao/bookshelf/internal/domain/purchase"
)

// PurchaseRepository 购买记录仓储的内存实现
type PurchaseRepository struct {
	store *Store
}

var _ purchase.Repository = (*PurchaseRepository)(nil)

// NewPurchaseRepository 创建购买记录仓储
func NewPurchaseRepository(store *Store) *PurchaseRepository {
	return &PurchaseRepository{store: store}
}

// GetOrCreate 查询购买记录,不存在时创建空记录
func (r *PurchaseRepository) GetOrCreate(ctx context.Context, userID uint) (*purchase.History, error) {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	ids, ok := r.store.histories[userID]
	if !ok {
		r.store.histories[userID] = []uint{}
	}
	return &purchase.History{UserID: userID, Items: r.store.resolveBooks(ids), UpdatedAt: time.Now()}, nil
}

// Save 整体替换购买记录
func (r *PurchaseRepository) Save(ctx context.Context, h *purchase.History) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	r.store.histories[h.UserID] = bookIDs(h.Items)
	return nil
}

// DeleteByUserID 删除购买记录
func (r *PurchaseRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	delete(r.store.histories, userID)
	return nil
}
