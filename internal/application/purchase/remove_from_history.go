package purchase

import (
	"context"

	"github.com/xiebiao/bookshelf/internal/domain/purchase"
	"github.com/xiebiao/bookshelf/internal/domain/tx"
)

// RemoveFromHistoryUseCase 用户删除一条购买记录(一本)
// 只影响推荐,不退还库存
type RemoveFromHistoryUseCase struct {
	txManager    tx.Manager
	locker       tx.Locker
	purchaseRepo purchase.Repository
}

// NewRemoveFromHistoryUseCase 创建删除购买记录用例
func NewRemoveFromHistoryUseCase(txManager tx.Manager, locker tx.Locker, purchaseRepo purchase.Repository) *RemoveFromHistoryUseCase {
	return &RemoveFromHistoryUseCase{
		txManager:    txManager,
		locker:       locker,
		purchaseRepo: purchaseRepo,
	}
}

// Execute 删除一本,记录中没有该图书返回ErrItemNotInHistory
func (uc *RemoveFromHistoryUseCase) Execute(ctx context.Context, userID, bookID uint) (*HistoryView, error) {
	// 与结算共用用户锁,避免结算追加的记录被覆盖
	release, err := uc.locker.Acquire(ctx, tx.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer release()

	var view *HistoryView
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		h, err := uc.purchaseRepo.GetOrCreate(txCtx, userID)
		if err != nil {
			return err
		}
		if !h.RemoveOne(bookID) {
			return purchase.ErrItemNotInHistory
		}
		if err := uc.purchaseRepo.Save(txCtx, h); err != nil {
			return err
		}
		view = newHistoryView(h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
