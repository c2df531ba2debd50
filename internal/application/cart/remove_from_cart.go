package cart

import (
	"context"

	"github.com/xiebiao/bookshelf/internal/domain/cart"
	"github.com/xiebiao/bookshelf/internal/domain/tx"
)

// RemoveFromCartUseCase 从购物车移除一本
// 同一本书有多本时只移除一本;已下架的图书也可以移除
type RemoveFromCartUseCase struct {
	txManager tx.Manager
	locker    tx.Locker
	cartRepo  cart.Repository
}

// NewRemoveFromCartUseCase 创建移除用例
func NewRemoveFromCartUseCase(txManager tx.Manager, locker tx.Locker, cartRepo cart.Repository) *RemoveFromCartUseCase {
	return &RemoveFromCartUseCase{
		txManager: txManager,
		locker:    locker,
		cartRepo:  cartRepo,
	}
}

// Execute 执行移除,购物车中没有该图书返回ErrItemNotInCart
func (uc *RemoveFromCartUseCase) Execute(ctx context.Context, userID, bookID uint) (*View, error) {
	release, err := uc.locker.Acquire(ctx, tx.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer release()

	var view *View
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		c, err := uc.cartRepo.LockByUserID(txCtx, userID)
		if err != nil {
			return err
		}
		if !c.RemoveOne(bookID) {
			return cart.ErrItemNotInCart
		}
		if err := uc.cartRepo.Save(txCtx, c); err != nil {
			return err
		}
		view = NewView(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
