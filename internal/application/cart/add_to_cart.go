package cart

import (
	"context"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/cart"
	"github.com/xiebiao/bookshelf/internal/domain/tx"
)

// AddToCartUseCase 加入购物车(一次一本,重复加入表示数量+1)
// 说明:加购不检查库存,库存在结算时统一校验
type AddToCartUseCase struct {
	txManager tx.Manager
	locker    tx.Locker
	cartRepo  cart.Repository
	bookRepo  book.Repository
}

// NewAddToCartUseCase 创建加购用例
func NewAddToCartUseCase(txManager tx.Manager, locker tx.Locker, cartRepo cart.Repository, bookRepo book.Repository) *AddToCartUseCase {
	return &AddToCartUseCase{
		txManager: txManager,
		locker:    locker,
		cartRepo:  cartRepo,
		bookRepo:  bookRepo,
	}
}

// Execute 执行加购,返回加购后的购物车
func (uc *AddToCartUseCase) Execute(ctx context.Context, userID, bookID uint) (*View, error) {
	// 1. 用户锁,与结算互斥
	release, err := uc.locker.Acquire(ctx, tx.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer release()

	var view *View
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 2. 图书必须存在
		b, err := uc.bookRepo.FindByID(txCtx, bookID)
		if err != nil {
			return err
		}

		// 3. 加入购物车并保存
		c, err := uc.cartRepo.LockByUserID(txCtx, userID)
		if err != nil {
			return err
		}
		c.Add(b)
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
